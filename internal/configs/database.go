package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	model "clinic-queue.com/clinic-queue/internal/models"
)

func NewDatabaseClient(cfg Config, logger *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabaseDSN))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.New(logger, gormLogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "db open failed")
	}

	if cfg.DatabaseDriver == DriverSQLite {
		// sqlite allows one writer; a single connection turns lock
		// contention into queueing instead of SQLITE_BUSY errors.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// SQLiteDSN makes writers from other processes wait for the lock and take it
// when their transaction begins, instead of failing with SQLITE_BUSY midway.
func SQLiteDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "_busy_timeout=") {
		params = append(params, "_busy_timeout=5000")
	}
	if !strings.Contains(dsn, "_txlock=") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Migrate creates the schema and the singleton queue row.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Token{}, &model.QueueState{}); err != nil {
		return errors.Wrap(err, "migration failed")
	}

	state := model.QueueState{ID: model.QueueStateID, Version: 1}
	if err := db.Where(model.QueueState{ID: model.QueueStateID}).FirstOrCreate(&state).Error; err != nil {
		return errors.Wrap(err, "queue state seed failed")
	}

	return nil
}
