package cmd

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	config "clinic-queue.com/clinic-queue/internal/configs"
)

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (config.Config, *logrus.Logger, *gorm.DB, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger := config.NewLogger(cfg)
	if envErr != nil {
		logger.Debug(".env file not found, using environment variables")
	}

	db, err := config.NewDatabaseClient(cfg, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	return cfg, logger, db, nil
}
