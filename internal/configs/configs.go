package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SequencerDatabase = "database"
	SequencerRedis    = "redis"
)

type Config struct {
	AppEnv                 string
	AppURL                 string
	LogLevel               string
	DatabaseDriver         string
	DatabaseDSN            string
	TokenSequencer         string
	RedisAddr              string
	RedisSequenceKey       string
	NumberRetries          int
	TimestampFallback      bool
	AdvanceRetries         int
	StrictTransitions      bool
	RateLimit              int
	CORSAllowedOrigins     []string
	StaticDir              string
	ShutdownTimeoutSeconds int
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() (Config, error) {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "5000")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		AppURL:             fmt.Sprintf("%s:%s", appHost, appPort),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseDSN:        getEnv("DATABASE_DSN", "clinic_queue.db"),
		TokenSequencer:     getEnv("TOKEN_SEQUENCER", SequencerDatabase),
		RedisAddr:          fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisSequenceKey:   getEnv("REDIS_SEQUENCE_KEY", "clinic_queue:token_number"),
		StaticDir:          getEnv("STATIC_DIR", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5000"}),
	}

	var err error
	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"TOKEN_NUMBER_RETRIES", 5, &cfg.NumberRetries},
		{"QUEUE_ADVANCE_RETRIES", 3, &cfg.AdvanceRetries},
		{"RATE_LIMIT_PER_MINUTE", 120, &cfg.RateLimit},
		{"SHUTDOWN_TIMEOUT_SECONDS", 20, &cfg.ShutdownTimeoutSeconds},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvAsInt(v.key, v.def); err != nil {
			return Config{}, err
		}
	}

	if cfg.TimestampFallback, err = getEnvAsBool("TOKEN_NUMBER_TIMESTAMP_FALLBACK", false); err != nil {
		return Config{}, err
	}
	if cfg.StrictTransitions, err = getEnvAsBool("QUEUE_STRICT_TRANSITIONS", false); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch {
	case cfg.DatabaseDriver != DriverSQLite && cfg.DatabaseDriver != DriverPostgres:
		return errors.Errorf("DATABASE_DRIVER must be %q or %q", DriverSQLite, DriverPostgres)
	case cfg.DatabaseDSN == "":
		return errors.New("DATABASE_DSN must not be empty")
	case cfg.TokenSequencer != SequencerDatabase && cfg.TokenSequencer != SequencerRedis:
		return errors.Errorf("TOKEN_SEQUENCER must be %q or %q", SequencerDatabase, SequencerRedis)
	case cfg.TokenSequencer == SequencerRedis && cfg.RedisSequenceKey == "":
		return errors.New("REDIS_SEQUENCE_KEY must not be empty")
	case cfg.NumberRetries <= 0:
		return errors.New("TOKEN_NUMBER_RETRIES must be greater than 0")
	case cfg.AdvanceRetries <= 0:
		return errors.New("QUEUE_ADVANCE_RETRIES must be greater than 0")
	case cfg.RateLimit <= 0:
		return errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0")
	case cfg.ShutdownTimeoutSeconds <= 0:
		return errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.Errorf("invalid integer value for %s", key)
		}
		return i, nil
	}
	return defaultVal, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, errors.Errorf("invalid boolean value for %s", key)
		}
		return b, nil
	}
	return defaultVal, nil
}

func getEnvAsList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
