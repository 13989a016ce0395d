package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port                string
	AppEnv              string
	LogLevel            string
	DBURL               string
	IdentityURL         string
	IdentityAPIKey      string
	IdentityTimeoutSecs int
	SessionBackend      string
	SessionTTLSecs      int
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	ReadTimeoutSecs     int
	WriteTimeoutSecs    int
	IdleTimeoutSecs     int
	DBMaxConns          int
	DBMinConns          int
	DBMaxIdleSecs       int
	DBMaxLifeSecs       int
	DBConnTimeoutSecs   int
	DBStatementCache    int
}

// Load reads configuration from the environment, applying defaults and
// validation. A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		AppEnv:              getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DBURL:               os.Getenv("DB_URL"),
		IdentityURL:         os.Getenv("IDENTITY_URL"),
		IdentityAPIKey:      os.Getenv("IDENTITY_API_KEY"),
		IdentityTimeoutSecs: getEnvInt("IDENTITY_TIMEOUT_SECS", 5),
		SessionBackend:      getEnv("SESSION_BACKEND", "memory"),
		SessionTTLSecs:      getEnvInt("SESSION_TTL_SECS", 86400),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		ReadTimeoutSecs:     getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:    getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:     getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:       getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:       getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:   getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:    getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.IdentityURL == "" {
		return Config{}, fmt.Errorf("IDENTITY_URL is required")
	}
	if cfg.IdentityAPIKey == "" {
		return Config{}, fmt.Errorf("IDENTITY_API_KEY is required")
	}
	if cfg.IdentityTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("IDENTITY_TIMEOUT_SECS must be positive")
	}
	if cfg.SessionBackend != "memory" && cfg.SessionBackend != "redis" {
		return Config{}, fmt.Errorf("SESSION_BACKEND must be memory or redis")
	}
	if cfg.SessionTTLSecs <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	// Zero disables the prepared-statement cache and falls back to pgx defaults.
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
