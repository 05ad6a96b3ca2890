package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures all runtime configuration derived from an optional YAML
// file and environment variables. Environment variables win over the file.
type Config struct {
	Port                string `yaml:"port"`
	LogLevel            string `yaml:"logLevel"`
	DBURL               string `yaml:"dbURL"`
	DBAutoMigrate       bool   `yaml:"dbAutoMigrate"`
	ReadTimeoutSecs     int    `yaml:"readTimeoutSecs"`
	WriteTimeoutSecs    int    `yaml:"writeTimeoutSecs"`
	IdleTimeoutSecs     int    `yaml:"idleTimeoutSecs"`
	DBMaxConns          int    `yaml:"dbMaxConns"`
	DBMinConns          int    `yaml:"dbMinConns"`
	DBMaxIdleSecs       int    `yaml:"dbMaxConnIdleSecs"`
	DBMaxLifeSecs       int    `yaml:"dbMaxConnLifetimeSecs"`
	DBConnTimeoutSecs   int    `yaml:"dbConnTimeoutSecs"`
	DBStatementCache    int    `yaml:"dbStatementCacheCapacity"`
	CORSOrigin          string `yaml:"corsOrigin"`
	RateLimitMax        int    `yaml:"rateLimitMaxRequests"`
	RateLimitWindowSecs int    `yaml:"rateLimitWindowSecs"`
	RedisAddr           string `yaml:"redisAddr"`
	RedisPassword       string `yaml:"redisPassword"`
	RedisPrefix         string `yaml:"redisPrefix"`
}

func defaults() Config {
	return Config{
		Port:                "3000",
		LogLevel:            "info",
		DBAutoMigrate:       true,
		ReadTimeoutSecs:     15,
		WriteTimeoutSecs:    15,
		IdleTimeoutSecs:     60,
		DBMaxConns:          20,
		DBMinConns:          2,
		DBMaxIdleSecs:       300,
		DBMaxLifeSecs:       3600,
		DBConnTimeoutSecs:   10,
		DBStatementCache:    256,
		CORSOrigin:          "*",
		RateLimitMax:        100,
		RateLimitWindowSecs: 900,
		RedisPrefix:         "library:ratelimit",
	}
}

// Load reads configuration from CONFIG_FILE (when set) and environment
// variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DBURL = getEnv("DB_URL", cfg.DBURL)
	cfg.DBAutoMigrate = getEnvBool("DB_AUTO_MIGRATE", cfg.DBAutoMigrate)
	cfg.ReadTimeoutSecs = getEnvInt("SERVER_READ_TIMEOUT", cfg.ReadTimeoutSecs)
	cfg.WriteTimeoutSecs = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.WriteTimeoutSecs)
	cfg.IdleTimeoutSecs = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.IdleTimeoutSecs)
	cfg.DBMaxConns = getEnvInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = getEnvInt("DB_MIN_CONNS", cfg.DBMinConns)
	cfg.DBMaxIdleSecs = getEnvInt("DB_MAX_CONN_IDLE_SECS", cfg.DBMaxIdleSecs)
	cfg.DBMaxLifeSecs = getEnvInt("DB_MAX_CONN_LIFETIME_SECS", cfg.DBMaxLifeSecs)
	cfg.DBConnTimeoutSecs = getEnvInt("DB_CONN_TIMEOUT_SECS", cfg.DBConnTimeoutSecs)
	cfg.DBStatementCache = getEnvInt("DB_STATEMENT_CACHE_CAPACITY", cfg.DBStatementCache)
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.RateLimitMax = getEnvInt("RATE_LIMIT_MAX_REQUESTS", cfg.RateLimitMax)
	cfg.RateLimitWindowSecs = getEnvInt("RATE_LIMIT_WINDOW_SECS", cfg.RateLimitWindowSecs)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisPrefix = getEnv("REDIS_PREFIX", cfg.RedisPrefix)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if cfg.RateLimitWindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive")
	}
	return nil
}

// RateLimitEnabled reports whether a Redis backend was configured for the limiter.
func (c Config) RateLimitEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
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

func getEnvBool(key string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
