package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver        string        `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost          string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort          string        `env:"DB_PORT" envDefault:"3306"`
	DBUser          string        `env:"DB_USER" envDefault:"orguser"`
	DBPassword      string        `env:"DB_PASSWORD" envDefault:"orgpassword"`
	DBName          string        `env:"DB_NAME" envDefault:"org_membership"`
	DBPath          string        `env:"DB_PATH" envDefault:"org_membership.db"`
	RedisHost       string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string        `env:"REDIS_PORT" envDefault:"6379"`
	SessionSecret   string        `env:"SESSION_SECRET" envDefault:"default-secret-key-change-me"`
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"default-jwt-secret-change-me"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	GinMode         string        `env:"GIN_MODE" envDefault:"debug"`
	Port            string        `env:"PORT" envDefault:"8080"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	RequestCacheTTL time.Duration `env:"REQUEST_CACHE_TTL" envDefault:"5s"`
}

// Supported values for DB_DRIVER
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
