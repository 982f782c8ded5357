// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable through STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds every runtime setting.
type Config struct {
	Addr      string
	Store     string
	Database  Database
	TxTimeout time.Duration
	RateLimit RateLimit
	Log       Log
}

// Database holds PostgreSQL connection settings.
type Database struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// RateLimit bounds mutating requests per client IP.
type RateLimit struct {
	RPS   float64
	Burst int
}

// Log selects the slog handler.
type Log struct {
	Level  string
	Format string
}

// DSN returns DATABASE_URL when set, otherwise a libpq-compatible
// connection string built from the individual fields.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Load reads .env (when present) and then the process environment.
// Variables already set in the environment win over .env entries.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, falling back to
// local-development defaults.
func FromEnv() (Config, error) {
	var errs []error

	cfg := Config{
		Addr:  ":" + getEnv("PORT", "8080"),
		Store: getEnv("STORE", StorePostgres),
		Database: Database{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "eventregistration"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	maxConns, err := intEnv("DB_MAX_CONNS", 20)
	errs = append(errs, err)
	if err == nil && (maxConns < 1 || maxConns > math.MaxInt32) {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS: must be between 1 and %d", math.MaxInt32))
	} else {
		cfg.Database.MaxConns = int32(maxConns)
	}

	cfg.TxTimeout, err = durationEnv("TX_TIMEOUT", 5*time.Second)
	errs = append(errs, err)

	cfg.RateLimit.RPS, err = floatEnv("RATE_LIMIT_RPS", 10)
	errs = append(errs, err)

	cfg.RateLimit.Burst, err = intEnv("RATE_LIMIT_BURST", 20)
	errs = append(errs, err)

	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("STORE: unknown backend %q", cfg.Store))
	}
	if cfg.TxTimeout <= 0 {
		errs = append(errs, errors.New("TX_TIMEOUT: must be positive"))
	}
	if cfg.RateLimit.RPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS: must be positive"))
	}
	if cfg.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST: must be at least 1"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
