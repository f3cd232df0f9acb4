// Package config reads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// DevSecret is the JWT_SECRET used when none is configured.
const DevSecret = "local_dev_secret"

// Config holds all server configuration.
type Config struct {
	Port           string
	LogLevel       string
	StoreBackend   string
	DBPath         string // SQLite file for the sqlite backend and solve history
	BadgerPath     string
	RoomTTL        time.Duration
	GCInterval     time.Duration
	JWTSecret      string
	JWTExpiresDays int
	ClientOrigin   string
	PuzzleDir      string // optional extra puzzle files
	DailySalt      string
	AnswerRate     float64 // answers per second per client
	AnswerBurst    int
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	roomTTL, err := getEnvDuration("ROOM_TTL", 4*time.Hour)
	if err != nil {
		return nil, err
	}
	gcInterval, err := getEnvDuration("GC_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	answerRate, err := getEnvFloat("ANSWER_RATE", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DBPath:         getEnv("DB_PATH", "./data/rooms.db"),
		BadgerPath:     getEnv("BADGER_PATH", "./data/badger"),
		RoomTTL:        roomTTL,
		GCInterval:     gcInterval,
		JWTSecret:      getEnv("JWT_SECRET", DevSecret),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		PuzzleDir:      getEnv("PUZZLE_DIR", ""),
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		AnswerRate:     answerRate,
		AnswerBurst:    getEnvInt("ANSWER_BURST", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that every field has a usable value.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return fmt.Errorf("PORT must be a port number, got %q", c.Port)
	}
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, sqlite or badger, got %q", c.StoreBackend)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.StoreBackend == BackendBadger && c.BadgerPath == "" {
		return fmt.Errorf("BADGER_PATH cannot be empty")
	}
	if c.RoomTTL <= 0 {
		return fmt.Errorf("ROOM_TTL must be > 0")
	}
	if c.GCInterval <= 0 {
		return fmt.Errorf("GC_INTERVAL must be > 0")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.JWTExpiresDays <= 0 {
		return fmt.Errorf("JWT_EXPIRES_DAYS must be > 0")
	}
	if c.AnswerRate < 0 {
		return fmt.Errorf("ANSWER_RATE must be >= 0")
	}
	if c.AnswerBurst <= 0 {
		return fmt.Errorf("ANSWER_BURST must be > 0")
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string { return ":" + c.Port }

// UsesDevSecret reports whether tokens are signed with the built-in secret.
func (c *Config) UsesDevSecret() bool { return c.JWTSecret == DevSecret }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
