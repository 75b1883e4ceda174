// Package config loads process configuration from the environment and an
// optional .env file, and builds the shared logger.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/chazu/minerack/pkg/layout"
)

// Config holds settings shared by the desktop app, the CLI and the HTTP
// server. Command-line flags override these values.
type Config struct {
	ListenAddr  string
	LogLevel    string
	MeshCells   int
	Variant     layout.Variant
	EvalTimeout time.Duration
	// MaxEvaluations caps interpreters running at once. Timed-out
	// evaluations keep their slot until they return.
	MaxEvaluations int
}

// Load reads .env (if present) and the MINERACK_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching
// .env files.
func FromEnv() (*Config, error) {
	variantName := getEnv("MINERACK_VARIANT", "workshop")
	variant, err := layout.ParseVariant(variantName)
	if err != nil {
		return nil, fmt.Errorf("config: MINERACK_VARIANT: %w", err)
	}

	return &Config{
		ListenAddr:     getEnv("MINERACK_LISTEN_ADDR", ":8080"),
		LogLevel:       getEnv("MINERACK_LOG_LEVEL", "info"),
		MeshCells:      getEnvAsInt("MINERACK_MESH_CELLS", 128),
		Variant:        variant,
		EvalTimeout:    getEnvAsDuration("MINERACK_EVAL_TIMEOUT", 5*time.Second),
		MaxEvaluations: getEnvAsInt("MINERACK_MAX_EVALUATIONS", 4),
	}, nil
}

// NewLogger returns a text logger at cfg.LogLevel writing to w. Unknown
// levels fall back to info; "off" and "none" discard everything.
func NewLogger(cfg *Config, w io.Writer) *logrus.Logger {
	logger := logrus.New()

	level := strings.ToLower(cfg.LogLevel)
	if level == "off" || level == "none" {
		logger.SetOutput(io.Discard)
	} else {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		logger.SetLevel(lvl)
		logger.SetOutput(w)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
