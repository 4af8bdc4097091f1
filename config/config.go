// Package config loads runtime configuration for the tokengate CLI from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Journal backends.
const (
	JournalMemory   = "memory"
	JournalJSONL    = "jsonl"
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
)

// Config holds CLI settings.
type Config struct {
	// JournalBackend selects where change records go: memory, jsonl,
	// sqlite or postgres.
	JournalBackend string

	// JournalPath is the file path for the jsonl and sqlite backends.
	JournalPath string

	// DatabaseURL is the connection string for the postgres backend.
	DatabaseURL string

	// MinDelay is the timelock minimum delay.
	MinDelay time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		JournalBackend: envOr("TOKENGATE_JOURNAL", JournalMemory),
		JournalPath:    envOr("TOKENGATE_JOURNAL_PATH", "tokengate-events.db"),
		DatabaseURL:    os.Getenv("TOKENGATE_DATABASE_URL"),
		MinDelay:       48 * time.Hour,
		LogLevel:       envOr("TOKENGATE_LOG_LEVEL", "info"),
	}

	if v := os.Getenv("TOKENGATE_MIN_DELAY_SECONDS"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: TOKENGATE_MIN_DELAY_SECONDS: %w", err)
		}
		cfg.MinDelay = time.Duration(secs) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.JournalBackend {
	case JournalMemory, JournalJSONL, JournalSQLite, JournalPostgres:
	default:
		return fmt.Errorf("config: unknown journal backend %q", c.JournalBackend)
	}
	if c.JournalBackend == JournalPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config: postgres journal requires TOKENGATE_DATABASE_URL")
	}
	if (c.JournalBackend == JournalSQLite || c.JournalBackend == JournalJSONL) && c.JournalPath == "" {
		return fmt.Errorf("config: %s journal requires TOKENGATE_JOURNAL_PATH", c.JournalBackend)
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("config: negative minimum delay")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
