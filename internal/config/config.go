// Package config loads process configuration from CONCIERGE_* environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "CONCIERGE_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Oracle backends.
const (
	OracleLexical = "lexical"
	OracleGemini  = "gemini"
)

// Config is the process configuration shared by every command.
type Config struct {
	// Agent is the path of a YAML agent file. Empty serves the built-in demo agent.
	Agent string `env:"AGENT"`

	Store      string        `env:"STORE" envDefault:"memory"`
	FileDir    string        `env:"FILE_DIR" envDefault:".concierge/sessions"`
	SQLitePath string        `env:"SQLITE_PATH" envDefault:"concierge.db"`
	RedisURL   string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// EncryptionKey is a base64 AES-256 key. When set, sessions are encrypted at rest.
	EncryptionKey string   `env:"ENCRYPTION_KEY"`
	PIIPatterns   []string `env:"PII_PATTERNS" envSeparator:","`

	Oracle        string        `env:"ORACLE" envDefault:"lexical"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"10s"`
	ToolTimeout   time.Duration `env:"TOOL_TIMEOUT" envDefault:"30s"`
	HistoryWindow int           `env:"HISTORY_WINDOW" envDefault:"10"`

	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	switch c.Oracle {
	case OracleLexical:
	case OracleGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("config: %sGEMINI_API_KEY is required by the gemini oracle", Prefix)
		}
	default:
		return fmt.Errorf("config: unknown oracle %q", c.Oracle)
	}
	if c.EncryptionKey != "" {
		if _, err := c.Key(); err != nil {
			return err
		}
	}
	return nil
}

// Key decodes EncryptionKey. It returns nil when encryption is off.
func (c Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("config: encryption key is not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("config: encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
