// Package config loads recall's configuration from defaults, an optional
// file, RECALL_* environment variables and command line overrides.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	IDs        IDsConfig        `mapstructure:"ids"`
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Assemble   AssembleConfig   `mapstructure:"assemble"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is one of sqlite, badger, redis or memory.
	Backend string `mapstructure:"backend" validate:"required,oneof=sqlite badger redis memory"`
	// Path is the SQLite file or the Badger directory. Empty means a
	// backend-specific location under ~/.recall.
	Path string `mapstructure:"path"`
}

// ResolvedPath returns Path, or the default location for the backend.
func (s StorageConfig) ResolvedPath() string {
	if s.Path != "" {
		return s.Path
	}
	home, _ := os.UserHomeDir()
	if s.Backend == "badger" {
		return filepath.Join(home, ".recall", "badger")
	}
	return filepath.Join(home, ".recall", "recall.db")
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db" validate:"gte=0,lte=15"`
	Prefix       string        `mapstructure:"prefix"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CacheConfig configures the read-through cache in front of the backend.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxCost int64         `mapstructure:"max_cost" validate:"gte=0"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// IDsConfig selects the memory id scheme.
type IDsConfig struct {
	Scheme string `mapstructure:"scheme" validate:"oneof=ulid uuid"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output" validate:"oneof=stdout stderr"`
}

// ServerConfig configures `recall serve`.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
}

// SummarizerConfig selects how summaries are generated on request.
type SummarizerConfig struct {
	Provider  string `mapstructure:"provider" validate:"oneof=truncate anthropic"`
	MaxRunes  int    `mapstructure:"max_runes" validate:"min=8"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens" validate:"min=1"`
	// APIKey falls back to ANTHROPIC_API_KEY when empty.
	APIKey string `mapstructure:"api_key"`
}

// AssembleConfig holds context assembly defaults.
type AssembleConfig struct {
	MaxItems int `mapstructure:"max_items" validate:"min=1"`
}
