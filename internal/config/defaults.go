package config

import "time"

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			Prefix:       "recall:",
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: false,
			MaxCost: 32 << 20,
			TTL:     time.Minute,
		},
		IDs: IDsConfig{
			Scheme: "ulid",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:7788",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Provider:  "truncate",
			MaxRunes:  120,
			Model:     "claude-3-5-haiku-latest",
			MaxTokens: 256,
		},
		Assemble: AssembleConfig{
			MaxItems: 8,
		},
	}
}

// defaultValues flattens DefaultConfig into koanf keys.
func defaultValues() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"storage.backend":       d.Storage.Backend,
		"storage.path":          d.Storage.Path,
		"redis.addr":            d.Redis.Addr,
		"redis.password":        d.Redis.Password,
		"redis.db":              d.Redis.DB,
		"redis.prefix":          d.Redis.Prefix,
		"redis.dial_timeout":    d.Redis.DialTimeout,
		"redis.read_timeout":    d.Redis.ReadTimeout,
		"redis.write_timeout":   d.Redis.WriteTimeout,
		"cache.enabled":         d.Cache.Enabled,
		"cache.max_cost":        d.Cache.MaxCost,
		"cache.ttl":             d.Cache.TTL,
		"ids.scheme":            d.IDs.Scheme,
		"log.level":             d.Log.Level,
		"log.format":            d.Log.Format,
		"log.output":            d.Log.Output,
		"server.addr":           d.Server.Addr,
		"server.read_timeout":   d.Server.ReadTimeout,
		"server.write_timeout":  d.Server.WriteTimeout,
		"summarizer.provider":   d.Summarizer.Provider,
		"summarizer.max_runes":  d.Summarizer.MaxRunes,
		"summarizer.model":      d.Summarizer.Model,
		"summarizer.max_tokens": d.Summarizer.MaxTokens,
		"summarizer.api_key":    d.Summarizer.APIKey,
		"assemble.max_items":    d.Assemble.MaxItems,
	}
}
