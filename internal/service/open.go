package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rcliao/recall/internal/config"
	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/metrics"
	"github.com/rcliao/recall/internal/store"
	"github.com/rcliao/recall/internal/summarize"
)

// OpenBackend opens the kv.Store selected by cfg, wrapped in the read cache
// when enabled.
func OpenBackend(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	var (
		backend kv.Store
		err     error
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		backend, err = kv.NewSQLite(cfg.Storage.ResolvedPath())
	case "badger":
		backend, err = kv.NewBadger(cfg.Storage.ResolvedPath())
	case "redis":
		backend, err = openRedis(ctx, cfg.Redis)
	case "memory":
		backend = kv.NewMemory()
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enabled {
		return backend, nil
	}
	cached, err := kv.NewCached(backend, kv.CacheOptions{MaxCost: cfg.Cache.MaxCost, TTL: cfg.Cache.TTL})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return cached, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*kv.Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return kv.NewRedis(client, cfg.Prefix), nil
}

// Open builds a Service from cfg. m may be nil.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger, m *metrics.Manager) (*Service, error) {
	newID, err := store.NewIDGenerator(cfg.IDs.Scheme)
	if err != nil {
		return nil, err
	}
	sum, err := summarize.New(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.NoOpManager()
	}

	log.DebugContext(ctx, "storage opened",
		"backend", cfg.Storage.Backend, "cache", cfg.Cache.Enabled, "ids", cfg.IDs.Scheme)
	return New(backend, []store.Option{store.WithIDGenerator(newID)},
		WithLogger(log),
		WithMetrics(m),
		WithSummarizer(sum),
		WithMaxItems(cfg.Assemble.MaxItems),
	), nil
}
