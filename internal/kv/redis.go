package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis stores blobs as plain string keys, namespaced by a prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. The store owns the client and closes it
// on Close.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return clone(EmptyObject), nil
	}
	if err != nil {
		return nil, loadErr(key, err)
	}
	return value, nil
}

func (r *Redis) Save(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return saveErr(key, err)
	}
	return nil
}

// SaveAll writes every entry inside a MULTI/EXEC transaction.
func (r *Redis) SaveAll(ctx context.Context, entries []Entry) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, r.key(e.Key), e.Value, 0)
		}
		return nil
	})
	if err != nil {
		return saveErr(batchKey(entries), err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
