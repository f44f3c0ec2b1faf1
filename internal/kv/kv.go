// Package kv provides the key-value persistence adapters the memory store is
// built on. Values are opaque JSON blobs addressed by a small set of keys.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Logical keys used by the store.
const (
	KeyMemories  = "memories"
	KeyTagIndex  = "tagIndex"
	KeySettings  = "settings"
	KeySummaries = "summaries"
)

// EmptyObject is returned by Load for keys that were never saved.
var EmptyObject = []byte("{}")

// Store loads and saves JSON blobs by key.
type Store interface {
	// Load returns the blob stored under key, or EmptyObject if absent.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, value []byte) error

	// Close releases the backend.
	Close() error
}

// Entry is one key/value pair of a batch write.
type Entry struct {
	Key   string
	Value []byte
}

// Batcher is implemented by backends that can write several keys atomically.
type Batcher interface {
	SaveAll(ctx context.Context, entries []Entry) error
}

// SaveAll writes entries in one batch when s supports it, otherwise one key
// at a time in order, stopping at the first failure.
func SaveAll(ctx context.Context, s Store, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if b, ok := s.(Batcher); ok {
		return b.SaveAll(ctx, entries)
	}
	for _, e := range entries {
		if err := s.Save(ctx, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// ErrPersistence matches every *PersistenceError.
var ErrPersistence = errors.New("persistence failure")

// PersistenceError reports a failed backend read or write.
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("kv %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func loadErr(key string, err error) error {
	return &PersistenceError{Op: "load", Key: key, Err: err}
}

func saveErr(key string, err error) error {
	return &PersistenceError{Op: "save", Key: key, Err: err}
}

func batchKey(entries []Entry) string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return strings.Join(keys, ",")
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
