package kv

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "recall:"

// Badger stores blobs in an embedded Badger database.
type Badger struct {
	db *badger.DB
}

// NewBadger opens or creates a Badger database in dir.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Key: dir, Err: err}
	}
	return &Badger{db: db}, nil
}

func badgerKey(key string) []byte {
	return []byte(badgerKeyPrefix + key)
}

func (b *Badger) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return clone(EmptyObject), nil
	}
	if err != nil {
		return nil, loadErr(key, err)
	}
	return value, nil
}

func (b *Badger) Save(ctx context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(key), value)
	})
	if err != nil {
		return saveErr(key, err)
	}
	return nil
}

// SaveAll writes every entry in one Badger transaction.
func (b *Badger) SaveAll(ctx context.Context, entries []Entry) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			if err := txn.Set(badgerKey(e.Key), e.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return saveErr(batchKey(entries), err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
