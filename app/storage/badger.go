package storage

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

// Badger is an ObjectStore backed by an embedded Badger database. It serves
// single-machine deployments where no bucket service is available; key
// iteration order matches the lexical order the listing contract requires.
type Badger struct {
	db       *badger.DB
	pageSize int
}

// OpenBadger opens (or creates) a Badger-backed store at path.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db, pageSize: defaultPageSize}, nil
}

// Close releases the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// List implements ObjectStore.
func (b *Badger) List(ctx context.Context, prefix, delimiter, token string) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	var keys []string
	var next string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(prefix)
		if token != "" {
			seek = []byte(token)
		}
		for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			if key <= token {
				continue
			}
			if len(keys) == b.pageSize {
				next = keys[len(keys)-1]
				return nil
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return ListPage{}, err
	}
	entries, commonPrefixes := groupKeys(prefix, delimiter, keys)
	return ListPage{Entries: entries, CommonPrefixes: commonPrefixes, NextToken: next}, nil
}

// Get implements ObjectStore.
func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put implements ObjectStore.
func (b *Badger) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete implements ObjectStore. Badger's delete of an absent key already
// succeeds, which matches the port contract.
func (b *Badger) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
