package store

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultInspectLimit caps Inspect when no limit is given.
const DefaultInspectLimit = 100

// KeyInfo describes one live cache entry.
type KeyInfo struct {
	Key       string     `json:"key"`
	Size      int64      `json:"size"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Inspect lists live keys under prefix, in key order, up to limit.
func (s *Store) Inspect(ctx context.Context, prefix string, limit int) ([]KeyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultInspectLimit
	}

	keys := make([]KeyInfo, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(keys) < limit; it.Next() {
			item := it.Item()
			info := KeyInfo{
				Key:  string(item.KeyCopy(nil)),
				Size: item.ValueSize(),
			}
			if exp := item.ExpiresAt(); exp > 0 {
				t := time.Unix(int64(exp), 0).UTC()
				info.ExpiresAt = &t
			}
			keys = append(keys, info)
		}
		return nil
	})
	return keys, err
}

// Count returns the number of live keys under prefix.
func (s *Store) Count(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
