// Package store is the ephemeral tier: a Badger key-value cache whose
// entries expire by TTL. A miss is never an error the caller must handle
// beyond ErrNotFound.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// Key prefixes.
const (
	BookPrefix   = "book:"
	SearchPrefix = "search:"
	GeoPrefix    = "geo:"
)

// DefaultTTL applies when a write passes a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// Value encodings, stored as the first byte of every value so entries stay
// readable after compression is toggled.
const (
	encRaw  byte = 0
	encZstd byte = 1
)

// Options configures the cache.
type Options struct {
	// Compress stores values zstd-compressed.
	Compress bool
	// InMemory keeps the cache off disk; path is ignored.
	InMemory bool
	// ReadOnly opens an on-disk cache without taking the write lock.
	ReadOnly bool
}

// Store wraps a Badger database instance.
type Store struct {
	db       *badger.DB
	logger   *slog.Logger
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// New opens the cache at path.
func New(path string, opts Options, logger *slog.Logger) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.ReadOnly && !opts.InMemory {
		bopts = bopts.WithReadOnly(true)
	}
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		compress: opts.Compress,
		enc:      enc,
		dec:      dec,
	}

	if logger != nil {
		logger.Info("Cache opened", "path", path, "in_memory", opts.InMemory, "compress", opts.Compress)
	}
	return s, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing cache")
	}
	s.dec.Close()
	return s.db.Close()
}

// Ping reports whether the cache accepts reads.
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return s.db.View(func(*badger.Txn) error { return ctx.Err() })
}

// GetRaw returns the bytes stored under key, or ErrNotFound.
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := s.decode(val)
			if err != nil {
				return err
			}
			out = decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return out, nil
}

// SetRaw stores value under key for ttl.
func (s *Store) SetRaw(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	entry := badger.NewEntry([]byte(key), s.encode(value)).WithTTL(ttl)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// Get decodes the JSON value stored under key into dest.
func (s *Store) Get(ctx context.Context, key string, dest any) error {
	data, err := s.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Set stores value as JSON under key for ttl.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.SetRaw(ctx, key, data, ttl)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Idempotent
		}
		return err
	})
}

// Flush drops every entry.
func (s *Store) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.DropAll()
}

func (s *Store) encode(value []byte) []byte {
	if !s.compress {
		return append([]byte{encRaw}, value...)
	}
	out := make([]byte, 1, len(value)/2+1)
	out[0] = encZstd
	return s.enc.EncodeAll(value, out)
}

func (s *Store) decode(val []byte) ([]byte, error) {
	if len(val) == 0 {
		return nil, nil
	}
	switch val[0] {
	case encRaw:
		return append([]byte(nil), val[1:]...), nil
	case encZstd:
		out, err := s.dec.DecodeAll(val[1:], nil)
		if err != nil {
			return nil, ErrCorrupt.WithCause(err)
		}
		return out, nil
	default:
		return nil, ErrCorrupt.WithCause(fmt.Errorf("unknown value encoding %d", val[0]))
	}
}
