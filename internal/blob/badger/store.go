// Package badger implements blob.Store on an embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/blob"
)

var _ blob.Store = (*Store)(nil)

// Config holds BadgerDB settings.
type Config struct {
	Dir      string
	InMemory bool
}

// Store wraps a BadgerDB instance.
type Store struct {
	db *badger.DB
}

type zapAdapter struct {
	l *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, args ...any)   { a.l.Errorf(msg, args...) }
func (a *zapAdapter) Warningf(msg string, args ...any) { a.l.Warnf(msg, args...) }
func (a *zapAdapter) Infof(msg string, args ...any)    { a.l.Debugf(msg, args...) }
func (a *zapAdapter) Debugf(msg string, args ...any)   { a.l.Debugf(msg, args...) }

// Open opens (or creates) the database described by cfg.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, fmt.Errorf("badger dir is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapAdapter{l: logger.Named("badger").Sugar()}
	// msgpack snapshots are already compact
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get reads one object.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &blob.Error{Op: blob.OpGet, Key: key, Err: err}
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, &blob.Error{Op: blob.OpGet, Key: key, Err: err}
	}
	return out, nil
}

// Put writes one object in its own transaction.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return &blob.Error{Op: blob.OpPut, Key: key, Err: err}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return &blob.Error{Op: blob.OpPut, Key: key, Err: err}
	}
	return nil
}

// Exists checks key presence without reading the value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &blob.Error{Op: blob.OpExists, Key: key, Err: err}
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &blob.Error{Op: blob.OpExists, Key: key, Err: err}
	}
	return true, nil
}

// Ping fails once the database is closed.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return &blob.Error{Op: blob.OpPing, Err: errors.New("database closed")}
	}
	return nil
}
