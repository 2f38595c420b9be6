package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/membrane-io/user/pkg/logger"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = pebble.ErrNotFound

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("store closed")

// ErrSchemaMismatch means the database was written with another key layout.
var ErrSchemaMismatch = errors.New("unsupported schema version")

// Options tunes how the pebble database is opened.
type Options struct {
	// InMemory keeps everything on an in-memory filesystem; used by tests.
	InMemory   bool
	DisableWAL bool
	// Sync fsyncs every committed batch.
	Sync      bool
	CacheSize int64
}

// Store is the durable key-value store backing the inbox.
type Store struct {
	// mu guards db against Close racing in-flight reads and commits.
	mu   sync.RWMutex
	db   *pebble.DB
	path string
	sync bool
}

// Open opens or creates the pebble database at path.
func Open(path string, opts Options) (*Store, error) {
	popts := &pebble.Options{
		DisableWAL: opts.DisableWAL,
	}
	if opts.InMemory {
		popts.FS = vfs.NewMem()
		if path == "" {
			path = "inbox"
		}
	}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		popts.Cache = cache
	}
	if opts.DisableWAL {
		logger.Warn("durability_reduced", "reason", "pebble WAL disabled")
	}

	db, err := pebble.Open(path, popts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &Store{db: db, path: path, sync: opts.Sync && !opts.DisableWAL}, nil
}

// Path returns the directory the store was opened at.
func (s *Store) Path() string { return s.path }

// Ready reports whether the database is open.
func (s *Store) Ready() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Close flushes memtables and closes the database. Later calls are no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	if err := s.db.Flush(); err != nil {
		logger.Error("pebble_flush_failed", "error", err)
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// IsNotFound reports whether err means a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func (s *Store) writeOpt() *pebble.WriteOptions {
	if s.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Get returns a copy of the value stored at key.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if !IsNotFound(err) {
			logger.Error("get_key_failed", "key", key, "error", err)
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

// Set writes a single key.
func (s *Store) Set(key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	if err := s.db.Set([]byte(key), value, s.writeOpt()); err != nil {
		logger.Error("save_key_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Batch groups writes that must land together.
type Batch struct {
	s *Store
	b *pebble.Batch
	n int
}

// NewBatch starts an empty write batch.
func (s *Store) NewBatch() (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return &Batch{s: s, b: s.db.NewBatch()}, nil
}

// Set queues key=value.
func (b *Batch) Set(key string, value []byte) error {
	b.n++
	return b.b.Set([]byte(key), value, nil)
}

// Commit applies the batch atomically and releases it.
func (b *Batch) Commit() error {
	defer b.b.Close()
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if b.s.db == nil {
		return ErrClosed
	}
	if err := b.s.db.Apply(b.b, b.s.writeOpt()); err != nil {
		logger.Error("pebble_apply_batch_failed", "writes", b.n, "error", err)
		return err
	}
	return nil
}

// Discard releases the batch without applying it.
func (b *Batch) Discard() {
	_ = b.b.Close()
}

// Scan calls fn for every key with the given prefix in ascending order.
// Slices passed to fn are only valid for the duration of the call.
func (s *Store) Scan(prefix string, fn func(key, value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	pfx := []byte(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: pfx})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// CheckSchema stamps an unversioned database with SchemaVersion and rejects
// one written by a different version.
func (s *Store) CheckSchema() error {
	raw, err := s.Get(SchemaVersionKey)
	switch {
	case IsNotFound(err):
		return s.Set(SchemaVersionKey, EncodeCounter(SchemaVersion))
	case err != nil:
		return err
	}
	v, err := DecodeCounter(raw)
	if err != nil {
		return fmt.Errorf("decode schema version: %w", err)
	}
	if v != SchemaVersion {
		return fmt.Errorf("%w: found %d, want %d", ErrSchemaMismatch, v, SchemaVersion)
	}
	return nil
}
