package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	bolt "go.etcd.io/bbolt"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// All record kinds share one bucket; the key prefix discriminates them.
var journalBucket = []byte("journal")

const (
	defaultOpenTimeout     = time.Second
	defaultInitialMmapSize = 32 << 20
)

// Store is the transactional façade over a single bbolt file.
// The handle is safe for concurrent use; every call owns its own transaction.
type Store struct {
	db     *bolt.DB
	path   string
	writer chan struct{} // single write slot, acquired before bolt's own writer lock
	now    func() time.Time
	stamps stampClock

	openTimeout     time.Duration
	initialMmapSize int
	noSync          bool

	// beforeCommit runs inside an append transaction after its writes are staged.
	beforeCommit func(keys ...string) error
}

// Option configures a Store.
type Option func(*Store)

// WithNow sets the clock used for entry timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithOpenTimeout bounds how long Open waits for the file lock.
func WithOpenTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.openTimeout = d
	}
}

// WithInitialMmapSize sets the initial memory map size in bytes.
// Read transactions hold the map, so a large initial size keeps writers from
// having to remap while long scans are open.
func WithInitialMmapSize(n int) Option {
	return func(s *Store) {
		s.initialMmapSize = n
	}
}

// WithNoSync disables fsync per commit. Tests only.
func WithNoSync(noSync bool) Option {
	return func(s *Store) {
		s.noSync = noSync
	}
}

// Open opens (creating if needed) the journal database at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:            path,
		writer:          make(chan struct{}, 1),
		now:             time.Now,
		openTimeout:     defaultOpenTimeout,
		initialMmapSize: defaultInitialMmapSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %w", journal.ErrStorageUnavailable, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:         s.openTimeout,
		InitialMmapSize: s.initialMmapSize,
		NoSync:          s.noSync,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open bbolt db: %w", journal.ErrStorageUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(journalBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create bucket: %w", journal.ErrStorageUnavailable, err)
	}
	s.db = db

	log.Printf("[STORE] Opened %s (%s)", path, humanize.Bytes(uint64(s.fileSize())))
	return s, nil
}

// Close closes the database. Open read scans must have finished.
func (s *Store) Close() error {
	log.Printf("[STORE] Closing %s", s.path)
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// view runs fn in a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(journalBucket)
		if b == nil {
			return fmt.Errorf("%w: bucket %s missing", journal.ErrStorageUnavailable, journalBucket)
		}
		return fn(b)
	})
	return engineError(err)
}

// update runs fn in a read-write transaction. The transaction commits only if
// fn succeeds and ctx is still live afterwards; otherwise it rolls back.
func (s *Store) update(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	release, err := s.acquireWriter(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(journalBucket)
		if b == nil {
			return fmt.Errorf("%w: bucket %s missing", journal.ErrStorageUnavailable, journalBucket)
		}
		if err := fn(b); err != nil {
			return err
		}
		return ctx.Err()
	})
	return engineError(err)
}

// acquireWriter waits for the write slot or for ctx to end.
func (s *Store) acquireWriter(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case s.writer <- struct{}{}:
		return func() { <-s.writer }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for writer: %w", journal.ErrConflict, ctx.Err())
	}
}

// engineError classifies errors leaving a transaction. Errors already carrying
// a journal sentinel or a context error pass through; anything else came from
// bbolt and means the storage layer itself failed.
func engineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, journal.ErrNotFound),
		errors.Is(err, journal.ErrInvalidInput),
		errors.Is(err, journal.ErrCorruptRecord),
		errors.Is(err, journal.ErrConflict),
		errors.Is(err, journal.ErrStorageUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", journal.ErrStorageUnavailable, err)
	}
}

// scanPrefix walks the keys starting with prefix in key order until fn returns false.
func scanPrefix(ctx context.Context, b *bolt.Bucket, prefix []byte, fn func(k, v []byte) bool) error {
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

func (s *Store) fileSize() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}
