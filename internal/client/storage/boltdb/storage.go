package boltdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketOpLog        = []byte("oplog")
	bucketOpIDs        = []byte("oplog_ids")
	bucketMeta         = []byte("meta")
	bucketSnapshot     = []byte("snapshot")
	bucketArchive      = []byte("archive")
	bucketImportBackup = []byte("import_backup")

	allBuckets = [][]byte{
		bucketOpLog, bucketOpIDs, bucketMeta,
		bucketSnapshot, bucketArchive, bucketImportBackup,
	}
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db     *bbolt.DB
	logger *slog.Logger
	path   string
	opts   storage.OpenOptions
	mu     sync.RWMutex
}

var _ storage.Storage = (*Storage)(nil)

// New opens (creating if needed) the BoltDB database at dbPath.
// Failed opens are retried with exponential backoff, exhaustion returns
// *storage.StorageOpenError.
func New(ctx context.Context, dbPath string, opts storage.OpenOptions) (*Storage, error) {
	opts = opts.WithDefaults()
	s := &Storage{
		path:   dbPath,
		opts:   opts,
		logger: opts.Logger.With("component", "boltdb", "path", dbPath),
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.db = db

	return s, nil
}

// open открывает файл БД с повторами и создает buckets
func (s *Storage) open(ctx context.Context) (*bbolt.DB, error) {
	var db *bbolt.DB
	err := storage.OpenWithRetry(ctx, s.path, s.opts, func(ctx context.Context) error {
		opened, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: s.opts.LockTimeout})
		if err != nil {
			return fmt.Errorf("failed to open boltdb: %w", err)
		}
		if err := initBuckets(opened); err != nil {
			_ = opened.Close()
			return fmt.Errorf("failed to initialize buckets: %w", err)
		}
		db = opened
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func initBuckets(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func (s *Storage) handle() (*bbolt.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	return s.db, nil
}

// reopen заменяет потерянное соединение новым.
// Если другой вызов уже переоткрыл БД, ничего не делает.
func (s *Storage) reopen(ctx context.Context, stale *bbolt.DB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if s.db != stale {
		return nil
	}

	_ = stale.Close()
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

// withReopen выполняет fn; при потере соединения один раз переоткрывает БД и повторяет.
func (s *Storage) withReopen(ctx context.Context, fn func(db *bbolt.DB) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	err = fn(db)
	if !isConnectionLost(err) {
		return err
	}

	s.logger.Warn("Storage connection lost, reopening", "error", err)
	s.opts.NotifyReopen()
	if rerr := s.reopen(ctx, db); rerr != nil {
		return fmt.Errorf("failed to reopen storage: %w", rerr)
	}

	db, err = s.handle()
	if err != nil {
		return err
	}
	return fn(db)
}

func (s *Storage) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	return s.withReopen(ctx, func(db *bbolt.DB) error {
		return db.Update(fn)
	})
}

func (s *Storage) view(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	return s.withReopen(ctx, func(db *bbolt.DB) error {
		return db.View(fn)
	})
}

func isConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, bbolt.ErrDatabaseNotOpen) ||
		strings.Contains(err.Error(), "database not open")
}
