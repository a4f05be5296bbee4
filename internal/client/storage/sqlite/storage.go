package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/opsync/internal/client/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage represents SQLite storage implementation for client
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
	opts   storage.OpenOptions
	mu     sync.RWMutex
}

var _ storage.Storage = (*Storage)(nil)

// New opens the SQLite database at dbPath and applies migrations.
// Failed opens are retried with exponential backoff, exhaustion returns
// *storage.StorageOpenError.
func New(ctx context.Context, dbPath string, opts storage.OpenOptions) (*Storage, error) {
	opts = opts.WithDefaults()
	s := &Storage{
		path:   dbPath,
		opts:   opts,
		logger: opts.Logger.With("component", "sqlite", "path", dbPath),
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.db = db

	return s, nil
}

func (s *Storage) open(ctx context.Context) (*sql.DB, error) {
	// Параметры DSN применяются к каждому соединению пула
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=busy_timeout(%d)",
		s.path, s.opts.LockTimeout.Milliseconds(),
	)

	var db *sql.DB
	err := storage.OpenWithRetry(ctx, s.path, s.opts, func(ctx context.Context) error {
		opened, err := sql.Open("sqlite", dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		// SQLite поддерживает только одного писателя
		opened.SetMaxOpenConns(1)
		opened.SetMaxIdleConns(1)

		if err := opened.PingContext(ctx); err != nil {
			_ = opened.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}

		if err := runMigrations(ctx, opened, s.logger); err != nil {
			_ = opened.Close()
			return err
		}

		db = opened
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// runMigrations выполняет миграции из embedded FS
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	for _, r := range results {
		logger.Info("Applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()))
	}

	return nil
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

func (s *Storage) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	return s.db, nil
}

func (s *Storage) reopen(ctx context.Context, stale *sql.DB) error {
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
func (s *Storage) withReopen(ctx context.Context, fn func(db *sql.DB) error) error {
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

// inTx выполняет fn в транзакции. После начала транзакции отмена ctx
// не прерывает ее: она либо завершается, либо откатывается целиком.
func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withReopen(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

func isConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(err.Error(), "database is closed")
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}
