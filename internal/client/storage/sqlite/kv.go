package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

const (
	bucketMeta         = "meta"
	bucketSnapshot     = "snapshot"
	bucketArchive      = "archive"
	bucketImportBackup = "import_backup"

	keyClientID     = "client_id"
	keyMetaModel    = "meta_model"
	keySnapshot     = "current"
	keyImportBackup = "snapshot"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func putValue(ctx context.Context, ex execer, bucket, key string, value []byte) error {
	query := `
		INSERT INTO kv (bucket, key, value) VALUES (?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value
	`
	if _, err := ex.ExecContext(ctx, query, bucket, key, value); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", bucket, key, err)
	}
	return nil
}

// getValue возвращает nil, если ключ отсутствует
func getValue(ctx context.Context, q querier, bucket, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE bucket = ? AND key = ?`, bucket, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s/%s: %w", bucket, key, err)
	}
	return value, nil
}

func putCompressed(ctx context.Context, ex execer, bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", bucket, key, err)
	}
	return putValue(ctx, ex, bucket, key, snappy.Encode(nil, data))
}

func (s *Storage) getCompressed(ctx context.Context, bucket, key string, v any) (bool, error) {
	var data []byte
	err := s.withReopen(ctx, func(db *sql.DB) error {
		var err error
		data, err = getValue(ctx, db, bucket, key)
		return err
	})
	if err != nil || data == nil {
		return false, err
	}

	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return false, fmt.Errorf("failed to decompress %s/%s: %w", bucket, key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

// GetClientID returns the persisted client id
func (s *Storage) GetClientID(ctx context.Context) (string, error) {
	var data []byte
	err := s.withReopen(ctx, func(db *sql.DB) error {
		var err error
		data, err = getValue(ctx, db, bucketMeta, keyClientID)
		return err
	})
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", storage.ErrClientIDNotFound
	}
	return string(data), nil
}

// SaveClientID persists the client id
func (s *Storage) SaveClientID(ctx context.Context, clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client id is empty")
	}
	if _, err := s.Commit(ctx, &storage.Changeset{ClientID: clientID}); err != nil {
		return fmt.Errorf("failed to save client id: %w", err)
	}
	return nil
}

// GetMeta returns the persisted meta model
func (s *Storage) GetMeta(ctx context.Context) (*models.MetaModel, error) {
	var data []byte
	err := s.withReopen(ctx, func(db *sql.DB) error {
		var err error
		data, err = getValue(ctx, db, bucketMeta, keyMetaModel)
		return err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, storage.ErrMetaNotFound
	}

	var meta models.MetaModel
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
	}
	return &meta, nil
}

// SaveMeta persists the meta model
func (s *Storage) SaveMeta(ctx context.Context, meta *models.MetaModel) error {
	if _, err := s.Commit(ctx, &storage.Changeset{Meta: meta}); err != nil {
		return fmt.Errorf("failed to save meta: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached snapshot
func (s *Storage) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	found, err := s.getCompressed(ctx, bucketSnapshot, keySnapshot, &snap)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !found {
		return nil, storage.ErrSnapshotNotFound
	}
	return &snap, nil
}

// SaveSnapshot replaces the cached snapshot
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	cs := &storage.Changeset{BuildSnapshot: storage.StaticSnapshot(snapshot)}
	if _, err := s.Commit(ctx, cs); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadArchives returns both archives, empty ones if nothing was saved
func (s *Storage) LoadArchives(ctx context.Context) (*models.Archive, *models.Archive, error) {
	young, old := models.NewArchive(), models.NewArchive()
	if _, err := s.getCompressed(ctx, bucketArchive, string(models.ArchiveYoung), young); err != nil {
		return nil, nil, fmt.Errorf("failed to load archives: %w", err)
	}
	if _, err := s.getCompressed(ctx, bucketArchive, string(models.ArchiveOld), old); err != nil {
		return nil, nil, fmt.Errorf("failed to load archives: %w", err)
	}
	return young, old, nil
}

// SaveArchives writes both archives in one transaction
func (s *Storage) SaveArchives(ctx context.Context, young, old *models.Archive) error {
	if young == nil || old == nil {
		return fmt.Errorf("both archives are required")
	}
	cs := &storage.Changeset{Archives: &storage.ArchivePair{Young: young, Old: old}}
	if _, err := s.Commit(ctx, cs); err != nil {
		return fmt.Errorf("failed to save archives: %w", err)
	}
	return nil
}

// SaveImportBackup stores the state that was current before an import
func (s *Storage) SaveImportBackup(ctx context.Context, snapshot *models.Snapshot) error {
	if _, err := s.Commit(ctx, &storage.Changeset{ImportBackup: snapshot}); err != nil {
		return fmt.Errorf("failed to save import backup: %w", err)
	}
	return nil
}

// LoadImportBackup returns the state saved before the last import
func (s *Storage) LoadImportBackup(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	found, err := s.getCompressed(ctx, bucketImportBackup, keyImportBackup, &snap)
	if err != nil {
		return nil, fmt.Errorf("failed to load import backup: %w", err)
	}
	if !found {
		return nil, storage.ErrImportBackupNotFound
	}
	return &snap, nil
}
