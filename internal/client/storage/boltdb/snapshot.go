package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

var keySnapshot = []byte("current")

// LoadSnapshot returns the cached snapshot
func (s *Storage) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	var found bool

	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		found, err = getCompressed(tx, bucketSnapshot, keySnapshot, &snap)
		return err
	})
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
