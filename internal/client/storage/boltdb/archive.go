package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

var (
	keyArchiveYoung = []byte(models.ArchiveYoung)
	keyArchiveOld   = []byte(models.ArchiveOld)
)

// LoadArchives returns both archives, empty ones if nothing was saved
func (s *Storage) LoadArchives(ctx context.Context) (*models.Archive, *models.Archive, error) {
	young, old := models.NewArchive(), models.NewArchive()

	err := s.view(ctx, func(tx *bbolt.Tx) error {
		if _, err := getCompressed(tx, bucketArchive, keyArchiveYoung, young); err != nil {
			return err
		}
		if _, err := getCompressed(tx, bucketArchive, keyArchiveOld, old); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
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
