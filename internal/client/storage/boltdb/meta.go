package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

var (
	keyClientID  = []byte("client_id")
	keyMetaModel = []byte("meta_model")
)

// GetClientID returns the persisted client id
func (s *Storage) GetClientID(ctx context.Context) (string, error) {
	var id string
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyClientID)
		if data == nil {
			return storage.ErrClientIDNotFound
		}
		id = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
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
	var meta models.MetaModel
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyMetaModel)
		if data == nil {
			return storage.ErrMetaNotFound
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("failed to unmarshal meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
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
