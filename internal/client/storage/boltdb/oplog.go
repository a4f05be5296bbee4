package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

var keyImportBackup = []byte("snapshot")

// Append adds a single operation to the log
func (s *Storage) Append(ctx context.Context, op *models.Operation, source models.OpSource) error {
	in := op.Clone()
	in.Source = source

	res, err := s.Commit(ctx, &storage.Changeset{Append: []*models.Operation{in}})
	if err != nil {
		return err
	}

	op.Seq = res.Appended[0].Seq
	op.Source = source
	return nil
}

// LoadSince returns operations with Seq > seq ordered by Seq
func (s *Storage) LoadSince(ctx context.Context, seq int64) ([]*models.Operation, error) {
	var ops []*models.Operation

	err := s.view(ctx, func(tx *bbolt.Tx) error {
		ops = nil
		c := tx.Bucket(bucketOpLog).Cursor()
		for k, v := c.Seek(seqKey(uint64(seq) + 1)); k != nil; k, v = c.Next() {
			op, err := decodeOp(v)
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load operations since %d: %w", seq, err)
	}

	return ops, nil
}

// LoadUnsynced returns operations not yet accepted by the server
func (s *Storage) LoadUnsynced(ctx context.Context) ([]*models.Operation, error) {
	var ops []*models.Operation

	err := s.view(ctx, func(tx *bbolt.Tx) error {
		ops = nil
		return tx.Bucket(bucketOpLog).ForEach(func(k, v []byte) error {
			op, err := decodeOp(v)
			if err != nil {
				return err
			}
			// Фильтруем синхронизированные
			if !op.IsSynced() {
				ops = append(ops, op)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced operations: %w", err)
	}

	return ops, nil
}

// GetOperation retrieves an operation by id
func (s *Storage) GetOperation(ctx context.Context, id string) (*models.Operation, error) {
	var op *models.Operation

	err := s.view(ctx, func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketOpIDs).Get([]byte(id))
		if key == nil {
			return storage.ErrOperationNotFound
		}
		var err error
		op, err = decodeOp(tx.Bucket(bucketOpLog).Get(key))
		return err
	})
	if err != nil {
		return nil, err
	}

	return op, nil
}

// GetLastSeq returns the last assigned Seq
func (s *Storage) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		seq = int64(tx.Bucket(bucketOpLog).Sequence())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	return seq, nil
}

// CountOperations returns the number of operations in the log
func (s *Storage) CountOperations(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketOpLog).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return n, nil
}

// ClearAll removes every operation from the log
func (s *Storage) ClearAll(ctx context.Context) error {
	if _, err := s.Commit(ctx, &storage.Changeset{ClearLog: true}); err != nil {
		return fmt.Errorf("failed to clear operation log: %w", err)
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
	var found bool

	err := s.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		found, err = getCompressed(tx, bucketImportBackup, keyImportBackup, &snap)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load import backup: %w", err)
	}
	if !found {
		return nil, storage.ErrImportBackupNotFound
	}

	return &snap, nil
}

func decodeOp(data []byte) (*models.Operation, error) {
	if data == nil {
		return nil, storage.ErrOperationNotFound
	}
	var op models.Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}
	return &op, nil
}

func putOp(b *bbolt.Bucket, key []byte, op *models.Operation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}
	if err := b.Put(key, data); err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}
	return nil
}
