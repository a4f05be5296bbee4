package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

// Commit applies the changeset in a single BoltDB transaction.
// Cancellation is honoured only before the transaction begins.
func (s *Storage) Commit(ctx context.Context, cs *storage.Changeset) (*storage.CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var res *storage.CommitResult
	err := s.update(ctx, func(tx *bbolt.Tx) error {
		res = &storage.CommitResult{}
		return applyChangeset(tx, cs, res)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func applyChangeset(tx *bbolt.Tx, cs *storage.Changeset, res *storage.CommitResult) error {
	if cs.ClearLog {
		if err := clearLog(tx); err != nil {
			return err
		}
	}

	for _, id := range cs.DeleteOpIDs {
		if err := deleteOp(tx, id); err != nil {
			return err
		}
	}

	for _, op := range cs.Append {
		appended, err := appendOp(tx, op, cs.SkipDuplicates)
		if err != nil {
			return err
		}
		if appended == nil {
			res.Duplicates = append(res.Duplicates, op.ID)
			continue
		}
		res.Appended = append(res.Appended, appended)
	}

	for id, serverSeq := range cs.MarkSynced {
		if err := markSynced(tx, id, serverSeq); err != nil {
			return err
		}
	}

	meta := tx.Bucket(bucketMeta)
	if cs.ClientID != "" {
		if err := meta.Put(keyClientID, []byte(cs.ClientID)); err != nil {
			return fmt.Errorf("failed to save client id: %w", err)
		}
	}

	if cs.Meta != nil {
		data, err := json.Marshal(cs.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal meta: %w", err)
		}
		if err := meta.Put(keyMetaModel, data); err != nil {
			return fmt.Errorf("failed to save meta: %w", err)
		}
	}

	if cs.BuildSnapshot != nil {
		snap, err := cs.BuildSnapshot(res.Appended)
		if err != nil {
			return fmt.Errorf("failed to build snapshot: %w", err)
		}
		if snap != nil {
			if err := putCompressed(tx, bucketSnapshot, keySnapshot, snap); err != nil {
				return err
			}
			res.Snapshot = snap
		}
	}

	if cs.Archives != nil {
		if err := putCompressed(tx, bucketArchive, keyArchiveYoung, cs.Archives.Young); err != nil {
			return err
		}
		if err := putCompressed(tx, bucketArchive, keyArchiveOld, cs.Archives.Old); err != nil {
			return err
		}
	}

	if cs.ImportBackup != nil {
		if err := putCompressed(tx, bucketImportBackup, keyImportBackup, cs.ImportBackup); err != nil {
			return err
		}
	}

	res.LastSeq = int64(tx.Bucket(bucketOpLog).Sequence())
	return nil
}

// appendOp добавляет операцию и назначает ей Seq.
// Возвращает nil без ошибки, если дубликат пропущен.
func appendOp(tx *bbolt.Tx, op *models.Operation, skipDuplicates bool) (*models.Operation, error) {
	ops := tx.Bucket(bucketOpLog)
	ids := tx.Bucket(bucketOpIDs)

	if existing := ids.Get([]byte(op.ID)); existing != nil {
		if !skipDuplicates {
			return nil, &storage.DuplicateOperationError{ID: op.ID}
		}
		// эхо нашей же операции от сервера: переносим serverSeq
		if op.ServerSeq != nil {
			if err := backfillServerSeq(tx, existing, *op.ServerSeq); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	seq, err := ops.NextSequence()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sequence: %w", err)
	}

	stored := op.Clone()
	stored.Seq = int64(seq)
	if stored.Source == "" {
		stored.Source = models.SourceLocal
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal operation: %w", err)
	}

	key := seqKey(seq)
	if err := ops.Put(key, data); err != nil {
		return nil, fmt.Errorf("failed to save operation: %w", err)
	}
	if err := ids.Put([]byte(stored.ID), key); err != nil {
		return nil, fmt.Errorf("failed to index operation: %w", err)
	}

	return stored, nil
}

func backfillServerSeq(tx *bbolt.Tx, key []byte, serverSeq int64) error {
	ops := tx.Bucket(bucketOpLog)
	op, err := decodeOp(ops.Get(key))
	if err != nil {
		return err
	}
	if op.ServerSeq != nil {
		return nil
	}
	op.ServerSeq = &serverSeq
	return putOp(ops, key, op)
}

func markSynced(tx *bbolt.Tx, id string, serverSeq int64) error {
	key := tx.Bucket(bucketOpIDs).Get([]byte(id))
	if key == nil {
		return fmt.Errorf("failed to mark %s synced: %w", id, storage.ErrOperationNotFound)
	}

	ops := tx.Bucket(bucketOpLog)
	op, err := decodeOp(ops.Get(key))
	if err != nil {
		return err
	}
	op.ServerSeq = &serverSeq
	return putOp(ops, key, op)
}

func deleteOp(tx *bbolt.Tx, id string) error {
	ids := tx.Bucket(bucketOpIDs)
	key := ids.Get([]byte(id))
	if key == nil {
		return nil
	}
	if err := tx.Bucket(bucketOpLog).Delete(key); err != nil {
		return fmt.Errorf("failed to delete operation %s: %w", id, err)
	}
	if err := ids.Delete([]byte(id)); err != nil {
		return fmt.Errorf("failed to delete operation index %s: %w", id, err)
	}
	return nil
}

// clearLog пересоздает buckets лога, сохраняя счетчик Seq,
// чтобы новые операции не повторяли старые номера.
func clearLog(tx *bbolt.Tx) error {
	seq := tx.Bucket(bucketOpLog).Sequence()

	for _, name := range [][]byte{bucketOpLog, bucketOpIDs} {
		if err := tx.DeleteBucket(name); err != nil {
			return fmt.Errorf("failed to delete %s bucket: %w", name, err)
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", name, err)
		}
	}

	if err := tx.Bucket(bucketOpLog).SetSequence(seq); err != nil {
		return fmt.Errorf("failed to restore sequence: %w", err)
	}
	return nil
}

func putCompressed(tx *bbolt.Tx, bucket, key []byte, v any) error {
	data, err := encodeCompressed(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", bucket, key, err)
	}
	if err := tx.Bucket(bucket).Put(key, data); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", bucket, key, err)
	}
	return nil
}

// getCompressed возвращает false, если ключ отсутствует
func getCompressed(tx *bbolt.Tx, bucket, key []byte, v any) (bool, error) {
	data := tx.Bucket(bucket).Get(key)
	if data == nil {
		return false, nil
	}
	if err := decodeCompressed(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", bucket, key, err)
	}
	return true, nil
}
