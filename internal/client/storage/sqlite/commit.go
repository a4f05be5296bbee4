package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

// Commit applies the changeset in a single SQLite transaction.
// Cancellation is honoured only before the transaction begins.
func (s *Storage) Commit(ctx context.Context, cs *storage.Changeset) (*storage.CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var res *storage.CommitResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res = &storage.CommitResult{}
		return applyChangeset(context.WithoutCancel(ctx), tx, cs, res)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func applyChangeset(ctx context.Context, tx *sql.Tx, cs *storage.Changeset, res *storage.CommitResult) error {
	if cs.ClearLog {
		// AUTOINCREMENT сохраняет счетчик seq после удаления строк
		if _, err := tx.ExecContext(ctx, `DELETE FROM operations`); err != nil {
			return fmt.Errorf("failed to clear operations: %w", err)
		}
	}

	for _, id := range cs.DeleteOpIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete operation %s: %w", id, err)
		}
	}

	for _, op := range cs.Append {
		appended, err := appendOp(ctx, tx, op, cs.SkipDuplicates)
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
		r, err := tx.ExecContext(ctx, `UPDATE operations SET server_seq = ? WHERE id = ?`, serverSeq, id)
		if err != nil {
			return fmt.Errorf("failed to mark %s synced: %w", id, err)
		}
		if n, _ := r.RowsAffected(); n == 0 {
			return fmt.Errorf("failed to mark %s synced: %w", id, storage.ErrOperationNotFound)
		}
	}

	if cs.ClientID != "" {
		if err := putValue(ctx, tx, bucketMeta, keyClientID, []byte(cs.ClientID)); err != nil {
			return err
		}
	}

	if cs.Meta != nil {
		data, err := json.Marshal(cs.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal meta: %w", err)
		}
		if err := putValue(ctx, tx, bucketMeta, keyMetaModel, data); err != nil {
			return err
		}
	}

	if cs.BuildSnapshot != nil {
		snap, err := cs.BuildSnapshot(res.Appended)
		if err != nil {
			return fmt.Errorf("failed to build snapshot: %w", err)
		}
		if snap != nil {
			if err := putCompressed(ctx, tx, bucketSnapshot, keySnapshot, snap); err != nil {
				return err
			}
			res.Snapshot = snap
		}
	}

	if cs.Archives != nil {
		if err := putCompressed(ctx, tx, bucketArchive, string(models.ArchiveYoung), cs.Archives.Young); err != nil {
			return err
		}
		if err := putCompressed(ctx, tx, bucketArchive, string(models.ArchiveOld), cs.Archives.Old); err != nil {
			return err
		}
	}

	if cs.ImportBackup != nil {
		if err := putCompressed(ctx, tx, bucketImportBackup, keyImportBackup, cs.ImportBackup); err != nil {
			return err
		}
	}

	seq, err := lastSeq(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to read last seq: %w", err)
	}
	res.LastSeq = seq
	return nil
}

// appendOp вставляет операцию; nil без ошибки означает пропущенный дубликат.
func appendOp(ctx context.Context, tx *sql.Tx, op *models.Operation, skipDuplicates bool) (*models.Operation, error) {
	var existingServerSeq sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT server_seq FROM operations WHERE id = ?`, op.ID).Scan(&existingServerSeq)
	switch {
	case err == nil:
		if !skipDuplicates {
			return nil, &storage.DuplicateOperationError{ID: op.ID}
		}
		// эхо нашей же операции от сервера: переносим serverSeq
		if op.ServerSeq != nil && !existingServerSeq.Valid {
			if _, err := tx.ExecContext(ctx, `UPDATE operations SET server_seq = ? WHERE id = ?`, *op.ServerSeq, op.ID); err != nil {
				return nil, fmt.Errorf("failed to backfill server seq: %w", err)
			}
		}
		return nil, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to check operation %s: %w", op.ID, err)
	}

	stored := op.Clone()
	if stored.Source == "" {
		stored.Source = models.SourceLocal
	}
	stored.Seq = 0

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal operation: %w", err)
	}

	var serverSeq any
	if stored.ServerSeq != nil {
		serverSeq = *stored.ServerSeq
	}

	r, err := tx.ExecContext(ctx,
		`INSERT INTO operations (id, server_seq, source, data) VALUES (?, ?, ?, ?)`,
		stored.ID, serverSeq, string(stored.Source), data)
	if err != nil {
		return nil, fmt.Errorf("failed to insert operation: %w", err)
	}

	seq, err := r.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted seq: %w", err)
	}
	stored.Seq = seq

	return stored, nil
}
