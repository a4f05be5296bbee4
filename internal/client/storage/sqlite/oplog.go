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

const selectOps = `SELECT seq, server_seq, source, data FROM operations`

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
	ops, err := s.queryOps(ctx, selectOps+` WHERE seq > ? ORDER BY seq`, seq)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations since %d: %w", seq, err)
	}
	return ops, nil
}

// LoadUnsynced returns operations not yet accepted by the server
func (s *Storage) LoadUnsynced(ctx context.Context) ([]*models.Operation, error) {
	ops, err := s.queryOps(ctx, selectOps+` WHERE server_seq IS NULL ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced operations: %w", err)
	}
	return ops, nil
}

// GetOperation retrieves an operation by id
func (s *Storage) GetOperation(ctx context.Context, id string) (*models.Operation, error) {
	ops, err := s.queryOps(ctx, selectOps+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation %s: %w", id, err)
	}
	if len(ops) == 0 {
		return nil, storage.ErrOperationNotFound
	}
	return ops[0], nil
}

// GetLastSeq returns the last assigned Seq
func (s *Storage) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.withReopen(ctx, func(db *sql.DB) error {
		var err error
		seq, err = lastSeq(ctx, db)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	return seq, nil
}

// CountOperations returns the number of operations in the log
func (s *Storage) CountOperations(ctx context.Context) (int, error) {
	var n int
	err := s.withReopen(ctx, func(db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&n)
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

func (s *Storage) queryOps(ctx context.Context, query string, args ...any) ([]*models.Operation, error) {
	var ops []*models.Operation

	err := s.withReopen(ctx, func(db *sql.DB) error {
		ops = nil
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			op, err := scanOp(rows)
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return ops, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanOp собирает операцию: JSON из data, а seq, server_seq и source из колонок
func scanOp(row scanner) (*models.Operation, error) {
	var (
		seq       int64
		serverSeq sql.NullInt64
		source    string
		data      []byte
	)
	if err := row.Scan(&seq, &serverSeq, &source, &data); err != nil {
		return nil, fmt.Errorf("failed to scan operation: %w", err)
	}

	var op models.Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}

	op.Seq = seq
	op.Source = models.OpSource(source)
	op.ServerSeq = nil
	if serverSeq.Valid {
		v := serverSeq.Int64
		op.ServerSeq = &v
	}

	return &op, nil
}

func lastSeq(ctx context.Context, q querier) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, `SELECT seq FROM sqlite_sequence WHERE name = 'operations'`).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq, nil
}
