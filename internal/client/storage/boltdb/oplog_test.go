package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
)

func TestStorage_Append(t *testing.T) {
	tests := []struct {
		name    string
		ops     []*models.Operation
		wantLen int
		wantErr bool
	}{
		{
			name: "single operation",
			ops: []*models.Operation{
				createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}),
			},
			wantLen: 1,
		},
		{
			name: "several operations",
			ops: []*models.Operation{
				createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}),
				createTestOp("op-2", "task-1", crdt.VectorClock{"client-a1": 2}),
				createTestOp("op-3", "task-2", crdt.VectorClock{"client-a1": 3}),
			},
			wantLen: 3,
		},
		{
			name: "same id twice",
			ops: []*models.Operation{
				createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}),
				createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}),
			},
			wantLen: 1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStorage(t)
			ctx := context.Background()

			var lastErr error
			for _, op := range tt.ops {
				if err := store.Append(ctx, op, models.SourceLocal); err != nil {
					lastErr = err
				}
			}

			if tt.wantErr {
				require.Error(t, lastErr)
				assert.True(t, storage.IsDuplicate(lastErr))
			} else {
				require.NoError(t, lastErr)
			}

			count, err := store.CountOperations(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, count)
		})
	}
}

func TestStorage_Append_AssignsSeqAndSource(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	op := createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1})
	require.NoError(t, store.Append(ctx, op, models.SourceRemote))
	assert.Equal(t, int64(1), op.Seq)
	assert.Equal(t, models.SourceRemote, op.Source)

	got, err := store.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, models.SourceRemote, got.Source)
	assert.JSONEq(t, `{"title":"task-1"}`, string(got.Payload))

	_, err = store.GetOperation(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrOperationNotFound)
}

func TestStorage_RepeatedAppendNeverDuplicates(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	op := createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1})
	for i := 0; i < 5; i++ {
		err := store.Append(ctx, op, models.SourceLocal)
		if i == 0 {
			require.NoError(t, err)
			continue
		}
		var dup *storage.DuplicateOperationError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "op-1", dup.ID)
	}

	ops, err := store.LoadSince(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestStorage_LoadSince(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for i, id := range []string{"op-1", "op-2", "op-3", "op-4"} {
		require.NoError(t, store.Append(ctx, createTestOp(id, "task-1", crdt.VectorClock{"client-a1": int64(i + 1)}), models.SourceLocal))
	}

	tests := []struct {
		name    string
		seq     int64
		wantIDs []string
	}{
		{name: "from start", seq: 0, wantIDs: []string{"op-1", "op-2", "op-3", "op-4"}},
		{name: "from middle", seq: 2, wantIDs: []string{"op-3", "op-4"}},
		{name: "past end", seq: 4, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := store.LoadSince(ctx, tt.seq)
			require.NoError(t, err)

			var ids []string
			for _, op := range ops {
				ids = append(ids, op.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	last, err := store.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), last)
}

func TestStorage_ClearAllKeepsSequence(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}), models.SourceLocal))
	require.NoError(t, store.Append(ctx, createTestOp("op-2", "task-1", crdt.VectorClock{"client-a1": 2}), models.SourceLocal))

	require.NoError(t, store.ClearAll(ctx))

	count, err := store.CountOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// id снова свободен, а Seq продолжает расти
	op := createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 3})
	require.NoError(t, store.Append(ctx, op, models.SourceLocal))
	assert.Equal(t, int64(3), op.Seq)
}
