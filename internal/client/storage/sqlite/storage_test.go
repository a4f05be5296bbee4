package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
)

func testOptions() storage.OpenOptions {
	return storage.OpenOptions{
		Logger:      slog.New(slog.DiscardHandler),
		Attempts:    2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		LockTimeout: 100 * time.Millisecond,
	}
}

func createTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"), testOptions())
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func createTestOp(id, entityID string, clock crdt.VectorClock) *models.Operation {
	return &models.Operation{
		ID:            id,
		ActionType:    "[Task] Update",
		OpType:        models.OpUpdate,
		EntityType:    models.EntityTask,
		EntityID:      entityID,
		Payload:       []byte(`{"title":"` + entityID + `"}`),
		ClientID:      "client-a1",
		VectorClock:   clock,
		Timestamp:     1700000000000,
		SchemaVersion: models.CurrentSchemaVersion,
	}
}

func TestNew_RunsMigrations(t *testing.T) {
	store := createTestStorage(t)

	for _, table := range []string{"operations", "kv"} {
		var name string
		err := store.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	invalidPath := filepath.Join(t.TempDir(), "missing", "test.db")

	store, err := New(context.Background(), invalidPath, testOptions())
	require.Error(t, err)
	assert.Nil(t, store)

	var openErr *storage.StorageOpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, 2, openErr.Attempts)
}

func TestStorage_Append(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	op := createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1})
	require.NoError(t, store.Append(ctx, op, models.SourceRemote))
	assert.Equal(t, int64(1), op.Seq)

	err := store.Append(ctx, op, models.SourceRemote)
	var dup *storage.DuplicateOperationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "op-1", dup.ID)

	got, err := store.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceRemote, got.Source)
	assert.Equal(t, crdt.VectorClock{"client-a1": 1}, got.VectorClock)
	assert.Nil(t, got.ServerSeq)

	_, err = store.GetOperation(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrOperationNotFound)

	count, err := store.CountOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStorage_LoadSinceAndUnsynced(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for i, id := range []string{"op-1", "op-2", "op-3"} {
		require.NoError(t, store.Append(ctx, createTestOp(id, "task-1", crdt.VectorClock{"client-a1": int64(i + 1)}), models.SourceLocal))
	}

	_, err := store.Commit(ctx, &storage.Changeset{MarkSynced: map[string]int64{"op-1": 4}})
	require.NoError(t, err)

	since, err := store.LoadSince(ctx, 1)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "op-2", since[0].ID)
	assert.Equal(t, int64(2), since[0].Seq)

	unsynced, err := store.LoadUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 2)
	assert.Equal(t, "op-2", unsynced[0].ID)

	synced, err := store.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	require.NotNil(t, synced.ServerSeq)
	assert.Equal(t, int64(4), *synced.ServerSeq)
}

func TestStorage_ClearAllKeepsSequence(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	last, err := store.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)

	require.NoError(t, store.Append(ctx, createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}), models.SourceLocal))
	require.NoError(t, store.Append(ctx, createTestOp("op-2", "task-1", crdt.VectorClock{"client-a1": 2}), models.SourceLocal))
	require.NoError(t, store.ClearAll(ctx))

	op := createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 3})
	require.NoError(t, store.Append(ctx, op, models.SourceLocal))
	assert.Equal(t, int64(3), op.Seq)

	last, err = store.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)
}

func TestCommit_SkipDuplicatesBackfillsServerSeq(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}), models.SourceLocal))

	echo := createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1})
	seq := int64(9)
	echo.ServerSeq = &seq

	res, err := store.Commit(ctx, &storage.Changeset{
		Append:         []*models.Operation{echo},
		SkipDuplicates: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"op-1"}, res.Duplicates)
	assert.Empty(t, res.Appended)

	unsynced, err := store.LoadUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestCommit_RollsBackOnFailure(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	young, old := models.NewArchive(), models.NewArchive()
	young.Task.Upsert("t1", []byte(`{"id":"t1"}`))
	require.NoError(t, store.SaveArchives(ctx, young, old))

	movedYoung, movedOld := young.Clone(), old.Clone()
	movedYoung.Task.Remove("t1")
	movedOld.Task.Upsert("t1", []byte(`{"id":"t1"}`))

	_, err := store.Commit(ctx, &storage.Changeset{
		Append: []*models.Operation{createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1})},
		Meta:   models.NewMetaModel("client-a1"),
		BuildSnapshot: func([]*models.Operation) (*models.Snapshot, error) {
			return nil, errors.New("boom")
		},
		Archives: &storage.ArchivePair{Young: movedYoung, Old: movedOld},
	})
	require.Error(t, err)

	count, err := store.CountOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = store.GetMeta(ctx)
	assert.ErrorIs(t, err, storage.ErrMetaNotFound)

	gotYoung, gotOld, err := store.LoadArchives(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, gotYoung.Task.IDs)
	assert.Equal(t, 0, gotOld.Task.Len())
}

func TestStorage_KeyValueRoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.GetClientID(ctx)
	require.ErrorIs(t, err, storage.ErrClientIDNotFound)
	_, err = store.LoadSnapshot(ctx)
	require.ErrorIs(t, err, storage.ErrSnapshotNotFound)
	_, err = store.LoadImportBackup(ctx)
	require.ErrorIs(t, err, storage.ErrImportBackupNotFound)

	require.NoError(t, store.SaveClientID(ctx, "client-a1"))
	require.NoError(t, store.SaveClientID(ctx, "client-a2"))
	id, err := store.GetClientID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "client-a2", id)

	snap := models.NewSnapshot()
	snap.State.Collection(models.EntityNote).Upsert("n1", []byte(`{"id":"n1"}`))
	snap.LastAppliedOpSeq = 5
	require.NoError(t, store.SaveSnapshot(ctx, snap))
	require.NoError(t, store.SaveImportBackup(ctx, snap))

	got, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.LastAppliedOpSeq)
	assert.Equal(t, []string{"n1"}, got.State.Collection(models.EntityNote).IDs)

	backup, err := store.LoadImportBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), backup.LastAppliedOpSeq)
}

func TestStorage_ReopenAfterConnectionLoss(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, createTestOp("op-1", "task-1", crdt.VectorClock{"client-a1": 1}), models.SourceLocal))

	// Соединение теряется за спиной хранилища
	require.NoError(t, store.DB().Close())

	count, err := store.CountOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Append(ctx, createTestOp("op-2", "task-1", crdt.VectorClock{"client-a1": 2}), models.SourceLocal))
}
