package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/client/compact"
	"github.com/iudanet/opsync/internal/client/conflict"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/client/storage/boltdb"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

const (
	remoteClient = "client-remote1"
	otherClient  = "client-other1"
)

var errBoom = errors.New("boom")

// failingCommitStore хранилище, у которого Commit всегда падает
type failingCommitStore struct {
	storage.Storage
}

func (f *failingCommitStore) Commit(context.Context, *storage.Changeset) (*storage.CommitResult, error) {
	return nil, errBoom
}

func newTestService(t *testing.T, transport Transport) *service {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "opsync.db"), storage.OpenOptions{
		Logger:      logger,
		Attempts:    2,
		BaseDelay:   time.Millisecond,
		LockTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	svc, err := newService(context.Background(), store, Options{
		Transport: transport,
		Logger:    logger,
	})
	require.NoError(t, err)
	return svc
}

func clientID(t *testing.T, svc *service) string {
	t.Helper()
	id, err := svc.meta.ClientID()
	require.NoError(t, err)
	return id
}

func createTask(t *testing.T, svc *service, id, title string) *models.Operation {
	t.Helper()
	op, err := svc.RecordLocal(context.Background(), LocalChange{
		ActionType: "[Task] Add",
		OpType:     models.OpCreate,
		EntityType: models.EntityTask,
		EntityID:   id,
		Payload:    json.RawMessage(`{"id":"` + id + `","title":"` + title + `"}`),
	})
	require.NoError(t, err)
	return op
}

func remoteOp(id, client string, serverSeq int64, clock map[string]int64, opType models.OpType, entityID, payload string) api.Operation {
	seq := serverSeq
	entityType := models.EntityTask
	if opType == models.OpSyncImport {
		entityType = models.EntityAll
	}
	return api.Operation{
		VectorClock:   clock,
		ServerSeq:     &seq,
		ID:            id,
		ActionType:    "[Task] Remote",
		OpType:        string(opType),
		EntityType:    string(entityType),
		EntityID:      entityID,
		ClientID:      client,
		Payload:       json.RawMessage(payload),
		Timestamp:     1700000000000 + serverSeq,
		SchemaVersion: models.CurrentSchemaVersion,
	}
}

func taskTitle(t *testing.T, svc *service, id string) string {
	t.Helper()
	snap, err := svc.State(context.Background())
	require.NoError(t, err)

	raw, ok := snap.State.Collection(models.EntityTask).Get(id)
	require.True(t, ok, "task %s not found", id)

	var task struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(raw, &task))
	return task.Title
}

func hasTask(t *testing.T, svc *service, id string) bool {
	t.Helper()
	snap, err := svc.State(context.Background())
	require.NoError(t, err)
	_, ok := snap.State.Collection(models.EntityTask).Get(id)
	return ok
}

func unsyncedCount(t *testing.T, svc *service) int {
	t.Helper()
	ops, err := svc.store.LoadUnsynced(context.Background())
	require.NoError(t, err)
	return len(ops)
}

// conflictingBatch удаленная операция над той же задачей с параллельными часами
func conflictingBatch() *api.OperationBatch {
	return &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("remote-op-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"remote"}`),
		},
		LatestServerSeq: 1,
	}
}

func TestService_RecordLocal(t *testing.T) {
	svc := newTestService(t, nil)
	me := clientID(t, svc)

	op := createTask(t, svc, "t1", "first")
	assert.Equal(t, int64(1), op.Seq)
	assert.Equal(t, int64(1), op.VectorClock[me])
	assert.Equal(t, models.SourceLocal, op.Source)
	assert.False(t, op.IsSynced())

	second, err := svc.RecordLocal(context.Background(), LocalChange{
		ActionType: "[Task] Update",
		OpType:     models.OpUpdate,
		EntityType: models.EntityTask,
		EntityID:   "t1",
		Payload:    json.RawMessage(`{"title":"renamed"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.VectorClock[me])

	assert.Equal(t, "renamed", taskTitle(t, svc, "t1"))

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.VectorClock[me])
	assert.True(t, m.HasUnsyncedChanges(nil))

	snap, err := svc.store.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.LastAppliedOpSeq)
}

func TestService_RecordLocal_Rejects(t *testing.T) {
	svc := newTestService(t, nil)

	tests := []struct {
		name   string
		change LocalChange
	}{
		{
			name:   "sync import",
			change: LocalChange{OpType: models.OpSyncImport, EntityType: models.EntityAll, Payload: json.RawMessage(`{}`)},
		},
		{
			name:   "unknown op type",
			change: LocalChange{OpType: "MOVE", EntityType: models.EntityTask, EntityID: "t1", Payload: json.RawMessage(`{}`)},
		},
		{
			name:   "missing entity id",
			change: LocalChange{OpType: models.OpCreate, EntityType: models.EntityTask, Payload: json.RawMessage(`{}`)},
		},
		{
			name:   "invalid payload",
			change: LocalChange{OpType: models.OpCreate, EntityType: models.EntityTask, EntityID: "t1", Payload: json.RawMessage(`{"id":`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordLocal(context.Background(), tt.change)
			assert.ErrorIs(t, err, ErrUnsupportedLocalChange)
		})
	}

	count, err := svc.store.CountOperations(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_RecordLocal_SingletonWithoutEntityID(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.RecordLocal(context.Background(), LocalChange{
		ActionType: "[Config] Update",
		OpType:     models.OpCreate,
		EntityType: models.EntityGlobalConfig,
		Payload:    json.RawMessage(`{"localization":{"lng":"en"}}`),
	})
	require.NoError(t, err)

	snap, err := svc.State(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"localization":{"lng":"en"}}`, string(snap.State.Singletons[models.EntityGlobalConfig]))
}

func TestService_ApplyRemote_FastForward(t *testing.T) {
	svc := newTestService(t, nil)

	res, err := svc.ApplyRemote(context.Background(), &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"a"}`),
			remoteOp("r-2", remoteClient, 2, map[string]int64{remoteClient: 2}, models.OpUpdate, "t1", `{"title":"b"}`),
		},
		LatestServerSeq: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, conflict.KindFastForward, res.Kind)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, int64(2), res.LastServerSeq)
	assert.Equal(t, "b", taskTitle(t, svc, "t1"))

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.VectorClock[remoteClient])
	assert.Equal(t, int64(2), m.LastSyncedVectorClock[remoteClient])
	assert.Equal(t, int64(2), m.LastServerSeq)
	assert.Equal(t, conflict.StateSynced, svc.machine.State())

	op, err := svc.store.GetOperation(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceRemote, op.Source)
}

func TestService_ApplyRemote_DuplicateBatchIsSkipped(t *testing.T) {
	svc := newTestService(t, nil)
	batch := &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"a"}`),
			remoteOp("r-2", remoteClient, 2, map[string]int64{remoteClient: 2}, models.OpCreate, "t2", `{"id":"t2","title":"b"}`),
		},
		LatestServerSeq: 2,
	}

	_, err := svc.ApplyRemote(context.Background(), batch)
	require.NoError(t, err)

	res, err := svc.ApplyRemote(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, conflict.KindEqual, res.Kind)
	assert.Zero(t, res.Applied)
	assert.Equal(t, 2, res.Duplicates)

	count, err := svc.store.CountOperations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestService_ApplyRemote_EchoBeforeAck(t *testing.T) {
	svc := newTestService(t, nil)
	me := clientID(t, svc)
	local := createTask(t, svc, "t1", "mine")

	echo := ToAPIOperation(local)
	seq := int64(1)
	echo.ServerSeq = &seq

	res, err := svc.ApplyRemote(context.Background(), &api.OperationBatch{
		Ops:             []api.Operation{echo},
		LatestServerSeq: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, conflict.KindEqual, res.Kind)
	assert.Equal(t, 1, res.Duplicates)
	assert.Zero(t, res.Applied)

	stored, err := svc.store.GetOperation(context.Background(), local.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ServerSeq)
	assert.Equal(t, int64(1), *stored.ServerSeq)
	assert.Zero(t, unsyncedCount(t, svc))
	assert.Equal(t, "mine", taskTitle(t, svc, "t1"))

	snap, err := svc.store.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.LastAppliedOrder)
	require.NotNil(t, snap.LastAppliedOrder.ServerSeq)
	assert.Equal(t, int64(1), snap.VectorClock[me])
}

func TestService_ApplyRemote_ConcurrentDisjointMerges(t *testing.T) {
	svc := newTestService(t, nil)
	createTask(t, svc, "t1", "local")

	res, err := svc.ApplyRemote(context.Background(), &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t2", `{"id":"t2","title":"remote"}`),
		},
		LatestServerSeq: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, conflict.KindMerge, res.Kind)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, "local", taskTitle(t, svc, "t1"))
	assert.Equal(t, "remote", taskTitle(t, svc, "t2"))
	assert.Equal(t, 1, unsyncedCount(t, svc))
}

func TestService_ApplyRemote_RejectsInvalidBatch(t *testing.T) {
	svc := newTestService(t, nil)

	op := remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{}`)
	op.ServerSeq = nil

	_, err := svc.ApplyRemote(context.Background(), &api.OperationBatch{Ops: []api.Operation{op}, LatestServerSeq: 1})
	require.Error(t, err)
	assert.Equal(t, conflict.StateSynced, svc.machine.State())
}

func TestService_ConcurrentConflictPausesSync(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createTask(t, svc, "t1", "local")

	_, err := svc.ApplyRemote(ctx, conflictingBatch())
	require.Error(t, err)
	require.True(t, IsConflict(err))

	req, ok := conflict.AsResolutionRequest(err)
	require.True(t, ok)
	assert.Equal(t, conflict.ReasonConcurrent, req.Reason)
	assert.Equal(t, []conflict.EntityRef{{Type: models.EntityTask, ID: "t1"}}, req.ConflictingEntities)
	assert.Equal(t, 1, req.Local.OperationCount)
	assert.Equal(t, 1, req.Remote.OperationCount)
	assert.Equal(t, conflict.StateConflictPending, svc.machine.State())

	_, err = svc.ApplyRemote(ctx, conflictingBatch())
	assert.ErrorIs(t, err, conflict.ErrSyncPaused)

	_, err = svc.PendingUpload(ctx)
	assert.ErrorIs(t, err, conflict.ErrSyncPaused)

	// локальные записи продолжают работать
	createTask(t, svc, "t2", "still works")

	// удаленная операция не применена
	assert.Equal(t, "local", taskTitle(t, svc, "t1"))
	_, err = svc.store.GetOperation(ctx, "remote-op-1")
	assert.ErrorIs(t, err, storage.ErrOperationNotFound)
}

func TestService_Resolve_UseRemote(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	me := clientID(t, svc)
	createTask(t, svc, "t1", "local")

	_, err := svc.ApplyRemote(ctx, conflictingBatch())
	require.True(t, IsConflict(err))

	res, err := svc.Resolve(ctx, conflict.Decision{Resolution: conflict.UseRemote})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Discarded)

	assert.Equal(t, "remote", taskTitle(t, svc, "t1"))
	assert.Zero(t, unsyncedCount(t, svc))
	assert.Equal(t, conflict.StateSynced, svc.machine.State())

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.VectorClock[remoteClient])
	assert.Equal(t, int64(1), m.VectorClock[me], "own counter never goes backwards")
	assert.Equal(t, int64(1), m.LastServerSeq)
	assert.False(t, m.HasUnsyncedChanges(nil))
}

func TestService_Resolve_UseLocal(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	me := clientID(t, svc)
	createTask(t, svc, "t1", "local")

	_, err := svc.ApplyRemote(ctx, conflictingBatch())
	require.True(t, IsConflict(err))

	res, err := svc.Resolve(ctx, conflict.Decision{Resolution: conflict.UseLocal})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, conflict.StateSynced, svc.machine.State())

	assert.Equal(t, "local", taskTitle(t, svc, "t1"))

	unsynced, err := svc.store.LoadUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 2)
	imp := unsynced[1]
	assert.Equal(t, models.OpSyncImport, imp.OpType)
	assert.Equal(t, int64(2), imp.VectorClock[me])
	assert.Equal(t, int64(1), imp.VectorClock[remoteClient])

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.LastServerSeq)
	assert.ElementsMatch(t, []string{me, remoteClient}, m.ProtectedClientIDs)

	// тот же батч больше не вызывает конфликт
	again, err := svc.ApplyRemote(ctx, conflictingBatch())
	require.NoError(t, err)
	assert.Equal(t, conflict.KindLocalAhead, again.Kind)
	assert.Equal(t, 1, again.Duplicates)
}

func TestService_Resolve_UseLocalResetClock(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	me := clientID(t, svc)
	createTask(t, svc, "t1", "local")
	_, err := svc.RecordLocal(ctx, LocalChange{
		ActionType: "[Task] Update",
		OpType:     models.OpUpdate,
		EntityType: models.EntityTask,
		EntityID:   "t1",
		Payload:    json.RawMessage(`{"title":"local again"}`),
	})
	require.NoError(t, err)

	_, err = svc.ApplyRemote(ctx, conflictingBatch())
	require.True(t, IsConflict(err))

	_, err = svc.Resolve(ctx, conflict.Decision{Resolution: conflict.UseLocal, ResetClock: true})
	require.NoError(t, err)

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.VectorClock[me])
	assert.Len(t, m.VectorClock, 1)
	assert.Equal(t, "local again", taskTitle(t, svc, "t1"))
}

func TestService_Resolve_CooldownSuppressesRepeat(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createTask(t, svc, "t1", "local")

	_, err := svc.ApplyRemote(ctx, conflictingBatch())
	require.True(t, IsConflict(err))
	_, err = svc.Resolve(ctx, conflict.Decision{Resolution: conflict.UseLocal})
	require.NoError(t, err)

	// сервер вернул тот же батч с разрывом последовательности
	batch := &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("remote-op-1", remoteClient, 5, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"remote"}`),
		},
		LatestServerSeq: 5,
	}

	res, err := svc.ApplyRemote(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, conflict.KindSuppressed, res.Kind)
	assert.Equal(t, conflict.StateSynced, svc.machine.State())
	assert.Equal(t, "local", taskTitle(t, svc, "t1"))
}

func TestService_Resolve_FailureKeepsConflictPending(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createTask(t, svc, "t1", "local")

	_, err := svc.ApplyRemote(ctx, conflictingBatch())
	require.True(t, IsConflict(err))

	healthy := svc.store
	svc.store = &failingCommitStore{Storage: healthy}

	for _, resolution := range []conflict.Resolution{conflict.UseLocal, conflict.UseRemote} {
		_, err = svc.Resolve(ctx, conflict.Decision{Resolution: resolution})
		require.ErrorIs(t, err, errBoom, resolution)
		assert.Equal(t, conflict.StateConflictPending, svc.machine.State())
		assert.NotNil(t, svc.machine.Pending())
	}

	svc.store = healthy
	assert.Equal(t, "local", taskTitle(t, svc, "t1"))
	assert.Equal(t, 1, unsyncedCount(t, svc))

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Zero(t, m.LastServerSeq)

	_, err = svc.Resolve(ctx, conflict.Decision{Resolution: conflict.UseRemote})
	require.NoError(t, err)
	assert.Equal(t, "remote", taskTitle(t, svc, "t1"))
}

func TestService_Resolve_Errors(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, conflict.Decision{Resolution: conflict.UseLocal})
	assert.ErrorIs(t, err, conflict.ErrNoPendingConflict)

	createTask(t, svc, "t1", "local")
	_, err = svc.ApplyRemote(ctx, conflictingBatch())
	require.True(t, IsConflict(err))

	_, err = svc.Resolve(ctx, conflict.Decision{Resolution: "MERGE"})
	assert.ErrorIs(t, err, conflict.ErrUnknownResolution)
	assert.Equal(t, conflict.StateConflictPending, svc.machine.State())
}

func TestService_SnapshotReplacementWithUnsyncedOpsConflicts(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"a"}`),
			remoteOp("r-2", remoteClient, 2, map[string]int64{remoteClient: 2}, models.OpCreate, "t2", `{"id":"t2","title":"b"}`),
			remoteOp("r-3", remoteClient, 3, map[string]int64{remoteClient: 3}, models.OpCreate, "t3", `{"id":"t3","title":"c"}`),
		},
		LatestServerSeq: 3,
	})
	require.NoError(t, err)
	createTask(t, svc, "t4", "offline work")

	// сервер пересоздан: счетчик меньше известного клиенту
	_, err = svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("o-1", otherClient, 1, map[string]int64{otherClient: 1}, models.OpCreate, "x1", `{"id":"x1","title":"new server"}`),
		},
		LatestServerSeq: 1,
	})
	require.Error(t, err)

	req, ok := conflict.AsResolutionRequest(err)
	require.True(t, ok)
	assert.Equal(t, conflict.ReasonSnapshotReplacement, req.Reason)
	assert.Equal(t, 1, req.Local.OperationCount)
	assert.True(t, hasTask(t, svc, "t4"))
	assert.False(t, hasTask(t, svc, "x1"))
}

func TestService_Resolve_UseLocalAfterServerReset(t *testing.T) {
	svc := newTestService(t, nil)
	svc.machine = conflict.NewMachine(time.Millisecond, svc.logger)
	ctx := context.Background()

	_, err := svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"a"}`),
		},
		LatestServerSeq: 10,
	})
	require.NoError(t, err)
	local := createTask(t, svc, "t4", "offline work")

	// сервер пересоздан и начал счет заново
	_, err = svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("o-1", otherClient, 1, map[string]int64{otherClient: 1}, models.OpCreate, "x1", `{"id":"x1","title":"new server"}`),
		},
		LatestServerSeq: 1,
	})
	req, ok := conflict.AsResolutionRequest(err)
	require.True(t, ok)
	assert.Equal(t, conflict.ReasonSnapshotReplacement, req.Reason)

	_, err = svc.Resolve(ctx, conflict.Decision{Resolution: conflict.UseLocal})
	require.NoError(t, err)

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.LastServerSeq)

	upload, err := svc.PendingUpload(ctx)
	require.NoError(t, err)
	require.Len(t, upload.Ops, 2)
	assert.Equal(t, local.ID, upload.Ops[0].ID)
	assert.Equal(t, int64(1), upload.LastKnownServerSeq)

	acked, err := svc.Acknowledge(ctx, &api.UploadResult{
		Acks: []api.Ack{
			{ID: upload.Ops[0].ID, ServerSeq: 2},
			{ID: upload.Ops[1].ID, ServerSeq: 3},
		},
		LatestServerSeq: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, acked)

	// окно подавления истекло, следующий батч нового сервера обычный
	time.Sleep(5 * time.Millisecond)
	res, err := svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("o-4", otherClient, 4, map[string]int64{otherClient: 2}, models.OpCreate, "x2", `{"id":"x2","title":"later"}`),
		},
		LatestServerSeq: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, conflict.KindFastForward, res.Kind)
	assert.Equal(t, int64(4), res.LastServerSeq)
	assert.True(t, hasTask(t, svc, "x2"))
	assert.True(t, hasTask(t, svc, "t4"))
	assert.Equal(t, conflict.StateSynced, svc.machine.State())
}

func TestService_ApplyRemote_LatestFromOps(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"a"}`),
		},
		LatestServerSeq: 1,
	})
	require.NoError(t, err)
	createTask(t, svc, "t2", "local")

	// latestServerSeq не передан, номер берется из операции
	res, err := svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-2", remoteClient, 2, map[string]int64{remoteClient: 2}, models.OpCreate, "t3", `{"id":"t3","title":"c"}`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, conflict.KindMerge, res.Kind)
	assert.Equal(t, int64(2), res.LastServerSeq)
	assert.True(t, hasTask(t, svc, "t3"))
	assert.Equal(t, 1, unsyncedCount(t, svc))
}

func TestService_AdoptSnapshotWithoutLocalChanges(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-1", remoteClient, 1, map[string]int64{remoteClient: 1}, models.OpCreate, "t1", `{"id":"t1","title":"a"}`),
			remoteOp("r-2", remoteClient, 2, map[string]int64{remoteClient: 2}, models.OpCreate, "t2", `{"id":"t2","title":"b"}`),
		},
		LatestServerSeq: 2,
	})
	require.NoError(t, err)

	imported := models.NewAppState()
	imported.Collection(models.EntityTask).Upsert("imp", json.RawMessage(`{"id":"imp","title":"imported"}`))
	payload, err := compact.EncodeState(imported)
	require.NoError(t, err)

	res, err := svc.ApplyRemote(ctx, &api.OperationBatch{
		Ops: []api.Operation{
			remoteOp("r-3", remoteClient, 3, map[string]int64{remoteClient: 3}, models.OpSyncImport, "", string(payload)),
		},
		LatestServerSeq: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, conflict.KindAdoptSnapshot, res.Kind)

	assert.True(t, hasTask(t, svc, "imp"))
	assert.False(t, hasTask(t, svc, "t1"))

	count, err := svc.store.CountOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	backup, err := svc.store.LoadImportBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backup.State.Collection(models.EntityTask).Len())

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.LastServerSeq)
	assert.Equal(t, int64(3), m.VectorClock[remoteClient])
}

func TestService_Acknowledge(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	first := createTask(t, svc, "t1", "a")
	second := createTask(t, svc, "t2", "b")

	req, err := svc.PendingUpload(ctx)
	require.NoError(t, err)
	require.Len(t, req.Ops, 2)
	assert.Equal(t, first.ID, req.Ops[0].ID)
	assert.Zero(t, req.LastKnownServerSeq)

	// между нашими операциями сервер принял чужую (seq 2)
	acked, err := svc.Acknowledge(ctx, &api.UploadResult{
		Acks: []api.Ack{
			{ID: first.ID, ServerSeq: 1},
			{ID: second.ID, ServerSeq: 3},
			{ID: "unknown-op", ServerSeq: 4},
		},
		LatestServerSeq: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, acked)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.LastServerSeq)
	assert.Zero(t, status.Unsynced)
	assert.False(t, status.LocalChanges)
	assert.Equal(t, 2, status.Entities)

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.False(t, m.HasUnsyncedChanges(nil))

	snap, err := svc.store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.LastAppliedOrder.ServerSeq)
	assert.Equal(t, int64(3), *snap.LastAppliedOrder.ServerSeq)
}

func TestService_Acknowledge_OutOfOrderRebuildsSnapshot(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	first := createTask(t, svc, "t1", "a")
	second, err := svc.RecordLocal(ctx, LocalChange{
		ActionType: "[Task] Update",
		OpType:     models.OpUpdate,
		EntityType: models.EntityTask,
		EntityID:   "t1",
		Payload:    json.RawMessage(`{"title":"b"}`),
	})
	require.NoError(t, err)

	// сервер принял операции в обратном порядке
	_, err = svc.Acknowledge(ctx, &api.UploadResult{
		Acks: []api.Ack{
			{ID: second.ID, ServerSeq: 1},
			{ID: first.ID, ServerSeq: 2},
		},
		LatestServerSeq: 2,
	})
	require.NoError(t, err)

	// создание с seq 2 применяется после обновления с seq 1
	assert.Equal(t, "a", taskTitle(t, svc, "t1"))

	_, err = svc.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", taskTitle(t, svc, "t1"))
}

func TestAckKeepsOrder(t *testing.T) {
	op := func(id string, sum int64) *models.Operation {
		return &models.Operation{ID: id, ClientID: "client-a1", VectorClock: map[string]int64{"client-a1": sum}}
	}
	unsynced := []*models.Operation{op("a", 1), op("b", 2), op("c", 3)}

	tests := []struct {
		name string
		acks map[string]int64
		last int64
		want bool
	}{
		{name: "prefix in order", acks: map[string]int64{"a": 5, "b": 6}, last: 4, want: true},
		{name: "all", acks: map[string]int64{"a": 5, "b": 6, "c": 9}, last: 4, want: true},
		{name: "not a prefix", acks: map[string]int64{"b": 5}, last: 4, want: false},
		{name: "reversed seqs", acks: map[string]int64{"a": 6, "b": 5}, last: 4, want: false},
		{name: "below known seq", acks: map[string]int64{"a": 3}, last: 4, want: false},
		{name: "more acks than ops", acks: map[string]int64{"a": 5, "b": 6, "c": 7, "d": 8}, last: 4, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ackKeepsOrder(tt.last, unsynced, tt.acks))
		})
	}
}

func TestContiguousSeq(t *testing.T) {
	tests := []struct {
		name string
		acks map[string]int64
		last int64
		want int64
	}{
		{name: "contiguous", acks: map[string]int64{"a": 1, "b": 2}, last: 0, want: 2},
		{name: "gap", acks: map[string]int64{"a": 1, "b": 3}, last: 0, want: 1},
		{name: "starts after gap", acks: map[string]int64{"a": 5}, last: 3, want: 3},
		{name: "already known", acks: map[string]int64{"a": 2, "b": 4}, last: 3, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contiguousSeq(tt.last, tt.acks))
		})
	}
}

// echoServer простая модель сервера: назначает номера и возвращает их в Fetch
func echoServer() *TransportMock {
	var log []api.Operation
	return &TransportMock{
		FetchFunc: func(ctx context.Context, since int64) (*api.OperationBatch, error) {
			batch := &api.OperationBatch{LatestServerSeq: int64(len(log))}
			for _, op := range log {
				if *op.ServerSeq > since {
					batch.Ops = append(batch.Ops, op)
				}
			}
			return batch, nil
		},
		UploadFunc: func(ctx context.Context, req *api.UploadRequest) (*api.UploadResult, error) {
			res := &api.UploadResult{}
			for _, op := range req.Ops {
				seq := int64(len(log) + 1)
				op.ServerSeq = &seq
				log = append(log, op)
				res.Acks = append(res.Acks, api.Ack{ID: op.ID, ServerSeq: seq})
			}
			res.LatestServerSeq = int64(len(log))
			return res, nil
		},
	}
}

func TestService_Sync(t *testing.T) {
	transport := echoServer()
	svc := newTestService(t, transport)
	ctx := context.Background()
	createTask(t, svc, "t1", "a")
	createTask(t, svc, "t2", "b")

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, conflict.KindNoop, res.Kind)
	assert.Equal(t, 2, res.Pushed)
	assert.Equal(t, 2, res.Acked)
	assert.Equal(t, int64(2), res.LastServerSeq)
	assert.Zero(t, unsyncedCount(t, svc))

	// второй цикл запрашивает только новые операции и ничего не отправляет
	res, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, conflict.KindNoop, res.Kind)
	assert.Zero(t, res.Pulled)
	assert.Zero(t, res.Pushed)

	require.Len(t, transport.FetchCalls(), 2)
	assert.Equal(t, int64(0), transport.FetchCalls()[0].Since)
	assert.Equal(t, int64(2), transport.FetchCalls()[1].Since)
	assert.Len(t, transport.UploadCalls(), 1)

	count, err := svc.store.CountOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestService_Sync_TwoClientsConverge(t *testing.T) {
	server := echoServer()
	a := newTestService(t, server)
	b := newTestService(t, server)
	ctx := context.Background()

	createTask(t, a, "t1", "from a")
	_, err := a.Sync(ctx)
	require.NoError(t, err)

	createTask(t, b, "t2", "from b")
	res, err := b.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, conflict.KindMerge, res.Kind)

	_, err = a.Sync(ctx)
	require.NoError(t, err)

	stateA, err := a.State(ctx)
	require.NoError(t, err)
	stateB, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, stateA.State.Collection(models.EntityTask).IDs)
	assert.Equal(t, []string{"t1", "t2"}, stateB.State.Collection(models.EntityTask).IDs)
	assert.Equal(t, "from b", taskTitle(t, a, "t2"))
	assert.Equal(t, "from a", taskTitle(t, b, "t1"))
}

func TestService_Sync_ConflictStopsBeforeUpload(t *testing.T) {
	transport := &TransportMock{
		FetchFunc: func(ctx context.Context, since int64) (*api.OperationBatch, error) {
			return conflictingBatch(), nil
		},
		UploadFunc: func(ctx context.Context, req *api.UploadRequest) (*api.UploadResult, error) {
			return &api.UploadResult{}, nil
		},
	}
	svc := newTestService(t, transport)
	createTask(t, svc, "t1", "local")

	res, err := svc.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	require.NotNil(t, res)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, conflict.KindConflict, res.Kind)
	assert.Empty(t, transport.UploadCalls())

	_, err = svc.Sync(context.Background())
	assert.ErrorIs(t, err, conflict.ErrSyncPaused)
}

func TestService_Sync_Errors(t *testing.T) {
	t.Run("no transport", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, ErrNoTransport)
	})

	t.Run("fetch fails", func(t *testing.T) {
		transport := &TransportMock{
			FetchFunc: func(ctx context.Context, since int64) (*api.OperationBatch, error) {
				return nil, errBoom
			},
		}
		svc := newTestService(t, transport)
		createTask(t, svc, "t1", "local")

		_, err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, conflict.StateSynced, svc.machine.State())
		assert.Equal(t, 1, unsyncedCount(t, svc))
	})

	t.Run("upload fails", func(t *testing.T) {
		transport := &TransportMock{
			FetchFunc: func(ctx context.Context, since int64) (*api.OperationBatch, error) {
				return &api.OperationBatch{}, nil
			},
			UploadFunc: func(ctx context.Context, req *api.UploadRequest) (*api.UploadResult, error) {
				return nil, errBoom
			},
		}
		svc := newTestService(t, transport)
		createTask(t, svc, "t1", "local")

		_, err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, unsyncedCount(t, svc))
	})
}

const legacyBackup = `{
	"task": {"ids": ["t1"], "entities": {"t1": {"id": "t1", "title": "Write report"}}},
	"project": {"ids": [], "entities": {}},
	"taskArchive": {"ids": ["a1"], "entities": {"a1": {"id": "a1", "title": "Old", "doneOn": 1700000000000}}}
}`

func TestService_ImportBackup_LegacyAndRestore(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createTask(t, svc, "before", "pre-import")

	res, err := svc.ImportBackup(ctx, []byte(legacyBackup))
	require.NoError(t, err)
	assert.True(t, res.Report.Legacy)
	assert.Equal(t, models.OpSyncImport, res.Operation.OpType)

	assert.True(t, hasTask(t, svc, "t1"))
	assert.False(t, hasTask(t, svc, "before"))

	count, err := svc.store.CountOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	young, old, err := svc.store.LoadArchives(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, young.Task.IDs)
	assert.Zero(t, old.Task.Len())

	m, err := svc.meta.Meta()
	require.NoError(t, err)
	assert.Equal(t, res.Operation.VectorClock.Keys(), m.ProtectedClientIDs)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasImportBackup)

	_, err = svc.RestoreImportBackup(ctx)
	require.NoError(t, err)
	assert.True(t, hasTask(t, svc, "before"))
	assert.False(t, hasTask(t, svc, "t1"))
}

func TestService_ImportBackup_Invalid(t *testing.T) {
	svc := newTestService(t, nil)
	createTask(t, svc, "t1", "kept")

	_, err := svc.ImportBackup(context.Background(), []byte(`[1,2,3]`))
	require.Error(t, err)
	assert.True(t, hasTask(t, svc, "t1"))
}

func TestService_ImportBackup_PausedByConflict(t *testing.T) {
	svc := newTestService(t, nil)
	createTask(t, svc, "t1", "local")
	_, err := svc.ApplyRemote(context.Background(), conflictingBatch())
	require.True(t, IsConflict(err))

	_, err = svc.ImportBackup(context.Background(), []byte(legacyBackup))
	assert.ErrorIs(t, err, conflict.ErrSyncPaused)
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	src := newTestService(t, nil)
	dst := newTestService(t, nil)
	ctx := context.Background()

	createTask(t, src, "t1", "exported")
	data, err := src.Export(ctx)
	require.NoError(t, err)

	_, err = dst.ImportBackup(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "exported", taskTitle(t, dst, "t1"))
}

func TestService_ArchiveTasks(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createTask(t, svc, "t1", "done")
	createTask(t, svc, "t2", "open")

	n, err := svc.ArchiveTasks(ctx, []string{"t1", "t1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.False(t, hasTask(t, svc, "t1"))
	assert.True(t, hasTask(t, svc, "t2"))

	young, _, err := svc.store.LoadArchives(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, young.Task.IDs)

	unsynced, err := svc.store.LoadUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 3)
	assert.Equal(t, models.OpDelete, unsynced[2].OpType)

	_, err = svc.ArchiveTasks(ctx, []string{"missing"})
	assert.ErrorIs(t, err, ErrEntityNotFound)

	stats, err := svc.FlushArchive(ctx)
	require.NoError(t, err)
	assert.False(t, stats.Moved())
}

func TestService_ResetIdentity(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	old := clientID(t, svc)
	createTask(t, svc, "t1", "a")

	newID, err := svc.ResetIdentity(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, old, newID)

	op := createTask(t, svc, "t2", "b")
	assert.Equal(t, newID, op.ClientID)
	assert.Equal(t, int64(1), op.VectorClock[old])
	assert.Equal(t, int64(1), op.VectorClock[newID])

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, newID, status.ClientID)
	assert.Equal(t, 2, status.Unsynced)
	assert.True(t, status.LocalChanges)
	assert.Equal(t, int64(2), status.LastSeq)
	assert.Equal(t, int64(2), status.SnapshotSeq)
	assert.False(t, status.HasImportBackup)
}

func TestService_ResetIdentity_FailedCommitKeepsIdentity(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	old := clientID(t, svc)
	before, err := svc.meta.Meta()
	require.NoError(t, err)

	healthy := svc.store
	svc.store = &failingCommitStore{Storage: healthy}

	_, err = svc.ResetIdentity(ctx)
	require.ErrorIs(t, err, errBoom)

	svc.store = healthy
	assert.Equal(t, old, clientID(t, svc))

	stored, err := healthy.GetClientID(ctx)
	require.NoError(t, err)
	assert.Equal(t, old, stored)

	m, err := healthy.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.VectorClock, m.VectorClock)
	assert.Empty(t, m.ProtectedClientIDs)
}

func TestNewService_PersistsIdentity(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	path := filepath.Join(t.TempDir(), "opsync.db")
	opts := storage.OpenOptions{Logger: logger, Attempts: 1}

	store, err := boltdb.New(context.Background(), path, opts)
	require.NoError(t, err)
	svc, err := NewService(context.Background(), store, Options{Logger: logger})
	require.NoError(t, err)
	_, err = svc.RecordLocal(context.Background(), LocalChange{
		OpType:     models.OpCreate,
		EntityType: models.EntityTask,
		EntityID:   "t1",
		Payload:    json.RawMessage(`{"id":"t1"}`),
	})
	require.NoError(t, err)
	first, err := svc.Status(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = boltdb.New(context.Background(), path, opts)
	require.NoError(t, err)
	defer store.Close()
	svc, err = NewService(context.Background(), store, Options{Logger: logger})
	require.NoError(t, err)

	second, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ClientID, second.ClientID)
	assert.Equal(t, first.VectorClock, second.VectorClock)
	assert.Equal(t, 1, second.Entities)
}
