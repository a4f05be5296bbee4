package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/client/storage/boltdb"
	"github.com/iudanet/opsync/internal/models"
)

var testNow = time.Date(2024, time.March, 30, 12, 0, 0, 0, time.UTC)

func doneTask(id string, doneOn time.Time) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":%q,"isDone":true,"doneOn":%d}`, id, doneOn.UnixMilli()))
}

func TestBucket(t *testing.T) {
	tests := []struct {
		name string
		task json.RawMessage
		want models.ArchiveKind
	}{
		{"done yesterday", doneTask("t", testNow.AddDate(0, 0, -1)), models.ArchiveYoung},
		{"done exactly at threshold", doneTask("t", testNow.Add(-DefaultThreshold)), models.ArchiveYoung},
		{"done a month ago", doneTask("t", testNow.AddDate(0, -1, 0)), models.ArchiveOld},
		{"no doneOn", json.RawMessage(`{"id":"t"}`), models.ArchiveYoung},
		{"null doneOn", json.RawMessage(`{"id":"t","doneOn":null}`), models.ArchiveYoung},
		{"broken doneOn", json.RawMessage(`{"id":"t","doneOn":"yesterday"}`), models.ArchiveYoung},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bucket(tt.task, testNow, DefaultThreshold))
		})
	}
}

func TestDayIsOld(t *testing.T) {
	cutoff := testNow.Add(-DefaultThreshold) // 2024-03-09 12:00

	assert.True(t, dayIsOld("2024-03-08", cutoff))
	assert.False(t, dayIsOld("2024-03-09", cutoff), "cutoff day is not over yet")
	assert.False(t, dayIsOld("2024-03-20", cutoff))
	assert.False(t, dayIsOld("not-a-day", cutoff))
}

// fixtureArchives молодой архив со старыми и свежими данными
func fixtureArchives() (young, old *models.Archive) {
	young = models.NewArchive()
	young.Task.Upsert("fresh", doneTask("fresh", testNow.AddDate(0, 0, -2)))
	young.Task.Upsert("aged", doneTask("aged", testNow.AddDate(0, 0, -40)))
	young.TimeTracking.Project["p-1"] = models.DayMap{
		"2024-01-10": {Start: 100, End: 200},
		"2024-03-28": {Start: 300, End: 400},
	}
	young.TimeTracking.Tag["tag-1"] = models.DayMap{
		"2024-01-11": {BreakNr: 1},
	}

	old = models.NewArchive()
	old.TimeTracking.Project["p-1"] = models.DayMap{
		"2024-01-10": {Start: 50, End: 150, BreakNr: 2},
	}
	return young, old
}

func TestFlushPair(t *testing.T) {
	young, old := fixtureArchives()

	pair, stats := FlushPair(young, old, testNow, DefaultThreshold)

	assert.Equal(t, FlushStats{TasksMoved: 1, DaysMoved: 2}, stats)
	assert.Equal(t, []string{"fresh"}, pair.Young.Task.IDs)
	assert.Equal(t, []string{"aged"}, pair.Old.Task.IDs)

	assert.Equal(t, models.DayMap{"2024-03-28": {Start: 300, End: 400}}, pair.Young.TimeTracking.Project["p-1"])
	assert.NotContains(t, pair.Young.TimeTracking.Tag, "tag-1")
	assert.Equal(t, models.WorkContextData{Start: 50, End: 200, BreakNr: 2}, pair.Old.TimeTracking.Project["p-1"]["2024-01-10"])
	assert.Equal(t, models.WorkContextData{BreakNr: 1}, pair.Old.TimeTracking.Tag["tag-1"]["2024-01-11"])

	assert.Equal(t, testNow.UnixMilli(), pair.Young.LastTimeTrackingFlush)
	assert.Equal(t, testNow.UnixMilli(), pair.Old.LastTimeTrackingFlush)

	// входные архивы не меняются
	assert.Len(t, young.Task.IDs, 2)
	assert.Empty(t, old.Task.IDs)
}

func TestFlushPair_Idempotent(t *testing.T) {
	young, old := fixtureArchives()

	first, _ := FlushPair(young, old, testNow, DefaultThreshold)
	second, stats := FlushPair(first.Young, first.Old, testNow, DefaultThreshold)

	assert.False(t, stats.Moved())
	assert.Equal(t, first, second)
}

func TestAddTasks(t *testing.T) {
	young := models.NewArchive()
	old := models.NewArchive()
	old.Task.Upsert("t-1", doneTask("t-1", testNow.AddDate(-1, 0, 0)))

	tasks := map[string]json.RawMessage{
		"t-1": doneTask("t-1", testNow),
		"t-2": doneTask("t-2", testNow),
	}
	pair := AddTasks(young, old, tasks, []string{"t-1", "t-2", "missing"})

	assert.Equal(t, []string{"t-1", "t-2"}, pair.Young.Task.IDs)
	assert.Empty(t, pair.Old.Task.IDs, "a task never lives in both archives")
}

// memoryArchives мок хранилища архивов в памяти
func memoryArchives() *storage.ArchiveStorageMock {
	young, old := models.NewArchive(), models.NewArchive()
	return &storage.ArchiveStorageMock{
		LoadArchivesFunc: func(ctx context.Context) (*models.Archive, *models.Archive, error) {
			return young.Clone(), old.Clone(), nil
		},
		SaveArchivesFunc: func(ctx context.Context, y *models.Archive, o *models.Archive) error {
			young, old = y.Clone(), o.Clone()
			return nil
		},
	}
}

func newTestManager(store storage.ArchiveStorage) *Manager {
	m := NewManager(store, slog.New(slog.DiscardHandler), 0)
	m.now = func() time.Time { return testNow }
	return m
}

func TestManager_MoveAndFlush(t *testing.T) {
	ctx := context.Background()
	store := memoryArchives()
	m := newTestManager(store)

	assert.Equal(t, DefaultThreshold, m.Threshold())

	tasks := map[string]json.RawMessage{
		"fresh": doneTask("fresh", testNow.AddDate(0, 0, -1)),
		"aged":  doneTask("aged", testNow.AddDate(0, 0, -30)),
	}
	require.NoError(t, m.MoveToArchive(ctx, tasks, []string{"fresh", "aged"}))

	young, _, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, young.Task.Len())
	assert.Equal(t, models.ArchiveOld, m.Bucket(tasks["aged"]))

	stats, err := m.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TasksMoved)

	young, old, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, young.Task.IDs)
	assert.Equal(t, []string{"aged"}, old.Task.IDs)
}

func TestManager_FlushSaveFailureKeepsPreFlushState(t *testing.T) {
	ctx := context.Background()
	store := memoryArchives()
	young, old := fixtureArchives()
	require.NoError(t, store.SaveArchives(ctx, young, old))

	store.SaveArchivesFunc = func(ctx context.Context, y *models.Archive, o *models.Archive) error {
		return errors.New("write failed")
	}
	m := newTestManager(store)

	_, err := m.Flush(ctx)
	require.Error(t, err)

	gotYoung, gotOld, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, young.Task.IDs, gotYoung.Task.IDs)
	assert.Equal(t, old.Task.IDs, gotOld.Task.IDs)
}

func TestFlush_CrashMidTransactionLeavesBothArchives(t *testing.T) {
	ctx := context.Background()
	opts := storage.OpenOptions{Logger: slog.New(slog.DiscardHandler), Attempts: 1}
	store, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "archive.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	young, old := fixtureArchives()
	require.NoError(t, store.SaveArchives(ctx, young, old))

	pair, stats := FlushPair(young, old, testNow, DefaultThreshold)
	require.True(t, stats.Moved())

	// транзакция с новой парой архивов прерывается сбоем
	_, err = store.Commit(ctx, &storage.Changeset{
		Archives:     pair,
		ImportBackup: models.NewSnapshot(),
		BuildSnapshot: func([]*models.Operation) (*models.Snapshot, error) {
			return nil, errors.New("crash")
		},
	})
	require.Error(t, err)

	gotYoung, gotOld, err := store.LoadArchives(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "aged"}, gotYoung.Task.IDs)
	assert.Empty(t, gotOld.Task.IDs)
	assert.Len(t, gotYoung.TimeTracking.Project["p-1"], 2)

	m := newTestManager(store)
	_, err = m.Flush(ctx)
	require.NoError(t, err)

	gotYoung, gotOld, err = store.LoadArchives(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, gotYoung.Task.IDs)
	assert.Equal(t, []string{"aged"}, gotOld.Task.IDs)
}
