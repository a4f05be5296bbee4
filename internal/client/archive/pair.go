package archive

import (
	"encoding/json"
	"time"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

// FlushStats итог переноса данных из молодого архива в старый.
type FlushStats struct {
	TasksMoved int
	DaysMoved  int
}

// Moved reports whether the flush changed anything.
func (s FlushStats) Moved() bool {
	return s.TasksMoved > 0 || s.DaysMoved > 0
}

// AddTasks returns a new pair with tasks added to the young archive. A task
// already in the old archive is moved, so it never lives in both.
func AddTasks(young, old *models.Archive, tasks map[string]json.RawMessage, ids []string) *storage.ArchivePair {
	pair := &storage.ArchivePair{Young: young.Clone(), Old: old.Clone()}
	for _, id := range ids {
		task, ok := tasks[id]
		if !ok {
			continue
		}
		pair.Old.Task.Remove(id)
		pair.Young.Task.Upsert(id, task)
	}
	return pair
}

// FlushPair returns a new pair where aged tasks and time tracking days were
// moved from young to old.
func FlushPair(young, old *models.Archive, now time.Time, threshold time.Duration) (*storage.ArchivePair, FlushStats) {
	pair := &storage.ArchivePair{Young: young.Clone(), Old: old.Clone()}
	var stats FlushStats

	for _, id := range append([]string(nil), pair.Young.Task.IDs...) {
		task, _ := pair.Young.Task.Get(id)
		if Bucket(task, now, threshold) != models.ArchiveOld {
			continue
		}
		pair.Old.Task.Upsert(id, task)
		pair.Young.Task.Remove(id)
		stats.TasksMoved++
	}

	cutoff := now.Add(-threshold)
	stats.DaysMoved += flushContexts(pair.Young.TimeTracking.Project, pair.Old.TimeTracking.Project, cutoff)
	stats.DaysMoved += flushContexts(pair.Young.TimeTracking.Tag, pair.Old.TimeTracking.Tag, cutoff)

	ts := now.UnixMilli()
	pair.Young.LastTimeTrackingFlush = ts
	pair.Old.LastTimeTrackingFlush = ts

	return pair, stats
}

func flushContexts(young, old map[string]models.DayMap, cutoff time.Time) int {
	moved := 0
	for ctxID, days := range young {
		for day, data := range days {
			if !dayIsOld(day, cutoff) {
				continue
			}
			dst, ok := old[ctxID]
			if !ok {
				dst = models.DayMap{}
				old[ctxID] = dst
			}
			if prev, ok := dst[day]; ok {
				data = prev.Merge(data)
			}
			dst[day] = data
			delete(days, day)
			moved++
		}
		if len(days) == 0 {
			delete(young, ctxID)
		}
	}
	return moved
}
