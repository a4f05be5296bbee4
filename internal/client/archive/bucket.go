// Package archive делит архивные задачи и агрегаты учета времени
// на молодой и старый архивы по возрасту.
package archive

import (
	"encoding/json"
	"time"

	"github.com/iudanet/opsync/internal/models"
)

// DefaultThreshold возраст, после которого данные уходят в старый архив
const DefaultThreshold = 21 * 24 * time.Hour

// DayLayout формат ключа дня в агрегатах учета времени
const DayLayout = "2006-01-02"

type doneMarker struct {
	DoneOn *int64 `json:"doneOn"`
}

// DoneOn returns the completion time of an archived task in ms.
// ok is false when the task carries no usable doneOn.
func DoneOn(task json.RawMessage) (int64, bool) {
	var m doneMarker
	if err := json.Unmarshal(task, &m); err != nil || m.DoneOn == nil || *m.DoneOn <= 0 {
		return 0, false
	}
	return *m.DoneOn, true
}

// Bucket classifies a task. A task without a completion time stays young.
func Bucket(task json.RawMessage, now time.Time, threshold time.Duration) models.ArchiveKind {
	doneOn, ok := DoneOn(task)
	if !ok {
		return models.ArchiveYoung
	}
	if now.Sub(time.UnixMilli(doneOn)) > threshold {
		return models.ArchiveOld
	}
	return models.ArchiveYoung
}

// dayIsOld reports whether the day lies entirely before the cutoff.
// Days that do not parse stay young.
func dayIsOld(day string, cutoff time.Time) bool {
	d, err := time.ParseInLocation(DayLayout, day, cutoff.Location())
	if err != nil {
		return false
	}
	return !d.AddDate(0, 0, 1).After(cutoff)
}
