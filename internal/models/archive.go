package models

import (
	"maps"
)

// WorkContextData агрегат учета времени за один день для проекта или тега.
// Короткие ключи совпадают с форматом резервных копий.
type WorkContextData struct {
	Start     int64 `json:"s,omitempty"`  // начало работы, ms
	End       int64 `json:"e,omitempty"`  // конец работы, ms
	BreakNr   int   `json:"b,omitempty"`  // количество перерывов
	BreakTime int64 `json:"bt,omitempty"` // длительность перерывов, ms
}

// Merge объединяет два агрегата одного дня.
func (w WorkContextData) Merge(o WorkContextData) WorkContextData {
	out := w
	if o.Start != 0 && (out.Start == 0 || o.Start < out.Start) {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	out.BreakNr = max(out.BreakNr, o.BreakNr)
	out.BreakTime = max(out.BreakTime, o.BreakTime)
	return out
}

// DayMap агрегаты по дням в формате YYYY-MM-DD.
type DayMap map[string]WorkContextData

// TimeTracking агрегаты учета времени по контекстам (id проекта/тега -> день -> данные).
type TimeTracking struct {
	Project map[string]DayMap `json:"project"`
	Tag     map[string]DayMap `json:"tag"`
}

// NewTimeTracking создает пустой учет времени
func NewTimeTracking() TimeTracking {
	return TimeTracking{Project: map[string]DayMap{}, Tag: map[string]DayMap{}}
}

// Clone создает глубокую копию
func (t TimeTracking) Clone() TimeTracking {
	out := NewTimeTracking()
	for id, days := range t.Project {
		out.Project[id] = maps.Clone(days)
	}
	for id, days := range t.Tag {
		out.Tag[id] = maps.Clone(days)
	}
	return out
}

// IsEmpty проверяет, что агрегатов нет
func (t TimeTracking) IsEmpty() bool {
	return len(t.Project) == 0 && len(t.Tag) == 0
}

// ArchiveKind один из двух архивов.
type ArchiveKind string

const (
	ArchiveYoung ArchiveKind = "young"
	ArchiveOld   ArchiveKind = "old"
)

// Archive хранит архивные задачи и агрегаты времени одного бакета.
type Archive struct {
	Task                  *EntityState `json:"task"`
	TimeTracking          TimeTracking `json:"timeTracking"`
	LastTimeTrackingFlush int64        `json:"lastTimeTrackingFlush"`
}

// NewArchive создает пустой архив
func NewArchive() *Archive {
	return &Archive{Task: NewEntityState(), TimeTracking: NewTimeTracking()}
}

// Clone создает глубокую копию архива
func (a *Archive) Clone() *Archive {
	if a == nil {
		return NewArchive()
	}
	return &Archive{
		Task:                  a.Task.Clone(),
		TimeTracking:          a.TimeTracking.Clone(),
		LastTimeTrackingFlush: a.LastTimeTrackingFlush,
	}
}
