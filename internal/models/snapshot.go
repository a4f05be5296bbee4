package models

import (
	"encoding/json"
	"slices"

	"github.com/iudanet/opsync/internal/crdt"
)

// EntityState словарь сущностей одного типа: упорядоченные ids и сущности по id.
type EntityState struct {
	Entities map[string]json.RawMessage `json:"entities"`
	IDs      []string                   `json:"ids"`
}

// NewEntityState создает пустое состояние сущностей
func NewEntityState() *EntityState {
	return &EntityState{Entities: map[string]json.RawMessage{}, IDs: []string{}}
}

// Get возвращает сущность и признак ее наличия
func (s *EntityState) Get(id string) (json.RawMessage, bool) {
	v, ok := s.Entities[id]
	return v, ok
}

// Upsert сохраняет сущность, добавляя id в конец, если она новая
func (s *EntityState) Upsert(id string, entity json.RawMessage) {
	if _, ok := s.Entities[id]; !ok {
		s.IDs = append(s.IDs, id)
	}
	s.Entities[id] = entity
}

// Remove удаляет сущность и ее id. Отсутствующие id игнорируются.
func (s *EntityState) Remove(id string) {
	if _, ok := s.Entities[id]; !ok {
		return
	}
	delete(s.Entities, id)
	s.IDs = slices.DeleteFunc(s.IDs, func(v string) bool { return v == id })
}

// Len возвращает количество сущностей
func (s *EntityState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.IDs)
}

// Clone создает глубокую копию
func (s *EntityState) Clone() *EntityState {
	if s == nil {
		return NewEntityState()
	}
	out := &EntityState{
		Entities: make(map[string]json.RawMessage, len(s.Entities)),
		IDs:      slices.Clone(s.IDs),
	}
	if out.IDs == nil {
		out.IDs = []string{}
	}
	for k, v := range s.Entities {
		out.Entities[k] = slices.Clone(v)
	}
	return out
}

// AppState материализованное состояние приложения, отдается слою UI.
type AppState struct {
	Entities   map[EntityType]*EntityState    `json:"entities"`
	Singletons map[EntityType]json.RawMessage `json:"singletons"`
}

// NewAppState создает состояние со всеми пустыми коллекциями
func NewAppState() *AppState {
	st := &AppState{
		Entities:   make(map[EntityType]*EntityState),
		Singletons: make(map[EntityType]json.RawMessage),
	}
	for _, t := range CollectionTypes() {
		st.Entities[t] = NewEntityState()
	}
	return st
}

// Collection возвращает состояние для типа t, создавая его при отсутствии
func (s *AppState) Collection(t EntityType) *EntityState {
	es, ok := s.Entities[t]
	if !ok || es == nil {
		es = NewEntityState()
		s.Entities[t] = es
	}
	return es
}

// Clone создает глубокую копию состояния
func (s *AppState) Clone() *AppState {
	if s == nil {
		return NewAppState()
	}
	out := &AppState{
		Entities:   make(map[EntityType]*EntityState, len(s.Entities)),
		Singletons: make(map[EntityType]json.RawMessage, len(s.Singletons)),
	}
	for k, v := range s.Entities {
		out.Entities[k] = v.Clone()
	}
	for k, v := range s.Singletons {
		out.Singletons[k] = slices.Clone(v)
	}
	return out
}

// EntityCount возвращает общее количество сущностей во всех коллекциях
func (s *AppState) EntityCount() int {
	n := 0
	for _, es := range s.Entities {
		n += es.Len()
	}
	return n
}

// OrderKey задает полный порядок применения операций при replay.
// Несинхронизированные операции (ServerSeq == nil) идут после всех синхронизированных.
type OrderKey struct {
	ServerSeq *int64 `json:"serverSeq,omitempty"`
	ClientID  string `json:"clientId"`
	ID        string `json:"id"`
	ClockSum  int64  `json:"clockSum"`
	Timestamp int64  `json:"timestamp"`
}

// Snapshot материализованное состояние на момент LastAppliedOpSeq.
type Snapshot struct {
	State            *AppState        `json:"state"`
	LastAppliedOrder *OrderKey        `json:"lastAppliedOrder,omitempty"`
	VectorClock      crdt.VectorClock `json:"vectorClock"`
	LastAppliedOpSeq int64            `json:"lastAppliedOpSeq"`
	CompactedAt      int64            `json:"compactedAt"`
	SchemaVersion    int              `json:"schemaVersion"`
}

// NewSnapshot создает снапшот пустого лога
func NewSnapshot() *Snapshot {
	return &Snapshot{
		State:         NewAppState(),
		VectorClock:   crdt.VectorClock{},
		SchemaVersion: CurrentSchemaVersion,
	}
}

// Clone создает глубокую копию снапшота
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.State = s.State.Clone()
	out.VectorClock = s.VectorClock.Clone()
	if s.LastAppliedOrder != nil {
		k := *s.LastAppliedOrder
		if k.ServerSeq != nil {
			v := *k.ServerSeq
			k.ServerSeq = &v
		}
		out.LastAppliedOrder = &k
	}
	return &out
}
