package models

import (
	"log/slog"
	"slices"

	"github.com/iudanet/opsync/internal/crdt"
)

// CrossModelVersion версия общей модели данных между всеми типами сущностей
const CrossModelVersion = 4

// MetaModel хранит ревизии и векторные часы одного клиента.
// Изменяется только контроллером мета-данных.
type MetaModel struct {
	RevMap                map[EntityType]int64 `json:"revMap"`
	VectorClock           crdt.VectorClock     `json:"vectorClock"`
	LastSyncedVectorClock crdt.VectorClock     `json:"lastSyncedVectorClock"`
	ProtectedClientIDs    []string             `json:"protectedClientIds,omitempty"`
	CrossModelVersion     int                  `json:"crossModelVersion"`
	LastUpdate            int64                `json:"lastUpdate"`
	LastSyncedUpdate      int64                `json:"lastSyncedUpdate"`
	MetaRev               int64                `json:"metaRev"`
	LastServerSeq         int64                `json:"lastServerSeq"`
}

// NewMetaModel создает пустую мета-модель, часы которой содержат одну
// запись для клиента-владельца.
func NewMetaModel(clientID string) *MetaModel {
	clock := crdt.VectorClock{}
	if clientID != "" {
		clock[clientID] = 0
	}
	return &MetaModel{
		RevMap:                map[EntityType]int64{},
		VectorClock:           clock,
		LastSyncedVectorClock: crdt.VectorClock{},
		CrossModelVersion:     CrossModelVersion,
	}
}

// Clone создает глубокую копию мета-модели
func (m *MetaModel) Clone() *MetaModel {
	if m == nil {
		return nil
	}
	revMap := make(map[EntityType]int64, len(m.RevMap))
	for k, v := range m.RevMap {
		revMap[k] = v
	}
	out := *m
	out.RevMap = revMap
	out.VectorClock = m.VectorClock.Clone()
	out.LastSyncedVectorClock = m.LastSyncedVectorClock.Clone()
	out.ProtectedClientIDs = slices.Clone(m.ProtectedClientIDs)
	return &out
}

// HasUnsyncedChanges проверяет, были ли локальные записи после последней
// успешной синхронизации. logger может быть nil.
func (m *MetaModel) HasUnsyncedChanges(logger *slog.Logger) bool {
	return crdt.HasChanges(m.VectorClock, m.LastSyncedVectorClock, logger)
}
