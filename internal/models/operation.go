package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/opsync/internal/crdt"
)

// CurrentSchemaVersion версия схемы данных, которую пишет этот клиент.
const CurrentSchemaVersion = 2

// OpType вид изменения состояния, который несет операция.
type OpType string

const (
	OpCreate     OpType = "CRT"
	OpUpdate     OpType = "UPD"
	OpDelete     OpType = "DEL"
	OpSyncImport OpType = "SYNC_IMPORT"
)

// Valid проверяет, что t один из известных видов операций
func (t OpType) Valid() bool {
	switch t {
	case OpCreate, OpUpdate, OpDelete, OpSyncImport:
		return true
	default:
		return false
	}
}

// OpSource откуда пришла добавленная в лог операция.
type OpSource string

const (
	SourceLocal  OpSource = "local"
	SourceRemote OpSource = "remote"
)

// Operation представляет одну неизменяемую запись об изменении состояния.
// Операции образуют append-only лог, который сходится между устройствами.
type Operation struct {
	VectorClock   crdt.VectorClock `json:"vectorClock"`         // VectorClock часы клиента после этой операции
	ServerSeq     *int64           `json:"serverSeq,omitempty"` // ServerSeq номер, назначенный при приеме (nil до синхронизации)
	ID            string           `json:"id"`                  // ID уникальный, упорядоченный по времени идентификатор (UUIDv7)
	ActionType    string           `json:"actionType"`          // ActionType доменное действие, например "[Task] Update"
	OpType        OpType           `json:"opType"`              // OpType вид изменения
	EntityType    EntityType       `json:"entityType"`          // EntityType тип сущности
	EntityID      string           `json:"entityId,omitempty"`  // EntityID идентификатор сущности (пусто для SYNC_IMPORT и singleton)
	ClientID      string           `json:"clientId"`            // ClientID клиент-автор
	Source        OpSource         `json:"source,omitempty"`    // Source local или remote, проставляется хранилищем
	Payload       json.RawMessage  `json:"payload,omitempty"`   // Payload непрозрачные доменные данные
	Timestamp     int64            `json:"timestamp"`           // Timestamp wall-clock клиента в миллисекундах
	SchemaVersion int              `json:"schemaVersion"`       // SchemaVersion версия схемы payload
	Seq           int64            `json:"seq,omitempty"`       // Seq локальная позиция в логе, назначается хранилищем
}

// NewOperationID генерирует новый уникальный, упорядоченный по времени идентификатор
func NewOperationID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate operation id: %w", err)
	}
	return id.String(), nil
}

// IsSynced проверяет, принял ли операцию сервер
func (o *Operation) IsSynced() bool {
	return o.ServerSeq != nil
}

// Clone создает глубокую копию операции
func (o *Operation) Clone() *Operation {
	payload := make(json.RawMessage, len(o.Payload))
	copy(payload, o.Payload)
	if o.Payload == nil {
		payload = nil
	}

	var serverSeq *int64
	if o.ServerSeq != nil {
		v := *o.ServerSeq
		serverSeq = &v
	}

	return &Operation{
		VectorClock:   o.VectorClock.Clone(),
		ServerSeq:     serverSeq,
		ID:            o.ID,
		ActionType:    o.ActionType,
		OpType:        o.OpType,
		EntityType:    o.EntityType,
		EntityID:      o.EntityID,
		ClientID:      o.ClientID,
		Source:        o.Source,
		Payload:       payload,
		Timestamp:     o.Timestamp,
		SchemaVersion: o.SchemaVersion,
		Seq:           o.Seq,
	}
}

// Validate проверяет структуру операции, полученной с другого устройства,
// до добавления в лог.
func (o *Operation) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("operation id is empty")
	}
	if !o.OpType.Valid() {
		return fmt.Errorf("operation %s: unknown op type %q", o.ID, o.OpType)
	}
	if o.ClientID == "" {
		return fmt.Errorf("operation %s: client id is empty", o.ID)
	}
	if len(o.VectorClock) == 0 {
		return fmt.Errorf("operation %s: vector clock is empty", o.ID)
	}
	if o.OpType == OpSyncImport {
		if len(o.Payload) == 0 {
			return fmt.Errorf("operation %s: sync import without payload", o.ID)
		}
		return nil
	}
	if o.EntityType == "" {
		return fmt.Errorf("operation %s: entity type is empty", o.ID)
	}
	if !o.EntityType.IsSingleton() && o.EntityID == "" {
		return fmt.Errorf("operation %s: entity id is empty for %s", o.ID, o.EntityType)
	}
	return nil
}
