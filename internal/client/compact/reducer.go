// Package compact материализует лог операций в снапшот состояния.
package compact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iudanet/opsync/internal/models"
)

// Apply returns the state produced by applying op to state. The input state
// is not modified.
func Apply(state *models.AppState, op *models.Operation) (*models.AppState, error) {
	next := state.Clone()
	if err := apply(next, op); err != nil {
		return nil, err
	}
	return next, nil
}

// apply изменяет state на месте. Используется replay над собственной копией.
func apply(state *models.AppState, op *models.Operation) error {
	switch op.OpType {
	case models.OpCreate:
		return applyCreate(state, op)
	case models.OpUpdate:
		return applyUpdate(state, op)
	case models.OpDelete:
		applyDelete(state, op)
		return nil
	case models.OpSyncImport:
		return applySyncImport(state, op)
	default:
		return fmt.Errorf("operation %s: %w: %q", op.ID, ErrUnsupportedOpType, op.OpType)
	}
}

func applyCreate(state *models.AppState, op *models.Operation) error {
	if !json.Valid(op.Payload) {
		return fmt.Errorf("operation %s: %w", op.ID, ErrInvalidPayload)
	}
	payload := bytes.Clone(op.Payload)

	if op.EntityType.IsSingleton() {
		state.Singletons[op.EntityType] = payload
		return nil
	}
	state.Collection(op.EntityType).Upsert(op.EntityID, payload)
	return nil
}

// applyUpdate сливает поля payload поверх сущности (shallow merge).
// Поле со значением null удаляется. Отсутствующая сущность создается.
func applyUpdate(state *models.AppState, op *models.Operation) error {
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(op.Payload, &changes); err != nil || changes == nil {
		return fmt.Errorf("operation %s: %w: update must be an object", op.ID, ErrInvalidPayload)
	}

	var current json.RawMessage
	if op.EntityType.IsSingleton() {
		current = state.Singletons[op.EntityType]
	} else {
		current, _ = state.Collection(op.EntityType).Get(op.EntityID)
	}

	merged, err := mergeObject(current, changes)
	if err != nil {
		return fmt.Errorf("operation %s: %w", op.ID, err)
	}

	if op.EntityType.IsSingleton() {
		state.Singletons[op.EntityType] = merged
		return nil
	}
	state.Collection(op.EntityType).Upsert(op.EntityID, merged)
	return nil
}

func applyDelete(state *models.AppState, op *models.Operation) {
	if op.EntityType.IsSingleton() {
		delete(state.Singletons, op.EntityType)
		return
	}
	if es, ok := state.Entities[op.EntityType]; ok && es != nil {
		es.Remove(op.EntityID)
	}
}

// applySyncImport заменяет все состояние содержимым payload.
func applySyncImport(state *models.AppState, op *models.Operation) error {
	imported, err := DecodeState(op.Payload)
	if err != nil {
		return fmt.Errorf("operation %s: %w", op.ID, err)
	}
	*state = *imported
	return nil
}

// DecodeState decodes a full state as carried by a SYNC_IMPORT payload and
// fills in missing collections.
func DecodeState(data []byte) (*models.AppState, error) {
	var st models.AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if st.Entities == nil {
		st.Entities = make(map[models.EntityType]*models.EntityState)
	}
	if st.Singletons == nil {
		st.Singletons = make(map[models.EntityType]json.RawMessage)
	}
	for t, es := range st.Entities {
		if es == nil {
			st.Entities[t] = models.NewEntityState()
			continue
		}
		if es.Entities == nil {
			es.Entities = map[string]json.RawMessage{}
		}
		if es.IDs == nil {
			es.IDs = []string{}
		}
	}
	for _, t := range models.CollectionTypes() {
		st.Collection(t)
	}
	return &st, nil
}

// EncodeState encodes state as a SYNC_IMPORT payload.
func EncodeState(state *models.AppState) (json.RawMessage, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

func mergeObject(current json.RawMessage, changes map[string]json.RawMessage) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(current) > 0 {
		// не объект (например, строка в singleton) просто заменяется
		if err := json.Unmarshal(current, &fields); err != nil || fields == nil {
			fields = map[string]json.RawMessage{}
		}
	}

	for k, v := range changes {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged entity: %w", err)
	}
	return out, nil
}
