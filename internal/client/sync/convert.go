package sync

import (
	"fmt"

	"github.com/iudanet/opsync/internal/client/conflict"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

// ToAPIOperation конвертирует операцию лога в формат обмена
func ToAPIOperation(op *models.Operation) api.Operation {
	var serverSeq *int64
	if op.ServerSeq != nil {
		v := *op.ServerSeq
		serverSeq = &v
	}
	return api.Operation{
		VectorClock:   op.VectorClock.Clone(),
		ServerSeq:     serverSeq,
		ID:            op.ID,
		ActionType:    op.ActionType,
		OpType:        string(op.OpType),
		EntityType:    string(op.EntityType),
		EntityID:      op.EntityID,
		ClientID:      op.ClientID,
		Payload:       op.Payload,
		Timestamp:     op.Timestamp,
		SchemaVersion: op.SchemaVersion,
	}
}

// FromAPIOperation конвертирует операцию из формата обмена и проверяет ее
func FromAPIOperation(in api.Operation) (*models.Operation, error) {
	op := &models.Operation{
		VectorClock:   crdt.VectorClock(in.VectorClock).Clone(),
		ID:            in.ID,
		ActionType:    in.ActionType,
		OpType:        models.OpType(in.OpType),
		EntityType:    models.EntityType(in.EntityType),
		EntityID:      in.EntityID,
		ClientID:      in.ClientID,
		Payload:       in.Payload,
		Timestamp:     in.Timestamp,
		SchemaVersion: in.SchemaVersion,
	}
	if in.ServerSeq != nil {
		v := *in.ServerSeq
		op.ServerSeq = &v
	}
	if err := op.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote operation: %w", err)
	}
	return op, nil
}

// FromAPIBatch converts a remote batch. Every remote operation must carry a
// server sequence.
func FromAPIBatch(batch *api.OperationBatch) (conflict.Batch, error) {
	out := conflict.Batch{
		Ops:             make([]*models.Operation, 0, len(batch.Ops)),
		LatestServerSeq: batch.LatestServerSeq,
	}
	for _, in := range batch.Ops {
		op, err := FromAPIOperation(in)
		if err != nil {
			return conflict.Batch{}, err
		}
		if op.ServerSeq == nil {
			return conflict.Batch{}, fmt.Errorf("invalid remote operation: operation %s has no server sequence", op.ID)
		}
		out.Ops = append(out.Ops, op)
	}
	return out, nil
}

// ToAPIConflict конвертирует запрос на решение конфликта в формат обмена
func ToAPIConflict(req *conflict.Request) api.ConflictRequest {
	entities := make([]string, 0, len(req.ConflictingEntities))
	for _, ref := range req.ConflictingEntities {
		entities = append(entities, ref.String())
	}
	return api.ConflictRequest{
		RemoteClock:         req.RemoteClock.Clone(),
		Reason:              string(req.Reason),
		ConflictingEntities: entities,
		Local:               api.Candidate(req.Local),
		Remote:              api.Candidate(req.Remote),
		LatestServerSeq:     req.LatestServerSeq,
	}
}
