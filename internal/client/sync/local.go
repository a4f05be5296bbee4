package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/opsync/internal/client/archive"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

// ActionArchiveTasks доменное действие операций удаления при архивации
const ActionArchiveTasks = "[Task] Move to archive"

// LocalChange изменение, сделанное пользователем на этом устройстве.
type LocalChange struct {
	ActionType string
	OpType     models.OpType
	EntityType models.EntityType
	EntityID   string
	Payload    json.RawMessage
}

func (c LocalChange) validate() error {
	switch c.OpType {
	case models.OpCreate, models.OpUpdate, models.OpDelete:
	default:
		return fmt.Errorf("%w: op type %q", ErrUnsupportedLocalChange, c.OpType)
	}
	if c.EntityType == "" || c.EntityType == models.EntityAll {
		return fmt.Errorf("%w: entity type %q", ErrUnsupportedLocalChange, c.EntityType)
	}
	if !c.EntityType.IsSingleton() && c.EntityID == "" {
		return fmt.Errorf("%w: entity id is required for %s", ErrUnsupportedLocalChange, c.EntityType)
	}
	if c.OpType != models.OpDelete && !json.Valid(c.Payload) {
		return fmt.Errorf("%w: payload is not valid JSON", ErrUnsupportedLocalChange)
	}
	return nil
}

// RecordLocal appends one local operation. The meta model, the operation and
// the advanced snapshot are written in one commit.
func (s *service) RecordLocal(ctx context.Context, change LocalChange) (*models.Operation, error) {
	if err := change.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.compactor.Current(ctx)
	if err != nil {
		return nil, err
	}

	clientID, err := s.meta.ClientID()
	if err != nil {
		return nil, err
	}
	next, clock, err := s.meta.PrepareLocalWrite(change.EntityType, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare local write: %w", err)
	}

	op, err := s.newOperation(clientID, clock, change.OpType, change.EntityType, change.EntityID, change.ActionType, change.Payload)
	if err != nil {
		return nil, err
	}

	res, err := s.commit(ctx, &storage.Changeset{
		Append:        []*models.Operation{op},
		Meta:          next,
		BuildSnapshot: s.compactor.Builder(base),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Local operation recorded",
		"op_id", op.ID,
		"op_type", op.OpType,
		"entity_type", op.EntityType,
		"entity_id", op.EntityID,
		"clock", clock.String())

	return res.Appended[0], nil
}

// ArchiveTasks records a delete for every task and moves the tasks to the
// young archive. Operations, meta and archives share one commit.
func (s *service) ArchiveTasks(ctx context.Context, ids []string) (int, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.compactor.Current(ctx)
	if err != nil {
		return 0, err
	}

	tasks := make(map[string]json.RawMessage, len(ids))
	collection := base.State.Collection(models.EntityTask)
	for _, id := range ids {
		task, ok := collection.Get(id)
		if !ok {
			return 0, fmt.Errorf("%w: task %s", ErrEntityNotFound, id)
		}
		tasks[id] = task
	}

	young, old, err := s.archive.Load(ctx)
	if err != nil {
		return 0, err
	}

	clientID, err := s.meta.ClientID()
	if err != nil {
		return 0, err
	}
	next, clocks, err := s.meta.PrepareLocalWrites(models.EntityTask, len(ids), s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare local writes: %w", err)
	}

	ops := make([]*models.Operation, 0, len(ids))
	for i, id := range ids {
		op, err := s.newOperation(clientID, clocks[i], models.OpDelete, models.EntityTask, id, ActionArchiveTasks, nil)
		if err != nil {
			return 0, err
		}
		ops = append(ops, op)
	}

	if _, err := s.commit(ctx, &storage.Changeset{
		Append:        ops,
		Meta:          next,
		BuildSnapshot: s.compactor.Builder(base),
		Archives:      archive.AddTasks(young, old, tasks, ids),
	}); err != nil {
		return 0, err
	}

	s.logger.Info("Tasks archived", "count", len(ids))
	return len(ids), nil
}

// FlushArchive moves aged archive data from the young to the old archive.
func (s *service) FlushArchive(ctx context.Context) (archive.FlushStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archive.Flush(ctx)
}

// ResetIdentity replaces the client id. The old id stays protected in the clock.
func (s *service) ResetIdentity(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newID, next, err := s.meta.PrepareNewIdentity()
	if err != nil {
		return "", err
	}
	if _, err := s.commit(ctx, &storage.Changeset{ClientID: newID, Meta: next}); err != nil {
		return "", fmt.Errorf("failed to save new client id: %w", err)
	}
	return newID, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
