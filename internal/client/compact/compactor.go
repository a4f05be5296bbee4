package compact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/metrics"
	"github.com/iudanet/opsync/internal/models"
)

// Compactor поддерживает снапшот в соответствии с логом операций.
type Compactor struct {
	ops     storage.OpLogStorage
	snaps   storage.SnapshotStorage
	logger  *slog.Logger
	metrics *metrics.Engine
	now     func() time.Time
}

// NewCompactor создает новый Compactor. m may be nil.
func NewCompactor(ops storage.OpLogStorage, snaps storage.SnapshotStorage, logger *slog.Logger, m *metrics.Engine) *Compactor {
	return &Compactor{
		ops:     ops,
		snaps:   snaps,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Rebuild переигрывает весь лог в новый снапшот и сохраняет его
func (c *Compactor) Rebuild(ctx context.Context) (*models.Snapshot, error) {
	ops, err := c.ops.LoadSince(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}

	snap, err := Replay(ops, c.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to replay operations: %w", err)
	}

	if err := c.snaps.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	c.metrics.Rebuild()
	c.logger.Info("Snapshot rebuilt",
		"operations", len(ops),
		"last_applied_seq", snap.LastAppliedOpSeq,
		"entities", snap.State.EntityCount())

	return snap, nil
}

// ApplyIncremental сворачивает newOps в snap и сохраняет результат. Если новые
// операции нельзя добавить в конец порядка переигрывания, вызывает Rebuild.
func (c *Compactor) ApplyIncremental(ctx context.Context, snap *models.Snapshot, newOps []*models.Operation) (*models.Snapshot, error) {
	next, ok, err := Advance(snap, newOps, c.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to apply operations: %w", err)
	}
	if !ok {
		c.logger.Debug("Operations order before the snapshot, rebuilding",
			"last_applied_seq", snap.LastAppliedOpSeq,
			"new_operations", len(newOps))
		return c.Rebuild(ctx)
	}

	if err := c.snaps.SaveSnapshot(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return next, nil
}

// Current возвращает снапшот всего лога, догоняя сохраненный, если после него
// в лог были добавлены операции.
func (c *Compactor) Current(ctx context.Context) (*models.Snapshot, error) {
	snap, err := c.snaps.LoadSnapshot(ctx)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		return c.Rebuild(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if snap.SchemaVersion != models.CurrentSchemaVersion || snap.State == nil {
		c.logger.Info("Snapshot schema changed, rebuilding",
			"snapshot_version", snap.SchemaVersion,
			"current_version", models.CurrentSchemaVersion)
		return c.Rebuild(ctx)
	}

	lastSeq, err := c.ops.GetLastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last seq: %w", err)
	}

	switch {
	case lastSeq == snap.LastAppliedOpSeq:
		return snap, nil
	case lastSeq < snap.LastAppliedOpSeq:
		return c.Rebuild(ctx)
	}

	newOps, err := c.ops.LoadSince(ctx, snap.LastAppliedOpSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}
	return c.ApplyIncremental(ctx, snap, newOps)
}

// Builder возвращает построитель снапшота для storage.Changeset, который
// продвигает base добавленными операциями. Если нужно полное переигрывание,
// возвращает nil, и сохраненный снапшот отстает от лога, пока его не догонит
// Current.
func (c *Compactor) Builder(base *models.Snapshot) func([]*models.Operation) (*models.Snapshot, error) {
	now := c.now().UnixMilli()
	return func(appended []*models.Operation) (*models.Snapshot, error) {
		next, ok, err := Advance(base, appended, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return next, nil
	}
}

// ReplayBuilder возвращает построитель, который переигрывает kept вместе с
// добавленными операциями. Используется, когда коммит переписывает лог.
func (c *Compactor) ReplayBuilder(kept []*models.Operation) func([]*models.Operation) (*models.Snapshot, error) {
	now := c.now().UnixMilli()
	return func(appended []*models.Operation) (*models.Snapshot, error) {
		all := make([]*models.Operation, 0, len(kept)+len(appended))
		all = append(all, kept...)
		all = append(all, appended...)
		return Replay(all, now)
	}
}
