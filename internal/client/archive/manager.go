package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

// Manager управляет парой архивов young/old.
type Manager struct {
	store     storage.ArchiveStorage
	logger    *slog.Logger
	now       func() time.Time
	threshold time.Duration
}

// NewManager создает новый Manager. A non-positive threshold means DefaultThreshold.
func NewManager(store storage.ArchiveStorage, logger *slog.Logger, threshold time.Duration) *Manager {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Manager{
		store:     store,
		logger:    logger,
		now:       time.Now,
		threshold: threshold,
	}
}

// Threshold returns the age after which data goes to the old archive.
func (m *Manager) Threshold() time.Duration {
	return m.threshold
}

// Load returns both archives.
func (m *Manager) Load(ctx context.Context) (young, old *models.Archive, err error) {
	young, old, err = m.store.LoadArchives(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load archives: %w", err)
	}
	return young, old, nil
}

// Bucket classifies task against the manager's clock and threshold.
func (m *Manager) Bucket(task json.RawMessage) models.ArchiveKind {
	return Bucket(task, m.now(), m.threshold)
}

// MoveToArchive adds done tasks to the young archive.
func (m *Manager) MoveToArchive(ctx context.Context, tasks map[string]json.RawMessage, ids []string) error {
	young, old, err := m.Load(ctx)
	if err != nil {
		return err
	}

	pair := AddTasks(young, old, tasks, ids)
	if err := m.store.SaveArchives(ctx, pair.Young, pair.Old); err != nil {
		return fmt.Errorf("failed to save archives: %w", err)
	}

	m.logger.Info("Tasks archived", "count", len(ids))
	return nil
}

// Flush moves aged tasks and time tracking days from the young archive to
// the old one. Both archives are written in one transaction.
func (m *Manager) Flush(ctx context.Context) (FlushStats, error) {
	young, old, err := m.Load(ctx)
	if err != nil {
		return FlushStats{}, err
	}

	pair, stats := FlushPair(young, old, m.now(), m.threshold)
	if err := m.store.SaveArchives(ctx, pair.Young, pair.Old); err != nil {
		return FlushStats{}, fmt.Errorf("failed to save archives: %w", err)
	}

	m.logger.Info("Archive flushed",
		"tasks_moved", stats.TasksMoved,
		"days_moved", stats.DaysMoved)

	return stats, nil
}
