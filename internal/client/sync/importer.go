package sync

import (
	"context"
	"fmt"

	"github.com/iudanet/opsync/internal/client/compact"
	"github.com/iudanet/opsync/internal/client/conflict"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/migrate"
	"github.com/iudanet/opsync/internal/models"
)

const (
	// ActionImportBackup доменное действие SYNC_IMPORT при импорте резервной копии
	ActionImportBackup = "[Sync] Import backup"
	// ActionRestoreBackup доменное действие SYNC_IMPORT при откате импорта
	ActionRestoreBackup = "[Sync] Restore pre-import state"
)

// ImportResult итог импорта резервной копии.
type ImportResult struct {
	Operation *models.Operation
	Report    *migrate.Report
	Entities  int
}

// ImportBackup migrates and validates a backup document and replaces the
// local log with a single SYNC_IMPORT of its state. The previous snapshot is
// kept as the import backup. Everything is written in one commit.
func (s *service) ImportBackup(ctx context.Context, raw []byte) (*ImportResult, error) {
	doc, err := migrate.Parse(raw)
	if err != nil {
		return nil, err
	}
	migrated, report, err := migrate.MigrateAndValidate(doc, s.logger)
	if err != nil {
		return nil, err
	}
	state, young, old, err := migrate.ToImport(migrated)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	op, err := s.replaceState(ctx, state, &storage.ArchivePair{Young: young, Old: old}, ActionImportBackup)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Backup imported",
		"legacy", report.Legacy,
		"repaired", report.Repaired,
		"entities", state.EntityCount(),
		"op_id", op.ID)

	return &ImportResult{
		Operation: op,
		Report:    report,
		Entities:  state.EntityCount(),
	}, nil
}

// RestoreImportBackup replaces the state with the snapshot saved before the
// last import. The replaced state becomes the new import backup.
func (s *service) RestoreImportBackup(ctx context.Context) (*models.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup, err := s.store.LoadImportBackup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load import backup: %w", err)
	}

	op, err := s.replaceState(ctx, backup.State, nil, ActionRestoreBackup)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Pre-import state restored",
		"entities", backup.State.EntityCount(),
		"op_id", op.ID)

	return op, nil
}

// replaceState очищает лог и записывает SYNC_IMPORT с состоянием state.
// Вызывается под s.mu.
func (s *service) replaceState(ctx context.Context, state *models.AppState, archives *storage.ArchivePair, action string) (*models.Operation, error) {
	if s.machine.State() == conflict.StateConflictPending {
		return nil, conflict.ErrSyncPaused
	}

	current, err := s.compactor.Current(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := compact.EncodeState(state)
	if err != nil {
		return nil, err
	}

	clientID, err := s.meta.ClientID()
	if err != nil {
		return nil, err
	}
	next, clock, err := s.meta.PrepareSyncImport(crdt.VectorClock{}, false, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sync import: %w", err)
	}

	op, err := s.newOperation(clientID, clock, models.OpSyncImport, models.EntityAll, "", action, payload)
	if err != nil {
		return nil, err
	}

	res, err := s.commit(ctx, &storage.Changeset{
		ClearLog:      true,
		Append:        []*models.Operation{op},
		Meta:          next,
		BuildSnapshot: s.compactor.ReplayBuilder(nil),
		Archives:      archives,
		ImportBackup:  current,
	})
	if err != nil {
		return nil, err
	}

	return res.Appended[0], nil
}

// Export returns the current state and archives as a backup document.
func (s *service) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.compactor.Current(ctx)
	if err != nil {
		return nil, err
	}
	young, old, err := s.archive.Load(ctx)
	if err != nil {
		return nil, err
	}
	return migrate.Export(snap.State, young, old)
}
