package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/opsync/internal/client/archive"
	"github.com/iudanet/opsync/internal/client/compact"
	"github.com/iudanet/opsync/internal/client/conflict"
	"github.com/iudanet/opsync/internal/client/meta"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/metrics"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

//go:generate moq -out service_mock.go . Service

// Service определяет интерфейс для sync.Service
type Service interface {
	// RecordLocal записывает локальное изменение в лог
	RecordLocal(ctx context.Context, change LocalChange) (*models.Operation, error)

	// ApplyRemote применяет батч удаленных операций. Конфликт возвращается
	// как *conflict.ConflictRequiresResolutionError.
	ApplyRemote(ctx context.Context, batch *api.OperationBatch) (*Result, error)

	// Resolve применяет решение по ожидающему конфликту
	Resolve(ctx context.Context, decision conflict.Decision) (*Result, error)

	// Sync выполняет полный цикл: получение, применение, отправка, подтверждение
	Sync(ctx context.Context) (*SyncResult, error)

	// PendingUpload возвращает операции, ожидающие отправки
	PendingUpload(ctx context.Context) (*api.UploadRequest, error)

	// Acknowledge сохраняет номера, назначенные сервером
	Acknowledge(ctx context.Context, result *api.UploadResult) (int, error)

	// ImportBackup заменяет состояние содержимым резервной копии
	ImportBackup(ctx context.Context, raw []byte) (*ImportResult, error)

	// RestoreImportBackup возвращает состояние, сохраненное перед последним импортом
	RestoreImportBackup(ctx context.Context) (*models.Operation, error)

	// Export сериализует текущее состояние и архивы в формат резервной копии
	Export(ctx context.Context) ([]byte, error)

	State(ctx context.Context) (*models.Snapshot, error)
	Rebuild(ctx context.Context) (*models.Snapshot, error)

	// ArchiveTasks удаляет задачи из состояния и переносит их в архив
	ArchiveTasks(ctx context.Context, ids []string) (int, error)

	FlushArchive(ctx context.Context) (archive.FlushStats, error)

	// ResetIdentity заменяет идентификатор клиента
	ResetIdentity(ctx context.Context) (string, error)

	Status(ctx context.Context) (*Status, error)
}

// Options зависимости и настройки сервиса.
type Options struct {
	Transport        Transport       // nil отключает Sync
	Metrics          *metrics.Engine // nil отключает метрики
	Logger           *slog.Logger
	Cooldown         time.Duration // окно подавления повторного конфликта
	ArchiveThreshold time.Duration // возраст перехода из young в old
}

type service struct {
	store     storage.Storage
	meta      *meta.Controller
	detector  *conflict.Detector
	machine   *conflict.Machine
	compactor *compact.Compactor
	archive   *archive.Manager
	transport Transport
	metrics   *metrics.Engine
	logger    *slog.Logger
	now       func() time.Time

	// mu сериализует все записи и весь цикл Sync
	mu sync.Mutex
}

// NewService creates a sync service over store and loads the client identity.
func NewService(ctx context.Context, store storage.Storage, opts Options) (Service, error) {
	return newService(ctx, store, opts)
}

func newService(ctx context.Context, store storage.Storage, opts Options) (*service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = conflict.DefaultCooldown
	}

	ctrl := meta.NewController(store, logger)
	if err := ctrl.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init meta: %w", err)
	}

	return &service{
		store:     store,
		meta:      ctrl,
		detector:  conflict.NewDetector(logger),
		machine:   conflict.NewMachine(cooldown, logger),
		compactor: compact.NewCompactor(store, store, logger, opts.Metrics),
		archive:   archive.NewManager(store, logger, opts.ArchiveThreshold),
		transport: opts.Transport,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Status сводка локального состояния синхронизации.
type Status struct {
	ClientID              string
	SyncState             conflict.State
	Pending               *conflict.Request
	VectorClock           crdt.VectorClock
	LastSyncedVectorClock crdt.VectorClock
	Operations            int
	Unsynced              int
	LocalChanges          bool // часы ушли вперед после последней синхронизации
	Entities              int
	LastSeq               int64
	LastServerSeq         int64
	SnapshotSeq           int64
	HasImportBackup       bool
}

// Status возвращает текущее состояние клиента
func (s *service) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clientID, m, err := s.identity()
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountOperations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}
	unsynced, err := s.store.LoadUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced operations: %w", err)
	}
	lastSeq, err := s.store.GetLastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last seq: %w", err)
	}
	snap, err := s.compactor.Current(ctx)
	if err != nil {
		return nil, err
	}

	_, err = s.store.LoadImportBackup(ctx)
	hasBackup := err == nil
	if err != nil && !errors.Is(err, storage.ErrImportBackupNotFound) {
		return nil, fmt.Errorf("failed to load import backup: %w", err)
	}

	return &Status{
		ClientID:              clientID,
		SyncState:             s.machine.State(),
		Pending:               s.machine.Pending(),
		VectorClock:           m.VectorClock,
		LastSyncedVectorClock: m.LastSyncedVectorClock,
		Operations:            count,
		Unsynced:              len(unsynced),
		LocalChanges:          m.HasUnsyncedChanges(s.logger),
		Entities:              snap.State.EntityCount(),
		LastSeq:               lastSeq,
		LastServerSeq:         m.LastServerSeq,
		SnapshotSeq:           snap.LastAppliedOpSeq,
		HasImportBackup:       hasBackup,
	}, nil
}

// State returns the materialized state of the whole log.
func (s *service) State(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactor.Current(ctx)
}

// Rebuild replays the whole log into a new snapshot.
func (s *service) Rebuild(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactor.Rebuild(ctx)
}

func (s *service) identity() (string, *models.MetaModel, error) {
	clientID, err := s.meta.ClientID()
	if err != nil {
		return "", nil, err
	}
	m, err := s.meta.Meta()
	if err != nil {
		return "", nil, err
	}
	return clientID, m, nil
}

// commit применяет changeset, устанавливает новую мета-модель и догоняет
// снапшот, если builder не смог продвинуть его внутри транзакции
func (s *service) commit(ctx context.Context, cs *storage.Changeset) (*storage.CommitResult, error) {
	res, err := s.store.Commit(ctx, cs)
	if err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	switch {
	case cs.ClientID != "" && cs.Meta != nil:
		s.meta.AdoptIdentity(cs.ClientID, cs.Meta)
	case cs.Meta != nil:
		s.meta.Adopt(cs.Meta)
	}

	bySource := make(map[models.OpSource]int, 2)
	for _, op := range res.Appended {
		bySource[op.Source]++
	}
	for source, n := range bySource {
		s.metrics.OpsAppended(string(source), n)
	}
	if len(res.Duplicates) > 0 {
		s.metrics.Duplicates(len(res.Duplicates))
		s.logger.Info("Skipped duplicate operations",
			"count", len(res.Duplicates),
			"ids", res.Duplicates)
	}

	if cs.BuildSnapshot != nil && res.Snapshot == nil {
		// лог уже записан, Current догонит снапшот при следующем чтении
		if _, err := s.compactor.Rebuild(ctx); err != nil {
			s.logger.Warn("Failed to rebuild snapshot after commit", "error", err)
		}
	}

	return res, nil
}

// newOperation создает локальную операцию с часами clock
func (s *service) newOperation(clientID string, clock crdt.VectorClock, opType models.OpType, entityType models.EntityType, entityID, action string, payload json.RawMessage) (*models.Operation, error) {
	id, err := models.NewOperationID()
	if err != nil {
		return nil, err
	}
	return &models.Operation{
		VectorClock:   clock,
		ID:            id,
		ActionType:    action,
		OpType:        opType,
		EntityType:    entityType,
		EntityID:      entityID,
		ClientID:      clientID,
		Source:        models.SourceLocal,
		Payload:       payload,
		Timestamp:     s.now().UnixMilli(),
		SchemaVersion: models.CurrentSchemaVersion,
	}, nil
}

// withServerSeqs возвращает ops, где операциям из seqs проставлен serverSeq.
// Измененные операции копируются.
func withServerSeqs(ops []*models.Operation, seqs map[string]int64) []*models.Operation {
	out := make([]*models.Operation, len(ops))
	for i, op := range ops {
		seq, ok := seqs[op.ID]
		if !ok || op.ServerSeq != nil {
			out[i] = op
			continue
		}
		c := op.Clone()
		c.ServerSeq = &seq
		out[i] = c
	}
	return out
}
