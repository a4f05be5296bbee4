package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/opsync/internal/client/compact"
	"github.com/iudanet/opsync/internal/client/conflict"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

// ActionUseLocal доменное действие SYNC_IMPORT, записанного при выборе USE_LOCAL
const ActionUseLocal = "[Sync] Use local state"

// Result итог применения удаленного батча или решения конфликта.
type Result struct {
	Kind          conflict.Kind
	Applied       int   // количество добавленных в лог операций
	Duplicates    int   // количество пропущенных дубликатов
	Discarded     int   // количество отброшенных локальных операций
	LastServerSeq int64 // последний известный номер сервера после применения
}

// ApplyRemote classifies a remote batch and applies it when no decision is
// needed. Cancellation is honoured only before the commit begins.
func (s *service) ApplyRemote(ctx context.Context, batch *api.OperationBatch) (*Result, error) {
	remote, err := FromAPIBatch(batch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unsynced, err := s.store.LoadUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced operations: %w", err)
	}
	return s.applyRemote(ctx, remote, unsynced)
}

// applyRemote вызывается под s.mu
func (s *service) applyRemote(ctx context.Context, remote conflict.Batch, unsynced []*models.Operation) (*Result, error) {
	if err := s.machine.BeginEvaluation(); err != nil {
		return nil, err
	}

	clientID, m, err := s.identity()
	if err != nil {
		s.settle()
		return nil, err
	}

	outcome := s.detector.Classify(conflict.Input{
		Meta:     m,
		ClientID: clientID,
		Unsynced: unsynced,
		Remote:   remote,
	})
	if outcome.IsConflict() && s.machine.Suppresses(outcome.RemoteClock) {
		s.logger.Info("Conflict suppressed after recent resolution",
			"reason", outcome.Request.Reason,
			"remote_clock", outcome.RemoteClock.String())
		outcome.Kind = conflict.KindSuppressed
	}
	s.metrics.Outcome(string(outcome.Kind))

	var res *Result
	switch outcome.Kind {
	case conflict.KindConflict:
		s.metrics.Conflict(string(outcome.Request.Reason))
		if err := s.machine.Suspend(outcome.Request); err != nil {
			s.settle()
			return nil, err
		}
		return nil, &conflict.ConflictRequiresResolutionError{Request: outcome.Request}
	case conflict.KindNoop:
		res, err = s.applyNoop(ctx, m, remote)
	case conflict.KindAdoptSnapshot:
		res, err = s.adoptRemote(ctx, clientID, m, remote, unsynced, outcome.RemoteClock)
	default:
		res, err = s.mergeRemote(ctx, m, remote, unsynced, outcome.RemoteClock)
	}
	s.settle()
	if err != nil {
		return nil, err
	}

	res.Kind = outcome.Kind
	s.logger.Info("Remote batch applied",
		"kind", res.Kind,
		"applied", res.Applied,
		"duplicates", res.Duplicates,
		"discarded", res.Discarded,
		"last_server_seq", res.LastServerSeq)

	return res, nil
}

func (s *service) settle() {
	if err := s.machine.Settle(); err != nil {
		s.logger.Error("Failed to settle conflict state", "error", err)
	}
}

// applyNoop сохраняет номер сервера, если он ушел вперед без новых операций
func (s *service) applyNoop(ctx context.Context, m *models.MetaModel, remote conflict.Batch) (*Result, error) {
	res := &Result{LastServerSeq: m.LastServerSeq}
	if remote.LatestServerSeq <= m.LastServerSeq {
		return res, nil
	}

	next, err := s.meta.PrepareSynced(crdt.VectorClock{}, remote.LatestServerSeq, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.commit(ctx, &storage.Changeset{Meta: next}); err != nil {
		return nil, err
	}

	res.LastServerSeq = next.LastServerSeq
	return res, nil
}

// mergeRemote добавляет удаленные операции к логу без потери локальных
func (s *service) mergeRemote(ctx context.Context, m *models.MetaModel, remote conflict.Batch, unsynced []*models.Operation, remoteClock crdt.VectorClock) (*Result, error) {
	build, err := s.remoteBuilder(ctx, remote.Ops, unsynced)
	if err != nil {
		return nil, err
	}

	next, err := s.meta.PrepareRemoteMerge(remoteClock, remote.Latest(), s.now())
	if err != nil {
		return nil, err
	}

	res, err := s.commit(ctx, &storage.Changeset{
		Append:         remoteOps(remote.Ops),
		Meta:           next,
		BuildSnapshot:  build,
		SkipDuplicates: true,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Applied:       len(res.Appended),
		Duplicates:    len(res.Duplicates),
		LastServerSeq: next.LastServerSeq,
	}, nil
}

// remoteBuilder выбирает способ обновления снапшота. Без локальных
// несинхронизированных операций удаленные продолжают порядок снапшота,
// иначе весь лог переигрывается внутри транзакции.
func (s *service) remoteBuilder(ctx context.Context, ops, unsynced []*models.Operation) (func([]*models.Operation) (*models.Snapshot, error), error) {
	if len(unsynced) == 0 {
		base, err := s.compactor.Current(ctx)
		if err != nil {
			return nil, err
		}
		return s.compactor.Builder(base), nil
	}

	local := make(map[string]struct{}, len(unsynced))
	for _, op := range unsynced {
		local[op.ID] = struct{}{}
	}
	echoes := make(map[string]int64)
	for _, op := range ops {
		if _, ok := local[op.ID]; ok && op.ServerSeq != nil {
			echoes[op.ID] = *op.ServerSeq
		}
	}

	full, err := s.store.LoadSince(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}
	return s.compactor.ReplayBuilder(withServerSeqs(full, echoes)), nil
}

// adoptRemote принимает удаленную историю целиком. Локальные
// несинхронизированные операции отбрасываются. Если батч несет SYNC_IMPORT,
// лог заменяется, а текущий снапшот сохраняется как резервная копия.
func (s *service) adoptRemote(ctx context.Context, clientID string, m *models.MetaModel, remote conflict.Batch, unsynced []*models.Operation, remoteClock crdt.VectorClock) (*Result, error) {
	adopted := crdt.Merge(m.LastSyncedVectorClock, remoteClock)
	adopted[clientID] = max(adopted[clientID], m.VectorClock[clientID])
	adopted = crdt.LimitSize(adopted, clientID, m.ProtectedClientIDs)

	next, err := s.meta.PrepareAdoptRemote(adopted, remote.Latest(), s.now())
	if err != nil {
		return nil, err
	}

	cs := &storage.Changeset{
		Append:         remoteOps(remote.Ops),
		Meta:           next,
		SkipDuplicates: true,
	}

	if hasImport(remote.Ops) {
		current, err := s.compactor.Current(ctx)
		if err != nil {
			return nil, err
		}
		cs.ClearLog = true
		cs.ImportBackup = current
		cs.BuildSnapshot = s.compactor.ReplayBuilder(nil)
	} else {
		full, err := s.store.LoadSince(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load operations: %w", err)
		}
		kept := make([]*models.Operation, 0, len(full))
		for _, op := range full {
			if op.IsSynced() {
				kept = append(kept, op)
			}
		}
		for _, op := range unsynced {
			cs.DeleteOpIDs = append(cs.DeleteOpIDs, op.ID)
		}
		cs.BuildSnapshot = s.compactor.ReplayBuilder(kept)
	}

	res, err := s.commit(ctx, cs)
	if err != nil {
		return nil, err
	}

	if len(unsynced) > 0 {
		s.logger.Warn("Local operations discarded in favour of remote history",
			"count", len(unsynced),
			"log_replaced", cs.ClearLog)
	}

	return &Result{
		Applied:       len(res.Appended),
		Duplicates:    len(res.Duplicates),
		Discarded:     len(unsynced),
		LastServerSeq: next.LastServerSeq,
	}, nil
}

// Resolve applies decision to the pending conflict. The machine stays in
// CONFLICT_PENDING when the commit fails.
func (s *service) Resolve(ctx context.Context, decision conflict.Decision) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.machine.Pending()
	if req == nil || s.machine.State() != conflict.StateConflictPending {
		return nil, conflict.ErrNoPendingConflict
	}

	clientID, m, err := s.identity()
	if err != nil {
		return nil, err
	}
	unsynced, err := s.store.LoadUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced operations: %w", err)
	}

	var res *Result
	switch decision.Resolution {
	case conflict.UseLocal:
		res, err = s.useLocal(ctx, clientID, m, req, unsynced, decision.ResetClock)
	case conflict.UseRemote:
		remote := conflict.Batch{Ops: req.RemoteOps, LatestServerSeq: req.LatestServerSeq}
		res, err = s.adoptRemote(ctx, clientID, m, remote, unsynced, req.RemoteClock)
	default:
		return nil, fmt.Errorf("%w: %q", conflict.ErrUnknownResolution, decision.Resolution)
	}
	if err != nil {
		s.logger.Error("Failed to apply conflict resolution",
			"resolution", decision.Resolution,
			"error", err)
		return nil, err
	}

	if err := s.machine.MarkResolved(req.RemoteClock); err != nil {
		return nil, err
	}
	s.settle()

	res.Kind = conflict.KindConflict
	s.logger.Info("Conflict resolved",
		"resolution", decision.Resolution,
		"reason", req.Reason,
		"applied", res.Applied,
		"discarded", res.Discarded)

	return res, nil
}

// useLocal сохраняет локальное состояние: удаленные операции попадают в лог,
// а поверх них записывается SYNC_IMPORT с текущим состоянием
func (s *service) useLocal(ctx context.Context, clientID string, m *models.MetaModel, req *conflict.Request, unsynced []*models.Operation, reset bool) (*Result, error) {
	current, err := s.compactor.Current(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := compact.EncodeState(current.State)
	if err != nil {
		return nil, err
	}

	next, clock, err := s.meta.PrepareSyncImport(req.RemoteClock, reset, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sync import: %w", err)
	}
	next.LastSyncedVectorClock = crdt.LimitSize(crdt.Merge(m.LastSyncedVectorClock, req.RemoteClock), clientID, next.ProtectedClientIDs)
	if req.Reason == conflict.ReasonSnapshotReplacement {
		// сервер пересоздан: старый счетчик больше не встретится
		next.LastServerSeq = req.LatestServerSeq
	} else {
		next.LastServerSeq = max(m.LastServerSeq, req.LatestServerSeq)
	}

	op, err := s.newOperation(clientID, clock, models.OpSyncImport, models.EntityAll, "", ActionUseLocal, payload)
	if err != nil {
		return nil, err
	}

	echoes := make(map[string]int64)
	local := make(map[string]struct{}, len(unsynced))
	for _, op := range unsynced {
		local[op.ID] = struct{}{}
	}
	for _, r := range req.RemoteOps {
		if _, ok := local[r.ID]; ok && r.ServerSeq != nil {
			echoes[r.ID] = *r.ServerSeq
		}
	}
	full, err := s.store.LoadSince(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}

	appends := append(remoteOps(req.RemoteOps), op)
	res, err := s.commit(ctx, &storage.Changeset{
		Append:         appends,
		Meta:           next,
		BuildSnapshot:  s.compactor.ReplayBuilder(withServerSeqs(full, echoes)),
		SkipDuplicates: true,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Applied:       len(res.Appended),
		Duplicates:    len(res.Duplicates),
		LastServerSeq: next.LastServerSeq,
	}, nil
}

// remoteOps копирует операции с пометкой источника
func remoteOps(ops []*models.Operation) []*models.Operation {
	out := make([]*models.Operation, 0, len(ops))
	for _, op := range ops {
		c := op.Clone()
		c.Source = models.SourceRemote
		c.Seq = 0
		out = append(out, c)
	}
	return out
}

func hasImport(ops []*models.Operation) bool {
	for _, op := range ops {
		if op.OpType == models.OpSyncImport {
			return true
		}
	}
	return false
}

// IsConflict reports whether err asks for a conflict decision.
func IsConflict(err error) bool {
	var target *conflict.ConflictRequiresResolutionError
	return errors.As(err, &target)
}
