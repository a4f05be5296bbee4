package sync

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/opsync/internal/client/compact"
	"github.com/iudanet/opsync/internal/client/conflict"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/pkg/api"
)

// SyncResult contains sync operation results
type SyncResult struct {
	Conflict      *conflict.Request // запрос на решение, если цикл остановлен конфликтом
	Kind          conflict.Kind
	Pulled        int // количество полученных с сервера операций
	Applied       int // количество добавленных в лог удаленных операций
	Duplicates    int // количество пропущенных дубликатов
	Pushed        int // количество отправленных операций
	Acked         int // количество подтвержденных сервером операций
	LastServerSeq int64
}

// Sync performs a full cycle against the transport:
// 1. Fetches remote operations and loads local unsynced ones concurrently
// 2. Applies the remote batch (a conflict stops the cycle)
// 3. Uploads unsynced operations
// 4. Stores the server sequences of accepted operations
func (s *service) Sync(ctx context.Context) (*SyncResult, error) {
	if s.transport == nil {
		return nil, ErrNoTransport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.State() == conflict.StateConflictPending {
		return nil, conflict.ErrSyncPaused
	}

	m, err := s.meta.Meta()
	if err != nil {
		return nil, err
	}
	s.logger.Info("Starting synchronization", "last_server_seq", m.LastServerSeq)

	var (
		batch    *api.OperationBatch
		unsynced []*models.Operation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.transport.Fetch(gctx, m.LastServerSeq)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		batch = b
		return nil
	})
	g.Go(func() error {
		ops, err := s.store.LoadUnsynced(gctx)
		if err != nil {
			return fmt.Errorf("failed to load unsynced operations: %w", err)
		}
		unsynced = ops
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	remote, err := FromAPIBatch(batch)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Pulled: len(remote.Ops)}
	applied, err := s.applyRemote(ctx, remote, unsynced)
	if err != nil {
		if req, ok := conflict.AsResolutionRequest(err); ok {
			result.Kind = conflict.KindConflict
			result.Conflict = req
		}
		return result, err
	}
	result.Kind = applied.Kind
	result.Applied = applied.Applied
	result.Duplicates = applied.Duplicates
	result.LastServerSeq = applied.LastServerSeq

	req, err := s.pendingUpload(ctx)
	if err != nil {
		return result, err
	}
	if len(req.Ops) > 0 {
		uploaded, err := s.transport.Upload(ctx, req)
		if err != nil {
			return result, fmt.Errorf("upload failed: %w", err)
		}
		result.Pushed = len(req.Ops)

		acked, err := s.acknowledge(ctx, uploaded)
		if err != nil {
			return result, err
		}
		result.Acked = acked
	}

	if m, err := s.meta.Meta(); err == nil {
		result.LastServerSeq = m.LastServerSeq
	}

	s.logger.Info("Synchronization completed",
		"kind", result.Kind,
		"pulled", result.Pulled,
		"applied", result.Applied,
		"pushed", result.Pushed,
		"acked", result.Acked,
		"last_server_seq", result.LastServerSeq)

	return result, nil
}

// PendingUpload returns the unsynced operations in log order.
func (s *service) PendingUpload(ctx context.Context) (*api.UploadRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.State() == conflict.StateConflictPending {
		return nil, conflict.ErrSyncPaused
	}
	return s.pendingUpload(ctx)
}

func (s *service) pendingUpload(ctx context.Context) (*api.UploadRequest, error) {
	clientID, m, err := s.identity()
	if err != nil {
		return nil, err
	}
	unsynced, err := s.store.LoadUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced operations: %w", err)
	}

	req := &api.UploadRequest{
		ClientID:           clientID,
		Ops:                make([]api.Operation, 0, len(unsynced)),
		LastKnownServerSeq: m.LastServerSeq,
	}
	for _, op := range unsynced {
		req.Ops = append(req.Ops, ToAPIOperation(op))
	}
	return req, nil
}

// Acknowledge stores the server sequences of uploaded operations. Unknown
// ids are skipped. The last known server sequence advances only over a
// contiguous run, so operations of other clients in between are still fetched.
func (s *service) Acknowledge(ctx context.Context, result *api.UploadResult) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acknowledge(ctx, result)
}

func (s *service) acknowledge(ctx context.Context, result *api.UploadResult) (int, error) {
	if result == nil || len(result.Acks) == 0 {
		return 0, nil
	}

	_, m, err := s.identity()
	if err != nil {
		return 0, err
	}
	unsynced, err := s.store.LoadUnsynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load unsynced operations: %w", err)
	}
	byID := make(map[string]*models.Operation, len(unsynced))
	for _, op := range unsynced {
		byID[op.ID] = op
	}

	acks := make(map[string]int64, len(result.Acks))
	uploaded := crdt.VectorClock{}
	for _, ack := range result.Acks {
		op, ok := byID[ack.ID]
		if !ok {
			s.logger.Warn("Acknowledged operation is not pending", "op_id", ack.ID, "server_seq", ack.ServerSeq)
			continue
		}
		acks[ack.ID] = ack.ServerSeq
		uploaded = crdt.Merge(uploaded, op.VectorClock)
	}
	if len(acks) == 0 {
		return 0, nil
	}

	next, err := s.meta.PrepareSynced(uploaded, contiguousSeq(m.LastServerSeq, acks), s.now())
	if err != nil {
		return 0, err
	}

	build, err := s.ackBuilder(ctx, m, unsynced, acks)
	if err != nil {
		return 0, err
	}

	if _, err := s.commit(ctx, &storage.Changeset{
		MarkSynced:    acks,
		Meta:          next,
		BuildSnapshot: build,
	}); err != nil {
		return 0, err
	}

	s.logger.Info("Operations acknowledged",
		"count", len(acks),
		"last_server_seq", next.LastServerSeq)

	return len(acks), nil
}

// ackBuilder сохраняет снапшот без переигрывания, если подтвержденные
// операции остаются на своих местах в порядке применения
func (s *service) ackBuilder(ctx context.Context, m *models.MetaModel, unsynced []*models.Operation, acks map[string]int64) (func([]*models.Operation) (*models.Snapshot, error), error) {
	base, err := s.compactor.Current(ctx)
	if err != nil {
		return nil, err
	}
	if ackKeepsOrder(m.LastServerSeq, unsynced, acks) {
		return storage.StaticSnapshot(compact.Acknowledge(base, acks)), nil
	}

	full, err := s.store.LoadSince(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}
	return s.compactor.ReplayBuilder(withServerSeqs(full, acks)), nil
}

// ackKeepsOrder reports whether acknowledging leaves the replay order intact:
// the acknowledged operations must be the first unsynced ones in replay order,
// with server sequences increasing from lastServerSeq.
func ackKeepsOrder(lastServerSeq int64, unsynced []*models.Operation, acks map[string]int64) bool {
	ordered := slices.Clone(unsynced)
	compact.Sort(ordered)

	if len(acks) > len(ordered) {
		return false
	}

	prev := lastServerSeq
	for _, op := range ordered[:len(acks)] {
		seq, ok := acks[op.ID]
		if !ok || seq <= prev {
			return false
		}
		prev = seq
	}
	return true
}

// contiguousSeq returns the highest sequence reachable from last through
// acknowledged sequences without gaps.
func contiguousSeq(last int64, acks map[string]int64) int64 {
	seqs := make([]int64, 0, len(acks))
	for _, seq := range acks {
		seqs = append(seqs, seq)
	}
	slices.Sort(seqs)

	for _, seq := range seqs {
		switch {
		case seq <= last:
			continue
		case seq == last+1:
			last = seq
		default:
			return last
		}
	}
	return last
}
