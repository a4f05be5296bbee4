package conflict

import (
	"log/slog"
	"sort"

	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
)

// Kind итог классификации удаленного батча.
type Kind string

const (
	KindNoop          Kind = "NOOP"           // нечего применять
	KindEqual         Kind = "EQUAL"          // удаленная история уже известна
	KindFastForward   Kind = "FAST_FORWARD"   // локальная история предок удаленной
	KindLocalAhead    Kind = "LOCAL_AHEAD"    // удаленная история предок локальной
	KindMerge         Kind = "MERGE"          // параллельно, но разные сущности
	KindAdoptSnapshot Kind = "ADOPT_SNAPSHOT" // замена снапшота без локальных изменений
	KindConflict      Kind = "CONFLICT"
	KindSuppressed    Kind = "SUPPRESSED" // повтор только что разрешенного конфликта
)

// Batch удаленные операции, полученные от транспорта.
type Batch struct {
	Ops             []*models.Operation
	LatestServerSeq int64
}

// Latest returns the server sequence the batch is known up to: the reported
// latest sequence or the highest operation sequence, whichever is greater.
func (b Batch) Latest() int64 {
	latest := b.LatestServerSeq
	for _, op := range b.Ops {
		if op.ServerSeq != nil {
			latest = max(latest, *op.ServerSeq)
		}
	}
	return latest
}

// Input всё, что нужно детектору. Детектор ничего не изменяет.
type Input struct {
	Meta     *models.MetaModel
	ClientID string
	Unsynced []*models.Operation
	Remote   Batch
}

// Outcome результат классификации.
type Outcome struct {
	RemoteClock         crdt.VectorClock
	Request             *Request
	Kind                Kind
	Relation            crdt.Relation
	SnapshotReplacement bool
}

// IsConflict reports whether the outcome needs a decision.
func (o Outcome) IsConflict() bool {
	return o.Kind == KindConflict
}

// Detector классифицирует отношение локальной и удаленной истории.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a detector.
func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logger}
}

// Classify decides how a remote batch relates to local state.
//
// A sequence discontinuity or a foreign SYNC_IMPORT means another device may
// have replaced history with a snapshot; it is never merged silently. Without
// one, the vector clocks decide, and concurrent histories conflict only when
// both sides touched the same entity.
func (d *Detector) Classify(in Input) Outcome {
	remoteClock := crdt.VectorClock{}
	for _, op := range in.Remote.Ops {
		remoteClock = crdt.Merge(remoteClock, op.VectorClock)
	}

	if d.isSnapshotReplacement(in) {
		return d.classifyReplacement(in, remoteClock)
	}

	if len(in.Remote.Ops) == 0 {
		return Outcome{Kind: KindNoop, Relation: crdt.Equal, RemoteClock: remoteClock}
	}

	head := crdt.Merge(in.Meta.LastSyncedVectorClock, remoteClock)
	rel := crdt.Compare(in.Meta.VectorClock, head)
	out := Outcome{Relation: rel, RemoteClock: remoteClock}

	switch rel {
	case crdt.Equal:
		out.Kind = KindEqual
	case crdt.LessThan:
		out.Kind = KindFastForward
	case crdt.GreaterThan:
		out.Kind = KindLocalAhead
	default:
		entities := overlappingEntities(in.Unsynced, in.Remote.Ops)
		if len(entities) == 0 {
			out.Kind = KindMerge
			break
		}
		out.Kind = KindConflict
		out.Request = newRequest(ReasonConcurrent, in, remoteClock, entities)
	}

	d.logger.Debug("Classified remote batch",
		"kind", out.Kind,
		"relation", rel,
		"remote_ops", len(in.Remote.Ops),
		"unsynced_ops", len(in.Unsynced),
		"local_clock", in.Meta.VectorClock.String(),
		"remote_clock", head.String())

	return out
}

// isSnapshotReplacement ищет разрыв последовательности или чужой SYNC_IMPORT
func (d *Detector) isSnapshotReplacement(in Input) bool {
	last := in.Meta.LastServerSeq

	if latest := in.Remote.Latest(); latest < last {
		d.logger.Warn("Remote sequence counter went backwards",
			"latest_server_seq", latest,
			"last_server_seq", last)
		return true
	}

	first := int64(-1)
	for _, op := range in.Remote.Ops {
		if op.OpType == models.OpSyncImport && op.ClientID != in.ClientID {
			d.logger.Info("Remote batch carries a full-state import",
				"op_id", op.ID,
				"client_id", op.ClientID)
			return true
		}
		if op.ServerSeq != nil && (first < 0 || *op.ServerSeq < first) {
			first = *op.ServerSeq
		}
	}

	if first > last+1 {
		d.logger.Warn("Remote batch skips sequence numbers",
			"first_server_seq", first,
			"last_server_seq", last)
		return true
	}

	return false
}

func (d *Detector) classifyReplacement(in Input, remoteClock crdt.VectorClock) Outcome {
	rel := crdt.Compare(in.Meta.VectorClock, remoteClock)
	out := Outcome{
		Relation:            rel,
		RemoteClock:         remoteClock,
		SnapshotReplacement: true,
	}

	if len(in.Unsynced) == 0 && len(in.Remote.Ops) > 0 && (rel == crdt.LessThan || rel == crdt.Equal) {
		out.Kind = KindAdoptSnapshot
		return out
	}

	out.Kind = KindConflict
	out.Request = newRequest(ReasonSnapshotReplacement, in, remoteClock, overlappingEntities(in.Unsynced, in.Remote.Ops))
	return out
}

func newRequest(reason Reason, in Input, remoteClock crdt.VectorClock, entities []EntityRef) *Request {
	return &Request{
		Reason:              reason,
		Local:               localCandidate(in.Meta, in.Unsynced),
		Remote:              remoteCandidate(in.Remote.Ops),
		ConflictingEntities: entities,
		RemoteClock:         remoteClock.Clone(),
		RemoteOps:           in.Remote.Ops,
		LatestServerSeq:     in.Remote.Latest(),
	}
}

// overlappingEntities возвращает сущности, которые изменили обе стороны
// с параллельными часами. Эхо собственных операций пропускается.
func overlappingEntities(local, remote []*models.Operation) []EntityRef {
	if len(local) == 0 {
		return nil
	}

	localIDs := make(map[string]struct{}, len(local))
	byEntity := make(map[EntityRef][]*models.Operation)
	var localImports []*models.Operation
	for _, op := range local {
		localIDs[op.ID] = struct{}{}
		if op.OpType == models.OpSyncImport {
			localImports = append(localImports, op)
			continue
		}
		ref := refOf(op)
		byEntity[ref] = append(byEntity[ref], op)
	}

	found := make(map[EntityRef]struct{})
	for _, r := range remote {
		if _, echo := localIDs[r.ID]; echo {
			continue
		}

		var candidates []*models.Operation
		if r.OpType == models.OpSyncImport || len(localImports) > 0 {
			// полная замена состояния пересекается со всем
			candidates = local
		} else {
			candidates = byEntity[refOf(r)]
		}

		for _, l := range candidates {
			if crdt.Compare(l.VectorClock, r.VectorClock) == crdt.Concurrent {
				found[refOf(r)] = struct{}{}
				break
			}
		}
	}

	out := make([]EntityRef, 0, len(found))
	for ref := range found {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func refOf(op *models.Operation) EntityRef {
	return EntityRef{Type: op.EntityType, ID: op.EntityID}
}
