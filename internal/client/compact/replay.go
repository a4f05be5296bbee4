package compact

import (
	"slices"

	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
)

// Replay сворачивает ops в пустое состояние в порядке переигрывания.
// Результат, кроме CompactedAt, зависит только от ops.
func Replay(ops []*models.Operation, now int64) (*models.Snapshot, error) {
	ordered := slices.Clone(ops)
	Sort(ordered)

	snap := models.NewSnapshot()
	if err := fold(snap, ordered); err != nil {
		return nil, err
	}
	snap.CompactedAt = now
	return snap, nil
}

// Advance сворачивает операции с Seq > snap.LastAppliedOpSeq в копию snap.
// Если одна из них встает раньше последней примененной, возвращает false без
// снапшота: тогда верный результат дает только полное переигрывание.
func Advance(snap *models.Snapshot, ops []*models.Operation, now int64) (*models.Snapshot, bool, error) {
	fresh := make([]*models.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Seq > snap.LastAppliedOpSeq {
			fresh = append(fresh, op)
		}
	}
	Sort(fresh)

	if len(fresh) > 0 && snap.LastAppliedOrder != nil &&
		Compare(KeyOf(fresh[0]), *snap.LastAppliedOrder) <= 0 {
		return nil, false, nil
	}

	next := snap.Clone()
	if next.State == nil {
		next.State = models.NewAppState()
	}
	if err := fold(next, fresh); err != nil {
		return nil, false, err
	}
	next.CompactedAt = now
	return next, true, nil
}

// Acknowledge возвращает копию snap, в позиции последней примененной операции
// которой учтены номера сервера, выданные уже примененным операциям.
func Acknowledge(snap *models.Snapshot, acks map[string]int64) *models.Snapshot {
	next := snap.Clone()
	if next.LastAppliedOrder == nil {
		return next
	}
	if seq, ok := acks[next.LastAppliedOrder.ID]; ok {
		next.LastAppliedOrder.ServerSeq = &seq
	}
	return next
}

func fold(snap *models.Snapshot, ordered []*models.Operation) error {
	for _, op := range ordered {
		if err := apply(snap.State, op); err != nil {
			return err
		}
		snap.VectorClock = crdt.Merge(snap.VectorClock, op.VectorClock)
		snap.LastAppliedOpSeq = max(snap.LastAppliedOpSeq, op.Seq)
		key := KeyOf(op)
		snap.LastAppliedOrder = &key
	}
	return nil
}
