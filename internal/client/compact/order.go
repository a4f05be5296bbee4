package compact

import (
	"cmp"
	"slices"

	"github.com/iudanet/opsync/internal/models"
)

// KeyOf возвращает позицию op в порядке переигрывания
func KeyOf(op *models.Operation) models.OrderKey {
	key := models.OrderKey{
		ClientID:  op.ClientID,
		ID:        op.ID,
		ClockSum:  op.VectorClock.Sum(),
		Timestamp: op.Timestamp,
	}
	if op.ServerSeq != nil {
		v := *op.ServerSeq
		key.ServerSeq = &v
	}
	return key
}

// Compare упорядочивает два ключа переигрывания. Сначала идут принятые
// сервером операции в порядке сервера, затем несинхронизированные по сумме
// часов, которая продолжает причинный порядок. Оставшиеся равенства решают
// время, id клиента и id операции, поэтому порядок полный.
func Compare(a, b models.OrderKey) int {
	switch {
	case a.ServerSeq != nil && b.ServerSeq != nil:
		if c := cmp.Compare(*a.ServerSeq, *b.ServerSeq); c != 0 {
			return c
		}
	case a.ServerSeq != nil:
		return -1
	case b.ServerSeq != nil:
		return 1
	}

	if c := cmp.Compare(a.ClockSum, b.ClockSum); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ClientID, b.ClientID); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort сортирует ops на месте в порядке переигрывания
func Sort(ops []*models.Operation) {
	slices.SortFunc(ops, func(a, b *models.Operation) int {
		return Compare(KeyOf(a), KeyOf(b))
	})
}
