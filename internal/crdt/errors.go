package crdt

import (
	"errors"
	"fmt"
)

// ErrInvalidClientID пустой или слишком короткий идентификатор клиента в операции над часами
var ErrInvalidClientID = errors.New("invalid client id for vector clock")

// VectorClockOverflowError счетчик клиента достиг предела безопасного целого.
// Сброс счетчика сделал бы новые операции старше прежних, поэтому остается
// только полный повторный импорт.
type VectorClockOverflowError struct {
	ClientID string
	Value    int64
}

func (e *VectorClockOverflowError) Error() string {
	return fmt.Sprintf("vector clock overflow for client %s at %d: full resync required", e.ClientID, e.Value)
}
