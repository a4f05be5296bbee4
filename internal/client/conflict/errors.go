package conflict

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition недопустимый переход конечного автомата
	ErrInvalidTransition = errors.New("invalid conflict state transition")

	// ErrSyncPaused синхронизация приостановлена до разрешения конфликта
	ErrSyncPaused = errors.New("sync is paused until the pending conflict is resolved")

	// ErrNoPendingConflict нет конфликта, который можно разрешить
	ErrNoPendingConflict = errors.New("no pending conflict")

	// ErrUnknownResolution неизвестное решение конфликта
	ErrUnknownResolution = errors.New("unknown conflict resolution")
)

// ConflictRequiresResolutionError не ошибка в обычном смысле: автоматическая
// синхронизация остановлена и ждет решения пользователя или политики.
type ConflictRequiresResolutionError struct {
	Request *Request
}

func (e *ConflictRequiresResolutionError) Error() string {
	return fmt.Sprintf("conflict requires resolution: %s (%d local ops, %d remote ops)",
		e.Request.Reason, e.Request.Local.OperationCount, e.Request.Remote.OperationCount)
}

// AsResolutionRequest extracts the pending request from err, if any.
func AsResolutionRequest(err error) (*Request, bool) {
	var target *ConflictRequiresResolutionError
	if errors.As(err, &target) {
		return target.Request, true
	}
	return nil, false
}
