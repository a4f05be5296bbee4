package storage

import (
	"errors"
	"fmt"
)

// Common client storage errors
var (
	// ErrOperationNotFound indicates that operation was not found in the log
	ErrOperationNotFound = errors.New("operation not found")

	// ErrClientIDNotFound indicates that no client id was persisted yet
	ErrClientIDNotFound = errors.New("client id not found")

	// ErrMetaNotFound indicates that no meta model was persisted yet
	ErrMetaNotFound = errors.New("meta model not found")

	// ErrSnapshotNotFound indicates that no snapshot was persisted yet
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrImportBackupNotFound indicates that there is no pre-import backup
	ErrImportBackupNotFound = errors.New("import backup not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)

// DuplicateOperationError возвращается при попытке добавить операцию с уже существующим id.
// Ожидаемая ситуация при гонках: вызывающий код ловит ее и логирует.
type DuplicateOperationError struct {
	ID string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("operation %s already exists", e.ID)
}

// StorageOpenError возвращается, когда хранилище не удалось открыть за все попытки.
type StorageOpenError struct {
	Err      error
	Path     string
	Attempts int
}

func (e *StorageOpenError) Error() string {
	return fmt.Sprintf("failed to open storage %s after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *StorageOpenError) Unwrap() error {
	return e.Err
}

// IsDuplicate reports whether err is a *DuplicateOperationError.
func IsDuplicate(err error) bool {
	var dup *DuplicateOperationError
	return errors.As(err, &dup)
}
