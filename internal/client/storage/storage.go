package storage

import (
	"context"

	"github.com/iudanet/opsync/internal/models"
)

//go:generate moq -out oplog_mock.go . OpLogStorage

// OpLogStorage append-only лог операций с уникальными id.
type OpLogStorage interface {
	// Append adds op to the log and assigns its local Seq.
	// Returns *DuplicateOperationError if an operation with the same id exists.
	Append(ctx context.Context, op *models.Operation, source models.OpSource) error

	// LoadSince returns operations with Seq > seq ordered by Seq
	LoadSince(ctx context.Context, seq int64) ([]*models.Operation, error)

	// LoadUnsynced returns operations without a server sequence ordered by Seq
	LoadUnsynced(ctx context.Context) ([]*models.Operation, error)

	// GetOperation returns ErrOperationNotFound if the id is unknown
	GetOperation(ctx context.Context, id string) (*models.Operation, error)

	// GetLastSeq returns the Seq of the most recently appended operation, 0 for an empty log
	GetLastSeq(ctx context.Context) (int64, error)

	CountOperations(ctx context.Context) (int, error)

	// ClearAll removes every operation. Used only when an import replaces the log.
	ClearAll(ctx context.Context) error

	SaveImportBackup(ctx context.Context, snapshot *models.Snapshot) error

	// LoadImportBackup returns ErrImportBackupNotFound if nothing was saved
	LoadImportBackup(ctx context.Context) (*models.Snapshot, error)
}

//go:generate moq -out meta_mock.go . MetaStorage

// MetaStorage хранит идентификатор клиента и мета-модель.
type MetaStorage interface {
	// GetClientID returns ErrClientIDNotFound if no id was saved
	GetClientID(ctx context.Context) (string, error)
	SaveClientID(ctx context.Context, clientID string) error

	// GetMeta returns ErrMetaNotFound if no meta model was saved
	GetMeta(ctx context.Context) (*models.MetaModel, error)
	SaveMeta(ctx context.Context, meta *models.MetaModel) error
}

//go:generate moq -out snapshot_mock.go . SnapshotStorage

// SnapshotStorage кеш материализованного состояния.
type SnapshotStorage interface {
	// LoadSnapshot returns ErrSnapshotNotFound if no snapshot was saved
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
}

//go:generate moq -out archive_mock.go . ArchiveStorage

// ArchiveStorage хранит пару архивов young/old.
type ArchiveStorage interface {
	// LoadArchives returns empty archives when nothing was saved
	LoadArchives(ctx context.Context) (young, old *models.Archive, err error)

	// SaveArchives writes both archives in one transaction
	SaveArchives(ctx context.Context, young, old *models.Archive) error
}

// Storage объединяет все хранилища клиента и атомарный Commit.
type Storage interface {
	OpLogStorage
	MetaStorage
	SnapshotStorage
	ArchiveStorage

	// Commit applies the changeset in a single transaction
	Commit(ctx context.Context, cs *Changeset) (*CommitResult, error)

	Close() error
}
