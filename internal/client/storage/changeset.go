package storage

import (
	"github.com/iudanet/opsync/internal/models"
)

// ArchivePair young и old архивы, которые всегда пишутся вместе.
type ArchivePair struct {
	Young *models.Archive
	Old   *models.Archive
}

// Changeset describes every write of one logical step. Commit applies the
// parts inside a single transaction in this order: log clear, deletions,
// appends, server sequence acknowledgements, client id, meta, snapshot,
// archives, import backup. Either all of them are persisted or none.
type Changeset struct {
	// BuildSnapshot is called inside the transaction after the log changes,
	// with the operations appended by this commit (Seq assigned). A nil
	// result leaves the stored snapshot untouched.
	BuildSnapshot func(appended []*models.Operation) (*models.Snapshot, error)

	MarkSynced   map[string]int64 // id операции -> serverSeq
	Meta         *models.MetaModel
	Archives     *ArchivePair
	ImportBackup *models.Snapshot

	ClientID    string
	DeleteOpIDs []string
	Append      []*models.Operation

	ClearLog bool

	// SkipDuplicates skips operations whose id already exists instead of
	// failing the commit. A skipped local copy without a server sequence
	// takes the incoming one.
	SkipDuplicates bool
}

// CommitResult итог применения Changeset.
type CommitResult struct {
	Snapshot   *models.Snapshot
	Appended   []*models.Operation
	Duplicates []string
	LastSeq    int64
}

// StaticSnapshot returns a BuildSnapshot func that always yields snap.
func StaticSnapshot(snap *models.Snapshot) func([]*models.Operation) (*models.Snapshot, error) {
	return func([]*models.Operation) (*models.Snapshot, error) {
		return snap, nil
	}
}

// IsEmpty reports whether the changeset has nothing to write.
func (cs *Changeset) IsEmpty() bool {
	return !cs.ClearLog &&
		len(cs.DeleteOpIDs) == 0 &&
		len(cs.Append) == 0 &&
		len(cs.MarkSynced) == 0 &&
		cs.Meta == nil &&
		cs.BuildSnapshot == nil &&
		cs.Archives == nil &&
		cs.ImportBackup == nil &&
		cs.ClientID == ""
}
