package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/client/conflict"
)

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show client identity and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runStatus(cmd.Context())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	st, err := c.service.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	c.io.Println("=== Sync Status ===")
	c.io.Println()
	c.io.Printf("Client ID:        %s\n", st.ClientID)
	c.io.Printf("State:            %s\n", st.SyncState)
	c.io.Printf("Vector clock:     %s\n", st.VectorClock)
	c.io.Printf("Last synced:      %s\n", st.LastSyncedVectorClock)
	c.io.Printf("Local changes:    %s\n", yesNo(st.LocalChanges))
	c.io.Printf("Last server seq:  %d\n", st.LastServerSeq)
	c.io.Println()
	c.io.Printf("Operations:       %d (last seq %d)\n", st.Operations, st.LastSeq)
	c.io.Printf("Snapshot seq:     %d\n", st.SnapshotSeq)
	c.io.Printf("Entities:         %d\n", st.Entities)

	if st.HasImportBackup {
		c.io.Println("Import backup:    available (run 'opsync restore-backup' to roll back)")
	}

	c.io.Println()
	if st.Unsynced > 0 {
		c.io.Printf("Pending upload: %d operation(s) waiting to be synchronized\n", st.Unsynced)
	} else {
		c.io.Println("All local operations are synchronized")
	}

	if st.Pending != nil {
		c.io.Println()
		c.printConflict(st.Pending)
	}

	return nil
}

// printConflict выводит сведения о конфликте, ожидающем решения
func (c *Cli) printConflict(req *conflict.Request) {
	c.io.Printf("Conflict: %s\n", req.Reason)
	if len(req.ConflictingEntities) > 0 {
		refs := make([]string, 0, len(req.ConflictingEntities))
		for _, ref := range req.ConflictingEntities {
			refs = append(refs, ref.String())
		}
		c.io.Printf("  Entities: %s\n", strings.Join(refs, ", "))
	}
	c.io.Printf("  Local:  %d operation(s) from %d client(s), last change %d\n",
		req.Local.OperationCount, req.Local.ClientCount, req.Local.Timestamp)
	c.io.Printf("  Remote: %d operation(s) from %d client(s), last change %d\n",
		req.Remote.OperationCount, req.Remote.ClientCount, req.Remote.Timestamp)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
