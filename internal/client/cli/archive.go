package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newArchiveCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage archived tasks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <task-id>...",
		Short: "Remove tasks from the state and move them to the archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runArchiveAdd(cmd.Context(), args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Move old entries from the young archive to the old archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runArchiveFlush(cmd.Context())
		},
	})

	return cmd
}

func (c *Cli) runArchiveAdd(ctx context.Context, ids []string) error {
	n, err := c.service.ArchiveTasks(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to archive tasks: %w", err)
	}
	c.io.Printf("✓ Archived %d task(s)\n", n)
	return nil
}

func (c *Cli) runArchiveFlush(ctx context.Context) error {
	stats, err := c.service.FlushArchive(ctx)
	if err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	if !stats.Moved() {
		c.io.Println("Nothing to flush")
		return nil
	}
	c.io.Printf("✓ Moved %d task(s) and %d time tracking day(s) to the old archive\n",
		stats.TasksMoved, stats.DaysMoved)
	return nil
}
