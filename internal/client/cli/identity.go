package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newIdentityCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Manage the client identity",
	}

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Replace the client id of this device",
		Long: `Replace the client id of this device.

Use this after restoring the database on another device: two devices with
the same client id would corrupt each other's vector clocks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runIdentityReset(cmd.Context(), yes)
		},
	}
	reset.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(reset)

	return cmd
}

func (c *Cli) runIdentityReset(ctx context.Context, yes bool) error {
	if !yes {
		answer, err := c.io.ReadInput("Replace the client id of this device? [y/N] ")
		if err != nil {
			return fmt.Errorf("failed to read answer: %w", err)
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			c.io.Println("Cancelled")
			return nil
		}
	}

	id, err := c.service.ResetIdentity(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset identity: %w", err)
	}
	c.io.Printf("✓ New client id: %s\n", id)
	return nil
}
