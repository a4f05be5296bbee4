package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/client/conflict"
	"github.com/iudanet/opsync/internal/client/sync"
	"github.com/iudanet/opsync/internal/config"
	"github.com/iudanet/opsync/pkg/api"
)

func newApplyCmd(s *session) *cobra.Command {
	var f applyFlags
	cmd := &cobra.Command{
		Use:   "apply <batch.json>",
		Short: "Apply a batch of remote operations",
		Long: `Apply a batch of remote operations fetched from the server.

When the batch conflicts with local changes the conflict policy decides:
  ask     prompt for local or remote (default, from config)
  local   keep local changes and publish them over the remote ones
  remote  discard unsynced local changes and adopt the remote history`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("policy") {
				f.policy = s.cli.cfg.Sync.ConflictPolicy
			}
			return s.cli.runApply(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.policy, "policy", config.PolicyAsk, "conflict policy: ask, local or remote")
	cmd.Flags().BoolVar(&f.resetClock, "reset-clock", false, "with local resolution, restart the vector clock from this client")
	cmd.Flags().StringVar(&f.conflictOut, "conflict-out", "", "write the conflict description as JSON to this file")
	return cmd
}

// applyFlags параметры команды apply
type applyFlags struct {
	policy      string
	resetClock  bool
	conflictOut string
}

func (c *Cli) runApply(ctx context.Context, path string, f applyFlags) error {
	var batch api.OperationBatch
	if err := readJSON(path, &batch); err != nil {
		return err
	}

	res, err := c.service.ApplyRemote(ctx, &batch)
	if err == nil {
		c.printResult(res)
		return nil
	}
	req, ok := conflict.AsResolutionRequest(err)
	if !ok {
		return fmt.Errorf("failed to apply batch: %w", err)
	}

	c.printConflict(req)
	if f.conflictOut != "" {
		if err := c.writeJSON(f.conflictOut, sync.ToAPIConflict(req)); err != nil {
			return err
		}
	}

	resolution, err := c.choose(f.policy)
	if err != nil {
		return err
	}
	return c.resolve(ctx, conflict.Decision{Resolution: resolution, ResetClock: f.resetClock})
}

// choose возвращает решение по политике или спрашивает пользователя
func (c *Cli) choose(policy string) (conflict.Resolution, error) {
	switch policy {
	case config.PolicyLocal:
		return conflict.UseLocal, nil
	case config.PolicyRemote:
		return conflict.UseRemote, nil
	case config.PolicyAsk, "":
	default:
		return "", fmt.Errorf("unknown conflict policy %q", policy)
	}

	for {
		answer, err := c.io.ReadInput("Keep [l]ocal or [r]emote changes? ")
		if err != nil {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
		switch strings.ToLower(answer) {
		case "l", "local":
			return conflict.UseLocal, nil
		case "r", "remote":
			return conflict.UseRemote, nil
		}
		c.io.Println("Please answer 'local' or 'remote'.")
	}
}

func newResolveCmd(s *session) *cobra.Command {
	var resetClock bool
	cmd := &cobra.Command{
		Use:   "resolve <batch.json> <local|remote>",
		Short: "Apply a remote batch and resolve its conflict",
		Long: `Apply a remote batch and resolve the conflict it causes.

The pending conflict lives only for the current process, so the batch that
caused it is applied again before the decision.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runResolve(cmd.Context(), args[0], args[1], resetClock)
		},
	}
	cmd.Flags().BoolVar(&resetClock, "reset-clock", false, "with local resolution, restart the vector clock from this client")
	return cmd
}

func (c *Cli) runResolve(ctx context.Context, path, choice string, resetClock bool) error {
	resolution, err := conflict.ParseResolution(choice)
	if err != nil {
		return err
	}

	var batch api.OperationBatch
	if err := readJSON(path, &batch); err != nil {
		return err
	}

	res, err := c.service.ApplyRemote(ctx, &batch)
	if err == nil {
		c.io.Println("No conflict: batch applied")
		c.printResult(res)
		return nil
	}
	if !sync.IsConflict(err) {
		return fmt.Errorf("failed to apply batch: %w", err)
	}

	return c.resolve(ctx, conflict.Decision{Resolution: resolution, ResetClock: resetClock})
}

func (c *Cli) resolve(ctx context.Context, decision conflict.Decision) error {
	res, err := c.service.Resolve(ctx, decision)
	if err != nil {
		if errors.Is(err, conflict.ErrNoPendingConflict) {
			return fmt.Errorf("nothing to resolve: %w", err)
		}
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}
	c.io.Printf("✓ Conflict resolved: %s\n", decision.Resolution)
	c.printResult(res)
	return nil
}

func (c *Cli) printResult(res *sync.Result) {
	c.io.Printf("Outcome:          %s\n", res.Kind)
	c.io.Printf("Applied:          %d\n", res.Applied)
	if res.Duplicates > 0 {
		c.io.Printf("Duplicates:       %d\n", res.Duplicates)
	}
	if res.Discarded > 0 {
		c.io.Printf("Discarded local:  %d\n", res.Discarded)
	}
	c.io.Printf("Last server seq:  %d\n", res.LastServerSeq)
}

func newPendingCmd(s *session) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Print unsynced operations as an upload request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runPending(cmd.Context(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (c *Cli) runPending(ctx context.Context, output string) error {
	req, err := c.service.PendingUpload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending operations: %w", err)
	}
	return c.writeJSON(output, req)
}

func newAckCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <result.json>",
		Short: "Store server sequences from an upload result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runAck(cmd.Context(), args[0])
		},
	}
}

func (c *Cli) runAck(ctx context.Context, path string) error {
	var result api.UploadResult
	if err := readJSON(path, &result); err != nil {
		return err
	}

	n, err := c.service.Acknowledge(ctx, &result)
	if err != nil {
		return fmt.Errorf("failed to acknowledge operations: %w", err)
	}
	c.io.Printf("✓ Acknowledged %d of %d operation(s)\n", n, len(result.Acks))
	return nil
}
