package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/client/sync"
	"github.com/iudanet/opsync/internal/models"
)

func newStateCmd(s *session) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the materialized application state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runState(cmd.Context(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (c *Cli) runState(ctx context.Context, output string) error {
	snap, err := c.service.State(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	return c.writeJSON(output, snap.State)
}

func newRebuildCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Replay the whole operation log into a new snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runRebuild(cmd.Context())
		},
	}
}

func (c *Cli) runRebuild(ctx context.Context) error {
	snap, err := c.service.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild snapshot: %w", err)
	}
	c.io.Printf("✓ Snapshot rebuilt: %d entities, last applied seq %d\n",
		snap.State.EntityCount(), snap.LastAppliedOpSeq)
	return nil
}

// recordFlags параметры команды record
type recordFlags struct {
	op      string
	entity  string
	id      string
	payload string
	action  string
}

func newRecordCmd(s *session) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append a local change to the operation log",
		Long: `Append a local change to the operation log.

Examples:
  opsync record --op create --entity TASK --id t1 --payload '{"title":"Buy milk"}'
  opsync record --op update --entity TASK --id t1 --payload '{"isDone":true}'
  opsync record --op delete --entity TASK --id t1
  opsync record --op update --entity GLOBAL_CONFIG --payload '{"lang":"en"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runRecord(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.op, "op", "", "operation: create, update or delete")
	cmd.Flags().StringVar(&f.entity, "entity", "", "entity type, e.g. TASK or GLOBAL_CONFIG")
	cmd.Flags().StringVar(&f.id, "id", "", "entity id (empty for singletons)")
	cmd.Flags().StringVar(&f.payload, "payload", "", "JSON payload")
	cmd.Flags().StringVar(&f.action, "action", "", "domain action name")
	_ = cmd.MarkFlagRequired("op")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func (c *Cli) runRecord(ctx context.Context, f recordFlags) error {
	opType, err := parseOpType(f.op)
	if err != nil {
		return err
	}
	entity := models.EntityType(strings.ToUpper(f.entity))

	payload := json.RawMessage(f.payload)
	if opType == models.OpDelete && f.payload == "" {
		payload = nil
	}

	action := f.action
	if action == "" {
		action = fmt.Sprintf("[%s] %s", entity, opType)
	}

	op, err := c.service.RecordLocal(ctx, sync.LocalChange{
		ActionType: action,
		OpType:     opType,
		EntityType: entity,
		EntityID:   f.id,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}

	c.io.Printf("✓ Recorded %s %s (op %s, clock %s)\n", op.OpType, entity, op.ID, op.VectorClock)
	return nil
}

// parseOpType принимает как короткие коды операций, так и полные имена
func parseOpType(s string) (models.OpType, error) {
	switch strings.ToLower(s) {
	case "create", "crt":
		return models.OpCreate, nil
	case "update", "upd":
		return models.OpUpdate, nil
	case "delete", "del":
		return models.OpDelete, nil
	default:
		return "", fmt.Errorf("unknown operation %q: use create, update or delete", s)
	}
}
