package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/backup"
)

func newImportCmd(s *session) *cobra.Command {
	var passwords Passwords
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace local state with a backup file",
		Long: `Replace local state with a backup file.

Legacy backups are migrated and validated first. The replaced state is kept
and can be brought back with 'opsync restore-backup'. Encrypted backups ask
for the password unless OPSYNC_BACKUP_PASSWORD or --password-file is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.cli.runImport(cmd.Context(), args[0], passwords)
		},
	}
	cmd.Flags().StringVar(&passwords.FromFile, "password-file", "", "read the backup password from file")
	return cmd
}

func (c *Cli) runImport(ctx context.Context, path string, passwords Passwords) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var password string
	if backup.IsEncrypted(raw) {
		password, err = c.getPassword(passwords, false)
		if err != nil {
			return err
		}
	}

	doc, err := backup.Decode(raw, password)
	if err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	res, err := c.service.ImportBackup(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}

	c.io.Printf("✓ Backup imported: %d entities\n", res.Entities)
	if res.Report.Legacy {
		c.io.Println("  Legacy format migrated")
	}
	if res.Report.Repaired {
		c.io.Println("  Inconsistent data repaired")
	}
	c.io.Println("Run 'opsync restore-backup' to return to the previous state.")
	return nil
}

// exportFlags параметры команды export
type exportFlags struct {
	passwords Passwords
	encrypt   bool
	plain     bool
}

func newExportCmd(s *session) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write current state and archives to a backup file",
		Long: `Write current state and archives to a backup file.

Use "-" to write to stdout. Compression and encryption default to the
[backup] section of the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("encrypt") {
				f.encrypt = s.cli.cfg.Backup.Encrypt
			}
			return s.cli.runExport(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().BoolVar(&f.encrypt, "encrypt", false, "encrypt the backup with a password")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "write plain JSON without compression or encryption")
	cmd.Flags().StringVar(&f.passwords.FromFile, "password-file", "", "read the backup password from file")
	cmd.MarkFlagsMutuallyExclusive("encrypt", "plain")
	return cmd
}

func (c *Cli) runExport(ctx context.Context, path string, f exportFlags) error {
	doc, err := c.service.Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export state: %w", err)
	}

	opts := backup.Options{Compress: c.cfg.Backup.Compress && !f.plain}
	if f.encrypt && !f.plain {
		opts.Password, err = c.getPassword(f.passwords, true)
		if err != nil {
			return err
		}
	}

	container := opts.Compress || opts.Password != ""
	if path == "-" {
		data := doc
		if container {
			if data, err = backup.Encode(doc, opts); err != nil {
				return fmt.Errorf("failed to encode backup: %w", err)
			}
		}
		_, err := c.io.Write(data)
		return err
	}

	if container {
		err = backup.WriteFile(path, doc, opts)
	} else {
		err = os.WriteFile(path, doc, 0o600)
	}
	if err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	c.io.Printf("✓ Backup written to %s\n", path)
	return nil
}

func newRestoreBackupCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "restore-backup",
		Short: "Return to the state saved before the last import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.cli.runRestoreBackup(cmd.Context())
		},
	}
}

func (c *Cli) runRestoreBackup(ctx context.Context) error {
	op, err := c.service.RestoreImportBackup(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore import backup: %w", err)
	}
	c.io.Printf("✓ Previous state restored (op %s)\n", op.ID)
	return nil
}
