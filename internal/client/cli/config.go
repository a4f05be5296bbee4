package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/config"
)

func newConfigCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := s.flags.configPath
			if len(args) == 1 {
				path = args[0]
			}
			return s.cli.runConfigInit(path, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return s.cli.runConfigShow()
		},
	})

	return cmd
}

func (c *Cli) runConfigInit(path string, force bool) error {
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.Write(path, config.DefaultConfig()); err != nil {
		return err
	}
	c.io.Printf("✓ Config written to %s\n", path)
	return nil
}

func (c *Cli) runConfigShow() error {
	if err := toml.NewEncoder(c.io).Encode(c.cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
