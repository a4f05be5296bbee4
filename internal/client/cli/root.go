package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/iudanet/opsync/internal/client/iocli"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/client/storage/boltdb"
	"github.com/iudanet/opsync/internal/client/storage/sqlite"
	"github.com/iudanet/opsync/internal/client/sync"
	"github.com/iudanet/opsync/internal/config"
	"github.com/iudanet/opsync/internal/logging"
	"github.com/iudanet/opsync/internal/metrics"
)

// rootFlags глобальные флаги команды
type rootFlags struct {
	configPath  string
	dbPath      string
	backend     string
	logLevel    string
	showMetrics bool
}

// session ресурсы, открытые в PersistentPreRunE и закрываемые после команды
type session struct {
	flags    rootFlags
	in       io.Reader
	out      io.Writer
	cfg      *config.Config
	cli      *Cli
	store    storage.Storage
	registry *prometheus.Registry
	closers  []io.Closer
}

// skipStorageCommands команды, которым не нужна локальная база
var skipStorageCommands = map[string]bool{
	"opsync config init": true,
	"opsync config show": true,
}

// Execute runs the command line with args and releases everything the
// command opened, even when it fails.
func Execute(ctx context.Context, version string, args []string, in io.Reader, out io.Writer) (err error) {
	s := &session{in: in, out: out}
	cmd := newRootCmd(s, version)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)

	defer func() {
		err = multierr.Append(err, s.close())
	}()

	return cmd.ExecuteContext(ctx)
}

func newRootCmd(s *session, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "opsync",
		Short:         "Local-first operation log sync engine",
		Long:          "Keeps a local operation log, applies remote batches and resolves conflicts between devices.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&s.flags.configPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&s.flags.dbPath, "db", "", "path to local database")
	cmd.PersistentFlags().StringVar(&s.flags.backend, "backend", "", "storage backend: bolt or sqlite")
	cmd.PersistentFlags().StringVar(&s.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&s.flags.showMetrics, "metrics", false, "print engine counters after the command")

	cmd.AddCommand(newStatusCmd(s))
	cmd.AddCommand(newStateCmd(s))
	cmd.AddCommand(newRebuildCmd(s))
	cmd.AddCommand(newRecordCmd(s))
	cmd.AddCommand(newApplyCmd(s))
	cmd.AddCommand(newResolveCmd(s))
	cmd.AddCommand(newPendingCmd(s))
	cmd.AddCommand(newAckCmd(s))
	cmd.AddCommand(newImportCmd(s))
	cmd.AddCommand(newExportCmd(s))
	cmd.AddCommand(newRestoreBackupCmd(s))
	cmd.AddCommand(newArchiveCmd(s))
	cmd.AddCommand(newIdentityCmd(s))
	cmd.AddCommand(newConfigCmd(s))

	return cmd
}

// open resolves the configuration, builds the logger and opens the service.
func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Resolve(config.ReadEnvOverrides(), config.CLIOverrides{
		ConfigPath: s.flags.configPath,
		DBPath:     s.flags.dbPath,
		Backend:    s.flags.backend,
		LogLevel:   s.flags.logLevel,
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	s.cfg = cfg

	stdio := iocli.NewStdio(s.in, s.out)
	if skipStorageCommands[cmd.CommandPath()] {
		s.cli = New(stdio, nil, cfg)
		return nil
	}

	logger, logCloser, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	s.closers = append(s.closers, logCloser)

	s.registry = prometheus.NewRegistry()
	m := metrics.New(s.registry)

	store, err := openStorage(cmd.Context(), cfg, logger, m)
	if err != nil {
		return err
	}
	s.store = store

	service, err := sync.NewService(cmd.Context(), store, sync.Options{
		Metrics:          m,
		Logger:           logger,
		Cooldown:         cfg.Sync.Cooldown(),
		ArchiveThreshold: cfg.Archive.YoungThreshold(),
	})
	if err != nil {
		return err
	}

	s.cli = New(stdio, service, cfg)
	return nil
}

func (s *session) close() error {
	var err error
	if s.flags.showMetrics && s.registry != nil && s.cli != nil {
		err = multierr.Append(err, s.cli.printMetrics(s.registry))
	}
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close database: %w", cerr))
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i].Close())
	}
	return err
}

// openStorage открывает выбранный в конфигурации backend
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Engine) (storage.Storage, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	backoff, maxDelay, lockTimeout := cfg.Storage.Durations()
	opts := storage.OpenOptions{
		Logger:      logger,
		Attempts:    uint64(cfg.Storage.OpenAttempts),
		BaseDelay:   backoff,
		MaxDelay:    maxDelay,
		LockTimeout: lockTimeout,
		OnReopen:    m.Reopen,
	}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		store, err := sqlite.New(ctx, cfg.Storage.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	default:
		store, err := boltdb.New(ctx, cfg.Storage.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	}
}

// printMetrics выводит счетчики движка в формате name{labels} value
func (c *Cli) printMetrics(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, l := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, metric.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	c.io.Println()
	c.io.Println("=== Metrics ===")
	for _, line := range lines {
		c.io.Println(line)
	}
	return nil
}
