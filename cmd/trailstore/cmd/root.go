// Package cmd provides the CLI commands for trailstore.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/trailstore/trailstore/internal/config"
	"github.com/trailstore/trailstore/internal/engine/bleveng"
	"github.com/trailstore/trailstore/internal/index"
	"github.com/trailstore/trailstore/internal/logging"
	"github.com/trailstore/trailstore/internal/profiling"
	"github.com/trailstore/trailstore/pkg/version"
)

var (
	debugMode      bool
	cpuProfile     string
	loggingCleanup func()
	profileCleanup func()
)

// NewRootCmd creates the root command for the trailstore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trailstore",
		Short: "Operational CLI for trailstore audit indexes",
		Long: `trailstore inspects and maintains the on-disk full-text indexes
of a trailstore audit/provenance store.

All commands go through the shared index resource manager, so they are
safe to run against indexes that other processes may hold open.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("trailstore version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.trailstore/logs/")
	cmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to the given file")
	_ = cmd.PersistentFlags().MarkHidden("cpuprofile")
	cmd.PersistentPreRunE = startDiagnostics
	cmd.PersistentPostRunE = stopDiagnostics

	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startDiagnostics installs the logger and, when requested, CPU profiling.
// Debug mode logs JSON to a file; otherwise a stderr handler is picked by
// whether stderr is a terminal.
func startDiagnostics(_ *cobra.Command, _ []string) error {
	if cpuProfile != "" {
		cleanup, err := profiling.NewProfiler().StartCPU(cpuProfile)
		if err != nil {
			return err
		}
		profileCleanup = cleanup
	}

	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()))
		return nil
	}

	slog.SetDefault(slog.New(stderrHandler(os.Stderr)))
	return nil
}

// stderrHandler picks a human-readable text handler on terminals and JSON
// otherwise, so piped output stays machine-parseable.
func stderrHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func stopDiagnostics(_ *cobra.Command, _ []string) error {
	if profileCleanup != nil {
		profileCleanup()
		profileCleanup = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// newManager builds the index resource manager from configuration in the
// working directory.
func newManager() (*index.Manager, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}

	return index.NewManager(bleveng.New(),
		index.WithLockTimeout(cfg.Index.LockTimeout.Std()),
		index.WithKeyCacheSize(cfg.Index.KeyCacheSize),
	)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
