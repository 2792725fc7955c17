package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kingrea/teasaga/internal/config"
	"github.com/kingrea/teasaga/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "teasaga",
		Short:         "teasaga runs sagas on top of bubbletea",
		Long:          `teasaga drives long-running saga coroutines from a bubbletea program: a demo catalog, a terminal UI, and a headless scenario runner.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Persistent flags (available to all commands)
	root.PersistentFlags().String("dir", ".", "Project directory holding .teasaga")
	root.AddCommand(newListCmd(), newRunCmd(), newReplayCmd())
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadProject initializes and loads the .teasaga directory named by --dir.
func loadProject(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("dir")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := config.InitDir(abs); err != nil {
		return nil, err
	}
	return config.NewConfig(abs)
}

func openLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(cfg.ProjectDir, logging.Options{
		Level:  cfg.Project.Logging.Level,
		Format: cfg.Project.Logging.Format,
	})
}
