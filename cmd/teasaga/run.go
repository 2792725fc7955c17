package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/teasaga/internal/config"
	"github.com/kingrea/teasaga/internal/demos"
	"github.com/kingrea/teasaga/internal/eventbridge"
	"github.com/kingrea/teasaga/internal/logbook"
	"github.com/kingrea/teasaga/internal/logging"
	"github.com/kingrea/teasaga/internal/metrics"
	"github.com/kingrea/teasaga/internal/tui"
	"github.com/kingrea/teasaga/saga"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [demo]",
		Short: "Open the terminal UI",
		Long: `Opens the demo picker, or the named demo directly. --metrics serves
prometheus metrics for every saga; --bridge serves the HTTP event bridge,
where outside systems answer the approval demo and send demos actions.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Project.Metrics.Enabled, _ = cmd.Flags().GetBool("metrics")
			}
			if cmd.Flags().Changed("bridge") {
				enabled, _ := cmd.Flags().GetBool("bridge")
				cfg.Project.EventBridge.Enabled = &enabled
			}
			initial := ""
			if len(args) == 1 {
				d, err := demos.Lookup(demos.Catalog(demos.Options{}), args[0])
				if err != nil {
					return err
				}
				initial = d.ID
			}
			return runTUI(cmd.Context(), cfg, initial)
		},
	}
	cmd.Flags().Bool("metrics", false, "Serve prometheus metrics on the configured address")
	cmd.Flags().Bool("bridge", false, "Serve the HTTP event bridge on the configured address")
	return cmd
}

func runTUI(ctx context.Context, cfg *config.Config, initial string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.Printf("teasaga run · project %s", cfg.ProjectDir)

	lb, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		return err
	}

	observers := []saga.Observer{logging.Observer(logger)}
	if cfg.Project.Metrics.Enabled {
		m := metrics.New()
		observers = append(observers, m)
		addr := cfg.Project.Metrics.Address
		go func() {
			if err := m.Serve(ctx, addr); err != nil {
				logger.Zerolog().Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
			}
		}()
		logger.Printf("metrics on http://%s/metrics", addr)
	}

	opts := []tui.AppOption{
		tui.WithLogbook(lb),
		tui.WithSagaOptions(saga.WithObserver(saga.Observers(observers...))),
		tui.WithSelectionHook(cfg.SetDefaultDemo),
		tui.WithInitialDemo(initial),
	}
	catalogOpts := demos.Options{FetchDelay: cfg.FetchDelay()}
	if cfg.BridgeEnabled() {
		bridge := eventbridge.New(eventbridge.WithLogger(logger.Component("eventbridge")))
		catalogOpts.Requests = bridge
		addr := cfg.BridgeAddress()
		go func() {
			if err := bridge.Serve(ctx, addr); err != nil {
				logger.Zerolog().Error().Err(err).Str("addr", addr).Msg("event bridge stopped")
			}
		}()
		logger.Printf("event bridge on http://%s", addr)
		opts = append(opts, tui.WithBridge(bridge))
	}

	p := tea.NewProgram(
		tui.NewApp(demos.Catalog(catalogOpts), opts...),
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
		tea.WithContext(ctx),
	)
	// Run blocks until the user quits
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
