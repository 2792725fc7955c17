package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/teasaga/internal/demos"
	"github.com/kingrea/teasaga/internal/logging"
	"github.com/kingrea/teasaga/internal/scenario"
	"github.com/kingrea/teasaga/saga"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [file|dir]",
		Short: "Replay scenario files headlessly",
		Long: `Replays each scenario's actions against its demo without a terminal and
compares the resulting states with the scenario's expectations. With no
argument the project's .teasaga/scenarios directory is replayed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			logger, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			target := cfg.ScenariosDir()
			if len(args) == 1 {
				target = args[0]
			}
			scenarios, err := loadScenarios(target)
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no scenarios in %s\n", target)
				return nil
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			// Delays would only slow a headless replay down.
			catalog := demos.Catalog(demos.Options{})
			observer := saga.WithObserver(logging.Observer(logger.Component("replay")))
			out := cmd.OutOrStdout()
			failed := 0
			for _, sc := range scenarios {
				result, err := scenario.Replay(catalog, sc, observer)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", sc.Name, err)
					logger.Zerolog().Warn().Str("scenario", sc.Name).Err(err).Msg("scenario failed")
				} else {
					fmt.Fprintf(out, "ok   %s (%s, %d states)\n", sc.Name, result.Demo, len(result.Rendered))
				}
				if verbose {
					for i, line := range result.Rendered {
						fmt.Fprintf(out, "     %2d %s\n", i, line)
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("replay: %d of %d scenarios failed", failed, len(scenarios))
			}
			return nil
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "Print every rendered state")
	return cmd
}

func loadScenarios(target string) ([]scenario.Scenario, error) {
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !strings.HasSuffix(target, ".yaml") && !strings.HasSuffix(target, ".yml") {
			return nil, nil
		}
		return nil, fmt.Errorf("replay: %w", err)
	}
	if info.IsDir() {
		return scenario.LoadDir(target)
	}
	sc, err := scenario.Load(target)
	if err != nil {
		return nil, err
	}
	return []scenario.Scenario{sc}, nil
}
