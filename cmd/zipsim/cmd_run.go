package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mergeworks/zipsim/internal/config"
	"github.com/mergeworks/zipsim/internal/sim"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless simulation and write the JSON log to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLoggerFromFlags(cmd)

			summaryOnly, _ := cmd.Flags().GetBool("summary")

			logger.Info("starting run",
				"lanes", cfg.Lanes, "blocked", cfg.BlockedLanes,
				"run_time_s", cfg.RunTimeS, "seed", cfg.Seed)

			result, err := sim.Run(cfg)
			if err != nil {
				return err
			}

			last := result.Output[len(result.Output)-1]
			logger.Info("run finished",
				"completed", result.Completed,
				"throughput", last.Throughput,
				"fairness", last.Fairness)

			enc := json.NewEncoder(os.Stdout)
			if summaryOnly {
				return enc.Encode(map[string]any{
					"completed":  result.Completed,
					"throughput": last.Throughput,
					"fairness":   last.Fairness,
				})
			}
			return enc.Encode(result)
		},
	}
	cmd.Flags().Bool("summary", false, "Print only final metrics instead of the full tick log")
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading scenario: %w", err)
	}
	return cfg, nil
}

func newLoggerFromFlags(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return newLogger(level)
}
