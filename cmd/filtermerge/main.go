package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"filtermerge/internal/app"
	"filtermerge/internal/config"
	"filtermerge/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "filtermerge",
	Short: "Unify ad-blocking filter lists into one canonical list",
	Long:  `filtermerge downloads filter lists in different rule dialects, classifies and rewrites their rules into the canonical dialect, and generates a single unified list.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one unification pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(cfg, logger)
		if err != nil {
			logger.Error("startup failed", "error", err)
			return err
		}
		defer application.Close()

		if err := application.Run(context.Background()); err != nil {
			logger.Error("run failed", "error", err)
			return err
		}
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Processing.MaxWorkers = workers
	}
	if strategy, _ := cmd.Flags().GetString("strategy"); strategy != "" {
		cfg.Processing.Strategy = strategy
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output.File = output
	}
	if patterns, _ := cmd.Flags().GetString("patterns-dir"); patterns != "" {
		cfg.Patterns.Dir = patterns
	}

	return cfg, nil
}

func main() {
	runCmd.Flags().String("config", "", "path to YAML configuration file")
	runCmd.Flags().Int("workers", 0, "processing workers (0 = host parallelism)")
	runCmd.Flags().String("strategy", "", "translation strategy override")
	runCmd.Flags().String("output", "", "output file override")
	runCmd.Flags().String("patterns-dir", "", "syntax pattern descriptors directory")

	rootCmd.AddCommand(runCmd)
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
