package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/maltedev/outreach-bot/internal/config"
	"github.com/maltedev/outreach-bot/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "outreach",
	Short:         "outreach messages directory profiles page by page and city by city, resuming where the last run stopped.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the JSON5 config file")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration and installs the default
// logger. A --config that was passed explicitly must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("config file %s does not exist", configPath)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}
