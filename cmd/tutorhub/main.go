package main

import (
	"fmt"
	"os"

	"tutorhub/internal/config"
	"tutorhub/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "tutorhub",
	Short:         "Tutorhub authentication server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by every command
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}
