package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard is a customer-service conversation router",
	Long: `Switchboard routes airline customer conversations between specialist handlers,
screening each message with safety filters and persisting every conversation between turns.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "switchboard.yaml", "Configuration file (missing file keeps defaults)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("store", "", "Store driver: memory, file, redis or sqlite")
	rootCmd.PersistentFlags().String("store-path", "", "Directory (file) or database path (sqlite)")
}

// loadConfig resolves defaults, the config file, SWITCHBOARD_* variables and
// finally the command-line flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, os.Environ())
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("store") {
		cfg.Store.Driver, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	logger := cli.NewLogger(cfg.Log, debug)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
