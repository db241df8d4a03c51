// Package cli wires the taskmanager commands.
package cli

import (
	"fmt"
	"os"

	"github.com/isdelr/taskmanager/internal/config"
	"github.com/isdelr/taskmanager/internal/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var configPath string

// NewRootCommand builds the taskmanager command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskmanager",
		Short:         "Task Manager - authenticated task list web app",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML or JSON config file")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and sets up the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())
	return cfg, nil
}
