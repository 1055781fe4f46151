// Package app wires the dpm command-line interface.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MoAlyousef/dpm/internal/config"
	"github.com/MoAlyousef/dpm/internal/store"
)

var (
	flagDryRun   bool
	flagConfig   string
	flagStateDir string
	flagVerbose  bool

	// RootCmd is the root command for dpm.
	RootCmd = &cobra.Command{
		Use:   "dpm",
		Short: "Declarative meta-manager for package managers",
		Long: `dpm reconciles your system's package managers against a declarative
configuration. You declare which managers are active and which packages each
should have installed; dpm computes the minimal install/uninstall set and
applies it, recording every applied state as a numbered generation that can
be rolled back.

Configuration lives in ` + "`~/.config/dpm`" + `: dpm.toml lists the active managers
in processing order, and each manager has its own <name>.toml with command
templates (the "$" token marks where package names are substituted):

  # dpm.toml
  managers = ["apt"]

  # apt.toml
  update = "sudo apt-get update"
  upgrade = "sudo apt-get upgrade -y"
  install = "sudo apt-get install -y $"
  uninstall = "sudo apt-get remove -y $"
  packages = ["jq", "vim"]

Examples:
  # Preview what a switch would do
  dpm --dry-run switch

  # Apply the declared state and record a generation
  dpm switch

  # Show generation history
  dpm list

  # Return to the previous generation
  dpm rollback

  # Refresh one manager's package index
  dpm update apt`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&flagDryRun, "dry-run", "d", false, "render commands without executing, commit nothing")
	RootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config directory (default: ~/.config/dpm)")
	RootCmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "generation store directory (default: ~/.local/state/dpm)")
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// newLogger builds the console logger shared by all commands.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// configDir resolves the config directory from the flag or XDG defaults.
func configDir() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.Dir()
}

// loadConfig loads and validates the full declarative configuration.
func loadConfig() (*config.Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	return config.Load(dir)
}

// openStore opens the generation store, creating the state directory and
// schema on first use.
func openStore() (*store.Store, error) {
	dir := flagStateDir
	if dir == "" {
		var err error
		dir, err = config.StateDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate state directory: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	st, err := store.New(filepath.Join(dir, "generations.db"))
	if err != nil {
		return nil, err
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
