package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MoAlyousef/dpm/internal/execute"
	"github.com/MoAlyousef/dpm/internal/output"
	"github.com/MoAlyousef/dpm/internal/reconcile"
	"github.com/MoAlyousef/dpm/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the config directory and show pending changes",
	Long: `Watch the config directory for edits and print the reconcile plan each
time the declared state changes. Nothing is executed and no generation is
recorded; apply pending changes with 'dpm switch'. Runs in the foreground
until interrupted.`,
	Example: `  dpm watch`,
	Args:    cobra.NoArgs,
	RunE:    runWatch,
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	log := newLogger()

	showPlan := func() {
		cfg, err := loadConfig()
		if err != nil {
			log.Error().Err(err).Msg("config reload failed")
			return
		}
		// Plan only: a recording runner plus dry-run mode guarantees no
		// execution and no commit.
		rec := reconcile.New(st, &execute.RecordingRunner{}, log, true)
		report, err := rec.Switch(cmd.Context(), cfg.Backends, reconcile.SwitchOptions{})
		if err != nil {
			log.Error().Err(err).Msg("plan computation failed")
			return
		}
		fmt.Print(output.RenderReport(report))
		fmt.Println("Run 'dpm switch' to apply.")
	}

	w, err := watcher.New(dir, log, showPlan)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	// Show the current plan once at startup, then on every change.
	showPlan()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	return w.Stop()
}
