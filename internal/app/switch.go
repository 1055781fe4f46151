package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MoAlyousef/dpm/internal/execute"
	"github.com/MoAlyousef/dpm/internal/output"
	"github.com/MoAlyousef/dpm/internal/reconcile"
)

var (
	switchFlagUpdate  bool
	switchFlagUpgrade bool
)

var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Reconcile the system toward the declared configuration",
	Long: `Compare the declared package sets against the last recorded generation,
run the minimal install/uninstall commands per backend, and record a new
generation on success.

Backends are processed sequentially in the order declared in dpm.toml.
Within each backend, uninstalls run before installs. A failing command halts
the run: earlier backends stay applied, later backends are never touched.`,
	Example: `  dpm switch
  dpm --dry-run switch
  dpm switch --update       # refresh each backend's index first
  dpm switch --upgrade      # upgrade each backend's packages afterwards`,
	Args: cobra.NoArgs,
	RunE: runSwitch,
}

func init() {
	switchCmd.Flags().BoolVar(&switchFlagUpdate, "update", false, "run each backend's update command before reconciling")
	switchCmd.Flags().BoolVar(&switchFlagUpgrade, "upgrade", false, "run each backend's upgrade command after reconciling")

	RootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rec := reconcile.New(st, execute.ExecRunner{}, newLogger(), flagDryRun)
	report, err := rec.Switch(cmd.Context(), cfg.Backends, reconcile.SwitchOptions{
		Update:  switchFlagUpdate,
		Upgrade: switchFlagUpgrade,
	})
	if report != nil {
		fmt.Print(output.RenderReport(report))
	}
	return err
}
