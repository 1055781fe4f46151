package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MoAlyousef/dpm/internal/backend"
	"github.com/MoAlyousef/dpm/internal/execute"
	"github.com/MoAlyousef/dpm/internal/output"
	"github.com/MoAlyousef/dpm/internal/reconcile"
)

var updateCmd = &cobra.Command{
	Use:   "update <manager|all>",
	Short: "Run a backend's update command",
	Long: `Run the update command of the named backend, or of every backend with
'all'. The target is mandatory: update never applies to all backends
implicitly. Backends without an update template are skipped.`,
	Example: `  dpm update apt
  dpm update all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateOrUpgrade(cmd, args[0], backend.OpUpdate)
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <manager|all>",
	Short: "Run a backend's upgrade command",
	Long: `Run the upgrade command of the named backend, or of every backend with
'all'. The target is mandatory: upgrade never applies to all backends
implicitly. Backends without an upgrade template are skipped.`,
	Example: `  dpm upgrade apt
  dpm upgrade all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateOrUpgrade(cmd, args[0], backend.OpUpgrade)
	},
}

func init() {
	RootCmd.AddCommand(updateCmd)
	RootCmd.AddCommand(upgradeCmd)
}

func runUpdateOrUpgrade(cmd *cobra.Command, target string, op backend.Operation) error {
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
	report, err := rec.UpdateOrUpgrade(cmd.Context(), cfg.Backends, target, op)
	if report != nil {
		fmt.Print(output.RenderReport(report))
	}
	return err
}
