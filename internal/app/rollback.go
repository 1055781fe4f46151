package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MoAlyousef/dpm/internal/execute"
	"github.com/MoAlyousef/dpm/internal/output"
	"github.com/MoAlyousef/dpm/internal/reconcile"
	"github.com/MoAlyousef/dpm/internal/store"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback [generation]",
	Short: "Reconcile back to a previous generation",
	Long: `Treat a historical generation's state as the desired state and reconcile
toward it using the same pipeline as switch. On success a NEW generation is
recorded with the historical state: history is never rewritten, so rollbacks
are themselves auditable and can be rolled back again.

With no argument, targets the generation before the current one.`,
	Example: `  dpm rollback        # back to the previous generation
  dpm rollback 3      # back to generation 3
  dpm --dry-run rollback 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRollback,
}

func init() {
	RootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	var target int64
	if len(args) == 1 {
		// Accept both "3" and the on-disk style "generation_3" spelling.
		raw := strings.TrimPrefix(args[0], "generation_")
		seq, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seq < 1 {
			return fmt.Errorf("invalid generation %q (must be a positive number)", args[0])
		}
		target = seq
	}

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
	report, err := rec.Rollback(cmd.Context(), cfg.Backends, target)
	if store.IsNotFound(err) {
		return fmt.Errorf("%w\n\nRun 'dpm list' to see available generations", err)
	}
	if report != nil {
		if report.NoOp && len(report.Backends) == 0 {
			fmt.Println("Already at that generation, nothing to do.")
			return nil
		}
		fmt.Print(output.RenderReport(report))
	}
	return err
}
