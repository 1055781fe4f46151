package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MoAlyousef/dpm/internal/output"
	"github.com/MoAlyousef/dpm/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded generations",
	Long: `Show the generation history in ascending order. Each generation is a full
snapshot of the declared state at the time it was applied; the highest
sequence number is the current one.`,
	Example: `  dpm list`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	gens, err := st.List()
	if err != nil && !errors.Is(err, store.ErrNotInitialized) {
		return err
	}

	fmt.Print(output.RenderGenerationTable(gens))
	return nil
}
