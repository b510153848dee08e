package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/caseflow/internal/wire"
)

// ReconcileCmd returns the reconcile command
func ReconcileCmd() *cobra.Command {
	var fix, all bool

	cmd := &cobra.Command{
		Use:   "reconcile [case-id]",
		Short: "Check case pointers against the canonical stage chain",
		Long: `Recompute the stage chain of a case from the stage tables and compare it
with the pointers cached on the case. Without --fix nothing is written.

Use --all to sweep every case; only drifted cases are reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			adapter := wire.CaseAdapter()

			switch {
			case all && len(args) > 0:
				return fmt.Errorf("--all cannot be combined with a case ID")
			case all:
				return adapter.ReconcileAll(ctx, fix)
			case len(args) == 1:
				return adapter.Reconcile(ctx, args[0], fix)
			}
			return fmt.Errorf("specify a case ID or --all")
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Overwrite drifted pointers with the canonical chain")
	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every case")
	return cmd
}
