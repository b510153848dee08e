package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/caseflow/internal/wire"
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Manage complaint cases",
	Long:  "Open, inspect, and move complaint cases through the workflow",
}

var caseOpenCmd = &cobra.Command{
	Use:   "open [customer]",
	Short: "Open a new case at REPORTED",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		description, _ := cmd.Flags().GetString("description")
		return wire.CaseAdapter().Open(NewContext(), args[0], location, description)
	},
}

var caseShowCmd = &cobra.Command{
	Use:   "show [case-id]",
	Short: "Show case details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CaseAdapter().Show(NewContext(), args[0])
	},
}

var caseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		return wire.CaseAdapter().List(NewContext(), strings.ToUpper(status), limit)
	},
}

var caseHistoryCmd = &cobra.Command{
	Use:   "history [case-id]",
	Short: "Show a case's status history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CaseAdapter().History(NewContext(), args[0])
	},
}

var caseChainCmd = &cobra.Command{
	Use:   "chain [case-id]",
	Short: "Compare cached stage pointers with the canonical chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.CaseAdapter().Chain(NewContext(), args[0])
	},
}

var caseTransitionCmd = &cobra.Command{
	Use:   "transition [case-id] [status]",
	Short: "Apply a milestone that has no stage record (REPORTED, COMPLETED, MONITORING)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")
		return wire.CaseAdapter().Transition(NewContext(), args[0], strings.ToUpper(args[1]), note)
	},
}

var caseGuardCmd = &cobra.Command{
	Use:   "guard [sr|wo|rr] [case-id] [parent-id]",
	Short: "Check whether a stage record could be created now",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentID := ""
		if len(args) == 3 {
			parentID = args[2]
		}
		return wire.CaseAdapter().Guard(NewContext(), args[0], args[1], parentID)
	},
}

func init() {
	// case open flags
	caseOpenCmd.Flags().StringP("location", "l", "", "Complaint location (required)")
	caseOpenCmd.Flags().StringP("description", "d", "", "Complaint description")
	_ = caseOpenCmd.MarkFlagRequired("location")

	// case list flags
	caseListCmd.Flags().StringP("status", "s", "", "Filter by status")
	caseListCmd.Flags().IntP("limit", "n", 0, "Maximum number of cases")

	// case transition flags
	caseTransitionCmd.Flags().String("note", "", "Audit note")

	// Register subcommands
	caseCmd.AddCommand(caseOpenCmd)
	caseCmd.AddCommand(caseShowCmd)
	caseCmd.AddCommand(caseListCmd)
	caseCmd.AddCommand(caseHistoryCmd)
	caseCmd.AddCommand(caseChainCmd)
	caseCmd.AddCommand(caseTransitionCmd)
	caseCmd.AddCommand(caseGuardCmd)
}

// CaseCmd returns the case command
func CaseCmd() *cobra.Command {
	return caseCmd
}

// requireFlag returns a flag value or an error naming the missing flag.
func requireFlag(cmd *cobra.Command, name string) (string, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return v, nil
}
