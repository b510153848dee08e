package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/caseflow/internal/ports/primary"
	"github.com/example/caseflow/internal/wire"
)

var srCmd = &cobra.Command{
	Use:   "sr",
	Short: "Manage service requests (PSP)",
}

var srCreateCmd = &cobra.Command{
	Use:   "create [case-id]",
	Short: "Create the service request for a REPORTED case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := requireFlag(cmd, "summary")
		if err != nil {
			return err
		}
		note, _ := cmd.Flags().GetString("note")
		return wire.CaseAdapter().CreateServiceRequest(NewContext(), primary.CreateServiceRequestRequest{
			CaseID:  args[0],
			Summary: summary,
			Note:    note,
		})
	},
}

var woCmd = &cobra.Command{
	Use:   "wo",
	Short: "Manage work orders (SPK)",
}

var woCreateCmd = &cobra.Command{
	Use:   "create [case-id]",
	Short: "Create the work order for a case at PSP_CREATED",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srID, err := requireFlag(cmd, "service-request")
		if err != nil {
			return err
		}
		team, _ := cmd.Flags().GetString("team")
		instructions, _ := cmd.Flags().GetString("instructions")
		note, _ := cmd.Flags().GetString("note")
		return wire.CaseAdapter().CreateWorkOrder(NewContext(), primary.CreateWorkOrderRequest{
			CaseID:           args[0],
			ServiceRequestID: srID,
			AssignedTeam:     team,
			Instructions:     instructions,
			Note:             note,
		})
	},
}

var woReviseCmd = &cobra.Command{
	Use:   "revise [case-id]",
	Short: "Send a case at SPK_CREATED back to PSP_CREATED",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")
		return wire.CaseAdapter().Revise(NewContext(), args[0], note)
	},
}

var woResubmitCmd = &cobra.Command{
	Use:   "resubmit [case-id]",
	Short: "Resubmit the existing work order of a revised case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")
		return wire.CaseAdapter().Resubmit(NewContext(), args[0], note)
	},
}

var rrCmd = &cobra.Command{
	Use:   "rr",
	Short: "Manage repair reports (RR)",
}

var rrCreateCmd = &cobra.Command{
	Use:   "create [case-id]",
	Short: "File the repair report and close the case",
	Long: `File the repair report for a case at SPK_CREATED.

The case moves to RR_CREATED and then to MONITORING when the result is
MONITORING, or COMPLETED for any other result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		woID, err := requireFlag(cmd, "work-order")
		if err != nil {
			return err
		}
		result, err := requireFlag(cmd, "result")
		if err != nil {
			return err
		}
		findings, _ := cmd.Flags().GetString("findings")
		note, _ := cmd.Flags().GetString("note")
		return wire.CaseAdapter().CreateRepairReport(NewContext(), primary.CreateRepairReportRequest{
			CaseID:      args[0],
			WorkOrderID: woID,
			Result:      strings.ToUpper(result),
			Findings:    findings,
			Note:        note,
		})
	},
}

func init() {
	// sr create flags
	srCreateCmd.Flags().StringP("summary", "s", "", "Service request summary (required)")
	srCreateCmd.Flags().String("note", "", "Audit note")

	// wo create flags
	woCreateCmd.Flags().String("service-request", "", "Parent service request ID (required)")
	woCreateCmd.Flags().StringP("team", "t", "", "Assigned team")
	woCreateCmd.Flags().StringP("instructions", "i", "", "Instructions for the crew")
	woCreateCmd.Flags().String("note", "", "Audit note")

	woReviseCmd.Flags().String("note", "", "Reason for the revision")
	woResubmitCmd.Flags().String("note", "", "Audit note")

	// rr create flags
	rrCreateCmd.Flags().String("work-order", "", "Parent work order ID (required)")
	rrCreateCmd.Flags().StringP("result", "r", "", "FIXED, REPLACED, NO_FAULT_FOUND or MONITORING (required)")
	rrCreateCmd.Flags().StringP("findings", "f", "", "Technician findings")
	rrCreateCmd.Flags().String("note", "", "Audit note")

	// Register subcommands
	srCmd.AddCommand(srCreateCmd)
	woCmd.AddCommand(woCreateCmd)
	woCmd.AddCommand(woReviseCmd)
	woCmd.AddCommand(woResubmitCmd)
	rrCmd.AddCommand(rrCreateCmd)
}

// ServiceRequestCmd returns the sr command
func ServiceRequestCmd() *cobra.Command {
	return srCmd
}

// WorkOrderCmd returns the wo command
func WorkOrderCmd() *cobra.Command {
	return woCmd
}

// RepairReportCmd returns the rr command
func RepairReportCmd() *cobra.Command {
	return rrCmd
}
