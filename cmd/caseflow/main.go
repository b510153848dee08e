package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/caseflow/internal/cli"
	"github.com/example/caseflow/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "caseflow",
		Short:   "caseflow - complaint case workflow tracker",
		Version: version.String(),
		Long: `caseflow tracks complaint cases from intake through service request,
work order and repair report, keeping every status change in an audit trail.`,
	}
	cli.ConfigureRoot(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.CaseCmd())
	rootCmd.AddCommand(cli.ServiceRequestCmd())
	rootCmd.AddCommand(cli.WorkOrderCmd())
	rootCmd.AddCommand(cli.RepairReportCmd())
	rootCmd.AddCommand(cli.ReconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
