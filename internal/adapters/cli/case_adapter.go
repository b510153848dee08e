// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/caseflow/internal/ports/primary"
)

// CaseAdapter is a thin adapter that translates CLI operations to CaseWorkflowService calls.
// It depends only on the CaseWorkflowService interface, enabling easy testing with mocks.
type CaseAdapter struct {
	service primary.CaseWorkflowService
	out     io.Writer
}

// NewCaseAdapter creates a new CaseAdapter with the given service.
func NewCaseAdapter(service primary.CaseWorkflowService, out io.Writer) *CaseAdapter {
	return &CaseAdapter{
		service: service,
		out:     out,
	}
}

// Open opens a new case.
func (a *CaseAdapter) Open(ctx context.Context, customer, location, description string) error {
	c, err := a.service.OpenCase(ctx, primary.OpenCaseRequest{
		CustomerName: customer,
		Location:     location,
		Description:  description,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Opened case %s for %s (%s)\n", c.ID, c.CustomerName, StatusLabel(c.Status))
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Next steps:")
	fmt.Fprintf(a.out, "   caseflow sr create %s --summary \"...\"\n", c.ID)
	return nil
}

// Show displays details for a single case.
func (a *CaseAdapter) Show(ctx context.Context, caseID string) error {
	c, err := a.service.GetCase(ctx, caseID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nCase:     %s\n", c.ID)
	fmt.Fprintf(a.out, "Status:   %s\n", StatusLabel(c.Status))
	fmt.Fprintf(a.out, "Customer: %s\n", c.CustomerName)
	fmt.Fprintf(a.out, "Location: %s\n", c.Location)
	if c.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(a.out, "Service request: %s\n", orDash(c.ServiceRequestID))
	fmt.Fprintf(a.out, "Work order:      %s\n", orDash(c.WorkOrderID))
	fmt.Fprintf(a.out, "Repair report:   %s\n", orDash(c.RepairReportID))
	if c.ProcessedAt != "" {
		fmt.Fprintf(a.out, "Processed: %s\n", c.ProcessedAt)
	}
	fmt.Fprintf(a.out, "Created:   %s\n", c.CreatedAt)
	fmt.Fprintln(a.out)
	return nil
}

// List lists cases with optional status filter.
func (a *CaseAdapter) List(ctx context.Context, status string, limit int) error {
	cases, err := a.service.ListCases(ctx, primary.CaseFilters{Status: status, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to list cases: %w", err)
	}

	if len(cases) == 0 {
		fmt.Fprintln(a.out, "No cases found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCUSTOMER\tSR\tWO\tRR")
	for _, c := range cases {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Status, c.CustomerName,
			orDash(c.ServiceRequestID), orDash(c.WorkOrderID), orDash(c.RepairReportID))
	}
	return w.Flush()
}

// History prints a case's audit trail, oldest first.
func (a *CaseAdapter) History(ctx context.Context, caseID string) error {
	entries, err := a.service.GetHistory(ctx, caseID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(a.out, "No history for %s.\n", caseID)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSTATUS\tROLE\tACTOR\tNOTE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt, e.Status, e.ActorRole, orDash(e.ActorID), e.Note)
	}
	return w.Flush()
}

// Chain prints the canonical stage chain next to the case's cached pointers.
func (a *CaseAdapter) Chain(ctx context.Context, caseID string) error {
	report, err := a.service.GetChain(ctx, caseID)
	if err != nil {
		return err
	}
	c, chain := report.Case, report.Canonical

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tCACHED\tCANONICAL")
	a.chainRow(w, "service request", c.ServiceRequestID, chain.ServiceRequestID)
	a.chainRow(w, "work order", c.WorkOrderID, chain.WorkOrderID)
	a.chainRow(w, "repair report", c.RepairReportID, chain.RepairReportID)
	if err := w.Flush(); err != nil {
		return err
	}
	if report.Inconsistent {
		a.inconsistent(c.ID, c.Status)
	}
	return nil
}

// inconsistent warns that the stage records contradict the case status.
func (a *CaseAdapter) inconsistent(caseID, status string) {
	fmt.Fprintf(a.out, "%s %s: stage records do not match status %s (not repaired automatically)\n",
		color.YellowString("⚠"), caseID, status)
}

func (a *CaseAdapter) chainRow(w io.Writer, label, cached, canonical string) {
	marker := ""
	if cached != canonical {
		marker = color.New(color.FgYellow).Sprint(" (drift)")
	}
	fmt.Fprintf(w, "%s\t%s\t%s%s\n", label, orDash(cached), orDash(canonical), marker)
}

// CreateServiceRequest creates the service request stage.
func (a *CaseAdapter) CreateServiceRequest(ctx context.Context, req primary.CreateServiceRequestRequest) error {
	resp, err := a.service.CreateServiceRequest(ctx, req)
	if err != nil {
		return err
	}
	a.stageCreated("service request", resp)
	return nil
}

// CreateWorkOrder creates the work order stage.
func (a *CaseAdapter) CreateWorkOrder(ctx context.Context, req primary.CreateWorkOrderRequest) error {
	resp, err := a.service.CreateWorkOrder(ctx, req)
	if err != nil {
		return err
	}
	a.stageCreated("work order", resp)
	return nil
}

// CreateRepairReport creates the repair report stage.
func (a *CaseAdapter) CreateRepairReport(ctx context.Context, req primary.CreateRepairReportRequest) error {
	resp, err := a.service.CreateRepairReport(ctx, req)
	if err != nil {
		return err
	}
	a.stageCreated("repair report", resp)
	return nil
}

func (a *CaseAdapter) stageCreated(label string, resp *primary.StageResponse) {
	fmt.Fprintf(a.out, "✓ Created %s %s\n", label, resp.StageID)
	fmt.Fprintf(a.out, "  Case %s is now %s\n", resp.Case.ID, StatusLabel(resp.Case.Status))
}

// Revise sends a case back from SPK_CREATED to PSP_CREATED.
func (a *CaseAdapter) Revise(ctx context.Context, caseID, note string) error {
	c, err := a.service.RequestRevision(ctx, caseID, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Case %s sent back for revision (%s)\n", c.ID, StatusLabel(c.Status))
	fmt.Fprintf(a.out, "  Work order %s kept; resubmit with: caseflow wo resubmit %s\n", c.WorkOrderID, c.ID)
	return nil
}

// Resubmit moves a revised case back to SPK_CREATED.
func (a *CaseAdapter) Resubmit(ctx context.Context, caseID, note string) error {
	c, err := a.service.ResubmitWorkOrder(ctx, caseID, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Work order %s resubmitted, case %s is now %s\n", c.WorkOrderID, c.ID, StatusLabel(c.Status))
	return nil
}

// Transition applies a pointer-free milestone.
func (a *CaseAdapter) Transition(ctx context.Context, caseID, status, note string) error {
	c, err := a.service.Transition(ctx, primary.TransitionRequest{CaseID: caseID, Status: status, Note: note})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Case %s is now %s\n", c.ID, StatusLabel(c.Status))
	return nil
}

// Guard reports whether a stage could be created now.
func (a *CaseAdapter) Guard(ctx context.Context, kind, caseID, parentID string) error {
	if err := a.service.RunGuard(ctx, primary.GuardRequest{Kind: kind, CaseID: caseID, ParentID: parentID}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s may be created for case %s\n", kind, caseID)
	return nil
}

// Reconcile checks (and optionally repairs) one case.
func (a *CaseAdapter) Reconcile(ctx context.Context, caseID string, fix bool) error {
	result, err := a.service.Reconcile(ctx, caseID, fix)
	if err != nil {
		return err
	}
	a.printReconcile(result)
	return nil
}

// ReconcileAll sweeps every case and prints the drifted ones.
func (a *CaseAdapter) ReconcileAll(ctx context.Context, fix bool) error {
	results, err := a.service.ReconcileAll(ctx, fix)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(a.out, "✓ All case pointers match their canonical chains")
		return nil
	}
	for _, r := range results {
		a.printReconcile(r)
	}
	return nil
}

func (a *CaseAdapter) printReconcile(r *primary.ReconcileResult) {
	if r.Inconsistent && r.Case != nil {
		defer a.inconsistent(r.CaseID, r.Case.Status)
	}
	if !r.Mismatch {
		fmt.Fprintf(a.out, "✓ %s: pointers match canonical chain\n", r.CaseID)
		return
	}

	drift := strings.Join(r.DriftedFields, ", ")
	if r.Fixed {
		fmt.Fprintf(a.out, "%s %s: repaired %s\n", color.GreenString("✓"), r.CaseID, drift)
	} else {
		fmt.Fprintf(a.out, "%s %s: drift in %s (run with --fix to repair)\n", color.YellowString("⚠"), r.CaseID, drift)
	}
	fmt.Fprintf(a.out, "  canonical: sr=%s wo=%s rr=%s\n",
		orDash(r.Chain.ServiceRequestID), orDash(r.Chain.WorkOrderID), orDash(r.Chain.RepairReportID))
}

// StatusLabel colors a status for terminal output.
func StatusLabel(status string) string {
	switch status {
	case "REPORTED":
		return color.New(color.FgHiBlue).Sprint(status)
	case "PSP_CREATED", "SPK_CREATED", "RR_CREATED":
		return color.New(color.FgYellow).Sprint(status)
	case "COMPLETED":
		return color.New(color.FgHiGreen).Sprint(status)
	case "MONITORING":
		return color.New(color.FgCyan).Sprint(status)
	}
	return status
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
