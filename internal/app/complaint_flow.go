package app

import (
	"context"
	"time"

	"github.com/example/caseflow/internal/core/complaint"
	"github.com/example/caseflow/internal/ctxutil"
	"github.com/example/caseflow/internal/ports/secondary"
)

// ComplaintFlow names each workflow milestone on top of the StatusTransitionService.
type ComplaintFlow struct {
	transitions *StatusTransitionService
	now         func() time.Time
}

// NewComplaintFlow creates a ComplaintFlow.
func NewComplaintFlow(transitions *StatusTransitionService, now func() time.Time) *ComplaintFlow {
	if now == nil {
		now = time.Now
	}
	return &ComplaintFlow{transitions: transitions, now: now}
}

func (f *ComplaintFlow) apply(ctx context.Context, repos secondary.Repositories, caseID string, req complaint.TransitionRequest, note string) (*secondary.CaseRecord, error) {
	return f.transitions.Transition(ctx, repos, caseID, req, ctxutil.ActorFromContext(ctx), note)
}

// MarkReported re-marks a case as REPORTED.
func (f *ComplaintFlow) MarkReported(ctx context.Context, repos secondary.Repositories, caseID, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.MarkReported(), note)
}

// MarkPSPCreated moves a case to PSP_CREATED, records the service request
// pointer and stamps processedAt.
func (f *ComplaintFlow) MarkPSPCreated(ctx context.Context, repos secondary.Repositories, caseID, serviceRequestID, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.MarkPSPCreated(serviceRequestID, f.now()), note)
}

// MarkSPKCreated moves a case to SPK_CREATED, records the work order pointer
// and stamps processedAt. Also used to resubmit an existing work order after a revision.
func (f *ComplaintFlow) MarkSPKCreated(ctx context.Context, repos secondary.Repositories, caseID, workOrderID, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.MarkSPKCreated(workOrderID, f.now()), note)
}

// MarkRRCreated moves a case to RR_CREATED and records the repair report pointer.
// processedAt is left as it was.
func (f *ComplaintFlow) MarkRRCreated(ctx context.Context, repos secondary.Repositories, caseID, repairReportID, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.MarkRRCreated(repairReportID), note)
}

// MarkCompleted closes a case after its repair report.
func (f *ComplaintFlow) MarkCompleted(ctx context.Context, repos secondary.Repositories, caseID, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.MarkCompleted(), note)
}

// MarkMonitoring closes a case into observation after its repair report.
func (f *ComplaintFlow) MarkMonitoring(ctx context.Context, repos secondary.Repositories, caseID, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.MarkMonitoring(), note)
}

// MarkNeedsRevision sends a case at SPK_CREATED back to PSP_CREATED.
// Only the configured revision role may do this.
func (f *ComplaintFlow) MarkNeedsRevision(ctx context.Context, repos secondary.Repositories, caseID, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.NeedsRevision(), note)
}

// MarkOutcome records the terminal milestone implied by a repair result.
func (f *ComplaintFlow) MarkOutcome(ctx context.Context, repos secondary.Repositories, caseID string, result complaint.RepairResult, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, complaint.OutcomeFor(result), note)
}

// Apply runs an arbitrary pre-built request, used by the generic transition operation.
func (f *ComplaintFlow) Apply(ctx context.Context, repos secondary.Repositories, caseID string, req complaint.TransitionRequest, note string) (*secondary.CaseRecord, error) {
	return f.apply(ctx, repos, caseID, req, note)
}
