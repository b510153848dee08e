package complaint

import (
	"fmt"
	"strings"
	"time"
)

// RevisionNoteTag prefixes the audit note of a revision so the history shows
// a backward step rather than a forward one.
const RevisionNoteTag = "[REVISION]"

// PointerField names which denormalized pointer a transition writes.
type PointerField string

const (
	PointerNone           PointerField = ""
	PointerServiceRequest PointerField = "service_request_id"
	PointerWorkOrder      PointerField = "work_order_id"
	PointerRepairReport   PointerField = "repair_report_id"
)

// TransitionRequest is a validated description of one status change.
// Values are only built through the milestone constructors below.
type TransitionRequest struct {
	target      Status
	pointer     PointerField
	pointerID   string
	processedAt *time.Time
	revision    bool
}

// Target returns the status the case moves to.
func (r TransitionRequest) Target() Status { return r.target }

// Pointer returns the pointer field written alongside the status, if any.
func (r TransitionRequest) Pointer() (PointerField, string) { return r.pointer, r.pointerID }

// ProcessedAt returns the processed timestamp to set, or nil.
func (r TransitionRequest) ProcessedAt() *time.Time { return r.processedAt }

// IsRevision reports whether this is the backward "needs revision" request.
func (r TransitionRequest) IsRevision() bool { return r.revision }

// MarkReported re-asserts the initial status without touching pointers.
func MarkReported() TransitionRequest {
	return TransitionRequest{target: StatusReported}
}

// MarkPSPCreated records the service request and stamps processedAt.
func MarkPSPCreated(serviceRequestID string, now time.Time) TransitionRequest {
	return TransitionRequest{
		target:      StatusPSPCreated,
		pointer:     PointerServiceRequest,
		pointerID:   serviceRequestID,
		processedAt: &now,
	}
}

// MarkSPKCreated records the work order and stamps processedAt.
func MarkSPKCreated(workOrderID string, now time.Time) TransitionRequest {
	return TransitionRequest{
		target:      StatusSPKCreated,
		pointer:     PointerWorkOrder,
		pointerID:   workOrderID,
		processedAt: &now,
	}
}

// MarkRRCreated records the repair report. processedAt is left alone.
func MarkRRCreated(repairReportID string) TransitionRequest {
	return TransitionRequest{
		target:    StatusRRCreated,
		pointer:   PointerRepairReport,
		pointerID: repairReportID,
	}
}

// MarkCompleted moves the case to the COMPLETED terminal status.
func MarkCompleted() TransitionRequest {
	return TransitionRequest{target: StatusCompleted}
}

// MarkMonitoring moves the case to the MONITORING terminal status.
func MarkMonitoring() TransitionRequest {
	return TransitionRequest{target: StatusMonitoring}
}

// NeedsRevision sends a case with a work order back to PSP_CREATED.
func NeedsRevision() TransitionRequest {
	return TransitionRequest{target: StatusPSPCreated, revision: true}
}

// ForTarget builds the pointer-free milestone request for a target status.
// Milestones that need a pointer (PSP, SPK, RR) are rejected because they can
// only be reached through stage creation.
func ForTarget(target Status) (TransitionRequest, error) {
	switch target {
	case StatusReported:
		return MarkReported(), nil
	case StatusCompleted:
		return MarkCompleted(), nil
	case StatusMonitoring:
		return MarkMonitoring(), nil
	default:
		return TransitionRequest{}, Errorf(KindInvalidTransition,
			"status %s can only be reached by creating its stage record", target)
	}
}

// TransitionContext provides context for a status transition guard.
type TransitionContext struct {
	CaseID        string
	CurrentStatus Status
	Request       TransitionRequest
	ActorRole     string
	RevisionRole  string
}

// CanTransition evaluates whether the case may take the requested edge.
// Rules:
// - Revision requests require SPK_CREATED and the revision role (case-insensitive)
// - All other requests must follow a forward edge
func CanTransition(ctx TransitionContext) GuardResult {
	target := ctx.Request.Target()

	if ctx.Request.IsRevision() {
		if !strings.EqualFold(ctx.ActorRole, ctx.RevisionRole) {
			return denied(KindForbidden, fmt.Sprintf(
				"case %s: only role %s can request a revision (actor role: %s)",
				ctx.CaseID, ctx.RevisionRole, ctx.ActorRole))
		}
		if !IsRevisionTransition(ctx.CurrentStatus, target) {
			return denied(KindInvalidTransition, fmt.Sprintf(
				"case %s: revision requires status %s (current status: %s)",
				ctx.CaseID, StatusSPKCreated, ctx.CurrentStatus))
		}
		return GuardResult{Allowed: true}
	}

	if !IsValidTransition(ctx.CurrentStatus, target) {
		return denied(KindInvalidTransition, fmt.Sprintf(
			"case %s: cannot move to %s (current status: %s)",
			ctx.CaseID, target, ctx.CurrentStatus))
	}
	return GuardResult{Allowed: true}
}

// RevisionNote tags a free-text note as a revision entry.
func RevisionNote(note string) string {
	if note == "" {
		return RevisionNoteTag
	}
	return RevisionNoteTag + " " + note
}
