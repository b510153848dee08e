package complaint

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    ErrorKind // Populated when not allowed
	Reason  string    // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as a typed *Error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Reason}
}

func denied(kind ErrorKind, reason string) GuardResult {
	return GuardResult{Allowed: false, Kind: kind, Reason: reason}
}

// StageKind identifies one of the three stage records hanging off a case.
type StageKind string

const (
	StageServiceRequest StageKind = "SERVICE_REQUEST"
	StageWorkOrder      StageKind = "WORK_ORDER"
	StageRepairReport   StageKind = "REPAIR_REPORT"
)

// ParseStageKind converts a user-supplied name into a StageKind.
func ParseStageKind(s string) (StageKind, error) {
	switch s {
	case "SERVICE_REQUEST", "sr", "psp":
		return StageServiceRequest, nil
	case "WORK_ORDER", "wo", "spk":
		return StageWorkOrder, nil
	case "REPAIR_REPORT", "rr":
		return StageRepairReport, nil
	}
	return "", fmt.Errorf("unknown stage kind %q", s)
}

// RequiredStatus returns the exact case status in which the stage may be created.
func (k StageKind) RequiredStatus() Status {
	switch k {
	case StageServiceRequest:
		return StatusReported
	case StageWorkOrder:
		return StatusPSPCreated
	case StageRepairReport:
		return StatusSPKCreated
	}
	return ""
}

// Label returns a short human name for messages.
func (k StageKind) Label() string {
	switch k {
	case StageServiceRequest:
		return "service request"
	case StageWorkOrder:
		return "work order"
	case StageRepairReport:
		return "repair report"
	}
	return string(k)
}

// ParentLabel returns the human name of the stage's predecessor.
func (k StageKind) ParentLabel() string {
	switch k {
	case StageWorkOrder:
		return StageServiceRequest.Label()
	case StageRepairReport:
		return StageWorkOrder.Label()
	}
	return ""
}

// HasParent reports whether the stage record references a predecessor.
func (k StageKind) HasParent() bool {
	return k == StageWorkOrder || k == StageRepairReport
}

// StageGuardContext provides the pre-fetched facts a stage creation guard needs.
// Populated by the caller inside the transaction that will insert the stage.
type StageGuardContext struct {
	Kind          StageKind
	CaseID        string
	CaseExists    bool
	CurrentStatus Status

	// SuppliedParentID is the parent the caller wants to attach to (empty for service requests).
	SuppliedParentID string
	// RecordedParentID is the case's current pointer to the parent stage.
	RecordedParentID string
	// ParentExists reports whether SuppliedParentID resolves to a stored record.
	ParentExists bool

	// OccupiedSlotID is the case's current pointer for the stage being created.
	OccupiedSlotID string
}

// CanCreateStage evaluates whether the next stage record may be created.
// Rules:
// - Case must exist
// - The stage's pointer slot must still be empty (double-submission)
// - Case must be in the exact status required for the stage
// - Supplied parent must equal the case's recorded parent pointer
// - Supplied parent must exist in the store
func CanCreateStage(ctx StageGuardContext) GuardResult {
	// Rule 1: Case must exist
	if !ctx.CaseExists {
		return denied(KindNotFound, fmt.Sprintf("case %s not found", ctx.CaseID))
	}

	// Rule 2: Slot must be empty
	if ctx.OccupiedSlotID != "" {
		return denied(KindDuplicateStage, fmt.Sprintf(
			"case %s already has a %s (%s)", ctx.CaseID, ctx.Kind.Label(), ctx.OccupiedSlotID))
	}

	// Rule 3: Exact status
	required := ctx.Kind.RequiredStatus()
	if ctx.CurrentStatus != required {
		return denied(KindInvalidTransition, fmt.Sprintf(
			"cannot create %s for case %s: status must be %s (current status: %s)",
			ctx.Kind.Label(), ctx.CaseID, required, ctx.CurrentStatus))
	}

	if !ctx.Kind.HasParent() {
		return GuardResult{Allowed: true}
	}

	// Rule 4: Parent must match the recorded pointer
	if ctx.SuppliedParentID != ctx.RecordedParentID {
		return denied(KindParentMismatch, fmt.Sprintf(
			"%s %s is not the %s recorded on case %s (recorded: %s)",
			ctx.Kind.ParentLabel(), displayID(ctx.SuppliedParentID), ctx.Kind.ParentLabel(),
			ctx.CaseID, displayID(ctx.RecordedParentID)))
	}

	// Rule 5: Parent record must exist
	if !ctx.ParentExists {
		return denied(KindParentNotFound, fmt.Sprintf(
			"%s %s not found", ctx.Kind.ParentLabel(), ctx.SuppliedParentID))
	}

	return GuardResult{Allowed: true}
}

// CanCreateServiceRequest evaluates the service request guard.
func CanCreateServiceRequest(ctx StageGuardContext) GuardResult {
	ctx.Kind = StageServiceRequest
	return CanCreateStage(ctx)
}

// CanCreateWorkOrder evaluates the work order guard.
func CanCreateWorkOrder(ctx StageGuardContext) GuardResult {
	ctx.Kind = StageWorkOrder
	return CanCreateStage(ctx)
}

// CanCreateRepairReport evaluates the repair report guard.
func CanCreateRepairReport(ctx StageGuardContext) GuardResult {
	ctx.Kind = StageRepairReport
	return CanCreateStage(ctx)
}

func displayID(id string) string {
	if id == "" {
		return "(none)"
	}
	return id
}
