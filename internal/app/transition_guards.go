package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/caseflow/internal/core/complaint"
	"github.com/example/caseflow/internal/ports/secondary"
)

// TransitionGuards gathers the facts a stage guard needs and evaluates it.
// Run performs reads only.
type TransitionGuards struct{}

// NewTransitionGuards creates a TransitionGuards.
func NewTransitionGuards() *TransitionGuards {
	return &TransitionGuards{}
}

// Run checks whether a stage of the given kind may be created for caseID,
// attached to parentID. It returns nil when allowed and a *complaint.Error otherwise.
func (g *TransitionGuards) Run(ctx context.Context, repos secondary.Repositories, kind complaint.StageKind, caseID, parentID string) error {
	guardCtx := complaint.StageGuardContext{
		Kind:             kind,
		CaseID:           caseID,
		SuppliedParentID: parentID,
	}

	record, err := repos.Cases.GetByID(ctx, caseID)
	switch {
	case errors.Is(err, secondary.ErrNotFound):
		return complaint.CanCreateStage(guardCtx).Error()
	case err != nil:
		return fmt.Errorf("failed to load case: %w", err)
	}

	guardCtx.CaseExists = true
	guardCtx.CurrentStatus = complaint.Status(record.Status)

	var evaluate func(complaint.StageGuardContext) complaint.GuardResult
	switch kind {
	case complaint.StageServiceRequest:
		evaluate = complaint.CanCreateServiceRequest
		guardCtx.OccupiedSlotID = record.ServiceRequestID
	case complaint.StageWorkOrder:
		evaluate = complaint.CanCreateWorkOrder
		guardCtx.RecordedParentID = record.ServiceRequestID
		guardCtx.OccupiedSlotID = record.WorkOrderID
	case complaint.StageRepairReport:
		evaluate = complaint.CanCreateRepairReport
		guardCtx.RecordedParentID = record.WorkOrderID
		guardCtx.OccupiedSlotID = record.RepairReportID
	default:
		return fmt.Errorf("unknown stage kind %q", kind)
	}

	if kind.HasParent() && parentID != "" {
		guardCtx.ParentExists, err = g.parentExists(ctx, repos, kind, parentID)
		if err != nil {
			return err
		}
	}

	return evaluate(guardCtx).Error()
}

func (g *TransitionGuards) parentExists(ctx context.Context, repos secondary.Repositories, kind complaint.StageKind, parentID string) (bool, error) {
	var (
		ok  bool
		err error
	)
	switch kind {
	case complaint.StageWorkOrder:
		ok, err = repos.ServiceRequests.Exists(ctx, parentID)
	case complaint.StageRepairReport:
		ok, err = repos.WorkOrders.Exists(ctx, parentID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", kind.ParentLabel(), err)
	}
	return ok, nil
}
