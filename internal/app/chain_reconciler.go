package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/caseflow/internal/core/complaint"
	"github.com/example/caseflow/internal/ports/secondary"
)

// Reconciliation is the outcome of one ChainReconciler run.
type Reconciliation struct {
	Diff         complaint.ChainDiff
	Chain        complaint.Chain
	Fixed        bool
	// Inconsistent reports that the canonical chain does not fit the case
	// status. Diagnostic only; status is left alone.
	Inconsistent bool
	Case         *secondary.CaseRecord
}

// ChainReconciler recomputes a case's canonical stage chain from the stage
// tables and optionally rewrites the case's cached pointers to match.
// It never changes status and raises only NotFound.
type ChainReconciler struct {
	logger *slog.Logger
}

// NewChainReconciler creates a ChainReconciler.
func NewChainReconciler(logger *slog.Logger) *ChainReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainReconciler{logger: logger}
}

// Reconcile compares the stored pointers of caseID against its canonical chain.
// With fix set and a mismatch found, exactly the three pointers are overwritten.
func (r *ChainReconciler) Reconcile(ctx context.Context, repos secondary.Repositories, caseID string, fix bool) (*Reconciliation, error) {
	record, err := loadCase(ctx, repos.Cases, caseID)
	if err != nil {
		return nil, err
	}

	chain, err := r.CanonicalChain(ctx, repos, record)
	if err != nil {
		return nil, err
	}

	stored := complaint.Chain{
		ServiceRequestID: record.ServiceRequestID,
		WorkOrderID:      record.WorkOrderID,
		RepairReportID:   record.RepairReportID,
	}
	diff := complaint.CompareChain(stored, chain)
	result := &Reconciliation{
		Diff:         diff,
		Chain:        chain,
		Inconsistent: !complaint.ConsistentWithStatus(complaint.Status(record.Status), chain),
		Case:         record,
	}
	if result.Inconsistent {
		r.logger.Warn("stage records do not match case status", "case", caseID, "status", record.Status)
	}

	if !diff.Mismatch() {
		return result, nil
	}

	r.logger.Warn("case pointers drifted", "case", caseID, "fields", diff.Fields(), "fix", fix)
	if !fix {
		return result, nil
	}

	err = repos.Cases.SetPointers(ctx, caseID, secondary.PointerSet{
		ServiceRequestID: chain.ServiceRequestID,
		WorkOrderID:      chain.WorkOrderID,
		RepairReportID:   chain.RepairReportID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to repair case pointers: %w", err)
	}

	updated, err := loadCase(ctx, repos.Cases, caseID)
	if err != nil {
		return nil, err
	}
	result.Fixed = true
	result.Case = updated
	return result, nil
}

// CanonicalChain walks service request, work order and repair report by
// foreign key. The case's recorded service request is trusted only if the row
// exists; otherwise the service request created for the case is used.
func (r *ChainReconciler) CanonicalChain(ctx context.Context, repos secondary.Repositories, record *secondary.CaseRecord) (complaint.Chain, error) {
	var chain complaint.Chain

	if record.ServiceRequestID != "" {
		ok, err := repos.ServiceRequests.Exists(ctx, record.ServiceRequestID)
		if err != nil {
			return chain, fmt.Errorf("failed to check service request: %w", err)
		}
		if ok {
			chain.ServiceRequestID = record.ServiceRequestID
		}
	}
	if chain.ServiceRequestID == "" {
		sr, err := repos.ServiceRequests.GetByCase(ctx, record.ID)
		switch {
		case errors.Is(err, secondary.ErrNotFound):
			return chain, nil
		case err != nil:
			return chain, fmt.Errorf("failed to look up service request: %w", err)
		}
		chain.ServiceRequestID = sr.ID
	}

	wo, err := repos.WorkOrders.GetByServiceRequest(ctx, chain.ServiceRequestID)
	switch {
	case errors.Is(err, secondary.ErrNotFound):
		return chain, nil
	case err != nil:
		return chain, fmt.Errorf("failed to look up work order: %w", err)
	}
	chain.WorkOrderID = wo.ID

	rr, err := repos.RepairReports.GetByWorkOrder(ctx, chain.WorkOrderID)
	switch {
	case errors.Is(err, secondary.ErrNotFound):
		return chain, nil
	case err != nil:
		return chain, fmt.Errorf("failed to look up repair report: %w", err)
	}
	chain.RepairReportID = rr.ID

	return chain, nil
}
