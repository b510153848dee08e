package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/example/caseflow/internal/core/complaint"
	"github.com/example/caseflow/internal/ctxutil"
	"github.com/example/caseflow/internal/ports/primary"
	"github.com/example/caseflow/internal/ports/secondary"
)

// CaseWorkflowOptions configures a CaseWorkflowServiceImpl.
type CaseWorkflowOptions struct {
	// RevisionRole is the only actor role allowed to send a case back for revision.
	RevisionRole string
	// RetryInitialInterval and RetryMaxElapsed bound retries of a whole
	// operation when the store reports lock contention.
	RetryInitialInterval time.Duration
	RetryMaxElapsed      time.Duration
	Logger               *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// CaseWorkflowServiceImpl implements the CaseWorkflowService interface.
// Every operation runs inside one unit of work: guard, insert, milestone
// transition and reconciliation commit or roll back together.
type CaseWorkflowServiceImpl struct {
	uow        secondary.UnitOfWork
	guards     *TransitionGuards
	flow       *ComplaintFlow
	reconciler *ChainReconciler
	opts       CaseWorkflowOptions
	logger     *slog.Logger
}

// NewCaseWorkflowService creates a new CaseWorkflowService with injected dependencies.
func NewCaseWorkflowService(uow secondary.UnitOfWork, opts CaseWorkflowOptions) *CaseWorkflowServiceImpl {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.RetryInitialInterval <= 0 {
		opts.RetryInitialInterval = 25 * time.Millisecond
	}
	if opts.RetryMaxElapsed <= 0 {
		opts.RetryMaxElapsed = 5 * time.Second
	}

	audit := NewAuditTrailWriter(opts.Clock)
	transitions := NewStatusTransitionService(audit, opts.RevisionRole, opts.Logger)

	return &CaseWorkflowServiceImpl{
		uow:        uow,
		guards:     NewTransitionGuards(),
		flow:       NewComplaintFlow(transitions, opts.Clock),
		reconciler: NewChainReconciler(opts.Logger),
		opts:       opts,
		logger:     opts.Logger,
	}
}

// OpenCase records a new complaint at the initial status.
func (s *CaseWorkflowServiceImpl) OpenCase(ctx context.Context, req primary.OpenCaseRequest) (*primary.Case, error) {
	if req.CustomerName == "" {
		return nil, fmt.Errorf("customer name is required")
	}
	if req.Location == "" {
		return nil, fmt.Errorf("location is required")
	}

	var created *secondary.CaseRecord
	err := s.inTx(ctx, "open case", func(ctx context.Context, repos secondary.Repositories) error {
		nextID, err := repos.Cases.GetNextID(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate case ID: %w", err)
		}

		record := &secondary.CaseRecord{
			ID:           nextID,
			CustomerName: req.CustomerName,
			Location:     req.Location,
			Description:  req.Description,
			Status:       string(complaint.InitialStatus()),
		}
		if err := repos.Cases.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}

		created, err = repos.Cases.GetByID(ctx, nextID)
		if err != nil {
			return fmt.Errorf("failed to fetch created case: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("case opened", "case", created.ID)
	return recordToCase(created), nil
}

// CreateServiceRequest creates the PSP stage and moves the case to PSP_CREATED.
func (s *CaseWorkflowServiceImpl) CreateServiceRequest(ctx context.Context, req primary.CreateServiceRequestRequest) (*primary.StageResponse, error) {
	if req.Summary == "" {
		return nil, fmt.Errorf("summary is required")
	}
	actor := ctxutil.ActorFromContext(ctx)

	var resp *primary.StageResponse
	err := s.inTx(ctx, "create service request", func(ctx context.Context, repos secondary.Repositories) error {
		if err := s.guards.Run(ctx, repos, complaint.StageServiceRequest, req.CaseID, ""); err != nil {
			return err
		}

		nextID, err := repos.ServiceRequests.GetNextID(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate service request ID: %w", err)
		}
		err = repos.ServiceRequests.Create(ctx, &secondary.ServiceRequestRecord{
			ID:        nextID,
			CaseID:    req.CaseID,
			Summary:   req.Summary,
			CreatedBy: actor.ID,
		})
		if err != nil {
			return stageInsertErr(complaint.StageServiceRequest, req.CaseID, err)
		}

		if _, err := s.flow.MarkPSPCreated(ctx, repos, req.CaseID, nextID, req.Note); err != nil {
			return err
		}

		resp, err = s.finishStage(ctx, repos, req.CaseID, nextID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateWorkOrder creates the SPK stage and moves the case to SPK_CREATED.
func (s *CaseWorkflowServiceImpl) CreateWorkOrder(ctx context.Context, req primary.CreateWorkOrderRequest) (*primary.StageResponse, error) {
	var resp *primary.StageResponse
	err := s.inTx(ctx, "create work order", func(ctx context.Context, repos secondary.Repositories) error {
		if err := s.guards.Run(ctx, repos, complaint.StageWorkOrder, req.CaseID, req.ServiceRequestID); err != nil {
			return err
		}

		nextID, err := repos.WorkOrders.GetNextID(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate work order ID: %w", err)
		}
		err = repos.WorkOrders.Create(ctx, &secondary.WorkOrderRecord{
			ID:               nextID,
			ServiceRequestID: req.ServiceRequestID,
			AssignedTeam:     req.AssignedTeam,
			Instructions:     req.Instructions,
		})
		if err != nil {
			return stageInsertErr(complaint.StageWorkOrder, req.CaseID, err)
		}

		if _, err := s.flow.MarkSPKCreated(ctx, repos, req.CaseID, nextID, req.Note); err != nil {
			return err
		}

		resp, err = s.finishStage(ctx, repos, req.CaseID, nextID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateRepairReport creates the RR stage, records RR_CREATED, then the
// terminal status implied by the declared result. Two audit entries result.
func (s *CaseWorkflowServiceImpl) CreateRepairReport(ctx context.Context, req primary.CreateRepairReportRequest) (*primary.StageResponse, error) {
	result, err := complaint.ParseRepairResult(req.Result)
	if err != nil {
		return nil, err
	}

	var resp *primary.StageResponse
	err = s.inTx(ctx, "create repair report", func(ctx context.Context, repos secondary.Repositories) error {
		if err := s.guards.Run(ctx, repos, complaint.StageRepairReport, req.CaseID, req.WorkOrderID); err != nil {
			return err
		}

		nextID, err := repos.RepairReports.GetNextID(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate repair report ID: %w", err)
		}
		err = repos.RepairReports.Create(ctx, &secondary.RepairReportRecord{
			ID:          nextID,
			WorkOrderID: req.WorkOrderID,
			Result:      string(result),
			Findings:    req.Findings,
		})
		if err != nil {
			return stageInsertErr(complaint.StageRepairReport, req.CaseID, err)
		}

		if _, err := s.flow.MarkRRCreated(ctx, repos, req.CaseID, nextID, req.Note); err != nil {
			return err
		}
		if _, err := s.flow.MarkOutcome(ctx, repos, req.CaseID, result, ""); err != nil {
			return err
		}

		resp, err = s.finishStage(ctx, repos, req.CaseID, nextID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RequestRevision sends a case at SPK_CREATED back to PSP_CREATED.
// The work order pointer is kept so the same order can be resubmitted.
func (s *CaseWorkflowServiceImpl) RequestRevision(ctx context.Context, caseID, note string) (*primary.Case, error) {
	return s.transitionAndReconcile(ctx, "request revision", caseID, func(ctx context.Context, repos secondary.Repositories) error {
		_, err := s.flow.MarkNeedsRevision(ctx, repos, caseID, note)
		return err
	})
}

// ResubmitWorkOrder moves a revised case back to SPK_CREATED with its existing work order.
func (s *CaseWorkflowServiceImpl) ResubmitWorkOrder(ctx context.Context, caseID, note string) (*primary.Case, error) {
	return s.transitionAndReconcile(ctx, "resubmit work order", caseID, func(ctx context.Context, repos secondary.Repositories) error {
		record, err := loadCase(ctx, repos.Cases, caseID)
		if err != nil {
			return err
		}
		if record.WorkOrderID == "" {
			return complaint.Errorf(complaint.KindInvalidTransition,
				"case %s has no work order to resubmit (current status: %s)", caseID, record.Status)
		}
		_, err = s.flow.MarkSPKCreated(ctx, repos, caseID, record.WorkOrderID, note)
		return err
	})
}

// RunGuard checks whether a stage could be created right now, without writing.
func (s *CaseWorkflowServiceImpl) RunGuard(ctx context.Context, req primary.GuardRequest) error {
	kind, err := complaint.ParseStageKind(req.Kind)
	if err != nil {
		return err
	}
	return s.inView(ctx, "run guard", func(ctx context.Context, repos secondary.Repositories) error {
		return s.guards.Run(ctx, repos, kind, req.CaseID, req.ParentID)
	})
}

// Transition applies a pointer-free milestone (REPORTED, COMPLETED, MONITORING).
func (s *CaseWorkflowServiceImpl) Transition(ctx context.Context, req primary.TransitionRequest) (*primary.Case, error) {
	target, err := complaint.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	transition, err := complaint.ForTarget(target)
	if err != nil {
		return nil, err
	}

	var updated *secondary.CaseRecord
	err = s.inTx(ctx, "transition", func(ctx context.Context, repos secondary.Repositories) error {
		var applyErr error
		updated, applyErr = s.flow.Apply(ctx, repos, req.CaseID, transition, req.Note)
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return recordToCase(updated), nil
}

// Reconcile compares (and optionally repairs) a case's cached stage pointers.
func (s *CaseWorkflowServiceImpl) Reconcile(ctx context.Context, caseID string, fix bool) (*primary.ReconcileResult, error) {
	// Dry runs read a snapshot; only a fix takes the write lock.
	run := s.inView
	if fix {
		run = s.inTx
	}

	var result *Reconciliation
	err := run(ctx, "reconcile", func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		result, err = s.reconciler.Reconcile(ctx, repos, caseID, fix)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toReconcileResult(caseID, result), nil
}

// ReconcileAll runs Reconcile over every case and returns the drifted ones.
// Each case is reconciled in its own transaction.
func (s *CaseWorkflowServiceImpl) ReconcileAll(ctx context.Context, fix bool) ([]*primary.ReconcileResult, error) {
	var ids []string
	err := s.inView(ctx, "list cases", func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		ids, err = repos.Cases.ListIDs(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	var drifted []*primary.ReconcileResult
	for _, id := range ids {
		result, err := s.Reconcile(ctx, id, fix)
		if err != nil {
			return drifted, fmt.Errorf("failed to reconcile case %s: %w", id, err)
		}
		if result.Mismatch {
			drifted = append(drifted, result)
		}
	}

	s.logger.Info("reconciliation sweep finished", "cases", len(ids), "drifted", len(drifted), "fix", fix)
	return drifted, nil
}

// GetCase retrieves a case by ID.
func (s *CaseWorkflowServiceImpl) GetCase(ctx context.Context, caseID string) (*primary.Case, error) {
	var record *secondary.CaseRecord
	err := s.inView(ctx, "get case", func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		record, err = loadCase(ctx, repos.Cases, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToCase(record), nil
}

// ListCases lists cases with optional filters.
func (s *CaseWorkflowServiceImpl) ListCases(ctx context.Context, filters primary.CaseFilters) ([]*primary.Case, error) {
	if filters.Status != "" {
		if _, err := complaint.ParseStatus(filters.Status); err != nil {
			return nil, err
		}
	}

	var records []*secondary.CaseRecord
	err := s.inView(ctx, "list cases", func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		records, err = repos.Cases.List(ctx, secondary.CaseFilters{
			Status: filters.Status,
			Limit:  filters.Limit,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	cases := make([]*primary.Case, len(records))
	for i, r := range records {
		cases[i] = recordToCase(r)
	}
	return cases, nil
}

// GetChain derives the canonical stage chain for a case without touching its pointers.
func (s *CaseWorkflowServiceImpl) GetChain(ctx context.Context, caseID string) (*primary.ChainReport, error) {
	var (
		record *secondary.CaseRecord
		chain  complaint.Chain
	)
	err := s.inView(ctx, "get chain", func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		record, err = loadCase(ctx, repos.Cases, caseID)
		if err != nil {
			return err
		}
		chain, err = s.reconciler.CanonicalChain(ctx, repos, record)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &primary.ChainReport{
		Case:         recordToCase(record),
		Canonical:    toPrimaryChain(chain),
		Inconsistent: !complaint.ConsistentWithStatus(complaint.Status(record.Status), chain),
	}, nil
}

// GetHistory returns a case's audit trail, oldest first.
func (s *CaseWorkflowServiceImpl) GetHistory(ctx context.Context, caseID string) ([]*primary.StatusHistoryEntry, error) {
	var records []*secondary.StatusHistoryRecord
	err := s.inView(ctx, "get history", func(ctx context.Context, repos secondary.Repositories) error {
		if _, err := loadCase(ctx, repos.Cases, caseID); err != nil {
			return err
		}
		var err error
		records, err = repos.History.ListByCase(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*primary.StatusHistoryEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.StatusHistoryEntry{
			ID:        r.ID,
			CaseID:    r.CaseID,
			Status:    r.Status,
			ActorRole: r.ActorRole,
			ActorID:   r.ActorID,
			Note:      r.Note,
			CreatedAt: r.CreatedAt,
		}
	}
	return entries, nil
}

// Helper methods

func (s *CaseWorkflowServiceImpl) transitionAndReconcile(ctx context.Context, op, caseID string, fn func(ctx context.Context, repos secondary.Repositories) error) (*primary.Case, error) {
	var updated *secondary.CaseRecord
	err := s.inTx(ctx, op, func(ctx context.Context, repos secondary.Repositories) error {
		if err := fn(ctx, repos); err != nil {
			return err
		}
		result, err := s.reconciler.Reconcile(ctx, repos, caseID, true)
		if err != nil {
			return err
		}
		updated = result.Case
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recordToCase(updated), nil
}

// finishStage reconciles pointers after a stage insert, in the same transaction.
func (s *CaseWorkflowServiceImpl) finishStage(ctx context.Context, repos secondary.Repositories, caseID, stageID string) (*primary.StageResponse, error) {
	result, err := s.reconciler.Reconcile(ctx, repos, caseID, true)
	if err != nil {
		return nil, err
	}
	return &primary.StageResponse{
		StageID: stageID,
		Case:    recordToCase(result.Case),
	}, nil
}

// inTx runs fn in a unit of work, retrying the whole unit while the store is busy.
func (s *CaseWorkflowServiceImpl) inTx(ctx context.Context, op string, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	return s.retry(ctx, op, func() error { return s.uow.Do(ctx, fn) })
}

// inView runs a read-only projection on one snapshot without the write lock.
func (s *CaseWorkflowServiceImpl) inView(ctx context.Context, op string, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	return s.retry(ctx, op, func() error { return s.uow.View(ctx, fn) })
}

func (s *CaseWorkflowServiceImpl) retry(ctx context.Context, op string, run func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.RetryInitialInterval
	bo.MaxElapsedTime = s.opts.RetryMaxElapsed

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := run()
		if err == nil {
			return nil
		}
		if errors.Is(err, secondary.ErrBusy) {
			s.logger.Debug("store busy, retrying", "op", op, "attempt", attempt)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

// stageInsertErr maps a uniqueness violation on a stage's parent column to DuplicateStage.
func stageInsertErr(kind complaint.StageKind, caseID string, err error) error {
	if errors.Is(err, secondary.ErrUniqueViolation) {
		return complaint.Errorf(complaint.KindDuplicateStage, "case %s already has a %s", caseID, kind.Label())
	}
	return fmt.Errorf("failed to create %s: %w", kind.Label(), err)
}

func recordToCase(r *secondary.CaseRecord) *primary.Case {
	return &primary.Case{
		ID:               r.ID,
		CustomerName:     r.CustomerName,
		Location:         r.Location,
		Description:      r.Description,
		Status:           r.Status,
		ServiceRequestID: r.ServiceRequestID,
		WorkOrderID:      r.WorkOrderID,
		RepairReportID:   r.RepairReportID,
		ProcessedAt:      r.ProcessedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func toPrimaryChain(c complaint.Chain) primary.Chain {
	return primary.Chain{
		ServiceRequestID: c.ServiceRequestID,
		WorkOrderID:      c.WorkOrderID,
		RepairReportID:   c.RepairReportID,
	}
}

func toReconcileResult(caseID string, r *Reconciliation) *primary.ReconcileResult {
	fields := make([]string, 0, 3)
	for _, f := range r.Diff.Fields() {
		fields = append(fields, string(f))
	}
	return &primary.ReconcileResult{
		CaseID:        caseID,
		Mismatch:      r.Diff.Mismatch(),
		Fixed:         r.Fixed,
		Inconsistent:  r.Inconsistent,
		DriftedFields: fields,
		Chain:         toPrimaryChain(r.Chain),
		Case:          recordToCase(r.Case),
	}
}

// Ensure CaseWorkflowServiceImpl implements the interface
var _ primary.CaseWorkflowService = (*CaseWorkflowServiceImpl)(nil)
