package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/caseflow/internal/core/complaint"
	"github.com/example/caseflow/internal/ctxutil"
	"github.com/example/caseflow/internal/ports/secondary"
)

// StatusTransitionService is the only writer of a case's status column.
// It applies one validated edge plus its optional pointer and records the
// audit entry, both through the caller's transaction.
type StatusTransitionService struct {
	audit        *AuditTrailWriter
	revisionRole string
	logger       *slog.Logger
}

// NewStatusTransitionService creates a StatusTransitionService.
func NewStatusTransitionService(audit *AuditTrailWriter, revisionRole string, logger *slog.Logger) *StatusTransitionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusTransitionService{
		audit:        audit,
		revisionRole: revisionRole,
		logger:       logger,
	}
}

// Transition moves caseID along req and returns the case as written.
func (s *StatusTransitionService) Transition(ctx context.Context, repos secondary.Repositories, caseID string, req complaint.TransitionRequest, actor ctxutil.Actor, note string) (*secondary.CaseRecord, error) {
	record, err := loadCase(ctx, repos.Cases, caseID)
	if err != nil {
		return nil, err
	}

	current, err := complaint.ParseStatus(record.Status)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", caseID, err)
	}

	result := complaint.CanTransition(complaint.TransitionContext{
		CaseID:        caseID,
		CurrentStatus: current,
		Request:       req,
		ActorRole:     actor.Role,
		RevisionRole:  s.revisionRole,
	})
	if !result.Allowed {
		s.logger.Debug("transition rejected", "case", caseID, "target", req.Target(), "reason", result.Reason)
		return nil, result.Error()
	}

	update := secondary.StatusUpdate{Status: string(req.Target())}
	if field, id := req.Pointer(); field != complaint.PointerNone {
		update.PointerColumn = string(field)
		update.PointerValue = id
	}
	if at := req.ProcessedAt(); at != nil {
		update.ProcessedAt = *at
	}

	if err := repos.Cases.UpdateStatus(ctx, caseID, update); err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}

	if req.IsRevision() {
		note = complaint.RevisionNote(note)
	}
	if _, err := s.audit.Append(ctx, repos.History, caseID, req.Target(), actor, note); err != nil {
		return nil, err
	}

	s.logger.Info("case transitioned", "case", caseID, "from", current, "to", req.Target(), "role", actor.Role)

	return loadCase(ctx, repos.Cases, caseID)
}

// loadCase fetches a case, converting a missing row into the domain NotFound.
func loadCase(ctx context.Context, cases secondary.CaseRepository, caseID string) (*secondary.CaseRecord, error) {
	record, err := cases.GetByID(ctx, caseID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, complaint.Errorf(complaint.KindNotFound, "case %s not found", caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return record, nil
}
