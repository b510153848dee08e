package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/caseflow/internal/core/complaint"
	"github.com/example/caseflow/internal/ctxutil"
	"github.com/example/caseflow/internal/ports/secondary"
)

// historyTimeLayout is fixed-width so stored timestamps sort lexically.
const historyTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AuditTrailWriter appends immutable status-change entries.
// It never validates or rejects an entry; only the enclosing transaction can fail it.
type AuditTrailWriter struct {
	now   func() time.Time
	newID func() string
}

// NewAuditTrailWriter creates an AuditTrailWriter stamping entries with now.
func NewAuditTrailWriter(now func() time.Time) *AuditTrailWriter {
	if now == nil {
		now = time.Now
	}
	return &AuditTrailWriter{
		now:   now,
		newID: func() string { return uuid.NewString() },
	}
}

// Append records that a case entered status.
func (w *AuditTrailWriter) Append(ctx context.Context, history secondary.StatusHistoryRepository, caseID string, status complaint.Status, actor ctxutil.Actor, note string) (*secondary.StatusHistoryRecord, error) {
	entry := &secondary.StatusHistoryRecord{
		ID:        w.newID(),
		CaseID:    caseID,
		Status:    string(status),
		ActorRole: actor.Role,
		ActorID:   actor.ID,
		Note:      note,
		CreatedAt: w.now().UTC().Format(historyTimeLayout),
	}

	if err := history.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record status history: %w", err)
	}
	return entry, nil
}
