package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/caseflow/internal/ports/secondary"
)

// StatusHistoryRepository implements secondary.StatusHistoryRepository with SQLite.
// Triggers in the schema reject UPDATE and DELETE on the table.
type StatusHistoryRepository struct {
	db querier
}

// NewStatusHistoryRepository creates a new SQLite status history repository.
func NewStatusHistoryRepository(db *sql.DB) *StatusHistoryRepository {
	return &StatusHistoryRepository{db: db}
}

// Append inserts one history entry. An empty CreatedAt is stamped with the current time.
func (r *StatusHistoryRepository) Append(ctx context.Context, entry *secondary.StatusHistoryRecord) error {
	createdAt := entry.CreatedAt
	if createdAt == "" {
		createdAt = formatTime(time.Now())
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO status_history (id, case_id, status, actor_role, actor_id, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CaseID,
		entry.Status,
		entry.ActorRole,
		nullString(entry.ActorID),
		nullString(entry.Note),
		createdAt,
	)
	if err != nil {
		return translateErr(fmt.Errorf("failed to append status history: %w", err))
	}
	return nil
}

// ListByCase returns a case's entries ordered by creation time. Entries with
// the same timestamp keep insertion order.
func (r *StatusHistoryRepository) ListByCase(ctx context.Context, caseID string) ([]*secondary.StatusHistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_id, status, actor_role, actor_id, note, created_at FROM status_history WHERE case_id = ? ORDER BY created_at ASC, rowid ASC`,
		caseID,
	)
	if err != nil {
		return nil, translateErr(fmt.Errorf("failed to list status history: %w", err))
	}
	defer rows.Close()

	var entries []*secondary.StatusHistoryRecord
	for rows.Next() {
		var actorID, note sql.NullString
		entry := &secondary.StatusHistoryRecord{}
		if err := rows.Scan(&entry.ID, &entry.CaseID, &entry.Status, &entry.ActorRole, &actorID, &note, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		entry.ActorID = actorID.String
		entry.Note = note.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Ensure StatusHistoryRepository implements the interface
var _ secondary.StatusHistoryRepository = (*StatusHistoryRepository)(nil)
