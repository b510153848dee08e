package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/caseflow/internal/ports/secondary"
)

const caseColumns = `id, customer_name, location, description, status, service_request_id, work_order_id, repair_report_id, processed_at, created_at, updated_at`

// CaseRepository implements secondary.CaseRepository with SQLite.
type CaseRepository struct {
	db querier
}

// NewCaseRepository creates a new SQLite case repository.
func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create persists a new case.
func (r *CaseRepository) Create(ctx context.Context, c *secondary.CaseRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cases (id, customer_name, location, description, status) VALUES (?, ?, ?, ?, ?)`,
		c.ID,
		c.CustomerName,
		c.Location,
		nullString(c.Description),
		c.Status,
	)
	if err != nil {
		return translateErr(fmt.Errorf("failed to create case: %w", err))
	}
	return nil
}

// GetByID retrieves a case by its ID.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*secondary.CaseRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	record, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, translateErr(fmt.Errorf("failed to get case: %w", err))
	}
	return record, nil
}

// List retrieves cases matching the given filters.
func (r *CaseRepository) List(ctx context.Context, filters secondary.CaseFilters) ([]*secondary.CaseRecord, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE 1=1`
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr(fmt.Errorf("failed to list cases: %w", err))
	}
	defer rows.Close()

	var cases []*secondary.CaseRecord
	for rows.Next() {
		record, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, record)
	}
	return cases, rows.Err()
}

// ListIDs returns every case id, oldest first.
func (r *CaseRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM cases ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, translateErr(fmt.Errorf("failed to list case ids: %w", err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan case id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetNextID returns the next available case ID.
func (r *CaseRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "cases", "CASE")
}

// UpdateStatus writes status, the optional pointer and processed_at in one statement.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id string, update secondary.StatusUpdate) error {
	query := "UPDATE cases SET status = ?, updated_at = CURRENT_TIMESTAMP"
	args := []any{update.Status}

	switch update.PointerColumn {
	case "":
	case "service_request_id", "work_order_id", "repair_report_id":
		query += ", " + update.PointerColumn + " = ?"
		args = append(args, nullString(update.PointerValue))
	default:
		return fmt.Errorf("unknown case pointer column %q", update.PointerColumn)
	}

	if !update.ProcessedAt.IsZero() {
		query += ", processed_at = ?"
		args = append(args, update.ProcessedAt.UTC())
	}

	query += " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateErr(fmt.Errorf("failed to update case status: %w", err))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("case %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

// SetPointers overwrites exactly the three pointer columns.
func (r *CaseRepository) SetPointers(ctx context.Context, id string, p secondary.PointerSet) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cases SET service_request_id = ?, work_order_id = ?, repair_report_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(p.ServiceRequestID),
		nullString(p.WorkOrderID),
		nullString(p.RepairReportID),
		id,
	)
	if err != nil {
		return translateErr(fmt.Errorf("failed to set case pointers: %w", err))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("case %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*secondary.CaseRecord, error) {
	var (
		description      sql.NullString
		serviceRequestID sql.NullString
		workOrderID      sql.NullString
		repairReportID   sql.NullString
		processedAt      sql.NullTime
		createdAt        time.Time
		updatedAt        time.Time
	)

	record := &secondary.CaseRecord{}
	err := row.Scan(&record.ID,
		&record.CustomerName,
		&record.Location,
		&description,
		&record.Status,
		&serviceRequestID,
		&workOrderID,
		&repairReportID,
		&processedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.Description = description.String
	record.ServiceRequestID = serviceRequestID.String
	record.WorkOrderID = workOrderID.String
	record.RepairReportID = repairReportID.String
	if processedAt.Valid {
		record.ProcessedAt = processedAt.Time.UTC().Format(time.RFC3339)
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Ensure CaseRepository implements the interface
var _ secondary.CaseRepository = (*CaseRepository)(nil)
