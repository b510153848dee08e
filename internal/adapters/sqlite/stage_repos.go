package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/caseflow/internal/ports/secondary"
)

// ServiceRequestRepository implements secondary.ServiceRequestRepository with SQLite.
type ServiceRequestRepository struct {
	db querier
}

// NewServiceRequestRepository creates a new SQLite service request repository.
func NewServiceRequestRepository(db *sql.DB) *ServiceRequestRepository {
	return &ServiceRequestRepository{db: db}
}

// Create persists a new service request.
func (r *ServiceRequestRepository) Create(ctx context.Context, sr *secondary.ServiceRequestRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO service_requests (id, case_id, summary, created_by) VALUES (?, ?, ?, ?)`,
		sr.ID,
		sr.CaseID,
		sr.Summary,
		nullString(sr.CreatedBy),
	)
	if err != nil {
		return translateErr(fmt.Errorf("failed to create service request: %w", err))
	}
	return nil
}

// GetByID retrieves a service request by its ID.
func (r *ServiceRequestRepository) GetByID(ctx context.Context, id string) (*secondary.ServiceRequestRecord, error) {
	return r.getOne(ctx, "id", id)
}

// GetByCase retrieves the service request created for a case.
func (r *ServiceRequestRepository) GetByCase(ctx context.Context, caseID string) (*secondary.ServiceRequestRecord, error) {
	return r.getOne(ctx, "case_id", caseID)
}

func (r *ServiceRequestRepository) getOne(ctx context.Context, column, value string) (*secondary.ServiceRequestRecord, error) {
	var (
		createdBy sql.NullString
		createdAt time.Time
	)

	record := &secondary.ServiceRequestRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, case_id, summary, created_by, created_at FROM service_requests WHERE `+column+` = ?`,
		value,
	).Scan(&record.ID, &record.CaseID, &record.Summary, &createdBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service request with %s %s: %w", column, value, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, translateErr(fmt.Errorf("failed to get service request: %w", err))
	}

	record.CreatedBy = createdBy.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

// Exists checks if a service request exists.
func (r *ServiceRequestRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, "service_requests", id)
}

// GetNextID returns the next available service request ID.
func (r *ServiceRequestRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "service_requests", "SR")
}

// WorkOrderRepository implements secondary.WorkOrderRepository with SQLite.
type WorkOrderRepository struct {
	db querier
}

// NewWorkOrderRepository creates a new SQLite work order repository.
func NewWorkOrderRepository(db *sql.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// Create persists a new work order.
func (r *WorkOrderRepository) Create(ctx context.Context, wo *secondary.WorkOrderRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO work_orders (id, service_request_id, assigned_team, instructions) VALUES (?, ?, ?, ?)`,
		wo.ID,
		wo.ServiceRequestID,
		nullString(wo.AssignedTeam),
		nullString(wo.Instructions),
	)
	if err != nil {
		return translateErr(fmt.Errorf("failed to create work order: %w", err))
	}
	return nil
}

// GetByID retrieves a work order by its ID.
func (r *WorkOrderRepository) GetByID(ctx context.Context, id string) (*secondary.WorkOrderRecord, error) {
	return r.getOne(ctx, "id", id)
}

// GetByServiceRequest retrieves the work order whose parent is the service request.
func (r *WorkOrderRepository) GetByServiceRequest(ctx context.Context, serviceRequestID string) (*secondary.WorkOrderRecord, error) {
	return r.getOne(ctx, "service_request_id", serviceRequestID)
}

func (r *WorkOrderRepository) getOne(ctx context.Context, column, value string) (*secondary.WorkOrderRecord, error) {
	var (
		assignedTeam sql.NullString
		instructions sql.NullString
		createdAt    time.Time
	)

	record := &secondary.WorkOrderRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, service_request_id, assigned_team, instructions, created_at FROM work_orders WHERE `+column+` = ?`,
		value,
	).Scan(&record.ID, &record.ServiceRequestID, &assignedTeam, &instructions, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work order with %s %s: %w", column, value, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, translateErr(fmt.Errorf("failed to get work order: %w", err))
	}

	record.AssignedTeam = assignedTeam.String
	record.Instructions = instructions.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

// Exists checks if a work order exists.
func (r *WorkOrderRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, "work_orders", id)
}

// GetNextID returns the next available work order ID.
func (r *WorkOrderRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "work_orders", "WO")
}

// RepairReportRepository implements secondary.RepairReportRepository with SQLite.
type RepairReportRepository struct {
	db querier
}

// NewRepairReportRepository creates a new SQLite repair report repository.
func NewRepairReportRepository(db *sql.DB) *RepairReportRepository {
	return &RepairReportRepository{db: db}
}

// Create persists a new repair report.
func (r *RepairReportRepository) Create(ctx context.Context, rr *secondary.RepairReportRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO repair_reports (id, work_order_id, result, findings) VALUES (?, ?, ?, ?)`,
		rr.ID,
		rr.WorkOrderID,
		rr.Result,
		nullString(rr.Findings),
	)
	if err != nil {
		return translateErr(fmt.Errorf("failed to create repair report: %w", err))
	}
	return nil
}

// GetByID retrieves a repair report by its ID.
func (r *RepairReportRepository) GetByID(ctx context.Context, id string) (*secondary.RepairReportRecord, error) {
	return r.getOne(ctx, "id", id)
}

// GetByWorkOrder retrieves the repair report whose parent is the work order.
func (r *RepairReportRepository) GetByWorkOrder(ctx context.Context, workOrderID string) (*secondary.RepairReportRecord, error) {
	return r.getOne(ctx, "work_order_id", workOrderID)
}

func (r *RepairReportRepository) getOne(ctx context.Context, column, value string) (*secondary.RepairReportRecord, error) {
	var (
		findings  sql.NullString
		createdAt time.Time
	)

	record := &secondary.RepairReportRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, work_order_id, result, findings, created_at FROM repair_reports WHERE `+column+` = ?`,
		value,
	).Scan(&record.ID, &record.WorkOrderID, &record.Result, &findings, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repair report with %s %s: %w", column, value, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, translateErr(fmt.Errorf("failed to get repair report: %w", err))
	}

	record.Findings = findings.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

// Exists checks if a repair report exists.
func (r *RepairReportRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, "repair_reports", id)
}

// GetNextID returns the next available repair report ID.
func (r *RepairReportRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "repair_reports", "RR")
}

// Ensure repositories implement the interfaces
var (
	_ secondary.ServiceRequestRepository = (*ServiceRequestRepository)(nil)
	_ secondary.WorkOrderRepository      = (*WorkOrderRepository)(nil)
	_ secondary.RepairReportRepository   = (*RepairReportRepository)(nil)
)
