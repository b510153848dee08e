// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) by repositories when a row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrUniqueViolation is returned (wrapped) when an insert hits a uniqueness
// constraint, e.g. a second work order for the same service request.
var ErrUniqueViolation = errors.New("unique constraint violated")

// ErrBusy is returned (wrapped) when the store could not acquire its write
// lock. The whole unit of work may be retried.
var ErrBusy = errors.New("store busy")

// UnitOfWork runs a function inside one atomic store transaction.
// If fn returns an error, nothing it wrote is observable afterwards.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// View runs fn against one consistent read snapshot without taking the
	// write lock. Anything fn writes is discarded.
	View(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Repositories bundles every repository bound to the same transaction.
type Repositories struct {
	Cases           CaseRepository
	ServiceRequests ServiceRequestRepository
	WorkOrders      WorkOrderRepository
	RepairReports   RepairReportRepository
	History         StatusHistoryRepository
}

// CaseRepository defines the secondary port for case persistence.
// Status and pointer columns are only written through UpdateStatus and SetPointers.
type CaseRepository interface {
	// Create persists a new case.
	Create(ctx context.Context, c *CaseRecord) error

	// GetByID retrieves a case by its ID.
	GetByID(ctx context.Context, id string) (*CaseRecord, error)

	// List retrieves cases matching the given filters.
	List(ctx context.Context, filters CaseFilters) ([]*CaseRecord, error)

	// ListIDs returns every case id, oldest first.
	ListIDs(ctx context.Context) ([]string, error)

	// GetNextID returns the next available case ID.
	GetNextID(ctx context.Context) (string, error)

	// UpdateStatus writes status plus the optional pointer and processed_at in one statement.
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error

	// SetPointers overwrites exactly the three pointer columns.
	SetPointers(ctx context.Context, id string, pointers PointerSet) error
}

// CaseRecord represents a case as stored in persistence.
type CaseRecord struct {
	ID               string
	CustomerName     string
	Location         string
	Description      string // Empty string means null
	Status           string
	ServiceRequestID string // Empty string means null
	WorkOrderID      string // Empty string means null
	RepairReportID   string // Empty string means null
	ProcessedAt      string // Empty string means null
	CreatedAt        string
	UpdatedAt        string
}

// CaseFilters contains filter options for querying cases.
type CaseFilters struct {
	Status string
	Limit  int
}

// StatusUpdate is the single write applied by a status transition.
type StatusUpdate struct {
	Status string
	// PointerColumn is one of service_request_id, work_order_id, repair_report_id, or empty.
	PointerColumn string
	PointerValue  string
	// ProcessedAt is written when non-zero; zero leaves the column untouched.
	ProcessedAt time.Time
}

// PointerSet is the full triple of pointer values written by reconciliation.
// Empty strings are stored as NULL.
type PointerSet struct {
	ServiceRequestID string
	WorkOrderID      string
	RepairReportID   string
}

// ServiceRequestRepository defines the secondary port for service request persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, sr *ServiceRequestRecord) error
	GetByID(ctx context.Context, id string) (*ServiceRequestRecord, error)
	// GetByCase retrieves the service request created for a case.
	GetByCase(ctx context.Context, caseID string) (*ServiceRequestRecord, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetNextID(ctx context.Context) (string, error)
}

// ServiceRequestRecord represents a service request (PSP) as stored in persistence.
type ServiceRequestRecord struct {
	ID        string
	CaseID    string
	Summary   string
	CreatedBy string // Empty string means null
	CreatedAt string
}

// WorkOrderRepository defines the secondary port for work order persistence.
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *WorkOrderRecord) error
	GetByID(ctx context.Context, id string) (*WorkOrderRecord, error)
	// GetByServiceRequest retrieves the work order whose parent is the service request.
	GetByServiceRequest(ctx context.Context, serviceRequestID string) (*WorkOrderRecord, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetNextID(ctx context.Context) (string, error)
}

// WorkOrderRecord represents a work order (SPK) as stored in persistence.
type WorkOrderRecord struct {
	ID               string
	ServiceRequestID string
	AssignedTeam     string // Empty string means null
	Instructions     string // Empty string means null
	CreatedAt        string
}

// RepairReportRepository defines the secondary port for repair report persistence.
type RepairReportRepository interface {
	Create(ctx context.Context, rr *RepairReportRecord) error
	GetByID(ctx context.Context, id string) (*RepairReportRecord, error)
	// GetByWorkOrder retrieves the repair report whose parent is the work order.
	GetByWorkOrder(ctx context.Context, workOrderID string) (*RepairReportRecord, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetNextID(ctx context.Context) (string, error)
}

// RepairReportRecord represents a repair report (RR) as stored in persistence.
type RepairReportRecord struct {
	ID          string
	WorkOrderID string
	Result      string
	Findings    string // Empty string means null
	CreatedAt   string
}

// StatusHistoryRepository is the append-only audit trail port.
// There is intentionally no update or delete.
type StatusHistoryRepository interface {
	// Append inserts one history entry.
	Append(ctx context.Context, entry *StatusHistoryRecord) error

	// ListByCase returns a case's entries ordered by creation time.
	ListByCase(ctx context.Context, caseID string) ([]*StatusHistoryRecord, error)
}

// StatusHistoryRecord represents one audit entry as stored in persistence.
type StatusHistoryRecord struct {
	ID        string
	CaseID    string
	Status    string
	ActorRole string
	ActorID   string // Empty string means null
	Note      string // Empty string means null
	CreatedAt string
}
