package primary

import "context"

// CaseWorkflowService defines the primary port for the complaint case workflow.
// Every mutating operation runs guard, insert, status transition and chain
// reconciliation inside a single store transaction.
type CaseWorkflowService interface {
	// OpenCase records a new complaint at the initial status.
	OpenCase(ctx context.Context, req OpenCaseRequest) (*Case, error)

	// CreateServiceRequest creates the PSP stage and moves the case to PSP_CREATED.
	CreateServiceRequest(ctx context.Context, req CreateServiceRequestRequest) (*StageResponse, error)

	// CreateWorkOrder creates the SPK stage and moves the case to SPK_CREATED.
	CreateWorkOrder(ctx context.Context, req CreateWorkOrderRequest) (*StageResponse, error)

	// CreateRepairReport creates the RR stage, records RR_CREATED, then the
	// terminal status implied by the declared result.
	CreateRepairReport(ctx context.Context, req CreateRepairReportRequest) (*StageResponse, error)

	// RequestRevision sends a case at SPK_CREATED back to PSP_CREATED.
	RequestRevision(ctx context.Context, caseID, note string) (*Case, error)

	// ResubmitWorkOrder moves a revised case back to SPK_CREATED with its existing work order.
	ResubmitWorkOrder(ctx context.Context, caseID, note string) (*Case, error)

	// RunGuard checks whether a stage could be created right now, without writing.
	RunGuard(ctx context.Context, req GuardRequest) error

	// Transition applies a pointer-free milestone (REPORTED, COMPLETED, MONITORING).
	Transition(ctx context.Context, req TransitionRequest) (*Case, error)

	// Reconcile compares (and optionally repairs) a case's cached stage pointers.
	Reconcile(ctx context.Context, caseID string, fix bool) (*ReconcileResult, error)

	// ReconcileAll runs Reconcile over every case and returns the drifted ones.
	ReconcileAll(ctx context.Context, fix bool) ([]*ReconcileResult, error)

	// GetCase retrieves a case by ID.
	GetCase(ctx context.Context, caseID string) (*Case, error)

	// ListCases lists cases with optional filters.
	ListCases(ctx context.Context, filters CaseFilters) ([]*Case, error)

	// GetChain derives the canonical stage chain for a case without touching its pointers.
	GetChain(ctx context.Context, caseID string) (*ChainReport, error)

	// GetHistory returns a case's audit trail, oldest first.
	GetHistory(ctx context.Context, caseID string) ([]*StatusHistoryEntry, error)
}

// OpenCaseRequest contains parameters for opening a case.
type OpenCaseRequest struct {
	CustomerName string
	Location     string
	Description  string // Optional
}

// CreateServiceRequestRequest contains parameters for creating a service request.
type CreateServiceRequestRequest struct {
	CaseID  string
	Summary string
	Note    string // Optional audit note
}

// CreateWorkOrderRequest contains parameters for creating a work order.
type CreateWorkOrderRequest struct {
	CaseID           string
	ServiceRequestID string
	AssignedTeam     string // Optional
	Instructions     string // Optional
	Note             string // Optional audit note
}

// CreateRepairReportRequest contains parameters for creating a repair report.
type CreateRepairReportRequest struct {
	CaseID      string
	WorkOrderID string
	Result      string // FIXED, REPLACED, NO_FAULT_FOUND, MONITORING
	Findings    string // Optional
	Note        string // Optional audit note
}

// GuardRequest identifies a prospective stage creation.
type GuardRequest struct {
	Kind     string // SERVICE_REQUEST, WORK_ORDER, REPAIR_REPORT
	CaseID   string
	ParentID string // Empty for service requests
}

// TransitionRequest contains parameters for a generic milestone transition.
type TransitionRequest struct {
	CaseID string
	Status string
	Note   string // Optional
}

// StageResponse contains the created stage id and the case after reconciliation.
type StageResponse struct {
	StageID string
	Case    *Case
}

// CaseFilters contains filter options for listing cases.
type CaseFilters struct {
	Status string
	Limit  int
}

// Case represents a case at the port boundary.
type Case struct {
	ID               string
	CustomerName     string
	Location         string
	Description      string
	Status           string
	ServiceRequestID string
	WorkOrderID      string
	RepairReportID   string
	ProcessedAt      string
	CreatedAt        string
	UpdatedAt        string
}

// Chain is the stage linkage derived from the stage tables.
type Chain struct {
	ServiceRequestID string
	WorkOrderID      string
	RepairReportID   string
}

// ChainReport pairs a case with its canonical chain, read from one snapshot.
type ChainReport struct {
	Case         *Case
	Canonical    Chain
	// Inconsistent is set when the stage records do not fit the case status.
	Inconsistent bool
}

// ReconcileResult describes one reconciliation run.
type ReconcileResult struct {
	CaseID        string
	Mismatch      bool
	Fixed         bool
	Inconsistent  bool
	DriftedFields []string
	Chain         Chain
	Case          *Case
}

// StatusHistoryEntry represents one audit trail entry at the port boundary.
type StatusHistoryEntry struct {
	ID        string
	CaseID    string
	Status    string
	ActorRole string
	ActorID   string
	Note      string
	CreatedAt string
}
