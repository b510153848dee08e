package complaint

// Chain is the triple of stage record ids linked to a case.
// An empty string means the slot is null.
type Chain struct {
	ServiceRequestID string
	WorkOrderID      string
	RepairReportID   string
}

// ChainDiff lists which pointer fields differ between stored and canonical chains.
type ChainDiff struct {
	ServiceRequest bool
	WorkOrder      bool
	RepairReport   bool
}

// Mismatch reports whether any pointer differs.
func (d ChainDiff) Mismatch() bool {
	return d.ServiceRequest || d.WorkOrder || d.RepairReport
}

// Fields returns the names of drifted pointer fields.
func (d ChainDiff) Fields() []PointerField {
	var out []PointerField
	if d.ServiceRequest {
		out = append(out, PointerServiceRequest)
	}
	if d.WorkOrder {
		out = append(out, PointerWorkOrder)
	}
	if d.RepairReport {
		out = append(out, PointerRepairReport)
	}
	return out
}

// CompareChain compares a case's cached pointers against the canonical chain.
func CompareChain(stored, canonical Chain) ChainDiff {
	return ChainDiff{
		ServiceRequest: stored.ServiceRequestID != canonical.ServiceRequestID,
		WorkOrder:      stored.WorkOrderID != canonical.WorkOrderID,
		RepairReport:   stored.RepairReportID != canonical.RepairReportID,
	}
}

// ConsistentWithStatus reports whether the pointers match what the status
// implies. Drift between a write and its reconciliation is tolerated, so this
// is diagnostic only.
func ConsistentWithStatus(status Status, c Chain) bool {
	has := func(id string) bool { return id != "" }
	switch status {
	case StatusReported:
		return !has(c.ServiceRequestID) && !has(c.WorkOrderID) && !has(c.RepairReportID)
	case StatusPSPCreated:
		return has(c.ServiceRequestID) && !has(c.RepairReportID)
	case StatusSPKCreated:
		return has(c.ServiceRequestID) && has(c.WorkOrderID) && !has(c.RepairReportID)
	case StatusRRCreated, StatusCompleted, StatusMonitoring:
		return has(c.ServiceRequestID) && has(c.WorkOrderID) && has(c.RepairReportID)
	}
	return false
}
