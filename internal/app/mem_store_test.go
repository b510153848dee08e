package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/caseflow/internal/ports/secondary"
)

// memState is one snapshot of the in-memory store.
type memState struct {
	cases    map[string]secondary.CaseRecord
	srs      map[string]secondary.ServiceRequestRecord
	wos      map[string]secondary.WorkOrderRecord
	rrs      map[string]secondary.RepairReportRecord
	history  []secondary.StatusHistoryRecord
	caseSeq  int
	stampSeq int
}

func newMemState() *memState {
	return &memState{
		cases: make(map[string]secondary.CaseRecord),
		srs:   make(map[string]secondary.ServiceRequestRecord),
		wos:   make(map[string]secondary.WorkOrderRecord),
		rrs:   make(map[string]secondary.RepairReportRecord),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.cases {
		c.cases[k] = v
	}
	for k, v := range s.srs {
		c.srs[k] = v
	}
	for k, v := range s.wos {
		c.wos[k] = v
	}
	for k, v := range s.rrs {
		c.rrs[k] = v
	}
	c.history = append([]secondary.StatusHistoryRecord(nil), s.history...)
	c.caseSeq = s.caseSeq
	c.stampSeq = s.stampSeq
	return c
}

func (s *memState) stamp() string {
	s.stampSeq++
	return fmt.Sprintf("2024-01-01T00:00:%02dZ", s.stampSeq)
}

// memStore implements secondary.UnitOfWork for testing. Each Do works on a
// copy of the state which replaces the committed state only on success.
type memStore struct {
	mu        sync.Mutex
	state     *memState
	doCalls   int
	viewCalls int
	busyCalls int   // Do calls to reject with ErrBusy before running fn
	appendErr error // returned by every history Append
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) Do(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doCalls++
	if m.busyCalls > 0 {
		m.busyCalls--
		return fmt.Errorf("failed to begin transaction: %w", secondary.ErrBusy)
	}

	work := m.state.clone()
	if err := fn(ctx, m.repositories(work)); err != nil {
		return err
	}
	m.state = work
	return nil
}

// View runs fn on a throwaway copy of the committed state.
func (m *memStore) View(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viewCalls++
	return fn(ctx, m.repositories(m.state.clone()))
}

func (m *memStore) repositories(st *memState) secondary.Repositories {
	return secondary.Repositories{
		Cases:           &memCaseRepo{st: st},
		ServiceRequests: &memServiceRequestRepo{st: st},
		WorkOrders:      &memWorkOrderRepo{st: st},
		RepairReports:   &memRepairReportRepo{st: st},
		History:         &memHistoryRepo{st: st, err: m.appendErr},
	}
}

// committed returns a copy of a committed case, bypassing the unit of work.
func (m *memStore) committed(id string) (secondary.CaseRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.cases[id]
	return c, ok
}

// mutate edits the committed state directly, simulating out-of-band writes.
func (m *memStore) mutate(fn func(st *memState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.state)
}

var _ secondary.UnitOfWork = (*memStore)(nil)

type memCaseRepo struct{ st *memState }

func (r *memCaseRepo) Create(ctx context.Context, c *secondary.CaseRecord) error {
	if _, ok := r.st.cases[c.ID]; ok {
		return fmt.Errorf("case %s: %w", c.ID, secondary.ErrUniqueViolation)
	}
	rec := *c
	rec.CreatedAt = r.st.stamp()
	rec.UpdatedAt = rec.CreatedAt
	r.st.cases[c.ID] = rec
	r.st.caseSeq++
	return nil
}

func (r *memCaseRepo) GetByID(ctx context.Context, id string) (*secondary.CaseRecord, error) {
	c, ok := r.st.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, secondary.ErrNotFound)
	}
	return &c, nil
}

func (r *memCaseRepo) List(ctx context.Context, filters secondary.CaseFilters) ([]*secondary.CaseRecord, error) {
	var out []*secondary.CaseRecord
	for _, id := range sortedKeys(r.st.cases) {
		c := r.st.cases[id]
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		out = append(out, &c)
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (r *memCaseRepo) ListIDs(ctx context.Context) ([]string, error) {
	return sortedKeys(r.st.cases), nil
}

func (r *memCaseRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("CASE-%03d", r.st.caseSeq+1), nil
}

func (r *memCaseRepo) UpdateStatus(ctx context.Context, id string, update secondary.StatusUpdate) error {
	c, ok := r.st.cases[id]
	if !ok {
		return fmt.Errorf("case %s: %w", id, secondary.ErrNotFound)
	}
	c.Status = update.Status
	switch update.PointerColumn {
	case "service_request_id":
		c.ServiceRequestID = update.PointerValue
	case "work_order_id":
		c.WorkOrderID = update.PointerValue
	case "repair_report_id":
		c.RepairReportID = update.PointerValue
	}
	if !update.ProcessedAt.IsZero() {
		c.ProcessedAt = update.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	c.UpdatedAt = r.st.stamp()
	r.st.cases[id] = c
	return nil
}

func (r *memCaseRepo) SetPointers(ctx context.Context, id string, p secondary.PointerSet) error {
	c, ok := r.st.cases[id]
	if !ok {
		return fmt.Errorf("case %s: %w", id, secondary.ErrNotFound)
	}
	c.ServiceRequestID = p.ServiceRequestID
	c.WorkOrderID = p.WorkOrderID
	c.RepairReportID = p.RepairReportID
	c.UpdatedAt = r.st.stamp()
	r.st.cases[id] = c
	return nil
}

type memServiceRequestRepo struct{ st *memState }

func (r *memServiceRequestRepo) Create(ctx context.Context, sr *secondary.ServiceRequestRecord) error {
	for _, existing := range r.st.srs {
		if existing.CaseID == sr.CaseID {
			return fmt.Errorf("service request for %s: %w", sr.CaseID, secondary.ErrUniqueViolation)
		}
	}
	rec := *sr
	rec.CreatedAt = r.st.stamp()
	r.st.srs[sr.ID] = rec
	return nil
}

func (r *memServiceRequestRepo) GetByID(ctx context.Context, id string) (*secondary.ServiceRequestRecord, error) {
	sr, ok := r.st.srs[id]
	if !ok {
		return nil, fmt.Errorf("service request %s: %w", id, secondary.ErrNotFound)
	}
	return &sr, nil
}

func (r *memServiceRequestRepo) GetByCase(ctx context.Context, caseID string) (*secondary.ServiceRequestRecord, error) {
	for _, id := range sortedKeys(r.st.srs) {
		if sr := r.st.srs[id]; sr.CaseID == caseID {
			return &sr, nil
		}
	}
	return nil, fmt.Errorf("service request for case %s: %w", caseID, secondary.ErrNotFound)
}

func (r *memServiceRequestRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.st.srs[id]
	return ok, nil
}

func (r *memServiceRequestRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("SR-%03d", len(r.st.srs)+1), nil
}

type memWorkOrderRepo struct{ st *memState }

func (r *memWorkOrderRepo) Create(ctx context.Context, wo *secondary.WorkOrderRecord) error {
	for _, existing := range r.st.wos {
		if existing.ServiceRequestID == wo.ServiceRequestID {
			return fmt.Errorf("work order for %s: %w", wo.ServiceRequestID, secondary.ErrUniqueViolation)
		}
	}
	rec := *wo
	rec.CreatedAt = r.st.stamp()
	r.st.wos[wo.ID] = rec
	return nil
}

func (r *memWorkOrderRepo) GetByID(ctx context.Context, id string) (*secondary.WorkOrderRecord, error) {
	wo, ok := r.st.wos[id]
	if !ok {
		return nil, fmt.Errorf("work order %s: %w", id, secondary.ErrNotFound)
	}
	return &wo, nil
}

func (r *memWorkOrderRepo) GetByServiceRequest(ctx context.Context, serviceRequestID string) (*secondary.WorkOrderRecord, error) {
	for _, id := range sortedKeys(r.st.wos) {
		if wo := r.st.wos[id]; wo.ServiceRequestID == serviceRequestID {
			return &wo, nil
		}
	}
	return nil, fmt.Errorf("work order for %s: %w", serviceRequestID, secondary.ErrNotFound)
}

func (r *memWorkOrderRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.st.wos[id]
	return ok, nil
}

func (r *memWorkOrderRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("WO-%03d", len(r.st.wos)+1), nil
}

type memRepairReportRepo struct{ st *memState }

func (r *memRepairReportRepo) Create(ctx context.Context, rr *secondary.RepairReportRecord) error {
	for _, existing := range r.st.rrs {
		if existing.WorkOrderID == rr.WorkOrderID {
			return fmt.Errorf("repair report for %s: %w", rr.WorkOrderID, secondary.ErrUniqueViolation)
		}
	}
	rec := *rr
	rec.CreatedAt = r.st.stamp()
	r.st.rrs[rr.ID] = rec
	return nil
}

func (r *memRepairReportRepo) GetByID(ctx context.Context, id string) (*secondary.RepairReportRecord, error) {
	rr, ok := r.st.rrs[id]
	if !ok {
		return nil, fmt.Errorf("repair report %s: %w", id, secondary.ErrNotFound)
	}
	return &rr, nil
}

func (r *memRepairReportRepo) GetByWorkOrder(ctx context.Context, workOrderID string) (*secondary.RepairReportRecord, error) {
	for _, id := range sortedKeys(r.st.rrs) {
		if rr := r.st.rrs[id]; rr.WorkOrderID == workOrderID {
			return &rr, nil
		}
	}
	return nil, fmt.Errorf("repair report for %s: %w", workOrderID, secondary.ErrNotFound)
}

func (r *memRepairReportRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.st.rrs[id]
	return ok, nil
}

func (r *memRepairReportRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("RR-%03d", len(r.st.rrs)+1), nil
}

type memHistoryRepo struct {
	st  *memState
	err error
}

func (r *memHistoryRepo) Append(ctx context.Context, entry *secondary.StatusHistoryRecord) error {
	if r.err != nil {
		return r.err
	}
	r.st.history = append(r.st.history, *entry)
	return nil
}

func (r *memHistoryRepo) ListByCase(ctx context.Context, caseID string) ([]*secondary.StatusHistoryRecord, error) {
	var out []*secondary.StatusHistoryRecord
	for _, h := range r.st.history {
		if h.CaseID == caseID {
			entry := h
			out = append(out, &entry)
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
