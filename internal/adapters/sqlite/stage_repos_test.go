package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/caseflow/internal/adapters/sqlite"
	"github.com/example/caseflow/internal/ports/secondary"
)

func TestServiceRequestRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewServiceRequestRepository(db)
	ctx := context.Background()
	seedCase(t, db, "CASE-001", "")

	id, err := repo.GetNextID(ctx)
	if err != nil || id != "SR-001" {
		t.Fatalf("expected SR-001, got %q (%v)", id, err)
	}

	if err := repo.Create(ctx, &secondary.ServiceRequestRecord{ID: id, CaseID: "CASE-001", Summary: "Inspect", CreatedBy: "op-1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByCase(ctx, "CASE-001")
	if err != nil {
		t.Fatalf("GetByCase failed: %v", err)
	}
	if got.ID != "SR-001" || got.CreatedBy != "op-1" {
		t.Errorf("unexpected service request: %+v", got)
	}

	ok, err := repo.Exists(ctx, "SR-001")
	if err != nil || !ok {
		t.Errorf("expected SR-001 to exist, got %v (%v)", ok, err)
	}
	ok, _ = repo.Exists(ctx, "SR-404")
	if ok {
		t.Error("expected SR-404 not to exist")
	}

	err = repo.Create(ctx, &secondary.ServiceRequestRecord{ID: "SR-002", CaseID: "CASE-001", Summary: "again"})
	if !errors.Is(err, secondary.ErrUniqueViolation) {
		t.Errorf("expected ErrUniqueViolation for second service request, got %v", err)
	}

	_, err = repo.GetByID(ctx, "SR-404")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewWorkOrderRepository(db)
	ctx := context.Background()
	seedCase(t, db, "CASE-001", "")
	seedServiceRequest(t, db, "SR-001", "CASE-001")

	if err := repo.Create(ctx, &secondary.WorkOrderRecord{ID: "WO-001", ServiceRequestID: "SR-001", AssignedTeam: "North"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByServiceRequest(ctx, "SR-001")
	if err != nil {
		t.Fatalf("GetByServiceRequest failed: %v", err)
	}
	if got.ID != "WO-001" || got.AssignedTeam != "North" || got.Instructions != "" {
		t.Errorf("unexpected work order: %+v", got)
	}

	err = repo.Create(ctx, &secondary.WorkOrderRecord{ID: "WO-002", ServiceRequestID: "SR-001"})
	if !errors.Is(err, secondary.ErrUniqueViolation) {
		t.Errorf("expected ErrUniqueViolation for second work order, got %v", err)
	}

	err = repo.Create(ctx, &secondary.WorkOrderRecord{ID: "WO-003", ServiceRequestID: "SR-404"})
	if err == nil {
		t.Error("expected foreign key violation for unknown service request")
	}

	_, err = repo.GetByServiceRequest(ctx, "SR-404")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepairReportRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRepairReportRepository(db)
	ctx := context.Background()
	seedCase(t, db, "CASE-001", "")
	seedServiceRequest(t, db, "SR-001", "CASE-001")
	seedWorkOrder(t, db, "WO-001", "SR-001")

	if err := repo.Create(ctx, &secondary.RepairReportRecord{ID: "RR-001", WorkOrderID: "WO-001", Result: "REPLACED", Findings: "valve"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByWorkOrder(ctx, "WO-001")
	if err != nil {
		t.Fatalf("GetByWorkOrder failed: %v", err)
	}
	if got.ID != "RR-001" || got.Result != "REPLACED" || got.Findings != "valve" {
		t.Errorf("unexpected repair report: %+v", got)
	}

	next, _ := repo.GetNextID(ctx)
	if next != "RR-002" {
		t.Errorf("expected RR-002, got %q", next)
	}

	err = repo.Create(ctx, &secondary.RepairReportRecord{ID: "RR-002", WorkOrderID: "WO-001", Result: "FIXED"})
	if !errors.Is(err, secondary.ErrUniqueViolation) {
		t.Errorf("expected ErrUniqueViolation for second repair report, got %v", err)
	}
}

func TestStatusHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStatusHistoryRepository(db)
	ctx := context.Background()
	seedCase(t, db, "CASE-001", "")

	entries := []*secondary.StatusHistoryRecord{
		{ID: "h2", CaseID: "CASE-001", Status: "SPK_CREATED", ActorRole: "OPERATOR", CreatedAt: "2024-01-01T00:00:02.000000000Z"},
		{ID: "h1", CaseID: "CASE-001", Status: "PSP_CREATED", ActorRole: "OPERATOR", ActorID: "op-1", Note: "n", CreatedAt: "2024-01-01T00:00:01.000000000Z"},
		{ID: "h3", CaseID: "CASE-001", Status: "RR_CREATED", ActorRole: "TECHNICIAN", CreatedAt: "2024-01-01T00:00:02.000000000Z"},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := repo.ListByCase(ctx, "CASE-001")
	if err != nil {
		t.Fatalf("ListByCase failed: %v", err)
	}
	wantIDs := []string{"h1", "h2", "h3"}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(got))
	}
	for i, e := range got {
		if e.ID != wantIDs[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantIDs[i], e.ID)
		}
	}
	if got[0].ActorID != "op-1" || got[1].ActorID != "" {
		t.Errorf("unexpected actor ids: %q, %q", got[0].ActorID, got[1].ActorID)
	}
}

func TestStatusHistory_IsAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStatusHistoryRepository(db)
	seedCase(t, db, "CASE-001", "")

	if err := repo.Append(context.Background(), &secondary.StatusHistoryRecord{ID: "h1", CaseID: "CASE-001", Status: "REPORTED", ActorRole: "OPERATOR"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if _, err := db.Exec("UPDATE status_history SET note = 'edited' WHERE id = 'h1'"); err == nil {
		t.Error("expected UPDATE on status_history to be rejected")
	}
	if _, err := db.Exec("DELETE FROM status_history WHERE id = 'h1'"); err == nil {
		t.Error("expected DELETE on status_history to be rejected")
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM status_history"); n != 1 {
		t.Errorf("expected 1 history row, got %d", n)
	}
}
