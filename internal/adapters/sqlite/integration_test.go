package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/caseflow/internal/adapters/sqlite"
	"github.com/example/caseflow/internal/core/complaint"
	"github.com/example/caseflow/internal/ports/primary"
	"github.com/example/caseflow/internal/ports/secondary"
)

// Integration tests run the workflow service against a real SQLite store.

// ============================================================================
// Case Lifecycle Tests
// ============================================================================

func TestIntegration_CaseLifecycle(t *testing.T) {
	service, db := newTestService(t)
	ctx := actorCtx("OPERATOR")

	c, err := service.OpenCase(ctx, primary.OpenCaseRequest{CustomerName: "Siti", Location: "Blok C"})
	if err != nil {
		t.Fatalf("OpenCase failed: %v", err)
	}
	if c.ID != "CASE-001" || c.Status != "REPORTED" {
		t.Fatalf("unexpected case: %+v", c)
	}

	sr, err := service.CreateServiceRequest(ctx, primary.CreateServiceRequestRequest{CaseID: c.ID, Summary: "Check meter"})
	if err != nil {
		t.Fatalf("CreateServiceRequest failed: %v", err)
	}
	if sr.StageID != "SR-001" || sr.Case.Status != "PSP_CREATED" || sr.Case.ProcessedAt == "" {
		t.Errorf("unexpected state after SR: %+v", sr.Case)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM status_history WHERE case_id = ?", c.ID); n != 1 {
		t.Errorf("expected history length 1, got %d", n)
	}

	wo, err := service.CreateWorkOrder(ctx, primary.CreateWorkOrderRequest{CaseID: c.ID, ServiceRequestID: sr.StageID})
	if err != nil {
		t.Fatalf("CreateWorkOrder failed: %v", err)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM status_history WHERE case_id = ?", c.ID); n != 2 {
		t.Errorf("expected history length 2, got %d", n)
	}

	rr, err := service.CreateRepairReport(actorCtx("TECHNICIAN"), primary.CreateRepairReportRequest{CaseID: c.ID, WorkOrderID: wo.StageID, Result: "FIXED"})
	if err != nil {
		t.Fatalf("CreateRepairReport failed: %v", err)
	}
	if rr.Case.Status != "COMPLETED" {
		t.Errorf("expected COMPLETED, got %q", rr.Case.Status)
	}

	history, err := service.GetHistory(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	want := []string{"PSP_CREATED", "SPK_CREATED", "RR_CREATED", "COMPLETED"}
	if len(history) != len(want) {
		t.Fatalf("expected %d history entries, got %d", len(want), len(history))
	}
	for i, h := range history {
		if h.Status != want[i] {
			t.Errorf("history[%d]: expected %s, got %s", i, want[i], h.Status)
		}
	}
	if history[2].ActorRole != "TECHNICIAN" {
		t.Errorf("expected TECHNICIAN on RR entry, got %q", history[2].ActorRole)
	}

	result, err := service.Reconcile(ctx, c.ID, false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Mismatch {
		t.Errorf("expected no drift after lifecycle, got %+v", result)
	}
	if result.Chain != (primary.Chain{ServiceRequestID: "SR-001", WorkOrderID: "WO-001", RepairReportID: "RR-001"}) {
		t.Errorf("unexpected chain: %+v", result.Chain)
	}
}

func TestIntegration_SkippingPSPIsRejected(t *testing.T) {
	service, db := newTestService(t)
	ctx := actorCtx("OPERATOR")
	caseID := seedCase(t, db, "CASE-001", "REPORTED")

	_, err := service.CreateWorkOrder(ctx, primary.CreateWorkOrderRequest{CaseID: caseID})
	if complaint.KindOf(err) != complaint.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}

	status, sr, wo, rr := readCase(t, db, caseID)
	if status != "REPORTED" || sr.Valid || wo.Valid || rr.Valid {
		t.Errorf("expected case untouched, got status=%s sr=%v wo=%v rr=%v", status, sr, wo, rr)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM work_orders"); n != 0 {
		t.Errorf("expected no work orders, got %d", n)
	}
}

// ============================================================================
// Double Submission Tests
// ============================================================================

func TestIntegration_DoubleSubmitServiceRequest(t *testing.T) {
	service, db := newTestService(t)
	ctx := actorCtx("OPERATOR")
	caseID := seedCase(t, db, "CASE-001", "REPORTED")

	if _, err := service.CreateServiceRequest(ctx, primary.CreateServiceRequestRequest{CaseID: caseID, Summary: "one"}); err != nil {
		t.Fatalf("first CreateServiceRequest failed: %v", err)
	}
	_, err := service.CreateServiceRequest(ctx, primary.CreateServiceRequestRequest{CaseID: caseID, Summary: "two"})
	if !errors.Is(err, complaint.ErrDuplicateStage) {
		t.Fatalf("expected DuplicateStage, got %v", err)
	}

	_, sr, _, _ := readCase(t, db, caseID)
	if sr.String != "SR-001" {
		t.Errorf("expected pointer SR-001 unchanged, got %v", sr)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM service_requests"); n != 1 {
		t.Errorf("expected 1 service request, got %d", n)
	}
}

func TestIntegration_ConcurrentWorkOrderCreation(t *testing.T) {
	service, db := newTestService(t)
	ctx := actorCtx("OPERATOR")
	caseID := seedCase(t, db, "CASE-001", "REPORTED")

	sr, err := service.CreateServiceRequest(ctx, primary.CreateServiceRequestRequest{CaseID: caseID, Summary: "s"})
	if err != nil {
		t.Fatalf("CreateServiceRequest failed: %v", err)
	}

	const attempts = 8
	var (
		g          errgroup.Group
		successes  atomic.Int32
		duplicates atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := service.CreateWorkOrder(ctx, primary.CreateWorkOrderRequest{CaseID: caseID, ServiceRequestID: sr.StageID})
			switch {
			case err == nil:
				successes.Add(1)
			case complaint.KindOf(err) == complaint.KindDuplicateStage:
				duplicates.Add(1)
			default:
				return fmt.Errorf("unexpected error: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if successes.Load() != 1 || duplicates.Load() != attempts-1 {
		t.Errorf("expected 1 success and %d duplicates, got %d and %d", attempts-1, successes.Load(), duplicates.Load())
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM work_orders"); n != 1 {
		t.Errorf("expected exactly one work order, got %d", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM status_history WHERE status = 'SPK_CREATED'"); n != 1 {
		t.Errorf("expected one SPK_CREATED history entry, got %d", n)
	}
}

// ============================================================================
// Reconciliation Tests
// ============================================================================

func TestIntegration_ReconcileRepairsDrift(t *testing.T) {
	service, db := newTestService(t)
	ctx := actorCtx("OPERATOR")

	// Two complete chains; case 1's work order pointer is then swapped to case 2's.
	for i := 1; i <= 2; i++ {
		c, err := service.OpenCase(ctx, primary.OpenCaseRequest{CustomerName: "c", Location: "l"})
		if err != nil {
			t.Fatalf("OpenCase failed: %v", err)
		}
		sr, err := service.CreateServiceRequest(ctx, primary.CreateServiceRequestRequest{CaseID: c.ID, Summary: "s"})
		if err != nil {
			t.Fatalf("CreateServiceRequest failed: %v", err)
		}
		if _, err := service.CreateWorkOrder(ctx, primary.CreateWorkOrderRequest{CaseID: c.ID, ServiceRequestID: sr.StageID}); err != nil {
			t.Fatalf("CreateWorkOrder failed: %v", err)
		}
	}
	if _, err := db.Exec("UPDATE cases SET work_order_id = 'WO-002' WHERE id = 'CASE-001'"); err != nil {
		t.Fatalf("failed to simulate drift: %v", err)
	}

	dry, err := service.Reconcile(ctx, "CASE-001", false)
	if err != nil {
		t.Fatalf("dry-run Reconcile failed: %v", err)
	}
	if !dry.Mismatch || dry.Fixed {
		t.Errorf("expected mismatch without fix, got %+v", dry)
	}
	if _, _, wo, _ := readCase(t, db, "CASE-001"); wo.String != "WO-002" {
		t.Errorf("dry-run must not write, pointer is %v", wo)
	}

	fixed, err := service.Reconcile(ctx, "CASE-001", true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !fixed.Fixed || fixed.Case.WorkOrderID != "WO-001" || fixed.Case.Status != "SPK_CREATED" {
		t.Errorf("unexpected repaired case: %+v", fixed.Case)
	}

	var updatedAt string
	if err := db.QueryRow("SELECT updated_at FROM cases WHERE id = 'CASE-001'").Scan(&updatedAt); err != nil {
		t.Fatalf("failed to read updated_at: %v", err)
	}
	again, err := service.Reconcile(ctx, "CASE-001", true)
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}
	if again.Mismatch || again.Fixed {
		t.Errorf("expected idempotent second run, got %+v", again)
	}
	var updatedAfter string
	_ = db.QueryRow("SELECT updated_at FROM cases WHERE id = 'CASE-001'").Scan(&updatedAfter)
	if updatedAfter != updatedAt {
		t.Errorf("second reconcile wrote to the case: %s -> %s", updatedAt, updatedAfter)
	}
}

func TestIntegration_ReconcileNullsUnreachablePointer(t *testing.T) {
	service, db := newTestService(t)
	caseID := seedCase(t, db, "CASE-001", "PSP_CREATED")
	seedServiceRequest(t, db, "SR-001", caseID)
	if _, err := db.Exec("UPDATE cases SET service_request_id = 'SR-001', work_order_id = 'WO-404' WHERE id = ?", caseID); err != nil {
		t.Fatalf("failed to simulate drift: %v", err)
	}

	result, err := service.Reconcile(context.Background(), caseID, true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !result.Fixed {
		t.Errorf("expected fix, got %+v", result)
	}
	if _, sr, wo, _ := readCase(t, db, caseID); sr.String != "SR-001" || wo.Valid {
		t.Errorf("expected sr=SR-001 and null wo, got sr=%v wo=%v", sr, wo)
	}
}

func TestIntegration_ReconcileAll(t *testing.T) {
	service, db := newTestService(t)
	seedCase(t, db, "CASE-001", "REPORTED")
	seedCase(t, db, "CASE-002", "PSP_CREATED")
	seedServiceRequest(t, db, "SR-001", "CASE-002")

	results, err := service.ReconcileAll(context.Background(), false)
	if err != nil {
		t.Fatalf("ReconcileAll failed: %v", err)
	}
	if len(results) != 1 || results[0].CaseID != "CASE-002" {
		t.Fatalf("expected only CASE-002 to drift, got %+v", results)
	}
	if _, sr, _, _ := readCase(t, db, "CASE-002"); sr.Valid {
		t.Error("dry-run sweep must not write")
	}

	if _, err := service.ReconcileAll(context.Background(), true); err != nil {
		t.Fatalf("ReconcileAll fix failed: %v", err)
	}
	if _, sr, _, _ := readCase(t, db, "CASE-002"); sr.String != "SR-001" {
		t.Errorf("expected SR-001 after sweep, got %v", sr)
	}
}

// ============================================================================
// Unit of Work Tests
// ============================================================================

func TestIntegration_StoreRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewStore(db)
	caseID := seedCase(t, db, "CASE-001", "REPORTED")

	boom := errors.New("boom")
	err := store.Do(context.Background(), func(ctx context.Context, repos secondary.Repositories) error {
		if err := repos.Cases.UpdateStatus(ctx, caseID, secondary.StatusUpdate{Status: "PSP_CREATED"}); err != nil {
			return err
		}
		if err := repos.History.Append(ctx, &secondary.StatusHistoryRecord{ID: "h1", CaseID: caseID, Status: "PSP_CREATED", ActorRole: "OPERATOR"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if status, _, _, _ := readCase(t, db, caseID); status != "REPORTED" {
		t.Errorf("expected rollback to REPORTED, got %s", status)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM status_history"); n != 0 {
		t.Errorf("expected no history after rollback, got %d", n)
	}
}

func TestIntegration_RevisionRoundTrip(t *testing.T) {
	service, _ := newTestService(t)
	ctx := actorCtx("OPERATOR")

	c, _ := service.OpenCase(ctx, primary.OpenCaseRequest{CustomerName: "c", Location: "l"})
	sr, err := service.CreateServiceRequest(ctx, primary.CreateServiceRequestRequest{CaseID: c.ID, Summary: "s"})
	if err != nil {
		t.Fatalf("CreateServiceRequest failed: %v", err)
	}
	wo, err := service.CreateWorkOrder(ctx, primary.CreateWorkOrderRequest{CaseID: c.ID, ServiceRequestID: sr.StageID})
	if err != nil {
		t.Fatalf("CreateWorkOrder failed: %v", err)
	}

	if _, err := service.RequestRevision(ctx, c.ID, "no"); complaint.KindOf(err) != complaint.KindForbidden {
		t.Fatalf("expected Forbidden for operator, got %v", err)
	}

	revised, err := service.RequestRevision(actorCtx("SUPERVISOR"), c.ID, "wrong crew")
	if err != nil {
		t.Fatalf("RequestRevision failed: %v", err)
	}
	if revised.Status != "PSP_CREATED" || revised.WorkOrderID != wo.StageID {
		t.Errorf("unexpected revised case: %+v", revised)
	}

	resubmitted, err := service.ResubmitWorkOrder(ctx, c.ID, "")
	if err != nil {
		t.Fatalf("ResubmitWorkOrder failed: %v", err)
	}
	if resubmitted.Status != "SPK_CREATED" {
		t.Errorf("expected SPK_CREATED, got %q", resubmitted.Status)
	}

	history, _ := service.GetHistory(ctx, c.ID)
	if len(history) != 4 || history[2].Note != "[REVISION] wrong crew" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestIntegration_ReadsDoNotWaitForWriter(t *testing.T) {
	service, db := newTestService(t)
	caseID := seedCase(t, db, "CASE-001", "REPORTED")

	// Hold the write lock with an uncommitted status change.
	writer, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin writer: %v", err)
	}
	defer writer.Rollback()
	if _, err := writer.Exec("UPDATE cases SET status = 'PSP_CREATED' WHERE id = ?", caseID); err != nil {
		t.Fatalf("failed to update inside writer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c, err := service.GetCase(ctx, caseID)
	if err != nil {
		t.Fatalf("GetCase blocked behind the writer: %v", err)
	}
	if c.Status != "REPORTED" {
		t.Errorf("expected committed status REPORTED, got %s", c.Status)
	}
	if _, err := service.GetHistory(ctx, caseID); err != nil {
		t.Errorf("GetHistory blocked behind the writer: %v", err)
	}
	if _, err := service.Reconcile(ctx, caseID, false); err != nil {
		t.Errorf("Reconcile dry-run blocked behind the writer: %v", err)
	}
}

func TestIntegration_StoreViewDiscardsWrites(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewStore(db)
	caseID := seedCase(t, db, "CASE-001", "REPORTED")

	err := store.View(context.Background(), func(ctx context.Context, repos secondary.Repositories) error {
		c, err := repos.Cases.GetByID(ctx, caseID)
		if err != nil {
			return err
		}
		if c.Status != "REPORTED" {
			t.Errorf("expected REPORTED inside view, got %s", c.Status)
		}
		return repos.Cases.UpdateStatus(ctx, caseID, secondary.StatusUpdate{Status: "PSP_CREATED"})
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	if status, _, _, _ := readCase(t, db, caseID); status != "REPORTED" {
		t.Errorf("expected view writes to be discarded, got %s", status)
	}

	// The connection goes back to the pool without an open transaction.
	if err := store.Do(context.Background(), func(ctx context.Context, repos secondary.Repositories) error {
		return repos.Cases.UpdateStatus(ctx, caseID, secondary.StatusUpdate{Status: "PSP_CREATED"})
	}); err != nil {
		t.Fatalf("Do after View failed: %v", err)
	}
	if status, _, _, _ := readCase(t, db, caseID); status != "PSP_CREATED" {
		t.Errorf("expected PSP_CREATED after Do, got %s", status)
	}
}
