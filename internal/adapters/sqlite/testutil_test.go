// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// setupTestDB goes through db.Open, which applies db.GetSchemaSQL(), so tests
// always run against the authoritative schema with the production DSN pragmas.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/caseflow/internal/adapters/sqlite"
	"github.com/example/caseflow/internal/app"
	"github.com/example/caseflow/internal/ctxutil"
	"github.com/example/caseflow/internal/db"
)

// setupTestDB creates a file-backed database in a temp dir.
// A file is used rather than :memory: so every pooled connection sees the same data.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(filepath.Join(t.TempDir(), "caseflow.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// newTestService wires the workflow service over a fresh store.
func newTestService(t *testing.T) (*app.CaseWorkflowServiceImpl, *sql.DB) {
	t.Helper()
	testDB := setupTestDB(t)
	service := app.NewCaseWorkflowService(sqlite.NewStore(testDB), app.CaseWorkflowOptions{
		RevisionRole:         "SUPERVISOR",
		RetryInitialInterval: 5 * time.Millisecond,
		RetryMaxElapsed:      10 * time.Second,
		Logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return service, testDB
}

func actorCtx(role string) context.Context {
	return ctxutil.WithActor(context.Background(), ctxutil.Actor{Role: role, ID: "tester"})
}

// seedCase inserts a test case and returns its ID.
func seedCase(t *testing.T, db *sql.DB, id, status string) string {
	t.Helper()
	if id == "" {
		id = "CASE-001"
	}
	if status == "" {
		status = "REPORTED"
	}
	_, err := db.Exec("INSERT INTO cases (id, customer_name, location, status) VALUES (?, 'Test Customer', 'Test Street', ?)", id, status)
	if err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}
	return id
}

// seedServiceRequest inserts a service request for a case.
func seedServiceRequest(t *testing.T, db *sql.DB, id, caseID string) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO service_requests (id, case_id, summary) VALUES (?, ?, 'Test summary')", id, caseID)
	if err != nil {
		t.Fatalf("failed to seed service request: %v", err)
	}
	return id
}

// seedWorkOrder inserts a work order under a service request.
func seedWorkOrder(t *testing.T, db *sql.DB, id, serviceRequestID string) string {
	t.Helper()
	_, err := db.Exec("INSERT INTO work_orders (id, service_request_id) VALUES (?, ?)", id, serviceRequestID)
	if err != nil {
		t.Fatalf("failed to seed work order: %v", err)
	}
	return id
}

// readCase reads a case row directly, bypassing repositories.
func readCase(t *testing.T, db *sql.DB, id string) (status string, sr, wo, rr sql.NullString) {
	t.Helper()
	err := db.QueryRow("SELECT status, service_request_id, work_order_id, repair_report_id FROM cases WHERE id = ?", id).
		Scan(&status, &sr, &wo, &rr)
	if err != nil {
		t.Fatalf("failed to read case %s: %v", id, err)
	}
	return status, sr, wo, rr
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}
