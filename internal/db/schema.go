package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for the case workflow store.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(); repository code referencing a column that
// does not exist here fails immediately with "no such column".
//
// Each stage table carries a UNIQUE parent reference so a second stage record
// for the same case is rejected by the store even if two writers pass the
// application guard at once.
const SchemaSQL = `
-- Cases (root workflow records; pointer columns cache the stage chain)
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	customer_name TEXT NOT NULL,
	location TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL CHECK(status IN ('REPORTED', 'PSP_CREATED', 'SPK_CREATED', 'RR_CREATED', 'COMPLETED', 'MONITORING')) DEFAULT 'REPORTED',
	service_request_id TEXT,
	work_order_id TEXT,
	repair_report_id TEXT,
	processed_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);

-- Service requests (PSP)
CREATE TABLE IF NOT EXISTS service_requests (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL UNIQUE,
	summary TEXT NOT NULL,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (case_id) REFERENCES cases(id)
);

-- Work orders (SPK)
CREATE TABLE IF NOT EXISTS work_orders (
	id TEXT PRIMARY KEY,
	service_request_id TEXT NOT NULL UNIQUE,
	assigned_team TEXT,
	instructions TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (service_request_id) REFERENCES service_requests(id)
);

-- Repair reports (RR)
CREATE TABLE IF NOT EXISTS repair_reports (
	id TEXT PRIMARY KEY,
	work_order_id TEXT NOT NULL UNIQUE,
	result TEXT NOT NULL CHECK(result IN ('FIXED', 'REPLACED', 'NO_FAULT_FOUND', 'MONITORING')),
	findings TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (work_order_id) REFERENCES work_orders(id)
);

-- Status history (append-only audit trail)
CREATE TABLE IF NOT EXISTS status_history (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL,
	status TEXT NOT NULL,
	actor_role TEXT NOT NULL,
	actor_id TEXT,
	note TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (case_id) REFERENCES cases(id)
);

CREATE INDEX IF NOT EXISTS idx_status_history_case ON status_history(case_id, created_at);

CREATE TRIGGER IF NOT EXISTS status_history_no_update
BEFORE UPDATE ON status_history
BEGIN
	SELECT RAISE(ABORT, 'status_history is append-only');
END;

CREATE TRIGGER IF NOT EXISTS status_history_no_delete
BEFORE DELETE ON status_history
BEGIN
	SELECT RAISE(ABORT, 'status_history is append-only');
END;
`

// InitSchema creates all tables on the given connection if they do not exist.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
