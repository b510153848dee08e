// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/example/caseflow/internal/ports/secondary"
)

// timestampLayout is fixed-width so lexical order equals chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn, so every repository
// runs unchanged inside a unit of work, a read view, or against the pool.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements secondary.UnitOfWork on a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite-backed unit of work.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Do runs fn inside one transaction. The transaction commits only if fn
// returns nil; a panic or error rolls everything back.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, repositoriesFor(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateErr(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// View runs fn inside a deferred transaction on a dedicated connection.
// Under WAL a deferred transaction reads one snapshot and never takes the
// RESERVED lock for reads, so projections do not queue behind writers.
// The transaction always rolls back.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return translateErr(fmt.Errorf("failed to acquire connection: %w", err))
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN DEFERRED"); err != nil {
		return translateErr(fmt.Errorf("failed to begin read transaction: %w", err))
	}
	// The rollback must run even if ctx was cancelled, or the connection
	// goes back to the pool with an open transaction.
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
	}()

	return fn(ctx, repositoriesFor(conn))
}

func repositoriesFor(q querier) secondary.Repositories {
	return secondary.Repositories{
		Cases:           &CaseRepository{db: q},
		ServiceRequests: &ServiceRequestRepository{db: q},
		WorkOrders:      &WorkOrderRepository{db: q},
		RepairReports:   &RepairReportRepository{db: q},
		History:         &StatusHistoryRepository{db: q},
	}
}

// translateErr tags driver errors with the port-level sentinels the
// application layer reasons about.
func translateErr(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch {
	case sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked:
		return fmt.Errorf("%w: %w", secondary.ErrBusy, err)
	case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %w", secondary.ErrUniqueViolation, err)
	}
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// nextID computes PREFIX-NNN from the highest numeric suffix in table.
func nextID(ctx context.Context, db querier, table, prefix string) (string, error) {
	var maxID int
	prefixLen := len(prefix) + 2
	err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM %s", prefixLen, table),
	).Scan(&maxID)
	if err != nil {
		return "", translateErr(fmt.Errorf("failed to get next %s ID: %w", prefix, err))
	}
	return fmt.Sprintf("%s-%03d", prefix, maxID+1), nil
}

func exists(ctx context.Context, db querier, table, id string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table), id).Scan(&count)
	if err != nil {
		return false, translateErr(fmt.Errorf("failed to check %s existence: %w", table, err))
	}
	return count > 0, nil
}

// Ensure Store implements the interface
var _ secondary.UnitOfWork = (*Store)(nil)
