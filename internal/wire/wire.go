// Package wire provides dependency injection for the caseflow application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"sync"

	cliadapter "github.com/example/caseflow/internal/adapters/cli"
	"github.com/example/caseflow/internal/adapters/sqlite"
	"github.com/example/caseflow/internal/app"
	"github.com/example/caseflow/internal/config"
	"github.com/example/caseflow/internal/db"
	"github.com/example/caseflow/internal/ports/primary"
)

var (
	cfg         = config.Default()
	logger      = slog.Default()
	database    *sql.DB
	caseService primary.CaseWorkflowService
	once        sync.Once
)

// Configure sets the configuration and logger used when services are first built.
// It has no effect after the first service has been requested.
func Configure(c *config.Config, l *slog.Logger) {
	if c != nil {
		cfg = c
	}
	if l != nil {
		logger = l
	}
}

// CaseWorkflowService returns the singleton CaseWorkflowService instance.
func CaseWorkflowService() primary.CaseWorkflowService {
	once.Do(initServices)
	return caseService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	database, err = db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	store := sqlite.NewStore(database)

	caseService = app.NewCaseWorkflowService(store, app.CaseWorkflowOptions{
		RevisionRole:         cfg.RevisionRole,
		RetryInitialInterval: cfg.Retry.InitialInterval,
		RetryMaxElapsed:      cfg.Retry.MaxElapsed,
		Logger:               logger,
	})
}

// Close releases the database connection if one was opened.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// CaseAdapter returns a new CaseAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func CaseAdapter() *cliadapter.CaseAdapter {
	return CaseAdapterWithOutput(os.Stdout)
}

// CaseAdapterWithOutput returns a new CaseAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func CaseAdapterWithOutput(out io.Writer) *cliadapter.CaseAdapter {
	once.Do(initServices)
	return cliadapter.NewCaseAdapter(caseService, out)
}
