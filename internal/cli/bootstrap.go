// Package cli provides CLI commands for the caseflow application.
package cli

import (
	gocontext "context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/caseflow/internal/config"
	"github.com/example/caseflow/internal/ctxutil"
	"github.com/example/caseflow/internal/wire"
)

// Global flag values for the current CLI invocation.
var (
	globalRole       string
	globalActorID    string
	globalConfigPath string
	globalDBPath     string
	globalVerbose    bool
)

// ConfigureRoot registers the global flags and the bootstrap hooks on the root command.
func ConfigureRoot(root *cobra.Command) {
	addGlobalFlags(root)
	root.PersistentPreRunE = Bootstrap
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return wire.Close()
	}
	root.SilenceErrors = true
	root.SilenceUsage = true
}

// addGlobalFlags registers the persistent flags shared by every command.
func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&globalRole, "role", envOr("CASEFLOW_ROLE", config.RoleOperator), "Actor role (OPERATOR, SUPERVISOR, TECHNICIAN, SYSTEM)")
	flags.StringVar(&globalActorID, "actor", os.Getenv("CASEFLOW_ACTOR"), "Actor identifier recorded in the audit trail")
	flags.StringVar(&globalConfigPath, "config", "", "Path to config.yaml (default: ./.caseflow/config.yaml)")
	flags.StringVar(&globalDBPath, "db", "", "Override the database path from config")
	flags.BoolVar(&globalVerbose, "verbose", false, "Enable debug logging")
}

// Bootstrap loads configuration and configures logging and wiring.
// Runs once per invocation from the root command's PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if globalDBPath != "" {
		cfg.DBPath = globalDBPath
	}

	level := cfg.LogLevel
	if globalVerbose {
		level = "debug"
	}
	wire.Configure(cfg, NewLogger(os.Stderr, level))
	return nil
}

func loadConfig() (*config.Config, error) {
	if globalConfigPath != "" {
		return config.LoadFile(globalConfigPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.LoadConfig(cwd)
}

// NewLogger builds the text logger used by the application services.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NewContext creates a context.Background() with the current actor embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	return ctxutil.WithActor(gocontext.Background(), ctxutil.Actor{
		Role: strings.ToUpper(globalRole),
		ID:   globalActorID,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
