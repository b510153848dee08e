package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Role constants
const (
	RoleOperator   = "OPERATOR"   // Intake desk, opens cases and service requests
	RoleSupervisor = "SUPERVISOR" // Issues work orders, may send them back for revision
	RoleTechnician = "TECHNICIAN" // Files repair reports
	RoleSystem     = "SYSTEM"     // Reconciliation sweeps and other unattended runs
)

// DirName is the per-project configuration directory.
const DirName = ".caseflow"

// Config represents the caseflow configuration file.
type Config struct {
	DBPath       string      `yaml:"db_path"`
	RevisionRole string      `yaml:"revision_role"`
	LogLevel     string      `yaml:"log_level"`
	Retry        RetryConfig `yaml:"retry"`
}

// RetryConfig bounds how long a unit of work is retried when the store is busy.
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DBPath:       defaultDBPath(),
		RevisionRole: RoleSupervisor,
		LogLevel:     "info",
		Retry: RetryConfig{
			InitialInterval: 25 * time.Millisecond,
			MaxElapsed:      5 * time.Second,
		},
	}
}

// LoadConfig reads .caseflow/config.yaml from the specified directory.
// A missing file yields the defaults; fields absent from the file keep their default.
func LoadConfig(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, DirName, "config.yaml"))
}

// LoadFile reads a configuration file from an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes config.yaml to directory
func SaveConfig(dir string, cfg *Config) error {
	cfgDir := filepath.Join(dir, DirName)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", DirName, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Normalize canonicalizes hand-edited values: roles are compared upper-case
// against the actor role, log levels lower-case.
func (c *Config) Normalize() {
	c.RevisionRole = strings.ToUpper(strings.TrimSpace(c.RevisionRole))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate rejects configurations the workflow cannot run with.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	if c.RevisionRole == "" {
		return fmt.Errorf("config: revision_role must not be empty")
	}
	if c.Retry.MaxElapsed < 0 || c.Retry.InitialInterval < 0 {
		return fmt.Errorf("config: retry intervals must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DirName, "caseflow.db")
	}
	return filepath.Join(home, DirName, "caseflow.db")
}
