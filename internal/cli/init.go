package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/caseflow/internal/config"
	"github.com/example/caseflow/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var revisionRole string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize caseflow in the current directory",
		Long:  `Write .caseflow/config.yaml and create the case database with the required schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			cfg := config.Default()
			if globalDBPath != "" {
				cfg.DBPath = globalDBPath
			}
			if revisionRole != "" {
				cfg.RevisionRole = revisionRole
			}
			cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.SaveConfig(cwd, cfg); err != nil {
				return err
			}
			fmt.Printf("✓ Config written to %s/%s/config.yaml\n", cwd, config.DirName)

			conn, err := db.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer conn.Close()

			fmt.Printf("✓ Database initialized at %s\n", cfg.DBPath)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  caseflow case open \"Customer name\" --location \"Street 1\"")
			fmt.Println("  caseflow case list")
			return nil
		},
	}

	cmd.Flags().StringVar(&revisionRole, "revision-role", "", "Role allowed to send work orders back for revision")
	return cmd
}
