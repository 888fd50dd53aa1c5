package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const initialConfigTemplate = `[alembic]
script_location = migrations
# sqlalchemy.url =
version_table = alembic_version
file_template = %%(year)d%%(month).2d%%(day).2d_%%(hour).2d%%(minute).2d_%%(slug)s
truncate_slug_length = 40
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter migration config file and scripts directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(flags.config); err == nil {
				return fmt.Errorf("config file already exists: %s", flags.config)
			}
			if err := os.WriteFile(flags.config, []byte(initialConfigTemplate), 0o644); err != nil {
				return err
			}
			scriptsDir := filepath.Join(filepath.Dir(flags.config), "migrations")
			if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s and %s\n", flags.config, scriptsDir)
			return nil
		},
	}
}
