package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
)

func newCreateCmd() *cobra.Command {
	var message string
	var downRevision string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a blank migration script registered under a new revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := migrate.LoadConfig(flags.config)
			if err != nil {
				return err
			}

			revision := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
			slug := slugify(message)
			now := time.Now().UTC()
			filename := cfg.RenderFileName(revision, slug, now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute()) + ".go"
			src, err := migrate.RenderScript(revision, downRevision, message, nil)
			if err != nil {
				return err
			}

			path := filepath.Join(cfg.ScriptLocation, filename)
			if err := os.MkdirAll(cfg.ScriptLocation, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (revision %s)\n", path, revision)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "migration message/slug")
	cmd.Flags().StringVar(&downRevision, "down-revision", "", "parent revision (empty for the base migration)")
	return cmd
}

func slugify(message string) string {
	if message == "" {
		return "migration"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(message) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
