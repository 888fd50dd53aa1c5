package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexogeny/ormkit/internal/platform/logging"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate/autogen"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
)

func newAutoCmd() *cobra.Command {
	var message string
	var downRevision string
	var entities []string

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Diff the model registry against the live schema and render a migration script",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New("ormkit-cli", flags.verbose)

			cfg, err := migrate.LoadConfig(flags.config)
			if err != nil {
				return err
			}
			url := flags.url
			if url == "" {
				url = cfg.DatabaseURL
			}

			ctx := context.Background()
			p, err := openPool(ctx, url, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			if len(entities) == 0 {
				entities = schema.Default.Names()
			}

			ac := autogen.New(p, schema.Default, entities)
			ops, err := ac.Diff(ctx)
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no schema changes detected")
				return nil
			}

			revision := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
			src, err := migrate.RenderScript(revision, downRevision, message, ops)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			filename := cfg.RenderFileName(revision, slugify(message), now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute()) + ".go"
			path := filepath.Join(cfg.ScriptLocation, filename)
			if err := os.MkdirAll(cfg.ScriptLocation, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %s (%d operations)\n", path, len(ops))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "autogenerated", "migration message/slug")
	cmd.Flags().StringVar(&downRevision, "down-revision", "", "parent revision (empty for the base migration)")
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "limit the diff to these registered entity names (default: all registered entities)")
	return cmd
}
