package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexogeny/ormkit/internal/platform/logging"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every registered migration in chain order",
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

			runner := migrate.NewRunner(p, cfg.VersionTable, logger)
			scripts, err := runner.History()
			if err != nil {
				return err
			}
			current, _, err := runner.CurrentRevision(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, s := range scripts {
				marker := "  "
				if s.Revision == current {
					marker = "->"
				}
				fmt.Fprintf(w, "%s %-14s %s\n", marker, s.Revision, s.Message)
			}
			return nil
		},
	}
}
