package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexogeny/ormkit/internal/platform/logging"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
)

func newUpCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations up to target (default: head)",
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
			if err := runner.Upgrade(ctx, target); err != nil {
				return err
			}

			rev, has, err := runner.CurrentRevision(ctx)
			if err != nil {
				return err
			}
			if !has {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current revision: %s\n", rev)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "revision to stop at (default: head)")
	return cmd
}
