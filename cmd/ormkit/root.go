package main

import (
	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/spf13/cobra"
)

// globalFlags mirrors spec.md §6's CLI surface: --config, --url,
// --models, --verbose, shared by every subcommand via cobra persistent
// flags.
type globalFlags struct {
	config  string
	url     string
	models  string
	verbose bool
}

var flags globalFlags

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ormkit",
		Short:         "OrmKit migration engine CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.config, "config", "ormkit.ini", "path to the migration configuration file")
	root.PersistentFlags().StringVar(&flags.url, "url", "", "database connection URL (overrides config sqlalchemy.url)")
	root.PersistentFlags().StringVar(&flags.models, "models", "", "import path of the package registering the model schema (informational)")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "enable debug-level logging")

	root.AddCommand(newInitCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newAutoCmd())
	root.AddCommand(newUpCmd())
	root.AddCommand(newDownCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newHistoryCmd())

	return root
}

// exitCodeFor maps an error to the exit code contract in spec.md §6:
// 0 success, 1 argument/configuration error, non-zero on any
// database-side failure propagated out of the engine.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch apperr.KindOf(err) {
	case apperr.KindConfiguration:
		return 1
	case apperr.KindMigration, apperr.KindIntegrity, apperr.KindSchemaResolution:
		return 2
	default:
		return 1
	}
}
