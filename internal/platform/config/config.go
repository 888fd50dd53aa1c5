/*
Package config handles OrmKit's process-level runtime configuration.

It generalizes the teacher's config package (internal/platform/config
in taibuivan/yomira), which leverages caarlos0/env to map environment
variables into a strongly-typed struct. OrmKit's runtime surface is
much smaller than a full API server's (no Redis, no JWT, no CORS) —
this package keeps only the settings the connection pools and
migration runner actually need.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration for wiring an OrmKit pool and
// migration runner from the environment. cmd/ormkit does not use it
// (it takes --url and the migration config file instead); library
// callers embedding OrmKit construct pools directly and need not use
// this type at all.
type Config struct {
	// DatabaseURL is a postgresql://, sqlite://, or sqlite::memory: URL.
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationsPath is the filesystem directory holding registered
	// migration script packages' scan root (informational; scripts
	// register themselves via init(), see migrate.Register).
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`

	// VersionTable overrides the default alembic_version table name.
	VersionTable string `env:"VERSION_TABLE" envDefault:"alembic_version"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load parses environment variables into a [Config].
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return cfg, nil
}
