package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/pkg/ormkit/migrate"
)

func TestRegisterDuplicateRevisionPanics(t *testing.T) {
	migrate.ResetRegistry()
	defer migrate.ResetRegistry()

	migrate.Register(&migrate.Script{Revision: "a"})
	assert.Panics(t, func() {
		migrate.Register(&migrate.Script{Revision: "a"})
	})
}

func TestRegisterEmptyRevisionPanics(t *testing.T) {
	migrate.ResetRegistry()
	defer migrate.ResetRegistry()

	assert.Panics(t, func() {
		migrate.Register(&migrate.Script{Revision: ""})
	})
}

func TestBrokenDownRevisionChainFailsBeforeRunning(t *testing.T) {
	migrate.ResetRegistry()
	defer migrate.ResetRegistry()

	migrate.Register(&migrate.Script{Revision: "b", DownRevision: "a-never-registered"})

	logger := testLogger()
	runner := migrate.NewRunner(newMemoryPool(), "", logger)
	err := runner.Upgrade(t.Context(), "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindMigration, apperr.KindOf(err))
}
