package migrate

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/pkg/ormkit/dialect"
	"github.com/alexogeny/ormkit/pkg/ormkit/pool"
)

// Runner executes the registered migration chain against a pool,
// grounded on the teacher's migration.RunUp (internal/platform/
// migration/runner.go): bootstrap the version table, log each step
// via the shared slog.Logger, and bail out before advancing the
// version table on the first failure (§4.E).
type Runner struct {
	pool    pool.ConnectionPool
	version *VersionTable
	dialect dialect.Dialect
	logger  *slog.Logger
}

// NewRunner constructs a Runner. versionTable may be empty to accept
// the default name. logger may be nil, in which case slog.Default()
// is used.
func NewRunner(p pool.ConnectionPool, versionTable string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	d := dialect.Postgres
	if !p.IsPostgres() {
		d = dialect.SQLite
	}
	return &Runner{
		pool:    p,
		version: NewVersionTable(p, versionTable),
		dialect: d,
		logger:  logger,
	}
}

// CurrentRevision returns the version table's stored revision, or
// ("", false) if none has been applied.
func (r *Runner) CurrentRevision(ctx context.Context) (string, bool, error) {
	if err := r.version.Ensure(ctx); err != nil {
		return "", false, err
	}
	return r.version.Current(ctx)
}

// Upgrade computes pending migrations (load_migrations - applied),
// executes each in chain order, and advances the version table after
// every individual success (§4.E). target == "" means "head" (apply
// every pending migration); a specific revision stops once that
// revision has been applied.
func (r *Runner) Upgrade(ctx context.Context, target string) error {
	if err := r.version.Ensure(ctx); err != nil {
		return err
	}
	chain, err := loadAll()
	if err != nil {
		return err
	}

	current, _, err := r.version.Current(ctx)
	if err != nil {
		return err
	}

	pending := chain
	if current != "" {
		idx := indexOf(chain, current)
		if idx < 0 {
			return apperr.Migration("current revision "+current+" is not present in the registered migration chain", nil)
		}
		pending = chain[idx+1:]
	}

	for _, s := range pending {
		r.logger.Info("migration_upgrade_started", slog.String("revision", s.Revision), slog.String("message", s.Message))
		if err := r.runOps(ctx, s.Upgrade); err != nil {
			r.logger.Error("migration_upgrade_failed", slog.String("revision", s.Revision), slog.Any("error", err))
			return apperr.Migration("upgrade failed at revision "+s.Revision, err)
		}
		if err := r.version.Set(ctx, s.Revision); err != nil {
			return err
		}
		r.logger.Info("migration_upgrade_applied", slog.String("revision", s.Revision))
		if target != "" && s.Revision == target {
			return nil
		}
	}
	return nil
}

// Downgrade rolls back migrations in reverse chain order. target is
// either an explicit revision to land on, or "-N" meaning "roll back
// the most recent N migrations" (§4.E). Each reverted script's
// Downgrade operations run as written; Reverse() is not consulted
// here. The first failing operation aborts the downgrade.
func (r *Runner) Downgrade(ctx context.Context, target string) error {
	if err := r.version.Ensure(ctx); err != nil {
		return err
	}
	chain, err := loadAll()
	if err != nil {
		return err
	}

	current, has, err := r.version.Current(ctx)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}

	idx := indexOf(chain, current)
	if idx < 0 {
		return apperr.Migration("current revision "+current+" is not present in the registered migration chain", nil)
	}
	applied := chain[:idx+1]

	steps, landRevision, err := resolveDowngradeTarget(applied, target)
	if err != nil {
		return err
	}

	// Walk applied in reverse, dropping the last `steps` entries.
	toRevert := applied[len(applied)-steps:]
	for i := len(toRevert) - 1; i >= 0; i-- {
		s := toRevert[i]
		r.logger.Info("migration_downgrade_started", slog.String("revision", s.Revision))
		if err := r.runOps(ctx, s.Downgrade); err != nil {
			r.logger.Error("migration_downgrade_failed", slog.String("revision", s.Revision), slog.Any("error", err))
			return apperr.Migration("downgrade failed at revision "+s.Revision, err)
		}
		r.logger.Info("migration_downgrade_applied", slog.String("revision", s.Revision))
	}

	if landRevision == "" {
		return r.version.Clear(ctx)
	}
	return r.version.Set(ctx, landRevision)
}

// Stamp sets the version table to rev without executing any
// operation (§4.E: "stamp(rev) sets the version table without
// executing anything").
func (r *Runner) Stamp(ctx context.Context, rev string) error {
	if err := r.version.Ensure(ctx); err != nil {
		return err
	}
	if rev == "" {
		return r.version.Clear(ctx)
	}
	return r.version.Set(ctx, rev)
}

// History returns the full registered chain in order, base first.
func (r *Runner) History() ([]*Script, error) {
	return loadAll()
}

func (r *Runner) runOps(ctx context.Context, ops []Operation) error {
	for _, op := range ops {
		for _, stmt := range op.ToSQL(r.dialect) {
			if strings.HasPrefix(strings.TrimSpace(stmt), "--") {
				continue // dialect no-op marker, e.g. sqlite type-change comment
			}
			if _, err := r.pool.ExecuteStatement(ctx, stmt, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func indexOf(chain []*Script, revision string) int {
	for i, s := range chain {
		if s.Revision == revision {
			return i
		}
	}
	return -1
}

// resolveDowngradeTarget returns how many of the tail of applied to
// revert, and the revision the version table should land on
// afterward ("" meaning empty/fully downgraded).
func resolveDowngradeTarget(applied []*Script, target string) (steps int, land string, err error) {
	if strings.HasPrefix(target, "-") {
		n, convErr := strconv.Atoi(target[1:])
		if convErr != nil || n <= 0 {
			return 0, "", apperr.Migration("invalid relative downgrade target: "+target, convErr)
		}
		if n > len(applied) {
			n = len(applied)
		}
		if len(applied)-n == 0 {
			return n, "", nil
		}
		return n, applied[len(applied)-n-1].Revision, nil
	}

	if target == "" {
		// No target: roll back one step, the runner's most common use.
		if len(applied) == 1 {
			return 1, "", nil
		}
		return 1, applied[len(applied)-2].Revision, nil
	}

	idx := indexOf(applied, target)
	if idx < 0 {
		return 0, "", apperr.Migration("downgrade target revision not found in applied chain: "+target, nil)
	}
	steps = len(applied) - 1 - idx
	if steps <= 0 {
		return 0, "", apperr.Migration("downgrade target "+target+" is already the current revision or later", nil)
	}
	return steps, target, nil
}
