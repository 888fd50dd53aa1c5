package session

import (
	"context"
	"strconv"
	"time"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
	"github.com/alexogeny/ormkit/pkg/ormkit/loader"
	"github.com/alexogeny/ormkit/pkg/ormkit/schema"
	"github.com/alexogeny/ormkit/pkg/ormkit/sqlbuilder"
)

// Selectin, Joined, Noload, and Raise build a [loader.PlanEntry] for
// Query.Options, naming the eager-load strategy a relationship should
// use (§3, "Load plan").
func Selectin(relationship string) loader.PlanEntry {
	return loader.PlanEntry{Relationship: relationship, Strategy: schema.Selectin}
}

func Joined(relationship string) loader.PlanEntry {
	return loader.PlanEntry{Relationship: relationship, Strategy: schema.Joined}
}

func Noload(relationship string) loader.PlanEntry {
	return loader.PlanEntry{Relationship: relationship, Strategy: schema.Noload}
}

func Raise(relationship string) loader.PlanEntry {
	return loader.PlanEntry{Relationship: relationship, Strategy: schema.Raise}
}

// Query is the fluent query-builder facade returned by Session.Query —
// the canonical interface per §4.D's Open Question #1 resolution
// (fluent is canonical; Session.Add/Commit is a thin adapter).
type Query struct {
	s      *Session
	entity string

	where   sqlbuilder.Filter
	having  sqlbuilder.Filter
	orderBy []string
	groupBy []string

	limit     int
	hasLimit  bool
	offset    int
	hasOffset bool
	distinct  bool

	plan []loader.PlanEntry

	withDeleted bool
	onlyDeleted bool
}

// Query begins a fluent query against entityName.
func (s *Session) Query(entityName string) *Query {
	return &Query{s: s, entity: entityName}
}

// Filter adds a single comparison leaf, AND-joined with any existing
// filter (§3, "Filter tree").
func (q *Query) Filter(path string, op sqlbuilder.Op, value any) *Query {
	q.where = andFilter(q.where, sqlbuilder.Leaf(path, op, value))
	return q
}

// FilterBy adds an equality conjunction built from fields (the
// keyword-argument surface syntax, §9 Design Notes "Filter tree and Q
// composition").
func (q *Query) FilterBy(fields map[string]any) *Query {
	q.where = andFilter(q.where, sqlbuilder.Q(fields))
	return q
}

// Where adds an arbitrary pre-built Filter (the composable `&`/`|`/`~`
// surface, lowered the same AST as Filter/FilterBy, §9 Design Notes).
func (q *Query) Where(f sqlbuilder.Filter) *Query {
	q.where = andFilter(q.where, f)
	return q
}

// Having adds a post-aggregation predicate, compiled against the same
// filter-tree grammar as Where.
func (q *Query) Having(f sqlbuilder.Filter) *Query {
	q.having = andFilter(q.having, f)
	return q
}

// OrderBy appends "col" or "col DESC"-style ordering terms.
func (q *Query) OrderBy(terms ...string) *Query {
	q.orderBy = append(q.orderBy, terms...)
	return q
}

// Limit caps the result set size.
func (q *Query) Limit(n int) *Query {
	q.limit, q.hasLimit = n, true
	return q
}

// Offset skips the first n rows.
func (q *Query) Offset(n int) *Query {
	q.offset, q.hasOffset = n, true
	return q
}

// Distinct deduplicates result rows.
func (q *Query) Distinct() *Query {
	q.distinct = true
	return q
}

// GroupBy appends grouping columns.
func (q *Query) GroupBy(columns ...string) *Query {
	q.groupBy = append(q.groupBy, columns...)
	return q
}

// Options attaches eager-load plan entries (§3, "Load plan").
func (q *Query) Options(entries ...loader.PlanEntry) *Query {
	q.plan = append(q.plan, entries...)
	return q
}

// WithDeleted suppresses the soft-delete filter so both live and
// soft-deleted rows are returned (§4.D).
func (q *Query) WithDeleted() *Query {
	q.withDeleted = true
	return q
}

// OnlyDeleted inverts the soft-delete filter to match only
// soft-deleted rows (§4.D). Takes precedence over WithDeleted.
func (q *Query) OnlyDeleted() *Query {
	q.onlyDeleted = true
	return q
}

func andFilter(existing, next sqlbuilder.Filter) sqlbuilder.Filter {
	return sqlbuilder.And(existing, next)
}

// resolved bundles everything execute needs once the entity has been
// looked up, so terminal operations don't each re-resolve it.
type resolved struct {
	entity     *schema.Entity
	softDelete sqlbuilder.SoftDelete
}

func (q *Query) resolve() (resolved, error) {
	entity, err := q.s.registry.Resolve(q.entity)
	if err != nil {
		return resolved{}, err
	}
	sd := sqlbuilder.SoftDelete{}
	if entity.SoftDelete {
		sd = sqlbuilder.SoftDelete{
			Column:         entity.SoftDeleteColumn,
			IncludeDeleted: q.withDeleted,
			OnlyDeleted:    q.onlyDeleted,
		}
	}
	return resolved{entity: entity, softDelete: sd}, nil
}

// joinedLoad pairs a base-query LEFT JOIN with the relationship name it
// hydrates, so All can write the demultiplexed related row back under
// the right key.
type joinedLoad struct {
	spec         sqlbuilder.JoinSpec
	relationship string
}

// joinPlan splits q.plan into joined entries that become a base-query
// LEFT JOIN and selectin entries the Loader handles as follow-ups,
// applying the Joined-on-OneToMany/ManyToMany downgrade (§4.C).
func (q *Query) joinPlan(entity *schema.Entity) ([]joinedLoad, []loader.PlanEntry, error) {
	var joined []joinedLoad
	var followUps []loader.PlanEntry

	for _, raw := range q.plan {
		rel, ok := entity.Relationships[raw.Relationship]
		if !ok {
			continue
		}
		entry := loader.Resolve(raw, rel)
		if entry.ResolvedStrategy() == schema.Joined {
			target, err := q.s.registry.Resolve(rel.Target)
			if err != nil {
				return nil, nil, err
			}
			alias := "_j" + strconv.Itoa(len(joined)+1)
			joined = append(joined, joinedLoad{
				relationship: rel.Name,
				spec: sqlbuilder.JoinSpec{
					Alias:      alias,
					Table:      target.Table,
					Columns:    target.ColumnNames(),
					OnLeftCol:  rel.ForeignKey,
					OnRightCol: target.PrimaryKey(),
				},
			})
			continue
		}
		followUps = append(followUps, raw)
	}
	return joined, followUps, nil
}

// buildSelect renders the base SELECT for this query, including any
// joined-load aliases.
func (q *Query) buildSelect(r resolved, joined []joinedLoad) sqlbuilder.Select {
	specs := make([]sqlbuilder.JoinSpec, len(joined))
	for i, j := range joined {
		specs[i] = j.spec
	}
	return sqlbuilder.Select{
		Table:      r.entity.Table,
		Columns:    r.entity.ColumnNames(),
		Distinct:   q.distinct,
		Where:      q.where,
		GroupBy:    q.groupBy,
		Having:     q.having,
		OrderBy:    q.orderBy,
		Limit:      q.limit,
		HasLimit:   q.hasLimit,
		Offset:     q.offset,
		HasOffset:  q.hasOffset,
		Joins:      specs,
		SoftDelete: r.softDelete,
	}
}

// All executes the query, hydrating every matching row and resolving
// its load plan.
func (q *Query) All(ctx context.Context) ([]Row, error) {
	r, err := q.resolve()
	if err != nil {
		return nil, err
	}
	joined, followUps, err := q.joinPlan(r.entity)
	if err != nil {
		return nil, err
	}
	sel := q.buildSelect(r, joined)
	sqlText, params := sel.Build(q.s.dialect)

	result, err := q.s.pool.Execute(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	baseColumns := r.entity.ColumnNames()
	joinSpecs := make([]sqlbuilder.JoinSpec, len(joined))
	for i, j := range joined {
		joinSpecs[i] = j.spec
	}
	flatColumns := append(append([]string{}, baseColumns...), joinedColumnLabels(joinSpecs)...)

	var rows []Row
	err = result.All(ctx, func() []any {
		dest := make([]any, len(flatColumns))
		for i := range dest {
			dest[i] = new(any)
		}
		return dest
	}, func(dest []any) error {
		flat := map[string]any{}
		for i, c := range flatColumns {
			flat[c] = *(dest[i].(*any))
		}
		base, related := loader.DemuxJoinedRow(flat, baseColumns, joinSpecs)
		for _, j := range joined {
			base[j.relationship] = related[j.spec.Alias]
		}
		rows = append(rows, base)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(followUps) > 0 {
		l := &loader.Loader{Registry: q.s.registry, Pool: q.s.pool, Dialect: q.s.dialect}
		if err := l.Load(ctx, q.entity, rows, followUps); err != nil {
			return nil, err
		}
	}

	pk := r.entity.PrimaryKey()
	if pk != "" {
		for _, row := range rows {
			if v := row[pk]; v != nil {
				q.s.identity.put(q.entity, v, row)
			}
		}
	}

	return rows, nil
}

func joinedColumnLabels(joins []sqlbuilder.JoinSpec) []string {
	var labels []string
	for _, j := range joins {
		for _, c := range j.Columns {
			labels = append(labels, j.Alias+"_"+c)
		}
	}
	return labels
}

// First returns the first matching row, limited server-side to one.
func (q *Query) First(ctx context.Context) (Row, bool, error) {
	clone := *q
	clone.limit, clone.hasLimit = 1, true
	rows, err := clone.All(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// One returns the single matching row, erroring if the result set size
// is not exactly one (§7, "Not-found: one() when the result set size
// != 1").
func (q *Query) One(ctx context.Context) (Row, error) {
	clone := *q
	clone.limit, clone.hasLimit = 2, true
	rows, err := clone.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, apperr.NotFound(q.entity)
	}
	return rows[0], nil
}

// OneOrNone returns at most one matching row, erroring only if more
// than one row matches.
func (q *Query) OneOrNone(ctx context.Context) (Row, bool, error) {
	clone := *q
	clone.limit, clone.hasLimit = 2, true
	rows, err := clone.All(ctx)
	if err != nil {
		return nil, false, err
	}
	switch len(rows) {
	case 0:
		return nil, false, nil
	case 1:
		return rows[0], true, nil
	default:
		return nil, false, apperr.QueryConstruction("one_or_none(): more than one row matched")
	}
}

// Values projects only the named columns.
func (q *Query) Values(ctx context.Context, columns ...string) ([]Row, error) {
	rows, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		projected := Row{}
		for _, c := range columns {
			projected[c] = row[c]
		}
		out[i] = projected
	}
	return out, nil
}

// ValuesList projects the named columns as positional tuples.
func (q *Query) ValuesList(ctx context.Context, columns ...string) ([][]any, error) {
	rows, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		tuple := make([]any, len(columns))
		for c, col := range columns {
			tuple[c] = row[col]
		}
		out[i] = tuple
	}
	return out, nil
}

func (q *Query) aggregate(ctx context.Context, fn, column string) (any, error) {
	r, err := q.resolve()
	if err != nil {
		return nil, err
	}
	agg := sqlbuilder.Aggregate{Table: r.entity.Table, Func: fn, Column: column, Where: q.where, SoftDelete: r.softDelete}
	sqlText, params := agg.Build(q.s.dialect)
	result, err := q.s.pool.Execute(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	var dest any
	if _, err := result.OneOrNone(ctx, []any{&dest}); err != nil {
		return nil, err
	}
	return dest, nil
}

// Count returns the number of matching rows.
func (q *Query) Count(ctx context.Context) (int64, error) {
	v, err := q.aggregate(ctx, "COUNT", "*")
	if err != nil {
		return 0, err
	}
	return toInt64(v), nil
}

// Sum, Avg, Min, Max compute the named aggregate over column.
func (q *Query) Sum(ctx context.Context, column string) (any, error) { return q.aggregate(ctx, "SUM", column) }
func (q *Query) Avg(ctx context.Context, column string) (any, error) { return q.aggregate(ctx, "AVG", column) }
func (q *Query) Min(ctx context.Context, column string) (any, error) { return q.aggregate(ctx, "MIN", column) }
func (q *Query) Max(ctx context.Context, column string) (any, error) { return q.aggregate(ctx, "MAX", column) }

// Exists reports whether any row matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	r, err := q.resolve()
	if err != nil {
		return false, err
	}
	ex := sqlbuilder.Exists{Table: r.entity.Table, Where: q.where, SoftDelete: r.softDelete}
	sqlText, params := ex.Build(q.s.dialect)
	result, err := q.s.pool.Execute(ctx, sqlText, params)
	if err != nil {
		return false, err
	}
	defer result.Close()
	found, err := result.OneOrNone(ctx, []any{new(any)})
	return found, err
}

// Delete issues a bulk delete over the query's filter — a soft delete
// (UPDATE the marker column) when the entity declares one, a hard
// DELETE otherwise (§4.D).
func (q *Query) Delete(ctx context.Context) (int64, error) {
	r, err := q.resolve()
	if err != nil {
		return 0, err
	}
	if r.entity.PrimaryKey() == "" {
		return 0, schema.ErrNoPrimaryKey(r.entity.Name)
	}
	if r.entity.SoftDelete {
		upd := sqlbuilder.Update{
			Table:       r.entity.Table,
			Assignments: []sqlbuilder.Assignment{{Column: r.entity.SoftDeleteColumn, Value: time.Now().UTC()}},
			Where:       q.where,
			SoftDelete:  r.softDelete,
		}
		sqlText, params := upd.Build(q.s.dialect)
		return q.s.pool.ExecuteStatement(ctx, sqlText, params)
	}
	del := sqlbuilder.Delete{Table: r.entity.Table, Where: q.where, SoftDelete: r.softDelete}
	sqlText, params := del.Build(q.s.dialect)
	return q.s.pool.ExecuteStatement(ctx, sqlText, params)
}

// Update issues a bulk UPDATE over the query's filter with assignments.
// Bulk updates bypass the identity map entirely (§9, Open Questions
// #2) — callers holding a cached instance must call Session.Invalidate
// themselves if they need a fresh Get afterward.
func (q *Query) Update(ctx context.Context, assignments map[string]any) (int64, error) {
	r, err := q.resolve()
	if err != nil {
		return 0, err
	}
	if r.entity.PrimaryKey() == "" {
		return 0, schema.ErrNoPrimaryKey(r.entity.Name)
	}
	cols := r.entity.ColumnNames()
	ordered := make([]sqlbuilder.Assignment, 0, len(assignments))
	for _, c := range cols {
		if v, ok := assignments[c]; ok {
			ordered = append(ordered, sqlbuilder.Assignment{Column: c, Value: v})
		}
	}
	upd := sqlbuilder.Update{Table: r.entity.Table, Assignments: ordered, Where: q.where, SoftDelete: r.softDelete}
	sqlText, params := upd.Build(q.s.dialect)
	return q.s.pool.ExecuteStatement(ctx, sqlText, params)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
