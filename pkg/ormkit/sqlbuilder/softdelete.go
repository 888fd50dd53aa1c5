package sqlbuilder

// SoftDelete configures how a query's WHERE clause should treat a
// soft-delete column. This is the single injection site (Design
// Notes) every terminal select/update/delete builder consults — never
// applied piecemeal at call sites.
type SoftDelete struct {
	// Column is the soft-delete marker column name ("" disables
	// soft-delete handling for this query entirely).
	Column string
	// IncludeDeleted, when true, omits the soft-delete filter so both
	// live and deleted rows are returned.
	IncludeDeleted bool
	// OnlyDeleted, when true, inverts the filter to match only
	// soft-deleted rows. Takes precedence over IncludeDeleted.
	OnlyDeleted bool
}

// filter returns the Filter this configuration contributes to a WHERE
// clause, or the zero Filter if soft-delete is not in play.
func (sd SoftDelete) filter() Filter {
	if sd.Column == "" {
		return Filter{}
	}
	if sd.OnlyDeleted {
		return Leaf(sd.Column, IsNull, false)
	}
	if sd.IncludeDeleted {
		return Filter{}
	}
	return Leaf(sd.Column, IsNull, true)
}

// withSoftDelete folds sd into where, AND-joining when both are
// present.
func withSoftDelete(where Filter, sd SoftDelete) Filter {
	sdFilter := sd.filter()
	if sdFilter.isZero() {
		return where
	}
	if where.isZero() {
		return sdFilter
	}
	return And(where, sdFilter)
}
