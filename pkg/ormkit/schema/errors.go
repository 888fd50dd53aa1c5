package schema

import "github.com/alexogeny/ormkit/internal/platform/apperr"

// ErrUnknownEntity reports a relationship target that never got
// registered.
func ErrUnknownEntity(name string) error {
	return apperr.SchemaResolution("unknown entity: " + name)
}

// ErrAmbiguousForeignKey reports a relationship whose foreign key
// cannot be inferred because either no candidate column or more than
// one candidate column exists between the two entities.
func ErrAmbiguousForeignKey(relationship, entity string) error {
	return apperr.SchemaResolution("ambiguous foreign key for relationship " + relationship + " on " + entity + ": specify ForeignKey explicitly")
}

// ErrRelationshipNotLoaded is returned by loader.Row.Relationship when
// the named relationship is absent from the row — either because its
// plan entry used the "raise" strategy, or because no plan entry
// named it at all (§3, "reading a relationship attribute not present
// in the loaded map fails with an error describing the omission").
var ErrRelationshipNotLoaded = apperr.LazyLoadMisuse("relationship accessed before it was loaded")

// ErrNoPrimaryKey reports an operation that requires a primary key on
// an entity that has none.
func ErrNoPrimaryKey(entity string) error {
	return apperr.QueryConstruction("entity " + entity + " has no primary key")
}

// ErrNotSoftDelete reports a SoftDelete/Restore call against an entity
// that does not declare the soft-delete mixin.
func ErrNotSoftDelete(entity string) error {
	return apperr.QueryConstruction("entity " + entity + " does not declare soft delete")
}
