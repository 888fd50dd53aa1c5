package schema

// Column describes one mapped attribute of an [Entity].
type Column struct {
	Name       string
	GoName     string
	Type       string
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Default    any

	// DefaultFunc, when set, produces a fresh default value per row
	// rather than a single static [Default] (e.g. uuid.New). Migration
	// autogen and CreateTable rendering ignore it — a call-time default
	// has no DDL-level representation — but the session insert path
	// consults it when a staged row omits the column entirely.
	DefaultFunc func() any

	// Index marks this column as carrying a (non-unique) index. Unique
	// already implies an index, so autogen only emits a bare CreateIndex
	// for columns with Index set and Unique unset.
	Index bool

	// MaxLength bounds a string-typed column's declared length (e.g.
	// VARCHAR(n)); zero means unbounded.
	MaxLength int

	// Autoincrement marks a primary-key column as database-generated.
	// Entity.InsertColumnNames omits it from the insert column list
	// (§4.D: "The autoincrement primary-key column is omitted from the
	// insert column list").
	Autoincrement bool

	// ForeignKey names the column on the other side of a relationship
	// this column backs, in "entity.column" form. Empty when this
	// column is not a foreign key.
	ForeignKey string

	// FKOnDelete/FKOnUpdate carry the referential action for a foreign
	// key column ("CASCADE", "SET NULL", "RESTRICT", ...). Nothing in
	// this module reads them: neither relationship resolution nor
	// migration autogen's CreateTable/AddColumn output uses them.
	FKOnDelete string
	FKOnUpdate string

	// JSON marks this column as carrying an opaque JSON-codec payload
	// rather than a scalar value.
	JSON bool
}
