/*
Package apperr defines OrmKit's centralized error taxonomy.

It generalizes the teacher's apperr package (internal/platform/apperr
in taibuivan/yomira) from an HTTP-status-coded API error into the
kind-coded taxonomy spec.md §7 calls for: Configuration, Schema
resolution, Query construction, Integrity, Not-found, Lazy-load
misuse, and Migration errors.

Every error that leaves the core should be an [*Error] so callers can
branch on Kind without string-matching messages.
*/
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category (spec.md §7).
type Kind string

const (
	KindConfiguration     Kind = "CONFIGURATION"
	KindSchemaResolution  Kind = "SCHEMA_RESOLUTION"
	KindQueryConstruction Kind = "QUERY_CONSTRUCTION"
	KindIntegrity         Kind = "INTEGRITY"
	KindNotFound          Kind = "NOT_FOUND"
	KindLazyLoadMisuse    Kind = "LAZY_LOAD_MISUSE"
	KindMigration         Kind = "MIGRATION"
	KindInternal          Kind = "INTERNAL"
)

// Error is the canonical error type for OrmKit.
//
// Cause is kept separate from Message so that callers logging Error
// values can choose to surface the underlying driver error without
// baking it into every comparison against Message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is implements errors.Is support purely on Kind — two *Error values
// compare equal for errors.Is purposes when their Kind matches,
// regardless of Message, so callers can write
// errors.Is(err, apperr.NotFound("")) as a kind check.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New constructs an [*Error] of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an [*Error] of the given kind, recording cause for
// logging without exposing it to kind-based comparisons.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Configuration builds a [KindConfiguration] error (missing config
// file, missing required keys, unresolvable model module, no database
// URL).
func Configuration(message string) *Error { return New(KindConfiguration, message) }

// SchemaResolution builds a [KindSchemaResolution] error (unresolvable
// relationship target, ambiguous foreign key, missing primary key on
// an operation that requires one).
func SchemaResolution(message string) *Error { return New(KindSchemaResolution, message) }

// QueryConstruction builds a [KindQueryConstruction] error (insert
// with zero rows, delete/update on an entity with no primary key).
func QueryConstruction(message string) *Error { return New(KindQueryConstruction, message) }

// Integrity wraps a driver-reported constraint violation.
func Integrity(message string, cause error) *Error { return Wrap(KindIntegrity, message, cause) }

// NotFound builds a [KindNotFound] error for a named resource.
func NotFound(resource string) *Error { return New(KindNotFound, resource+" not found") }

// LazyLoadMisuse builds a [KindLazyLoadMisuse] error describing an
// unloaded relationship access.
func LazyLoadMisuse(message string) *Error { return New(KindLazyLoadMisuse, message) }

// Migration builds a [KindMigration] error (invalid script, broken
// down_revision chain, runtime failure inside upgrade/downgrade).
func Migration(message string, cause error) *Error { return Wrap(KindMigration, message, cause) }

// Internal wraps an unexpected failure that does not fit another kind.
func Internal(cause error) *Error { return Wrap(KindInternal, "unexpected internal error", cause) }

// As extracts the [*Error] from err's chain, or nil if not present.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf reports the [Kind] of err, or "" if err is not an [*Error].
func KindOf(err error) Kind {
	if e := As(err); e != nil {
		return e.Kind
	}
	return ""
}
