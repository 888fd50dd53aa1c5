// Package jsoncodec defines the opaque JSON encode/decode capability the
// core calls into for JSON-column hydration and migration-script
// rendering. The core never assumes a particular codec implementation
// (spec.md §1, "JSON codec implementation... the core calls into an
// opaque JSON encode/decode capability").
package jsoncodec

import gojson "github.com/goccy/go-json"

// Codec encodes and decodes JSON values. Implementations must be safe
// for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Default is the codec used when a session or builder is not given one
// explicitly. It wraps goccy/go-json, a drop-in encoding/json
// replacement, so JSON-column round-trips avoid reflection overhead on
// the hot hydration path without the core depending on any particular
// marshaling strategy.
var Default Codec = gojsonCodec{}

type gojsonCodec struct{}

func (gojsonCodec) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (gojsonCodec) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
