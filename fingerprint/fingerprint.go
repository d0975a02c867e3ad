package fingerprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Type tags emitted in fingerprints.
const (
	TypeNull        = "null"
	TypeBoolean     = "boolean"
	TypeNumber      = "number"
	TypeString      = "string"
	TypeObject      = "object"
	TypeArray       = "array"
	TypeEmptyObject = "object (empty)"
	TypeEmptyArray  = "array (empty)"
	TypeUnknown     = "unknown"
)

// ErrInvalidOption indicates an invalid extractor option.
var ErrInvalidOption = errors.New("invalid option")

// Fingerprint maps structural paths to type tags. Iterate via [Fingerprint.Paths]
// for deterministic order.
type Fingerprint map[string]string

// Paths returns the fingerprint's paths in sorted order.
func (f Fingerprint) Paths() []string {
	paths := make([]string, 0, len(f))
	for path := range f {
		paths = append(paths, path)
	}

	slices.Sort(paths)

	return paths
}

// MarshalJSON marshals the fingerprint with sorted keys so equal
// fingerprints serialize byte-identically.
func (f Fingerprint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, path := range f.Paths() {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(path)
		if err != nil {
			return nil, fmt.Errorf("marshal path: %w", err)
		}

		val, err := json.Marshal(f[path])
		if err != nil {
			return nil, fmt.Errorf("marshal type tag: %w", err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Extractor walks JSON values and produces fingerprints.
//
// Create instances with [NewExtractor].
type Extractor struct {
	maxItemsPerArray int
	boundSet         bool
}

// Option configures an [Extractor].
type Option func(*Extractor)

// WithMaxItemsPerArray bounds how many elements of each array contribute to
// the fingerprint. The bound must be positive; [NewExtractor] rejects
// anything less. Without this option every element contributes.
func WithMaxItemsPerArray(n int) Option {
	return func(e *Extractor) {
		e.maxItemsPerArray = n
		e.boundSet = true
	}
}

// NewExtractor creates an [Extractor] with the given options.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{}

	for _, opt := range opts {
		opt(e)
	}

	if e.boundSet && e.maxItemsPerArray < 1 {
		return nil, fmt.Errorf("%w: maxItemsPerArray must be positive, got %d",
			ErrInvalidOption, e.maxItemsPerArray)
	}

	return e, nil
}

// Extract produces the fingerprint of value, rooted at "$".
func (e *Extractor) Extract(value any) Fingerprint {
	fp := make(Fingerprint)
	e.walk(value, "$", fp)

	return fp
}

func (e *Extractor) walk(value any, prefix string, fp Fingerprint) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			fp[prefix] = TypeEmptyObject

			return
		}

		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}

		slices.Sort(keys)

		for _, key := range keys {
			e.walk(v[key], prefix+"."+key, fp)
		}

	case []any:
		e.walkArray(v, prefix+"[]", fp)

	default:
		fp[prefix] = describePrimitive(value)
	}
}

// walkArray inspects up to maxItemsPerArray elements, skipping nulls. The
// first primitive type seen is taken as the representative element type;
// container elements are recursed into under the array prefix.
func (e *Extractor) walkArray(arr []any, prefix string, fp Fingerprint) {
	if len(arr) == 0 {
		fp[prefix] = TypeEmptyArray

		return
	}

	items := arr
	if e.maxItemsPerArray > 0 && len(items) > e.maxItemsPerArray {
		items = items[:e.maxItemsPerArray]
	}

	var (
		nonNullSeen bool
		primitive   string
		container   string
	)

	for _, item := range items {
		if item == nil {
			continue
		}

		nonNullSeen = true

		switch item.(type) {
		case map[string]any:
			if container == "" {
				container = TypeObject
			}

			e.walk(item, prefix, fp)

		case []any:
			if container == "" {
				container = TypeArray
			}

			e.walk(item, prefix, fp)

		default:
			if primitive == "" {
				primitive = describePrimitive(item)
			}

			fp[prefix] = "array<" + primitive + ">"
		}
	}

	switch {
	case !nonNullSeen:
		fp[prefix] = "array<null>"
	case primitive == "":
		if container == "" {
			container = TypeUnknown
		}

		fp[prefix] = "array<" + container + ">"
	}
}

// describePrimitive returns the stable type tag for a primitive JSON value.
func describePrimitive(value any) string {
	switch value.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case float64, int, int64, json.Number:
		return TypeNumber
	case string:
		return TypeString
	}

	return TypeUnknown
}
