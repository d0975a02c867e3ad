// Package jsonpath evaluates a constrained JSONPath dialect against dynamic
// JSON values and provides dotted-path helpers for building nested output
// objects.
//
// The supported dialect is deliberately small: an optional "$" or "$." root,
// dot-separated object keys, and array expansion via a "[]" or "[*]" suffix
// on a segment (a bare "[]" segment expands an array root). There are no
// filters, wildcards, slices, or indices.
//
// Values are plain [encoding/json] shapes: nil, bool, float64, string,
// []any, and map[string]any.
package jsonpath
