package mapping

import (
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// draftURI is the dialect emitted on exported root schemas.
const draftURI = "http://json-schema.org/draft-07/schema#"

// ExportSchema converts a target schema into a JSON Schema. The input
// is resolved through [TargetPaths], so both example-shaped documents
// and path-keyed maps export. Path values name types directly
// ("string", "number") or carry example values whose types are
// inferred.
func ExportSchema(targetSchema any) *jsonschema.Schema {
	root := newSchemaNode()

	paths := TargetPaths(targetSchema)

	sorted := make([]string, 0, len(paths))
	for path := range paths {
		sorted = append(sorted, path)
	}

	slices.Sort(sorted)

	for _, path := range sorted {
		rel := path

		if after, ok := strings.CutPrefix(rel, "$."); ok {
			rel = after
		} else {
			rel = strings.TrimPrefix(rel, "$")
		}

		cursor := root

		if rel != "" {
			for _, segment := range strings.Split(rel, ".") {
				name, isArray := cutArrayMarker(segment)

				// A bare "[]" segment marks the current node itself as
				// an array, as in the root path "$[]".
				if name == "" {
					if isArray {
						cursor.array = true
					}

					continue
				}

				cursor = cursor.child(name)

				if isArray {
					cursor.array = true
				}
			}
		}

		cursor.value = paths[path]
		cursor.hasValue = true
	}

	schema := root.schema()
	schema.Schema = draftURI

	return schema
}

func cutArrayMarker(segment string) (string, bool) {
	if name, ok := strings.CutSuffix(segment, "[]"); ok {
		return name, true
	}

	if name, ok := strings.CutSuffix(segment, "[*]"); ok {
		return name, true
	}

	return segment, false
}

type schemaNode struct {
	children map[string]*schemaNode
	array    bool
	value    any
	hasValue bool
}

func newSchemaNode() *schemaNode {
	return &schemaNode{children: make(map[string]*schemaNode)}
}

func (n *schemaNode) child(name string) *schemaNode {
	if c, ok := n.children[name]; ok {
		return c
	}

	c := newSchemaNode()
	n.children[name] = c

	return c
}

// schema renders the node, wrapping it in an array schema when the
// node's path carried an array marker.
func (n *schemaNode) schema() *jsonschema.Schema {
	body := n.body()

	if n.array {
		return &jsonschema.Schema{Type: "array", Items: body}
	}

	return body
}

func (n *schemaNode) body() *jsonschema.Schema {
	if len(n.children) == 0 {
		if n.hasValue {
			return leafSchema(n.value)
		}

		return &jsonschema.Schema{Type: "object"}
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(n.children)),
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		schema.Properties[name] = n.children[name].schema()
	}

	return schema
}

// leafSchema maps a flattened path value to a schema: known type names
// pass through, anything else infers from the example value.
func leafSchema(value any) *jsonschema.Schema {
	switch v := value.(type) {
	case string:
		switch v {
		case "string", "number", "integer", "boolean", "object", "array", "null":
			return &jsonschema.Schema{Type: v}
		}

		return &jsonschema.Schema{Type: "string"}

	case bool:
		return &jsonschema.Schema{Type: "boolean"}

	case float64, int, int64:
		return &jsonschema.Schema{Type: "number"}

	case map[string]any:
		return &jsonschema.Schema{Type: "object"}

	case []any:
		return &jsonschema.Schema{Type: "array"}
	}

	return &jsonschema.Schema{}
}
