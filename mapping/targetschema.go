package mapping

import (
	"slices"
	"strings"
)

// FlattenTargetSchema flattens an example-shaped target schema into a
// map of JSONPath strings to the example values at those paths. Arrays
// contribute their first element under an "[]" suffix; empty containers
// flatten to their type name.
func FlattenTargetSchema(schema any) map[string]any {
	return flattenTargetSchema(schema, "$")
}

func flattenTargetSchema(schema any, prefix string) map[string]any {
	switch v := schema.(type) {
	case map[string]any:
		if len(v) == 0 {
			return map[string]any{prefix: "object"}
		}

		flattened := make(map[string]any)

		for key, value := range v {
			childPrefix := key
			if prefix != "" {
				childPrefix = prefix + "." + key
			}

			for k, fv := range flattenTargetSchema(value, childPrefix) {
				flattened[k] = fv
			}
		}

		return flattened

	case []any:
		arrayPrefix := prefix + "[]"
		if len(v) == 0 {
			return map[string]any{arrayPrefix: "array"}
		}

		return flattenTargetSchema(v[0], arrayPrefix)
	}

	return map[string]any{prefix: schema}
}

// TargetPaths resolves a target schema into a path-keyed map. A map
// whose keys already look like JSONPaths (any key starting with "$")
// is used as-is; example-shaped maps and arrays are flattened; anything
// else yields an empty map.
func TargetPaths(targetSchema any) map[string]any {
	if obj, ok := targetSchema.(map[string]any); ok {
		for key := range obj {
			if strings.HasPrefix(key, "$") {
				return obj
			}
		}
	}

	switch targetSchema.(type) {
	case map[string]any, []any:
		return FlattenTargetSchema(targetSchema)
	}

	return map[string]any{}
}

// NormalizeTargetPath strips the JSONPath root and array markers from a
// target path, leaving a dotted canonical form ("$.items[].id" becomes
// "items.id").
func NormalizeTargetPath(path string) string {
	normalized := path

	if after, ok := strings.CutPrefix(normalized, "$."); ok {
		normalized = after
	} else {
		normalized = strings.TrimPrefix(normalized, "$")
	}

	normalized = strings.ReplaceAll(normalized, "[*]", "")
	normalized = strings.ReplaceAll(normalized, "[]", "")

	return normalized
}

// NormalizeCanonicalPath converts a target path into its item-relative
// dotted form: the JSONPath root, a single leading items segment, and
// all array markers are removed ("$.items[].offer.price" becomes
// "offer.price").
func NormalizeCanonicalPath(path string) string {
	normalized := path

	if after, ok := strings.CutPrefix(normalized, "$."); ok {
		normalized = after
	} else {
		normalized = strings.TrimPrefix(normalized, "$")
	}

	if after, ok := strings.CutPrefix(normalized, "items[]."); ok {
		normalized = after
	} else if after, ok := strings.CutPrefix(normalized, "items."); ok {
		normalized = after
	}

	normalized = strings.ReplaceAll(normalized, "[*]", "")
	normalized = strings.ReplaceAll(normalized, "[]", "")

	return normalized
}

// CanonicalItemPaths extracts the sorted item-level target paths from a
// target schema: every resolved path containing ".items[]", in
// normalized dotted form (e.g. "items.id").
func CanonicalItemPaths(targetSchema any) []string {
	paths := make([]string, 0)

	for path := range TargetPaths(targetSchema) {
		if strings.Contains(path, ".items[]") {
			paths = append(paths, NormalizeTargetPath(path))
		}
	}

	slices.Sort(paths)

	return paths
}
