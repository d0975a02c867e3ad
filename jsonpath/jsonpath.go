package jsonpath

import "strings"

// IsArrayPath reports whether path addresses an array, i.e. ends with the
// "[]" or "[*]" expansion suffix.
func IsArrayPath(path string) bool {
	return strings.HasSuffix(path, "[]") || strings.HasSuffix(path, "[*]")
}

// StripRoot removes a leading "$." or "$" from path.
func StripRoot(path string) string {
	if rest, ok := strings.CutPrefix(path, "$."); ok {
		return rest
	}

	return strings.TrimPrefix(path, "$")
}

// Evaluate walks path against root and returns all matched values in
// document order. Missing keys and null values are skipped, never produced.
// An empty path (after stripping the root marker) matches root itself.
func Evaluate(root any, path string) []any {
	path = StripRoot(path)
	if path == "" {
		return []any{root}
	}

	current := []any{root}

	for _, segment := range strings.Split(path, ".") {
		key, expand := splitSegment(segment)

		var next []any

		for _, value := range current {
			var candidate any

			switch v := value.(type) {
			case map[string]any:
				candidate = v[key]
			case []any:
				// A bare "[]" segment addresses the array itself.
				if key == "" {
					candidate = v
				}
			}

			if candidate == nil {
				continue
			}

			if expand {
				if arr, ok := candidate.([]any); ok {
					next = append(next, arr...)
				}

				continue
			}

			next = append(next, candidate)
		}

		current = next
	}

	return current
}

// splitSegment strips an array-expansion suffix from a path segment,
// returning the object key and whether expansion was requested.
func splitSegment(segment string) (string, bool) {
	if key, ok := strings.CutSuffix(segment, "[]"); ok {
		return key, true
	}

	if key, ok := strings.CutSuffix(segment, "[*]"); ok {
		return key, true
	}

	return segment, false
}
