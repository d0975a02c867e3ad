package jsonpath

import "strings"

// Assign writes value into target at the dotted path, creating intermediate
// objects as needed. A non-object intermediate is overwritten.
func Assign(target map[string]any, dotted string, value any) {
	parts := strings.Split(dotted, ".")
	cursor := target

	for _, part := range parts[:len(parts)-1] {
		child, ok := cursor[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			cursor[part] = child
		}

		cursor = child
	}

	cursor[parts[len(parts)-1]] = value
}

// Lookup returns the value stored at the dotted path, or nil when any
// segment is absent or a non-object intermediate is encountered.
func Lookup(data any, dotted string) any {
	cursor := data

	for _, part := range strings.Split(dotted, ".") {
		obj, ok := cursor.(map[string]any)
		if !ok {
			return nil
		}

		cursor, ok = obj[part]
		if !ok {
			return nil
		}
	}

	return cursor
}

// ConflictsWithList reports whether resolving the dotted path inside target
// crosses an array, or whether the path itself resolves to one. Callers use
// this to avoid null-filling fields whose ancestors collapsed into lists.
func ConflictsWithList(target map[string]any, dotted string) bool {
	var cursor any = target

	for _, part := range strings.Split(dotted, ".") {
		if _, ok := cursor.([]any); ok {
			return true
		}

		obj, ok := cursor.(map[string]any)
		if !ok {
			return false
		}

		cursor = obj[part]
	}

	_, isList := cursor.([]any)

	return isList
}

// Clone returns a deep copy of a JSON value. Scalars are returned as-is;
// objects and arrays are copied recursively.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			out[key] = Clone(child)
		}

		return out

	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = Clone(child)
		}

		return out

	default:
		return value
	}
}
