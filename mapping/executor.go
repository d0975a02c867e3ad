package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/canonmap/canonmap/jsonpath"
)

var (
	// ErrMalformedSpec indicates a spec that cannot be executed.
	ErrMalformedSpec = errors.New("malformed mapping spec")
	// ErrMalformedPath indicates an items or nested path that does not
	// address an array.
	ErrMalformedPath = errors.New("malformed path")
)

// Executor runs a mapping spec against payloads.
//
// Create instances with [NewExecutor]. Execution never mutates the
// spec or the payload, so an executor is safe for repeated use.
type Executor struct {
	spec           *Spec
	canonicalPaths []string
}

// NewExecutor creates an [Executor] for spec. canonicalPaths lists the
// target schema's item-level paths; each output item is backfilled with
// an explicit null for any canonical path it leaves unset.
func NewExecutor(spec *Spec, canonicalPaths []string) (*Executor, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: spec must be an object", ErrMalformedSpec)
	}

	normalized := make([]string, 0, len(canonicalPaths))

	for _, path := range canonicalPaths {
		if p := NormalizeCanonicalPath(path); p != "" {
			normalized = append(normalized, p)
		}
	}

	return &Executor{spec: spec, canonicalPaths: normalized}, nil
}

// Execute maps payload into canonical output: an "items" list of
// mapped rows plus the spec's partner id when one is set.
func (e *Executor) Execute(payload any) (map[string]any, error) {
	if e.spec.Mappings == nil {
		return nil, fmt.Errorf("%w: mappings must be an object", ErrMalformedSpec)
	}

	items := e.spec.Mappings.Items
	if items == nil {
		return nil, fmt.Errorf("%w: mappings.items must be an object", ErrMalformedSpec)
	}

	if !jsonpath.IsArrayPath(items.Path) {
		return nil, fmt.Errorf("%w: items path %q must address an array", ErrMalformedPath, items.Path)
	}

	broadcast, err := e.computeBroadcast(payload)
	if err != nil {
		return nil, err
	}

	rootItems := jsonpath.Evaluate(payload, items.Path)
	mappedItems := make([]any, 0, len(rootItems))

	for _, item := range rootItems {
		mapped := make(map[string]any)

		applyBroadcast(mapped, broadcast)

		if err := e.applyBlock(item, items.Map, mapped); err != nil {
			return nil, err
		}

		e.applyDefaults(mapped)
		e.ensureCanonical(mapped)

		mappedItems = append(mappedItems, mapped)
	}

	result := map[string]any{"items": mappedItems}
	if e.spec.PartnerID != "" {
		result["partner_id"] = e.spec.PartnerID
	}

	return result, nil
}

// computeBroadcast evaluates the broadcast section once against the
// whole payload, keeping only fields that produce a value.
func (e *Executor) computeBroadcast(payload any) (map[string]any, error) {
	results := make(map[string]any)

	for _, target := range sectionTargets(e.spec.Broadcast) {
		field := e.spec.Broadcast[target]
		if field == nil {
			continue
		}

		value, err := evaluateField(payload, field)
		if err != nil {
			return nil, err
		}

		if value != nil {
			jsonpath.Assign(results, target, value)
		}
	}

	return results, nil
}

func applyBroadcast(target, broadcast map[string]any) {
	for _, key := range sectionTargets(broadcast) {
		jsonpath.Assign(target, key, jsonpath.Clone(broadcast[key]))
	}
}

// applyDefaults fills defaults for targets that remain null or unset.
func (e *Executor) applyDefaults(target map[string]any) {
	for _, key := range sectionTargets(e.spec.Defaults) {
		if jsonpath.Lookup(target, key) == nil {
			jsonpath.Assign(target, key, jsonpath.Clone(e.spec.Defaults[key]))
		}
	}
}

// ensureCanonical backfills explicit nulls for canonical paths the item
// left unset. Paths whose walk crosses a list are left alone.
func (e *Executor) ensureCanonical(target map[string]any) {
	for _, path := range e.canonicalPaths {
		if jsonpath.ConflictsWithList(target, path) {
			continue
		}

		if jsonpath.Lookup(target, path) == nil {
			jsonpath.Assign(target, path, nil)
		}
	}
}

// applyBlock maps one source element through a map block into target.
// Targets apply in sorted order.
func (e *Executor) applyBlock(source any, block Block, target map[string]any) error {
	targets := make([]string, 0, len(block))
	for t := range block {
		targets = append(targets, t)
	}

	slices.Sort(targets)

	for _, field := range targets {
		switch entry := block[field].(type) {
		case *Nested:
			if !jsonpath.IsArrayPath(entry.Path) {
				return fmt.Errorf("%w: nested path %q must address an array", ErrMalformedPath, entry.Path)
			}

			elements := jsonpath.Evaluate(source, entry.Path)
			results := make([]any, 0, len(elements))

			for _, element := range elements {
				nested := make(map[string]any)
				if err := e.applyBlock(element, entry.Map, nested); err != nil {
					return err
				}

				results = append(results, nested)
			}

			jsonpath.Assign(target, field, results)

		case *Field:
			value, err := evaluateField(source, entry)
			if err != nil {
				return err
			}

			if value == nil && !entry.Required {
				continue
			}

			jsonpath.Assign(target, field, value)
		}
	}

	return nil
}

// evaluateField resolves a leaf field against a source element: the
// first source path yielding non-null values wins, then the transform
// and match table apply. A field with no source, or whose paths all
// come up empty, yields nil.
func evaluateField(source any, field *Field) (any, error) {
	if field.Source == nil {
		return nil, nil
	}

	var paths []string

	switch v := field.Source.(type) {
	case string:
		paths = []string{v}

	case []any:
		paths = make([]string, 0, len(v))

		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: source must be a string or list of strings", ErrMalformedSpec)
			}

			paths = append(paths, s)
		}

	default:
		return nil, fmt.Errorf("%w: source must be a string or list of strings", ErrMalformedSpec)
	}

	var value any

	for _, path := range paths {
		nonNull := make([]any, 0)

		for _, v := range jsonpath.Evaluate(source, path) {
			if v != nil {
				nonNull = append(nonNull, v)
			}
		}

		if len(nonNull) == 0 {
			continue
		}

		if len(nonNull) > 1 {
			value = nonNull
		} else {
			value = nonNull[0]
		}

		break
	}

	if value == nil {
		return nil, nil
	}

	if field.Transform != "" {
		value = applyTransform(value, field.Transform)
	}

	if len(field.Match) > 0 {
		value = applyMatch(value, field.Match)
	}

	return value, nil
}

// applyTransform converts a value. Legacy transform names resolve to
// their canonical equivalents first. List values convert element-wise,
// except ensure_array which wraps the value as a whole. Unknown
// transform names leave the value unchanged; failed conversions yield
// nil.
func applyTransform(value any, transform string) any {
	if canonical := canonicalTransform(transform); canonical != "" {
		transform = canonical
	}

	if transform == "ensure_array" {
		if list, ok := value.([]any); ok {
			return list
		}

		return []any{value}
	}

	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = convertValue(v, transform)
		}

		return out
	}

	return convertValue(value, transform)
}

func convertValue(value any, transform string) any {
	if value == nil {
		return nil
	}

	switch transform {
	case "to_float":
		return toFloat(value)
	case "to_int":
		return toInt(value)
	case "to_string":
		return stringify(value)
	case "to_boolean":
		return toBoolean(value)
	}

	return value
}

func toFloat(value any) any {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case bool:
		if v {
			return float64(1)
		}

		return float64(0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}

		return f
	}

	return nil
}

// toInt truncates numbers toward zero. Strings must be plain base-10
// integers; "12.5" does not parse.
func toInt(value any) any {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case bool:
		if v {
			return int64(1)
		}

		return int64(0)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}

		return i
	}

	return nil
}

// stringify renders a value in its JSON scalar form: booleans as
// "true"/"false", numbers without a trailing ".0". Containers render
// as compact JSON.
func stringify(value any) any {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil
	}

	return string(encoded)
}

func toBoolean(value any) any {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y":
			return true
		case "false", "0", "no", "n":
			return false
		}

		return nil
	case float64:
		return v != 0
	case int64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}

	return nil
}

// applyMatch maps values through a literal lookup table. The "default"
// key supplies the fallback, including for values a transform nulled
// out.
func applyMatch(value any, match map[string]any) any {
	def := match["default"]

	mapOne := func(v any) any {
		if v == nil {
			return def
		}

		key, ok := stringify(v).(string)
		if !ok {
			return def
		}

		if mv, ok := match[key]; ok {
			return mv
		}

		return def
	}

	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = mapOne(v)
		}

		return out
	}

	return mapOne(value)
}
