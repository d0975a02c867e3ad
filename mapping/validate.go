package mapping

import (
	"fmt"
	"slices"
	"strings"

	"github.com/canonmap/canonmap/jsonpath"
)

// Validate checks a spec's structure and returns every problem found.
// An empty result means the spec is executable. Validating the output
// of [Repair] against the same target set always succeeds.
func Validate(spec *Spec) []string {
	if spec == nil {
		return []string{"mapping_spec must be a JSON object"}
	}

	var errs []string

	if spec.Mappings == nil {
		errs = append(errs, "mapping_spec.mappings must be an object")

		return errs
	}

	items := spec.Mappings.Items
	if items == nil {
		errs = append(errs, "mapping_spec.mappings.items must be an object")

		return errs
	}

	if !jsonpath.IsArrayPath(items.Path) {
		errs = append(errs, "mappings.items.path must be a JSONPath array (e.g., $.items[])")
	}

	if items.Map == nil {
		errs = append(errs, "mappings.items.map must be an object")

		return errs
	}

	errs = append(errs, validateBlock(items.Map, "mappings.items.map", true)...)

	for _, section := range []struct {
		name    string
		targets []string
	}{
		{name: "broadcast", targets: sectionTargets(spec.Broadcast)},
		{name: "defaults", targets: sectionTargets(spec.Defaults)},
	} {
		for _, target := range section.targets {
			if targetHasIllegalTokens(target) {
				errs = append(errs, fmt.Sprintf(
					"%s target '%s' must not contain '$' or '[]'", section.name, target))
			}
		}
	}

	return errs
}

func sectionTargets[V any](section map[string]V) []string {
	targets := make([]string, 0, len(section))
	for t := range section {
		targets = append(targets, t)
	}

	slices.Sort(targets)

	return targets
}

func validateBlock(block Block, context string, inItemContext bool) []string {
	var errs []string

	targets := make([]string, 0, len(block))
	for t := range block {
		targets = append(targets, t)
	}

	slices.Sort(targets)

	for _, target := range targets {
		if targetHasIllegalTokens(target) {
			errs = append(errs, fmt.Sprintf(
				"%s target '%s' must not contain '$' or '[]'", context, target))
		}

		switch entry := block[target].(type) {
		case *Nested:
			if !jsonpath.IsArrayPath(entry.Path) {
				errs = append(errs, fmt.Sprintf("%s.%s.path must be a JSONPath array", context, target))
			}

			if entry.Map == nil {
				errs = append(errs, fmt.Sprintf("%s.%s.map must be an object", context, target))
			} else {
				errs = append(errs, validateBlock(entry.Map, context+"."+target+".map", true)...)
			}

		case *Field:
			errs = append(errs, validateField(entry, context, target, inItemContext)...)
		}
	}

	return errs
}

func validateField(field *Field, context, target string, inItemContext bool) []string {
	var sources []any

	switch v := field.Source.(type) {
	case nil:
		return nil
	case string:
		sources = []any{v}
	case []any:
		sources = v
	default:
		return []string{fmt.Sprintf("%s.%s.source must be a string or list", context, target)}
	}

	var errs []string

	if inItemContext {
		for _, source := range sources {
			if str, ok := source.(string); ok && hasFeedPrefix(str) {
				errs = append(errs, fmt.Sprintf(
					"%s.%s.source references feed metadata; use broadcast/defaults", context, target))
			}
		}
	}

	return errs
}

func targetHasIllegalTokens(target string) bool {
	return strings.Contains(target, "[]") || strings.Contains(target, "$")
}
