package mapping

import (
	"strings"

	"github.com/canonmap/canonmap/fingerprint"
)

// automapMaxArrayItems bounds fingerprint work during auto-mapping.
const automapMaxArrayItems = 10

// ChooseItemsPath picks the root array path for a payload: the payload
// itself when it is an array, the first of its "items", "data", or
// "records" fields holding an array, or "$.items[]" as a last resort.
func ChooseItemsPath(payload any) string {
	switch v := payload.(type) {
	case []any:
		return "$[]"

	case map[string]any:
		for _, key := range []string{"items", "data", "records"} {
			if _, ok := v[key].([]any); ok {
				return "$." + key + "[]"
			}
		}
	}

	return "$.items[]"
}

// AutoMap derives a best-effort spec by matching target fields against
// a fingerprint of the payload: exact normalized-path matches first,
// then matches on the final path segment. Unmatched targets get a null
// source. The result always validates.
func AutoMap(payload, targetSchema any) *Spec {
	extractor, err := fingerprint.NewExtractor(
		fingerprint.WithMaxItemsPerArray(automapMaxArrayItems),
	)
	if err != nil {
		// Unreachable with a positive constant bound.
		panic(err)
	}

	inputSchema := extractor.Extract(payload)

	// Normalized source forms, resolved in sorted path order so ties
	// break deterministically.
	sourcePaths := inputSchema.Paths()
	normalizedSources := make(map[string]string, len(sourcePaths))
	normalizedOrder := make([]string, 0, len(sourcePaths))

	for _, path := range sourcePaths {
		normalized := NormalizeTargetPath(path)
		if _, seen := normalizedSources[normalized]; !seen {
			normalizedOrder = append(normalizedOrder, normalized)
		}

		normalizedSources[normalized] = path
	}

	pickSource := func(target string) string {
		if original, ok := normalizedSources[target]; ok {
			return original
		}

		segments := strings.Split(target, ".")
		tail := segments[len(segments)-1]

		for _, normalized := range normalizedOrder {
			parts := strings.Split(normalized, ".")
			if parts[len(parts)-1] == tail {
				return normalizedSources[normalized]
			}
		}

		return ""
	}

	block := make(Block)

	for _, target := range CanonicalItemPaths(targetSchema) {
		field := &Field{}
		if source := pickSource(target); source != "" {
			field.Source = source
		}

		block[target] = field
	}

	return &Spec{
		Version:   "1.0",
		Defaults:  map[string]any{},
		Broadcast: map[string]*Field{},
		Mappings:  &Mappings{Items: &Items{Path: ChooseItemsPath(payload), Map: block}},
	}
}
