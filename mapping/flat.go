package mapping

import "strings"

// FlatSpec is the legacy flat mapping form: a list of target entries
// with no item path and no broadcast section.
type FlatSpec struct {
	Mappings []FlatEntry    `json:"mappings"`
	Defaults map[string]any `json:"defaults,omitempty"`
}

// FlatEntry maps one target field in a [FlatSpec]. Source paths may
// omit the "$." root. Default, when set, becomes a spec-level default
// for the target.
type FlatEntry struct {
	Target    string         `json:"target"`
	Source    any            `json:"source,omitempty"`
	Transform string         `json:"transform,omitempty"`
	Match     map[string]any `json:"match,omitempty"`
	Required  bool           `json:"required,omitempty"`
	Default   any            `json:"default,omitempty"`
}

// flatTransforms maps legacy flat transform names to their canonical
// equivalents. Dates stay strings; parsing them is the consumer's job.
var flatTransforms = map[string]string{
	"string":  "to_string",
	"number":  "to_float",
	"integer": "to_int",
	"boolean": "to_boolean",
	"date":    "to_string",
}

// canonicalTransform resolves a transform name, legacy or canonical.
// Canonical names pass through unchanged; unknown names are dropped.
// Both the flat converter and the executor resolve through here, so a
// nested-dialect leaf carrying a legacy name still converts.
func canonicalTransform(name string) string {
	if canonical, ok := flatTransforms[name]; ok {
		return canonical
	}

	switch name {
	case "to_string", "to_float", "to_int", "to_boolean", "ensure_array":
		return name
	}

	return ""
}

// NormalizeSourcePath trims a source path and roots it at "$." when the
// root is missing. Blank paths normalize to "".
func NormalizeSourcePath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "$") {
		return trimmed
	}

	return "$." + trimmed
}

// FromFlat converts a legacy flat spec into the nested form, rooting
// its entries at itemsPath. Entries without a target are dropped;
// entry-level defaults move into the spec's defaults section.
func FromFlat(flat *FlatSpec, itemsPath string) *Spec {
	defaults := make(map[string]any)
	if flat != nil {
		for k, v := range flat.Defaults {
			defaults[k] = v
		}
	}

	block := make(Block)

	if flat != nil {
		for _, entry := range flat.Mappings {
			if entry.Target == "" {
				continue
			}

			field := &Field{Source: normalizeFlatSource(entry.Source)}

			if transform := canonicalTransform(entry.Transform); transform != "" {
				field.Transform = transform
			}

			if entry.Required {
				field.Required = true
			}

			if entry.Match != nil {
				field.Match = entry.Match
			}

			if entry.Default != nil {
				defaults[entry.Target] = entry.Default
			}

			block[entry.Target] = field
		}
	}

	return &Spec{
		Version:   "1.0",
		Defaults:  defaults,
		Broadcast: map[string]*Field{},
		Mappings:  &Mappings{Items: &Items{Path: itemsPath, Map: block}},
	}
}

// normalizeFlatSource normalizes a flat entry source: strings are
// rooted, lists keep their normalized string members, and anything
// else becomes nil.
func normalizeFlatSource(source any) any {
	switch v := source.(type) {
	case string:
		if normalized := NormalizeSourcePath(v); normalized != "" {
			return normalized
		}

		return nil

	case []any:
		sources := make([]any, 0, len(v))

		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}

			if normalized := NormalizeSourcePath(s); normalized != "" {
				sources = append(sources, normalized)
			}
		}

		if len(sources) == 0 {
			return nil
		}

		return sources
	}

	return nil
}

// FlatFromValue decodes a generic JSON value into a [FlatSpec]. Only
// maps whose "mappings" key holds a list qualify; anything else decodes
// to nil.
func FlatFromValue(value any) *FlatSpec {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	entries, ok := obj["mappings"].([]any)
	if !ok {
		return nil
	}

	flat := &FlatSpec{}

	if defaults, ok := obj["defaults"].(map[string]any); ok {
		flat.Defaults = defaults
	}

	for _, raw := range entries {
		entryObj, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		entry := FlatEntry{Source: entryObj["source"], Default: entryObj["default"]}

		if t, ok := entryObj["target"].(string); ok {
			entry.Target = t
		}

		if t, ok := entryObj["transform"].(string); ok {
			entry.Transform = t
		}

		if m, ok := entryObj["match"].(map[string]any); ok {
			entry.Match = m
		}

		if r, ok := entryObj["required"].(bool); ok {
			entry.Required = r
		}

		flat.Mappings = append(flat.Mappings, entry)
	}

	return flat
}
