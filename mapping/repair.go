package mapping

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// feedLevelPrefixes are source roots that address feed metadata rather
// than item content. Item-level mappings must not read them directly.
var feedLevelPrefixes = []string{
	"$.feed_metadata",
	"$.meta",
	"$.source",
	"$.partner",
	"$.schema_version",
	"$.default_operation_type",
}

// RepairOption configures [Repair].
type RepairOption func(*repairer)

// WithAllowedTargets restricts item-level targets to the given
// canonical set. Unknown targets are dropped and, when the set is
// non-empty, missing targets are backfilled with null sources.
func WithAllowedTargets(targets []string) RepairOption {
	return func(r *repairer) {
		r.allowedTargets = make(map[string]bool, len(targets))
		for _, t := range targets {
			r.allowedTargets[t] = true
		}
	}
}

type repairer struct {
	allowedTargets map[string]bool
	repairs        []string
}

func (r *repairer) note(format string, args ...any) {
	r.repairs = append(r.repairs, fmt.Sprintf(format, args...))
}

// Repair normalizes a mapping spec into an executable form and returns
// the repaired spec alongside a description of every change made.
//
// The input may be a [*Spec], a generic JSON object, or raw text
// containing a JSON object (typically language model output). Repair
// initializes missing sections, strips array markers from target keys,
// drops targets that still carry path syntax, removes expression
// sources, relocates feed-level sources to the broadcast section and
// constant sources to defaults, and enforces the allowed-target set. Repairing an already-repaired spec changes
// nothing. A nil spec with the reasons collected so far is returned
// when no JSON object can be recovered from the input.
func Repair(specOrText any, opts ...RepairOption) (*Spec, []string) {
	r := &repairer{}
	for _, opt := range opts {
		opt(r)
	}

	spec := r.coerce(specOrText)
	if spec == nil {
		return nil, r.repairs
	}

	if spec.Defaults == nil {
		spec.Defaults = map[string]any{}

		r.note("Initialized missing defaults to {}")
	}

	if spec.Broadcast == nil {
		spec.Broadcast = map[string]*Field{}

		r.note("Initialized missing broadcast to {}")
	}

	spec.Defaults = normalizeTargetKeys(spec.Defaults, r)
	spec.Broadcast = normalizeTargetKeys(spec.Broadcast, r)

	if spec.Mappings == nil || spec.Mappings.Items == nil || spec.Mappings.Items.Map == nil {
		return spec, r.repairs
	}

	repaired := r.repairBlock(spec.Mappings.Items.Map, spec, true, true)
	spec.Mappings.Items.Map = repaired

	if len(r.allowedTargets) > 0 {
		targets := make([]string, 0, len(r.allowedTargets))
		for t := range r.allowedTargets {
			targets = append(targets, t)
		}

		slices.Sort(targets)

		for _, target := range targets {
			if _, ok := repaired[target]; !ok {
				repaired[target] = &Field{}

				r.note("Added missing target '%s' with null source", target)
			}
		}
	}

	return spec, r.repairs
}

// coerce resolves the accepted input forms into a fresh [*Spec].
func (r *repairer) coerce(specOrText any) *Spec {
	switch v := specOrText.(type) {
	case *Spec:
		return v.Clone()

	case map[string]any:
		return FromValue(v)

	case string:
		extracted := ExtractFirstJSONObject(v)
		if extracted == nil {
			r.note("Failed to extract JSON object from mapping text")

			return nil
		}

		r.note("Extracted JSON object from mapping text wrapper")

		return FromValue(extracted)
	}

	return nil
}

// ExtractFirstJSONObject recovers the first balanced JSON object from
// free text. The whole trimmed text is tried first; otherwise braces
// are scanned with string and escape awareness. Only objects qualify;
// a top-level array or scalar yields nil.
func ExtractFirstJSONObject(text string) map[string]any {
	stripped := strings.TrimSpace(text)

	if strings.HasPrefix(stripped, "{") && strings.HasSuffix(stripped, "}") {
		if obj := parseJSONObject(stripped); obj != nil {
			return obj
		}
	}

	start := strings.Index(stripped, "{")
	if start == -1 {
		return nil
	}

	var (
		inString bool
		escape   bool
		depth    int
	)

	for i := start; i < len(stripped); i++ {
		ch := stripped[i]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}

			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return parseJSONObject(stripped[start : i+1])
			}
		}
	}

	return nil
}

func parseJSONObject(candidate string) map[string]any {
	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil
	}

	return obj
}

func normalizeTargetKey(key string) string {
	return strings.ReplaceAll(key, "[]", "")
}

// normalizeTargetKeys rewrites the keys of a defaults or broadcast
// section, stripping array markers and dropping keys that still carry
// path syntax. Keys are visited in sorted order so repeated repairs
// report identically.
func normalizeTargetKeys[V any](section map[string]V, r *repairer) map[string]V {
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	out := make(map[string]V, len(section))

	for _, k := range keys {
		nk := normalizeTargetKey(k)
		if nk != k {
			r.note("Normalized target key '%s' -> '%s'", k, nk)
		}

		if strings.Contains(nk, "$") {
			r.note("Dropped invalid target key '%s'", k)

			continue
		}

		out[nk] = section[k]
	}

	return out
}

func looksLikeJSONPath(value string) bool {
	return strings.HasPrefix(value, "$")
}

// looksLikeExpression reports whether a source string is an arithmetic
// or function expression rather than a plain path.
func looksLikeExpression(value string) bool {
	if !strings.HasPrefix(value, "$") {
		return false
	}

	for _, token := range []string{" + ", " - ", " * ", " / ", "'", `"`, "(", ")"} {
		if strings.Contains(value, token) {
			return true
		}
	}

	return false
}

// repairBlock rewrites a map block in sorted target order. Nested
// blocks recurse without target filtering; filtering applies to the
// top-level item block only.
func (r *repairer) repairBlock(block Block, spec *Spec, filterTargets, inItemContext bool) Block {
	targets := make([]string, 0, len(block))
	for t := range block {
		targets = append(targets, t)
	}

	slices.Sort(targets)

	out := make(Block, len(block))

	for _, target := range targets {
		normalized := normalizeTargetKey(target)

		// Targets are dotted field names; a "$" means a path leaked in.
		if strings.Contains(normalized, "$") {
			r.note("Dropped invalid target field '%s'", target)

			continue
		}

		if filterTargets && r.allowedTargets != nil && !r.allowedTargets[normalized] {
			r.note("Dropped unknown target field '%s'", target)

			continue
		}

		switch entry := block[target].(type) {
		case *Nested:
			out[normalized] = &Nested{
				Path: entry.Path,
				Map:  r.repairBlock(entry.Map, spec, false, true),
			}

		case *Field:
			out[normalized] = r.repairField(normalized, entry, spec, inItemContext)
		}
	}

	return out
}

// repairField cleans a leaf mapping: expression sources are removed,
// feed-level sources move to broadcast, and leading constant sources
// move into defaults. The target is already key-normalized.
func (r *repairer) repairField(normalized string, field *Field, spec *Spec, inItemContext bool) *Field {
	if field.Source == nil {
		return field
	}

	var sources []any

	switch v := field.Source.(type) {
	case string:
		sources = []any{v}
	case []any:
		sources = v
	default:
		return field
	}

	cleaned := make([]any, 0, len(sources))

	for _, s := range sources {
		if str, ok := s.(string); ok && looksLikeExpression(str) {
			r.note("Removed expression source for '%s' (set to null)", normalized)

			continue
		}

		cleaned = append(cleaned, s)
	}

	if inItemContext {
		var (
			feed    []any
			nonFeed []any
		)

		for _, s := range cleaned {
			if str, ok := s.(string); ok && hasFeedPrefix(str) {
				feed = append(feed, s)
			} else {
				nonFeed = append(nonFeed, s)
			}
		}

		if len(feed) > 0 {
			if _, ok := spec.Broadcast[normalized]; !ok {
				spec.Broadcast[normalized] = &Field{Source: feed[0]}

				r.note("Moved feed-level source to broadcast for '%s'", normalized)
			}

			cleaned = nonFeed
		}
	}

	if len(cleaned) > 0 {
		if first, ok := cleaned[0].(string); ok && !looksLikeJSONPath(first) {
			spec.Defaults[normalized] = first

			r.note("Moved constant source into defaults for '%s'", normalized)

			cleaned = nil
		}
	}

	repaired := field.clone()

	switch len(cleaned) {
	case 0:
		repaired.Source = nil
	case 1:
		repaired.Source = cleaned[0]
	default:
		repaired.Source = cleaned
	}

	return repaired
}

func hasFeedPrefix(source string) bool {
	for _, prefix := range feedLevelPrefixes {
		if strings.HasPrefix(source, prefix) {
			return true
		}
	}

	return false
}
