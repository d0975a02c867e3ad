package mapping

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/canonmap/canonmap/jsonpath"
)

// Spec is a mapping specification in its nested form.
//
// Defaults and Broadcast key on canonical target paths in dotted form.
// Defaults hold literal values; Broadcast holds fields evaluated once
// against the whole payload.
type Spec struct {
	Version   string            `json:"version,omitempty"`
	PartnerID string            `json:"partner_id,omitempty"`
	Defaults  map[string]any    `json:"defaults"`
	Broadcast map[string]*Field `json:"broadcast"`
	Mappings  *Mappings         `json:"mappings"`
}

// Mappings holds the item-level mapping block.
type Mappings struct {
	Items *Items `json:"items"`
}

// Items names the root array of the payload and maps each element.
type Items struct {
	Path string `json:"path"`
	Map  Block  `json:"map"`
}

// Block maps target field names to their mapping entries.
type Block map[string]Entry

// Entry is a single mapping under a target field: either a [Field]
// leaf or a [Nested] sub-array block.
type Entry interface {
	entry()
	cloneEntry() Entry
}

// Field maps a target field to one or more source paths.
//
// Source is nil, a single path string, or a list of candidate paths
// tried in order. Transform names a value conversion applied before
// Match, a literal lookup table with an optional "default" key.
// Required fields emit an explicit null when no source produces a
// value.
type Field struct {
	Source    any            `json:"source"`
	Transform string         `json:"transform,omitempty"`
	Match     map[string]any `json:"match,omitempty"`
	Required  bool           `json:"required,omitempty"`
}

// Nested maps a target field to an array of sub-items drawn from an
// inner array path.
type Nested struct {
	Path string `json:"path"`
	Map  Block  `json:"map"`
}

func (*Field) entry()  {}
func (*Nested) entry() {}

// FromValue decodes a generic JSON value into a [Spec]. The decode is
// tolerant: entries that cannot be represented (non-object leaves,
// non-string target keys) are dropped rather than rejected, matching
// how [Repair] treats them. A non-object value decodes to nil.
func FromValue(value any) *Spec {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	spec := &Spec{}

	if v, ok := obj["version"].(string); ok {
		spec.Version = v
	}

	if v, ok := obj["partner_id"].(string); ok {
		spec.PartnerID = v
	}

	if defaults, ok := obj["defaults"].(map[string]any); ok {
		spec.Defaults = make(map[string]any, len(defaults))
		for k, v := range defaults {
			spec.Defaults[k] = jsonpath.Clone(v)
		}
	}

	if broadcast, ok := obj["broadcast"].(map[string]any); ok {
		spec.Broadcast = make(map[string]*Field, len(broadcast))

		for k, v := range broadcast {
			entry, ok := v.(map[string]any)
			if !ok {
				continue
			}

			spec.Broadcast[k] = fieldFromValue(entry)
		}
	}

	if mappings, ok := obj["mappings"].(map[string]any); ok {
		spec.Mappings = &Mappings{}

		if items, ok := mappings["items"].(map[string]any); ok {
			spec.Mappings.Items = &Items{}

			if p, ok := items["path"].(string); ok {
				spec.Mappings.Items.Path = p
			}

			if m, ok := items["map"].(map[string]any); ok {
				spec.Mappings.Items.Map = blockFromValue(m)
			}
		}
	}

	return spec
}

// blockFromValue decodes a map block, dropping non-object entries.
func blockFromValue(obj map[string]any) Block {
	block := make(Block, len(obj))

	for target, raw := range obj {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		block[target] = entryFromValue(entry)
	}

	return block
}

// entryFromValue decodes a single entry. An object carrying both a
// "path" and an object "map" is a nested block; anything else is a
// leaf field.
func entryFromValue(obj map[string]any) Entry {
	if _, hasPath := obj["path"]; hasPath {
		if innerMap, ok := obj["map"].(map[string]any); ok {
			nested := &Nested{Map: blockFromValue(innerMap)}

			if p, ok := obj["path"].(string); ok {
				nested.Path = p
			}

			return nested
		}
	}

	return fieldFromValue(obj)
}

func fieldFromValue(obj map[string]any) *Field {
	field := &Field{Source: jsonpath.Clone(obj["source"])}

	if t, ok := obj["transform"].(string); ok {
		field.Transform = t
	}

	if m, ok := obj["match"].(map[string]any); ok {
		field.Match = make(map[string]any, len(m))
		for k, v := range m {
			field.Match[k] = jsonpath.Clone(v)
		}
	}

	if r, ok := obj["required"].(bool); ok {
		field.Required = r
	}

	return field
}

// ParseSpec decodes JSON text into a [Spec].
func ParseSpec(data []byte) (*Spec, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse mapping spec: %w", err)
	}

	spec := FromValue(value)
	if spec == nil {
		return nil, fmt.Errorf("parse mapping spec: %w", ErrMalformedSpec)
	}

	return spec, nil
}

// UnmarshalJSON decodes a block through the tolerant [FromValue] rules.
func (b *Block) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal map block: %w", err)
	}

	*b = blockFromValue(obj)

	return nil
}

// Equal reports whether two specs are semantically identical.
func (s *Spec) Equal(other *Spec) bool {
	return reflect.DeepEqual(s, other)
}

// Clone returns a deep copy of the spec.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}

	out := &Spec{
		Version:   s.Version,
		PartnerID: s.PartnerID,
	}

	if s.Defaults != nil {
		out.Defaults = make(map[string]any, len(s.Defaults))
		for k, v := range s.Defaults {
			out.Defaults[k] = jsonpath.Clone(v)
		}
	}

	if s.Broadcast != nil {
		out.Broadcast = make(map[string]*Field, len(s.Broadcast))
		for k, v := range s.Broadcast {
			out.Broadcast[k] = v.clone()
		}
	}

	if s.Mappings != nil {
		out.Mappings = &Mappings{}

		if s.Mappings.Items != nil {
			out.Mappings.Items = &Items{
				Path: s.Mappings.Items.Path,
				Map:  s.Mappings.Items.Map.clone(),
			}
		}
	}

	return out
}

func (b Block) clone() Block {
	if b == nil {
		return nil
	}

	out := make(Block, len(b))
	for k, v := range b {
		out[k] = v.cloneEntry()
	}

	return out
}

func (f *Field) clone() *Field {
	if f == nil {
		return nil
	}

	out := &Field{
		Source:    jsonpath.Clone(f.Source),
		Transform: f.Transform,
		Required:  f.Required,
	}

	if f.Match != nil {
		out.Match = make(map[string]any, len(f.Match))
		for k, v := range f.Match {
			out.Match[k] = jsonpath.Clone(v)
		}
	}

	return out
}

func (f *Field) cloneEntry() Entry { return f.clone() }

func (n *Nested) cloneEntry() Entry {
	return &Nested{Path: n.Path, Map: n.Map.clone()}
}
