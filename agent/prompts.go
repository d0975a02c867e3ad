package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/canonmap/canonmap/fingerprint"
	"github.com/canonmap/canonmap/mapping"
)

const promptRules = "Return ONLY valid JSON (no markdown, no extra text).\n\n" +
	"Rules:\n" +
	"- The output must be a JSON object with keys: version, defaults, broadcast, mappings.\n" +
	"- mappings.items.path must be the JSONPath array: %q.\n" +
	"- mappings.items.map should map target fields to source paths.\n" +
	"- Use JSONPath strings that start with '$.' for sources.\n" +
	"- If you cannot find a source for a target, set source to null.\n" +
	"- Do not invent fields that are not in the target schema.\n\n"

// MappingPrompt builds the one-shot generation prompt: the payload's
// structural fingerprint plus the target schema.
func MappingPrompt(inputSchema fingerprint.Fingerprint, targetSchema any, itemsPath string) string {
	var b strings.Builder

	b.WriteString("You are an expert data mapper. Generate a JSON mapping spec.\n")
	fmt.Fprintf(&b, promptRules, itemsPath)

	b.WriteString("Input schema (JSONPath -> type):\n")
	b.WriteString(indentJSON(inputSchema))
	b.WriteString("\n\n")

	b.WriteString("Target schema (JSON or JSONPath map):\n")
	b.WriteString(indentJSON(targetSchema))
	b.WriteString("\n")

	return b.String()
}

// RefinementPromptInput carries everything a refinement round shows the
// oracle.
type RefinementPromptInput struct {
	InputSchema   fingerprint.Fingerprint
	TargetSchema  any
	ItemsPath     string
	Spec          *mapping.Spec
	Issues        Summary
	InputPreview  []map[string]any
	OutputPreview []map[string]any
}

// RefinementPrompt builds the iterative improvement prompt: the current
// spec, its detected issues, and sample rows from both sides of the
// mapping.
func RefinementPrompt(in RefinementPromptInput) string {
	var b strings.Builder

	b.WriteString("You are an expert data mapper. Improve the existing JSON mapping spec.\n")
	fmt.Fprintf(&b, promptRules, in.ItemsPath)

	b.WriteString("Input schema (JSONPath -> type):\n")
	b.WriteString(indentJSON(in.InputSchema))
	b.WriteString("\n\n")

	b.WriteString("Target schema (JSON or JSONPath map):\n")
	b.WriteString(indentJSON(in.TargetSchema))
	b.WriteString("\n\n")

	b.WriteString("Current mapping spec:\n")
	b.WriteString(indentJSON(in.Spec))
	b.WriteString("\n\n")

	b.WriteString("Detected issues:\n")
	b.WriteString(indentJSON(in.Issues))
	b.WriteString("\n\n")

	b.WriteString("Sample input rows:\n")
	b.WriteString(indentJSON(in.InputPreview))
	b.WriteString("\n\n")

	b.WriteString("Sample output rows:\n")
	b.WriteString(indentJSON(in.OutputPreview))
	b.WriteString("\n")

	return b.String()
}

// indentJSON renders a value as two-space indented JSON. Values here
// are always JSON-representable; a marshal failure renders as null.
func indentJSON(value any) string {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "null"
	}

	return string(encoded)
}
