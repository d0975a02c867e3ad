package agent

import (
	"slices"
	"strings"

	"github.com/canonmap/canonmap/mapping"
)

// issueListCap bounds each issue list included in a summary, keeping
// refinement prompts a sane size on wide schemas.
const issueListCap = 40

// sparseThreshold is the non-null ratio below which a partially filled
// field counts as sparse.
const sparseThreshold = 0.5

// Summary collects the issues found by executing a spec against a
// payload. It doubles as the issue report embedded in refinement
// prompts.
type Summary struct {
	ValidationErrors       []string      `json:"validationErrors"`
	MissingSourceFields    []string      `json:"missingSourceFields"`
	FieldsWithNoValues     []string      `json:"fieldsWithNoValues"`
	FieldsWithSparseValues []SparseField `json:"fieldsWithSparseValues"`
	ExecutionError         string        `json:"executionError,omitempty"`
}

// SparseField reports a target populated in fewer than half of the
// output items.
type SparseField struct {
	Field   string `json:"field"`
	NonNull int    `json:"nonNull"`
	Total   int    `json:"total"`
}

// HasIssues reports whether the summary contains anything worth
// refining.
func (s Summary) HasIssues() bool {
	return s.ExecutionError != "" ||
		len(s.ValidationErrors) > 0 ||
		len(s.MissingSourceFields) > 0 ||
		len(s.FieldsWithNoValues) > 0 ||
		len(s.FieldsWithSparseValues) > 0
}

// Summarize executes spec against payload and reports validation
// errors, targets with no source, and targets the output leaves empty
// or sparse. The execution result is returned alongside the summary so
// callers can preview output rows; it is nil when execution failed.
func Summarize(spec *mapping.Spec, payload any, targetPaths []string) (Summary, map[string]any) {
	validationErrors := mapping.Validate(spec)
	if len(validationErrors) > issueListCap {
		validationErrors = validationErrors[:issueListCap]
	}

	summary := Summary{
		ValidationErrors: validationErrors,
	}

	if spec != nil && spec.Mappings != nil && spec.Mappings.Items != nil {
		summary.MissingSourceFields = missingSourceFields(spec.Mappings.Items.Map)
	}

	executor, err := mapping.NewExecutor(spec, targetPaths)
	if err != nil {
		summary.ExecutionError = err.Error()

		return summary, nil
	}

	result, err := executor.Execute(payload)
	if err != nil {
		summary.ExecutionError = err.Error()

		return summary, nil
	}

	items, _ := result["items"].([]any)
	if len(items) == 0 {
		summary.ExecutionError = "Mapping output has no items."

		return summary, result
	}

	total := len(items)

	for _, targetPath := range targetPaths {
		nonNull := 0

		for _, item := range items {
			if !missingValue(lookupStrict(item, targetPath)) {
				nonNull++
			}
		}

		switch {
		case nonNull == 0:
			if len(summary.FieldsWithNoValues) < issueListCap {
				summary.FieldsWithNoValues = append(summary.FieldsWithNoValues, targetPath)
			}

		case nonNull < total && float64(nonNull)/float64(total) < sparseThreshold:
			if len(summary.FieldsWithSparseValues) < issueListCap {
				summary.FieldsWithSparseValues = append(summary.FieldsWithSparseValues, SparseField{
					Field:   targetPath,
					NonNull: nonNull,
					Total:   total,
				})
			}
		}
	}

	return summary, result
}

// missingSourceFields collects the dotted targets of leaf fields whose
// source is null or an empty list, in sorted order.
func missingSourceFields(block mapping.Block) []string {
	leaves := collectLeafSources(block, "")

	targets := make([]string, 0, len(leaves))
	for target := range leaves {
		targets = append(targets, target)
	}

	slices.Sort(targets)

	var missing []string

	for _, target := range targets {
		source := leaves[target]

		empty := source == nil
		if list, ok := source.([]any); ok && len(list) == 0 {
			empty = true
		}

		if empty && len(missing) < issueListCap {
			missing = append(missing, target)
		}
	}

	return missing
}

func collectLeafSources(block mapping.Block, prefix string) map[string]any {
	leaves := make(map[string]any)

	for target, entry := range block {
		path := target
		if prefix != "" {
			path = prefix + "." + target
		}

		switch e := entry.(type) {
		case *mapping.Nested:
			for k, v := range collectLeafSources(e.Map, path) {
				leaves[k] = v
			}

		case *mapping.Field:
			leaves[path] = e.Source
		}
	}

	return leaves
}

// lookupStrict walks a dotted path through objects only. Crossing a
// list counts as missing: sparsity is judged per item, and a path that
// dives into an inner array has no single per-item value to judge.
func lookupStrict(data any, dotted string) any {
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

// missingValue treats null, empty strings, and empty containers as
// absent.
func missingValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}

	return false
}
