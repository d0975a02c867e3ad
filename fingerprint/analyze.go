package fingerprint

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// analyzeMaxArrayItems bounds fingerprint work during payload analysis.
	analyzeMaxArrayItems = 10
	// previewLimit is the number of sample rows included in a report.
	previewLimit = 3
)

// Issue flags a data-quality observation on a sampled field.
type Issue struct {
	Field   string `json:"field"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Report summarizes the structure and sampled content of a payload.
type Report struct {
	Schema  Fingerprint      `json:"schema"`
	Preview []map[string]any `json:"preview"`
	Issues  []Issue          `json:"issues"`
}

// Analyze fingerprints a payload and inspects up to three sample rows for
// mixed value types and missing values.
func Analyze(payload any) Report {
	extractor, err := NewExtractor(WithMaxItemsPerArray(analyzeMaxArrayItems))
	if err != nil {
		// Unreachable with a positive constant bound.
		panic(err)
	}

	preview := PreviewRows(payload, previewLimit)

	return Report{
		Schema:  extractor.Extract(payload),
		Preview: preview,
		Issues:  detectIssues(preview),
	}
}

// PreviewRows returns up to limit object rows from a payload: the payload's
// own elements when it is an array, or the elements of its "items" field
// when it is an object. Non-object rows are skipped.
func PreviewRows(payload any, limit int) []map[string]any {
	var source []any

	switch v := payload.(type) {
	case []any:
		source = v
	case map[string]any:
		items, _ := v["items"].([]any)
		source = items
	}

	rows := make([]map[string]any, 0, limit)

	for _, row := range source {
		obj, ok := row.(map[string]any)
		if !ok {
			continue
		}

		rows = append(rows, obj)
		if len(rows) == limit {
			break
		}
	}

	return rows
}

// detectIssues scans sampled rows for fields with more than one non-null
// value type and fields missing values in some rows.
func detectIssues(rows []map[string]any) []Issue {
	if len(rows) == 0 {
		return nil
	}

	fieldTypes := make(map[string]map[string]bool)
	missing := make(map[string]int)

	for _, row := range rows {
		for field, value := range row {
			if fieldTypes[field] == nil {
				fieldTypes[field] = make(map[string]bool)
			}

			if value == nil || value == "" {
				missing[field]++

				continue
			}

			fieldTypes[field][valueTypeName(value)] = true
		}
	}

	fields := make([]string, 0, len(fieldTypes))
	for field := range fieldTypes {
		fields = append(fields, field)
	}

	slices.Sort(fields)

	var issues []Issue

	for _, field := range fields {
		types := fieldTypes[field]
		if len(types) <= 1 {
			continue
		}

		names := make([]string, 0, len(types))
		for name := range types {
			names = append(names, name)
		}

		slices.Sort(names)

		issues = append(issues, Issue{
			Field:   field,
			Level:   "warning",
			Message: fmt.Sprintf("Mixed value types detected (%s).", strings.Join(names, ", ")),
		})
	}

	for _, field := range fields {
		count := missing[field]
		if count == 0 {
			continue
		}

		issues = append(issues, Issue{
			Field:   field,
			Level:   "warning",
			Message: fmt.Sprintf("%d sample rows missing values.", count),
		})
	}

	return issues
}

// valueTypeName names the JSON type of a non-null value for issue messages.
func valueTypeName(value any) string {
	switch value.(type) {
	case bool:
		return TypeBoolean
	case float64, int, int64:
		return TypeNumber
	case string:
		return TypeString
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	}

	return TypeUnknown
}
