package fingerprint_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonmap/canonmap/fingerprint"
)

func mustExtractor(t *testing.T, opts ...fingerprint.Option) *fingerprint.Extractor {
	t.Helper()

	e, err := fingerprint.NewExtractor(opts...)
	require.NoError(t, err)

	return e
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input any
		want  fingerprint.Fingerprint
	}{
		"primitives": {
			input: map[string]any{
				"b": true,
				"f": 3.14,
				"i": float64(42),
				"n": nil,
				"s": "hello",
			},
			want: fingerprint.Fingerprint{
				"$.b": "boolean",
				"$.f": "number",
				"$.i": "number",
				"$.n": "null",
				"$.s": "string",
			},
		},
		"scalar root": {
			input: "hello",
			want:  fingerprint.Fingerprint{"$": "string"},
		},
		"empty object": {
			input: map[string]any{"obj": map[string]any{}},
			want:  fingerprint.Fingerprint{"$.obj": "object (empty)"},
		},
		"empty array": {
			input: map[string]any{"arr": []any{}},
			want:  fingerprint.Fingerprint{"$.arr[]": "array (empty)"},
		},
		"primitive array": {
			input: map[string]any{"arr": []any{"a", "b"}},
			want:  fingerprint.Fingerprint{"$.arr[]": "array<string>"},
		},
		"first primitive wins": {
			input: map[string]any{"arr": []any{"a", float64(1)}},
			want:  fingerprint.Fingerprint{"$.arr[]": "array<string>"},
		},
		"nulls skipped": {
			input: map[string]any{"arr": []any{nil, float64(2)}},
			want:  fingerprint.Fingerprint{"$.arr[]": "array<number>"},
		},
		"all null array": {
			input: map[string]any{"arr": []any{nil, nil}},
			want:  fingerprint.Fingerprint{"$.arr[]": "array<null>"},
		},
		"object array": {
			input: map[string]any{"arr": []any{
				map[string]any{"id": "1"},
				map[string]any{"name": "x"},
			}},
			want: fingerprint.Fingerprint{
				"$.arr[]":      "array<object>",
				"$.arr[].id":   "string",
				"$.arr[].name": "string",
			},
		},
		"array of arrays": {
			input: map[string]any{"arr": []any{[]any{"a"}}},
			want: fingerprint.Fingerprint{
				"$.arr[]":   "array<array>",
				"$.arr[][]": "array<string>",
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := mustExtractor(t).Extract(tc.input)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractMaxItemsPerArray(t *testing.T) {
	t.Parallel()

	input := map[string]any{"arr": []any{
		map[string]any{"a": "1"},
		map[string]any{"b": "2"},
		map[string]any{"c": "3"},
	}}

	got := mustExtractor(t, fingerprint.WithMaxItemsPerArray(2)).Extract(input)

	assert.Equal(t, fingerprint.Fingerprint{
		"$.arr[]":   "array<object>",
		"$.arr[].a": "string",
		"$.arr[].b": "string",
	}, got)
}

func TestNewExtractorRejectsNonPositiveBound(t *testing.T) {
	t.Parallel()

	for name, n := range map[string]int{"negative": -1, "zero": 0} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := fingerprint.NewExtractor(fingerprint.WithMaxItemsPerArray(n))
			require.ErrorIs(t, err, fingerprint.ErrInvalidOption)
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"z": "last",
		"a": "first",
		"items": []any{
			map[string]any{"id": float64(1), "name": "x"},
		},
	}

	first := mustExtractor(t).Extract(input)
	second := mustExtractor(t).Extract(input)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, firstJSON, secondJSON)
	assert.Equal(t,
		`{"$.a":"string","$.items[]":"array<object>","$.items[].id":"number","$.items[].name":"string","$.z":"string"}`,
		string(firstJSON))

	assert.Equal(t,
		[]string{"$.a", "$.items[]", "$.items[].id", "$.items[].name", "$.z"},
		first.Paths())
}
