package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonmap/canonmap/mapping"
)

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  any
	}{
		"json object": {
			input: `{"id": "1", "price": 12.5}`,
			want:  map[string]any{"id": "1", "price": 12.5},
		},
		"yaml object": {
			input: "id: \"1\"\nprice: 12.5\n",
			want:  map[string]any{"id": "1", "price": 12.5},
		},
		"yaml integers decode as float64": {
			input: "count: 3\n",
			want:  map[string]any{"count": float64(3)},
		},
		"yaml list": {
			input: "- a\n- b\n",
			want:  []any{"a", "b"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			value, err := decodeValue([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.want, value)
		})
	}
}

func TestWriteJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")

	err := writeJSON(path, map[string]any{"id": "1"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "1"}`, string(data))
}

func TestSpecInput(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), "spec")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		return path
	}

	t.Run("flat spec converts to nested", func(t *testing.T) {
		t.Parallel()

		path := write(t, `{"mappings": [{"target": "items.id", "source": "id"}]}`)

		value, err := specInput(path)
		require.NoError(t, err)

		spec, ok := value.(*mapping.Spec)
		require.True(t, ok)
		assert.Equal(t, "$.items[]", spec.Mappings.Items.Path)
	})

	t.Run("nested spec passes through as value", func(t *testing.T) {
		t.Parallel()

		path := write(t, `{"mappings": {"items": {"path": "$.items[]", "map": {}}}}`)

		value, err := specInput(path)
		require.NoError(t, err)

		_, ok := value.(map[string]any)
		assert.True(t, ok)
	})
}
