package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonmap/canonmap/mapping"
)

func TestExecute(t *testing.T) {
	t.Parallel()

	spec := &mapping.Spec{
		Version:   "1.0",
		PartnerID: "acme-1",
		Defaults:  map[string]any{"currency": "USD"},
		Broadcast: map[string]*mapping.Field{
			"partner_name": {Source: "$.feed_metadata.partner"},
		},
		Mappings: &mapping.Mappings{Items: &mapping.Items{
			Path: "$.items[]",
			Map: mapping.Block{
				"id":     &mapping.Field{Source: "$.sku"},
				"price":  &mapping.Field{Source: "$.price", Transform: "to_float"},
				"status": &mapping.Field{Source: "$.status", Match: map[string]any{"A": "active", "default": "inactive"}},
				"name":   &mapping.Field{Source: []any{"$.title", "$.sku"}},
			},
		}},
	}

	payload := map[string]any{
		"feed_metadata": map[string]any{"partner": "Acme Coffee"},
		"items": []any{
			map[string]any{"sku": "A1", "price": "12.50", "status": "A", "title": "Single Origin"},
			map[string]any{"sku": "B2", "price": nil, "status": "X"},
		},
	}

	executor, err := mapping.NewExecutor(spec, []string{
		"items.id", "items.price", "items.status", "items.name", "items.origin",
	})
	require.NoError(t, err)

	result, err := executor.Execute(payload)
	require.NoError(t, err)

	assert.Equal(t, "acme-1", result["partner_id"])

	items, ok := result["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	assert.Equal(t, map[string]any{
		"partner_name": "Acme Coffee",
		"currency":     "USD",
		"id":           "A1",
		"price":        12.5,
		"status":       "active",
		"name":         "Single Origin",
		"origin":       nil,
	}, items[0])

	assert.Equal(t, map[string]any{
		"partner_name": "Acme Coffee",
		"currency":     "USD",
		"id":           "B2",
		"price":        nil,
		"status":       "inactive",
		"name":         "B2",
		"origin":       nil,
	}, items[1])
}

func TestExecuteDottedTargets(t *testing.T) {
	t.Parallel()

	spec := &mapping.Spec{
		Mappings: &mapping.Mappings{Items: &mapping.Items{
			Path: "$.items[]",
			Map: mapping.Block{
				"offer.price":    &mapping.Field{Source: "$.price"},
				"offer.currency": &mapping.Field{Source: "$.currency"},
			},
		}},
	}

	executor, err := mapping.NewExecutor(spec, nil)
	require.NoError(t, err)

	result, err := executor.Execute(map[string]any{
		"items": []any{map[string]any{"price": float64(9), "currency": "USD"}},
	})
	require.NoError(t, err)

	items := result["items"].([]any)
	require.Len(t, items, 1)

	assert.Equal(t, map[string]any{
		"offer": map[string]any{"price": float64(9), "currency": "USD"},
	}, items[0])

	_, hasPartner := result["partner_id"]
	assert.False(t, hasPartner)
}

func TestExecuteNestedBlocks(t *testing.T) {
	t.Parallel()

	spec := &mapping.Spec{
		Mappings: &mapping.Mappings{Items: &mapping.Items{
			Path: "$.items[]",
			Map: mapping.Block{
				"id": &mapping.Field{Source: "$.sku"},
				"offers": &mapping.Nested{Path: "$.offers[]", Map: mapping.Block{
					"amount": &mapping.Field{Source: "$.value", Transform: "to_float"},
				}},
			},
		}},
	}

	executor, err := mapping.NewExecutor(spec, nil)
	require.NoError(t, err)

	result, err := executor.Execute(map[string]any{
		"items": []any{
			map[string]any{"sku": "A1", "offers": []any{
				map[string]any{"value": "10"},
				map[string]any{"value": "20"},
			}},
			map[string]any{"sku": "B2"},
		},
	})
	require.NoError(t, err)

	items := result["items"].([]any)
	require.Len(t, items, 2)

	assert.Equal(t, map[string]any{
		"id": "A1",
		"offers": []any{
			map[string]any{"amount": float64(10)},
			map[string]any{"amount": float64(20)},
		},
	}, items[0])

	// A missing inner array still yields an empty offers list.
	assert.Equal(t, map[string]any{"id": "B2", "offers": []any{}}, items[1])
}

func TestExecuteRequiredEmitsNull(t *testing.T) {
	t.Parallel()

	spec := &mapping.Spec{
		Mappings: &mapping.Mappings{Items: &mapping.Items{
			Path: "$[]",
			Map: mapping.Block{
				"id":   &mapping.Field{Source: "$.missing", Required: true},
				"name": &mapping.Field{Source: "$.missing"},
			},
		}},
	}

	executor, err := mapping.NewExecutor(spec, nil)
	require.NoError(t, err)

	result, err := executor.Execute([]any{map[string]any{"sku": "A1"}})
	require.NoError(t, err)

	items := result["items"].([]any)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	require.Contains(t, item, "id")
	assert.Nil(t, item["id"])
	assert.NotContains(t, item, "name")
}

func TestExecuteDefaultsFillNulls(t *testing.T) {
	t.Parallel()

	spec := &mapping.Spec{
		Defaults: map[string]any{"status": "pending", "id": "unknown"},
		Mappings: &mapping.Mappings{Items: &mapping.Items{
			Path: "$[]",
			Map: mapping.Block{
				"id":     &mapping.Field{Source: "$.missing", Required: true},
				"status": &mapping.Field{Source: "$.status"},
			},
		}},
	}

	executor, err := mapping.NewExecutor(spec, nil)
	require.NoError(t, err)

	result, err := executor.Execute([]any{map[string]any{"status": "shipped"}})
	require.NoError(t, err)

	item := result["items"].([]any)[0].(map[string]any)

	// Defaults fill explicit nulls but never overwrite real values.
	assert.Equal(t, "unknown", item["id"])
	assert.Equal(t, "shipped", item["status"])
}

func TestExecuteCanonicalBackfillSkipsLists(t *testing.T) {
	t.Parallel()

	spec := &mapping.Spec{
		Mappings: &mapping.Mappings{Items: &mapping.Items{
			Path: "$[]",
			Map: mapping.Block{
				"offers": &mapping.Nested{Path: "$.offers[]", Map: mapping.Block{
					"amount": &mapping.Field{Source: "$.value"},
				}},
			},
		}},
	}

	executor, err := mapping.NewExecutor(spec, []string{"items.offers.amount", "items.id"})
	require.NoError(t, err)

	result, err := executor.Execute([]any{
		map[string]any{"offers": []any{map[string]any{"value": float64(5)}}},
	})
	require.NoError(t, err)

	item := result["items"].([]any)[0].(map[string]any)

	// Paths crossing the offers list are left alone; plain paths backfill.
	assert.Equal(t, []any{map[string]any{"amount": float64(5)}}, item["offers"])
	require.Contains(t, item, "id")
	assert.Nil(t, item["id"])
}

func TestExecuteTransforms(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		field *mapping.Field
		item  map[string]any
		want  any
		unset bool
	}{
		"to_float parses strings": {
			field: &mapping.Field{Source: "$.v", Transform: "to_float"},
			item:  map[string]any{"v": " 12.5 "},
			want:  12.5,
		},
		"to_float of bool": {
			field: &mapping.Field{Source: "$.v", Transform: "to_float"},
			item:  map[string]any{"v": true},
			want:  float64(1),
		},
		"to_float failure drops field": {
			field: &mapping.Field{Source: "$.v", Transform: "to_float"},
			item:  map[string]any{"v": "not a number"},
			unset: true,
		},
		"to_int truncates": {
			field: &mapping.Field{Source: "$.v", Transform: "to_int"},
			item:  map[string]any{"v": 12.9},
			want:  int64(12),
		},
		"to_int parses integers only": {
			field: &mapping.Field{Source: "$.v", Transform: "to_int"},
			item:  map[string]any{"v": "12.5"},
			unset: true,
		},
		"to_int parses plain strings": {
			field: &mapping.Field{Source: "$.v", Transform: "to_int"},
			item:  map[string]any{"v": "42"},
			want:  int64(42),
		},
		"to_string renders numbers": {
			field: &mapping.Field{Source: "$.v", Transform: "to_string"},
			item:  map[string]any{"v": 12.5},
			want:  "12.5",
		},
		"to_string drops float suffix": {
			field: &mapping.Field{Source: "$.v", Transform: "to_string"},
			item:  map[string]any{"v": float64(12)},
			want:  "12",
		},
		"to_string renders booleans": {
			field: &mapping.Field{Source: "$.v", Transform: "to_string"},
			item:  map[string]any{"v": true},
			want:  "true",
		},
		"to_boolean accepts yes": {
			field: &mapping.Field{Source: "$.v", Transform: "to_boolean"},
			item:  map[string]any{"v": "Yes"},
			want:  true,
		},
		"to_boolean accepts zero": {
			field: &mapping.Field{Source: "$.v", Transform: "to_boolean"},
			item:  map[string]any{"v": "0"},
			want:  false,
		},
		"to_boolean rejects other strings": {
			field: &mapping.Field{Source: "$.v", Transform: "to_boolean"},
			item:  map[string]any{"v": "maybe"},
			unset: true,
		},
		"to_boolean number truthiness": {
			field: &mapping.Field{Source: "$.v", Transform: "to_boolean"},
			item:  map[string]any{"v": float64(2)},
			want:  true,
		},
		"ensure_array wraps scalars": {
			field: &mapping.Field{Source: "$.v", Transform: "ensure_array"},
			item:  map[string]any{"v": "x"},
			want:  []any{"x"},
		},
		"ensure_array keeps lists": {
			field: &mapping.Field{Source: "$.v[]", Transform: "ensure_array"},
			item:  map[string]any{"v": []any{"a", "b"}},
			want:  []any{"a", "b"},
		},
		"unknown transform passes through": {
			field: &mapping.Field{Source: "$.v", Transform: "uppercase"},
			item:  map[string]any{"v": "x"},
			want:  "x",
		},
		"legacy number converts": {
			field: &mapping.Field{Source: "$.v", Transform: "number"},
			item:  map[string]any{"v": "12.5"},
			want:  12.5,
		},
		"legacy integer converts": {
			field: &mapping.Field{Source: "$.v", Transform: "integer"},
			item:  map[string]any{"v": "42"},
			want:  int64(42),
		},
		"legacy string converts": {
			field: &mapping.Field{Source: "$.v", Transform: "string"},
			item:  map[string]any{"v": 12.5},
			want:  "12.5",
		},
		"legacy boolean converts": {
			field: &mapping.Field{Source: "$.v", Transform: "boolean"},
			item:  map[string]any{"v": "yes"},
			want:  true,
		},
		"legacy date stringifies": {
			field: &mapping.Field{Source: "$.v", Transform: "date"},
			item:  map[string]any{"v": float64(20240101)},
			want:  "20240101",
		},
		"list values convert element-wise": {
			field: &mapping.Field{Source: "$.v[]", Transform: "to_float"},
			item:  map[string]any{"v": []any{"1", "bad", "3"}},
			want:  []any{float64(1), nil, float64(3)},
		},
		"match maps values": {
			field: &mapping.Field{Source: "$.v", Match: map[string]any{"A": "active", "default": "inactive"}},
			item:  map[string]any{"v": "A"},
			want:  "active",
		},
		"match falls back to default": {
			field: &mapping.Field{Source: "$.v", Match: map[string]any{"A": "active", "default": "inactive"}},
			item:  map[string]any{"v": "Z"},
			want:  "inactive",
		},
		"match keys use scalar form": {
			field: &mapping.Field{Source: "$.v", Match: map[string]any{"12": "dozen", "default": "other"}},
			item:  map[string]any{"v": float64(12)},
			want:  "dozen",
		},
		"match applies after failed transform": {
			field: &mapping.Field{
				Source:    "$.v",
				Transform: "to_float",
				Match:     map[string]any{"default": "unknown"},
			},
			item: map[string]any{"v": "not a number"},
			want: "unknown",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			spec := &mapping.Spec{
				Mappings: &mapping.Mappings{Items: &mapping.Items{
					Path: "$[]",
					Map:  mapping.Block{"out": tc.field},
				}},
			}

			executor, err := mapping.NewExecutor(spec, nil)
			require.NoError(t, err)

			result, err := executor.Execute([]any{tc.item})
			require.NoError(t, err)

			item := result["items"].([]any)[0].(map[string]any)

			if tc.unset {
				assert.NotContains(t, item, "out")

				return
			}

			require.Contains(t, item, "out")
			assert.Equal(t, tc.want, item["out"])
		})
	}
}

func TestExecuteSourceFallback(t *testing.T) {
	t.Parallel()

	spec := &mapping.Spec{
		Mappings: &mapping.Mappings{Items: &mapping.Items{
			Path: "$[]",
			Map: mapping.Block{
				"name": &mapping.Field{Source: []any{"$.title", "$.label", "$.sku"}},
			},
		}},
	}

	executor, err := mapping.NewExecutor(spec, nil)
	require.NoError(t, err)

	result, err := executor.Execute([]any{
		map[string]any{"label": "Label", "sku": "A1"},
	})
	require.NoError(t, err)

	item := result["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "Label", item["name"])
}

func TestExecuteErrors(t *testing.T) {
	t.Parallel()

	t.Run("nil spec", func(t *testing.T) {
		t.Parallel()

		_, err := mapping.NewExecutor(nil, nil)
		require.ErrorIs(t, err, mapping.ErrMalformedSpec)
	})

	t.Run("missing mappings", func(t *testing.T) {
		t.Parallel()

		executor, err := mapping.NewExecutor(&mapping.Spec{}, nil)
		require.NoError(t, err)

		_, err = executor.Execute(map[string]any{})
		require.ErrorIs(t, err, mapping.ErrMalformedSpec)
	})

	t.Run("non-array items path", func(t *testing.T) {
		t.Parallel()

		executor, err := mapping.NewExecutor(&mapping.Spec{
			Mappings: &mapping.Mappings{Items: &mapping.Items{Path: "$.items", Map: mapping.Block{}}},
		}, nil)
		require.NoError(t, err)

		_, err = executor.Execute(map[string]any{})
		require.ErrorIs(t, err, mapping.ErrMalformedPath)
	})

	t.Run("non-array nested path", func(t *testing.T) {
		t.Parallel()

		executor, err := mapping.NewExecutor(&mapping.Spec{
			Mappings: &mapping.Mappings{Items: &mapping.Items{
				Path: "$[]",
				Map: mapping.Block{
					"offers": &mapping.Nested{Path: "$.offers", Map: mapping.Block{}},
				},
			}},
		}, nil)
		require.NoError(t, err)

		_, err = executor.Execute([]any{map[string]any{}})
		require.ErrorIs(t, err, mapping.ErrMalformedPath)
	})

	t.Run("bad source type", func(t *testing.T) {
		t.Parallel()

		executor, err := mapping.NewExecutor(&mapping.Spec{
			Mappings: &mapping.Mappings{Items: &mapping.Items{
				Path: "$[]",
				Map:  mapping.Block{"id": &mapping.Field{Source: float64(7)}},
			}},
		}, nil)
		require.NoError(t, err)

		_, err = executor.Execute([]any{map[string]any{}})
		require.ErrorIs(t, err, mapping.ErrMalformedSpec)
	})
}
