package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	// JSON-числа приходят как float64 — как из ShouldBindJSON
	cfg, err := ParseConfig(map[string]any{
		"id":          float64(12),
		"slug":        "gdp-growth",
		"isPublished": true,
		"version":     float64(3),
		"title":       "GDP growth",
		"type":        "LineChart",
		"colorScheme": "magma",
		"dimensions": []any{
			map[string]any{"variableId": float64(7), "property": "y", "order": float64(0)},
			map[string]any{"variableId": float64(8), "property": "color",
				"display": map[string]any{"unit": "%"}, "saveToVariable": true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(12), cfg.ID)
	assert.Equal(t, "gdp-growth", cfg.Slug)
	assert.True(t, cfg.IsPublished)
	assert.Equal(t, int64(3), cfg.Version)
	require.Len(t, cfg.Dimensions, 2)
	assert.Equal(t, Dimension{VariableID: 7, Property: "y", Order: 0}, cfg.Dimensions[0])
	// order не задан — берём позицию в массиве
	assert.Equal(t, 1, cfg.Dimensions[1].Order)
	assert.True(t, cfg.Dimensions[1].SaveToVariable)
	assert.Equal(t, map[string]any{"unit": "%"}, cfg.Dimensions[1].Display)
}

func TestParseConfigFaults(t *testing.T) {
	cases := []struct {
		name string
		obj  map[string]any
		code string
	}{
		{"nil document", nil, ErrRequired},
		{"bad id", map[string]any{"id": "twelve"}, ErrTypeMismatch},
		{"fractional version", map[string]any{"version": 1.5}, ErrTypeMismatch},
		{"bad isPublished", map[string]any{"isPublished": "yes"}, ErrTypeMismatch},
		{"dimensions not array", map[string]any{"dimensions": "nope"}, ErrTypeMismatch},
		{"dimension without property", map[string]any{
			"dimensions": []any{map[string]any{"variableId": float64(7)}},
		}, ErrRequired},
		{"dimension bad variableId", map[string]any{
			"dimensions": []any{map[string]any{"variableId": "seven", "property": "y"}},
		}, ErrTypeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig(tc.obj)
			require.Error(t, err)
			f, ok := AsFault(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, f.Code)
		})
	}
}

func TestConfigDocumentRoundTrip(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"slug":        "co2-emissions",
		"isPublished": true,
		"title":       "CO2 emissions",
		"tab":         "map",
		"minTime":     float64(1950),
		"dimensions": []any{
			map[string]any{"variableId": float64(7), "property": "y"},
		},
	})
	require.NoError(t, err)

	cfg.ID = 42
	cfg.Version = 5
	doc := cfg.Document()

	// системные поля синхронизированы
	assert.Equal(t, int64(42), doc["id"])
	assert.Equal(t, int64(5), doc["version"])
	assert.Equal(t, true, doc["isPublished"])
	assert.Equal(t, "co2-emissions", doc["slug"])

	// презентационные поля проходят насквозь нетронутыми
	assert.Equal(t, "CO2 emissions", doc["title"])
	assert.Equal(t, "map", doc["tab"])
	assert.Equal(t, float64(1950), doc["minTime"])

	dims, ok := doc["dimensions"].([]any)
	require.True(t, ok)
	require.Len(t, dims, 1)
	assert.Equal(t, map[string]any{
		"variableId": int64(7), "property": "y", "order": 0,
	}, dims[0])
}

func TestConfigDocumentDropsEmptySlug(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{"slug": "draft-1", "isPublished": false})
	require.NoError(t, err)
	cfg.Slug = ""
	doc := cfg.Document()
	_, has := doc["slug"]
	assert.False(t, has)
}
