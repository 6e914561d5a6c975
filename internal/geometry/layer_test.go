package geometry_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitromap/nitromap/internal/domain"
	"github.com/nitromap/nitromap/internal/geometry"
)

const treparterFixture = `{
  "type": "FeatureCollection",
  "name": "treparter",
  "features": [
    {
      "type": "Feature",
      "properties": {"ogc_fid": 7, "navn": "Limfjorden", "areal": 12.5},
      "geometry": {"type": "Polygon", "coordinates": [[[9.0, 56.0], [9.5, 56.0], [9.5, 56.5], [9.0, 56.0]]]}
    },
    {
      "type": "Feature",
      "id": 42,
      "properties": {"ogc_fid": 8, "navn": "Mariager"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[10.0, 56.6], [10.2, 56.6], [10.2, 56.8], [10.0, 56.6]]]]}
    },
    {
      "type": "Feature",
      "properties": {"ogc_fid": 9},
      "geometry": null
    }
  ]
}`

type feature struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Geometry   map[string]interface{} `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type collection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

func TestDecode_ProjectsIdentifier(t *testing.T) {
	layer, err := geometry.Decode(domain.LevelTreparter, []byte(treparterFixture))
	require.NoError(t, err)
	assert.Equal(t, 3, layer.Features)
	assert.Equal(t, 1, layer.NullGeometries)

	var fc collection
	require.NoError(t, json.Unmarshal(layer.JSON(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)

	first := fc.Features[0]
	assert.Equal(t, "Feature", first.Type)
	assert.Equal(t, "0", first.ID)
	assert.Equal(t, map[string]interface{}{"ogc_fid": "7"}, first.Properties)
	assert.Equal(t, "Polygon", first.Geometry["type"])

	second := fc.Features[1]
	assert.Equal(t, "1", second.ID, "source ids are replaced by position")
	assert.Equal(t, map[string]interface{}{"ogc_fid": "8"}, second.Properties)
	assert.Equal(t, "MultiPolygon", second.Geometry["type"])

	third := fc.Features[2]
	assert.Equal(t, "2", third.ID)
	assert.Equal(t, map[string]interface{}{"ogc_fid": "9"}, third.Properties)
	assert.Nil(t, third.Geometry)
	assert.Contains(t, string(layer.JSON()), `"geometry":null`)
}

func TestDecode_ServesEveryIdentifier(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []interface{}
	}{
		{
			name: "null geometry kept",
			doc: `{"type":"FeatureCollection","features":[
			  {"type":"Feature","properties":{"NAME_2":"A"},"geometry":{"type":"Point","coordinates":[10,56]}},
			  {"type":"Feature","properties":{"NAME_2":"B"},"geometry":null}
			]}`,
			want: []interface{}{"A", "B"},
		},
		{
			name: "missing geometry kept",
			doc: `{"type":"FeatureCollection","features":[
			  {"type":"Feature","properties":{"NAME_2":"A"}},
			  {"type":"Feature","properties":{"NAME_2":"B"},"geometry":{"type":"Point","coordinates":[9,55]}},
			  {"type":"Feature","properties":{"NAME_2":"C"},"geometry":{"type":"Point","coordinates":[8,55]}}
			]}`,
			want: []interface{}{"A", "B", "C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer, err := geometry.Decode(domain.LevelKommune, []byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), layer.Features)

			var fc collection
			require.NoError(t, json.Unmarshal(layer.JSON(), &fc))
			got := make([]interface{}, 0, len(fc.Features))
			for _, f := range fc.Features {
				got = append(got, f.Properties["NAME_2"])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_KeepsIdentifierType(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":"k1","properties":{"Id15_oplan":1234,"x":1},
	   "geometry":{"type":"Point","coordinates":[9.1,56.2]}}
	]}`
	layer, err := geometry.Decode(domain.LevelID15Catchment, []byte(doc))
	require.NoError(t, err)
	assert.Contains(t, string(layer.JSON()), `"Id15_oplan":1234`)
	assert.NotContains(t, string(layer.JSON()), `"x"`)
	assert.Contains(t, string(layer.JSON()), `"id":"0"`)
	assert.NotContains(t, string(layer.JSON()), `"k1"`)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		level domain.Level
		doc   string
	}{
		{"unknown level", domain.Level("parish"), `{"type":"FeatureCollection","features":[]}`},
		{"not json", domain.LevelKommune, `{`},
		{"not a collection", domain.LevelKommune, `{"type":"Feature"}`},
		{"bad geometry", domain.LevelKommune, `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Blob","coordinates":[]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geometry.Decode(tt.level, []byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treparter.geojson")
	require.NoError(t, os.WriteFile(path, []byte(treparterFixture), 0o600))

	layer, err := geometry.LoadLayer(domain.LevelTreparter, path)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelTreparter, layer.Level)

	again, err := geometry.LoadLayer(domain.LevelTreparter, path)
	require.NoError(t, err)
	assert.Equal(t, layer.JSON(), again.JSON())

	_, err = geometry.LoadLayer(domain.LevelTreparter, filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	a, err := geometry.Decode(domain.LevelKommune, []byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)

	store := geometry.NewStore(a)
	assert.Equal(t, 1, store.Len())

	got, ok := store.Layer(domain.LevelKommune)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = store.Layer(domain.LevelRegion)
	assert.False(t, ok)
}
