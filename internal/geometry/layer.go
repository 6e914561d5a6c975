// Package geometry loads the administrative boundary layers and serves them as
// GeoJSON feature collections reduced to the unit identifier.
package geometry

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/nitromap/nitromap/internal/domain"
)

// Layer is one level's boundaries, encoded once at load time.
type Layer struct {
	Level domain.Level
	// Features is the number of features served.
	Features int
	// NullGeometries counts features served with a null geometry.
	NullGeometries int

	body []byte
}

// JSON returns the FeatureCollection document. The slice must not be modified.
func (l *Layer) JSON() []byte {
	return l.body
}

// rawCollection and rawFeature decode the source file loosely so that numeric
// identifiers survive unchanged.
type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// LoadLayer reads a GeoJSON FeatureCollection and projects every feature to
// its geometry and the identifier property of level.
func LoadLayer(level domain.Level, path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: read %s", path)
	}
	layer, err := Decode(level, data)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: %s", path)
	}
	return layer, nil
}

// Decode builds a Layer from a GeoJSON FeatureCollection document. Every
// source feature is served, in file order, with its position as id. Features
// without a geometry keep a null geometry.
func Decode(level domain.Level, data []byte) (*Layer, error) {
	field := domain.IdentifierField(level)
	if field == "" {
		return nil, domain.ErrUnknownLevel
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw rawCollection
	if err := dec.Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "decode feature collection")
	}
	if raw.Type != "FeatureCollection" {
		return nil, eris.Errorf("expected FeatureCollection, got %q", raw.Type)
	}

	layer := &Layer{Level: level}
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(raw.Features))}
	for i, f := range raw.Features {
		var g geom.T
		if isNull(f.Geometry) {
			layer.NullGeometries++
		} else if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
			return nil, eris.Wrapf(err, "feature %d geometry", i)
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(i),
			Geometry: g,
			Properties: map[string]interface{}{
				field: identifier(level, f.Properties[field]),
			},
		})
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "encode feature collection")
	}
	layer.Features = len(fc.Features)
	layer.body = body
	return layer, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func identifier(level domain.Level, v interface{}) interface{} {
	if !domain.StringIdentifier(level) || v == nil {
		return v
	}
	switch v := v.(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}
	return v
}
