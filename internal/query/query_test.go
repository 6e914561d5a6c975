package query_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitromap/nitromap/internal/domain"
	"github.com/nitromap/nitromap/internal/emissions"
	"github.com/nitromap/nitromap/internal/query"
)

func params(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

// assertParamError checks the kind and field of a validation error.
func assertParamError(t *testing.T, err error, kind error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)

	var pe *query.ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, field, pe.Field)
	assert.NotEmpty(t, pe.Message)
}

func TestChartData(t *testing.T) {
	tests := []struct {
		name  string
		in    url.Values
		kind  error
		field string
		want  emissions.TimeseriesQuery
	}{
		{
			name: "national without name",
			in:   params("level", "national", "variable", "N2O", "landuse", "cropgrass"),
			want: emissions.TimeseriesQuery{Level: domain.LevelNational, Variable: domain.VariableN2O, Landuse: "cropgrass"},
		},
		{
			name: "national ignores name",
			in:   params("level", "national", "name", "Aarhus", "variable", "N2O", "landuse", "cropgrass"),
			want: emissions.TimeseriesQuery{Level: domain.LevelNational, Variable: domain.VariableN2O, Landuse: "cropgrass"},
		},
		{
			name: "kommune",
			in:   params("level", "kommune", "name", "Aarhus", "variable", "NH3", "landuse", "forest"),
			want: emissions.TimeseriesQuery{Level: domain.LevelKommune, Name: "Aarhus", Variable: domain.VariableNH3, Landuse: "forest"},
		},
		{name: "missing level", in: params("variable", "N2O", "landuse", "x"), kind: query.ErrMissingParameter, field: "level"},
		{name: "empty variable", in: params("level", "kommune", "variable", "", "landuse", "x"), kind: query.ErrMissingParameter, field: "variable"},
		{name: "missing landuse", in: params("level", "kommune", "variable", "N2O"), kind: query.ErrMissingParameter, field: "landuse"},
		{name: "missing beats invalid", in: params("level", "parish", "variable", "N2O"), kind: query.ErrMissingParameter, field: "landuse"},
		{name: "invalid level", in: params("level", "parish", "variable", "N2O", "landuse", "x"), kind: query.ErrInvalidParameter, field: "level"},
		{name: "invalid variable", in: params("level", "kommune", "variable", "CO2", "landuse", "x"), kind: query.ErrInvalidParameter, field: "variable"},
		{name: "invalid beats missing name", in: params("level", "kommune", "variable", "CO2", "landuse", "x"), kind: query.ErrInvalidParameter, field: "variable"},
		{name: "missing name", in: params("level", "region", "variable", "N2O", "landuse", "x"), kind: query.ErrMissingParameter, field: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := query.ChartData(tt.in)
			if tt.kind != nil {
				assertParamError(t, err, tt.kind, tt.field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBudgetLookup(t *testing.T) {
	tests := []struct {
		name  string
		in    url.Values
		kind  error
		field string
		want  query.Budget
	}{
		{
			name: "national",
			in:   params("level", "national", "landuse", "cropgrass"),
			want: query.Budget{Level: domain.LevelNational, Landuse: "cropgrass"},
		},
		{
			name: "treparter",
			in:   params("level", "treparter", "name", "12", "landuse", "livestock"),
			want: query.Budget{Level: domain.LevelTreparter, Name: "12", Landuse: "livestock"},
		},
		{name: "missing level", in: params("landuse", "x"), kind: query.ErrMissingParameter, field: "level"},
		{name: "missing landuse", in: params("level", "kommune", "name", "A"), kind: query.ErrMissingParameter, field: "landuse"},
		{name: "missing name", in: params("level", "kommune", "landuse", "x"), kind: query.ErrMissingParameter, field: "name"},
		{name: "name checked before level", in: params("level", "parish", "landuse", "x"), kind: query.ErrMissingParameter, field: "name"},
		{name: "invalid level", in: params("level", "parish", "name", "A", "landuse", "x"), kind: query.ErrInvalidParameter, field: "level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := query.BudgetLookup(tt.in)
			if tt.kind != nil {
				assertParamError(t, err, tt.kind, tt.field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeltaMap(t *testing.T) {
	got, err := query.DeltaMap(params("level", "coastal_catchment", "landuse", "forest"))
	require.NoError(t, err)
	assert.Equal(t, query.Deltas{Level: domain.LevelCoastalCatchment, Landuse: "forest"}, got)

	_, err = query.DeltaMap(params("level", "kommune"))
	assertParamError(t, err, query.ErrMissingParameter, "landuse")

	_, err = query.DeltaMap(params("level", "parish", "landuse", "forest"))
	assertParamError(t, err, query.ErrInvalidParameter, "level")
}

func TestTotals(t *testing.T) {
	tests := []struct {
		name  string
		in    url.Values
		kind  error
		field string
		want  emissions.TotalsQuery
	}{
		{
			name: "national",
			in:   params("level", "national", "variable", "N2O"),
			want: emissions.TotalsQuery{Level: domain.LevelNational, Variable: domain.VariableN2O},
		},
		{
			name: "kommune with landuse",
			in:   params("level", "kommune", "variable", "Fert", "landuse", "forest"),
			want: emissions.TotalsQuery{Level: domain.LevelKommune, Variable: domain.VariableFert, Landuse: "forest"},
		},
		{name: "missing variable", in: params("level", "kommune"), kind: query.ErrMissingParameter, field: "variable"},
		{name: "invalid variable", in: params("level", "kommune", "variable", "CO2"), kind: query.ErrInvalidParameter, field: "variable"},
		{name: "variable checked before level", in: params("level", "parish"), kind: query.ErrMissingParameter, field: "variable"},
		{name: "absent level is invalid", in: params("variable", "N2O"), kind: query.ErrInvalidParameter, field: "level"},
		{name: "unknown level", in: params("level", "parish", "variable", "N2O"), kind: query.ErrInvalidParameter, field: "level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := query.Totals(tt.in)
			if tt.kind != nil {
				assertParamError(t, err, tt.kind, tt.field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeometryLevel(t *testing.T) {
	for _, l := range domain.Levels {
		got, err := query.GeometryLevel(string(l))
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}

	_, err := query.GeometryLevel("parish")
	assertParamError(t, err, query.ErrInvalidParameter, "level")
}

func TestParamError_Error(t *testing.T) {
	_, err := query.GeometryLevel("parish")
	assert.Equal(t, `level: unknown level "parish"`, err.Error())
}
