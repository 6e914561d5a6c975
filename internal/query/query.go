// Package query validates request parameters for each endpoint and turns them
// into typed queries.
package query

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/nitromap/nitromap/internal/domain"
	"github.com/nitromap/nitromap/internal/emissions"
)

// Parameter error kinds.
var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ParamError describes a rejected request parameter.
type ParamError struct {
	Field string
	// Kind is ErrMissingParameter or ErrInvalidParameter.
	Kind    error
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ParamError) Unwrap() error {
	return e.Kind
}

func missing(field, msg string) *ParamError {
	return &ParamError{Field: field, Kind: ErrMissingParameter, Message: msg}
}

func invalid(field, msg string) *ParamError {
	return &ParamError{Field: field, Kind: ErrInvalidParameter, Message: msg}
}

// Parameter names.
const (
	ParamLevel    = "level"
	ParamName     = "name"
	ParamVariable = "variable"
	ParamLanduse  = "landuse"
)

// firstMissing returns the first of names with an empty or absent value.
func firstMissing(v url.Values, names ...string) string {
	for _, n := range names {
		if v.Get(n) == "" {
			return n
		}
	}
	return ""
}

// ChartData validates a yearly series request. Level, variable and landuse are
// required; name is required below national level.
func ChartData(v url.Values) (emissions.TimeseriesQuery, error) {
	if f := firstMissing(v, ParamLevel, ParamVariable, ParamLanduse); f != "" {
		return emissions.TimeseriesQuery{}, missing(f, "level, variable and landuse are required")
	}

	level, err := domain.ParseLevel(v.Get(ParamLevel))
	if err != nil {
		return emissions.TimeseriesQuery{}, invalid(ParamLevel, fmt.Sprintf("unknown level %q", v.Get(ParamLevel)))
	}
	variable, err := domain.ParseVariable(v.Get(ParamVariable))
	if err != nil {
		return emissions.TimeseriesQuery{}, invalid(ParamVariable, fmt.Sprintf("unknown variable %q", v.Get(ParamVariable)))
	}

	q := emissions.TimeseriesQuery{
		Level:    level,
		Variable: variable,
		Landuse:  v.Get(ParamLanduse),
	}
	if !level.IsNational() {
		if q.Name = v.Get(ParamName); q.Name == "" {
			return emissions.TimeseriesQuery{}, missing(ParamName, "name is required for non-national levels")
		}
	}
	return q, nil
}

// Budget selects one precomputed nitrogen budget.
type Budget struct {
	Level   domain.Level
	Name    string
	Landuse string
}

// BudgetLookup validates a budget request. The name check runs before the
// level is validated, so an unknown level without a name reports the name.
func BudgetLookup(v url.Values) (Budget, error) {
	if f := firstMissing(v, ParamLevel, ParamLanduse); f != "" {
		return Budget{}, missing(f, "level and landuse are required")
	}

	raw := v.Get(ParamLevel)
	name := v.Get(ParamName)
	if raw != string(domain.LevelNational) && name == "" {
		return Budget{}, missing(ParamName, "name is required for non-national levels")
	}

	level, err := domain.ParseLevel(raw)
	if err != nil {
		return Budget{}, invalid(ParamLevel, fmt.Sprintf("unknown level %q", raw))
	}
	return Budget{Level: level, Name: name, Landuse: v.Get(ParamLanduse)}, nil
}

// Deltas selects the budget deltas of every unit at a level.
type Deltas struct {
	Level   domain.Level
	Landuse string
}

// DeltaMap validates a delta map request.
func DeltaMap(v url.Values) (Deltas, error) {
	if f := firstMissing(v, ParamLevel, ParamLanduse); f != "" {
		return Deltas{}, missing(f, "level and landuse are required")
	}
	level, err := domain.ParseLevel(v.Get(ParamLevel))
	if err != nil {
		return Deltas{}, invalid(ParamLevel, fmt.Sprintf("unknown level %q", v.Get(ParamLevel)))
	}
	return Deltas{Level: level, Landuse: v.Get(ParamLanduse)}, nil
}

// Totals validates a per-unit totals request. The variable is checked first;
// an absent level is reported as invalid rather than missing.
func Totals(v url.Values) (emissions.TotalsQuery, error) {
	raw := v.Get(ParamVariable)
	if raw == "" {
		return emissions.TotalsQuery{}, missing(ParamVariable, "variable is required")
	}
	variable, err := domain.ParseVariable(raw)
	if err != nil {
		return emissions.TotalsQuery{}, invalid(ParamVariable, fmt.Sprintf("unknown variable %q", raw))
	}

	level, err := domain.ParseLevel(v.Get(ParamLevel))
	if err != nil {
		return emissions.TotalsQuery{}, invalid(ParamLevel, fmt.Sprintf("unknown level %q", v.Get(ParamLevel)))
	}
	return emissions.TotalsQuery{
		Level:    level,
		Variable: variable,
		Landuse:  v.Get(ParamLanduse),
	}, nil
}

// GeometryLevel validates the level path segment of a boundary request.
func GeometryLevel(s string) (domain.Level, error) {
	level, err := domain.ParseLevel(s)
	if err != nil {
		return "", invalid(ParamLevel, fmt.Sprintf("unknown level %q", s))
	}
	return level, nil
}
