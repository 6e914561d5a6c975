package emissions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nitromap/nitromap/internal/domain"
)

const tracerName = "github.com/nitromap/nitromap/internal/emissions"

// ErrNameRequired is returned when a sub-national aggregation has no unit name.
var ErrNameRequired = errors.New("name is required for sub-national levels")

// TimeseriesQuery selects the rows summed into a yearly series.
type TimeseriesQuery struct {
	Level    domain.Level
	Name     string
	Variable domain.Variable
	// Landuse filters rows by exact match when non-empty.
	Landuse string
}

// YearValue is one point of a yearly series.
type YearValue struct {
	Year  int
	Value float64
}

// Series is a yearly series of a single variable, ascending by year.
type Series struct {
	Variable domain.Variable
	Points   []YearValue
}

// MarshalJSON encodes the series as records keyed by "year" and the variable
// name, e.g. [{"year":2010,"N2O":1.5}].
func (s Series) MarshalJSON() ([]byte, error) {
	key, err := json.Marshal(string(s.Variable))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range s.Points {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"year":`)
		buf.WriteString(strconv.Itoa(p.Year))
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Timeseries sums q.Variable per year over the selected rows. National sums are
// reported in kilotonnes, sub-national sums in tonnes.
func (t *Table) Timeseries(ctx context.Context, q TimeseriesQuery) (*Series, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "emissions.Timeseries", trace.WithAttributes(
		attribute.String("level", string(q.Level)),
		attribute.String("variable", string(q.Variable)),
		attribute.String("landuse", q.Landuse),
	))
	defer span.End()

	values, ok := t.values[q.Variable]
	if !ok {
		return nil, domain.ErrUnknownVariable
	}

	match, err := t.rowFilter(q.Level, q.Name, q.Landuse)
	if err != nil {
		return nil, err
	}

	sums := make(map[int32]float64)
	seen := make(map[int32]struct{})
	for i, y := range t.years {
		if !match(i) {
			continue
		}
		seen[y] = struct{}{}
		if v := values[i]; !math.IsNaN(v) {
			sums[y] += v
		}
	}

	divisor := domain.Divisor(q.Level)
	years := sortedYears(seen)
	series := &Series{Variable: q.Variable, Points: make([]YearValue, 0, len(years))}
	for _, y := range years {
		series.Points = append(series.Points, YearValue{
			Year:  y,
			Value: sums[int32(y)] / divisor,
		})
	}
	span.SetAttributes(attribute.Int("points", len(series.Points)))
	return series, nil
}

// rowFilter returns a predicate selecting rows for the given level, unit name
// and landuse. A landuse or unit absent from the table selects nothing.
func (t *Table) rowFilter(level domain.Level, name, landuse string) (func(int) bool, error) {
	none := func(int) bool { return false }

	landuseCode := nullCode
	if landuse != "" {
		code, ok := t.landuse.Lookup(landuse)
		if !ok {
			return none, nil
		}
		landuseCode = code
	}
	landuseOK := func(i int) bool {
		return landuseCode == nullCode || t.landuse.Codes[i] == landuseCode
	}

	if level.IsNational() {
		return landuseOK, nil
	}

	if name == "" {
		return nil, ErrNameRequired
	}
	col := t.levels[level]
	if col == nil {
		return nil, domain.ErrUnknownLevel
	}
	unit, ok := col.Lookup(name)
	if !ok {
		return none, nil
	}
	return func(i int) bool {
		return col.Codes[i] == unit && landuseOK(i)
	}, nil
}

// TotalsQuery selects the rows averaged into per-unit totals.
type TotalsQuery struct {
	Level    domain.Level
	Variable domain.Variable
	// Landuse filters rows by exact match when non-empty.
	Landuse string
}

// UnitTotal is the mean yearly total for one unit of a level.
type UnitTotal struct {
	Unit string
	// Numeric is set when Unit is the string form of a numeric identifier.
	Numeric bool
	// Value is nil when no rows were selected.
	Value *float64
}

// Totals holds one UnitTotal per unit of a level, ordered by unit.
type Totals struct {
	Level    domain.Level
	Variable domain.Variable
	Units    []UnitTotal
}

// MarshalJSON encodes totals as records keyed by the level and the variable
// name, e.g. [{"kommune":"Aarhus","N2O":12.5}].
func (t Totals) MarshalJSON() ([]byte, error) {
	levelKey, err := json.Marshal(string(t.Level))
	if err != nil {
		return nil, err
	}
	varKey, err := json.Marshal(string(t.Variable))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, u := range t.Units {
		if i > 0 {
			buf.WriteByte(',')
		}
		var unit []byte
		if u.Numeric {
			unit, err = json.Marshal(json.Number(u.Unit))
		} else {
			unit, err = json.Marshal(u.Unit)
		}
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(u.Value)
		if err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		buf.Write(levelKey)
		buf.WriteByte(':')
		buf.Write(unit)
		buf.WriteByte(',')
		buf.Write(varKey)
		buf.WriteByte(':')
		buf.Write(value)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// LevelTotals sums q.Variable per unit and year, then averages the yearly sums
// per unit. At national level there is a single synthetic unit reported in
// kilotonnes; every other level is reported in tonnes.
func (t *Table) LevelTotals(ctx context.Context, q TotalsQuery) (*Totals, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "emissions.LevelTotals", trace.WithAttributes(
		attribute.String("level", string(q.Level)),
		attribute.String("variable", string(q.Variable)),
		attribute.String("landuse", q.Landuse),
	))
	defer span.End()

	values, ok := t.values[q.Variable]
	if !ok {
		return nil, domain.ErrUnknownVariable
	}

	landuseOK, err := t.rowFilter(domain.LevelNational, "", q.Landuse)
	if err != nil {
		return nil, err
	}

	if q.Level.IsNational() {
		yearly := make(map[int32]float64)
		for i, y := range t.years {
			if !landuseOK(i) {
				continue
			}
			cur := yearly[y]
			if v := values[i]; !math.IsNaN(v) {
				cur += v
			}
			yearly[y] = cur
		}
		total := UnitTotal{Unit: domain.NationalLabel}
		if len(yearly) > 0 {
			v := mean(yearly) / domain.KgPerKilotonne
			total.Value = &v
		}
		return &Totals{Level: q.Level, Variable: q.Variable, Units: []UnitTotal{total}}, nil
	}

	col := t.levels[q.Level]
	if col == nil {
		return nil, domain.ErrUnknownLevel
	}

	perUnit := make(map[int32]map[int32]float64)
	for i, y := range t.years {
		unit := col.Codes[i]
		if unit == nullCode || !landuseOK(i) {
			continue
		}
		yearly, ok := perUnit[unit]
		if !ok {
			yearly = make(map[int32]float64)
			perUnit[unit] = yearly
		}
		cur := yearly[y]
		if v := values[i]; !math.IsNaN(v) {
			cur += v
		}
		yearly[y] = cur
	}

	units := make([]int32, 0, len(perUnit))
	for u := range perUnit {
		units = append(units, u)
	}
	sortUnits(col, units)

	totals := &Totals{Level: q.Level, Variable: q.Variable, Units: make([]UnitTotal, 0, len(units))}
	for _, u := range units {
		v := mean(perUnit[u]) / domain.KgPerTonne
		totals.Units = append(totals.Units, UnitTotal{
			Unit:    col.Dict[u],
			Numeric: col.Numeric,
			Value:   &v,
		})
	}
	span.SetAttributes(attribute.Int("units", len(totals.Units)))
	return totals, nil
}

// sortUnits orders unit codes by their value, numerically for numeric columns.
func sortUnits(col *Column, units []int32) {
	if col.Numeric {
		sort.Slice(units, func(i, j int) bool {
			a, _ := strconv.ParseFloat(col.Dict[units[i]], 64)
			b, _ := strconv.ParseFloat(col.Dict[units[j]], 64)
			return a < b
		})
		return
	}
	sort.Slice(units, func(i, j int) bool {
		return col.Dict[units[i]] < col.Dict[units[j]]
	})
}

// mean averages the yearly sums in year order so repeated calls return
// bit-identical results.
func mean(yearly map[int32]float64) float64 {
	years := make([]int32, 0, len(yearly))
	for y := range yearly {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool { return years[i] < years[j] })

	var sum float64
	for _, y := range years {
		sum += yearly[y]
	}
	return sum / float64(len(years))
}

func sortedYears(seen map[int32]struct{}) []int {
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, int(y))
	}
	sort.Ints(years)
	return years
}
