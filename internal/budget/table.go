package budget

import (
	"context"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nitromap/nitromap/internal/domain"
)

const tracerName = "github.com/nitromap/nitromap/internal/budget"

// Table is the immutable budget lookup. It is safe for concurrent readers.
type Table struct {
	entries  map[Key]Entry
	rejected []string
}

// NewTable builds a Table from source keys. Keys that do not parse are left
// out and reported by Rejected.
func NewTable(raw map[string]Entry) *Table {
	t := &Table{entries: make(map[Key]Entry, len(raw))}
	for s, e := range raw {
		k, err := ParseKey(s)
		if err != nil {
			t.rejected = append(t.rejected, s)
			continue
		}
		t.entries[k] = e
	}
	sort.Strings(t.rejected)
	return t
}

// Len returns the number of accepted entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Rejected returns the source keys that were not accepted.
func (t *Table) Rejected() []string {
	return t.rejected
}

// Lookup returns the input and output flows for a unit. It returns ErrNotFound
// when there is no entry or either side is empty.
func (t *Table) Lookup(ctx context.Context, level domain.Level, name, landuse string) (*Flows, error) {
	key := NewKey(level, name, landuse)
	_, span := otel.Tracer(tracerName).Start(ctx, "budget.Lookup", trace.WithAttributes(
		attribute.String("key", key.String()),
	))
	defer span.End()

	e, ok := t.entries[key]
	if !ok || len(e.Input) == 0 || len(e.Output) == 0 {
		span.SetAttributes(attribute.Bool("hit", false))
		return nil, ErrNotFound
	}
	span.SetAttributes(attribute.Bool("hit", true))
	return &Flows{Input: e.Input, Output: e.Output}, nil
}

// Deltas maps every unit name with an entry at level and landuse to its delta,
// rounded to two decimals. Entries without a delta are skipped.
func (t *Table) Deltas(ctx context.Context, level domain.Level, landuse string) map[string]float64 {
	_, span := otel.Tracer(tracerName).Start(ctx, "budget.Deltas", trace.WithAttributes(
		attribute.String("level", string(level)),
		attribute.String("landuse", landuse),
	))
	defer span.End()

	out := make(map[string]float64)
	for k, e := range t.entries {
		if k.Level != level || k.Landuse != landuse || e.DeltaN == nil {
			continue
		}
		out[k.Name] = Round2(*e.DeltaN)
	}
	span.SetAttributes(attribute.Int("units", len(out)))
	return out
}

// Round2 rounds v to two decimals. The exact binary value is rounded, so a
// value stored just below a half rounds down, and exact halves go to the even
// digit.
func Round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
