// Package emissions holds the in-memory emissions table and the aggregations
// served by the chart and totals endpoints.
package emissions

import (
	"math"
	"strconv"

	"github.com/nitromap/nitromap/internal/domain"
)

// nullCode marks a missing value in a dictionary-encoded column.
const nullCode int32 = -1

// Column is a dictionary-encoded string column.
type Column struct {
	// Codes holds one dictionary index per row, or -1 for null.
	Codes []int32
	// Dict maps code to value.
	Dict []string
	// Numeric is set when the source column held numbers. Values in Dict are
	// then the string form of those numbers.
	Numeric bool

	index map[string]int32
}

// Lookup returns the code for value s.
func (c *Column) Lookup(s string) (int32, bool) {
	code, ok := c.index[s]
	return code, ok
}

// Distinct returns the number of distinct non-null values.
func (c *Column) Distinct() int {
	return len(c.Dict)
}

func encodeColumn(vals []string, valid []bool, numeric bool) *Column {
	c := &Column{
		Codes:   make([]int32, len(vals)),
		Numeric: numeric,
		index:   make(map[string]int32),
	}
	for i, s := range vals {
		if valid != nil && !valid[i] {
			c.Codes[i] = nullCode
			continue
		}
		code, ok := c.index[s]
		if !ok {
			code = int32(len(c.Dict))
			c.Dict = append(c.Dict, s)
			c.index[s] = code
		}
		c.Codes[i] = code
	}
	return c
}

// Table holds the emissions rows in struct-of-arrays form. A Table is never
// mutated after it is built and is safe for concurrent readers.
type Table struct {
	years   []int32
	landuse *Column
	levels  map[domain.Level]*Column
	values  map[domain.Variable][]float64
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.years)
}

// Level returns the column holding unit identifiers for l. The national level
// has no column.
func (t *Table) Level(l domain.Level) *Column {
	return t.levels[l]
}

// Landuse returns the landuse column.
func (t *Table) Landuse() *Column {
	return t.landuse
}

// Years returns the distinct years present, ascending.
func (t *Table) Years() []int {
	seen := make(map[int32]struct{})
	for _, y := range t.years {
		seen[y] = struct{}{}
	}
	return sortedYears(seen)
}

// Row is a single emissions record used to build a Table row by row.
type Row struct {
	Year    int32
	Landuse string
	// Units maps each sub-national level to its unit identifier. A missing
	// level is stored as null.
	Units map[domain.Level]string
	// Values maps each variable to kilograms. A missing variable is stored as
	// null (NaN) and skipped by sums.
	Values map[domain.Variable]float64
}

// NewTable builds a Table from rows. Level columns listed in numeric are
// flagged as holding numeric identifiers.
func NewTable(rows []Row, numeric ...domain.Level) *Table {
	n := len(rows)
	cols := columnSet{
		years:   make([]int32, n),
		landuse: make([]string, n),
		levels:  make(map[domain.Level][]string, len(domain.SubNationalLevels)),
		valid:   make(map[domain.Level][]bool, len(domain.SubNationalLevels)),
		values:  make(map[domain.Variable][]float64, len(domain.Variables)),
		numeric: make(map[domain.Level]bool),
	}
	for _, l := range numeric {
		cols.numeric[l] = true
	}
	for _, l := range domain.SubNationalLevels {
		cols.levels[l] = make([]string, n)
		cols.valid[l] = make([]bool, n)
	}
	for _, v := range domain.Variables {
		cols.values[v] = make([]float64, n)
	}

	for i, r := range rows {
		cols.years[i] = r.Year
		cols.landuse[i] = r.Landuse
		for _, l := range domain.SubNationalLevels {
			if u, ok := r.Units[l]; ok {
				cols.levels[l][i] = u
				cols.valid[l][i] = true
			}
		}
		for _, v := range domain.Variables {
			if x, ok := r.Values[v]; ok {
				cols.values[v][i] = x
			} else {
				cols.values[v][i] = math.NaN()
			}
		}
	}
	return cols.build()
}

// columnSet is the decoded column data a Table is encoded from.
type columnSet struct {
	years        []int32
	landuse      []string
	landuseValid []bool
	levels       map[domain.Level][]string
	valid        map[domain.Level][]bool
	values       map[domain.Variable][]float64
	numeric      map[domain.Level]bool
}

func (c columnSet) build() *Table {
	t := &Table{
		years:   c.years,
		landuse: encodeColumn(c.landuse, c.landuseValid, false),
		levels:  make(map[domain.Level]*Column, len(c.levels)),
		values:  c.values,
	}
	for l, vals := range c.levels {
		t.levels[l] = encodeColumn(vals, c.valid[l], c.numeric[l])
	}
	return t
}

// formatFloat renders a float the way the source dataframe stringifies it:
// whole numbers keep one decimal ("12.0").
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
