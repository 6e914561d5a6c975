package emissions

import (
	"context"
	"math"
	"os"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/rotisserie/eris"

	"github.com/nitromap/nitromap/internal/domain"
)

// Column names of the emissions table besides the level and variable columns.
const (
	ColumnYear    = "year"
	ColumnLanduse = "landuse"
)

// LoadParquet reads the aggregated emissions table from a parquet file. The
// file must hold a year column, a landuse column, one column per sub-national
// level and one column per variable. Other columns are ignored.
func LoadParquet(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "emissions: open %s", path)
	}
	defer func() { _ = f.Close() }()

	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, eris.Wrapf(err, "emissions: read parquet %s", path)
	}
	defer tbl.Release()

	return FromArrow(tbl)
}

// FromArrow decodes an arrow table into a Table.
func FromArrow(tbl arrow.Table) (*Table, error) {
	n := int(tbl.NumRows())
	cols := columnSet{
		levels:  make(map[domain.Level][]string, len(domain.SubNationalLevels)),
		valid:   make(map[domain.Level][]bool, len(domain.SubNationalLevels)),
		values:  make(map[domain.Variable][]float64, len(domain.Variables)),
		numeric: make(map[domain.Level]bool),
	}

	yearCol, err := column(tbl, ColumnYear)
	if err != nil {
		return nil, err
	}
	if cols.years, err = readYears(yearCol, n); err != nil {
		return nil, err
	}

	landuseCol, err := column(tbl, ColumnLanduse)
	if err != nil {
		return nil, err
	}
	if cols.landuse, cols.landuseValid, err = readStrings(landuseCol, n); err != nil {
		return nil, eris.Wrap(err, "emissions: landuse column")
	}

	for _, l := range domain.SubNationalLevels {
		c, err := column(tbl, string(l))
		if err != nil {
			return nil, err
		}
		vals, valid, err := readStrings(c, n)
		if err != nil {
			return nil, eris.Wrapf(err, "emissions: %s column", l)
		}
		cols.levels[l] = vals
		cols.valid[l] = valid
		cols.numeric[l] = isNumeric(c.DataType())
	}

	for _, v := range domain.Variables {
		c, err := column(tbl, string(v))
		if err != nil {
			return nil, err
		}
		vals, err := readFloats(c, n)
		if err != nil {
			return nil, eris.Wrapf(err, "emissions: %s column", v)
		}
		cols.values[v] = vals
	}

	return cols.build(), nil
}

func column(tbl arrow.Table, name string) (*arrow.Column, error) {
	idx := tbl.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, eris.Errorf("emissions: missing column %q", name)
	}
	return tbl.Column(idx[0]), nil
}

func readYears(c *arrow.Column, n int) ([]int32, error) {
	years := make([]int32, 0, n)
	for _, chunk := range c.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				return nil, eris.New("emissions: null year")
			}
			f, ok := numberAt(chunk, i)
			if !ok {
				return nil, eris.Errorf("emissions: unsupported year type %s", chunk.DataType())
			}
			years = append(years, int32(f))
		}
	}
	return years, nil
}

func readStrings(c *arrow.Column, n int) ([]string, []bool, error) {
	vals := make([]string, 0, n)
	valid := make([]bool, 0, n)
	for _, chunk := range c.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				vals = append(vals, "")
				valid = append(valid, false)
				continue
			}
			s, err := stringAt(chunk, i)
			if err != nil {
				return nil, nil, err
			}
			vals = append(vals, s)
			valid = append(valid, true)
		}
	}
	return vals, valid, nil
}

func readFloats(c *arrow.Column, n int) ([]float64, error) {
	vals := make([]float64, 0, n)
	for _, chunk := range c.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				vals = append(vals, math.NaN())
				continue
			}
			f, ok := numberAt(chunk, i)
			if !ok {
				return nil, eris.Errorf("unsupported numeric type %s", chunk.DataType())
			}
			vals = append(vals, f)
		}
	}
	return vals, nil
}

// stringAt returns the string form of a non-null cell.
func stringAt(a arrow.Array, i int) (string, error) {
	switch a := a.(type) {
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Dictionary:
		return stringAt(a.Dictionary(), a.GetValueIndex(i))
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10), nil
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10), nil
	case *array.Int16:
		return strconv.FormatInt(int64(a.Value(i)), 10), nil
	case *array.Int8:
		return strconv.FormatInt(int64(a.Value(i)), 10), nil
	case *array.Uint64:
		return strconv.FormatUint(a.Value(i), 10), nil
	case *array.Uint32:
		return strconv.FormatUint(uint64(a.Value(i)), 10), nil
	case *array.Uint16:
		return strconv.FormatUint(uint64(a.Value(i)), 10), nil
	case *array.Uint8:
		return strconv.FormatUint(uint64(a.Value(i)), 10), nil
	case *array.Float64:
		return formatFloat(a.Value(i)), nil
	case *array.Float32:
		return formatFloat(float64(a.Value(i))), nil
	}
	return "", eris.Errorf("unsupported identifier type %s", a.DataType())
}

// numberAt returns a non-null numeric cell as float64.
func numberAt(a arrow.Array, i int) (float64, bool) {
	switch a := a.(type) {
	case *array.Float64:
		return a.Value(i), true
	case *array.Float32:
		return float64(a.Value(i)), true
	case *array.Int64:
		return float64(a.Value(i)), true
	case *array.Int32:
		return float64(a.Value(i)), true
	case *array.Int16:
		return float64(a.Value(i)), true
	case *array.Int8:
		return float64(a.Value(i)), true
	case *array.Uint64:
		return float64(a.Value(i)), true
	case *array.Uint32:
		return float64(a.Value(i)), true
	case *array.Uint16:
		return float64(a.Value(i)), true
	case *array.Uint8:
		return float64(a.Value(i)), true
	}
	return 0, false
}

func isNumeric(dt arrow.DataType) bool {
	if d, ok := dt.(*arrow.DictionaryType); ok {
		dt = d.ValueType
	}
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		return true
	}
	return false
}
