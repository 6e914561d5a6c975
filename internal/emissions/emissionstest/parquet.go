// Package emissionstest writes emissions parquet fixtures for tests.
package emissionstest

import (
	"bytes"
	"os"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/require"

	"github.com/nitromap/nitromap/internal/domain"
	"github.com/nitromap/nitromap/internal/emissions"
)

// WriteParquet writes rows to path with string level columns and float64
// variable columns. Missing units and values are written as nulls.
func WriteParquet(tb testing.TB, path string, rows []emissions.Row) {
	tb.Helper()

	fields := []arrow.Field{
		{Name: emissions.ColumnYear, Type: arrow.PrimitiveTypes.Int32},
		{Name: emissions.ColumnLanduse, Type: arrow.BinaryTypes.String, Nullable: true},
	}
	for _, l := range domain.SubNationalLevels {
		fields = append(fields, arrow.Field{Name: string(l), Type: arrow.BinaryTypes.String, Nullable: true})
	}
	for _, v := range domain.Variables {
		fields = append(fields, arrow.Field{Name: string(v), Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for _, r := range rows {
		b.Field(0).(*array.Int32Builder).Append(r.Year)
		b.Field(1).(*array.StringBuilder).Append(r.Landuse)

		col := 2
		for _, l := range domain.SubNationalLevels {
			sb := b.Field(col).(*array.StringBuilder)
			if u, ok := r.Units[l]; ok {
				sb.Append(u)
			} else {
				sb.AppendNull()
			}
			col++
		}
		for _, v := range domain.Variables {
			fb := b.Field(col).(*array.Float64Builder)
			if x, ok := r.Values[v]; ok {
				fb.Append(x)
			} else {
				fb.AppendNull()
			}
			col++
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	require.NoError(tb, pqarrow.WriteTable(tbl, &buf, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()))
	require.NoError(tb, os.WriteFile(path, buf.Bytes(), 0o600))
}
