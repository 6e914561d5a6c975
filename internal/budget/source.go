package budget

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Source reads raw budget entries keyed by their source key.
type Source interface {
	Entries(ctx context.Context) (map[string]Entry, error)
}

// Load reads every entry from src into a Table.
func Load(ctx context.Context, src Source) (*Table, error) {
	raw, err := src.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return NewTable(raw), nil
}

// FileSource reads entries from a JSON object file.
type FileSource struct {
	Path string
}

// Entries implements Source.
func (s FileSource) Entries(_ context.Context) (map[string]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "budget: read %s", s.Path)
	}
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "budget: decode %s", s.Path)
	}
	return raw, nil
}

// Querier is the subset of a pgx pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads entries from a table with columns key text and
// payload jsonb.
type PostgresSource struct {
	DB    Querier
	Table string
}

// Entries implements Source.
func (s PostgresSource) Entries(ctx context.Context) (map[string]Entry, error) {
	query := `SELECT key, payload FROM ` + pgx.Identifier{s.Table}.Sanitize()

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "budget: query %s", s.Table)
	}
	defer rows.Close()

	raw := make(map[string]Entry)
	for rows.Next() {
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, eris.Wrapf(err, "budget: scan %s", s.Table)
		}
		var e Entry
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, eris.Wrapf(err, "budget: decode payload for %q", key)
		}
		raw[key] = e
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "budget: iterate %s", s.Table)
	}
	return raw, nil
}
