package dataset

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/nitromap/nitromap/internal/budget"
	"github.com/nitromap/nitromap/internal/config"
	"github.com/nitromap/nitromap/internal/database"
)

// BudgetSource returns the budget source selected by cfg.Budget.Source. For
// the postgres source it connects a pool; the returned close func releases
// it and is never nil.
func BudgetSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) (budget.Source, func(), error) {
	switch cfg.Budget.Source {
	case config.BudgetSourceFile:
		return budget.FileSource{Path: cfg.Data.Path(cfg.Data.Budget)}, func() {}, nil
	case config.BudgetSourcePostgres:
		dbCfg := database.FromConfig(cfg.Database)
		pool, err := database.Connect(ctx, dbCfg, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info().
			Str("host", dbCfg.Host).
			Int("port", dbCfg.Port).
			Str("database", dbCfg.Database).
			Str("table", cfg.Budget.Table).
			Msg("database connected")
		return budget.PostgresSource{DB: pool, Table: cfg.Budget.Table}, pool.Close, nil
	default:
		return nil, nil, eris.Errorf("dataset: unknown budget source %q", cfg.Budget.Source)
	}
}
