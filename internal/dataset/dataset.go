// Package dataset loads the emissions table, the budget table and the boundary
// layers into one immutable Store at startup.
package dataset

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nitromap/nitromap/internal/budget"
	"github.com/nitromap/nitromap/internal/config"
	"github.com/nitromap/nitromap/internal/domain"
	"github.com/nitromap/nitromap/internal/emissions"
	"github.com/nitromap/nitromap/internal/geometry"
	"github.com/nitromap/nitromap/internal/observability"
)

// Dataset names used in logs and metrics.
const (
	NameEmissions = "emissions"
	NameBudget    = "budget"
	NameGeometry  = "geometry"
)

// Store holds every dataset served by the API. It is never mutated after Load.
type Store struct {
	Emissions *emissions.Table
	Budget    *budget.Table
	Geometry  *geometry.Store
	LoadedAt  time.Time
}

// Summary describes a loaded Store.
type Summary struct {
	EmissionsRows    int                  `json:"emissionsRows"`
	Years            []int                `json:"years"`
	Units            map[domain.Level]int `json:"units"`
	Landuses         int                  `json:"landuses"`
	BudgetEntries    int                  `json:"budgetEntries"`
	BudgetRejected   int                  `json:"budgetRejected"`
	GeometryFeatures map[domain.Level]int `json:"geometryFeatures"`
	LoadedAt         time.Time            `json:"loadedAt"`
}

// Summary returns counts describing the store.
func (s *Store) Summary() Summary {
	sum := Summary{
		EmissionsRows:    s.Emissions.Len(),
		Years:            s.Emissions.Years(),
		Units:            make(map[domain.Level]int, len(domain.SubNationalLevels)),
		Landuses:         s.Emissions.Landuse().Distinct(),
		BudgetEntries:    s.Budget.Len(),
		BudgetRejected:   len(s.Budget.Rejected()),
		GeometryFeatures: make(map[domain.Level]int, len(domain.Levels)),
		LoadedAt:         s.LoadedAt,
	}
	for _, l := range domain.SubNationalLevels {
		if c := s.Emissions.Level(l); c != nil {
			sum.Units[l] = c.Distinct()
		}
	}
	for _, l := range domain.Levels {
		if layer, ok := s.Geometry.Layer(l); ok {
			sum.GeometryFeatures[l] = layer.Features
		}
	}
	return sum
}

// Options configures Load.
type Options struct {
	Data config.DataConfig
	// Budget is the source of budget entries.
	Budget  budget.Source
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Load reads every dataset concurrently. The first failure cancels the rest
// and is returned.
func Load(ctx context.Context, opts Options) (*Store, error) {
	var (
		store  = &Store{}
		layers = make([]*geometry.Layer, len(domain.Levels))
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		path := opts.Data.Path(opts.Data.Emissions)
		table, err := emissions.LoadParquet(gctx, path)
		if err != nil {
			return err
		}
		store.Emissions = table
		opts.observe(NameEmissions, table.Len(), start, func(e *zerolog.Event) {
			e.Str("path", path).Ints("years", table.Years())
		})
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		table, err := budget.Load(gctx, opts.Budget)
		if err != nil {
			return err
		}
		store.Budget = table
		if rejected := table.Rejected(); len(rejected) > 0 {
			opts.Logger.Warn().
				Int("count", len(rejected)).
				Strs("keys", sample(rejected, 5)).
				Msg("budget keys rejected")
		}
		opts.observe(NameBudget, table.Len(), start, nil)
		return nil
	})

	for i, level := range domain.Levels {
		g.Go(func() error {
			start := time.Now()
			path := opts.Data.GeometryPath(level)
			layer, err := geometry.LoadLayer(level, path)
			if err != nil {
				return err
			}
			layers[i] = layer
			opts.observe(NameGeometry+"_"+string(level), layer.Features, start, func(e *zerolog.Event) {
				e.Str("path", path).Int("null_geometries", layer.NullGeometries)
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	store.Geometry = geometry.NewStore(layers...)
	store.LoadedAt = time.Now().UTC()
	return store, nil
}

func (o Options) observe(name string, rows int, start time.Time, fields func(*zerolog.Event)) {
	elapsed := time.Since(start)
	if o.Metrics != nil {
		o.Metrics.ObserveDataset(name, rows, elapsed)
	}
	e := o.Logger.Info().
		Str("dataset", name).
		Int("rows", rows).
		Dur("elapsed", elapsed)
	if fields != nil {
		fields(e)
	}
	e.Msg("dataset loaded")
}

func sample(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Holder publishes a Store once it has been loaded. The zero value holds
// nothing and is ready for use.
type Holder struct {
	store atomic.Pointer[Store]
}

// Attach publishes s to readers.
func (h *Holder) Attach(s *Store) {
	h.store.Store(s)
}

// Get returns the attached store, or nil before Attach.
func (h *Holder) Get() *Store {
	return h.store.Load()
}
