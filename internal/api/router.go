// Package api provides the HTTP API for nitromap.
package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/nitromap/nitromap/internal/api/handler"
	"github.com/nitromap/nitromap/internal/api/middleware"
	"github.com/nitromap/nitromap/internal/api/models"
	"github.com/nitromap/nitromap/internal/api/response"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/observability"
)

// DefaultServiceName is used when RouterConfig.ServiceName is empty.
const DefaultServiceName = "nitromap-api"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	// HTTPMetrics records OpenTelemetry HTTP server metrics when set.
	HTTPMetrics *middleware.Metrics
	// Metrics holds the Prometheus query metrics served at /metrics.
	Metrics  *observability.Metrics
	Datasets *dataset.Holder

	CORSOrigins []string
	// RateLimit is the number of query requests allowed per minute per IP.
	// Zero selects middleware.StandardRateLimit.
	RateLimit  int
	RequireTLS bool
	// StaticDir is served under /static/ when it exists.
	StaticDir string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) (*chi.Mux, error) {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	datasets := cfg.Datasets
	if datasets == nil {
		datasets = &dataset.Holder{}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", middleware.HeaderRequestID},
			ExposedHeaders: []string{middleware.HeaderRequestID, "Retry-After"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		p := models.NewProblem(models.ProblemTypeMethodNotAllowed, "Method not allowed", http.StatusMethodNotAllowed,
			middleware.GetRequestID(r.Context()))
		p.Detail = r.Method + " is not supported on this endpoint"
		response.Error(w, r, p)
	})

	indexHandler, err := handler.NewIndexHandler(cfg.Version)
	if err != nil {
		return nil, err
	}
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, datasets)
	emissionsHandler := handler.NewEmissionsHandler(datasets, cfg.Metrics, cfg.Logger)
	budgetHandler := handler.NewBudgetHandler(datasets, cfg.Metrics, cfg.Logger)
	geometryHandler := handler.NewGeometryHandler(datasets, cfg.Metrics)

	rateLimit := middleware.StandardRateLimit
	if cfg.RateLimit > 0 {
		rateLimit = middleware.PerMinute(cfg.RateLimit)
	}

	r.Get("/", indexHandler.Index)
	if isDir(cfg.StaticDir) {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// Query endpoints - rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimit))
		r.Get("/geojson/{level}", geometryHandler.Layer)
		r.Get("/chart-data", emissionsHandler.ChartData)
		r.Get("/totals", emissionsHandler.Totals)
		r.Get("/full-n-chart-data", budgetHandler.FullChartData)
		r.Get("/all_delta_n", budgetHandler.AllDeltas)
	})

	return r, nil
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
