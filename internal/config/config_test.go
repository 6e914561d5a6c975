package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitromap/nitromap/internal/config"
	"github.com/nitromap/nitromap/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Server.RequireTLS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.True(t, cfg.Telemetry.Insecure)
	assert.InDelta(t, 1.0, cfg.Telemetry.SampleRatio, 0)
	assert.Equal(t, 15*time.Second, cfg.Telemetry.ExportInterval)
	assert.Equal(t, config.BudgetSourceFile, cfg.Budget.Source)
	assert.Equal(t, "n_budget", cfg.Budget.Table)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Database.ConnectRetries)

	assert.Equal(t, filepath.Join("data", "data_aggregated.parquet"), cfg.Data.Path(cfg.Data.Emissions))
	assert.Equal(t, filepath.Join("data", "n_budget_dicts_updt.json"), cfg.Data.Path(cfg.Data.Budget))
	assert.Equal(t, filepath.Join("data", "region2.geojson"), cfg.Data.GeometryPath(domain.LevelRegion))
	assert.Equal(t, filepath.Join("data", "id15.geojson"), cfg.Data.GeometryPath(domain.LevelID15Catchment))
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
server:
  port: 9090
  read_timeout: 5s
  cors_origins:
    - https://map.example.dk
log:
  level: debug
  format: console
data:
  dir: /srv/nitromap
  geometry:
    kommune: kommuner.geojson
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://map.example.dk"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/srv/nitromap/kommuner.geojson", cfg.Data.GeometryPath(domain.LevelKommune))
	// Defaults still apply for unset values
	assert.Equal(t, "/srv/nitromap/treparter.geojson", cfg.Data.GeometryPath(domain.LevelTreparter))
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("NITROMAP_SERVER_PORT", "7070")
	t.Setenv("NITROMAP_SERVER_REQUIRE_TLS", "true")
	t.Setenv("NITROMAP_BUDGET_SOURCE", "postgres")
	t.Setenv("NITROMAP_DATABASE_HOST", "db.internal")
	t.Setenv("NITROMAP_DATA_GEOMETRY_COASTAL_CATCHMENT", "/abs/coast.geojson")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Server.RequireTLS)
	assert.Equal(t, config.BudgetSourcePostgres, cfg.Budget.Source)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "/abs/coast.geojson", cfg.Data.GeometryPath(domain.LevelCoastalCatchment))
}

func TestLoadExplicitConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nitromap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  env: production\n"), 0o600))
	t.Setenv("NITROMAP_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Env)

	t.Setenv("NITROMAP_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = config.Load()
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown budget source", "NITROMAP_BUDGET_SOURCE", "s3"},
		{"zero port", "NITROMAP_SERVER_PORT", "0"},
		{"negative rate limit", "NITROMAP_SERVER_RATE_LIMIT", "-1"},
		{"sample ratio above one", "NITROMAP_TELEMETRY_SAMPLE_RATIO", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := config.NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf, "nitromap-api", "1.2.3")
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"message":"kept"`)
	assert.Contains(t, out, `"service":"nitromap-api"`)
	assert.Contains(t, out, `"version":"1.2.3"`)

	_, err = config.NewLogger(config.LogConfig{Level: "loud"}, &buf, "nitromap-api", "1.2.3")
	assert.Error(t, err)
}
