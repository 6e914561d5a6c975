// Package config loads service configuration from defaults, an optional YAML
// file and NITROMAP_ environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/nitromap/nitromap/internal/domain"
)

// Budget sources.
const (
	BudgetSourceFile     = "file"
	BudgetSourcePostgres = "postgres"
)

// Config holds the full service configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Data      DataConfig      `mapstructure:"data"`
	Budget    BudgetConfig    `mapstructure:"budget"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// AppConfig describes the deployment.
type AppConfig struct {
	Env string `mapstructure:"env"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	// RateLimit is the number of requests per minute allowed per client IP.
	RateLimit int `mapstructure:"rate_limit"`
	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool `mapstructure:"require_tls"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
	// SampleRatio is the fraction of root spans recorded, in [0, 1].
	SampleRatio    float64       `mapstructure:"sample_ratio"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
}

// DataConfig locates the input files. Relative paths are resolved against Dir.
type DataConfig struct {
	Dir       string            `mapstructure:"dir"`
	Emissions string            `mapstructure:"emissions"`
	Budget    string            `mapstructure:"budget"`
	Geometry  map[string]string `mapstructure:"geometry"`
	StaticDir string            `mapstructure:"static_dir"`
}

// BudgetConfig selects where budget entries are read from.
type BudgetConfig struct {
	Source string `mapstructure:"source"`
	Table  string `mapstructure:"table"`
}

// DatabaseConfig configures the Postgres pool used by the postgres budget source.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectRetries  int           `mapstructure:"connect_retries"`
}

// geometryFiles are the default boundary file names per level.
var geometryFiles = map[domain.Level]string{
	domain.LevelNational:         "national.geojson",
	domain.LevelKommune:          "kommune.geojson",
	domain.LevelRegion:           "region2.geojson",
	domain.LevelTreparter:        "treparter.geojson",
	domain.LevelID15Catchment:    "id15.geojson",
	domain.LevelCoastalCatchment: "coastal.geojson",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	if path := os.Getenv("NITROMAP_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("NITROMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.require_tls", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.export_interval", 15*time.Second)
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.emissions", "data_aggregated.parquet")
	v.SetDefault("data.budget", "n_budget_dicts_updt.json")
	for level, file := range geometryFiles {
		v.SetDefault("data.geometry."+string(level), file)
	}
	v.SetDefault("data.static_dir", "static")
	v.SetDefault("budget.source", BudgetSourceFile)
	v.SetDefault("budget.table", "n_budget")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "nitromap")
	v.SetDefault("database.password", "localdev")
	v.SetDefault("database.name", "nitromap")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.connect_retries", 5)

	// Read config file (optional unless NITROMAP_CONFIG names one)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit <= 0 {
		return eris.Errorf("config: server.rate_limit must be positive, got %d", c.Server.RateLimit)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return eris.Errorf("config: telemetry.sample_ratio %g outside [0, 1]", c.Telemetry.SampleRatio)
	}
	switch c.Budget.Source {
	case BudgetSourceFile, BudgetSourcePostgres:
	default:
		return eris.Errorf("config: unknown budget.source %q", c.Budget.Source)
	}
	for _, l := range domain.Levels {
		if c.Data.Geometry[string(l)] == "" {
			return eris.Errorf("config: data.geometry.%s is empty", l)
		}
	}
	return nil
}

// Path resolves a data file name against the data directory.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// GeometryPath returns the boundary file for level.
func (d DataConfig) GeometryPath(level domain.Level) string {
	return d.Path(d.Geometry[string(level)])
}
