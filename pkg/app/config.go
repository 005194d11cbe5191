// Package app wires the todo service: configuration, store, HTTP surface,
// event consumers and observability, deployed as one verticle.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/fluxorio/todolist/pkg/config"
	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/store"
	"github.com/fluxorio/todolist/pkg/web/middleware/security"
)

// EnvPrefix prefixes every environment override, e.g. TODOLIST_SERVER_ADDR.
const EnvPrefix = "TODOLIST"

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// AppConfig is the service configuration
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	CORS     CORSConfig     `yaml:"cors"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Events   EventsConfig   `yaml:"events"`
}

type ServerConfig struct {
	Addr               string          `yaml:"addr"`
	MaxCCU             int             `yaml:"max_ccu"`
	UtilizationPercent int             `yaml:"utilization_percent"`
	ReadTimeout        config.Duration `yaml:"read_timeout"`
	WriteTimeout       config.Duration `yaml:"write_timeout"`
	ShutdownTimeout    config.Duration `yaml:"shutdown_timeout"`
	// ExposePanics puts recovered panic values in 500 bodies
	ExposePanics bool `yaml:"expose_panics"`
}

type StoreConfig struct {
	// Backend is json, sqlite or memory
	Backend string `yaml:"backend"`
	// Path is the JSON file or SQLite database
	Path string `yaml:"path"`
	// PersistPolicy is best_effort or strict
	PersistPolicy string `yaml:"persist_policy"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

type SecurityConfig struct {
	// Headers sends CSP, X-Frame-Options, nosniff and friends
	Headers bool `yaml:"headers"`
	// HSTS adds Strict-Transport-Security; enable only behind TLS
	HSTS      bool            `yaml:"hsts"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type LoggingConfig struct {
	// Format is text or json
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	ZipkinURL   string  `yaml:"zipkin_url"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

type EventsConfig struct {
	// Audit logs one line per committed mutation
	Audit bool `yaml:"audit"`
	// NATSURL enables the NATS bridge when set
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DefaultConfig returns the configuration used when no file or override
// says otherwise: port 8080, ./todos.json, best effort persistence, open CORS.
func DefaultConfig() *AppConfig {
	cors := security.DefaultCORSConfig()
	return &AppConfig{
		Server: ServerConfig{
			Addr:               ":8080",
			MaxCCU:             1000,
			UtilizationPercent: 67,
			ReadTimeout:        config.Duration(10 * time.Second),
			WriteTimeout:       config.Duration(10 * time.Second),
			ShutdownTimeout:    config.Duration(5 * time.Second),
		},
		Store: StoreConfig{
			Backend:       BackendJSON,
			Path:          store.DefaultFile,
			PersistPolicy: store.BestEffort.String(),
		},
		CORS: CORSConfig{
			AllowedOrigins: cors.AllowedOrigins,
			AllowedMethods: cors.AllowedMethods,
			AllowedHeaders: cors.AllowedHeaders,
		},
		Security: SecurityConfig{
			Headers:   true,
			RateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 200},
		},
		Logging: LoggingConfig{Format: "text", Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "todolist",
			SampleRate:  1,
		},
		Events: EventsConfig{Audit: true, SubjectPrefix: "todolist"},
	}
}

// LoadConfig starts from DefaultConfig, applies the file at path (YAML, or
// JSON by extension; empty path skips it) and TODOLIST_* overrides, then
// validates the result.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()
	if err := config.LoadWithEnv(path, EnvPrefix, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration
func (c *AppConfig) Validate() error {
	return config.Validate(c,
		config.RequiredFields("Server.Addr", "Store.Path"),
		config.RangeValidator("Server.MaxCCU", 1, 1_000_000),
		config.RangeValidator("Server.UtilizationPercent", 1, 100),
		config.OneOf("Store.Backend", BackendJSON, BackendSQLite, BackendMemory),
		config.OneOf("Store.PersistPolicy", store.BestEffort.String(), store.Strict.String()),
		config.OneOf("Logging.Format", "text", "json"),
		config.OneOf("Logging.Level", "debug", "info", "warn", "warning", "error"),
		config.RangeValidator("Tracing.SampleRate", 0, 1),
		config.ValidatorFunc(func(interface{}) error {
			if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
				return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
			}
			if rl := c.Security.RateLimit; rl.Enabled && (rl.RequestsPerSecond <= 0 || rl.Burst < 1) {
				return fmt.Errorf("rate limit needs requests_per_second > 0 and burst >= 1")
			}
			if c.Tracing.Enabled && strings.EqualFold(c.Tracing.Exporter, "zipkin") && c.Tracing.ZipkinURL == "" {
				return fmt.Errorf("tracing exporter zipkin requires zipkin_url")
			}
			return nil
		}),
	)
}

// NewLogger builds the logger described by c
func (c LoggingConfig) NewLogger() (core.Logger, error) {
	level, err := core.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return core.NewLogger(core.LoggerConfig{Format: c.Format, Level: level}), nil
}
