// Package models - Service configuration and operational settings.
// This file defines the configuration structures for every service component.
//
// Configuration layout:
// - Hierarchical grouping (server, probe, security, logging, metrics, observability)
// - Defaults that start a working probe with nothing but environment variables
// - Validation up front so misconfiguration fails at startup, not per request
package models

import (
	"errors"
	"fmt"
	"time"
)

// Probe variant constants
const (
	ProbeVariantRowCount = "row_count"
	ProbeVariantFirstRow = "first_row"
)

// Database driver constants. An empty driver means "detect from the DSN".
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite"
)

// DefaultDateLayout renders timestamps like the .NET "f" format specifier
// (full date, short time) in en-US.
const DefaultDateLayout = "Monday, January 2, 2006 3:04 PM"

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Probe: which query runs, against which driver, and how results are worded
// - Security: rate limiting for the probe endpoint
// - Logging: Structured logging and output configuration
// - Metrics: Prometheus scrape endpoint
// - Observability: OpenTelemetry tracing
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Probe         ProbeConfig         `yaml:"probe" json:"probe"`                 // Probe behaviour
	Security      SecurityConfig      `yaml:"security" json:"security"`           // Rate limiting
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Monitoring and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

// ProbeConfig selects the probe variant and its backend.
//
// Settings is a static key/value source consulted after the process
// environment; it lets a config file carry DEPLOYMENT_METHOD or the
// connection string when the environment does not.
type ProbeConfig struct {
	Variant    string            `yaml:"variant" json:"variant"`
	Driver     string            `yaml:"driver" json:"driver"`
	Query      string            `yaml:"query" json:"query"`
	Timeout    time.Duration     `yaml:"timeout" json:"timeout"`
	DateLayout string            `yaml:"date_layout" json:"date_layout"`
	Templates  ProbeTemplates    `yaml:"templates" json:"templates"`
	Settings   map[string]string `yaml:"settings" json:"settings"`
}

// ProbeTemplates overrides the status wording. Each template takes a single
// fmt verb: the derived value for Connected, the error text for the others.
type ProbeTemplates struct {
	Connected     string `yaml:"connected" json:"connected"`
	ConnectFailed string `yaml:"connect_failed" json:"connect_failed"`
	QueryFailed   string `yaml:"query_failed" json:"query_failed"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers" json:"trust_proxy_headers"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: Standard non-privileged HTTP port
// - Row-count variant with driver detection: matches a plain Azure SQL deployment
// - 15-second probe timeout: the ADO.NET connect timeout default
// - Rate limiting off: the probe is usually only reachable by the platform's health checker
// - Metrics on, tracing off
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
		},
		Probe: ProbeConfig{
			Variant:    ProbeVariantRowCount,
			Timeout:    15 * time.Second,
			DateLayout: DefaultDateLayout,
			Settings:   make(map[string]string),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				BurstSize:         10,
				CleanupInterval:   5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "dbprobe",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Probe.Validate(); err != nil {
		return fmt.Errorf("invalid probe config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (pc *ProbeConfig) Validate() error {
	if !oneOf(pc.Variant, ProbeVariantRowCount, ProbeVariantFirstRow) {
		return fmt.Errorf("invalid probe variant: %s", pc.Variant)
	}

	if pc.Driver != "" && !oneOf(pc.Driver, DriverSQLServer, DriverPostgres, DriverMySQL, DriverSQLite) {
		return fmt.Errorf("invalid probe driver: %s", pc.Driver)
	}

	if pc.Timeout < 0 {
		return errors.New("probe timeout cannot be negative")
	}

	if pc.DateLayout == "" {
		return errors.New("date layout cannot be empty")
	}

	return nil
}

func (sec *SecurityConfig) Validate() error {
	if !sec.RateLimit.Enabled {
		return nil
	}
	if sec.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("requests per minute must be positive")
	}
	if sec.RateLimit.BurstSize <= 0 {
		return errors.New("burst size must be positive")
	}
	if sec.RateLimit.CleanupInterval <= 0 {
		return errors.New("cleanup interval must be positive")
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !oneOf(lc.Level, "debug", "info", "warn", "error") {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !oneOf(lc.Format, "json", "text") {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !oneOf(lc.Output, "stdout", "stderr", "file") {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}

	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty when tracing is enabled")
	}

	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required when exporter is otlp")
		}
	default:
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}

	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
