package config

import (
	"dbprobe/internal/models"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "test_config.yaml")

	configContent := `
server:
  port: 8081
  host: "localhost"
  read_timeout: 10s
  write_timeout: 20s
  idle_timeout: 90s

probe:
  variant: first_row
  driver: postgres
  query: "SELECT name FROM customers"
  timeout: 5s
  date_layout: "2006-01-02 15:04"
  templates:
    connected: "Reached the db, first customer is %v"
  settings:
    DEPLOYMENT_METHOD: "Terraform"
    CONNECTION_STRING: "postgres://probe@db:5432/app"

security:
  rate_limit:
    enabled: true
    requests_per_minute: 30
    burst_size: 5
    cleanup_interval: 60s

logging:
  level: "debug"
  format: "text"
  output: "stderr"

metrics:
  enabled: true
  path: "/prom"
  port: 9191

observability:
  service_name: "probe-test"
  tracing:
    enabled: true
    exporter: "otlp"
    otlp_endpoint: "collector:4317"
    sample_rate: 0.25
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	config, err := Load(configFile)
	require.NoError(t, err)

	// Verify server config
	assert.Equal(t, 8081, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 10*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 20*time.Second, config.Server.WriteTimeout)
	assert.Equal(t, 90*time.Second, config.Server.IdleTimeout)

	// Verify probe config
	assert.Equal(t, models.ProbeVariantFirstRow, config.Probe.Variant)
	assert.Equal(t, models.DriverPostgres, config.Probe.Driver)
	assert.Equal(t, "SELECT name FROM customers", config.Probe.Query)
	assert.Equal(t, 5*time.Second, config.Probe.Timeout)
	assert.Equal(t, "2006-01-02 15:04", config.Probe.DateLayout)
	assert.Equal(t, "Reached the db, first customer is %v", config.Probe.Templates.Connected)
	assert.Empty(t, config.Probe.Templates.ConnectFailed)
	assert.Equal(t, "Terraform", config.Probe.Settings["DEPLOYMENT_METHOD"])
	assert.Equal(t, "postgres://probe@db:5432/app", config.Probe.Settings["CONNECTION_STRING"])

	// Verify rate limiting config
	assert.True(t, config.Security.RateLimit.Enabled)
	assert.Equal(t, 30, config.Security.RateLimit.RequestsPerMinute)
	assert.Equal(t, 5, config.Security.RateLimit.BurstSize)
	assert.Equal(t, 60*time.Second, config.Security.RateLimit.CleanupInterval)

	// Verify logging config
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.Equal(t, "stderr", config.Logging.Output)

	// Verify metrics config
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, "/prom", config.Metrics.Path)
	assert.Equal(t, 9191, config.Metrics.Port)

	// Verify observability config
	assert.Equal(t, "probe-test", config.Observability.ServiceName)
	assert.True(t, config.Observability.Tracing.Enabled)
	assert.Equal(t, "otlp", config.Observability.Tracing.Exporter)
	assert.Equal(t, "collector:4317", config.Observability.Tracing.OTLPEndpoint)
	assert.Equal(t, 0.25, config.Observability.Tracing.SampleRate)
}

func TestLoad_WithDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "minimal_config.yaml")

	configContent := `
server:
  port: 3000
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	config, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)             // Default
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout) // Default

	assert.Equal(t, models.ProbeVariantRowCount, config.Probe.Variant) // Default
	assert.Empty(t, config.Probe.Driver)                               // Detected at request time
	assert.Equal(t, 15*time.Second, config.Probe.Timeout)              // Default
	assert.NotNil(t, config.Probe.Settings)

	assert.False(t, config.Security.RateLimit.Enabled) // Default
	assert.Equal(t, "info", config.Logging.Level)      // Default
	assert.True(t, config.Metrics.Enabled)             // Default
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("DBPROBE_PORT", "9999")
	t.Setenv("DBPROBE_HOST", "127.0.0.1")
	t.Setenv("DBPROBE_PROBE_VARIANT", "FIRST_ROW")
	t.Setenv("DBPROBE_PROBE_DRIVER", "MySQL")
	t.Setenv("DBPROBE_PROBE_TIMEOUT", "2s")
	t.Setenv("DBPROBE_LOG_LEVEL", "warn")
	t.Setenv("DBPROBE_RATE_LIMIT_ENABLED", "true")
	t.Setenv("DBPROBE_RATE_LIMIT_BURST_SIZE", "3")
	t.Setenv("DBPROBE_TRACING_SAMPLE_RATE", "0.5")

	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "env_config.yaml")

	// Config file with different values (should be overridden by env vars)
	configContent := `
server:
  port: 8080
  host: "localhost"

probe:
  variant: row_count

logging:
  level: "info"
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	config, err := Load(configFile)
	require.NoError(t, err)

	// Environment variables should override config file values
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, models.ProbeVariantFirstRow, config.Probe.Variant)
	assert.Equal(t, models.DriverMySQL, config.Probe.Driver)
	assert.Equal(t, 2*time.Second, config.Probe.Timeout)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.True(t, config.Security.RateLimit.Enabled)
	assert.Equal(t, 3, config.Security.RateLimit.BurstSize)
	assert.Equal(t, 0.5, config.Observability.Tracing.SampleRate)
}

func TestLoad_InvalidEnvironmentValuesAreIgnored(t *testing.T) {
	t.Setenv("DBPROBE_PORT", "not-a-number")
	t.Setenv("DBPROBE_PROBE_TIMEOUT", "soon")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 15*time.Second, config.Probe.Timeout)
}

func TestLoad_NoConfigFile(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, models.NewDefaultConfig().Server, config.Server)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/path/that/does/not/exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "invalid.yaml")

	err := os.WriteFile(configFile, []byte("server:\n  port: [unclosed"), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML config")
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "bad_variant.yaml")

	err := os.WriteFile(configFile, []byte("probe:\n  variant: sample\n"), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSaveExample(t *testing.T) {
	tempDir := t.TempDir()
	exampleFile := filepath.Join(tempDir, "nested", "example.yaml")

	err := SaveExample(exampleFile)
	require.NoError(t, err)

	config, err := Load(exampleFile)
	require.NoError(t, err)

	assert.Equal(t, models.DriverSQLServer, config.Probe.Driver)
	assert.Equal(t, "Manual", config.Probe.Settings["DEPLOYMENT_METHOD"])
	assert.Contains(t, config.Probe.Settings["ConnectionString"], "Server=tcp:")
}
