package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "epstats", cfg.MetricsNamespace)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	envVars := map[string]string{
		"EPSTATS_HTTP_ADDRESS":      ":9090",
		"EPSTATS_WORKER_POOL_SIZE":  "4",
		"EPSTATS_LOG_LEVEL":         "debug",
		"EPSTATS_LOG_FORMAT":        "console",
		"EPSTATS_METRICS_NAMESPACE": "epstats_staging",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "epstats_staging", cfg.MetricsNamespace)
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	cfg, err := Load("/nonexistent/epstats.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress)
}

func TestLoadFromYAMLFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "epstats-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString("http_address: \":7000\"\nworker_pool_size: 16\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := Load(f.Name())
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddress)
	assert.Equal(t, 16, cfg.WorkerPoolSize)
}

func TestBuildLoggerDefaultsToInfoOnBadLevel(t *testing.T) {
	cfg := &Config{LogLevel: "not-a-level", LogFormat: "json"}
	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
