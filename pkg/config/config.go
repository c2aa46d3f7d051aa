// Package config loads service configuration via github.com/spf13/viper.
// Precedence is env > file > default.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds every knob cmd/epstats needs to start the service.
type Config struct {
	// HTTPAddress is the listen address for the gin server, e.g. ":8080".
	HTTPAddress string
	// WorkerPoolSize bounds concurrent in-flight evaluations. 0 lets
	// pkg/workerpool default to runtime.NumCPU().
	WorkerPoolSize int
	// RequestTimeout bounds how long one /evaluate call may run.
	RequestTimeout time.Duration
	// LogLevel is one of debug/info/warn/error.
	LogLevel string
	// LogFormat is one of json/console.
	LogFormat string
	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string
}

func defaults(v *viper.Viper) {
	v.SetDefault("http_address", ":8080")
	v.SetDefault("worker_pool_size", 8)
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("metrics_namespace", "epstats")
}

// Load builds a Config from, in ascending precedence: the built-in
// defaults, an optional YAML file at configPath (ignored if empty or
// missing), and EPSTATS_-prefixed environment variables (e.g.
// EPSTATS_HTTP_ADDRESS, EPSTATS_WORKER_POOL_SIZE).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	defaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix("EPSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	timeout, err := time.ParseDuration(v.GetString("request_timeout"))
	if err != nil {
		timeout = 30 * time.Second
	}

	return &Config{
		HTTPAddress:      v.GetString("http_address"),
		WorkerPoolSize:   v.GetInt("worker_pool_size"),
		RequestTimeout:   timeout,
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
		MetricsNamespace: v.GetString("metrics_namespace"),
	}, nil
}

// BuildLogger constructs a *zap.Logger per LogFormat/LogLevel: JSON output
// in production, human-readable console output in development.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	if c.LogFormat == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}
