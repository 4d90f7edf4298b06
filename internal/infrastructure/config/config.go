package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Analysis  AnalysisConfig  `koanf:"analysis"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `koanf:"requests_per_second"`
	BurstSize         int `koanf:"burst_size"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MinIdleConns    int           `koanf:"min_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	StatusTTL   time.Duration `koanf:"status_ttl"`
}

type TelemetryConfig struct {
	Enabled       bool          `koanf:"enabled"`
	OTLPEndpoint  string        `koanf:"otlp_endpoint"`
	SamplingRate  float64       `koanf:"sampling_rate"`
	ExportTimeout time.Duration `koanf:"export_timeout"`
	BatchTimeout  time.Duration `koanf:"batch_timeout"`
}

// AnalysisConfig carries service-level defaults for analysis runs and
// detector tuning.
type AnalysisConfig struct {
	DefaultMaxExecutionSeconds int     `koanf:"default_max_execution_seconds"`
	DefaultMaxMemoryMB         int     `koanf:"default_max_memory_mb"`
	HourlyRate                 float64 `koanf:"hourly_rate"`

	OrphanedStaleAfter        time.Duration `koanf:"orphaned_stale_after"`
	DocRefreshWindow          time.Duration `koanf:"doc_refresh_window"`
	MinDescriptionLength      int           `koanf:"min_description_length"`
	ComplianceChecksPerSecond float64       `koanf:"compliance_checks_per_second"`
	ComplianceCheckBurst      int           `koanf:"compliance_check_burst"`
}

// Load builds configuration from defaults, an optional YAML file and
// DATAGOV_-prefixed environment variables, in ascending precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 10,
				BurstSize:         20,
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MinIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DialTimeout: 5 * time.Second,
			StatusTTL:   24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			SamplingRate:  0.1,
			ExportTimeout: 30 * time.Second,
			BatchTimeout:  5 * time.Second,
		},
		Analysis: AnalysisConfig{
			DefaultMaxExecutionSeconds: 300,
			DefaultMaxMemoryMB:         1024,
			HourlyRate:                 150,
			OrphanedStaleAfter:         90 * 24 * time.Hour,
			DocRefreshWindow:           180 * 24 * time.Hour,
			MinDescriptionLength:       20,
			ComplianceChecksPerSecond:  200,
			ComplianceCheckBurst:       20,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else {
		_ = k.Load(file.Provider("configs/config.yaml"), yaml.Parser())
	}

	// Override with environment variables
	if err := k.Load(env.Provider("DATAGOV_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "DATAGOV_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
