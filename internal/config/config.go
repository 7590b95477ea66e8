package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// AnalysisTimeout bounds a single pipeline run.
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" envconfig:"ANALYSIS_TIMEOUT"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PipelineConfig holds the defaults applied to every analysis run.
type PipelineConfig struct {
	Horizon           int     `yaml:"horizon" envconfig:"HORIZON"`
	Metric            string  `yaml:"metric" envconfig:"METRIC"`
	OutlierFiltering  bool    `yaml:"outlier_filtering" envconfig:"OUTLIER_FILTERING"`
	OutlierMultiplier float64 `yaml:"outlier_multiplier" envconfig:"OUTLIER_MULTIPLIER"`
	// OutlierPasses caps the IQR filter passes; zero repeats until stable.
	OutlierPasses     int     `yaml:"outlier_passes" envconfig:"OUTLIER_PASSES"`
	HoldoutFraction   float64 `yaml:"holdout_fraction" envconfig:"HOLDOUT_FRACTION"`
	MinHoldout        int     `yaml:"min_holdout" envconfig:"MIN_HOLDOUT"`
	IntervalZ         float64 `yaml:"interval_z" envconfig:"INTERVAL_Z"`
	DropCancelled     bool    `yaml:"drop_cancelled" envconfig:"DROP_CANCELLED"`
	TopProducts       int     `yaml:"top_products" envconfig:"TOP_PRODUCTS"`
	MaxUploadBytes    int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	// Parallelism caps concurrent runs in the batch CLI.
	Parallelism int `yaml:"parallelism" envconfig:"PARALLELISM"`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// ExportConfig controls where report files are written.
type ExportConfig struct {
	Directory string `yaml:"directory" envconfig:"DIRECTORY"`
	Format    string `yaml:"format" envconfig:"FORMAT"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load builds the configuration from defaults, the first config file found
// and the environment.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit YAML file. An empty path skips the file
// layer.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config file %s", path), err)
		}
	}

	// Unset variables leave the field alone, so env only overrides.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile decodes YAML on top of cfg; keys absent from the file keep
// their current values.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the explicit file named by SALES_CONFIG_FILE or the
// first existing default location.
func findConfigFile() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}
	for _, location := range configLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks ranges and normalizes enumerations.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.NewConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return apperrors.NewConfigError("server timeouts must be positive", nil)
	}
	if c.Server.AnalysisTimeout <= 0 {
		return apperrors.NewConfigError("analysis timeout must be positive", nil)
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return apperrors.NewConfigError("rate limit rps and burst must be positive when enabled", nil)
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown log level %q", c.Logging.Level), nil)
	}
	// JSON is the only supported log format.
	c.Logging.Format = "json"
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	switch c.Logging.Output {
	case "console", "stdout", "file", "both":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown log output %q", c.Logging.Output), nil)
	}
	if c.Logging.Output != "console" && c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("log file path is required for file output", nil)
	}

	p := c.Pipeline
	switch {
	case p.Horizon < 1:
		return apperrors.NewConfigError(fmt.Sprintf("pipeline horizon must be at least 1, got %d", p.Horizon), nil)
	case p.OutlierMultiplier <= 0:
		return apperrors.NewConfigError("pipeline outlier multiplier must be positive", nil)
	case p.OutlierPasses < 0:
		return apperrors.NewConfigError("pipeline outlier passes must not be negative", nil)
	case p.HoldoutFraction <= 0 || p.HoldoutFraction >= 1:
		return apperrors.NewConfigError("pipeline holdout fraction must be in (0, 1)", nil)
	case p.MinHoldout < 1:
		return apperrors.NewConfigError("pipeline min holdout must be at least 1", nil)
	case p.IntervalZ <= 0:
		return apperrors.NewConfigError("pipeline interval z must be positive", nil)
	case p.TopProducts < 0:
		return apperrors.NewConfigError("pipeline top products must not be negative", nil)
	case p.MaxUploadBytes <= 0:
		return apperrors.NewConfigError("pipeline max upload bytes must be positive", nil)
	case p.Parallelism < 1:
		return apperrors.NewConfigError("pipeline parallelism must be at least 1", nil)
	}
	switch p.Metric {
	case "revenue", "units", "orders":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown pipeline metric %q", p.Metric), nil)
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown trace exporter %q", c.Telemetry.TraceExporter), nil)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return apperrors.NewConfigError("telemetry sample ratio must be in [0, 1]", nil)
	}

	switch c.Export.Format {
	case "csv", "xlsx", "json":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown export format %q", c.Export.Format), nil)
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: DefaultShutdownTimeout,
			AnalysisTimeout: DefaultAnalysisTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Pipeline: PipelineConfig{
			Horizon:           DefaultHorizon,
			Metric:            "revenue",
			OutlierFiltering:  true,
			OutlierMultiplier: DefaultOutlierMultiplier,
			HoldoutFraction:   DefaultHoldoutFraction,
			MinHoldout:        DefaultMinHoldout,
			IntervalZ:         DefaultIntervalZ,
			DropCancelled:     true,
			TopProducts:       DefaultTopProducts,
			MaxUploadBytes:    DefaultMaxUploadBytes,
			Parallelism:       DefaultParallelism,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "sales-analytics",
			Environment:   "development",
			EnableTracing: true,
			EnableMetrics: true,
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
		Export: ExportConfig{
			Directory: "reports",
			Format:    "xlsx",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
	}
}
