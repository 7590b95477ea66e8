package config

import "time"

// Application identity.
const (
	AppName    = "Sales Analytics"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable.
	EnvPrefix = "SALES"

	// ConfigFileEnv names an explicit YAML file.
	ConfigFileEnv = "SALES_CONFIG_FILE"
)

// Pipeline defaults.
const (
	DefaultHorizon           = 12
	DefaultOutlierMultiplier = 1.5
	DefaultHoldoutFraction   = 0.2
	DefaultMinHoldout        = 2
	DefaultIntervalZ         = 1.96
	DefaultTopProducts       = 10
	DefaultMaxUploadBytes    = 64 << 20
	DefaultParallelism       = 4
)

// Server defaults.
const (
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 2 * time.Minute
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultAnalysisTimeout = 2 * time.Minute
	DefaultRateLimitRPS    = 10
	DefaultRateLimitBurst  = 20
)

// WebSocket defaults.
const (
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
)

// configLocations are searched in order when no explicit file is named.
var configLocations = []string{
	"config.yaml",
	"configs/config.yaml",
	"../configs/config.yaml",
}
