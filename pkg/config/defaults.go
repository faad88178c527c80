// Package config loads snipgen configuration from defaults, an optional
// YAML file and SNIPGEN_* environment variables.
package config

// Synthesis defaults.
const (
	DefaultGrammar = "javascript"
	DefaultMode    = "attribute"
)

// Runner defaults.
const (
	DefaultMaxFileSize = "4MiB"
	DefaultMaxRounds   = 10
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultOTLPInsecure = false
	DefaultMetricsAddr  = ""
)

// EnvPrefix prefixes every environment override, e.g. SNIPGEN_LOGGING_LEVEL.
const EnvPrefix = "SNIPGEN"
