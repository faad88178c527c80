package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/snipgen/pkg/ast"
	"github.com/Sumatoshi-tech/snipgen/pkg/nql"
)

// Sentinel validation errors.
var (
	ErrInvalidGrammar   = errors.New("invalid synthesis grammar")
	ErrInvalidMode      = errors.New("invalid synthesis mode")
	ErrInvalidFileSize  = errors.New("invalid runner max file size")
	ErrInvalidRounds    = errors.New("runner max rounds must be positive")
	ErrInvalidLogLevel  = errors.New("invalid logging level")
	ErrInvalidLogFormat = errors.New("logging format must be text or json")
)

// Config holds all snipgen configuration.
type Config struct {
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// SynthesisConfig holds the defaults of a synthesis call.
type SynthesisConfig struct {
	Grammar string `mapstructure:"grammar"`
	Mode    string `mapstructure:"mode"`
}

// RunnerConfig bounds the snippet runner.
type RunnerConfig struct {
	// MaxFileSize is a human readable size such as "4MiB".
	MaxFileSize string `mapstructure:"max_file_size"`
	MaxRounds   int    `mapstructure:"max_rounds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9464".
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration from path, or from ./.snipgen.yaml and
// $HOME/.config/snipgen/config.yaml when path is empty. A missing default
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".snipgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/snipgen")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Synthesis: SynthesisConfig{Grammar: DefaultGrammar, Mode: DefaultMode},
		Runner:    RunnerConfig{MaxFileSize: DefaultMaxFileSize, MaxRounds: DefaultMaxRounds},
		Logging:   LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Telemetry: TelemetryConfig{OTLPInsecure: DefaultOTLPInsecure, MetricsAddr: DefaultMetricsAddr},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("synthesis.grammar", DefaultGrammar)
	v.SetDefault("synthesis.mode", DefaultMode)

	v.SetDefault("runner.max_file_size", DefaultMaxFileSize)
	v.SetDefault("runner.max_rounds", DefaultMaxRounds)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_headers", "")
	v.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	v.SetDefault("telemetry.metrics_addr", DefaultMetricsAddr)
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := c.Grammar(); err != nil {
		return err
	}

	if _, ok := nql.ParseMode(c.Synthesis.Mode); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Synthesis.Mode)
	}

	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}

	if c.Runner.MaxRounds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRounds, c.Runner.MaxRounds)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	return nil
}

// Grammar resolves the configured grammar.
func (c *Config) Grammar() (ast.Variant, error) {
	v, err := ast.ParseVariant(c.Synthesis.Grammar)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrammar, c.Synthesis.Grammar)
	}

	return v, nil
}

// MaxFileSizeBytes parses Runner.MaxFileSize.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.Runner.MaxFileSize)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFileSize, c.Runner.MaxFileSize)
	}

	return int64(n), nil //nolint:gosec // sizes are far below MaxInt64.
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level

	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return lvl, nil
}

// JSONLogs reports whether logs are JSON formatted.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.Logging.Format, "json")
}
