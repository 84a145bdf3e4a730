// Package config loads matches settings from a YAML file, MATCHES_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// Index selects the indices to compute: complete, pair or both.
	Index string `mapstructure:"index"`
	// Show selects the reported quantity: ratio, np or ne.
	Show      string          `mapstructure:"show"`
	Workers   int             `mapstructure:"workers"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// OutputConfig holds report rendering settings.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	// OTLPHeaders uses the "key=value,key=value" form.
	OTLPHeaders string `mapstructure:"otlp_headers"`
}

// Accepted values.
var (
	indexValues  = []string{IndexComplete, IndexPair, IndexBoth}
	showValues   = []string{ShowRatio, ShowNp, ShowNe}
	formatValues = []string{"text", "table", "json", "yaml", "plot"}
	levelValues  = []string{"debug", "info", "warn", "error"}
)

// Index selections.
const (
	IndexComplete = "complete"
	IndexPair     = "pair"
	IndexBoth     = "both"
)

// Show selections.
const (
	ShowRatio = "ratio"
	ShowNp    = "np"
	ShowNe    = "ne"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidIndex indicates an index selection outside complete, pair, both.
	ErrInvalidIndex = errors.New("index must be one of complete, pair, both")
	// ErrInvalidShow indicates a show selection outside ratio, np, ne.
	ErrInvalidShow = errors.New("show must be one of ratio, np, ne")
	// ErrInvalidWorkers indicates the workers value is not positive.
	ErrInvalidWorkers = errors.New("workers must be positive")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be one of text, table, json, yaml, plot")
	// ErrInvalidLogLevel indicates an unknown logging level.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if !oneOf(c.Index, indexValues) {
		return fmt.Errorf("%w: %q", ErrInvalidIndex, c.Index)
	}

	if !oneOf(c.Show, showValues) {
		return fmt.Errorf("%w: %q", ErrInvalidShow, c.Show)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}

	if !oneOf(c.Output.Format, formatValues) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if !oneOf(c.Logging.Level, levelValues) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}

func oneOf(value string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(value))
}
