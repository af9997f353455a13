// Package config provides the configuration for rootflat runs.
//
// The configuration is organized into sections:
//   - Log: logger level, encoding and outputs
//   - Flatten: ragged expansion, entry numbering and field resolution
//   - Output: table format, compression and destination
//   - Trace: OpenTelemetry span export
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Output.Format = config.FormatCSV
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/ajitpratap0/rootflat/pkg/compression"
	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/flatten"
	"github.com/ajitpratap0/rootflat/pkg/logger"
	"github.com/ajitpratap0/rootflat/pkg/observability"
)

// Output formats
const (
	FormatArrow = "arrow"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// Config is the top-level configuration
type Config struct {
	Log     logger.Config               `yaml:"log" json:"log" mapstructure:"log"`
	Flatten FlattenConfig               `yaml:"flatten" json:"flatten" mapstructure:"flatten"`
	Output  OutputConfig                `yaml:"output" json:"output" mapstructure:"output"`
	Trace   observability.TracingConfig `yaml:"trace" json:"trace" mapstructure:"trace"`
}

// FlattenConfig controls how fields become table columns
type FlattenConfig struct {
	// Enabled expands ragged fields into one row per element
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// EntryStart and EntryStop number the entry index level; both zero
	// means [0, rows)
	EntryStart int64 `yaml:"entry_start" json:"entry_start" mapstructure:"entry_start"`
	EntryStop  int64 `yaml:"entry_stop" json:"entry_stop" mapstructure:"entry_stop"`
	// Workers bounds concurrent field resolution; zero means NumCPU
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`
}

// OutputConfig describes where and how the table is written
type OutputConfig struct {
	Format      string `yaml:"format" json:"format" mapstructure:"format"`
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
	Level       int    `yaml:"level" json:"level" mapstructure:"level"`
	// Path is the destination file; empty or "-" means stdout
	Path string `yaml:"path" json:"path" mapstructure:"path"`
}

// Default returns a configuration with defaults applied
func Default() *Config {
	return &Config{
		Log: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
		Flatten: FlattenConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format:      FormatArrow,
			Compression: string(compression.None),
			Level:       int(compression.Default),
		},
		Trace: observability.TracingConfig{
			ServiceName:  "rootflat",
			SamplingRate: 1.0,
		},
	}
}

// Validate checks enumerated values and ranges
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatArrow, FormatCSV, FormatJSON:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "output.format must be one of arrow, csv, json; got %q", c.Output.Format)
	}
	if _, err := compression.Parse(c.Output.Compression); err != nil {
		return err
	}
	if c.Flatten.Workers < 0 {
		return errors.New(errors.ErrorTypeConfig, "flatten.workers cannot be negative")
	}
	if c.Trace.SamplingRate < 0 || c.Trace.SamplingRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "trace.sampling_rate must be within [0, 1]")
	}
	if c.Flatten.EntryStop < c.Flatten.EntryStart {
		return errors.New(errors.ErrorTypeConfig, "flatten.entry_stop must not precede flatten.entry_start")
	}
	return nil
}

// Options converts the section into flatten options
func (f FlattenConfig) Options(log *zap.Logger) flatten.Options {
	opts := flatten.DefaultOptions()
	opts.Flatten = f.Enabled
	opts.EntryStart = f.EntryStart
	opts.EntryStop = f.EntryStop
	opts.Logger = log
	return opts
}

// GetWorkers returns the number of resolution workers, at least 1
func (f FlattenConfig) GetWorkers() int {
	if f.Workers <= 0 {
		return runtime.NumCPU()
	}
	return f.Workers
}

// Algorithm returns the parsed compression algorithm
func (o OutputConfig) Algorithm() (compression.Algorithm, error) {
	return compression.Parse(o.Compression)
}

// IsStdout reports whether output goes to standard output
func (o OutputConfig) IsStdout() bool {
	return o.Path == "" || o.Path == "-"
}
