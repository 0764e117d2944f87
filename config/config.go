// Package config provides configuration loading and management for semcode.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/validation"
	"gopkg.in/yaml.v3"
)

// Config represents the complete semcode configuration
type Config struct {
	Codebook   CodebookConfig   `yaml:"codebook"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Output     OutputConfig     `yaml:"output"`
	NATS       NATSConfig       `yaml:"nats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Validation ValidationConfig `yaml:"validation"`
}

// CodebookConfig selects the vocabulary tables
type CodebookConfig struct {
	// Revision is the built-in codebook revision (e.g., "v0.1")
	Revision string `yaml:"revision"`
	// File loads a revision from a YAML file instead of the built-in set
	File string `yaml:"file,omitempty"`
}

// PipelineConfig configures pipeline runs
type PipelineConfig struct {
	// Workers is the number of records processed in parallel (0 = number of CPUs)
	Workers int `yaml:"workers"`
	// FailOnUnmapped fails a run that met labels missing from the codebook
	FailOnUnmapped bool `yaml:"fail_on_unmapped"`
	// Timeout bounds a single run (0 = no limit)
	Timeout time.Duration `yaml:"timeout"`
	// WatchDebounce is the quiet period before a watched input is re-run
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// OutputConfig configures where serialized graphs are written
type OutputConfig struct {
	// Format is turtle, ntriples or jsonld
	Format string `yaml:"format"`
	// Path is the output file (empty = stdout)
	Path string `yaml:"path,omitempty"`
}

// NATSConfig configures graph publishing
type NATSConfig struct {
	// URL is the NATS server URL, comma separated for a cluster
	URL string `yaml:"url"`
	// Subject is the graph ingestion subject
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr,omitempty"`
}

// ValidationConfig configures shape validation before publication
type ValidationConfig struct {
	// Shapes is "builtin", a shape file path, or empty to skip validation
	Shapes string `yaml:"shapes"`
	// TerminateOn is violation, warning or never
	TerminateOn string `yaml:"terminate_on"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Codebook: CodebookConfig{
			Revision: "v0.1",
		},
		Pipeline: PipelineConfig{
			Workers:       0, // One per CPU
			WatchDebounce: 500 * time.Millisecond,
		},
		Output: OutputConfig{
			Format: string(export.FormatTurtle),
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Subject: "graph.ingest.entity",
		},
		Validation: ValidationConfig{
			Shapes:      "builtin",
			TerminateOn: string(validation.TerminateOnViolation),
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error
	switch {
	case c.Codebook.File != "":
	case c.Codebook.Revision == "":
		errs = append(errs, fmt.Errorf("codebook.revision or codebook.file is required"))
	default:
		if err := checkRevision(c.Codebook.Revision); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, fmt.Errorf("pipeline.workers must not be negative"))
	}
	if c.Pipeline.Timeout < 0 {
		errs = append(errs, fmt.Errorf("pipeline.timeout must not be negative"))
	}
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if c.NATS.Subject == "" {
		errs = append(errs, fmt.Errorf("nats.subject is required"))
	}
	if _, err := validation.ParseTerminateOn(c.Validation.TerminateOn); err != nil {
		errs = append(errs, fmt.Errorf("validation.terminate_on: %w", err))
	}
	return errors.Join(errs...)
}

// checkRevision reports whether name is one of the built-in codebook revisions
func checkRevision(name string) error {
	names, err := codebook.Revisions()
	if err != nil {
		return fmt.Errorf("codebook.revision: %w", err)
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("codebook.revision: %w: %q (available: %s)", codebook.ErrUnknownRevision, name, strings.Join(names, ", "))
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Codebook
	if other.Codebook.Revision != "" {
		c.Codebook.Revision = other.Codebook.Revision
	}
	if other.Codebook.File != "" {
		c.Codebook.File = other.Codebook.File
	}

	// Pipeline
	if other.Pipeline.Workers != 0 {
		c.Pipeline.Workers = other.Pipeline.Workers
	}
	if other.Pipeline.FailOnUnmapped {
		c.Pipeline.FailOnUnmapped = true
	}
	if other.Pipeline.Timeout != 0 {
		c.Pipeline.Timeout = other.Pipeline.Timeout
	}
	if other.Pipeline.WatchDebounce != 0 {
		c.Pipeline.WatchDebounce = other.Pipeline.WatchDebounce
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.Path != "" {
		c.Output.Path = other.Output.Path
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}

	// Validation
	if other.Validation.Shapes != "" {
		c.Validation.Shapes = other.Validation.Shapes
	}
	if other.Validation.TerminateOn != "" {
		c.Validation.TerminateOn = other.Validation.TerminateOn
	}
}
