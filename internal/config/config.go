// Package config holds lakeidx's runtime configuration: where the index
// environment, the blob lake and the schema live, and how the engine writes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lakeidx/internal/engine"
	"github.com/roach88/lakeidx/internal/keys"
)

// Defaults mirror the directory layout lakeidx creates in its working
// directory when nothing else is configured.
const (
	DefaultIndexDir      = "index-data"
	DefaultLakeDir       = "jsonlake"
	DefaultSchema        = "schema.json"
	DefaultTxMode        = engine.TxPerIndex
	DefaultKeyEncoding   = keys.EncodingEscaped
	DefaultUnknownFields = keys.UnknownFieldOmit
)

// IndexFile is the name of the index environment inside IndexDir.
const IndexFile = "index.db"

// Config is the full runtime configuration.
type Config struct {
	IndexDir      string                  `yaml:"index_dir"`
	LakeDir       string                  `yaml:"lake_dir"`
	Schema        string                  `yaml:"schema"`
	TxMode        engine.TxMode           `yaml:"tx_mode"`
	KeyEncoding   keys.Encoding           `yaml:"key_encoding"`
	UnknownFields keys.UnknownFieldPolicy `yaml:"unknown_fields"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		IndexDir:      DefaultIndexDir,
		LakeDir:       DefaultLakeDir,
		Schema:        DefaultSchema,
		TxMode:        DefaultTxMode,
		KeyEncoding:   DefaultKeyEncoding,
		UnknownFields: DefaultUnknownFields,
	}
}

// Load reads a YAML config file over the defaults.
// Unknown keys are rejected so typos surface immediately.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks required paths and enum values.
func (c Config) Validate() error {
	if c.IndexDir == "" {
		return errors.New("index_dir is required")
	}
	if c.LakeDir == "" {
		return errors.New("lake_dir is required")
	}
	if c.Schema == "" {
		return errors.New("schema is required")
	}
	return c.EngineOptions().Validate()
}

// EngineOptions returns the engine options the config selects.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		TxMode:        c.TxMode,
		Encoding:      c.KeyEncoding,
		UnknownFields: c.UnknownFields,
	}
}
