// Package config loads datajoin settings.
//
// Precedence, lowest first: built-in defaults, the optional YAML file, then
// DATAJOIN_* environment variables. DATAJOIN_DATASET_SHUFFLE_BUFFER maps to
// dataset.shuffle_buffer.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "DATAJOIN_"

type Config struct {
	Log      LogConfig      `koanf:"log"`
	Input    InputConfig    `koanf:"input"`
	Dataset  DatasetConfig  `koanf:"dataset"`
	Simulate SimulateConfig `koanf:"simulate"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type InputConfig struct {
	// Format is line, csv, json or jsonl.
	Format       string `koanf:"format" validate:"oneof=line csv json jsonl"`
	CSVSeparator string `koanf:"csv_separator" validate:"len=1"`
	CSVHeader    bool   `koanf:"csv_header"`
	// CSVComment starts a skipped CSV line; empty disables comments.
	CSVComment string `koanf:"csv_comment" validate:"max=1"`
	// Filter is a predicate expression; empty keeps everything.
	Filter string `koanf:"filter"`
}

type DatasetConfig struct {
	// ShuffleBuffer of 0 disables shuffling.
	ShuffleBuffer int    `koanf:"shuffle_buffer" validate:"min=0"`
	Seed          uint64 `koanf:"seed"`
	Epochs        int    `koanf:"epochs" validate:"min=1"`
	// BatchSize of 0 disables batching.
	BatchSize     int  `koanf:"batch_size" validate:"min=0"`
	DropRemainder bool `koanf:"drop_remainder"`
	// RebatchSize regroups batches to this many rows; 0 disables it and
	// a positive value needs BatchSize.
	RebatchSize  int `koanf:"rebatch_size" validate:"min=0"`
	MinBatchSize int `koanf:"min_batch_size" validate:"min=0,ltefield=RebatchSize"`
	Prefetch     int `koanf:"prefetch" validate:"min=0"`
	Parallelism  int `koanf:"parallelism" validate:"min=1"`
	// PipeBuffer is the channel capacity between reader stages.
	PipeBuffer int `koanf:"pipe_buffer" validate:"min=0"`
}

type SimulateConfig struct {
	Workers     int    `koanf:"workers" validate:"min=1"`
	MetricsFile string `koanf:"metrics_file"`
}

// Default keeps the reference training input settings: a 20000 element
// shuffle buffer seeded with 2021.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Input: InputConfig{
			Format:       "line",
			CSVSeparator: ",",
			CSVComment:   "#",
		},
		Dataset: DatasetConfig{
			ShuffleBuffer: 20000,
			Seed:          2021,
			Epochs:        1,
			Prefetch:      1,
			Parallelism:   1,
			PipeBuffer:    1,
		},
		Simulate: SimulateConfig{
			Workers: 2,
		},
	}
}

// Load layers defaults, the file at path (skipped when empty) and the
// environment, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransformFunc maps DATAJOIN_SECTION_SOME_KEY to section.some_key.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Dataset.RebatchSize > 0 && c.Dataset.BatchSize == 0 {
		return fmt.Errorf("dataset.rebatch_size %d needs dataset.batch_size", c.Dataset.RebatchSize)
	}
	return nil
}

// Separator returns the CSV separator as a rune.
func (c InputConfig) Separator() rune {
	return []rune(c.CSVSeparator)[0]
}

// Comment returns the CSV comment rune, 0 when comments are disabled.
func (c InputConfig) Comment() rune {
	if c.CSVComment == "" {
		return 0
	}
	return []rune(c.CSVComment)[0]
}
