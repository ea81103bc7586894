package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Train   TrainConfig   `yaml:"train"`
	Data    DataConfig    `yaml:"data"`
}

type NetworkConfig struct {
	InDim     int `yaml:"in_dim"`
	OutDim    int `yaml:"out_dim"`
	HiddenDim int `yaml:"hidden_dim"`
	NumHidden int `yaml:"num_hidden"`
}

type TrainConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	TestBatch    int     `yaml:"test_batch_size"`
	PrintEvery   int     `yaml:"print_every"`
	Optimizer    string  `yaml:"optimizer"`
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`
	Seed         uint64  `yaml:"seed"`
	Shuffle      bool    `yaml:"shuffle"`
}

type DataConfig struct {
	TrainPath string `yaml:"train_path"`
	TestPath  string `yaml:"test_path"`
	Channels  int    `yaml:"channels"`
	Height    int    `yaml:"height"`
	Width     int    `yaml:"width"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	TrainPath    string
	TestPath     string
	Epochs       int
	BatchSize    int
	PrintEvery   int
	LearningRate float64
	Seed         uint64
}

// Default returns a config for 28x28 single-channel digits.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{InDim: 784, OutDim: 10, HiddenDim: 128, NumHidden: 2},
		Train: TrainConfig{
			Epochs:       3,
			BatchSize:    64,
			TestBatch:    1000,
			PrintEvery:   100,
			Optimizer:    "sgd",
			LearningRate: 0.01,
			Seed:         1,
		},
		Data: DataConfig{Channels: 1, Height: 28, Width: 28},
	}
}

// Load reads a Config from YAML on top of Default. Callers validate after
// applying overrides.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override, then fills values
// that default from others.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.TrainPath != "" {
		c.Data.TrainPath = o.TrainPath
	}
	if o.TestPath != "" {
		c.Data.TestPath = o.TestPath
	}
	if o.Epochs > 0 {
		c.Train.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.Train.BatchSize = o.BatchSize
	}
	if o.PrintEvery > 0 {
		c.Train.PrintEvery = o.PrintEvery
	}
	if o.LearningRate > 0 {
		c.Train.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Train.Seed = o.Seed
	}
	c.setDefaults()
}

// setDefaults fills the test batch size from the training batch size and the
// print interval when they are unset.
func (c *Config) setDefaults() {
	if c.Train.TestBatch <= 0 {
		c.Train.TestBatch = c.Train.BatchSize
	}
	if c.Train.PrintEvery <= 0 {
		c.Train.PrintEvery = 100
	}
}

// Validate verifies the config is runnable. It never modifies c.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	n := c.Network
	if n.InDim <= 0 || n.OutDim <= 0 {
		return fmt.Errorf("network in_dim and out_dim must be > 0 (got %d, %d)", n.InDim, n.OutDim)
	}
	if n.NumHidden < 0 {
		return fmt.Errorf("num_hidden must be >= 0 (got %d)", n.NumHidden)
	}
	if n.NumHidden > 0 && n.HiddenDim <= 0 {
		return fmt.Errorf("hidden_dim must be > 0 (got %d)", n.HiddenDim)
	}

	t := c.Train
	if t.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", t.Epochs)
	}
	if t.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", t.BatchSize)
	}
	if t.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", t.LearningRate)
	}
	switch t.Optimizer {
	case "sgd", "momentum", "adam":
	default:
		return fmt.Errorf("unknown optimizer %q", t.Optimizer)
	}
	if t.TestBatch <= 0 {
		return fmt.Errorf("test_batch_size must be > 0 (got %d)", t.TestBatch)
	}
	if t.PrintEvery <= 0 {
		return fmt.Errorf("print_every must be > 0 (got %d)", t.PrintEvery)
	}

	d := c.Data
	if d.TrainPath == "" || d.TestPath == "" {
		return errors.New("both train_path and test_path must be set")
	}
	if d.Channels <= 0 || d.Height <= 0 || d.Width <= 0 {
		return fmt.Errorf("image shape must be positive (got %dx%dx%d)", d.Channels, d.Height, d.Width)
	}
	if size := d.Channels * d.Height * d.Width; size != n.InDim {
		return fmt.Errorf("channels*height*width = %d does not match in_dim %d", size, n.InDim)
	}
	return nil
}
