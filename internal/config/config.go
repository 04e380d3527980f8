// Package config loads the YAML configuration of the benchmark tool.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	algotranspose "github.com/cwbudde/algo-transpose"
)

// Sweep kinds.
const (
	SweepGeometric = "geometric"
	SweepLinear    = "linear"
	SweepBlock     = "block"
	SweepList      = "list"
)

// Fill patterns for benchmark matrices.
const (
	FillConstant   = "constant"
	FillSequential = "sequential"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the benchmark tool configuration.
type Config struct {
	Tuning  Tuning  `yaml:"tuning"`
	Sweep   Sweep   `yaml:"sweep"`
	Wisdom  Wisdom  `yaml:"wisdom"`
	History History `yaml:"history"`
	Metrics Metrics `yaml:"metrics"`
	Logging Logging `yaml:"logging"`
}

// Tuning mirrors algotranspose.Options. Zero values select the library
// defaults.
type Tuning struct {
	BlockSize          int  `yaml:"block_size"`
	InnerBlockSize     int  `yaml:"inner_block_size"`
	OuterBlockSize     int  `yaml:"outer_block_size"`
	PadResidue         int  `yaml:"pad_residue"`
	Unpadded           bool `yaml:"unpadded"`
	RecursionThreshold int  `yaml:"recursion_threshold"`
}

// Sweep describes which matrix sizes and strategies a run covers.
type Sweep struct {
	Kind       string   `yaml:"kind"`
	Start      int      `yaml:"start"`
	Max        int      `yaml:"max"`
	Step       int      `yaml:"step"`
	BlockN     int      `yaml:"block_n"`
	Sizes      []int    `yaml:"sizes,omitempty"`
	Strategies []string `yaml:"strategies,omitempty"`
	Iterations int      `yaml:"iterations"`
	Warmup     int      `yaml:"warmup"`
	Verify     bool     `yaml:"verify"`
	Fill       string   `yaml:"fill"`
}

// Wisdom names the file winners are exported to.
type Wisdom struct {
	File string `yaml:"file"`
}

// History configures the run store.
type History struct {
	Dir string `yaml:"dir"`
}

// Metrics configures the HTTP server of the serve command.
type Metrics struct {
	Listen string `yaml:"listen"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Sweep: SweepDefaults(SweepGeometric),
		Metrics: Metrics{
			Listen: "127.0.0.1:9464",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// SweepDefaults returns the default sweep of the given kind. For block
// sweeps Start, Max and Step range over the tile width at edge BlockN.
func SweepDefaults(kind string) Sweep {
	s := Sweep{
		Kind:       kind,
		BlockN:     4096,
		Iterations: 10,
		Warmup:     1,
		Fill:       FillConstant,
	}

	switch kind {
	case SweepGeometric:
		s.Start, s.Max = 1000, 26000
	case SweepLinear:
		s.Start, s.Max, s.Step = 64, 4096, 64
	case SweepBlock:
		s.Start, s.Max, s.Step = 4, 80, 4
	}

	return s
}

// Load reads the configuration at path on top of DefaultConfig, so keys
// missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}

		path = abs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks field ranges and names. Tuning is checked by the library.
func (c *Config) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return fmt.Errorf("%w: tuning: %w", ErrInvalidConfig, err)
	}

	if err := c.Sweep.validate(); err != nil {
		return fmt.Errorf("%w: sweep: %w", ErrInvalidConfig, err)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return fmt.Errorf("%w: logging: %w", ErrInvalidConfig, err)
	}

	return nil
}

func (s Sweep) validate() error {
	switch s.Kind {
	case SweepGeometric, SweepLinear, SweepBlock:
		if s.Start < 1 || s.Max < s.Start {
			return fmt.Errorf("range %d..%d", s.Start, s.Max)
		}
	case SweepList:
		if len(s.Sizes) == 0 {
			return errors.New("list sweep without sizes")
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}

	if (s.Kind == SweepLinear || s.Kind == SweepBlock) && s.Step < 1 {
		return fmt.Errorf("step %d", s.Step)
	}

	if s.Kind == SweepBlock && s.BlockN < 1 {
		return fmt.Errorf("block_n %d", s.BlockN)
	}

	for _, n := range s.Sizes {
		if n < 1 {
			return fmt.Errorf("size %d", n)
		}
	}

	if _, err := s.ParseStrategies(); err != nil {
		return err
	}

	if s.Iterations < 1 || s.Warmup < 0 {
		return fmt.Errorf("iterations %d warmup %d", s.Iterations, s.Warmup)
	}

	if s.Fill != FillConstant && s.Fill != FillSequential {
		return fmt.Errorf("unknown fill %q", s.Fill)
	}

	return nil
}

// ParseStrategies resolves the strategy names. An empty list means every
// concrete strategy.
func (s Sweep) ParseStrategies() ([]algotranspose.KernelStrategy, error) {
	if len(s.Strategies) == 0 {
		return algotranspose.Strategies(), nil
	}

	out := make([]algotranspose.KernelStrategy, 0, len(s.Strategies))

	for _, name := range s.Strategies {
		strategy, err := algotranspose.ParseKernelStrategy(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}

		out = append(out, strategy)
	}

	return out, nil
}

// Options converts the tuning section to library options.
func (c *Config) Options() algotranspose.Options {
	return algotranspose.Options{
		BlockSize:          c.Tuning.BlockSize,
		InnerBlockSize:     c.Tuning.InnerBlockSize,
		OuterBlockSize:     c.Tuning.OuterBlockSize,
		PadResidue:         c.Tuning.PadResidue,
		Unpadded:           c.Tuning.Unpadded,
		RecursionThreshold: c.Tuning.RecursionThreshold,
	}
}

// SlogLevel parses Level ("debug", "info", "warn", "error"). Empty means
// info.
func (l Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}

	return level, nil
}
