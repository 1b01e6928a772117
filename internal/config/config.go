package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/qdyn/internal/linalg"
)

const (
	DefaultRepresentation = "dense"
	DefaultDecimals       = linalg.DefaultDecimals
)

// Config describes a model file: the operator decomposition of a generator,
// its drift and dissipators, and the signal attached to each term.
type Config struct {
	Dimension      int                `yaml:"dimension"`
	Representation string             `yaml:"representation"`
	Decimals       int                `yaml:"decimals"`
	Hamiltonian    []OperatorConfig   `yaml:"hamiltonian"`
	Drift          *MatrixConfig      `yaml:"drift"`
	Dissipators    []DissipatorConfig `yaml:"dissipators"`
}

// MatrixConfig holds a complex matrix as separate real and imaginary grids;
// an absent imag grid means a real matrix.
type MatrixConfig struct {
	Real [][]float64 `yaml:"real"`
	Imag [][]float64 `yaml:"imag"`
}

type OperatorConfig struct {
	Name   string       `yaml:"name"`
	Matrix MatrixConfig `yaml:"matrix"`
	Signal SignalConfig `yaml:"signal"`
}

// SignalConfig describes the coefficient attached to one Hamiltonian term:
// a constant amplitude, optionally modulated by a carrier.
type SignalConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Freq      float64 `yaml:"freq"`
	Phase     float64 `yaml:"phase"`
}

type DissipatorConfig struct {
	Name   string       `yaml:"name"`
	Matrix MatrixConfig `yaml:"matrix"`
	Rate   float64      `yaml:"rate"`
}

func DefaultConfig() *Config {
	return &Config{
		Representation: DefaultRepresentation,
		Decimals:       DefaultDecimals,
	}
}

// Load reads a model file, applying defaults for absent keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if _, ok := builders[c.Representation]; !ok {
		return fmt.Errorf("unknown representation: %s", c.Representation)
	}
	if c.Decimals < 0 {
		return fmt.Errorf("decimals must be non-negative, got %d", c.Decimals)
	}
	if len(c.Hamiltonian) == 0 && c.Drift == nil && len(c.Dissipators) == 0 {
		return fmt.Errorf("model has no operators")
	}
	for i, op := range c.Hamiltonian {
		if err := op.Matrix.check(c.Dimension); err != nil {
			return fmt.Errorf("hamiltonian[%d] (%s): %w", i, op.Name, err)
		}
	}
	if c.Drift != nil {
		if err := c.Drift.check(c.Dimension); err != nil {
			return fmt.Errorf("drift: %w", err)
		}
	}
	for i, d := range c.Dissipators {
		if err := d.Matrix.check(c.Dimension); err != nil {
			return fmt.Errorf("dissipators[%d] (%s): %w", i, d.Name, err)
		}
		if d.Rate < 0 {
			return fmt.Errorf("dissipators[%d] (%s): rate must be non-negative, got %f", i, d.Name, d.Rate)
		}
	}
	if len(c.Dissipators) > 0 && (c.Representation == "dense" || c.Representation == "sparse") {
		return fmt.Errorf("representation %s cannot hold dissipators; use a lindblad representation", c.Representation)
	}
	return nil
}

func (m *MatrixConfig) check(n int) error {
	if err := checkGrid(m.Real, n, "real"); err != nil {
		return err
	}
	if m.Imag != nil {
		return checkGrid(m.Imag, n, "imag")
	}
	return nil
}

func checkGrid(g [][]float64, n int, name string) error {
	if len(g) != n {
		return fmt.Errorf("%s grid has %d rows, want %d", name, len(g), n)
	}
	for i, row := range g {
		if len(row) != n {
			return fmt.Errorf("%s grid row %d has %d entries, want %d", name, i, len(row), n)
		}
	}
	return nil
}

// Matrix converts the grids into a dense complex matrix.
func (m *MatrixConfig) Matrix() *linalg.CDense {
	n := len(m.Real)
	out := linalg.NewCDense(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			im := 0.0
			if m.Imag != nil {
				im = m.Imag[i][j]
			}
			out.Set(i, j, complex(m.Real[i][j], im))
		}
	}
	return out
}
