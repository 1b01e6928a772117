package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/qdyn/internal/linalg"
	"github.com/san-kum/qdyn/internal/operators"
	"github.com/san-kum/qdyn/internal/signal"
)

type builderFunc func(cfg *Config, hamOps []*linalg.CDense, drift *linalg.CDense, dissOps []*linalg.CDense) (operators.Collection, error)

var builders = map[string]builderFunc{
	"dense": func(_ *Config, hamOps []*linalg.CDense, drift *linalg.CDense, _ []*linalg.CDense) (operators.Collection, error) {
		return operators.NewDenseCollection(hamOps, drift)
	},
	"sparse": func(cfg *Config, hamOps []*linalg.CDense, drift *linalg.CDense, _ []*linalg.CDense) (operators.Collection, error) {
		return operators.NewSparseCollection(hamOps, drift, cfg.Decimals)
	},
	"dense_lindblad": func(_ *Config, hamOps []*linalg.CDense, drift *linalg.CDense, dissOps []*linalg.CDense) (operators.Collection, error) {
		return operators.NewDenseLindbladCollection(hamOps, drift, dissOps)
	},
	"vectorized_lindblad": func(_ *Config, hamOps []*linalg.CDense, drift *linalg.CDense, dissOps []*linalg.CDense) (operators.Collection, error) {
		return operators.NewVectorizedLindbladCollection(hamOps, drift, dissOps)
	},
	"sparse_lindblad": func(cfg *Config, hamOps []*linalg.CDense, drift *linalg.CDense, dissOps []*linalg.CDense) (operators.Collection, error) {
		return operators.NewSparseLindbladCollection(hamOps, drift, dissOps, cfg.Decimals)
	},
}

// Representations lists the known representation names.
func Representations() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model is a built collection together with the signals driving its terms.
type Model struct {
	Collection operators.Collection
	HamSignals []signal.Signal
	Rates      []signal.Signal
}

// Signals samples the model's signals at time t into an evaluation payload.
func (m *Model) Signals(t float64) operators.Signals {
	return operators.Signals{
		Ham:  signal.SampleAll(m.HamSignals, t),
		Diss: signal.SampleRates(m.Rates, t),
	}
}

// Build constructs the collection named by the config's representation and
// the signals attached to its terms.
func Build(cfg *Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	builder := builders[cfg.Representation]

	hamOps := make([]*linalg.CDense, len(cfg.Hamiltonian))
	hamSignals := make([]signal.Signal, len(cfg.Hamiltonian))
	for i, op := range cfg.Hamiltonian {
		hamOps[i] = op.Matrix.Matrix()
		hamSignals[i] = buildSignal(op.Signal)
	}
	var drift *linalg.CDense
	if cfg.Drift != nil {
		drift = cfg.Drift.Matrix()
	}
	dissOps := make([]*linalg.CDense, len(cfg.Dissipators))
	rates := make([]signal.Signal, len(cfg.Dissipators))
	for i, d := range cfg.Dissipators {
		dissOps[i] = d.Matrix.Matrix()
		rates[i] = signal.Constant(complex(d.Rate, 0))
	}

	coll, err := builder(cfg, hamOps, drift, dissOps)
	if err != nil {
		return nil, fmt.Errorf("build %s collection: %w", cfg.Representation, err)
	}
	return &Model{Collection: coll, HamSignals: hamSignals, Rates: rates}, nil
}

func buildSignal(sc SignalConfig) signal.Signal {
	if sc.Freq == 0 && sc.Phase == 0 {
		return signal.Constant(complex(sc.Amplitude, 0))
	}
	return signal.Carrier{
		Envelope: signal.Constant(complex(sc.Amplitude, 0)),
		Freq:     sc.Freq,
		Phase:    sc.Phase,
	}
}
