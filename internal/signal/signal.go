// Package signal defines the coefficient contract consumed by the operator
// collections: anything that produces a complex value for a point in time
// can drive a generator term. Envelope construction beyond constants and
// plain functions lives outside this module.
package signal

import "math"

// Signal produces the coefficient value of one generator term at time t.
type Signal interface {
	At(t float64) complex128
}

// Constant is a time-independent coefficient.
type Constant complex128

func (c Constant) At(float64) complex128 { return complex128(c) }

// Func adapts an ordinary function to the Signal interface.
type Func func(t float64) complex128

func (f Func) At(t float64) complex128 { return f(t) }

// Carrier modulates an envelope with a real carrier,
// producing Re[f(t)·e^{i(2πνt+φ)}].
type Carrier struct {
	Envelope Signal
	Freq     float64
	Phase    float64
}

func (s Carrier) At(t float64) complex128 {
	f := s.Envelope.At(t)
	arg := 2*math.Pi*s.Freq*t + s.Phase
	return complex(real(f)*math.Cos(arg)-imag(f)*math.Sin(arg), 0)
}

// SampleAll evaluates every signal at time t, in order.
func SampleAll(signals []Signal, t float64) []complex128 {
	out := make([]complex128, len(signals))
	for i, s := range signals {
		out[i] = s.At(t)
	}
	return out
}

// SampleRates evaluates every signal at time t and keeps the real part,
// the form dissipator rates take.
func SampleRates(signals []Signal, t float64) []float64 {
	out := make([]float64, len(signals))
	for i, s := range signals {
		out[i] = real(s.At(t))
	}
	return out
}
