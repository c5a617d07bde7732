package vqe

import (
	"time"
)

// Iteration is a minimizer iteration.
type Iteration struct {
	// Index starts from 1.
	Index  int
	Energy float64
	// Delta is the change from the energy of the previous iteration.
	Delta    float64
	Duration time.Duration
}

// Trace is the energies of the iterations of a run.
type Trace struct {
	Iterations []Iteration
}

func (t *Trace) add(energy, previous float64, d time.Duration) Iteration {
	it := Iteration{Index: len(t.Iterations) + 1, Energy: energy, Delta: energy - previous, Duration: d}
	t.Iterations = append(t.Iterations, it)
	return it
}

// Len returns the number of iterations.
func (t Trace) Len() int { return len(t.Iterations) }

// Energies returns the energy of each iteration.
func (t Trace) Energies() []float64 {
	energies := make([]float64, 0, len(t.Iterations))
	for _, it := range t.Iterations {
		energies = append(energies, it.Energy)
	}
	return energies
}
