package vqe

import (
	"slices"
)

// Status is how a successful run terminated.
type Status string

const (
	StatusConverged     Status = "converged"
	StatusMaxIterations Status = "max_iterations"
	StatusFailed        Status = "failed"
)

// RunOptions are options of a driver run.
type RunOptions struct {
	maxIterations     int
	tol               float64
	initialState      []complex128
	initialParameters []float64
}

// NewRunOptions returns the default run options.
func NewRunOptions() RunOptions {
	opt := RunOptions{}
	opt.tol = 1e-8
	return opt
}

// MaxIterations sets the maximum iterations of the minimizer.
// Zero means 100 times the number of elements.
func (opt RunOptions) MaxIterations(i int) RunOptions {
	opt.maxIterations = i
	return opt
}

// Tol sets the energy change below which the minimizer is considered converged.
func (opt RunOptions) Tol(tol float64) RunOptions {
	opt.tol = tol
	return opt
}

// InitialState sets the state the circuit is applied to, instead of Hartree-Fock.
func (opt RunOptions) InitialState(state []complex128) RunOptions {
	opt.initialState = slices.Clone(state)
	return opt
}

// InitialParameters sets the starting point of the minimizer, instead of the current parameters of the driver.
func (opt RunOptions) InitialParameters(params []float64) RunOptions {
	opt.initialParameters = slices.Clone(params)
	return opt
}

// Result is the result of a run.
type Result struct {
	Parameters []float64
	Energy     float64
	Status     Status
	// Iterations is the number of minimizer iterations.
	Iterations int
	// Evaluations is the number of backend evaluations, including the initial and final ones.
	Evaluations int
	Trace       Trace
}
