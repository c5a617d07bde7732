// Package vqe minimizes the energy of a Hamiltonian over the parameters of an ansatz.
package vqe

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/vqe/ansatz"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
)

var (
	// ErrBackendEvaluation is matched by errors returned when a backend fails to evaluate an energy.
	ErrBackendEvaluation = errors.New("backend evaluation")
)

// BackendError is a failure of a backend evaluation.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("%v: %v", ErrBackendEvaluation, e.Err) }

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackendEvaluation }

// State is the lifecycle state of a driver.
type State string

const (
	StateInitialized          State = "initialized"
	StateEvaluating           State = "evaluating"
	StateConverged            State = "converged"
	StateMaxIterationsReached State = "max_iterations_reached"
	StateFailed               State = "failed"
)

// Metrics receives driver events.
type Metrics interface {
	Evaluation(name string, elapsed time.Duration, err error)
	Iteration(name string, energy float64)
	Done(name string, energy float64, status Status)
}

type nopMetrics struct{}

func (nopMetrics) Evaluation(string, time.Duration, error) {}
func (nopMetrics) Iteration(string, float64)               {}
func (nopMetrics) Done(string, float64, Status)            {}

// Config configures a driver.
type Config struct {
	// Name identifies the molecule or model in logs and metrics.
	Name string
	// NumQubits defaults to the number of qubits of the Hamiltonian.
	NumQubits    int
	NumElectrons int

	Logger    *zap.Logger
	Minimizer Minimizer
	Metrics   Metrics
}

// Driver evaluates and minimizes the energy of a Hamiltonian over the parameters of a list of ansatz elements.
// A driver is not safe for concurrent use.
type Driver struct {
	hamiltonian *pauli.Operator
	elements    []ansatz.Element
	backend     Backend
	cfg         Config

	params      []float64
	energy      float64
	vector      []complex128
	state       State
	evaluations int
}

// New returns a driver whose parameters are all zero.
func New(hamiltonian *pauli.Operator, elements []ansatz.Element, backend Backend, cfg Config) (*Driver, error) {
	if hamiltonian == nil {
		return nil, errors.Errorf("no hamiltonian")
	}
	if backend == nil {
		return nil, errors.Errorf("no backend")
	}
	if cfg.NumQubits == 0 {
		cfg.NumQubits = hamiltonian.NumQubits()
	}
	if n := hamiltonian.NumQubits(); n > cfg.NumQubits {
		return nil, errors.Errorf("hamiltonian acts on %d qubits, expected at most %d", n, cfg.NumQubits)
	}
	if cfg.NumElectrons < 0 || cfg.NumElectrons > cfg.NumQubits {
		return nil, errors.Errorf("%d electrons %d qubits", cfg.NumElectrons, cfg.NumQubits)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Minimizer == nil {
		cfg.Minimizer = NelderMead{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	d := &Driver{
		hamiltonian: hamiltonian,
		elements:    slices.Clone(elements),
		backend:     backend,
		cfg:         cfg,
		params:      make([]float64, ansatz.NumParameters(elements)),
		state:       StateInitialized,
	}
	return d, nil
}

// State returns the lifecycle state of the driver.
func (d *Driver) State() State { return d.state }

// Parameters returns the parameters of the latest run, or zeros before any run.
func (d *Driver) Parameters() []float64 { return slices.Clone(d.params) }

// Vector returns the state vector of the latest evaluation, or nil if the backend did not return one.
func (d *Driver) Vector() []complex128 { return d.vector }

// LastEnergy returns the energy of the latest evaluation.
func (d *Driver) LastEnergy() float64 { return d.energy }

// Evaluations returns the number of backend evaluations made so far.
func (d *Driver) Evaluations() int { return d.evaluations }

// Energy evaluates the energy at params.
// The driver is left in its previous state unless the backend fails.
func (d *Driver) Energy(ctx context.Context, params []float64) (float64, error) {
	state := d.state
	e, err := d.evaluate(ctx, params, nil)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	d.state = state
	return e, nil
}

func (d *Driver) evaluate(ctx context.Context, params []float64, initialState []complex128) (float64, error) {
	circuit, err := Circuit(d.elements, params)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}

	d.state = StateEvaluating
	req := Request{
		Parameters:   slices.Clone(params),
		Hamiltonian:  d.hamiltonian,
		Elements:     d.elements,
		Circuit:      circuit,
		NumQubits:    d.cfg.NumQubits,
		NumElectrons: d.cfg.NumElectrons,
		InitialState: initialState,
	}
	start := time.Now()
	ev, err := d.backend.Evaluate(ctx, req)
	d.cfg.Metrics.Evaluation(d.cfg.Name, time.Since(start), err)
	d.evaluations++
	if err != nil {
		d.state = StateFailed
		return 0, errors.WithStack(&BackendError{Err: err})
	}

	if len(ev.State) > 0 {
		d.vector = ev.State
	}
	d.energy = ev.Energy
	return ev.Energy, nil
}

// Run minimizes the energy starting from the zero vector, or from RunOptions.InitialParameters.
// The optimum is kept as the driver's parameters.
func (d *Driver) Run(ctx context.Context, options ...RunOptions) (Result, error) {
	opt := NewRunOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	maxIterations := opt.maxIterations
	if maxIterations <= 0 {
		maxIterations = 100 * max(1, len(d.elements))
	}
	x0 := make([]float64, len(d.params))
	if opt.initialParameters != nil {
		if len(opt.initialParameters) != len(d.params) {
			return Result{}, errors.Wrap(ansatz.ErrParameterCountMismatch, fmt.Sprintf("%d initial parameters, expected %d", len(opt.initialParameters), len(d.params)))
		}
		x0 = slices.Clone(opt.initialParameters)
	}
	logger := d.cfg.Logger.With(zap.String("name", d.cfg.Name))
	logger.Info("run", zap.Int("electrons", d.cfg.NumElectrons), zap.Int("qubits", d.cfg.NumQubits), zap.Int("elements", len(d.elements)), zap.Int("parameters", len(x0)), zap.String("backend", backendName(d.backend)))

	trace := &Trace{}
	evaluations := d.evaluations
	initial, err := d.evaluate(ctx, x0, opt.initialState)
	if err != nil {
		return d.fail(logger, errors.Wrap(err, "initial energy"))
	}
	logger.Info("initial energy", zap.Float64("energy", initial))

	previous := initial
	start := time.Now()
	callback := func(x []float64, energy float64) {
		it := trace.add(energy, previous, time.Since(start))
		logger.Info("iteration", zap.Int("iteration", it.Index), zap.Float64("energy", energy), zap.Float64("previous", previous), zap.Float64("delta", it.Delta), zap.Duration("elapsed", it.Duration), zap.Float64("norm", floats.Norm(x, 2)))
		d.cfg.Metrics.Iteration(d.cfg.Name, energy)
		previous = energy
		start = time.Now()
	}
	objective := func(x []float64) (float64, error) { return d.evaluate(ctx, x, opt.initialState) }

	mr := MinimizeResult{X: x0, F: initial, Status: StatusConverged}
	if len(x0) > 0 {
		mr, err = d.cfg.Minimizer.Minimize(ctx, objective, x0, MinimizeSettings{MaxIterations: maxIterations, Tol: opt.tol, Callback: callback})
		if err != nil {
			return d.fail(logger, errors.Wrap(err, ""))
		}
	}

	// Leave the driver at the best point found.
	energy, err := d.evaluate(ctx, mr.X, opt.initialState)
	if err != nil {
		return d.fail(logger, errors.Wrap(err, "final energy"))
	}
	d.params = slices.Clone(mr.X)
	switch mr.Status {
	case StatusMaxIterations:
		d.state = StateMaxIterationsReached
	default:
		d.state = StateConverged
	}

	res := Result{
		Parameters:  slices.Clone(mr.X),
		Energy:      energy,
		Status:      mr.Status,
		Iterations:  trace.Len(),
		Evaluations: d.evaluations - evaluations,
		Trace:       *trace,
	}
	logger.Info("done", zap.Float64("energy", energy), zap.String("status", string(res.Status)), zap.Int("iterations", res.Iterations), zap.Int("evaluations", res.Evaluations))
	d.cfg.Metrics.Done(d.cfg.Name, energy, res.Status)
	return res, nil
}

func (d *Driver) fail(logger *zap.Logger, err error) (Result, error) {
	d.state = StateFailed
	logger.Error("failed", zap.Error(err))
	d.cfg.Metrics.Done(d.cfg.Name, d.energy, StatusFailed)
	return Result{}, err
}

func backendName(b Backend) string {
	if n, ok := b.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", b)
}

// Split splits params into consecutive slices, one per element, sized by their parameter counts.
func Split(elements []ansatz.Element, params []float64) ([][]float64, error) {
	if n := ansatz.NumParameters(elements); len(params) != n {
		return nil, errors.Wrap(ansatz.ErrParameterCountMismatch, fmt.Sprintf("%d parameters, expected %d", len(params), n))
	}
	split := make([][]float64, 0, len(elements))
	for _, e := range elements {
		n := e.ParameterCount()
		split = append(split, params[:n:n])
		params = params[n:]
	}
	return split, nil
}

// Circuit concatenates the instructions of elements in order.
func Circuit(elements []ansatz.Element, params []float64) ([]qasm.Instruction, error) {
	split, err := Split(elements, params)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	circuit := make([]qasm.Instruction, 0)
	for i, e := range elements {
		ins, err := e.Instructions(split[i])
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%d %s", i, e))
		}
		circuit = append(circuit, ins...)
	}
	return circuit, nil
}
