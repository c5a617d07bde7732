package vqe

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

// MinimizeSettings are the settings of a minimization.
type MinimizeSettings struct {
	MaxIterations int
	Tol           float64
	// Callback is called after each iteration with the best point so far.
	Callback func(x []float64, f float64)
}

// MinimizeResult is the result of a minimization.
type MinimizeResult struct {
	X      []float64
	F      float64
	Status Status
}

// Minimizer minimizes an objective function.
// A minimizer stops and returns the error of the objective as soon as it fails.
type Minimizer interface {
	Minimize(ctx context.Context, f func([]float64) (float64, error), x0 []float64, settings MinimizeSettings) (MinimizeResult, error)
}

// NelderMead is the Nelder-Mead simplex minimizer.
type NelderMead struct {
	// Stall is the number of iterations without an improvement of Tol after which the minimizer converges.
	// Zero means 50.
	Stall int
	// SimplexSize is the size of the initial simplex.
	// Zero means 0.05.
	SimplexSize float64
}

// Minimize minimizes f starting from x0.
func (nm NelderMead) Minimize(ctx context.Context, f func([]float64) (float64, error), x0 []float64, settings MinimizeSettings) (MinimizeResult, error) {
	stall := nm.Stall
	if stall <= 0 {
		stall = 50
	}
	simplexSize := nm.SimplexSize
	if simplexSize <= 0 {
		simplexSize = 0.05
	}

	fail := &failure{}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if fail.get() != nil {
				return math.Inf(1)
			}
			v, err := f(x)
			if err != nil {
				fail.set(err)
				return math.Inf(1)
			}
			return v
		},
		Status: func() (optimize.Status, error) {
			if err := fail.get(); err != nil {
				return optimize.Failure, err
			}
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	optSettings := &optimize.Settings{
		MajorIterations: settings.MaxIterations,
		Converger:       &optimize.FunctionConverge{Absolute: settings.Tol, Iterations: stall},
		Recorder:        &recorder{callback: settings.Callback},
	}
	method := &optimize.NelderMead{SimplexSize: simplexSize}

	res, err := optimize.Minimize(problem, slices.Clone(x0), optSettings, method)
	if ferr := fail.get(); ferr != nil {
		return MinimizeResult{}, errors.Wrap(ferr, "")
	}
	if err := ctx.Err(); err != nil {
		return MinimizeResult{}, errors.Wrap(err, "")
	}
	if err != nil {
		return MinimizeResult{}, errors.Wrap(err, "")
	}

	mr := MinimizeResult{X: res.X, F: res.F}
	switch res.Status {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold, optimize.StepConvergence, optimize.FunctionThreshold, optimize.MethodConverge:
		mr.Status = StatusConverged
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		mr.Status = StatusMaxIterations
	default:
		return MinimizeResult{}, errors.Errorf("minimizer status %v", res.Status)
	}
	return mr, nil
}

type failure struct {
	sync.Mutex
	err error
}

func (f *failure) get() error {
	f.Lock()
	defer f.Unlock()
	return f.err
}

func (f *failure) set(err error) {
	f.Lock()
	defer f.Unlock()
	if f.err == nil {
		f.err = err
	}
}

type recorder struct {
	callback func(x []float64, f float64)
}

func (r *recorder) Init() error { return nil }

func (r *recorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op != optimize.MajorIteration || r.callback == nil {
		return nil
	}
	r.callback(loc.X, loc.F)
	return nil
}
