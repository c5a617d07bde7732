package vqe

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/vqe/ansatz"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// quadratic is a backend whose energy is the squared distance of the parameters to a target.
type quadratic struct {
	target []float64
	// failAt fails the failAt-th evaluation, if positive.
	failAt int
	// withState returns a one amplitude state holding the energy.
	withState bool

	mu       sync.Mutex
	requests []Request
}

func (b *quadratic) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	if b.failAt > 0 && len(b.requests) >= b.failAt {
		return Evaluation{}, errors.Errorf("device offline")
	}

	var e float64
	for i, p := range req.Parameters {
		e += (p - b.target[i]) * (p - b.target[i])
	}
	ev := Evaluation{Energy: e - 1, GateCounter: qasm.Count(req.Circuit)}
	if b.withState {
		ev.State = []complex128{complex(ev.Energy, 0)}
	}
	return ev, nil
}

func (b *quadratic) numRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

type countingMetrics struct {
	mu          sync.Mutex
	evaluations int
	iterations  int
	done        []Status
}

func (m *countingMetrics) Evaluation(string, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations++
}

func (m *countingMetrics) Iteration(string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iterations++
}

func (m *countingMetrics) Done(_ string, _ float64, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = append(m.done, s)
}

func exchanges(t *testing.T, pairs ...[2]int) []ansatz.Element {
	elements := make([]ansatz.Element, 0, len(pairs))
	for _, p := range pairs {
		g, err := ansatz.NewGates(ansatz.SingleExchange{A: p[0], B: p[1]})
		require.NoError(t, err)
		elements = append(elements, g)
	}
	return elements
}

func TestSplit(t *testing.T) {
	t.Parallel()
	hea, err := ansatz.HardwareEfficient{NumQubits: 3, Layers: 1}.Elements()
	require.NoError(t, err)
	elements := append(exchanges(t, [2]int{0, 1}), hea...)
	elements = append(elements, exchanges(t, [2]int{1, 2})...)

	split, err := Split(elements, []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1}, {2, 3, 4}, {5}}, split)

	_, err = Split(elements, []float64{1, 2, 3, 4})
	require.True(t, errors.Is(err, ansatz.ErrParameterCountMismatch), "%v", err)

	circuit, err := Circuit(elements, []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	require.Len(t, circuit, 1+5+1)
	require.Equal(t, qasm.PartialExchange, circuit[0].Kind)
	require.Equal(t, []float64{5}, circuit[len(circuit)-1].Params)
}

func TestDriverEnergy(t *testing.T) {
	t.Parallel()
	b := &quadratic{target: []float64{1, 2}}
	d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}, [2]int{1, 2}), b, Config{NumQubits: 3, NumElectrons: 1})
	require.NoError(t, err)
	require.Equal(t, StateInitialized, d.State())
	require.Equal(t, []float64{0, 0}, d.Parameters())

	_, err = d.Energy(context.Background(), []float64{1})
	require.True(t, errors.Is(err, ansatz.ErrParameterCountMismatch), "%v", err)
	require.Equal(t, 0, b.numRequests())

	e, err := d.Energy(context.Background(), []float64{1, 1})
	require.NoError(t, err)
	require.Equal(t, 0., e)
	require.Equal(t, StateInitialized, d.State())
	require.Nil(t, d.Vector())

	req := b.requests[0]
	require.Equal(t, []float64{1, 1}, req.Parameters)
	require.Equal(t, 3, req.NumQubits)
	require.Equal(t, 1, req.NumElectrons)
	require.Len(t, req.Elements, 2)
	require.Equal(t, "partial_exchange(1) 0, 1\npartial_exchange(1) 1, 2\n", qasm.Render(req.Circuit))
}

func TestDriverEnergyRepeat(t *testing.T) {
	t.Parallel()
	b := &quadratic{target: []float64{1, 2}, withState: true}
	d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}, [2]int{1, 2}), b, Config{NumQubits: 3})
	require.NoError(t, err)

	p := []float64{0.5, 0.25}
	e1, err := d.Energy(context.Background(), p)
	require.NoError(t, err)
	e2, err := d.Energy(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, e1, e2)
	require.Equal(t, []complex128{complex(e1, 0)}, d.Vector())

	e3, err := d.Energy(context.Background(), []float64{1, 2})
	require.NoError(t, err)
	require.Equal(t, -1., e3)
	require.Equal(t, -1., d.LastEnergy())
	require.Equal(t, []complex128{-1}, d.Vector())
	require.Equal(t, 3, d.Evaluations())
	require.Equal(t, StateInitialized, d.State())
}

func TestDriverRunTwice(t *testing.T) {
	t.Parallel()
	target := []float64{0.3, -0.2}
	b := &quadratic{target: target}
	d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}, [2]int{1, 2}), b, Config{})
	require.NoError(t, err)

	_, err = d.Run(context.Background(), NewRunOptions().MaxIterations(1000))
	require.NoError(t, err)
	require.True(t, floats.EqualApprox(target, d.Parameters(), 1e-2), "%v, expected %v", d.Parameters(), target)
	require.Equal(t, StateConverged, d.State())

	first := b.numRequests()
	_, err = d.Energy(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, StateConverged, d.State())

	_, err = d.Run(context.Background(), NewRunOptions().MaxIterations(1000))
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, b.requests[first+1].Parameters)
}

func TestNewErrors(t *testing.T) {
	t.Parallel()
	b := &quadratic{}
	tests := []struct {
		hamiltonian *pauli.Operator
		backend     Backend
		cfg         Config
	}{
		{hamiltonian: nil, backend: b},
		{hamiltonian: pauli.Single(1, pauli.Z, 0), backend: nil},
		{hamiltonian: pauli.Single(1, pauli.Z, 3), backend: b, cfg: Config{NumQubits: 2}},
		{hamiltonian: pauli.Single(1, pauli.Z, 0), backend: b, cfg: Config{NumQubits: 2, NumElectrons: 3}},
	}
	for i, test := range tests {
		_, err := New(test.hamiltonian, nil, test.backend, test.cfg)
		require.Error(t, err, "%d", i)
	}
}

func TestDriverRun(t *testing.T) {
	t.Parallel()
	target := []float64{0.3, -0.2, 0.1}
	b := &quadratic{target: target}
	m := &countingMetrics{}
	d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}), b, Config{Name: "quadratic", Metrics: m, NumQubits: 4})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), NewRunOptions().MaxIterations(1000))
	require.NoError(t, err)
	require.Equal(t, StatusConverged, res.Status)
	require.Equal(t, StateConverged, d.State())
	require.InDelta(t, -1, res.Energy, 1e-6)
	require.True(t, floats.EqualApprox(target, res.Parameters, 1e-2), "%v, expected %v", res.Parameters, target)
	require.Equal(t, res.Parameters, d.Parameters())

	// The initial energy at zero parameters.
	initial := floats.Dot(target, target) - 1
	require.LessOrEqual(t, res.Energy, initial)

	require.Equal(t, res.Iterations, res.Trace.Len())
	require.Greater(t, res.Iterations, 0)
	previous := initial
	for i, it := range res.Trace.Iterations {
		require.Equal(t, i+1, it.Index)
		require.InDelta(t, it.Energy-previous, it.Delta, 1e-15)
		previous = it.Energy
	}
	require.Equal(t, b.numRequests(), res.Evaluations)
	require.Equal(t, res.Evaluations, m.evaluations)
	require.Equal(t, res.Iterations, m.iterations)
	require.Equal(t, []Status{StatusConverged}, m.done)
}

func TestDriverRunMaxIterations(t *testing.T) {
	t.Parallel()
	b := &quadratic{target: []float64{1, 1}}
	d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}, [2]int{1, 2}), b, Config{})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), NewRunOptions().MaxIterations(3))
	require.NoError(t, err)
	require.Equal(t, StatusMaxIterations, res.Status)
	require.Equal(t, StateMaxIterationsReached, d.State())
	require.LessOrEqual(t, res.Iterations, 3)
	require.LessOrEqual(t, res.Energy, 1.)
}

func TestDriverRunInitialParameters(t *testing.T) {
	t.Parallel()
	b := &quadratic{target: []float64{0.5}}
	d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}), b, Config{})
	require.NoError(t, err)

	_, err = d.Run(context.Background(), NewRunOptions().InitialParameters([]float64{1, 2}))
	require.True(t, errors.Is(err, ansatz.ErrParameterCountMismatch), "%v", err)

	state := []complex128{0, 1, 0, 0}
	_, err = d.Run(context.Background(), NewRunOptions().InitialParameters([]float64{0.5}).InitialState(state))
	require.NoError(t, err)
	require.Equal(t, []float64{0.5}, b.requests[0].Parameters)
	for _, req := range b.requests {
		require.Equal(t, state, req.InitialState)
	}
}

func TestDriverRunBackendFailure(t *testing.T) {
	t.Parallel()
	for _, failAt := range []int{1, 5} {
		t.Run(fmt.Sprintf("%d", failAt), func(t *testing.T) {
			t.Parallel()
			b := &quadratic{target: []float64{1, 1}, failAt: failAt}
			m := &countingMetrics{}
			d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}, [2]int{1, 2}), b, Config{Metrics: m})
			require.NoError(t, err)

			_, err = d.Run(context.Background())
			require.True(t, errors.Is(err, ErrBackendEvaluation), "%v", err)
			require.Equal(t, StateFailed, d.State())
			require.Equal(t, []Status{StatusFailed}, m.done)
			// No retries.
			require.Equal(t, failAt, b.numRequests())
		})
	}
}

func TestDriverRunCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := New(pauli.Single(1, pauli.Z, 0), exchanges(t, [2]int{0, 1}), &canceling{}, Config{})
	require.NoError(t, err)

	_, err = d.Run(ctx)
	require.True(t, errors.Is(err, context.Canceled), "%v", err)
	require.Equal(t, StateFailed, d.State())
}

type canceling struct{}

func (canceling) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, errors.Wrap(err, "")
	}
	return Evaluation{}, nil
}

func TestDriverRunNoElements(t *testing.T) {
	t.Parallel()
	b := &quadratic{}
	d, err := New(pauli.Single(1, pauli.Z, 0), nil, b, Config{})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusConverged, res.Status)
	require.Equal(t, -1., res.Energy)
	require.Equal(t, 0, res.Iterations)
	require.Equal(t, 2, res.Evaluations)
}

func TestScreen(t *testing.T) {
	t.Parallel()
	b := &quadratic{target: []float64{0.1, 0.2}, failAt: math.MaxInt}
	candidates := []Candidate{
		{Name: "one", Elements: exchanges(t, [2]int{0, 1}), Options: NewRunOptions()},
		{Name: "two", Elements: exchanges(t, [2]int{0, 1}, [2]int{1, 2}), Options: NewRunOptions()},
		{Name: "mismatch", Elements: exchanges(t, [2]int{0, 1}), Options: NewRunOptions().InitialParameters([]float64{1, 2})},
	}
	results, err := Screen(context.Background(), pauli.Single(1, pauli.Z, 0), b, Config{NumQubits: 3}, candidates, 2)
	require.NoError(t, err)
	require.Len(t, results, len(candidates))
	for i, r := range results {
		require.Equal(t, candidates[i].Name, r.Name)
	}
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	require.True(t, errors.Is(results[2].Err, ansatz.ErrParameterCountMismatch), "%v", results[2].Err)
	require.InDelta(t, -1, results[0].Result.Energy, 1e-6)
	require.InDelta(t, 0.1, results[0].Result.Parameters[0], 1e-2)
	require.InDelta(t, -1, results[1].Result.Energy, 1e-6)
}
