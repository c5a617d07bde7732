// Package sim evaluates energies by statevector simulation.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/fumin/vqe"
	"github.com/fumin/vqe/mat"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
)

const (
	// DefaultCacheSize is the number of Hamiltonian matrices kept by default.
	DefaultCacheSize = 16

	// checkEvery is the number of instructions applied between context checks.
	checkEvery = 64
)

// Backend is a noiseless statevector backend.
// It is safe for concurrent use.
type Backend struct {
	matrices *lru.Cache[string, *mat.COO]
}

// NewBackend returns a backend caching up to cacheSize Hamiltonian matrices.
func NewBackend(cacheSize int) (*Backend, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := lru.New[string, *mat.COO](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return &Backend{matrices: c}, nil
}

// MustNewBackend is like NewBackend but panics on error.
func MustNewBackend(cacheSize int) *Backend {
	b, err := NewBackend(cacheSize)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return b
}

func (b *Backend) Name() string { return "statevector" }

// Evaluate applies the circuit to the initial state and returns the expectation value of the Hamiltonian.
func (b *Backend) Evaluate(ctx context.Context, req vqe.Request) (vqe.Evaluation, error) {
	if req.Hamiltonian == nil {
		return vqe.Evaluation{}, errors.Errorf("no hamiltonian")
	}
	if req.NumQubits <= 0 || req.NumQubits > mat.MaxQubits {
		return vqe.Evaluation{}, errors.Errorf("%d qubits", req.NumQubits)
	}
	if n := qasm.NumQubits(req.Circuit); n > req.NumQubits {
		return vqe.Evaluation{}, errors.Errorf("circuit acts on %d qubits, expected at most %d", n, req.NumQubits)
	}

	var state []complex128
	switch {
	case req.InitialState != nil:
		if len(req.InitialState) != 1<<req.NumQubits {
			return vqe.Evaluation{}, errors.Errorf("initial state of length %d, expected %d", len(req.InitialState), 1<<req.NumQubits)
		}
		state = slices.Clone(req.InitialState)
	default:
		var err error
		state, err = HartreeFock(req.NumQubits, req.NumElectrons)
		if err != nil {
			return vqe.Evaluation{}, errors.Wrap(err, "")
		}
	}

	for i, ins := range req.Circuit {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return vqe.Evaluation{}, errors.Wrap(err, "")
			}
		}
		if err := Apply(state, ins); err != nil {
			return vqe.Evaluation{}, errors.Wrap(err, fmt.Sprintf("instruction %d", i))
		}
	}

	h, err := b.matrix(req.Hamiltonian, req.NumQubits)
	if err != nil {
		return vqe.Evaluation{}, errors.Wrap(err, "")
	}
	e := h.Expectation(state)
	if math.IsNaN(real(e)) || math.Abs(imag(e)) > 1e-8*max(1, cmplx.Abs(e)) {
		return vqe.Evaluation{}, errors.Errorf("energy %v", e)
	}

	return vqe.Evaluation{Energy: real(e), State: state, GateCounter: qasm.Count(req.Circuit)}, nil
}

func (b *Backend) matrix(o *pauli.Operator, numQubits int) (*mat.COO, error) {
	key := fmt.Sprintf("%d:%s", numQubits, o.Fingerprint())
	if m, ok := b.matrices.Get(key); ok {
		return m, nil
	}
	m, err := mat.FromOperator(o, numQubits)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	b.matrices.Add(key, m)
	return m, nil
}

// CachedMatrices returns the number of cached Hamiltonian matrices.
func (b *Backend) CachedMatrices() int { return b.matrices.Len() }

// HartreeFock returns the basis state with the first numElectrons qubits occupied.
func HartreeFock(numQubits, numElectrons int) ([]complex128, error) {
	if numElectrons < 0 || numElectrons > numQubits {
		return nil, errors.Errorf("%d electrons %d qubits", numElectrons, numQubits)
	}
	state := make([]complex128, 1<<numQubits)
	state[1<<numElectrons-1] = 1
	return state, nil
}

// Run applies a circuit to a copy of state.
func Run(state []complex128, circuit []qasm.Instruction) ([]complex128, error) {
	s := slices.Clone(state)
	for i, ins := range circuit {
		if err := Apply(s, ins); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("instruction %d", i))
		}
	}
	return s, nil
}
