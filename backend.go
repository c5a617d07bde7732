package vqe

import (
	"context"

	"github.com/fumin/vqe/ansatz"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
)

// Request is everything a backend needs to evaluate the energy of a parameter vector.
type Request struct {
	Parameters   []float64
	Hamiltonian  *pauli.Operator
	Elements     []ansatz.Element
	Circuit      []qasm.Instruction
	NumQubits    int
	NumElectrons int
	// InitialState overrides the Hartree-Fock state, if not nil.
	InitialState []complex128
}

// Evaluation is the result of a backend evaluation.
type Evaluation struct {
	Energy float64
	// State is the resulting state vector, or nil if the backend does not track it.
	State []complex128
	// GateCounter counts the instructions of each kind, informational only.
	GateCounter map[qasm.Kind]int
}

// Backend evaluates energies.
// Evaluate must be deterministic for fixed inputs.
type Backend interface {
	Evaluate(ctx context.Context, req Request) (Evaluation, error)
}
