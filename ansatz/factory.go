package ansatz

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/fumin/vqe/fermion"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
)

// OperatorFactory builds excitation elements out of fermionic generators.
// The zero value maps generators with the Jordan-Wigner transform and synthesizes them with PauliExponential.
type OperatorFactory struct {
	Transform   Transform
	Synthesizer ExcitationSynthesizer
	// NumQubits bounds the modes of excitations, if positive.
	NumQubits int
}

// SingleExcitation returns the element generated by a_j^ a_i - a_i^ a_j.
func (f OperatorFactory) SingleExcitation(i, j int) (*Excitation, error) {
	if err := f.checkBound(i, j); err != nil {
		return nil, errors.Wrap(err, "")
	}
	op, err := fermion.SingleExcitation(i, j)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	e, err := NewExcitation(fmt.Sprintf("single_excitation %d, %d", i, j), op, f.Transform, f.Synthesizer)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return e, nil
}

// DoubleExcitation returns the element generated by a_k^ a_l^ a_i a_j - a_i^ a_j^ a_k a_l, where p1 = (i, j) and p2 = (k, l).
func (f OperatorFactory) DoubleExcitation(p1, p2 [2]int) (*Excitation, error) {
	if err := f.checkBound(p1[0], p1[1], p2[0], p2[1]); err != nil {
		return nil, errors.Wrap(err, "")
	}
	op, err := fermion.DoubleExcitation(p1, p2)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	e, err := NewExcitation(fmt.Sprintf("double_excitation %v, %v", p1, p2), op, f.Transform, f.Synthesizer)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return e, nil
}

func (f OperatorFactory) checkBound(modes ...int) error {
	if f.NumQubits <= 0 {
		return nil
	}
	for _, m := range modes {
		if m >= f.NumQubits {
			return errors.Wrap(fermion.ErrInvalidExcitationIndices, fmt.Sprintf("mode %d out of %d qubits", m, f.NumQubits))
		}
	}
	return nil
}

// PauliExponential returns the instructions of exp(theta G) for a generator G with imaginary coefficients,
// as the product of the exponentials of its terms.
// The product is exact when the terms commute, which is the case for Jordan-Wigner mapped excitations.
func PauliExponential(g *pauli.Operator, theta float64) ([]qasm.Instruction, error) {
	b := qasm.NewBuilder()
	for _, t := range g.Terms() {
		if math.Abs(real(t.Coeff)) > 1e-12 {
			return nil, errors.Errorf("coefficient %v of %s is not imaginary", t.Coeff, t.String)
		}
		if len(t.String) == 0 {
			// A global phase.
			continue
		}
		// exp(i phi P)
		phi := theta * imag(t.Coeff)
		for _, f := range t.String {
			switch f.Op {
			case pauli.X:
				b.H(f.Qubit)
			case pauli.Y:
				b.RX(math.Pi/2, f.Qubit)
			}
		}
		for i := 0; i < len(t.String)-1; i++ {
			b.CX(t.String[i].Qubit, t.String[i+1].Qubit)
		}
		b.RZ(-2*phi, t.String[len(t.String)-1].Qubit)
		for i := len(t.String) - 2; i >= 0; i-- {
			b.CX(t.String[i].Qubit, t.String[i+1].Qubit)
		}
		for _, f := range t.String {
			switch f.Op {
			case pauli.X:
				b.H(f.Qubit)
			case pauli.Y:
				b.RX(-math.Pi/2, f.Qubit)
			}
		}
	}
	return b.Instructions(), nil
}
