package sim

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"

	"github.com/fumin/vqe/qasm"
)

// Apply applies an instruction to a state vector in place, where qubit q is bit q of the basis index.
func Apply(state []complex128, ins qasm.Instruction) error {
	if err := ins.Validate(); err != nil {
		return errors.Wrap(err, "")
	}
	for _, q := range ins.Qubits {
		if 1<<q >= len(state) {
			return errors.Errorf("%s: qubit %d out of %d amplitudes", ins, q, len(state))
		}
	}

	q := ins.Qubits
	switch ins.Kind {
	case qasm.H:
		s := complex(1/math.Sqrt2, 0)
		apply1(state, q[0], [2][2]complex128{{s, s}, {s, -s}})
	case qasm.X:
		apply1(state, q[0], [2][2]complex128{{0, 1}, {1, 0}})
	case qasm.RX:
		c, s := cosSin(ins.Params[0] / 2)
		apply1(state, q[0], [2][2]complex128{{c, -1i * s}, {-1i * s, c}})
	case qasm.RY:
		c, s := cosSin(ins.Params[0] / 2)
		apply1(state, q[0], [2][2]complex128{{c, -s}, {s, c}})
	case qasm.RZ:
		half := ins.Params[0] / 2
		apply1(state, q[0], [2][2]complex128{{cmplx.Exp(complex(0, -half)), 0}, {0, cmplx.Exp(complex(0, half))}})
	case qasm.CX:
		swap(state, q[1], []int{q[0]})
	case qasm.CCX:
		swap(state, q[2], []int{q[0], q[1]})
	case qasm.PhaseFlip:
		mask := 1<<q[0] | 1<<q[1]
		for i := range state {
			if i&mask == mask {
				state[i] = -state[i]
			}
		}
	case qasm.PartialExchange:
		c, s := cosSin(ins.Params[0])
		a, b := 1<<q[0], 1<<q[1]
		for i := range state {
			// i is |10>, j is |01>, the first digit being qubit a.
			if i&a == 0 || i&b != 0 {
				continue
			}
			j := i ^ a ^ b
			v10, v01 := state[i], state[j]
			state[i] = c*v10 - s*v01
			state[j] = s*v10 + c*v01
		}
	default:
		return errors.Errorf("unsupported gate %q", ins.Kind)
	}
	return nil
}

func cosSin(x float64) (complex128, complex128) {
	s, c := math.Sincos(x)
	return complex(c, 0), complex(s, 0)
}

// apply1 applies a single qubit unitary u to qubit q.
func apply1(state []complex128, q int, u [2][2]complex128) {
	bit := 1 << q
	for i := range state {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		a0, a1 := state[i], state[j]
		state[i] = u[0][0]*a0 + u[0][1]*a1
		state[j] = u[1][0]*a0 + u[1][1]*a1
	}
}

// swap flips the target qubit when all controls are set.
func swap(state []complex128, target int, controls []int) {
	bit := 1 << target
	mask := 0
	for _, c := range controls {
		mask |= 1 << c
	}
	for i := range state {
		if i&bit != 0 || i&mask != mask {
			continue
		}
		j := i | bit
		state[i], state[j] = state[j], state[i]
	}
}
