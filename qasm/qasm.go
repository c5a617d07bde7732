// Package qasm builds sequences of primitive gate instructions.
//
// Instructions are records of a gate kind, its numeric parameters and its target qubits.
// They are rendered to text only at the boundary, one instruction per line:
//
//	partial_exchange(0.25) 1, 2
//	phase_flip 2, 3
package qasm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the kind of a primitive gate.
type Kind string

const (
	H  Kind = "h"
	X  Kind = "x"
	RX Kind = "rx"
	RY Kind = "ry"
	RZ Kind = "rz"
	CX Kind = "cx"
	// CCX is the Toffoli gate, with the target being the last qubit.
	CCX Kind = "ccx"
	// PhaseFlip is the two qubit controlled-Z gate.
	PhaseFlip Kind = "phase_flip"
	// PartialExchange rotates the occupation between two qubits by an angle.
	// It acts as identity on |00> and |11>, and as the rotation
	//
	//	|10> -> cos(angle)|10> + sin(angle)|01>
	//	|01> -> cos(angle)|01> - sin(angle)|10>
	//
	// where the first digit is the first qubit.
	PartialExchange Kind = "partial_exchange"
)

var (
	arity = map[Kind][2]int{
		H:               {0, 1},
		X:               {0, 1},
		RX:              {1, 1},
		RY:              {1, 1},
		RZ:              {1, 1},
		CX:              {0, 2},
		CCX:             {0, 3},
		PhaseFlip:       {0, 2},
		PartialExchange: {1, 2},
	}
)

// Arity returns the number of parameters and the number of qubits of a gate kind.
func (k Kind) Arity() (int, int, bool) {
	a, ok := arity[k]
	return a[0], a[1], ok
}

// Instruction is a single primitive gate.
type Instruction struct {
	Kind   Kind
	Params []float64
	Qubits []int
}

// Validate checks the number of parameters and qubits, and that qubits are distinct and non-negative.
func (ins Instruction) Validate() error {
	np, nq, ok := ins.Kind.Arity()
	if !ok {
		return errors.Errorf("unknown gate %q", ins.Kind)
	}
	if len(ins.Params) != np || len(ins.Qubits) != nq {
		return errors.Errorf("%s: %d params %d qubits, expected %d %d", ins.Kind, len(ins.Params), len(ins.Qubits), np, nq)
	}
	for i, q := range ins.Qubits {
		if q < 0 {
			return errors.Errorf("%s: negative qubit %d", ins.Kind, q)
		}
		for _, p := range ins.Qubits[:i] {
			if p == q {
				return errors.Errorf("%s: repeated qubit %d", ins.Kind, q)
			}
		}
	}
	return nil
}

func (ins Instruction) String() string {
	var b strings.Builder
	b.WriteString(string(ins.Kind))
	if len(ins.Params) > 0 {
		b.WriteByte('(')
		for i, p := range ins.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatFloat(p))
		}
		b.WriteByte(')')
	}
	for i, q := range ins.Qubits {
		switch i {
		case 0:
			b.WriteByte(' ')
		default:
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(q))
	}
	return b.String()
}

// Render renders instructions to text, each terminated by a newline.
func Render(instructions []Instruction) string {
	var b strings.Builder
	for _, ins := range instructions {
		b.WriteString(ins.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Count returns the number of instructions of each kind.
func Count(instructions []Instruction) map[Kind]int {
	counter := make(map[Kind]int)
	for _, ins := range instructions {
		counter[ins.Kind]++
	}
	return counter
}

// NumQubits returns one plus the largest qubit index referenced.
func NumQubits(instructions []Instruction) int {
	n := 0
	for _, ins := range instructions {
		for _, q := range ins.Qubits {
			n = max(n, q+1)
		}
	}
	return n
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
