// Package pauli implements qubit operators as weighted sums of Pauli strings.
package pauli

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pauli is a single qubit Pauli matrix.
type Pauli byte

const (
	I Pauli = 'I'
	X Pauli = 'X'
	Y Pauli = 'Y'
	Z Pauli = 'Z'
)

// mul returns the product ab = phase * c.
func mul(a, b Pauli) (complex128, Pauli) {
	switch {
	case a == I:
		return 1, b
	case b == I:
		return 1, a
	case a == b:
		return 1, I
	}
	switch [2]Pauli{a, b} {
	case [2]Pauli{X, Y}:
		return 1i, Z
	case [2]Pauli{Y, Z}:
		return 1i, X
	case [2]Pauli{Z, X}:
		return 1i, Y
	case [2]Pauli{Y, X}:
		return -1i, Z
	case [2]Pauli{Z, Y}:
		return -1i, X
	default: // X Z
		return -1i, Y
	}
}

// Factor is a Pauli matrix acting on a qubit.
type Factor struct {
	Qubit int
	Op    Pauli
}

// String is a tensor product of non-identity Pauli matrices sorted by qubit.
// The empty string is the identity.
type String []Factor

var (
	factorRegex = regexp.MustCompile(`^([XYZ])(\d+)$`)
)

// ParseString parses strings such as "X0 Y1 Z3".
// The empty string and "I" denote the identity.
func ParseString(s string) (String, error) {
	fields := strings.Fields(s)
	if len(fields) == 1 && fields[0] == "I" {
		return String{}, nil
	}
	ps := make(String, 0, len(fields))
	for _, f := range fields {
		m := factorRegex.FindStringSubmatch(strings.ToUpper(f))
		if m == nil {
			return nil, errors.Errorf("%q", f)
		}
		q, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, errors.Wrap(err, f)
		}
		ps = append(ps, Factor{Qubit: q, Op: Pauli(m[1][0])})
	}
	return NewString(ps...)
}

// NewString returns the product of factors acting on distinct qubits.
func NewString(factors ...Factor) (String, error) {
	ps := make(String, 0, len(factors))
	for _, f := range factors {
		if f.Qubit < 0 {
			return nil, errors.Errorf("negative qubit %d", f.Qubit)
		}
		if f.Op == I {
			continue
		}
		ps = append(ps, f)
	}
	slices.SortFunc(ps, func(a, b Factor) int { return cmp.Compare(a.Qubit, b.Qubit) })
	for i := 1; i < len(ps); i++ {
		if ps[i].Qubit == ps[i-1].Qubit {
			return nil, errors.Errorf("repeated qubit %d", ps[i].Qubit)
		}
	}
	return ps, nil
}

// Mul returns the product sb = phase * p.
func (s String) Mul(b String) (complex128, String) {
	var phase complex128 = 1
	p := make(String, 0, len(s)+len(b))
	i, j := 0, 0
	for i < len(s) || j < len(b) {
		switch {
		case j == len(b) || (i < len(s) && s[i].Qubit < b[j].Qubit):
			p = append(p, s[i])
			i++
		case i == len(s) || b[j].Qubit < s[i].Qubit:
			p = append(p, b[j])
			j++
		default:
			ph, op := mul(s[i].Op, b[j].Op)
			phase *= ph
			if op != I {
				p = append(p, Factor{Qubit: s[i].Qubit, Op: op})
			}
			i++
			j++
		}
	}
	return phase, p
}

// Op returns the Pauli matrix on qubit q.
func (s String) Op(q int) Pauli {
	i, ok := slices.BinarySearchFunc(s, q, func(f Factor, q int) int { return cmp.Compare(f.Qubit, q) })
	if !ok {
		return I
	}
	return s[i].Op
}

// Masks returns the bit masks of the qubits acted on by X or Y, and by Z or Y.
func (s String) Masks() (flip, phase uint64) {
	for _, f := range s {
		switch f.Op {
		case X:
			flip |= 1 << f.Qubit
		case Y:
			flip |= 1 << f.Qubit
			phase |= 1 << f.Qubit
		case Z:
			phase |= 1 << f.Qubit
		}
	}
	return flip, phase
}

func (s String) String() string {
	if len(s) == 0 {
		return "I"
	}
	fs := make([]string, 0, len(s))
	for _, f := range s {
		fs = append(fs, string(f.Op)+strconv.Itoa(f.Qubit))
	}
	return strings.Join(fs, " ")
}

func (s String) compare(b String) int {
	if c := cmp.Compare(len(s), len(b)); c != 0 {
		return c
	}
	for i := range s {
		if c := cmp.Compare(s[i].Qubit, b[i].Qubit); c != 0 {
			return c
		}
		if c := cmp.Compare(s[i].Op, b[i].Op); c != 0 {
			return c
		}
	}
	return 0
}
