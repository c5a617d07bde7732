// Package fermion implements fermionic ladder operators and their mapping onto qubits.
package fermion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/fumin/vqe/pauli"
)

var (
	ErrInvalidExcitationIndices = errors.New("invalid excitation indices")
)

// Ladder is a creation operator on a mode if Dagger is set, and an annihilation operator otherwise.
type Ladder struct {
	Mode   int
	Dagger bool
}

func (l Ladder) String() string {
	if l.Dagger {
		return strconv.Itoa(l.Mode) + "^"
	}
	return strconv.Itoa(l.Mode)
}

// Creation returns the creation operator on mode.
func Creation(mode int) Ladder { return Ladder{Mode: mode, Dagger: true} }

// Annihilation returns the annihilation operator on mode.
func Annihilation(mode int) Ladder { return Ladder{Mode: mode} }

// Term is a weighted product of ladder operators, applied right to left.
type Term struct {
	Ops   []Ladder
	Coeff complex128
}

// Operator is a sum of terms.
type Operator struct {
	Terms []Term
}

func (o Operator) String() string {
	parts := make([]string, 0, len(o.Terms))
	for _, t := range o.Terms {
		ops := make([]string, 0, len(t.Ops))
		for _, l := range t.Ops {
			ops = append(ops, l.String())
		}
		c := strconv.FormatFloat(real(t.Coeff), 'g', -1, 64)
		if imag(t.Coeff) != 0 {
			c = strconv.FormatComplex(t.Coeff, 'g', -1, 128)
		}
		parts = append(parts, fmt.Sprintf("%s [%s]", c, strings.Join(ops, " ")))
	}
	return strings.Join(parts, " + ")
}

// MaxMode returns the largest mode acted on, or -1 for an empty operator.
func (o Operator) MaxMode() int {
	m := -1
	for _, t := range o.Terms {
		for _, l := range t.Ops {
			m = max(m, l.Mode)
		}
	}
	return m
}

// SingleExcitation returns the generator a_j^ a_i - a_i^ a_j that moves an electron from mode i to mode j.
func SingleExcitation(i, j int) (Operator, error) {
	if err := checkModes(i, j); err != nil {
		return Operator{}, errors.Wrap(err, fmt.Sprintf("%d %d", i, j))
	}
	o := Operator{Terms: []Term{
		{Ops: []Ladder{Creation(j), Annihilation(i)}, Coeff: 1},
		{Ops: []Ladder{Creation(i), Annihilation(j)}, Coeff: -1},
	}}
	return o, nil
}

// DoubleExcitation returns the generator a_k^ a_l^ a_i a_j - a_i^ a_j^ a_k a_l that moves
// the electron pair p1 = (i, j) to the pair p2 = (k, l).
func DoubleExcitation(p1, p2 [2]int) (Operator, error) {
	i, j, k, l := p1[0], p1[1], p2[0], p2[1]
	if err := checkModes(i, j, k, l); err != nil {
		return Operator{}, errors.Wrap(err, fmt.Sprintf("%v %v", p1, p2))
	}
	o := Operator{Terms: []Term{
		{Ops: []Ladder{Creation(k), Creation(l), Annihilation(i), Annihilation(j)}, Coeff: 1},
		{Ops: []Ladder{Creation(i), Creation(j), Annihilation(k), Annihilation(l)}, Coeff: -1},
	}}
	return o, nil
}

func checkModes(modes ...int) error {
	for a, m := range modes {
		if m < 0 {
			return errors.Wrap(ErrInvalidExcitationIndices, fmt.Sprintf("negative mode %d", m))
		}
		for _, n := range modes[:a] {
			if n == m {
				return errors.Wrap(ErrInvalidExcitationIndices, fmt.Sprintf("repeated mode %d", m))
			}
		}
	}
	return nil
}

// JordanWigner maps a fermionic operator onto qubits with
//
//	a_j^ = (X_j - iY_j)/2 Z_{j-1} ... Z_0
//	a_j  = (X_j + iY_j)/2 Z_{j-1} ... Z_0
func JordanWigner(o Operator) (*pauli.Operator, error) {
	q := &pauli.Operator{}
	for _, t := range o.Terms {
		p := pauli.Identity(t.Coeff)
		for _, l := range t.Ops {
			if l.Mode < 0 {
				return nil, errors.Wrap(ErrInvalidExcitationIndices, fmt.Sprintf("negative mode %d", l.Mode))
			}
			p = p.Mul(ladder(l))
		}
		q = q.Add(p)
	}
	return q, nil
}

func ladder(l Ladder) *pauli.Operator {
	sign := complex(1, 0)
	if l.Dagger {
		sign = -1
	}

	parity := make(pauli.String, 0, l.Mode+1)
	for m := 0; m < l.Mode; m++ {
		parity = append(parity, pauli.Factor{Qubit: m, Op: pauli.Z})
	}
	xs := append(parity, pauli.Factor{Qubit: l.Mode, Op: pauli.X})
	ys := append(parity[:len(parity):len(parity)], pauli.Factor{Qubit: l.Mode, Op: pauli.Y})
	return pauli.NewOperator(
		pauli.Term{String: xs, Coeff: 0.5},
		pauli.Term{String: ys, Coeff: sign * 0.5i},
	)
}
