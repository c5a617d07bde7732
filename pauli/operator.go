package pauli

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Tol is the magnitude below which coefficients are dropped.
	Tol = 1e-12
)

// Term is a weighted Pauli string.
type Term struct {
	String String
	Coeff  complex128
}

// Operator is a sum of weighted Pauli strings.
// The zero value is the zero operator.
type Operator struct {
	terms map[string]Term
}

// NewOperator returns the sum of terms.
func NewOperator(terms ...Term) *Operator {
	o := &Operator{}
	for _, t := range terms {
		o.AddTerm(t.Coeff, t.String)
	}
	return o
}

// Identity returns c times the identity.
func Identity(c complex128) *Operator {
	return NewOperator(Term{String: String{}, Coeff: c})
}

// Single returns c times a single Pauli on qubit q.
func Single(c complex128, op Pauli, q int) *Operator {
	return NewOperator(Term{String: String{{Qubit: q, Op: op}}, Coeff: c})
}

// Parse parses a sum of terms such as "0.5 X0 Y1 + -0.25 Z2".
// Coefficients may be complex as in "(0+0.5i) X0".
func Parse(s string) (*Operator, error) {
	o := &Operator{}
	for _, part := range strings.Split(s, " + ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		coeffStr, strStr, _ := strings.Cut(part, " ")
		c, err := strconv.ParseComplex(coeffStr, 128)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%q", part))
		}
		ps, err := ParseString(strStr)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%q", part))
		}
		o.AddTerm(c, ps)
	}
	return o, nil
}

// AddTerm adds c times s in place.
func (o *Operator) AddTerm(c complex128, s String) *Operator {
	if o.terms == nil {
		o.terms = make(map[string]Term)
	}
	k := s.String()
	t, ok := o.terms[k]
	if !ok {
		t = Term{String: slices.Clone(s)}
	}
	t.Coeff += c
	switch {
	case cmplx.Abs(t.Coeff) < Tol:
		delete(o.terms, k)
	default:
		o.terms[k] = t
	}
	return o
}

// Len returns the number of terms.
func (o *Operator) Len() int { return len(o.terms) }

// Terms returns the terms ordered by length and then by qubits.
func (o *Operator) Terms() []Term {
	terms := make([]Term, 0, len(o.terms))
	for _, t := range o.terms {
		terms = append(terms, t)
	}
	slices.SortFunc(terms, func(a, b Term) int { return a.String.compare(b.String) })
	return terms
}

// Coeff returns the coefficient of s.
func (o *Operator) Coeff(s String) complex128 {
	return o.terms[s.String()].Coeff
}

// Clone returns a deep copy of o.
func (o *Operator) Clone() *Operator {
	c := &Operator{}
	for _, t := range o.terms {
		c.AddTerm(t.Coeff, t.String)
	}
	return c
}

// Add returns o + b.
func (o *Operator) Add(b *Operator) *Operator {
	c := o.Clone()
	for _, t := range b.terms {
		c.AddTerm(t.Coeff, t.String)
	}
	return c
}

// Sub returns o - b.
func (o *Operator) Sub(b *Operator) *Operator {
	return o.Add(b.Scale(-1))
}

// Scale returns c times o.
func (o *Operator) Scale(c complex128) *Operator {
	s := &Operator{}
	for _, t := range o.terms {
		s.AddTerm(c*t.Coeff, t.String)
	}
	return s
}

// Mul returns the product o b.
func (o *Operator) Mul(b *Operator) *Operator {
	p := &Operator{}
	for _, ta := range o.Terms() {
		for _, tb := range b.Terms() {
			phase, s := ta.String.Mul(tb.String)
			p.AddTerm(phase*ta.Coeff*tb.Coeff, s)
		}
	}
	return p
}

// Dagger returns the Hermitian conjugate of o.
func (o *Operator) Dagger() *Operator {
	d := &Operator{}
	for _, t := range o.terms {
		d.AddTerm(cmplx.Conj(t.Coeff), t.String)
	}
	return d
}

// IsHermitian reports whether all coefficients are real to within tol.
func (o *Operator) IsHermitian(tol float64) bool {
	for _, t := range o.terms {
		if math.Abs(imag(t.Coeff)) > tol {
			return false
		}
	}
	return true
}

// IsAntiHermitian reports whether all coefficients are imaginary to within tol.
func (o *Operator) IsAntiHermitian(tol float64) bool {
	for _, t := range o.terms {
		if math.Abs(real(t.Coeff)) > tol {
			return false
		}
	}
	return true
}

// MaxOrder returns the largest number of qubits acted on by a single term.
func (o *Operator) MaxOrder() int {
	n := 0
	for _, t := range o.terms {
		n = max(n, len(t.String))
	}
	return n
}

// NumQubits returns one plus the largest qubit index acted on.
func (o *Operator) NumQubits() int {
	n := 0
	for _, t := range o.terms {
		if len(t.String) > 0 {
			n = max(n, t.String[len(t.String)-1].Qubit+1)
		}
	}
	return n
}

// Fingerprint returns a digest identifying the operator up to term order.
func (o *Operator) Fingerprint() string {
	h := sha256.New()
	for _, t := range o.Terms() {
		fmt.Fprintf(h, "%s:%s;", t.String, formatCoeff(t.Coeff))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (o *Operator) String() string {
	terms := o.Terms()
	if len(terms) == 0 {
		return "0"
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, formatCoeff(t.Coeff)+" "+t.String.String())
	}
	return strings.Join(parts, " + ")
}

func formatCoeff(c complex128) string {
	// Adding zero turns negative zeros positive.
	c = complex(real(c)+0, imag(c)+0)
	if imag(c) == 0 {
		return strconv.FormatFloat(real(c), 'g', -1, 64)
	}
	return strconv.FormatComplex(c, 'g', -1, 128)
}
