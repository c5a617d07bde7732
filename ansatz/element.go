// Package ansatz builds the parameterized circuit elements of variational ansätze.
//
// An element is either an excitation, a fermionic generator mapped onto qubits whose instructions
// are synthesized from its qubit operator, or a set of gates emitted directly from parameters.
package ansatz

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fumin/vqe/exchange"
	"github.com/fumin/vqe/fermion"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
)

var (
	ErrParameterCountMismatch = errors.New("parameter count mismatch")
)

// Kind tags the representation of an element.
type Kind string

const (
	KindExcitation Kind = "excitation"
	KindTemplate   Kind = "template"
)

// Element is a parameterized building block of a circuit.
// Elements are immutable and safe for concurrent use.
type Element interface {
	Kind() Kind
	// ParameterCount is the number of variational parameters consumed by Instructions.
	ParameterCount() int
	// Instructions returns the gate instructions for params.
	// It fails with ErrParameterCountMismatch unless len(params) equals ParameterCount.
	Instructions(params []float64) ([]qasm.Instruction, error)
	String() string

	sealed()
}

// Transform maps a fermionic operator onto qubits.
type Transform func(fermion.Operator) (*pauli.Operator, error)

// ExcitationSynthesizer returns the instructions applying an excitation generator scaled by a parameter.
type ExcitationSynthesizer func(*pauli.Operator, float64) ([]qasm.Instruction, error)

func checkCount(e Element, params []float64) error {
	if len(params) != e.ParameterCount() {
		return errors.Wrap(ErrParameterCountMismatch, fmt.Sprintf("%s: %d parameters, expected %d", e, len(params), e.ParameterCount()))
	}
	return nil
}

// Excitation is an element generated by a single parameter fermionic excitation.
type Excitation struct {
	name     string
	fermion  fermion.Operator
	operator *pauli.Operator
	synth    ExcitationSynthesizer
}

// NewExcitation transforms a fermionic generator onto qubits.
// The qubit operator must be anti-Hermitian, so that its exponential is unitary.
func NewExcitation(name string, f fermion.Operator, transform Transform, synth ExcitationSynthesizer) (*Excitation, error) {
	if transform == nil {
		transform = fermion.JordanWigner
	}
	if synth == nil {
		synth = PauliExponential
	}
	op, err := transform(f)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	if op.Len() == 0 {
		return nil, errors.Errorf("%s: zero operator", name)
	}
	if !op.IsAntiHermitian(1e-12) {
		return nil, errors.Errorf("%s: not anti-hermitian %s", name, op)
	}
	return &Excitation{name: name, fermion: f, operator: op, synth: synth}, nil
}

func (e *Excitation) Kind() Kind          { return KindExcitation }
func (e *Excitation) ParameterCount() int { return 1 }
func (e *Excitation) String() string      { return e.name }
func (e *Excitation) sealed()             {}

// Fermion returns the fermionic generator.
func (e *Excitation) Fermion() fermion.Operator { return e.fermion }

// Operator returns the generator mapped onto qubits.
func (e *Excitation) Operator() *pauli.Operator { return e.operator.Clone() }

// ExcitationOrder returns the largest number of qubits acted on by a term of the qubit operator.
func (e *Excitation) ExcitationOrder() int { return e.operator.MaxOrder() }

func (e *Excitation) Instructions(params []float64) ([]qasm.Instruction, error) {
	if err := checkCount(e, params); err != nil {
		return nil, err
	}
	ins, err := e.synth(e.operator, params[0])
	if err != nil {
		return nil, errors.Wrap(err, e.name)
	}
	return ins, nil
}

// Emitter emits literal gate instructions from parameters.
type Emitter interface {
	NumParameters() int
	Emit(params []float64) ([]qasm.Instruction, error)
	String() string
}

// Gates is an element that emits gate instructions directly.
type Gates struct {
	emitter Emitter
}

// NewGates returns an element backed by an emitter of at least one parameter.
func NewGates(e Emitter) (*Gates, error) {
	if n := e.NumParameters(); n <= 0 {
		return nil, errors.Errorf("%s: %d parameters", e, n)
	}
	return &Gates{emitter: e}, nil
}

func (g *Gates) Kind() Kind          { return KindTemplate }
func (g *Gates) ParameterCount() int { return g.emitter.NumParameters() }
func (g *Gates) String() string      { return g.emitter.String() }
func (g *Gates) sealed()             {}

// Emitter returns the emitter backing the element.
func (g *Gates) Emitter() Emitter { return g.emitter }

func (g *Gates) Instructions(params []float64) ([]qasm.Instruction, error) {
	if err := checkCount(g, params); err != nil {
		return nil, err
	}
	ins, err := g.emitter.Emit(params)
	if err != nil {
		return nil, errors.Wrap(err, g.String())
	}
	return ins, nil
}

// SingleExchange partially exchanges the occupation of qubits A and B.
type SingleExchange struct {
	A, B int
}

func (s SingleExchange) NumParameters() int { return 1 }
func (s SingleExchange) String() string     { return fmt.Sprintf("s_exc %d, %d", s.A, s.B) }
func (s SingleExchange) Emit(params []float64) ([]qasm.Instruction, error) {
	if len(params) != 1 {
		return nil, errors.Errorf("%d parameters", len(params))
	}
	return exchange.SingleExchange(params[0], s.A, s.B), nil
}

// DoubleExchange partially exchanges the occupation of the pairs P1 and P2.
// Rescaled reparameterizes the angle with exchange.Rescale, and Extended corrects the sign
// with parity controlled phases instead of a single phase flip.
type DoubleExchange struct {
	P1, P2   [2]int
	Rescaled bool
	Extended bool
}

func (d DoubleExchange) NumParameters() int { return 1 }
func (d DoubleExchange) String() string     { return fmt.Sprintf("d_exc %v, %v", d.P1, d.P2) }
func (d DoubleExchange) Emit(params []float64) ([]qasm.Instruction, error) {
	if len(params) != 1 {
		return nil, errors.Errorf("%d parameters", len(params))
	}
	angle := params[0]
	if d.Rescaled {
		angle = exchange.Rescale(angle)
	}
	return exchange.DoubleExchange(angle, d.P1, d.P2, d.Extended), nil
}

// Template substitutes parameters into an instruction template.
type Template struct {
	Name string
	Body qasm.Template
}

func (t Template) NumParameters() int { return t.Body.NumSlots() }
func (t Template) String() string     { return t.Name }
func (t Template) Emit(params []float64) ([]qasm.Instruction, error) {
	ins, err := t.Body.Bind(params)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return ins, nil
}
