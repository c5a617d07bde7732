package qasm

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	literal = -1
)

// Param is a gate parameter that is either a literal value or a placeholder for a variational parameter.
type Param struct {
	slot  int
	value float64
}

// Lit returns a literal parameter.
func Lit(v float64) Param { return Param{slot: literal, value: v} }

// Slot returns a placeholder for the i-th variational parameter.
func Slot(i int) Param { return Param{slot: i} }

// IsSlot reports whether p is a placeholder, and its slot.
func (p Param) IsSlot() (int, bool) { return p.slot, p.slot != literal }

func (p Param) String() string {
	if p.slot != literal {
		return "{" + strconv.Itoa(p.slot) + "}"
	}
	return formatFloat(p.value)
}

// Step is an instruction whose parameters may be placeholders.
type Step struct {
	Kind   Kind
	Params []Param
	Qubits []int
}

// Template is a sequence of instructions with placeholders for variational parameters.
// Placeholders are substituted positionally, the i-th variational parameter replacing every {i}.
// Substituted values are multiplied by Scale, a zero Scale being treated as 1.
type Template struct {
	Steps []Step
	Scale float64
}

// NumSlots returns the number of variational parameters consumed by the template.
func (t Template) NumSlots() int {
	n := 0
	for _, s := range t.Steps {
		for _, p := range s.Params {
			if i, ok := p.IsSlot(); ok {
				n = max(n, i+1)
			}
		}
	}
	return n
}

// WithScale returns a copy of t that multiplies substituted values by scale.
func (t Template) WithScale(scale float64) Template {
	t.Scale = scale
	return t
}

// Bind substitutes values into the placeholders.
func (t Template) Bind(values []float64) ([]Instruction, error) {
	if n := t.NumSlots(); len(values) != n {
		return nil, errors.Errorf("%d values, expected %d", len(values), n)
	}
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}

	instructions := make([]Instruction, 0, len(t.Steps))
	for _, s := range t.Steps {
		ins := Instruction{Kind: s.Kind, Qubits: slices.Clone(s.Qubits)}
		if len(s.Params) > 0 {
			ins.Params = make([]float64, 0, len(s.Params))
		}
		for _, p := range s.Params {
			v := p.value
			if i, ok := p.IsSlot(); ok {
				v = values[i] * scale
			}
			ins.Params = append(ins.Params, v)
		}
		instructions = append(instructions, ins)
	}
	return instructions, nil
}

func (t Template) String() string {
	var b strings.Builder
	for _, s := range t.Steps {
		b.WriteString(string(s.Kind))
		if len(s.Params) > 0 {
			ps := make([]string, 0, len(s.Params))
			for _, p := range s.Params {
				ps = append(ps, p.String())
			}
			b.WriteString("(" + strings.Join(ps, ", ") + ")")
		}
		qs := make([]string, 0, len(s.Qubits))
		for _, q := range s.Qubits {
			qs = append(qs, strconv.Itoa(q))
		}
		if len(qs) > 0 {
			b.WriteString(" " + strings.Join(qs, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// TemplateBuilder accumulates template steps.
type TemplateBuilder struct {
	steps []Step
}

// NewTemplateBuilder returns an empty template builder.
func NewTemplateBuilder() *TemplateBuilder {
	return &TemplateBuilder{steps: make([]Step, 0)}
}

// Add appends a step.
func (b *TemplateBuilder) Add(k Kind, params []Param, qubits ...int) *TemplateBuilder {
	b.steps = append(b.steps, Step{Kind: k, Params: params, Qubits: qubits})
	return b
}

// Template returns the accumulated template with unit scale.
func (b *TemplateBuilder) Template() Template {
	return Template{Steps: b.steps, Scale: 1}
}
