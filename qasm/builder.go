package qasm

// Builder accumulates instructions in execution order.
type Builder struct {
	instructions []Instruction
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{instructions: make([]Instruction, 0)}
}

// Instructions returns the accumulated instructions.
func (b *Builder) Instructions() []Instruction {
	return b.instructions
}

// Len returns the number of accumulated instructions.
func (b *Builder) Len() int { return len(b.instructions) }

// Append appends instructions as they are.
func (b *Builder) Append(instructions ...Instruction) *Builder {
	b.instructions = append(b.instructions, instructions...)
	return b
}

// Prepend inserts instructions at the front.
func (b *Builder) Prepend(instructions ...Instruction) *Builder {
	b.instructions = append(append(make([]Instruction, 0, len(instructions)+len(b.instructions)), instructions...), b.instructions...)
	return b
}

func (b *Builder) add(k Kind, params []float64, qubits ...int) *Builder {
	b.instructions = append(b.instructions, Instruction{Kind: k, Params: params, Qubits: qubits})
	return b
}

func (b *Builder) H(q int) *Builder                 { return b.add(H, nil, q) }
func (b *Builder) X(q int) *Builder                 { return b.add(X, nil, q) }
func (b *Builder) RX(theta float64, q int) *Builder { return b.add(RX, []float64{theta}, q) }
func (b *Builder) RY(theta float64, q int) *Builder { return b.add(RY, []float64{theta}, q) }
func (b *Builder) RZ(theta float64, q int) *Builder { return b.add(RZ, []float64{theta}, q) }
func (b *Builder) CX(control, target int) *Builder  { return b.add(CX, nil, control, target) }
func (b *Builder) CCX(c0, c1, target int) *Builder  { return b.add(CCX, nil, c0, c1, target) }

// PhaseFlip appends a controlled-Z between a and b.
func (b *Builder) PhaseFlip(a, c int) *Builder { return b.add(PhaseFlip, nil, a, c) }

// PartialExchange appends a partial exchange of angle between a and c.
func (b *Builder) PartialExchange(angle float64, a, c int) *Builder {
	return b.add(PartialExchange, []float64{angle}, a, c)
}

// ParityControlledPhase appends a phase flip on the pair (a, c) that is applied only when the parity of the parity qubits
// is odd, or even if odd is false.
// The parity is accumulated with a CX ladder onto the last parity qubit, and the ladder is undone afterwards,
// so the parity qubits are left unchanged.
// The parity of no qubits is even, so an empty parity list gives a plain phase flip or nothing.
func (b *Builder) ParityControlledPhase(parity []int, a, c int, odd bool) *Builder {
	if len(parity) == 0 {
		if !odd {
			b.PhaseFlip(a, c)
		}
		return b
	}

	p := parity[len(parity)-1]
	for i := 0; i < len(parity)-1; i++ {
		b.CX(parity[i], parity[i+1])
	}
	if !odd {
		b.X(p)
	}
	b.H(c)
	b.CCX(p, a, c)
	b.H(c)
	if !odd {
		b.X(p)
	}
	for i := len(parity) - 2; i >= 0; i-- {
		b.CX(parity[i], parity[i+1])
	}
	return b
}
