package sim

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/pkg/errors"

	"github.com/fumin/vqe"
	"github.com/fumin/vqe/ansatz"
	"github.com/fumin/vqe/exchange"
	"github.com/fumin/vqe/pauli"
	"github.com/fumin/vqe/qasm"
)

func TestApply(t *testing.T) {
	t.Parallel()
	r := 1 / math.Sqrt2
	tests := []struct {
		state    []complex128
		ins      []qasm.Instruction
		expected []complex128
	}{
		{
			state:    []complex128{1, 0},
			ins:      qasm.NewBuilder().H(0).Instructions(),
			expected: []complex128{complex(r, 0), complex(r, 0)},
		},
		{
			state:    []complex128{1, 0, 0, 0},
			ins:      qasm.NewBuilder().X(1).Instructions(),
			expected: []complex128{0, 0, 1, 0},
		},
		{
			state:    []complex128{0, 1, 0, 0},
			ins:      qasm.NewBuilder().CX(0, 1).Instructions(),
			expected: []complex128{0, 0, 0, 1},
		},
		{
			state:    []complex128{0, 0, 1, 0},
			ins:      qasm.NewBuilder().CX(0, 1).Instructions(),
			expected: []complex128{0, 0, 1, 0},
		},
		{
			state:    []complex128{0, 0, 0, 1, 0, 0, 0, 0},
			ins:      qasm.NewBuilder().CCX(0, 1, 2).Instructions(),
			expected: []complex128{0, 0, 0, 0, 0, 0, 0, 1},
		},
		{
			state:    []complex128{0.5, 0.5, 0.5, 0.5},
			ins:      qasm.NewBuilder().PhaseFlip(0, 1).Instructions(),
			expected: []complex128{0.5, 0.5, 0.5, -0.5},
		},
		{
			state:    []complex128{1, 0},
			ins:      qasm.NewBuilder().RX(math.Pi, 0).Instructions(),
			expected: []complex128{0, -1i},
		},
		{
			state:    []complex128{1, 0},
			ins:      qasm.NewBuilder().RY(math.Pi, 0).Instructions(),
			expected: []complex128{0, 1},
		},
		{
			state:    []complex128{complex(r, 0), complex(r, 0)},
			ins:      qasm.NewBuilder().RZ(math.Pi, 0).Instructions(),
			expected: []complex128{complex(0, -r), complex(0, r)},
		},
		// |10> -> cos|10> + sin|01>, where the first digit is qubit 0.
		{
			state:    []complex128{0, 1, 0, 0},
			ins:      qasm.NewBuilder().PartialExchange(math.Pi/6, 0, 1).Instructions(),
			expected: []complex128{0, complex(math.Sqrt(3)/2, 0), 0.5, 0},
		},
		{
			state:    []complex128{0, 0, 1, 0},
			ins:      qasm.NewBuilder().PartialExchange(math.Pi/6, 0, 1).Instructions(),
			expected: []complex128{0, -0.5, complex(math.Sqrt(3)/2, 0), 0},
		},
		{
			state:    []complex128{0, 0, 0, 1},
			ins:      qasm.NewBuilder().PartialExchange(math.Pi/6, 0, 1).Instructions(),
			expected: []complex128{0, 0, 0, 1},
		},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			t.Parallel()
			state, err := Run(test.state, test.ins)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !vecClose(state, test.expected, 1e-12) {
				t.Fatalf("%v, expected %v", state, test.expected)
			}
		})
	}
}

func TestApplyErrors(t *testing.T) {
	t.Parallel()
	tests := []qasm.Instruction{
		{Kind: qasm.H, Qubits: []int{2}},
		{Kind: qasm.CX, Qubits: []int{0}},
		{Kind: qasm.Kind("swap"), Qubits: []int{0, 1}},
	}
	for i, ins := range tests {
		if err := Apply(make([]complex128, 4), ins); err == nil {
			t.Fatalf("%d %s, expected error", i, ins)
		}
	}
}

func TestSingleExcitation(t *testing.T) {
	t.Parallel()
	theta := 0.4
	e, err := ansatz.OperatorFactory{}.SingleExcitation(0, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	ins, err := e.Instructions([]float64{theta})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	hf, err := HartreeFock(2, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	state, err := Run(hf, ins)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected := []complex128{0, complex(math.Cos(theta), 0), complex(math.Sin(theta), 0), 0}
	if !vecClose(state, expected, 1e-12) {
		t.Fatalf("%v, expected %v", state, expected)
	}

	// A partial exchange is the same rotation on the Hartree-Fock state.
	exc, err := Run(hf, exchange.SingleExchange(theta, 0, 1))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !vecClose(exc, expected, 1e-12) {
		t.Fatalf("%v, expected %v", exc, expected)
	}
}

func TestDoubleExchange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		angle float64
		amp   float64
	}{
		{angle: 0.3, amp: -0.1615318797},
		{angle: -0.3, amp: 0.1615318797},
		{angle: 0.1, amp: -0.0197385971},
		{angle: 0, amp: 0},
	}
	hf, err := HartreeFock(4, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, test := range tests {
		for _, extended := range []bool{false, true} {
			t.Run(fmt.Sprintf("%f %t", test.angle, extended), func(t *testing.T) {
				t.Parallel()
				state, err := Run(hf, exchange.DoubleExchange(test.angle, [2]int{0, 1}, [2]int{2, 3}, extended))
				if err != nil {
					t.Fatalf("%+v", err)
				}
				for i, v := range state {
					switch i {
					case 0b0011:
						if math.Abs(real(v)-math.Sqrt(1-test.amp*test.amp)) > 1e-8 {
							t.Fatalf("%v, expected %v", v, math.Sqrt(1-test.amp*test.amp))
						}
					case 0b1100:
						if math.Abs(real(v)-test.amp) > 1e-8 {
							t.Fatalf("%v, expected %v", v, test.amp)
						}
					default:
						if cmplx.Abs(v) > 1e-12 {
							t.Fatalf("%d %v", i, v)
						}
					}
				}
			})
		}
	}
}

// TestDoubleExchangeExtendedSign checks that the extended exchange is odd in the angle,
// and that it carries the sign of the occupied qubits between the qubits of each pair.
func TestDoubleExchangeExtendedSign(t *testing.T) {
	t.Parallel()
	p1, p2 := [2]int{0, 2}, [2]int{3, 5}
	tests := []struct {
		from int
		to   int
		amp  float64
	}{
		{from: 0b000101, to: 0b101000, amp: -0.16153188},
		{from: 0b000111, to: 0b101010, amp: 0.16153188},
		{from: 0b010101, to: 0b111000, amp: 0.16153188},
		{from: 0b010111, to: 0b111010, amp: -0.16153188},
		{from: 0b101000, to: 0b000101, amp: 0.11609029},
		{from: 0b101010, to: 0b000111, amp: -0.11609029},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%06b", test.from), func(t *testing.T) {
			t.Parallel()
			amp := make([]float64, 0, 2)
			for _, angle := range []float64{0.3, -0.3} {
				state := make([]complex128, 1<<6)
				state[test.from] = 1
				out, err := Run(state, exchange.DoubleExchange(angle, p1, p2, true))
				if err != nil {
					t.Fatalf("%+v", err)
				}
				amp = append(amp, real(out[test.to]))
			}
			if math.Abs(amp[0]-test.amp) > 1e-7 {
				t.Fatalf("%v, expected %v", amp[0], test.amp)
			}
			if math.Abs(amp[0]+amp[1]) > 1e-10 {
				t.Fatalf("%v %v", amp[0], amp[1])
			}
		})
	}
}

// TestParityControlledPhase checks that the gadget is a phase flip on the two target qubits
// conditioned on the parity of the control qubits.
func TestParityControlledPhase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		parity []int
		odd    bool
	}{
		{parity: []int{0, 1, 2}, odd: true},
		{parity: []int{0, 1, 2}, odd: false},
		{parity: []int{1}, odd: false},
		{parity: nil, odd: false},
		{parity: nil, odd: true},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %t", test.parity, test.odd), func(t *testing.T) {
			t.Parallel()
			ins := qasm.NewBuilder().ParityControlledPhase(test.parity, 3, 4, test.odd).Instructions()
			for basis := 0; basis < 1<<5; basis++ {
				state := make([]complex128, 1<<5)
				state[basis] = 1
				out, err := Run(state, ins)
				if err != nil {
					t.Fatalf("%+v", err)
				}

				var parity int
				for _, q := range test.parity {
					parity ^= basis >> q & 1
				}
				expected := complex(1, 0)
				if (parity == 1) == test.odd && basis&(1<<3) != 0 && basis&(1<<4) != 0 {
					expected = -1
				}
				if cmplx.Abs(out[basis]-expected) > 1e-12 {
					t.Fatalf("basis %05b: %v, expected %v", basis, out[basis], expected)
				}
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	h, err := pauli.ReadHamiltonian("../pauli/testdata/h2_sto3g.json")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	b := MustNewBackend(0)
	req := vqe.Request{Hamiltonian: h.Operator, NumQubits: h.NumQubits, NumElectrons: h.NumElectrons}

	ev, err := b.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if expected := -1.1166843884; math.Abs(ev.Energy-expected) > 1e-8 {
		t.Fatalf("%v, expected %v", ev.Energy, expected)
	}
	if len(ev.GateCounter) != 0 {
		t.Fatalf("%v", ev.GateCounter)
	}

	e, err := ansatz.OperatorFactory{}.DoubleExcitation([2]int{0, 1}, [2]int{2, 3})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// One of the two directions lowers the energy below Hartree-Fock.
	lowest := math.Inf(1)
	for _, theta := range []float64{0.1, -0.1} {
		req.Circuit, err = e.Instructions([]float64{theta})
		if err != nil {
			t.Fatalf("%+v", err)
		}
		ev, err = b.Evaluate(context.Background(), req)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		lowest = min(lowest, ev.Energy)
	}
	if lowest >= -1.1166843884 || lowest < -1.1372701759841441 {
		t.Fatalf("%v", lowest)
	}
	if ev.GateCounter[qasm.RZ] != 8 {
		t.Fatalf("%v", ev.GateCounter)
	}
	if b.CachedMatrices() != 1 {
		t.Fatalf("%d", b.CachedMatrices())
	}
}

func TestEvaluateInitialState(t *testing.T) {
	t.Parallel()
	b := MustNewBackend(1)
	req := vqe.Request{
		Hamiltonian:  pauli.Single(1, pauli.Z, 0),
		NumQubits:    1,
		InitialState: []complex128{0, 1},
	}
	ev, err := b.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if ev.Energy != -1 {
		t.Fatalf("%v", ev.Energy)
	}
	if req.InitialState[1] != 1 {
		t.Fatalf("initial state modified %v", req.InitialState)
	}

	req.InitialState = []complex128{1}
	if _, err := b.Evaluate(context.Background(), req); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEvaluateCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := vqe.Request{
		Hamiltonian: pauli.Single(1, pauli.Z, 0),
		NumQubits:   1,
		Circuit:     qasm.NewBuilder().X(0).Instructions(),
	}
	_, err := MustNewBackend(1).Evaluate(ctx, req)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("%v", err)
	}
}

func TestSpinStatistics(t *testing.T) {
	t.Parallel()
	r := complex(1/math.Sqrt2, 0)
	tests := []struct {
		n     int
		state []complex128
		stats Statistics
	}{
		{n: 2, state: []complex128{1, 0, 0, 0}, stats: Statistics{Magnetization: 1, BinderCumulant: 2. / 3}},
		{n: 2, state: []complex128{r, 0, 0, r}, stats: Statistics{Magnetization: 1, BinderCumulant: 2. / 3}},
		{n: 2, state: []complex128{0.5, 0.5, 0.5, 0.5}, stats: Statistics{Magnetization: 0.5, BinderCumulant: 1. / 3}},
	}
	for i, test := range tests {
		stats, err := SpinStatistics(test.n, test.state)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if math.Abs(stats.Magnetization-test.stats.Magnetization) > 1e-12 || math.Abs(stats.BinderCumulant-test.stats.BinderCumulant) > 1e-12 {
			t.Fatalf("%d %#v, expected %#v", i, stats, test.stats)
		}
	}

	if _, err := SpinStatistics(2, []complex128{1, 1, 0, 0}); err == nil {
		t.Fatalf("expected error")
	}
}

func vecClose(a, b []complex128, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if cmplx.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
