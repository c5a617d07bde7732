// Package exchange synthesizes partial exchange rotations between qubit pairs out of primitive gates.
package exchange

import (
	"math"
	"slices"

	"github.com/fumin/vqe/qasm"
)

// SecondAngle returns the correction angle that, paired with x, makes the five gate double exchange sequence
// equal the exact two pair exchange rotation to leading order.
func SecondAngle(x float64) float64 {
	if x == 0 {
		return 0
	}
	tanX := math.Tan(x)
	tanX2 := tanX * tanX
	tanY := (-tanX2 - 1 + math.Sqrt(tanX2*tanX2+6*tanX2+1)) / (2 * tanX)
	return math.Atan(tanY)
}

// Rescale reparameterizes an angle as a + tanh(sign(a)|a|^0.5), which steepens the landscape near zero.
func Rescale(a float64) float64 {
	if a > 0 {
		return a + math.Tanh(math.Sqrt(a))
	}
	return a + math.Tanh(-math.Sqrt(-a))
}

// SingleExchange returns a partial exchange of angle between qubits a and b.
func SingleExchange(angle float64, a, b int) []qasm.Instruction {
	return qasm.NewBuilder().PartialExchange(angle, a, b).Instructions()
}

// DoubleExchange returns instructions that approximately exchange the occupation of pair p1 with pair p2 by angle.
//
// Without extended, a phase flip on p2 fixes the sign of the result, appended for positive angles and prepended otherwise.
// With extended, the flip is conditioned on the parity of ParityQubits: on even parity it sits where the plain flip does,
// on odd parity at the other end, so the rotation picks up the sign of the occupied qubits between each pair.
// Adjacent pairs reduce to the plain variant.
func DoubleExchange(angle float64, p1, p2 [2]int, extended bool) []qasm.Instruction {
	angle2 := SecondAngle(angle)
	core := qasm.NewBuilder().
		PartialExchange(angle, p1[1], p2[0]).
		PartialExchange(-angle, p1[0], p2[1]).
		PhaseFlip(p2[0], p2[1]).
		PartialExchange(-angle2, p1[1], p2[0]).
		PartialExchange(angle2, p1[0], p2[1])

	if !extended {
		switch {
		case angle > 0:
			core.PhaseFlip(p2[0], p2[1])
		default:
			core.Prepend(qasm.NewBuilder().PhaseFlip(p2[0], p2[1]).Instructions()...)
		}
		return core.Instructions()
	}

	parity, inverted := dropPair(ParityQubits(p1, p2), p2)
	front := (angle > 0) != inverted
	b := qasm.NewBuilder().ParityControlledPhase(parity, p2[0], p2[1], front)
	b.Append(core.Instructions()...)
	b.ParityControlledPhase(parity, p2[0], p2[1], !front)
	return b.Instructions()
}

// dropPair removes the qubits of p from parity.
// They are set wherever the phase flip on p acts, so each one removed inverts the parity condition.
func dropPair(parity []int, p [2]int) ([]int, bool) {
	kept := make([]int, 0, len(parity))
	var inverted bool
	for _, q := range parity {
		if q == p[0] || q == p[1] {
			inverted = !inverted
			continue
		}
		kept = append(kept, q)
	}
	return kept, inverted
}

// ParityQubits returns the qubits whose parity conditions the sign correction of an extended double exchange,
// namely [min(p1), max(p1)) and (min(p2), max(p2)) in ascending order.
// A qubit in both ranges cancels out of the parity and is left out.
func ParityQubits(p1, p2 [2]int) []int {
	count := make(map[int]int)
	for q := min(p1[0], p1[1]); q < max(p1[0], p1[1]); q++ {
		count[q]++
	}
	for q := min(p2[0], p2[1]) + 1; q < max(p2[0], p2[1]); q++ {
		count[q]++
	}
	qubits := make([]int, 0, len(count))
	for q, c := range count {
		if c%2 == 1 {
			qubits = append(qubits, q)
		}
	}
	slices.Sort(qubits)
	return qubits
}
