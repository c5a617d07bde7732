package ansatz

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fumin/vqe/qasm"
)

// Family enumerates the elements of an ansatz.
type Family interface {
	Name() string
	Elements() ([]Element, error)
}

func checkOccupation(numOrbitals, numElectrons int) error {
	if numOrbitals < 0 || numElectrons < 0 || numElectrons > numOrbitals {
		return errors.Errorf("%d orbitals %d electrons", numOrbitals, numElectrons)
	}
	return nil
}

// occupiedVirtual calls fn for occupied i and virtual j, in ascending order.
func occupiedVirtual(numOrbitals, numElectrons int, fn func(i, j int) error) error {
	for i := 0; i < numElectrons; i++ {
		for j := numElectrons; j < numOrbitals; j++ {
			if err := fn(i, j); err != nil {
				return err
			}
		}
	}
	return nil
}

// occupiedVirtualPairs calls fn for occupied pairs (i, j) and virtual pairs (k, l), in ascending order.
func occupiedVirtualPairs(numOrbitals, numElectrons int, fn func(p1, p2 [2]int) error) error {
	for i := 0; i < numElectrons-1; i++ {
		for j := i + 1; j < numElectrons; j++ {
			for k := numElectrons; k < numOrbitals-1; k++ {
				for l := k + 1; l < numOrbitals; l++ {
					if err := fn([2]int{i, j}, [2]int{k, l}); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// combinations calls fn for every k-combination of [0, n) in lexicographic order.
func combinations(n, k int, fn func([]int) error) error {
	if k > n {
		return nil
	}
	c := make([]int, k)
	for i := range c {
		c[i] = i
	}
	for {
		if err := fn(c); err != nil {
			return err
		}
		i := k - 1
		for i >= 0 && c[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		c[i]++
		for j := i + 1; j < k; j++ {
			c[j] = c[j-1] + 1
		}
	}
}

// ESD is the exchange single and double ansatz.
// Single exchanges move an electron from an occupied to a virtual orbital,
// and double exchanges move an occupied pair to a virtual pair.
type ESD struct {
	NumOrbitals  int
	NumElectrons int
	Rescaled     bool
	Extended     bool
}

func (a ESD) Name() string { return "esd" }

func (a ESD) Singles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0, a.NumElectrons*(a.NumOrbitals-a.NumElectrons))
	err := occupiedVirtual(a.NumOrbitals, a.NumElectrons, func(i, j int) error {
		return appendGates(&elements, SingleExchange{A: i, B: j})
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a ESD) Doubles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0)
	err := occupiedVirtualPairs(a.NumOrbitals, a.NumElectrons, func(p1, p2 [2]int) error {
		return appendGates(&elements, DoubleExchange{P1: p1, P2: p2, Rescaled: a.Rescaled, Extended: a.Extended})
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a ESD) Elements() ([]Element, error) { return singlesDoubles(a.Singles, a.Doubles) }

// EGSD is the generalized exchange single and double ansatz over all orbital combinations.
type EGSD struct {
	NumOrbitals  int
	NumElectrons int
	Rescaled     bool
	Extended     bool
}

func (a EGSD) Name() string { return "egsd" }

func (a EGSD) Singles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0)
	err := combinations(a.NumOrbitals, 2, func(c []int) error {
		return appendGates(&elements, SingleExchange{A: c[0], B: c[1]})
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a EGSD) Doubles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0)
	err := combinations(a.NumOrbitals, 4, func(c []int) error {
		d := DoubleExchange{P1: [2]int{c[0], c[1]}, P2: [2]int{c[2], c[3]}, Rescaled: a.Rescaled, Extended: a.Extended}
		return appendGates(&elements, d)
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a EGSD) Elements() ([]Element, error) { return singlesDoubles(a.Singles, a.Doubles) }

// UCCSD is the unitary coupled cluster singles and doubles ansatz.
type UCCSD struct {
	NumOrbitals  int
	NumElectrons int
	Factory      OperatorFactory
}

func (a UCCSD) Name() string { return "uccsd" }

func (a UCCSD) Singles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0, a.NumElectrons*(a.NumOrbitals-a.NumElectrons))
	err := occupiedVirtual(a.NumOrbitals, a.NumElectrons, func(i, j int) error {
		e, err := a.Factory.SingleExcitation(i, j)
		if err != nil {
			return errors.Wrap(err, "")
		}
		elements = append(elements, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a UCCSD) Doubles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0)
	err := occupiedVirtualPairs(a.NumOrbitals, a.NumElectrons, func(p1, p2 [2]int) error {
		e, err := a.Factory.DoubleExcitation(p1, p2)
		if err != nil {
			return errors.Wrap(err, "")
		}
		elements = append(elements, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a UCCSD) Elements() ([]Element, error) { return singlesDoubles(a.Singles, a.Doubles) }

// UCCGSD is the generalized unitary coupled cluster singles and doubles ansatz over all orbital combinations.
type UCCGSD struct {
	NumOrbitals  int
	NumElectrons int
	Factory      OperatorFactory
}

func (a UCCGSD) Name() string { return "uccgsd" }

func (a UCCGSD) Singles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0)
	err := combinations(a.NumOrbitals, 2, func(c []int) error {
		e, err := a.Factory.SingleExcitation(c[0], c[1])
		if err != nil {
			return errors.Wrap(err, "")
		}
		elements = append(elements, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a UCCGSD) Doubles() ([]Element, error) {
	if err := checkOccupation(a.NumOrbitals, a.NumElectrons); err != nil {
		return nil, errors.Wrap(err, "")
	}
	elements := make([]Element, 0)
	err := combinations(a.NumOrbitals, 4, func(c []int) error {
		e, err := a.Factory.DoubleExcitation([2]int{c[0], c[1]}, [2]int{c[2], c[3]})
		if err != nil {
			return errors.Wrap(err, "")
		}
		elements = append(elements, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return elements, nil
}

func (a UCCGSD) Elements() ([]Element, error) { return singlesDoubles(a.Singles, a.Doubles) }

// HardwareEfficient is a layered ansatz of RY rotations on every qubit followed by a CX chain.
// Each layer is one element with one parameter per qubit.
// Parameters are multiplied by Scale before substitution, a zero Scale being treated as 1.
type HardwareEfficient struct {
	NumQubits int
	Layers    int
	Scale     float64
}

func (a HardwareEfficient) Name() string { return "hea" }

// Layer returns the template of a single layer.
func (a HardwareEfficient) Layer() qasm.Template {
	b := qasm.NewTemplateBuilder()
	for q := 0; q < a.NumQubits; q++ {
		b.Add(qasm.RY, []qasm.Param{qasm.Slot(q)}, q)
	}
	for q := 0; q < a.NumQubits-1; q++ {
		b.Add(qasm.CX, nil, q, q+1)
	}
	scale := a.Scale
	if scale == 0 {
		scale = 1
	}
	return b.Template().WithScale(scale)
}

func (a HardwareEfficient) Elements() ([]Element, error) {
	if a.NumQubits <= 0 || a.Layers <= 0 {
		return nil, errors.Errorf("%d qubits %d layers", a.NumQubits, a.Layers)
	}
	elements := make([]Element, 0, a.Layers)
	for l := 0; l < a.Layers; l++ {
		if err := appendGates(&elements, Template{Name: fmt.Sprintf("hea_layer %d", l), Body: a.Layer()}); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	return elements, nil
}

func appendGates(elements *[]Element, e Emitter) error {
	g, err := NewGates(e)
	if err != nil {
		return errors.Wrap(err, "")
	}
	*elements = append(*elements, g)
	return nil
}

func singlesDoubles(singles, doubles func() ([]Element, error)) ([]Element, error) {
	s, err := singles()
	if err != nil {
		return nil, errors.Wrap(err, "singles")
	}
	d, err := doubles()
	if err != nil {
		return nil, errors.Wrap(err, "doubles")
	}
	return append(s, d...), nil
}

// FamilyOptions configures NewFamily.
type FamilyOptions struct {
	// Rescaled and Extended configure the double exchanges of esd and egsd.
	Rescaled bool
	Extended bool
	// Factory builds the excitations of uccsd and uccgsd.
	Factory OperatorFactory
	// Layers and Scale configure hea, which acts on numOrbitals qubits.
	Layers int
	Scale  float64
}

// NewFamily returns the family named esd, egsd, uccsd, uccgsd or hea.
func NewFamily(name string, numOrbitals, numElectrons int, opts FamilyOptions) (Family, error) {
	switch name {
	case "esd":
		return ESD{NumOrbitals: numOrbitals, NumElectrons: numElectrons, Rescaled: opts.Rescaled, Extended: opts.Extended}, nil
	case "egsd":
		return EGSD{NumOrbitals: numOrbitals, NumElectrons: numElectrons, Rescaled: opts.Rescaled, Extended: opts.Extended}, nil
	case "uccsd":
		return UCCSD{NumOrbitals: numOrbitals, NumElectrons: numElectrons, Factory: opts.Factory}, nil
	case "uccgsd":
		return UCCGSD{NumOrbitals: numOrbitals, NumElectrons: numElectrons, Factory: opts.Factory}, nil
	case "hea":
		layers := opts.Layers
		if layers == 0 {
			layers = 1
		}
		return HardwareEfficient{NumQubits: numOrbitals, Layers: layers, Scale: opts.Scale}, nil
	default:
		return nil, errors.Errorf("unknown ansatz %q", name)
	}
}

// NumParameters returns the total number of parameters of elements.
func NumParameters(elements []Element) int {
	n := 0
	for _, e := range elements {
		n += e.ParameterCount()
	}
	return n
}
