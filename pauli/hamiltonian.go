package pauli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Hamiltonian is a qubit Hamiltonian together with the system it describes.
type Hamiltonian struct {
	Name         string
	NumQubits    int
	NumElectrons int
	Operator     *Operator
}

type hamiltonianJSON struct {
	Name         string     `json:"name"`
	NumQubits    int        `json:"num_qubits"`
	NumElectrons int        `json:"num_electrons"`
	Terms        []termJSON `json:"terms"`
}

type termJSON struct {
	Pauli string  `json:"pauli"`
	Coeff float64 `json:"coeff"`
	Imag  float64 `json:"imag,omitempty"`
}

// Validate checks that the operator is Hermitian and fits in the qubits.
func (h Hamiltonian) Validate() error {
	if h.Operator == nil {
		return errors.Errorf("no operator")
	}
	if n := h.Operator.NumQubits(); n > h.NumQubits {
		return errors.Errorf("operator acts on %d qubits, expected at most %d", n, h.NumQubits)
	}
	if h.NumElectrons < 0 || h.NumElectrons > h.NumQubits {
		return errors.Errorf("%d electrons %d qubits", h.NumElectrons, h.NumQubits)
	}
	if !h.Operator.IsHermitian(1e-9) {
		return errors.Errorf("not hermitian")
	}
	return nil
}

func (h Hamiltonian) MarshalJSON() ([]byte, error) {
	hj := hamiltonianJSON{Name: h.Name, NumQubits: h.NumQubits, NumElectrons: h.NumElectrons, Terms: make([]termJSON, 0)}
	if h.Operator != nil {
		for _, t := range h.Operator.Terms() {
			hj.Terms = append(hj.Terms, termJSON{Pauli: t.String.String(), Coeff: real(t.Coeff), Imag: imag(t.Coeff)})
		}
	}
	return json.Marshal(hj)
}

func (h *Hamiltonian) UnmarshalJSON(b []byte) error {
	var hj hamiltonianJSON
	if err := json.Unmarshal(b, &hj); err != nil {
		return errors.Wrap(err, "")
	}
	op := &Operator{}
	for i, t := range hj.Terms {
		s, err := ParseString(t.Pauli)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("term %d", i))
		}
		op.AddTerm(complex(t.Coeff, t.Imag), s)
	}
	*h = Hamiltonian{Name: hj.Name, NumQubits: hj.NumQubits, NumElectrons: hj.NumElectrons, Operator: op}
	if h.NumQubits == 0 {
		h.NumQubits = op.NumQubits()
	}
	return nil
}

// ReadHamiltonian reads a Hamiltonian from a JSON file.
func ReadHamiltonian(fpath string) (Hamiltonian, error) {
	b, err := os.ReadFile(fpath)
	if err != nil {
		return Hamiltonian{}, errors.Wrap(err, "")
	}
	var h Hamiltonian
	if err := json.Unmarshal(b, &h); err != nil {
		return Hamiltonian{}, errors.Wrap(err, fpath)
	}
	if err := h.Validate(); err != nil {
		return Hamiltonian{}, errors.Wrap(err, fpath)
	}
	return h, nil
}

// WriteHamiltonian writes a Hamiltonian to a JSON file.
func WriteHamiltonian(fpath string, h Hamiltonian) error {
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(fpath, b, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// TransverseFieldIsing returns the Hamiltonian of the transverse field Ising model on an n[0] by n[1] open lattice,
//
//	H = -sum_<ij> Z_i Z_j - h sum_i X_i
//
// where the spin at row y and column x is qubit y*n[1]+x.
func TransverseFieldIsing(n [2]int, h float64) *Operator {
	site := func(y, x int) int { return y*n[1] + x }
	o := &Operator{}
	for y := 0; y < n[0]; y++ {
		for x := 0; x < n[1]; x++ {
			up := y - 1
			if up >= 0 {
				o.AddTerm(-1, String{{Qubit: site(up, x), Op: Z}, {Qubit: site(y, x), Op: Z}})
			}

			left := x - 1
			if left >= 0 {
				o.AddTerm(-1, String{{Qubit: site(y, left), Op: Z}, {Qubit: site(y, x), Op: Z}})
			}

			o.AddTerm(complex(-h, 0), String{{Qubit: site(y, x), Op: X}})
		}
	}
	return o
}
