package fermion

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/fumin/vqe/pauli"
)

func TestJordanWignerSingleExcitation(t *testing.T) {
	t.Parallel()
	o, err := SingleExcitation(0, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s := o.String(); s != "1 [1^ 0] + -1 [0^ 1]" {
		t.Fatalf("%s", s)
	}
	q, err := JordanWigner(o)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s := q.String(); s != "(0-0.5i) X0 Y1 + (0+0.5i) Y0 X1" {
		t.Fatalf("%s", s)
	}
	if !q.IsAntiHermitian(0) {
		t.Fatalf("%s", q)
	}
}

func TestJordanWignerParity(t *testing.T) {
	t.Parallel()
	// Excitations skipping modes carry a Z string over the skipped modes.
	o, err := SingleExcitation(0, 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	q, err := JordanWigner(o)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s := q.String(); s != "(0-0.5i) X0 Z1 Z2 Y3 + (0+0.5i) Y0 Z1 Z2 X3" {
		t.Fatalf("%s", s)
	}
}

func TestJordanWignerNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mode int
	}{{mode: 0}, {mode: 2}, {mode: 5}}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.mode), func(t *testing.T) {
			t.Parallel()
			// a^ a = (1 - Z)/2
			n := Operator{Terms: []Term{{Ops: []Ladder{Creation(test.mode), Annihilation(test.mode)}, Coeff: 1}}}
			q, err := JordanWigner(n)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			expected := pauli.Identity(0.5).Add(pauli.Single(-0.5, pauli.Z, test.mode))
			if q.String() != expected.String() {
				t.Fatalf("%s, expected %s", q, expected)
			}
		})
	}
}

func TestDoubleExcitation(t *testing.T) {
	t.Parallel()
	o, err := DoubleExcitation([2]int{0, 1}, [2]int{2, 3})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s := o.String(); s != "1 [2^ 3^ 0 1] + -1 [0^ 1^ 2 3]" {
		t.Fatalf("%s", s)
	}
	if o.MaxMode() != 3 {
		t.Fatalf("%d", o.MaxMode())
	}
	q, err := JordanWigner(o)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if q.Len() != 8 || q.MaxOrder() != 4 || !q.IsAntiHermitian(1e-15) {
		t.Fatalf("%s", q)
	}
	for _, term := range q.Terms() {
		if c := imag(term.Coeff); c != 0.125 && c != -0.125 {
			t.Fatalf("%s", q)
		}
	}
}

func TestInvalidExcitationIndices(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p1, p2 [2]int
	}{
		{p1: [2]int{0, 1}, p2: [2]int{1, 2}},
		{p1: [2]int{0, 0}, p2: [2]int{2, 3}},
		{p1: [2]int{0, 1}, p2: [2]int{3, 3}},
		{p1: [2]int{-1, 1}, p2: [2]int{2, 3}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v", test.p1, test.p2), func(t *testing.T) {
			t.Parallel()
			_, err := DoubleExcitation(test.p1, test.p2)
			if !errors.Is(err, ErrInvalidExcitationIndices) {
				t.Fatalf("%+v", err)
			}
		})
	}

	if _, err := SingleExcitation(2, 2); !errors.Is(err, ErrInvalidExcitationIndices) {
		t.Fatalf("%+v", err)
	}
}
