// Package mat implements sparse matrices of qubit operators and their exact diagonalization.
package mat

import (
	"cmp"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/vqe/pauli"
)

const (
	// MaxQubits is the largest number of qubits whose operators are materialized.
	MaxQubits = 24
)

var (
	PauliX = [][]complex128{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex128{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex128{
		{1, 0},
		{0, -1},
	}
)

type vRowCol struct {
	v   complex128
	row int
	col int
}

// COO is a sparse matrix in coordinate format with entries sorted in row major order.
type COO struct {
	rows int
	cols int
	Data []vRowCol
}

// M returns the sparse form of a dense matrix.
func M(dense [][]complex128) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0]), Data: make([]vRowCol, 0)}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
		}
	}
	return m
}

// Zeros returns a zero matrix.
func Zeros(rows, cols int) *COO {
	return &COO{rows: rows, cols: cols, Data: make([]vRowCol, 0)}
}

// Identity returns the identity matrix.
func Identity(rows int) *COO {
	m := Zeros(rows, rows)
	for i := 0; i < rows; i++ {
		m.Data = append(m.Data, vRowCol{v: 1, row: i, col: i})
	}
	return m
}

// FromOperator returns the matrix of a qubit operator in the computational basis,
// where qubit q is bit q of the basis index.
func FromOperator(o *pauli.Operator, numQubits int) (*COO, error) {
	if n := o.NumQubits(); n > numQubits {
		return nil, errors.Errorf("operator acts on %d qubits, expected at most %d", n, numQubits)
	}
	if numQubits > MaxQubits {
		return nil, errors.Errorf("%d qubits, at most %d", numQubits, MaxQubits)
	}

	dim := 1 << numQubits
	entries := make(map[[2]int]complex128)
	for _, t := range o.Terms() {
		flip, phase := t.String.Masks()
		var coeff complex128 = t.Coeff
		for _, f := range t.String {
			if f.Op == pauli.Y {
				coeff *= 1i
			}
		}
		for col := 0; col < dim; col++ {
			row := col ^ int(flip)
			v := coeff
			if bits.OnesCount64(uint64(col)&phase)%2 == 1 {
				v = -v
			}
			entries[[2]int{row, col}] += v
		}
	}

	m := Zeros(dim, dim)
	for rc, v := range entries {
		if cmplx.Abs(v) < pauli.Tol {
			continue
		}
		m.Data = append(m.Data, vRowCol{v: v, row: rc[0], col: rc[1]})
	}
	slices.SortFunc(m.Data, rowMajor)
	return m, nil
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

// NumNonZero returns the number of stored entries.
func (m *COO) NumNonZero() int { return len(m.Data) }

// At returns the entry at row i and column j.
func (m *COO) At(i, j int) complex128 {
	k, ok := slices.BinarySearchFunc(m.Data, [2]int{i, j}, func(v vRowCol, rc [2]int) int {
		if c := cmp.Compare(v.row, rc[0]); c != 0 {
			return c
		}
		return cmp.Compare(v.col, rc[1])
	})
	if !ok {
		return 0
	}
	return m.Data[k].v
}

func (a *COO) Equal(b *COO) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i, av := range a.Data {
		bv := b.Data[i]
		if av != bv {
			return false
		}
	}
	return true
}

// Slice returns the submatrix of rows [y[0], y[1]) and columns [x[0], x[1]).
// Negative bounds count from the end.
func (m *COO) Slice(yBoundN, xBoundN [2]int) *COO {
	yBound, xBound := yBoundN, xBoundN
	for i := 0; i < 2; i++ {
		if yBound[i] < 0 {
			yBound[i] += m.rows
		}
		if xBound[i] < 0 {
			xBound[i] += m.cols
		}
	}

	s := &COO{rows: yBound[1] - yBound[0], cols: xBound[1] - xBound[0], Data: make([]vRowCol, 0)}
	for _, v := range m.Data {
		if v.row < yBound[0] {
			continue
		}
		if v.row >= yBound[1] {
			break
		}
		if v.col < xBound[0] || v.col >= xBound[1] {
			continue
		}
		s.Data = append(s.Data, vRowCol{v: v.v, row: v.row - yBound[0], col: v.col - xBound[0]})
	}
	return s
}

// Add sets a to a + c b.
func (a *COO) Add(c complex128, b *COO) {
	if a.rows != b.rows || a.cols != b.cols {
		panic(fmt.Sprintf("wrong dimensions %dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	sum := make(map[[2]int]complex128, len(a.Data)+len(b.Data))
	for _, v := range a.Data {
		sum[[2]int{v.row, v.col}] += v.v
	}
	for _, v := range b.Data {
		sum[[2]int{v.row, v.col}] += c * v.v
	}

	a.Data = a.Data[:0]
	for rc, v := range sum {
		if v == 0 {
			continue
		}
		a.Data = append(a.Data, vRowCol{v: v, row: rc[0], col: rc[1]})
	}
	slices.SortFunc(a.Data, rowMajor)
}

// Kron sets a to the Kronecker product a ⊗ b.
func (a *COO) Kron(b *COO) {
	rows := a.rows * b.rows
	cols := a.cols * b.cols

	data := make([]vRowCol, 0, len(a.Data)*len(b.Data))
	for _, av := range a.Data {
		for _, bv := range b.Data {
			ky := av.row*b.rows + bv.row
			kx := av.col*b.cols + bv.col
			data = append(data, vRowCol{v: av.v * bv.v, row: ky, col: kx})
		}
	}
	data = slices.DeleteFunc(data, func(v vRowCol) bool {
		return v.v == 0
	})
	slices.SortFunc(data, rowMajor)
	a.rows, a.cols, a.Data = rows, cols, data
}

// MulVec sets dst to m x.
func (m *COO) MulVec(dst, x []complex128) {
	if len(x) != m.cols || len(dst) != m.rows {
		panic(fmt.Sprintf("wrong dimensions %dx%d %d %d", m.rows, m.cols, len(x), len(dst)))
	}
	clear(dst)
	for _, v := range m.Data {
		dst[v.row] += v.v * x[v.col]
	}
}

// Expectation returns <x|m|x>.
func (m *COO) Expectation(x []complex128) complex128 {
	if len(x) != m.cols || m.rows != m.cols {
		panic(fmt.Sprintf("wrong dimensions %dx%d %d", m.rows, m.cols, len(x)))
	}
	var e complex128
	for _, v := range m.Data {
		e += cmplx.Conj(x[v.row]) * v.v * x[v.col]
	}
	return e
}

// Dense returns the dense form of m.
func (m *COO) Dense() [][]complex128 {
	dense := make([][]complex128, m.rows)
	for i := range dense {
		dense[i] = make([]complex128, m.cols)
	}

	for _, v := range m.Data {
		dense[v.row][v.col] = v.v
	}

	return dense
}

func (m *COO) String() string {
	dense := m.Dense()
	lines := make([]string, 0, m.rows)
	for _, row := range dense {
		cs := make([]string, 0, len(row))
		for _, v := range row {
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		lines = append(lines, strings.Join(cs, "\t"))
	}
	return strings.Join(lines, "\n")
}

// ValVec is an eigenvalue and its eigenvector.
type ValVec struct {
	Val float64
	Vec []complex128
}

// Eigen returns the eigen decomposition of a real symmetric matrix, in ascending order of eigenvalues.
func (m *COO) Eigen() ([]ValVec, error) {
	if m.rows != m.cols {
		return nil, errors.Errorf("not square %dx%d", m.rows, m.cols)
	}
	sym := mat.NewSymDense(m.rows, nil)
	for _, v := range m.Data {
		if imag(v.v) != 0 {
			return nil, errors.Errorf("not real %v at %d %d", v.v, v.row, v.col)
		}
		if v.row > v.col {
			continue
		}
		if t := m.At(v.col, v.row); t != v.v {
			return nil, errors.Errorf("not symmetric %v %v at %d %d", v.v, t, v.row, v.col)
		}
		sym.SetSym(v.row, v.col, real(v.v))
	}
	for _, v := range m.Data {
		if v.row > v.col && m.At(v.col, v.row) == 0 {
			return nil, errors.Errorf("not symmetric at %d %d", v.row, v.col)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, errors.Errorf("eig.Factorize failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	vvs := make([]ValVec, 0, len(vals))
	for i, v := range vals {
		vec := make([]complex128, 0, m.rows)
		for j := 0; j < m.rows; j++ {
			vec = append(vec, complex(vecs.At(j, i), 0))
		}
		vvs = append(vvs, ValVec{Val: v, Vec: vec})
	}
	slices.SortStableFunc(vvs, func(a, b ValVec) int { return cmp.Compare(a.Val, b.Val) })
	return vvs, nil
}

// GroundState returns the lowest eigenvalue and eigenvector of a qubit operator.
func GroundState(o *pauli.Operator, numQubits int) (ValVec, error) {
	m, err := FromOperator(o, numQubits)
	if err != nil {
		return ValVec{}, errors.Wrap(err, "")
	}
	vvs, err := m.Eigen()
	if err != nil {
		return ValVec{}, errors.Wrap(err, "")
	}
	return vvs[0], nil
}

// Gerschgorin returns a lower bound on the real parts of the eigenvalues of m.
func (m *COO) Gerschgorin() float64 {
	type circle struct {
		center complex128
		radius float64
	}
	circles := make(map[int]circle, m.rows)
	for _, v := range m.Data {
		c := circles[v.row]
		if v.row == v.col {
			c.center = v.v
		} else {
			c.radius += cmplx.Abs(v.v)
		}
		circles[v.row] = c
	}

	floor := math.Inf(1)
	// Rows without entries are circles at the origin with zero radius.
	if len(circles) < m.rows {
		floor = 0
	}
	for _, c := range circles {
		floor = min(floor, real(c.center)-c.radius)
	}
	return floor
}

func rowMajor(a, b vRowCol) int {
	if c := cmp.Compare(a.row, b.row); c != 0 {
		return c
	}
	return cmp.Compare(a.col, b.col)
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := strconv.FormatFloat(v, 'g', -1, 64)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
