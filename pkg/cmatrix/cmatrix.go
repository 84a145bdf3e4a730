// Package cmatrix holds the symmetric congruency matrix of a run and the
// summary statistics computed over it.
package cmatrix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Sentinel errors.
var (
	// ErrEmpty indicates a matrix was requested with no labels.
	ErrEmpty = errors.New("cmatrix: no labels")
	// ErrOutOfRange indicates a row or column index outside the matrix.
	ErrOutOfRange = errors.New("cmatrix: index out of range")
)

// Matrix is a labelled square matrix of pairwise congruency values.
// Cell (i, j) always equals cell (j, i).
type Matrix struct {
	labels []string
	cells  *mat.SymDense
}

// Stats summarises the strictly upper-triangular cells of a Matrix.
type Stats struct {
	Mean   float64 `json:"mean"   yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Pairs  int     `json:"pairs"  yaml:"pairs"`
}

// New creates a zeroed matrix with one row and column per label.
func New(labels []string) (*Matrix, error) {
	if len(labels) == 0 {
		return nil, ErrEmpty
	}

	return &Matrix{
		labels: slices.Clone(labels),
		cells:  mat.NewSymDense(len(labels), nil),
	}, nil
}

// Clone returns an independent copy of m.
func (m *Matrix) Clone() *Matrix {
	cells := mat.NewSymDense(m.Size(), nil)
	cells.CopySym(m.cells)

	return &Matrix{labels: slices.Clone(m.labels), cells: cells}
}

// Size returns the number of rows (and columns).
func (m *Matrix) Size() int {
	return len(m.labels)
}

// Labels returns a copy of the row labels.
func (m *Matrix) Labels() []string {
	return slices.Clone(m.labels)
}

// Zero resets every cell to 0.
func (m *Matrix) Zero() {
	m.cells.Zero()
}

// Set stores v at (i, j) and (j, i).
func (m *Matrix) Set(i, j int, v float64) error {
	err := m.check(i, j)
	if err != nil {
		return err
	}

	m.cells.SetSym(i, j, v)

	return nil
}

// SetDiagonal stores v on every diagonal cell.
func (m *Matrix) SetDiagonal(v float64) {
	for i := range m.labels {
		m.cells.SetSym(i, i, v)
	}
}

// At returns the value at (i, j).
func (m *Matrix) At(i, j int) (float64, error) {
	err := m.check(i, j)
	if err != nil {
		return 0, err
	}

	return m.cells.At(i, j), nil
}

// Rows returns the matrix as a fresh slice of rows.
func (m *Matrix) Rows() [][]float64 {
	n := m.Size()
	rows := make([][]float64, n)

	for i := range rows {
		rows[i] = make([]float64, n)

		for j := range rows[i] {
			rows[i][j] = m.cells.At(i, j)
		}
	}

	return rows
}

// UpperTriangle returns the cells above the diagonal, row by row.
func (m *Matrix) UpperTriangle() []float64 {
	n := m.Size()
	values := make([]float64, 0, n*(n-1)/2)

	for i := range n {
		for j := i + 1; j < n; j++ {
			values = append(values, m.cells.At(i, j))
		}
	}

	return values
}

// Statistics returns the mean and the sample standard deviation of the
// strictly upper-triangular cells. With a single pair the deviation is 0;
// a 1x1 matrix has no pairs and yields zero statistics.
func (m *Matrix) Statistics() Stats {
	values := m.UpperTriangle()

	switch len(values) {
	case 0:
		return Stats{}
	case 1:
		return Stats{Mean: values[0], Pairs: 1}
	}

	mean, std := stat.MeanStdDev(values, nil)

	return Stats{Mean: mean, StdDev: std, Pairs: len(values)}
}

// WriteText writes one line per row: the label followed by every cell.
func (m *Matrix) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for i, label := range m.labels {
		fmt.Fprintf(bw, "%s ", label)

		for j := range m.labels {
			fmt.Fprintf(bw, "%f ", m.cells.At(i, j))
		}

		bw.WriteByte('\n')
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write matrix: %w", err)
	}

	return nil
}

func (m *Matrix) check(i, j int) error {
	n := m.Size()
	if i < 0 || j < 0 || i >= n || j >= n {
		return fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfRange, i, j, n, n)
	}

	return nil
}
