package simulation

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PathEnsemble is an immutable (time point x path) surface of simulated
// values sharing one TimeGrid.
type PathEnsemble struct {
	times  TimeGrid
	values *mat.Dense
}

// Dims returns the number of time points and paths
func (e *PathEnsemble) Dims() (steps, paths int) {
	return e.values.Dims()
}

// At returns the value of path p at time index t
func (e *PathEnsemble) At(t, p int) float64 {
	return e.values.At(t, p)
}

// Times returns a copy of the time grid
func (e *PathEnsemble) Times() TimeGrid {
	out := make(TimeGrid, len(e.times))
	copy(out, e.times)
	return out
}

// Row returns a copy of the cross-section at time index t
func (e *PathEnsemble) Row(t int) []float64 {
	return mat.Row(nil, t, e.values)
}

// Path returns a copy of trajectory p
func (e *PathEnsemble) Path(p int) []float64 {
	return mat.Col(nil, p, e.values)
}

// Matrix returns a read-only view of the surface
func (e *PathEnsemble) Matrix() mat.Matrix {
	return view{e.values}
}

// Mean returns the cross-sectional mean at every time point
func (e *PathEnsemble) Mean() []float64 {
	rows, _ := e.values.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = stat.Mean(e.values.RawRowView(i), nil)
	}
	return out
}

// view exposes a Dense through mat.Matrix only, so callers cannot reach
// the backing storage
type view struct {
	m *mat.Dense
}

func (v view) Dims() (r, c int) { return v.m.Dims() }

func (v view) At(i, j int) float64 { return v.m.At(i, j) }

func (v view) T() mat.Matrix { return mat.Transpose{Matrix: v} }
