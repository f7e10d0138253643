// Package matrix provides the dense value grid behind a heatmap: row
// major float64 storage addressed by row and column identifiers, with
// slicing, range queries and value scaling.
package matrix

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Matrix is an immutable dense matrix with identifier-addressed axes.
// Missing values are NaN and pass through untouched.
type Matrix struct {
	values []float64
	rowIDs []string
	colIDs []string
	rowIdx map[string]int
	colIdx map[string]int
}

// New builds a Matrix over row-major values. The value count must equal
// len(rowIDs) * len(colIDs) and identifiers must be unique per axis.
func New(values []float64, rowIDs, colIDs []string) (*Matrix, error) {
	if len(values) != len(rowIDs)*len(colIDs) {
		return nil, fmt.Errorf("matrix: %d values for %dx%d shape",
			len(values), len(rowIDs), len(colIDs))
	}
	rowIdx, err := indexIDs(rowIDs, "row")
	if err != nil {
		return nil, err
	}
	colIdx, err := indexIDs(colIDs, "column")
	if err != nil {
		return nil, err
	}
	return &Matrix{
		values: append([]float64(nil), values...),
		rowIDs: append([]string(nil), rowIDs...),
		colIDs: append([]string(nil), colIDs...),
		rowIdx: rowIdx,
		colIdx: colIdx,
	}, nil
}

func indexIDs(ids []string, axis string) (map[string]int, error) {
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := idx[id]; dup {
			return nil, fmt.Errorf("matrix: duplicate %s identifier %q", axis, id)
		}
		idx[id] = i
	}
	return idx, nil
}

// NRows returns the number of rows.
func (m *Matrix) NRows() int { return len(m.rowIDs) }

// NCols returns the number of columns.
func (m *Matrix) NCols() int { return len(m.colIDs) }

// RowIDs returns a copy of the row identifiers.
func (m *Matrix) RowIDs() []string { return append([]string(nil), m.rowIDs...) }

// ColIDs returns a copy of the column identifiers.
func (m *Matrix) ColIDs() []string { return append([]string(nil), m.colIDs...) }

// At returns the value at positional indices (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.values[i*len(m.colIDs)+j]
}

// Value returns the value addressed by identifiers.
func (m *Matrix) Value(rowID, colID string) (float64, bool) {
	i, ok := m.rowIdx[rowID]
	if !ok {
		return 0, false
	}
	j, ok := m.colIdx[colID]
	if !ok {
		return 0, false
	}
	return m.At(i, j), true
}

// Values returns a copy of the row-major values.
func (m *Matrix) Values() []float64 {
	return append([]float64(nil), m.values...)
}

// Slice extracts the submatrix addressed by the given identifiers, in the
// given order. Unknown identifiers are an error.
func (m *Matrix) Slice(rowIDs, colIDs []string) (*Matrix, error) {
	rows := make([]int, len(rowIDs))
	for k, id := range rowIDs {
		i, ok := m.rowIdx[id]
		if !ok {
			return nil, fmt.Errorf("matrix: unknown row identifier %q", id)
		}
		rows[k] = i
	}
	cols := make([]int, len(colIDs))
	for k, id := range colIDs {
		j, ok := m.colIdx[id]
		if !ok {
			return nil, fmt.Errorf("matrix: unknown column identifier %q", id)
		}
		cols[k] = j
	}

	values := make([]float64, 0, len(rows)*len(cols))
	for _, i := range rows {
		base := i * len(m.colIDs)
		for _, j := range cols {
			values = append(values, m.values[base+j])
		}
	}
	return New(values, rowIDs, colIDs)
}

// FiniteRange returns the min and max over all finite values, or (0, 1)
// when nothing is finite.
func (m *Matrix) FiniteRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	found := false
	for _, v := range m.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		found = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !found {
		return 0, 1
	}
	return lo, hi
}

// RobustRange returns the (pLo, pHi) quantiles of the finite values,
// trimming outliers for color scaling. Falls back to FiniteRange when
// nothing is finite.
func (m *Matrix) RobustRange(pLo, pHi float64) (lo, hi float64) {
	finite := make([]float64, 0, len(m.values))
	for _, v := range m.values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return m.FiniteRange()
	}
	sort.Float64s(finite)
	lo = stat.Quantile(pLo, stat.Empirical, finite, nil)
	hi = stat.Quantile(pHi, stat.Empirical, finite, nil)
	return lo, hi
}
