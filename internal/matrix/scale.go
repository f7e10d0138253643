package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaling methods. Row-wise scaling normalizes each row independently,
// column-wise each column.
const (
	ScaleNone   = "none"
	ScaleZScore = "zscore"
	ScaleCenter = "center"
	ScaleMinMax = "minmax"
)

// Scaled returns a new Matrix with each row (or column) normalized by the
// given method. NaNs are skipped by the statistics and preserved in the
// output. A zero spread scales to plain centering, never to infinities.
func (m *Matrix) Scaled(method string, rowWise bool) (*Matrix, error) {
	switch method {
	case ScaleNone:
		return m, nil
	case ScaleZScore, ScaleCenter, ScaleMinMax:
	default:
		return nil, fmt.Errorf("matrix: unknown scaling method %q", method)
	}

	out := append([]float64(nil), m.values...)
	nBands := m.NRows()
	if !rowWise {
		nBands = m.NCols()
	}

	band := make([]float64, 0, len(m.values)/max(nBands, 1))
	for b := 0; b < nBands; b++ {
		band = band[:0]
		m.eachInBand(b, rowWise, func(_ int, v float64) {
			if !math.IsNaN(v) {
				band = append(band, v)
			}
		})
		shift, scale := bandParams(method, band)
		m.eachInBand(b, rowWise, func(k int, v float64) {
			out[k] = (v - shift) / scale
		})
	}

	sc, err := New(out, m.rowIDs, m.colIDs)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// eachInBand visits every value of row b (rowWise) or column b, passing
// the flat index and the value.
func (m *Matrix) eachInBand(b int, rowWise bool, fn func(k int, v float64)) {
	if rowWise {
		base := b * m.NCols()
		for j := 0; j < m.NCols(); j++ {
			fn(base+j, m.values[base+j])
		}
		return
	}
	for i := 0; i < m.NRows(); i++ {
		k := i*m.NCols() + b
		fn(k, m.values[k])
	}
}

// bandParams computes the shift and divisor for one band of finite
// values. An empty band or zero spread leaves a divisor of 1.
func bandParams(method string, finite []float64) (shift, scale float64) {
	scale = 1
	if len(finite) == 0 {
		return 0, 1
	}
	switch method {
	case ScaleZScore:
		shift = stat.Mean(finite, nil)
		if sd := stat.StdDev(finite, nil); sd > 0 && !math.IsNaN(sd) {
			scale = sd
		}
	case ScaleCenter:
		shift = stat.Mean(finite, nil)
	case ScaleMinMax:
		lo, hi := finite[0], finite[0]
		for _, v := range finite[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		shift = lo
		if hi > lo {
			scale = hi - lo
		}
	}
	return shift, scale
}
