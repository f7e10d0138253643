// Package axis translates between pixel offsets and cell identities along
// one axis of a rendered grid. A Mapper captures a single render pass:
// the identifiers in display order, the pixel start of every cell band and
// the uniform band size. Group gaps are encoded as jumps between
// consecutive starts larger than the band size, so a pixel inside a gap
// resolves to no cell at all.
//
// Mappers are immutable; every re-render builds fresh ones.
package axis

import (
	"fmt"
	"math"
	"sort"
)

// Mapper resolves pixels to cells on one axis. All lookups are O(log n)
// over the cell start positions.
type Mapper struct {
	order     []string
	gaps      []int
	positions []float64
	cellSize  float64
}

// SnapRange is the minimal inclusive index range touched by a pixel
// interval, together with the interval snapped to exact cell edges.
type SnapRange struct {
	StartIndex int
	EndIndex   int
	PixelStart float64
	PixelEnd   float64
}

// NewMapper builds a Mapper from identifiers in display order, the visual
// indices preceded by a gap, the cell start positions and the band size.
// Positions must be strictly increasing with at least cellSize between
// consecutive starts, so cell bands never overlap.
func NewMapper(order []string, gaps []int, positions []float64, cellSize float64) (*Mapper, error) {
	if len(order) != len(positions) {
		return nil, fmt.Errorf("axis: %d identifiers but %d positions", len(order), len(positions))
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("axis: cell size must be positive, got %g", cellSize)
	}
	for i := 1; i < len(positions); i++ {
		if positions[i-1]+cellSize > positions[i] {
			return nil, fmt.Errorf("axis: cell %d at %g overlaps cell %d at %g (size %g)",
				i-1, positions[i-1], i, positions[i], cellSize)
		}
	}
	for _, g := range gaps {
		if g < 0 || g >= len(order) {
			return nil, fmt.Errorf("axis: gap index %d out of range [0, %d)", g, len(order))
		}
	}

	m := &Mapper{
		order:     append([]string(nil), order...),
		gaps:      append([]int(nil), gaps...),
		positions: append([]float64(nil), positions...),
		cellSize:  cellSize,
	}
	sort.Ints(m.gaps)
	return m, nil
}

// Size returns the number of cells on the axis.
func (m *Mapper) Size() int { return len(m.order) }

// CellSize returns the pixel size of one cell band.
func (m *Mapper) CellSize() float64 { return m.cellSize }

// ID returns the identifier at a visual index.
func (m *Mapper) ID(i int) (string, bool) {
	if i < 0 || i >= len(m.order) {
		return "", false
	}
	return m.order[i], true
}

// IDs returns a copy of the identifiers in display order.
func (m *Mapper) IDs() []string {
	return append([]string(nil), m.order...)
}

// Gaps returns the visual indices preceded by a gap, sorted.
func (m *Mapper) Gaps() []int {
	return append([]int(nil), m.gaps...)
}

// Positions returns a copy of the cell start positions.
func (m *Mapper) Positions() []float64 {
	return append([]float64(nil), m.positions...)
}

// PixelToIndex resolves a pixel offset to the visual index of the cell
// whose band contains it. Pixels inside a gap, before the first cell or
// past the last band resolve to no cell.
func (m *Mapper) PixelToIndex(px float64) (int, bool) {
	if len(m.positions) == 0 || math.IsNaN(px) {
		return 0, false
	}
	// Largest i with positions[i] <= px.
	i := sort.Search(len(m.positions), func(k int) bool { return m.positions[k] > px }) - 1
	if i < 0 {
		return 0, false
	}
	if px >= m.positions[i]+m.cellSize {
		return 0, false
	}
	return i, true
}

// IDRange returns the identifiers in the half-open visual index range
// [start, end), clamped to the axis.
func (m *Mapper) IDRange(start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(m.order) {
		end = len(m.order)
	}
	if start >= end {
		return nil
	}
	return append([]string(nil), m.order[start:end]...)
}

// FirstOverlapping returns the smallest visual index whose band ends
// after the pixel, i.e. the first cell overlapping [px, +inf). Reports
// false when the pixel lies past the end of the last band.
func (m *Mapper) FirstOverlapping(px float64) (int, bool) {
	if len(m.positions) == 0 || math.IsNaN(px) {
		return 0, false
	}
	i := sort.Search(len(m.positions), func(k int) bool { return m.positions[k]+m.cellSize > px })
	if i == len(m.positions) {
		return 0, false
	}
	return i, true
}

// LastOverlapping returns the largest visual index whose band starts
// before the pixel, i.e. the last cell overlapping (-inf, px). Reports
// false when the pixel lies at or before the start of the first band.
func (m *Mapper) LastOverlapping(px float64) (int, bool) {
	if len(m.positions) == 0 || math.IsNaN(px) {
		return 0, false
	}
	i := sort.Search(len(m.positions), func(k int) bool { return m.positions[k] >= px }) - 1
	if i < 0 {
		return 0, false
	}
	return i, true
}

// CellBounds returns the pixel interval [start, end) covered by the cell
// at a visual index.
func (m *Mapper) CellBounds(i int) (start, end float64, ok bool) {
	if i < 0 || i >= len(m.positions) {
		return 0, 0, false
	}
	return m.positions[i], m.positions[i] + m.cellSize, true
}

// Snap computes the minimal inclusive index range touched anywhere in the
// pixel interval [px0, px1] and snaps the interval to the exact edges of
// those cells. Reports false when the interval lies entirely outside the
// axis or strictly inside a gap, so no cell is touched.
func (m *Mapper) Snap(px0, px1 float64) (SnapRange, bool) {
	start, ok := m.FirstOverlapping(px0)
	if !ok {
		return SnapRange{}, false
	}
	end, ok := m.LastOverlapping(px1)
	if !ok {
		return SnapRange{}, false
	}
	if start > end {
		return SnapRange{}, false
	}
	return SnapRange{
		StartIndex: start,
		EndIndex:   end,
		PixelStart: m.positions[start],
		PixelEnd:   m.positions[end] + m.cellSize,
	}, true
}
