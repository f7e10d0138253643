// Package layout computes the pixel geometry of the heatmap grid: per-axis
// cell tracks with group gaps, and the composed view with margins and
// budget-fitted cell sizes.
package layout

// CellTrack holds the pixel start position of every cell along one axis.
// Cells are uniform size; gaps insert extra whitespace before the marked
// visual indices.
type CellTrack struct {
	positions []float64
	cellSize  float64
	offset    float64
}

// NewCellTrack computes cell start positions by walking the axis: before
// each gap index the cursor advances by gapSize, then every cell occupies
// cellSize pixels.
func NewCellTrack(n int, cellSize float64, gaps []int, gapSize, offset float64) *CellTrack {
	gapSet := make(map[int]bool, len(gaps))
	for _, g := range gaps {
		gapSet[g] = true
	}
	positions := make([]float64, n)
	current := offset
	for i := 0; i < n; i++ {
		if gapSet[i] {
			current += gapSize
		}
		positions[i] = current
		current += cellSize
	}
	return &CellTrack{positions: positions, cellSize: cellSize, offset: offset}
}

// Len returns the number of cells in the track.
func (t *CellTrack) Len() int { return len(t.positions) }

// CellSize returns the pixel size of one cell.
func (t *CellTrack) CellSize() float64 { return t.cellSize }

// Positions returns a copy of the cell start positions.
func (t *CellTrack) Positions() []float64 {
	return append([]float64(nil), t.positions...)
}

// Start returns the pixel start of the cell at index i.
func (t *CellTrack) Start(i int) float64 { return t.positions[i] }

// Span returns the total pixel extent of the track, cells and gaps
// included, measured from the track offset.
func (t *CellTrack) Span() float64 {
	if len(t.positions) == 0 {
		return 0
	}
	return t.positions[len(t.positions)-1] + t.cellSize - t.offset
}
