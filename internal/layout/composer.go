package layout

import (
	"github.com/rfroumine/dream-heatmap/internal/geom"
	"github.com/rfroumine/dream-heatmap/internal/idmap"
)

// Default sizing for composed views.
const (
	DefaultCellSize  = 12.0
	DefaultGapSize   = 6.0
	DefaultPadding   = 40.0
	MinCellSize      = 0.05 // sub-pixel cells for large matrices
	MaxCellSize      = 50.0
	DefaultMaxWidth  = 1000.0
	DefaultMaxHeight = 500.0
)

// Composer fits a grid of cells into a bounded canvas. Cell sizes are
// budget-based per axis: whatever pixel space remains after padding and
// gaps is divided evenly among the cells, clamped to sane bounds.
type Composer struct {
	cellSize  float64
	gapSize   float64
	padding   float64
	maxWidth  float64
	maxHeight float64
}

// Config holds Composer sizing parameters. Zero values fall back to the
// package defaults.
type Config struct {
	CellSize  float64
	GapSize   float64
	Padding   float64
	MaxWidth  float64
	MaxHeight float64
}

// NewComposer builds a Composer from the config, applying defaults and
// clamping the base cell size.
func NewComposer(cfg Config) *Composer {
	if cfg.CellSize == 0 {
		cfg.CellSize = DefaultCellSize
	}
	if cfg.GapSize == 0 {
		cfg.GapSize = DefaultGapSize
	}
	if cfg.Padding == 0 {
		cfg.Padding = DefaultPadding
	}
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = DefaultMaxWidth
	}
	if cfg.MaxHeight == 0 {
		cfg.MaxHeight = DefaultMaxHeight
	}
	return &Composer{
		cellSize:  clampCell(cfg.CellSize),
		gapSize:   cfg.GapSize,
		padding:   cfg.Padding,
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
	}
}

// Spec is the composed pixel geometry of one rendered view.
type Spec struct {
	Heatmap geom.Rect
	Rows    *CellTrack
	Cols    *CellTrack

	TotalWidth  float64
	TotalHeight float64
	NRows       int
	NCols       int
}

// Compute lays out the grid for the given row and column views.
func (c *Composer) Compute(rows, cols *idmap.Mapping) Spec {
	nRows := rows.Size()
	nCols := cols.Size()
	rowGaps := rows.Gaps()
	colGaps := cols.Gaps()

	rowGapTotal := float64(len(rowGaps)) * c.gapSize
	colGapTotal := float64(len(colGaps)) * c.gapSize

	colCell := c.cellSize
	if nCols > 0 {
		colCell = clampCell((c.maxWidth - 2*c.padding - colGapTotal) / float64(nCols))
	}
	rowCell := c.cellSize
	if nRows > 0 {
		rowCell = clampCell((c.maxHeight - 2*c.padding - rowGapTotal) / float64(nRows))
	}

	originX := c.padding
	originY := c.padding
	rowTrack := NewCellTrack(nRows, rowCell, rowGaps, c.gapSize, originY)
	colTrack := NewCellTrack(nCols, colCell, colGaps, c.gapSize, originX)

	heatmap := geom.Rect{X: originX, Y: originY, W: colTrack.Span(), H: rowTrack.Span()}

	return Spec{
		Heatmap:     heatmap,
		Rows:        rowTrack,
		Cols:        colTrack,
		TotalWidth:  originX + colTrack.Span() + c.padding,
		TotalHeight: originY + rowTrack.Span() + c.padding,
		NRows:       nRows,
		NCols:       nCols,
	}
}

func clampCell(s float64) float64 {
	if s < MinCellSize {
		return MinCellSize
	}
	if s > MaxCellSize {
		return MaxCellSize
	}
	return s
}

// Dict is the JSON shape of a Spec for the layout payload.
type Dict struct {
	Heatmap      geom.Rect `json:"heatmap"`
	RowPositions []float64 `json:"rowPositions"`
	ColPositions []float64 `json:"colPositions"`
	RowCellSize  float64   `json:"rowCellSize"`
	ColCellSize  float64   `json:"colCellSize"`
	TotalWidth   float64   `json:"totalWidth"`
	TotalHeight  float64   `json:"totalHeight"`
	NRows        int       `json:"nRows"`
	NCols        int       `json:"nCols"`
}

// ToDict returns the serializable form of the Spec.
func (s Spec) ToDict() Dict {
	return Dict{
		Heatmap:      s.Heatmap,
		RowPositions: s.Rows.Positions(),
		ColPositions: s.Cols.Positions(),
		RowCellSize:  s.Rows.CellSize(),
		ColCellSize:  s.Cols.CellSize(),
		TotalWidth:   s.TotalWidth,
		TotalHeight:  s.TotalHeight,
		NRows:        s.NRows,
		NCols:        s.NCols,
	}
}
