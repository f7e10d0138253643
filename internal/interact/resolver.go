package interact

import (
	"github.com/rfroumine/dream-heatmap/internal/axis"
	"github.com/rfroumine/dream-heatmap/internal/geom"
)

// RectSelection is a pixel rectangle resolved to whole cells: the covered
// identifiers on both axes, the index ranges, and the rectangle snapped
// to exact cell edges.
type RectSelection struct {
	RowIDs  []string
	ColIDs  []string
	Rows    axis.SnapRange
	Cols    axis.SnapRange
	Snapped geom.Rect
}

// ResolveRect snaps a rectangle to the cells it touches on both axes.
// The vertical extent resolves against the row mapper, the horizontal
// against the column mapper. If either axis touches no cell the whole
// resolution fails: callers may keep showing the raw rectangle as
// transient feedback but must not treat it as a selection.
func ResolveRect(r geom.Rect, rows, cols *axis.Mapper) (RectSelection, bool) {
	rowSnap, ok := rows.Snap(r.Y, r.Bottom())
	if !ok {
		return RectSelection{}, false
	}
	colSnap, ok := cols.Snap(r.X, r.Right())
	if !ok {
		return RectSelection{}, false
	}
	return RectSelection{
		RowIDs: rows.IDRange(rowSnap.StartIndex, rowSnap.EndIndex+1),
		ColIDs: cols.IDRange(colSnap.StartIndex, colSnap.EndIndex+1),
		Rows:   rowSnap,
		Cols:   colSnap,
		Snapped: geom.Rect{
			X: colSnap.PixelStart,
			Y: rowSnap.PixelStart,
			W: colSnap.PixelEnd - colSnap.PixelStart,
			H: rowSnap.PixelEnd - rowSnap.PixelStart,
		},
	}, true
}
