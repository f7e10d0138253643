package interact

import (
	"github.com/rfroumine/dream-heatmap/internal/axis"
	"github.com/rfroumine/dream-heatmap/internal/geom"
)

// Context is everything the engine needs to resolve pixels for one render
// pass: the two axis mappers and the grid rectangle they cover. The host
// swaps in a fresh Context after every re-render, so the engine never
// reads a stale mapper.
type Context struct {
	Rows *axis.Mapper
	Cols *axis.Mapper
	Grid geom.Rect
}

func (c Context) ready() bool {
	return c.Rows != nil && c.Cols != nil && !c.Grid.Empty()
}
