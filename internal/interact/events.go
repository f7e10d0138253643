// Package interact implements the selection engine for the heatmap grid:
// a drag state machine with cell snapping, dendrogram branch and category
// selection, and the zoom viewport. The engine is single threaded; hosts
// serialize events and deliver each one to completion. All outputs flow
// through typed callbacks registered at construction.
package interact

import "github.com/rfroumine/dream-heatmap/internal/geom"

// Selection carries the identifiers covered by a completed selection.
// Both lists empty means the selection was cleared. Label is set for
// category selections only.
type Selection struct {
	RowIDs []string `json:"row_ids"`
	ColIDs []string `json:"col_ids"`
	Label  string   `json:"label,omitempty"`
}

// ZoomRange is a half-open visual index window on both axes, expressed in
// the coordinates of the mappers current at the moment it was produced.
// The same shape records the selection bounds that seed a zoom.
type ZoomRange struct {
	RowStart int `json:"row_start"`
	RowEnd   int `json:"row_end"`
	ColStart int `json:"col_start"`
	ColEnd   int `json:"col_end"`
}

// Hooks are the engine's outputs. Nil callbacks are skipped.
type Hooks struct {
	// OnSelection fires when a selection completes: drag release,
	// degenerate click (empty), branch click or category click.
	OnSelection func(Selection)

	// OnZoom fires when the viewport changes. Nil means unzoomed.
	OnZoom func(*ZoomRange)

	// OnFeedback replaces the highlight rectangles shown over the grid.
	// Empty means clear.
	OnFeedback func([]geom.Rect)
}

func (h Hooks) emitSelection(s Selection) {
	if h.OnSelection != nil {
		h.OnSelection(s)
	}
}

func (h Hooks) emitZoom(z *ZoomRange) {
	if h.OnZoom != nil {
		h.OnZoom(z)
	}
}

func (h Hooks) emitFeedback(rects []geom.Rect) {
	if h.OnFeedback != nil {
		h.OnFeedback(rects)
	}
}
