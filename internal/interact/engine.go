package interact

import "github.com/rfroumine/dream-heatmap/internal/geom"

// DragThreshold is the minimum rectangle extent, in pixels, before a
// pointer movement counts as a drag rather than noise.
const DragThreshold = 3.0

type dragPhase int

const (
	dragIdle dragPhase = iota
	dragActive
)

type dragState struct {
	phase    dragPhase
	originX  float64
	originY  float64
	lastX    float64
	lastY    float64
	exceeded bool
}

// Engine owns the interaction state for one heatmap view: the drag
// machine, the last selection bounds and the zoom viewport. It is not
// safe for concurrent use; the host serializes events.
type Engine struct {
	hooks Hooks
	ctx   Context

	drag            dragState
	hoverSuppressed bool

	// bounds is the half-open index window of the most recent resolved
	// selection. Cleared on every context update and on zoom changes.
	bounds *ZoomRange

	// view is the current viewport. Nil when unzoomed. Only ZoomToSelection
	// and ResetZoom touch it; context updates never do.
	view *ZoomRange
}

// NewEngine builds an Engine with the given callbacks. The engine is
// inert until the first UpdateContext call.
func NewEngine(hooks Hooks) *Engine {
	return &Engine{hooks: hooks}
}

// UpdateContext atomically replaces the mappers and grid geometry after a
// re-render. Any recorded selection bounds refer to the old coordinate
// space and are dropped; the zoom viewport is left untouched.
func (e *Engine) UpdateContext(ctx Context) {
	e.ctx = ctx
	e.bounds = nil
}

// Dragging reports whether a drag is in progress.
func (e *Engine) Dragging() bool { return e.drag.phase == dragActive }

// HoverSuppressed reports whether hover feedback should be withheld.
func (e *Engine) HoverSuppressed() bool { return e.hoverSuppressed }

// Viewport returns a copy of the current zoom window, or nil when the
// view is unzoomed.
func (e *Engine) Viewport() *ZoomRange {
	if e.view == nil {
		return nil
	}
	v := *e.view
	return &v
}

// PointerDown starts a drag when the press lands inside the grid.
// Presses elsewhere are ignored.
func (e *Engine) PointerDown(x, y float64) {
	if !e.ctx.ready() || e.drag.phase != dragIdle {
		return
	}
	if !e.ctx.Grid.Contains(x, y) {
		return
	}
	e.drag = dragState{phase: dragActive, originX: x, originY: y, lastX: x, lastY: y}
	e.hoverSuppressed = true
}

// PointerMove updates the drag rectangle. Movements that keep the
// rectangle under the drag threshold in both dimensions are noise and
// change nothing. Larger rectangles resolve against the current mappers:
// a successful resolution shows the snapped rectangle, a failed one shows
// the raw rectangle as transient feedback.
func (e *Engine) PointerMove(x, y float64) {
	if e.drag.phase != dragActive {
		return
	}
	e.drag.lastX, e.drag.lastY = x, y

	rect := geom.FromCorners(e.drag.originX, e.drag.originY, x, y)
	if rect.W < DragThreshold && rect.H < DragThreshold {
		return
	}
	e.drag.exceeded = true

	if res, ok := ResolveRect(rect, e.ctx.Rows, e.ctx.Cols); ok {
		e.hooks.emitFeedback([]geom.Rect{res.Snapped})
	} else {
		e.hooks.emitFeedback([]geom.Rect{rect})
	}
}

// PointerUp completes the drag at the release position.
func (e *Engine) PointerUp(x, y float64) {
	e.finishDrag(x, y)
}

// PointerLeave ends the drag as if the pointer had been released at its
// last known position.
func (e *Engine) PointerLeave() {
	e.finishDrag(e.drag.lastX, e.drag.lastY)
}

// finishDrag is the single exit path out of a drag. Hover suppression
// lifts here exactly once, whatever branch the drag ends on.
func (e *Engine) finishDrag(x, y float64) {
	if e.drag.phase != dragActive {
		return
	}
	drag := e.drag
	e.drag = dragState{}
	e.hoverSuppressed = false

	if !drag.exceeded {
		// A plain click: clear the rectangle and report an empty
		// selection so listeners drop whatever they held.
		e.hooks.emitFeedback(nil)
		e.hooks.emitSelection(Selection{RowIDs: []string{}, ColIDs: []string{}})
		return
	}

	rect := geom.FromCorners(drag.originX, drag.originY, x, y)
	res, ok := ResolveRect(rect, e.ctx.Rows, e.ctx.Cols)
	if !ok {
		e.hooks.emitFeedback(nil)
		e.hooks.emitSelection(Selection{RowIDs: []string{}, ColIDs: []string{}})
		return
	}

	e.bounds = &ZoomRange{
		RowStart: res.Rows.StartIndex,
		RowEnd:   res.Rows.EndIndex + 1,
		ColStart: res.Cols.StartIndex,
		ColEnd:   res.Cols.EndIndex + 1,
	}
	e.hooks.emitFeedback([]geom.Rect{res.Snapped})
	e.hooks.emitSelection(Selection{RowIDs: res.RowIDs, ColIDs: res.ColIDs})
}

// ZoomToSelection zooms the viewport to the recorded selection bounds.
// Without usable bounds it is a no-op and returns a hint the caller may
// surface to the user. On success the highlight clears immediately, before
// the host recomputes anything, so the stale rectangle never lingers over
// the new view.
func (e *Engine) ZoomToSelection() (bool, string) {
	b := e.bounds
	if b == nil || b.RowStart >= b.RowEnd || b.ColStart >= b.ColEnd {
		return false, "select a region of the grid first, then zoom"
	}
	z := *b
	e.bounds = nil
	e.view = &z
	e.hooks.emitFeedback(nil)
	e.hooks.emitZoom(&z)
	return true, ""
}

// ResetZoom returns the viewport to the full view. A reset while already
// unzoomed is a silent no-op.
func (e *Engine) ResetZoom() bool {
	if e.view == nil {
		return false
	}
	e.view = nil
	e.bounds = nil
	e.hooks.emitFeedback(nil)
	e.hooks.emitZoom(nil)
	return true
}
