package interact

import (
	"github.com/rfroumine/dream-heatmap/internal/axis"
	"github.com/rfroumine/dream-heatmap/internal/geom"
)

// Axis selects which grid axis a group selection applies to.
type Axis int

const (
	AxisRows Axis = iota
	AxisCols
)

func (e *Engine) clickedMapper(ax Axis) (clicked, other *axis.Mapper) {
	if ax == AxisRows {
		return e.ctx.Rows, e.ctx.Cols
	}
	return e.ctx.Cols, e.ctx.Rows
}

// run is a maximal stretch of consecutive visual indices, inclusive.
type run struct {
	start, end int
}

// contiguousRuns partitions sorted visual indices into maximal
// consecutive runs with a single left to right scan.
func contiguousRuns(indices []int) []run {
	if len(indices) == 0 {
		return nil
	}
	runs := []run{{start: indices[0], end: indices[0]}}
	for _, i := range indices[1:] {
		last := &runs[len(runs)-1]
		if i == last.end+1 {
			last.end = i
			continue
		}
		runs = append(runs, run{start: i, end: i})
	}
	return runs
}

// spanRect returns the highlight rectangle covering an inclusive index
// span on the clicked axis and the full grid extent on the other.
func (e *Engine) spanRect(ax Axis, clicked *axis.Mapper, first, last int) geom.Rect {
	lo, _, _ := clicked.CellBounds(first)
	_, hi, _ := clicked.CellBounds(last)
	if ax == AxisRows {
		return geom.Rect{X: e.ctx.Grid.X, Y: lo, W: e.ctx.Grid.W, H: hi - lo}
	}
	return geom.Rect{X: lo, Y: e.ctx.Grid.Y, W: hi - lo, H: e.ctx.Grid.H}
}

func (e *Engine) recordSpanBounds(ax Axis, other *axis.Mapper, first, last int) {
	if ax == AxisRows {
		e.bounds = &ZoomRange{RowStart: first, RowEnd: last + 1, ColStart: 0, ColEnd: other.Size()}
	} else {
		e.bounds = &ZoomRange{RowStart: 0, RowEnd: other.Size(), ColStart: first, ColEnd: last + 1}
	}
}

// SelectBranch selects the members of a dendrogram branch on one axis,
// paired with every identifier on the other axis. Members occupy one
// contiguous visual run under a clustering order, so the selection spans
// their min and max visual index; identifiers are emitted in display
// order. Unknown members are skipped, and a branch with no visible
// member is a silent no-op.
func (e *Engine) SelectBranch(ax Axis, memberIDs []string) {
	if !e.ctx.ready() || len(memberIDs) == 0 {
		return
	}
	clicked, other := e.clickedMapper(ax)

	members := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}
	first, last, found := -1, -1, false
	for i := 0; i < clicked.Size(); i++ {
		id, _ := clicked.ID(i)
		if !members[id] {
			continue
		}
		if !found {
			first = i
			found = true
		}
		last = i
	}
	if !found {
		return
	}

	spanIDs := clicked.IDRange(first, last+1)
	allOther := other.IDRange(0, other.Size())
	e.recordSpanBounds(ax, other, first, last)
	e.hooks.emitFeedback([]geom.Rect{e.spanRect(ax, clicked, first, last)})

	if ax == AxisRows {
		e.hooks.emitSelection(Selection{RowIDs: spanIDs, ColIDs: allOther})
	} else {
		e.hooks.emitSelection(Selection{RowIDs: allOther, ColIDs: spanIDs})
	}
}

// SelectCategory selects every cell whose axis position carries the given
// category label. The assignments slice holds one label per visual index
// on the clicked axis. Matches need not be contiguous: each maximal run
// gets its own highlight rectangle, while the recorded bounds span from
// the first run to the last so a follow-up zoom covers everything
// selected. Mismatched assignment data or a label with no matches is a
// silent no-op.
func (e *Engine) SelectCategory(ax Axis, assignments []string, label string) {
	if !e.ctx.ready() || label == "" {
		return
	}
	clicked, other := e.clickedMapper(ax)
	if len(assignments) != clicked.Size() {
		return
	}

	var matched []int
	for i, a := range assignments {
		if a == label {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		return
	}

	matchedIDs := make([]string, 0, len(matched))
	for _, i := range matched {
		id, _ := clicked.ID(i)
		matchedIDs = append(matchedIDs, id)
	}
	allOther := other.IDRange(0, other.Size())

	runs := contiguousRuns(matched)
	rects := make([]geom.Rect, 0, len(runs))
	for _, r := range runs {
		rects = append(rects, e.spanRect(ax, clicked, r.start, r.end))
	}
	e.recordSpanBounds(ax, other, runs[0].start, runs[len(runs)-1].end)
	e.hooks.emitFeedback(rects)

	if ax == AxisRows {
		e.hooks.emitSelection(Selection{RowIDs: matchedIDs, ColIDs: allOther, Label: label})
	} else {
		e.hooks.emitSelection(Selection{RowIDs: allOther, ColIDs: matchedIDs, Label: label})
	}
}
