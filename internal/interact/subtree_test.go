package interact

import (
	"reflect"
	"testing"

	"github.com/rfroumine/dream-heatmap/internal/geom"
)

func TestContiguousRuns(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		want    []run
	}{
		{"mixed", []int{2, 3, 4, 9, 10, 15}, []run{{2, 4}, {9, 10}, {15, 15}}},
		{"single", []int{7}, []run{{7, 7}}},
		{"allAdjacent", []int{0, 1, 2}, []run{{0, 2}}},
		{"allIsolated", []int{1, 3, 5}, []run{{1, 1}, {3, 3}, {5, 5}}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contiguousRuns(tt.indices); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("contiguousRuns(%v) = %v, want %v", tt.indices, got, tt.want)
			}
		})
	}
}

// branchContext has rows in clustered order b, a, c, d.
func branchContext(t *testing.T) Context {
	t.Helper()
	rows := mustAxis(t, []string{"b", "a", "c", "d"}, nil, []float64{40, 50, 60, 70}, 10)
	cols := mustAxis(t, []string{"c0", "c1", "c2"}, nil, []float64{40, 52, 64}, 12)
	return Context{Rows: rows, Cols: cols, Grid: geom.Rect{X: 40, Y: 40, W: 36, H: 40}}
}

func TestSelectBranch(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(rec.hooks())
	e.UpdateContext(branchContext(t))

	e.SelectBranch(AxisRows, []string{"a", "c"})

	sel := rec.lastSelection(t)
	if !reflect.DeepEqual(sel.RowIDs, []string{"a", "c"}) {
		t.Errorf("row ids = %v, want [a c]", sel.RowIDs)
	}
	if !reflect.DeepEqual(sel.ColIDs, []string{"c0", "c1", "c2"}) {
		t.Errorf("col ids = %v, want all columns", sel.ColIDs)
	}
	if sel.Label != "" {
		t.Errorf("branch selection should carry no label, got %q", sel.Label)
	}

	// One highlight covering rows 1..2 across the full grid width.
	fb := rec.lastFeedback(t)
	want := geom.Rect{X: 40, Y: 50, W: 36, H: 20}
	if len(fb) != 1 || fb[0] != want {
		t.Errorf("feedback = %+v, want [%+v]", fb, want)
	}

	// The span is zoomable: rows [1, 3), all columns.
	ok, _ := e.ZoomToSelection()
	if !ok {
		t.Fatalf("zoom after branch selection should succeed")
	}
	wantZoom := &ZoomRange{RowStart: 1, RowEnd: 3, ColStart: 0, ColEnd: 3}
	if !reflect.DeepEqual(rec.zooms[0], wantZoom) {
		t.Errorf("zoom = %+v, want %+v", rec.zooms[0], wantZoom)
	}
}

func TestSelectBranchColumns(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(rec.hooks())
	e.UpdateContext(branchContext(t))

	e.SelectBranch(AxisCols, []string{"c1", "c2"})

	sel := rec.lastSelection(t)
	if !reflect.DeepEqual(sel.ColIDs, []string{"c1", "c2"}) {
		t.Errorf("col ids = %v, want [c1 c2]", sel.ColIDs)
	}
	if !reflect.DeepEqual(sel.RowIDs, []string{"b", "a", "c", "d"}) {
		t.Errorf("row ids = %v, want all rows", sel.RowIDs)
	}

	fb := rec.lastFeedback(t)
	want := geom.Rect{X: 52, Y: 40, W: 24, H: 40}
	if len(fb) != 1 || fb[0] != want {
		t.Errorf("feedback = %+v, want [%+v]", fb, want)
	}
}

func TestSelectBranchNoVisibleMembers(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(rec.hooks())
	e.UpdateContext(branchContext(t))

	e.SelectBranch(AxisRows, []string{"ghost", "phantom"})
	e.SelectBranch(AxisRows, nil)

	if len(rec.selections) != 0 || len(rec.feedbacks) != 0 {
		t.Errorf("branch with no visible members should be a no-op")
	}
}

func TestSelectBranchPartiallyVisible(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(rec.hooks())
	e.UpdateContext(branchContext(t))

	// One member zoomed out of view: the span covers what remains.
	e.SelectBranch(AxisRows, []string{"a", "ghost"})

	sel := rec.lastSelection(t)
	if !reflect.DeepEqual(sel.RowIDs, []string{"a"}) {
		t.Errorf("row ids = %v, want [a]", sel.RowIDs)
	}
}

func categoryContext(t *testing.T) Context {
	t.Helper()
	rows := mustAxis(t, []string{"r0", "r1"}, nil, []float64{40, 50}, 10)
	cols := mustAxis(t, []string{"c0", "c1", "c2", "c3", "c4", "c5"}, nil,
		[]float64{40, 52, 64, 76, 88, 100}, 12)
	return Context{Rows: rows, Cols: cols, Grid: geom.Rect{X: 40, Y: 40, W: 72, H: 20}}
}

func TestSelectCategory(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(rec.hooks())
	e.UpdateContext(categoryContext(t))

	// Tumor columns form two runs: 0-1 and 4.
	assignments := []string{"tumor", "tumor", "stroma", "stroma", "tumor", "stroma"}
	e.SelectCategory(AxisCols, assignments, "tumor")

	sel := rec.lastSelection(t)
	if !reflect.DeepEqual(sel.ColIDs, []string{"c0", "c1", "c4"}) {
		t.Errorf("col ids = %v, want [c0 c1 c4]", sel.ColIDs)
	}
	if !reflect.DeepEqual(sel.RowIDs, []string{"r0", "r1"}) {
		t.Errorf("row ids = %v, want all rows", sel.RowIDs)
	}
	if sel.Label != "tumor" {
		t.Errorf("label = %q, want tumor", sel.Label)
	}

	// One highlight per run, full grid height.
	fb := rec.lastFeedback(t)
	wantRects := []geom.Rect{
		{X: 40, Y: 40, W: 24, H: 20},
		{X: 88, Y: 40, W: 12, H: 20},
	}
	if !reflect.DeepEqual(fb, wantRects) {
		t.Errorf("feedback = %+v, want %+v", fb, wantRects)
	}

	// Bounds span from the first run to the last, not per run.
	ok, _ := e.ZoomToSelection()
	if !ok {
		t.Fatalf("zoom after category selection should succeed")
	}
	wantZoom := &ZoomRange{RowStart: 0, RowEnd: 2, ColStart: 0, ColEnd: 5}
	if !reflect.DeepEqual(rec.zooms[0], wantZoom) {
		t.Errorf("zoom = %+v, want %+v", rec.zooms[0], wantZoom)
	}
}

func TestSelectCategoryRows(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(rec.hooks())
	e.UpdateContext(categoryContext(t))

	e.SelectCategory(AxisRows, []string{"high", "low"}, "low")

	sel := rec.lastSelection(t)
	if !reflect.DeepEqual(sel.RowIDs, []string{"r1"}) {
		t.Errorf("row ids = %v, want [r1]", sel.RowIDs)
	}
	if len(sel.ColIDs) != 6 {
		t.Errorf("col ids = %v, want all 6 columns", sel.ColIDs)
	}
}

func TestSelectCategoryNoOps(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(rec.hooks())
	e.UpdateContext(categoryContext(t))

	// Assignment length mismatch.
	e.SelectCategory(AxisCols, []string{"a", "b"}, "a")
	// No matches.
	e.SelectCategory(AxisCols, []string{"a", "a", "a", "a", "a", "a"}, "z")
	// Empty label.
	e.SelectCategory(AxisCols, []string{"", "", "", "", "", ""}, "")

	if len(rec.selections) != 0 || len(rec.feedbacks) != 0 {
		t.Errorf("malformed category inputs should be silent no-ops")
	}
}
