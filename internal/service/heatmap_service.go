// Package service provides the per-dataset heatmap sessions behind the API.
package service

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/rfroumine/dream-heatmap/internal/axis"
	"github.com/rfroumine/dream-heatmap/internal/cache"
	"github.com/rfroumine/dream-heatmap/internal/data/store"
	"github.com/rfroumine/dream-heatmap/internal/geom"
	"github.com/rfroumine/dream-heatmap/internal/idmap"
	"github.com/rfroumine/dream-heatmap/internal/interact"
	"github.com/rfroumine/dream-heatmap/internal/layout"
	"github.com/rfroumine/dream-heatmap/internal/matrix"
	"github.com/rfroumine/dream-heatmap/internal/render"
	"github.com/rfroumine/dream-heatmap/pkg/colormap"
)

// Pointer phases accepted by Pointer.
const (
	PointerDown  = "down"
	PointerMove  = "move"
	PointerUp    = "up"
	PointerLeave = "leave"
)

// Axis names accepted by ClickBranch and ClickCategory.
const (
	AxisRows = "rows"
	AxisCols = "cols"
)

// HeatmapServiceConfig contains heatmap service configuration.
type HeatmapServiceConfig struct {
	DatasetID       string
	Dataset         *store.Dataset
	Cache           *cache.Manager
	Renderer        *render.FrameRenderer
	Layout          layout.Config
	DefaultColormap string
	NaNColor        color.RGBA
}

// HeatmapService owns one dataset's view state: the current (possibly
// zoomed) row and column mappings, the computed layout, the axis mappers
// and the selection engine. Every entry point takes the mutex; the engine
// is single threaded by contract and never called without it.
type HeatmapService struct {
	datasetID       string
	cache           *cache.Manager
	renderer        *render.FrameRenderer
	composer        *layout.Composer
	defaultColormap string
	nanColor        color.RGBA

	mu sync.Mutex

	dataset *store.Dataset
	rowMap  *idmap.Mapping
	colMap  *idmap.Mapping
	spec    layout.Spec
	rowAxis *axis.Mapper
	colAxis *axis.Mapper
	visible *matrix.Matrix // raw values in view order, for hover
	scaled  *matrix.Matrix // scaled values, for painting
	scale   *colormap.Scale
	engine  *interact.Engine

	generation   uint64
	selectionSeq uint64

	lastSelection interact.Selection
	hasSelection  bool
	highlights    []geom.Rect

	// Zoom events are recorded by the hook and applied before the
	// triggering call returns, so callers always observe the new view.
	pendingZoom *interact.ZoomRange
	zoomPending bool
}

// NewHeatmapService creates a heatmap service for one loaded dataset.
func NewHeatmapService(cfg HeatmapServiceConfig) (*HeatmapService, error) {
	if cfg.Dataset == nil {
		return nil, fmt.Errorf("dataset is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache manager is required")
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewFrameRenderer()
	}

	datasetID := cfg.DatasetID
	if datasetID == "" {
		datasetID = cfg.Dataset.Name
	}
	nan := cfg.NaNColor
	if nan == (color.RGBA{}) {
		nan = colormap.DefaultNaNColor
	}
	defaultCM := cfg.DefaultColormap
	if defaultCM == "" {
		defaultCM = "viridis"
	}

	s := &HeatmapService{
		datasetID:       datasetID,
		cache:           cfg.Cache,
		renderer:        cfg.Renderer,
		composer:        layout.NewComposer(cfg.Layout),
		defaultColormap: defaultCM,
		nanColor:        nan,
		dataset:         cfg.Dataset,
		rowMap:          cfg.Dataset.RowMap,
		colMap:          cfg.Dataset.ColMap,
	}
	s.engine = interact.NewEngine(interact.Hooks{
		OnSelection: s.onSelection,
		OnZoom:      s.onZoom,
		OnFeedback:  s.onFeedback,
	})

	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// DatasetID returns the identifier the service is registered under.
func (s *HeatmapService) DatasetID() string {
	return s.datasetID
}

// Hooks run inside engine calls, which run under s.mu. They only record.

func (s *HeatmapService) onSelection(sel interact.Selection) {
	s.lastSelection = sel
	s.hasSelection = true
	s.selectionSeq++
}

func (s *HeatmapService) onZoom(z *interact.ZoomRange) {
	s.pendingZoom = z
	s.zoomPending = true
}

func (s *HeatmapService) onFeedback(rects []geom.Rect) {
	s.highlights = rects
	s.selectionSeq++
}

// applyPendingZoom consumes a zoom event recorded by the hook: a range
// narrows the current mappings, nil restores the full dataset view.
func (s *HeatmapService) applyPendingZoom() error {
	if !s.zoomPending {
		return nil
	}
	z := s.pendingZoom
	s.pendingZoom = nil
	s.zoomPending = false

	if z == nil {
		s.rowMap = s.dataset.RowMap
		s.colMap = s.dataset.ColMap
		return s.rebuild()
	}

	rows, err := s.rowMap.Zoom(z.RowStart, z.RowEnd)
	if err != nil {
		return fmt.Errorf("failed to zoom rows: %w", err)
	}
	cols, err := s.colMap.Zoom(z.ColStart, z.ColEnd)
	if err != nil {
		return fmt.Errorf("failed to zoom columns: %w", err)
	}
	s.rowMap = rows
	s.colMap = cols
	return s.rebuild()
}

// rebuild recomputes the layout, mappers, visible slice, color scale and
// engine context from the current mappings. Each rebuild is a fresh render
// context: the engine drops its recorded selection bounds, the generation
// moves on and cached frames for the old view stop being asked for.
func (s *HeatmapService) rebuild() error {
	s.spec = s.composer.Compute(s.rowMap, s.colMap)

	rowAxis, err := axis.NewMapper(s.rowMap.Order(), s.rowMap.Gaps(), s.spec.Rows.Positions(), s.spec.Rows.CellSize())
	if err != nil {
		return fmt.Errorf("failed to build row mapper: %w", err)
	}
	colAxis, err := axis.NewMapper(s.colMap.Order(), s.colMap.Gaps(), s.spec.Cols.Positions(), s.spec.Cols.CellSize())
	if err != nil {
		return fmt.Errorf("failed to build column mapper: %w", err)
	}

	visible, err := s.dataset.Matrix.Slice(s.rowMap.Order(), s.colMap.Order())
	if err != nil {
		return fmt.Errorf("failed to slice matrix: %w", err)
	}
	method, rowWise := scaleFor(s.dataset.Scale)
	scaled, err := visible.Scaled(method, rowWise)
	if err != nil {
		return fmt.Errorf("failed to scale matrix: %w", err)
	}

	lo, hi := scaled.RobustRange(0, 1)
	if s.dataset.VMin != nil {
		lo = *s.dataset.VMin
	}
	if s.dataset.VMax != nil {
		hi = *s.dataset.VMax
	}
	name := s.dataset.Colormap
	if name == "" {
		name = s.defaultColormap
	}

	s.rowAxis = rowAxis
	s.colAxis = colAxis
	s.visible = visible
	s.scaled = scaled
	s.scale = colormap.NewScale(colormap.ByName(name), lo, hi, s.nanColor)
	s.highlights = nil

	s.engine.UpdateContext(interact.Context{Rows: rowAxis, Cols: colAxis, Grid: s.spec.Heatmap})
	s.generation++
	return nil
}

func scaleFor(mode string) (method string, rowWise bool) {
	switch mode {
	case store.ScaleRow:
		return matrix.ScaleZScore, true
	case store.ScaleColumn:
		return matrix.ScaleZScore, false
	default:
		return matrix.ScaleNone, false
	}
}

// Pointer feeds one pointer event into the selection engine.
func (s *HeatmapService) Pointer(phase string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch phase {
	case PointerDown:
		s.engine.PointerDown(x, y)
	case PointerMove:
		s.engine.PointerMove(x, y)
	case PointerUp:
		s.engine.PointerUp(x, y)
	case PointerLeave:
		s.engine.PointerLeave()
	default:
		return fmt.Errorf("unknown pointer phase %q", phase)
	}
	return s.applyPendingZoom()
}

// ZoomResult reports whether a zoom request took effect.
type ZoomResult struct {
	OK   bool   `json:"ok"`
	Hint string `json:"hint,omitempty"`
}

// ZoomIn zooms to the recorded selection bounds, if any.
func (s *HeatmapService) ZoomIn() (ZoomResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, hint := s.engine.ZoomToSelection()
	if err := s.applyPendingZoom(); err != nil {
		return ZoomResult{}, err
	}
	return ZoomResult{OK: ok, Hint: hint}, nil
}

// ResetZoom restores the full dataset view. A no-op when not zoomed.
func (s *HeatmapService) ResetZoom() (ZoomResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.engine.ResetZoom()
	if err := s.applyPendingZoom(); err != nil {
		return ZoomResult{}, err
	}
	return ZoomResult{OK: ok}, nil
}

func parseAxis(name string) (interact.Axis, error) {
	switch name {
	case AxisRows:
		return interact.AxisRows, nil
	case AxisCols:
		return interact.AxisCols, nil
	default:
		return 0, fmt.Errorf("unknown axis %q", name)
	}
}

// ClickBranch selects the span of a precomputed dendrogram node.
func (s *HeatmapService) ClickBranch(axisName string, node int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ax, err := parseAxis(axisName)
	if err != nil {
		return err
	}
	nodes := s.dataset.RowDendrogram
	if ax == interact.AxisCols {
		nodes = s.dataset.ColDendrogram
	}
	if node < 0 || node >= len(nodes) {
		return fmt.Errorf("branch %d out of range (%d nodes)", node, len(nodes))
	}
	s.engine.SelectBranch(ax, nodes[node].MemberIDs)
	return nil
}

// ClickCategory selects every visible cell band whose annotation value
// matches. Unknown values fall through to the engine as a no-op.
func (s *HeatmapService) ClickCategory(axisName, track, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ax, err := parseAxis(axisName)
	if err != nil {
		return err
	}
	tracks := s.dataset.RowAnnotations
	order := s.rowMap.Order()
	if ax == interact.AxisCols {
		tracks = s.dataset.ColAnnotations
		order = s.colMap.Order()
	}
	for _, tr := range tracks {
		if tr.Name == track {
			s.engine.SelectCategory(ax, tr.InOrder(order), value)
			return nil
		}
	}
	return fmt.Errorf("unknown annotation track %q", track)
}

// HoverInfo is the tooltip payload for one grid position.
type HoverInfo struct {
	RowID          string            `json:"row_id"`
	ColID          string            `json:"col_id"`
	Row            int               `json:"row"`
	Col            int               `json:"col"`
	Value          *float64          `json:"value"` // raw value, null for missing
	RowAnnotations map[string]string `json:"row_annotations,omitempty"`
	ColAnnotations map[string]string `json:"col_annotations,omitempty"`
}

// Hover resolves a grid position to cell details. Misses (gaps, outside
// the grid, hover suppressed during a drag) return false.
func (s *HeatmapService) Hover(x, y float64) (HoverInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.HoverSuppressed() {
		return HoverInfo{}, false
	}
	i, ok := s.rowAxis.PixelToIndex(y)
	if !ok {
		return HoverInfo{}, false
	}
	j, ok := s.colAxis.PixelToIndex(x)
	if !ok {
		return HoverInfo{}, false
	}

	rowID, _ := s.rowAxis.ID(i)
	colID, _ := s.colAxis.ID(j)
	info := HoverInfo{RowID: rowID, ColID: colID, Row: i, Col: j}
	if v := s.visible.At(i, j); !math.IsNaN(v) {
		info.Value = &v
	}
	info.RowAnnotations = annotationsFor(s.dataset.RowAnnotations, rowID)
	info.ColAnnotations = annotationsFor(s.dataset.ColAnnotations, colID)
	return info, true
}

func annotationsFor(tracks []store.AnnotationTrack, id string) map[string]string {
	var out map[string]string
	for _, tr := range tracks {
		if v, ok := tr.Values[id]; ok {
			if out == nil {
				out = make(map[string]string, len(tracks))
			}
			out[tr.Name] = v
		}
	}
	return out
}

// Frame returns the current view as an encoded PNG, optionally with the
// highlight overlay drawn on top.
func (s *HeatmapService) Frame(withOverlay bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cache.FrameKey(s.datasetID, s.generation, s.selectionSeq, withOverlay)
	if data, ok := s.cache.GetFrame(key); ok {
		return data, nil
	}

	scene := render.Scene{Layout: &s.spec, Values: s.scaled, Scale: s.scale}
	if withOverlay {
		scene.Overlays = s.highlights
	}
	data, err := s.renderer.RenderPNG(scene)
	if err != nil {
		return nil, fmt.Errorf("failed to render frame: %w", err)
	}
	s.cache.SetFrame(key, data)
	return data, nil
}

// ExportSVG returns the current view, highlights included, as SVG.
func (s *HeatmapService) ExportSVG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scene := render.Scene{Layout: &s.spec, Values: s.scaled, Scale: s.scale, Overlays: s.highlights}
	data, err := s.renderer.RenderSVG(scene)
	if err != nil {
		return nil, fmt.Errorf("failed to export svg: %w", err)
	}
	return data, nil
}

// LayoutInfo is the client-side geometry payload: pixel layout, both axis
// mappings and the active viewport.
type LayoutInfo struct {
	Layout     layout.Dict         `json:"layout"`
	Rows       idmap.Dict          `json:"rows"`
	Cols       idmap.Dict          `json:"cols"`
	Viewport   *interact.ZoomRange `json:"viewport"`
	Generation uint64              `json:"generation"`
}

// LayoutPayload returns the serialized LayoutInfo for the current view.
func (s *HeatmapService) LayoutPayload() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cache.LayoutKey(s.datasetID, s.generation)
	if data, ok := s.cache.GetQuery(key); ok {
		return data, nil
	}

	payload := LayoutInfo{
		Layout:     s.spec.ToDict(),
		Rows:       s.rowMap.ToDict(),
		Cols:       s.colMap.ToDict(),
		Viewport:   s.engine.Viewport(),
		Generation: s.generation,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal layout: %w", err)
	}
	s.cache.SetQuery(key, data)
	return data, nil
}

// SelectionInfo reports the last completed selection and the highlight
// rectangles currently shown.
type SelectionInfo struct {
	Selection  *interact.Selection `json:"selection"`
	Highlights []geom.Rect         `json:"highlights"`
	Seq        uint64              `json:"seq"`
}

// Selection returns the current selection state.
func (s *HeatmapService) Selection() SelectionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SelectionInfo{Highlights: s.highlights, Seq: s.selectionSeq}
	if s.hasSelection {
		sel := s.lastSelection
		info.Selection = &sel
	}
	return info
}

// MetadataInfo describes the dataset and the color scale in effect.
type MetadataInfo struct {
	Name        string   `json:"name"`
	NRows       int      `json:"n_rows"`
	NCols       int      `json:"n_cols"`
	Scale       string   `json:"scale,omitempty"`
	Colormap    string   `json:"colormap"`
	VMin        float64  `json:"vmin"`
	VMax        float64  `json:"vmax"`
	ValueMin    float64  `json:"value_min"`
	ValueMax    float64  `json:"value_max"`
	RowTracks   []string `json:"row_tracks,omitempty"`
	ColTracks   []string `json:"col_tracks,omitempty"`
	RowBranches int      `json:"row_branches"`
	ColBranches int      `json:"col_branches"`
	Zoomed      bool     `json:"zoomed"`
}

// Metadata returns dataset metadata for the current view.
func (s *HeatmapService) Metadata() MetadataInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueLo, valueHi := s.dataset.Matrix.FiniteRange()
	return MetadataInfo{
		Name:        s.dataset.Name,
		NRows:       s.dataset.Matrix.NRows(),
		NCols:       s.dataset.Matrix.NCols(),
		Scale:       s.dataset.Scale,
		Colormap:    s.colormapName(),
		VMin:        s.scale.VMin(),
		VMax:        s.scale.VMax(),
		ValueMin:    valueLo,
		ValueMax:    valueHi,
		RowTracks:   trackNames(s.dataset.RowAnnotations),
		ColTracks:   trackNames(s.dataset.ColAnnotations),
		RowBranches: len(s.dataset.RowDendrogram),
		ColBranches: len(s.dataset.ColDendrogram),
		Zoomed:      s.engine.Viewport() != nil,
	}
}

func (s *HeatmapService) colormapName() string {
	if s.dataset.Colormap != "" {
		return s.dataset.Colormap
	}
	return s.defaultColormap
}

func trackNames(tracks []store.AnnotationTrack) []string {
	if len(tracks) == 0 {
		return nil
	}
	names := make([]string, len(tracks))
	for i, tr := range tracks {
		names[i] = tr.Name
	}
	return names
}

// Reload swaps in a freshly loaded dataset. The new data establishes a
// fresh unzoomed context; any viewport and selection are dropped.
func (s *HeatmapService) Reload(ds *store.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ds == nil {
		return fmt.Errorf("dataset is required")
	}
	s.dataset = ds
	s.rowMap = ds.RowMap
	s.colMap = ds.ColMap

	s.engine.ResetZoom()
	s.pendingZoom = nil
	s.zoomPending = false

	s.lastSelection = interact.Selection{}
	s.hasSelection = false
	return s.rebuild()
}
