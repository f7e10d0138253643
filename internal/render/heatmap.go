// Package render paints heatmap frames using fogleman/gg.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"

	"github.com/rfroumine/dream-heatmap/internal/geom"
	"github.com/rfroumine/dream-heatmap/internal/layout"
	"github.com/rfroumine/dream-heatmap/internal/matrix"
	"github.com/rfroumine/dream-heatmap/pkg/colormap"
)

// Highlight styling shared by the PNG and SVG painters.
var (
	background    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	highlightFill = color.RGBA{R: 30, G: 30, B: 30, A: 36}
	highlightLine = color.RGBA{R: 20, G: 20, B: 20, A: 230}
)

const highlightLineWidth = 1.5

// Scene bundles everything one frame needs: the computed layout, the
// visible (sliced and scaled) values, the color scale, and any highlight
// rectangles drawn on top.
type Scene struct {
	Layout   *layout.Spec
	Values   *matrix.Matrix
	Scale    *colormap.Scale
	Overlays []geom.Rect
}

func (s Scene) check() error {
	if s.Layout == nil || s.Values == nil || s.Scale == nil {
		return fmt.Errorf("incomplete scene")
	}
	if s.Values.NRows() != s.Layout.NRows || s.Values.NCols() != s.Layout.NCols {
		return fmt.Errorf("%dx%d values for %dx%d layout",
			s.Values.NRows(), s.Values.NCols(), s.Layout.NRows, s.Layout.NCols)
	}
	return nil
}

// FrameRenderer paints whole heatmap frames. Frames change size with the
// layout, so only the encode buffers are pooled.
type FrameRenderer struct {
	bufferPool sync.Pool
}

// NewFrameRenderer creates a new frame renderer.
func NewFrameRenderer() *FrameRenderer {
	return &FrameRenderer{
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 256*1024))
			},
		},
	}
}

// RenderPNG paints the scene and encodes it as a PNG frame.
func (r *FrameRenderer) RenderPNG(scene Scene) ([]byte, error) {
	if err := scene.check(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(int(scene.Layout.TotalWidth+0.5), int(scene.Layout.TotalHeight+0.5))
	dc.SetColor(background)
	dc.Clear()

	rowPos := scene.Layout.Rows.Positions()
	colPos := scene.Layout.Cols.Positions()
	rowSize := scene.Layout.Rows.CellSize()
	colSize := scene.Layout.Cols.CellSize()

	for i, y := range rowPos {
		for j, x := range colPos {
			dc.SetColor(scene.Scale.At(scene.Values.At(i, j)))
			dc.DrawRectangle(x, y, colSize, rowSize)
			dc.Fill()
		}
	}

	for _, rect := range scene.Overlays {
		if rect.Empty() {
			continue
		}
		dc.SetColor(highlightFill)
		dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
		dc.Fill()
		dc.SetColor(highlightLine)
		dc.SetLineWidth(highlightLineWidth)
		dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
		dc.Stroke()
	}

	return r.encodeContext(dc)
}

func (r *FrameRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
