package render

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo/float"
)

// RenderSVG writes the scene as a standalone SVG document with the same
// cells and highlights as the PNG frame.
func (r *FrameRenderer) RenderSVG(scene Scene) ([]byte, error) {
	if err := scene.check(); err != nil {
		return nil, err
	}

	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	canvas := svg.New(buf)
	canvas.Start(scene.Layout.TotalWidth, scene.Layout.TotalHeight)
	canvas.Rect(0, 0, scene.Layout.TotalWidth, scene.Layout.TotalHeight,
		canvas.RGB(int(background.R), int(background.G), int(background.B)))

	rowPos := scene.Layout.Rows.Positions()
	colPos := scene.Layout.Cols.Positions()
	rowSize := scene.Layout.Rows.CellSize()
	colSize := scene.Layout.Cols.CellSize()

	for i, y := range rowPos {
		for j, x := range colPos {
			c := scene.Scale.At(scene.Values.At(i, j))
			canvas.Rect(x, y, colSize, rowSize, canvas.RGB(int(c.R), int(c.G), int(c.B)))
		}
	}

	highlightStyle := fmt.Sprintf("%s;stroke:rgb(%d,%d,%d);stroke-width:%g",
		canvas.RGBA(int(highlightFill.R), int(highlightFill.G), int(highlightFill.B),
			float64(highlightFill.A)/255),
		highlightLine.R, highlightLine.G, highlightLine.B, highlightLineWidth)
	for _, rect := range scene.Overlays {
		if rect.Empty() {
			continue
		}
		canvas.Rect(rect.X, rect.Y, rect.W, rect.H, highlightStyle)
	}

	canvas.End()

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
