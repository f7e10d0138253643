package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/rfroumine/dream-heatmap/internal/geom"
	"github.com/rfroumine/dream-heatmap/internal/layout"
	"github.com/rfroumine/dream-heatmap/internal/matrix"
	"github.com/rfroumine/dream-heatmap/pkg/colormap"
)

// testScene is a 2x2 grid of 10px cells at the origin: values 0 and 1 in
// the top row, NaN and 0.5 in the bottom row.
func testScene(t *testing.T, overlays ...geom.Rect) Scene {
	t.Helper()

	mat, err := matrix.New(
		[]float64{0, 1, math.NaN(), 0.5},
		[]string{"r0", "r1"},
		[]string{"c0", "c1"},
	)
	if err != nil {
		t.Fatalf("matrix.New() error: %v", err)
	}

	return Scene{
		Layout: &layout.Spec{
			Heatmap:     geom.Rect{X: 0, Y: 0, W: 20, H: 20},
			Rows:        layout.NewCellTrack(2, 10, nil, 0, 0),
			Cols:        layout.NewCellTrack(2, 10, nil, 0, 0),
			TotalWidth:  20,
			TotalHeight: 20,
			NRows:       2,
			NCols:       2,
		},
		Values:   mat,
		Scale:    colormap.NewScale(colormap.Viridis, 0, 1, colormap.DefaultNaNColor),
		Overlays: overlays,
	}
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func pixel(t *testing.T, img image.Image, x, y int) color.RGBA {
	t.Helper()
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderPNGCellColors(t *testing.T) {
	r := NewFrameRenderer()
	data, err := r.RenderPNG(testScene(t))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}

	img := decodePNG(t, data)
	if got := img.Bounds().Dx(); got != 20 {
		t.Fatalf("frame width = %d, want 20", got)
	}

	// Probe cell centers; edges may be antialiased.
	if got, want := pixel(t, img, 5, 5), (color.RGBA{R: 68, G: 1, B: 84, A: 255}); got != want {
		t.Errorf("cell (0,0) = %v, want viridis low %v", got, want)
	}
	if got, want := pixel(t, img, 15, 5), (color.RGBA{R: 253, G: 231, B: 37, A: 255}); got != want {
		t.Errorf("cell (0,1) = %v, want viridis high %v", got, want)
	}
	if got, want := pixel(t, img, 5, 15), (color.RGBA{R: 200, G: 200, B: 200, A: 255}); got != want {
		t.Errorf("NaN cell = %v, want missing-value gray %v", got, want)
	}
	if got := pixel(t, img, 15, 15); got == (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("cell (1,1) left unpainted")
	}
}

func TestRenderPNGOverlay(t *testing.T) {
	r := NewFrameRenderer()

	plain, err := r.RenderPNG(testScene(t))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	overlaid, err := r.RenderPNG(testScene(t, geom.Rect{X: 2, Y: 2, W: 16, H: 16}))
	if err != nil {
		t.Fatalf("RenderPNG(overlay) error: %v", err)
	}

	if bytes.Equal(plain, overlaid) {
		t.Fatal("overlay did not change the frame")
	}
	a := pixel(t, decodePNG(t, plain), 5, 5)
	b := pixel(t, decodePNG(t, overlaid), 5, 5)
	if a == b {
		t.Errorf("pixel under overlay unchanged: %v", a)
	}
}

func TestRenderPNGSkipsEmptyOverlays(t *testing.T) {
	r := NewFrameRenderer()

	plain, err := r.RenderPNG(testScene(t))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	withEmpty, err := r.RenderPNG(testScene(t, geom.Rect{X: 5, Y: 5, W: 0, H: 10}))
	if err != nil {
		t.Fatalf("RenderPNG(empty overlay) error: %v", err)
	}
	if !bytes.Equal(plain, withEmpty) {
		t.Error("empty overlay changed the frame")
	}
}

func TestRenderPNGReusesBuffers(t *testing.T) {
	r := NewFrameRenderer()
	first, err := r.RenderPNG(testScene(t))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	second, err := r.RenderPNG(testScene(t))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same scene rendered differently across calls")
	}
}

func TestRenderRejectsBrokenScenes(t *testing.T) {
	r := NewFrameRenderer()

	scene := testScene(t)
	scene.Layout = nil
	if _, err := r.RenderPNG(scene); err == nil {
		t.Error("RenderPNG() accepted scene without layout")
	}

	scene = testScene(t)
	mat, err := matrix.New([]float64{1, 2}, []string{"r0"}, []string{"c0", "c1"})
	if err != nil {
		t.Fatalf("matrix.New() error: %v", err)
	}
	scene.Values = mat
	if _, err := r.RenderPNG(scene); err == nil {
		t.Error("RenderPNG() accepted values not matching the layout")
	}
	if _, err := r.RenderSVG(scene); err == nil {
		t.Error("RenderSVG() accepted values not matching the layout")
	}
}

func TestRenderSVG(t *testing.T) {
	r := NewFrameRenderer()
	data, err := r.RenderSVG(testScene(t, geom.Rect{X: 2, Y: 2, W: 16, H: 16}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}

	doc := string(data)
	for _, want := range []string{
		"<svg",
		"</svg>",
		`width="20`,
		"fill:rgb(68,1,84)",     // value 0
		"fill:rgb(253,231,37)",  // value 1
		"fill:rgb(200,200,200)", // NaN cell
		"stroke:rgb(20,20,20)",  // highlight stroke
		"fill-opacity",          // highlight fill
	} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("SVG missing %q:\n%s", want, doc)
		}
	}
}
