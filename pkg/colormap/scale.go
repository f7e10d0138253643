package colormap

import "image/color"

// LUTSize is the number of precomputed entries in a Scale.
const LUTSize = 256

// Scale maps scalar values onto a colormap through a precomputed lookup
// table, with explicit value limits and a dedicated missing-value color.
type Scale struct {
	lut      [LUTSize]color.RGBA
	vmin     float64
	vmax     float64
	nanColor color.RGBA
}

// DefaultNaNColor is the light gray used for missing values.
var DefaultNaNColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// NewScale precomputes a lookup table over cm for values in [vmin, vmax].
func NewScale(cm Colormap, vmin, vmax float64, nanColor color.RGBA) *Scale {
	s := &Scale{vmin: vmin, vmax: vmax, nanColor: nanColor}
	for i := 0; i < LUTSize; i++ {
		c := cm.At(float64(i) / float64(LUTSize-1))
		r, g, b, a := c.RGBA()
		s.lut[i] = color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}
	return s
}

// Index maps a value to its LUT index. A degenerate range maps everything
// to the middle entry.
func (s *Scale) Index(v float64) int {
	if s.vmax == s.vmin {
		return LUTSize/2 - 1
	}
	t := (v - s.vmin) / (s.vmax - s.vmin)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return int(t * (LUTSize - 1))
}

// At returns the color for a value; NaN gets the missing-value color.
func (s *Scale) At(v float64) color.RGBA {
	if v != v {
		return s.nanColor
	}
	return s.lut[s.Index(v)]
}

// VMin returns the lower value limit.
func (s *Scale) VMin() float64 { return s.vmin }

// VMax returns the upper value limit.
func (s *Scale) VMax() float64 { return s.vmax }

// Bytes serializes the table as LUTSize RGBA quadruplets for clients
// that want to colorize values themselves.
func (s *Scale) Bytes() []byte {
	out := make([]byte, 0, LUTSize*4)
	for _, c := range s.lut {
		out = append(out, c.R, c.G, c.B, c.A)
	}
	return out
}
