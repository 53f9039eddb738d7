package dashboard

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// plasmaStops are evenly spaced stops of the matplotlib "plasma" colour map,
// from low to high. Their luminance rises monotonically.
var plasmaStops = []color.Color{
	color.NRGBA{R: 0x0d, G: 0x08, B: 0x87, A: 0xff},
	color.NRGBA{R: 0x46, G: 0x03, B: 0x9f, A: 0xff},
	color.NRGBA{R: 0x72, G: 0x01, B: 0xa8, A: 0xff},
	color.NRGBA{R: 0x9c, G: 0x17, B: 0x9e, A: 0xff},
	color.NRGBA{R: 0xbd, G: 0x37, B: 0x86, A: 0xff},
	color.NRGBA{R: 0xd8, G: 0x57, B: 0x6b, A: 0xff},
	color.NRGBA{R: 0xed, G: 0x79, B: 0x53, A: 0xff},
	color.NRGBA{R: 0xfb, G: 0x9f, B: 0x3a, A: 0xff},
	color.NRGBA{R: 0xfd, G: 0xca, B: 0x26, A: 0xff},
	color.NRGBA{R: 0xf0, G: 0xf9, B: 0x21, A: 0xff},
}

// Plasma holds the plasma stops as #rrggbb strings for chart libraries that
// take CSS colours.
var Plasma = func() []string {
	out := make([]string, len(plasmaStops))
	for i, c := range plasmaStops {
		out[i] = Hex(c)
	}
	return out
}()

// ColorMap colours readings with the plasma map stretched over a display
// range. Readings outside the range saturate at the end colours.
type ColorMap struct {
	rng DisplayRange
	cm  palette.ColorMap
}

// NewColorMap returns the plasma ColorMap over r. An empty or inverted range
// falls back to DefaultDisplayRange.
func NewColorMap(r DisplayRange) *ColorMap {
	if r.Validate() != nil {
		r = DefaultDisplayRange()
	}
	cm, err := moreland.NewLuminance(plasmaStops)
	if err != nil {
		panic(fmt.Sprintf("dashboard: plasma colour map: %v", err))
	}
	cm.SetMax(float64(r.Max))
	cm.SetMin(float64(r.Min))
	return &ColorMap{rng: r, cm: cm}
}

// At returns the colour for reading v.
func (m *ColorMap) At(v int) color.Color {
	c, err := m.cm.At(float64(m.rng.Clamp(v)))
	if err != nil {
		// Unreachable after clamping.
		return plasmaStops[0]
	}
	return c
}

// Palette samples n evenly spaced colours from the low to the high end of
// the range.
func (m *ColorMap) Palette(n int) palette.Palette {
	return m.cm.Palette(n)
}

// Hex formats c as #rrggbb.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
