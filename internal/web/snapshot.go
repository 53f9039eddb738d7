package web

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/tactile/internal/dashboard"
	"github.com/banshee-data/tactile/internal/httputil"
)

// Snapshot image size.
const (
	snapshotWidth  = 6 * vg.Inch
	snapshotHeight = 9 * vg.Inch
)

// paletteSteps is the number of colours sampled from the plasma map.
const paletteSteps = 64

// matrixGrid adapts a dense matrix to plotter.GridXYZ. Grid row 0 is the
// bottom of the plot, so matrix rows are flipped to keep row 0 on top.
type matrixGrid struct {
	m *mat.Dense
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}
func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }
func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func heatmapPlot(st dashboard.State) *plot.Plot {
	rows, cols := st.Heatmap.Rows(), st.Heatmap.Cols()

	p := plot.New()
	p.Title.Text = dashboard.HeatmapTitle
	p.X.Label.Text = "Columns"
	p.Y.Label.Text = "Rows"

	pal := dashboard.NewColorMap(st.Range).Palette(paletteSteps)
	colors := pal.Colors()
	hm := plotter.NewHeatMap(matrixGrid{m: st.Heatmap.Dense()}, pal)
	hm.Min = float64(st.Range.Min)
	hm.Max = float64(st.Range.Max)
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	p.Add(hm)

	xys := make(plotter.XYs, 0, rows*cols)
	strs := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(rows - 1 - r)})
			strs = append(strs, strconv.Itoa(label(st, r, c)))
		}
	}
	if labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: strs}); err == nil {
		for i := range labels.TextStyle {
			labels.TextStyle[i].Color = color.White
			labels.TextStyle[i].XAlign = text.XCenter
			labels.TextStyle[i].YAlign = text.YCenter
			labels.TextStyle[i].Font.Size = vg.Points(6)
		}
		p.Add(labels)
	}

	xticks := make(plot.ConstantTicks, cols)
	for c := range xticks {
		xticks[c] = plot.Tick{Value: float64(c), Label: strconv.Itoa(c)}
	}
	yticks := make(plot.ConstantTicks, rows)
	for r := range yticks {
		yticks[r] = plot.Tick{Value: float64(rows - 1 - r), Label: strconv.Itoa(r)}
	}
	p.X.Tick.Marker = xticks
	p.Y.Tick.Marker = yticks
	p.X.Min, p.X.Max = -0.5, float64(cols)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(rows)-0.5
	return p
}

func linePlot(st dashboard.State) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = st.Title
	p.X.Label.Text = "Columns"
	p.Y.Label.Text = "Sensor Value"
	p.Y.Min = float64(st.Range.Min)
	p.Y.Max = float64(st.Range.Max)
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(st.Values))
	for i, v := range st.Values {
		pts[i] = plotter.XY{X: float64(i), Y: float64(v)}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("line plot: %w", err)
	}
	orange := color.RGBA{R: 0xff, G: 0xa5, A: 0xff}
	line.Color = orange
	line.Width = vg.Points(1.5)
	points.Color = orange
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	return p, nil
}

// RenderSnapshot writes a PNG of the heatmap above the selected row's line
// plot.
func RenderSnapshot(w io.Writer, st dashboard.State) error {
	lp, err := linePlot(st)
	if err != nil {
		return err
	}

	img := vgimg.New(snapshotWidth, snapshotHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	hp := heatmapPlot(st)
	canvases := plot.Align([][]*plot.Plot{{hp}, {lp}}, tiles, dc)
	hp.Draw(canvases[0][0])
	lp.Draw(canvases[1][0])

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := RenderSnapshot(&buf, s.store.State()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
