package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/tactile/internal/dashboard"
	"github.com/banshee-data/tactile/internal/httputil"
)

// echartsAssetsHost serves the echarts JavaScript bundle.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

func columnLabels(cols int) []string {
	xs := make([]string, cols)
	for c := range xs {
		xs[c] = "c" + strconv.Itoa(c)
	}
	return xs
}

// heatmapChart draws the matrix with row 0 at the top, one label per cell.
func heatmapChart(st dashboard.State) *charts.HeatMap {
	rows, cols := st.Heatmap.Rows(), st.Heatmap.Cols()

	// Category axes count upwards, so list rows bottom first.
	ys := make([]string, rows)
	for r := 0; r < rows; r++ {
		ys[rows-1-r] = fmt.Sprintf("Row %d", r)
	}

	data := make([]opts.HeatMapData, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, rows - 1 - r, label(st, r, c)}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: dashboard.WindowTitle, Width: "640px", Height: "720px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: dashboard.HeatmapTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Columns", SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Rows", Data: ys, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(st.Range.Min),
			Max:        float32(st.Range.Max),
			InRange:    &opts.VisualMapInRange{Color: dashboard.Plasma},
		}),
	)
	hm.SetXAxis(columnLabels(cols)).
		AddSeries("readings", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Color: "white"}),
		)
	return hm
}

// lineChart plots the selected row with the y-axis fixed to the display range.
func lineChart(st dashboard.State) *charts.Line {
	data := make([]opts.LineData, len(st.Values))
	for i, v := range st.Values {
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "640px", Height: "320px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: st.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Columns"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sensor Value", Min: st.Range.Min, Max: st.Range.Max}),
	)
	line.SetXAxis(columnLabels(len(st.Values))).
		AddSeries(fmt.Sprintf("row %d", st.Row), data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "orange"}),
		)
	return line
}

// label returns the cell label, falling back to the heatmap value.
func label(st dashboard.State, r, c int) int {
	if r < len(st.Labels) && c < len(st.Labels[r]) {
		return st.Labels[r][c]
	}
	return st.Heatmap.At(r, c)
}

// handleCharts renders the heatmap and the selected row's line chart.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	st := s.store.State()

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(heatmapChart(st), lineChart(st))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
