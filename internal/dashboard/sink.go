package dashboard

import (
	"fmt"

	"github.com/banshee-data/tactile/internal/frame"
)

// Default display bounds for the heatmap colour scale and the line plot axis.
const (
	DefaultDisplayMin = 0
	DefaultDisplayMax = 30000
)

// DisplayRange is the value interval mapped onto the colour scale. Values
// outside it saturate at the ends. Stored readings are never clamped, only
// their rendering.
type DisplayRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultDisplayRange returns the [0, 30000] range the sensor board uses.
func DefaultDisplayRange() DisplayRange {
	return DisplayRange{Min: DefaultDisplayMin, Max: DefaultDisplayMax}
}

// Validate checks that the range is non-empty.
func (r DisplayRange) Validate() error {
	if r.Max <= r.Min {
		return fmt.Errorf("display range max (%d) must be greater than min (%d)", r.Max, r.Min)
	}
	return nil
}

// Clamp limits v to the range.
func (r DisplayRange) Clamp(v int) int {
	return min(max(v, r.Min), r.Max)
}

// Normalize maps v onto [0, 1], saturating outside the range.
func (r DisplayRange) Normalize(v int) float64 {
	if r.Max <= r.Min {
		return 0
	}
	return float64(r.Clamp(v)-r.Min) / float64(r.Max-r.Min)
}

// Sink receives rendering updates from the Dashboard. Implementations must
// not retain m beyond the call; use m.Clone if they need to.
type Sink interface {
	// SetHeatmap replaces the heatmap contents with m, coloured over r.
	SetHeatmap(m *frame.Matrix, r DisplayRange)
	// SetCellLabel sets the numeric label drawn over cell (row, col).
	SetCellLabel(row, col, value int)
	// SetLinePlot replaces the line plot with the readings of row.
	SetLinePlot(row int, values []int)
	// SetSelectedRowTitle retitles the line plot for the selected row.
	SetSelectedRowTitle(row int)
}

// MultiSink forwards every call to each of its sinks in order.
type MultiSink []Sink

func (ms MultiSink) SetHeatmap(m *frame.Matrix, r DisplayRange) {
	for _, s := range ms {
		s.SetHeatmap(m, r)
	}
}

func (ms MultiSink) SetCellLabel(row, col, value int) {
	for _, s := range ms {
		s.SetCellLabel(row, col, value)
	}
}

func (ms MultiSink) SetLinePlot(row int, values []int) {
	for _, s := range ms {
		s.SetLinePlot(row, values)
	}
}

func (ms MultiSink) SetSelectedRowTitle(row int) {
	for _, s := range ms {
		s.SetSelectedRowTitle(row)
	}
}

// RowTitle is the line plot title for row.
func RowTitle(row int) string {
	return fmt.Sprintf("Live Data - Row %d", row)
}

// Titles shared by the renderers.
const (
	WindowTitle  = "Tactile Sensor Dashboard"
	HeatmapTitle = "Tactile Sensor Heatmap"
)
