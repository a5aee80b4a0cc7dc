// Package render rasterizes the graph analysis view: subject progress cards,
// the averages bar chart and the risk distribution pie.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when a chart has nothing to draw
var ErrNoData = errors.New("no data to chart")

// Palette is cycled by index for pie slices and legend swatches
var Palette = []string{
	"#34D399", "#60A5FA", "#F59E0B", "#FB7185", "#A78BFA",
	"#F97316", "#10B981", "#3B82F6", "#EF4444", "#6366F1",
}

const barColor = "#60A5FA"

// ColorOf returns the palette colour for index i
func ColorOf(i int) drawing.Color {
	n := len(Palette)
	return hexColor(Palette[(i%n+n)%n])
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// ClampPercent bounds v to [0, 100]. NaN maps to 0.
func ClampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// Bars draws one bar per subject average on a 0-100 axis
func Bars(labels []string, values []float64, w, h int) (image.Image, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	if len(labels) != len(values) {
		return nil, fmt.Errorf("bar chart: %d labels for %d values", len(labels), len(values))
	}

	top := 100.0
	bars := make([]chart.Value, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			v = 0
		}
		top = math.Max(top, math.Ceil(v))
		bars = append(bars, chart.Value{
			Label: labels[i],
			Value: v,
			Style: chart.Style{
				FillColor:   hexColor(barColor),
				StrokeColor: hexColor(barColor),
				StrokeWidth: 1,
			},
		})
	}

	// leave room for axis and padding so bars never overflow the canvas
	barWidth := (w - 120) / (len(bars) * 2)
	barWidth = max(4, min(barWidth, 80))

	bc := chart.BarChart{
		Title:      "Subject averages",
		Width:      w,
		Height:     h,
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	return renderPNG(bc.Render)
}

// Pie draws the risk distribution. Zero-count categories are left out of the
// drawing but keep their palette index.
func Pie(labels []string, values []int, colorOf func(int) drawing.Color, w, h int) (image.Image, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("pie chart: %d labels for %d values", len(labels), len(values))
	}
	if colorOf == nil {
		colorOf = ColorOf
	}

	slices := make([]chart.Value, 0, len(values))
	for i, v := range values {
		if v <= 0 {
			continue
		}
		slices = append(slices, chart.Value{
			Label: fmt.Sprintf("%s (%d)", labels[i], v),
			Value: float64(v),
			Style: chart.Style{
				FillColor:   colorOf(i),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}
	if len(slices) == 0 {
		return nil, ErrNoData
	}

	pc := chart.PieChart{
		Title:  "Risk distribution",
		Width:  w,
		Height: h,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		Values: slices,
	}
	return renderPNG(pc.Render)
}

func renderPNG(render func(chart.RendererProvider, io.Writer) error) (image.Image, error) {
	var buf bytes.Buffer
	if err := render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", err)
	}
	return img, nil
}
