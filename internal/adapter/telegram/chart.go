package telegram

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var funnelBarColor = drawing.ColorFromHex("2b7bb9")

// renderFunnelChart draws one bar per funnel step as a PNG.
func renderFunnelChart(labels []string, values []int) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("funnel chart: %d labels for %d values", len(labels), len(values))
	}
	top := 0
	for _, v := range values {
		top = max(top, v)
	}
	// go-chart падает на пустом диапазоне оси
	yRange := &chart.ContinuousRange{Min: 0, Max: float64(max(top, 1))}

	barStyle := chart.Style{FillColor: funnelBarColor, StrokeColor: funnelBarColor}
	bars := make([]chart.Value, len(labels))
	for i, l := range labels {
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%s (%d)", l, values[i]),
			Value: float64(values[i]),
			Style: barStyle,
		}
	}

	graph := chart.BarChart{
		Title:      "Воронка заявок",
		Width:      1100,
		Height:     600,
		BarWidth:   96,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 16, Right: 16}},
		YAxis:      chart.YAxis{Range: yRange},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("funnel chart: %w", err)
	}
	return buf.Bytes(), nil
}
