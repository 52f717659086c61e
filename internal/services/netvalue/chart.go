package netvalue

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/foliokit/netcurve/internal/models"
)

// RenderCurveChart renders a PNG line chart from a curve series.
// Two series: Market Value (blue solid) and Baseline (gray dashed).
// Returns raw PNG bytes.
func RenderCurveChart(series *models.CurveSeries) ([]byte, error) {
	if series.Len() < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", series.Len())
	}

	xValues := make([]time.Time, series.Len())
	valueY := make([]float64, series.Len())
	baselineY := make([]float64, series.Len())

	for i := range series.Dates {
		d, err := time.Parse(models.DateLayout, series.Dates[i])
		if err != nil {
			return nil, fmt.Errorf("bad date %q in series: %w", series.Dates[i], err)
		}
		xValues[i] = d
		valueY[i], _ = series.MarketValue[i].Float64()
		baselineY[i], _ = series.Baseline[i].Float64()
	}

	valueSeries := chart.TimeSeries{
		Name: "Market Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: valueY,
	}

	baselineSeries := chart.TimeSeries{
		Name: series.BaselineLabel,
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: baselineY,
	}

	graph := chart.Chart{
		Title:  "Net Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			valueSeries,
			baselineSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
