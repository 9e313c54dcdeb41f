package chart

import (
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"cardstats/internal/stats"
)

const (
	maxTicks   = 12
	barWidth   = 18
	barSpacing = 6
)

// WritePNG draws the instance as a PNG image.
func (i *Instance) WritePNG(w io.Writer) error {
	labels, datasets, err := i.snapshot()
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		return ErrNoData
	}

	switch i.kind {
	case Line:
		return i.writeLine(w, labels, datasets)
	case Bar:
		return i.writeBar(w, labels, datasets)
	default:
		return fmt.Errorf("unsupported chart kind %q", i.kind)
	}
}

func (i *Instance) writeLine(w io.Writer, labels []string, datasets []Dataset) error {
	xs := make([]float64, len(labels))
	for k := range xs {
		xs[k] = float64(k)
	}

	series := make([]gochart.Series, 0, len(datasets))
	for _, ds := range datasets {
		c := drawing.ColorFromHex(ds.Color)
		style := gochart.Style{StrokeColor: c, StrokeWidth: 2}
		if ds.Fill {
			style.FillColor = c.WithAlpha(48)
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    ds.Label,
			Style:   style,
			XValues: xs,
			YValues: ds.Data,
		})
	}

	graph := gochart.Chart{
		Title:  i.title,
		Width:  i.width,
		Height: i.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			// A single month would otherwise give an empty range.
			Range: &gochart.ContinuousRange{Min: 0, Max: math.Max(1, float64(len(labels)-1))},
			Ticks: ticks(labels),
		},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: ceiling(datasets)},
			ValueFormatter: formatValue,
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", i.target, err)
	}
	return nil
}

// writeBar groups the datasets per label, one bar per dataset.
func (i *Instance) writeBar(w io.Writer, labels []string, datasets []Dataset) error {
	bars := make([]gochart.Value, 0, len(labels)*len(datasets))
	for k, label := range labels {
		for d, ds := range datasets {
			c := drawing.ColorFromHex(ds.Color)
			v := gochart.Value{
				Value: ds.Data[k],
				Style: gochart.Style{FillColor: c, StrokeColor: c},
			}
			if d == 0 {
				v.Label = label
			}
			bars = append(bars, v)
		}
	}

	width := i.width
	if need := len(bars)*(barWidth+barSpacing) + 120; need > width {
		width = need
	}

	graph := gochart.BarChart{
		Title:  i.title,
		Width:  width,
		Height: i.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: ceiling(datasets)},
			ValueFormatter: formatValue,
		},
		Bars: bars,
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", i.target, err)
	}
	return nil
}

// ticks thins the labels so at most maxTicks are drawn.
func ticks(labels []string) []gochart.Tick {
	step := int(math.Ceil(float64(len(labels)) / maxTicks))
	if step < 1 {
		step = 1
	}
	out := make([]gochart.Tick, 0, maxTicks+1)
	for k := 0; k < len(labels); k += step {
		out = append(out, gochart.Tick{Value: float64(k), Label: labels[k]})
	}
	return out
}

// ceiling is the y-axis maximum: the largest value plus headroom, or 1 when
// every value is zero.
func ceiling(datasets []Dataset) float64 {
	var top float64
	for _, ds := range datasets {
		for _, v := range ds.Data {
			top = math.Max(top, v)
		}
	}
	if top <= 0 {
		return 1
	}
	return top * 1.1
}

func formatValue(v interface{}) string {
	if f, ok := v.(float64); ok {
		return stats.FormatNumber(math.Round(f))
	}
	return ""
}
