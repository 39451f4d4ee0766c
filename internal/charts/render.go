package charts

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 800
	defaultHeight = 400
)

// Options sizes a rendered chart and formats its value axis.
type Options struct {
	Title  string
	Width  int
	Height int
	// Money formats axis and bar values; nil prints plain numbers.
	Money func(float64) string
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (o Options) formatter() chart.ValueFormatter {
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return fmt.Sprint(v)
		}
		if o.Money != nil {
			return o.Money(f)
		}
		return fmt.Sprintf("%.0f", f)
	}
}

// RenderLine draws the salary history as a PNG line chart with one x tick
// per month.
func RenderLine(w io.Writer, d Data, opt Options) error {
	if len(d.Datasets) == 0 || len(d.Datasets[0].Data) == 0 {
		return ErrNoData
	}
	ds := d.Datasets[0]
	xs := make([]float64, len(ds.Data))
	ticks := make([]chart.Tick, len(ds.Data))
	for i := range ds.Data {
		xs[i] = float64(i + 1)
		label := ""
		if i < len(d.Labels) {
			label = d.Labels[i]
		}
		ticks[i] = chart.Tick{Value: xs[i], Label: label}
	}
	ys := ds.Data
	// a single point has no x range; duplicate it half a step to the right
	if len(xs) == 1 {
		xs = []float64{xs[0], xs[0] + 0.5}
		ys = []float64{ys[0], ys[0]}
	}

	lo, hi := bounds(ys)
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}

	width, height := opt.size()
	ch := chart.Chart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0.5, Max: float64(len(ds.Data)) + 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: opt.formatter(),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    ds.Label,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: hexColor(firstNonEmpty(ds.BorderColor, ColorLine)),
					StrokeWidth: 2,
					DotWidth:    3,
					DotColor:    hexColor(firstNonEmpty(ds.BorderColor, ColorLine)),
				},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// RenderBar draws one bar per label of the first dataset.
func RenderBar(w io.Writer, d Data, opt Options) error {
	if !HasPositive(d) {
		return ErrNoData
	}
	ds := d.Datasets[0]
	_, hi := bounds(ds.Data)

	bars := make([]chart.Value, len(ds.Data))
	for i, v := range ds.Data {
		label := ""
		if i < len(d.Labels) {
			label = d.Labels[i]
		}
		col := hexColor(pick(ds.BackgroundColor, i, ColorMax))
		bars[i] = chart.Value{
			Label: label,
			Value: v,
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
	}

	width, height := opt.size()
	bc := chart.BarChart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		BarWidth:   width / (2*len(bars) + 1),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: hi * 1.1},
			ValueFormatter: opt.formatter(),
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

// RenderPie draws the first dataset as a pie; zero slices are skipped.
func RenderPie(w io.Writer, d Data, opt Options) error {
	if len(d.Datasets) == 0 {
		return ErrNoData
	}
	ds := d.Datasets[0]
	var values []chart.Value
	for i, v := range ds.Data {
		if v <= 0 {
			continue
		}
		label := ""
		if i < len(d.Labels) {
			label = d.Labels[i]
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.0f)", label, v),
			Value: v,
			Style: chart.Style{FillColor: hexColor(pick(ds.BackgroundColor, i, ColorTertiary))},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}

	width, height := opt.size()
	side := height
	if width < side {
		side = width
	}
	pc := chart.PieChart{
		Title:  opt.Title,
		Width:  side,
		Height: side,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func hexColor(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}

func pick(colors []string, i int, fallback string) string {
	if i < len(colors) && colors[i] != "" {
		return colors[i]
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
