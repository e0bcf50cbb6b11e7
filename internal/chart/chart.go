package chart

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"

	"github.com/zombor/xrd-pattern/internal/xrd"
)

// SeriesOffset is the factor between consecutive series so they stack on the log axis
const SeriesOffset = 1000.0

var (
	// ErrNoSeries is returned when no series has a positive intensity to draw
	ErrNoSeries = errors.New("no drawable series")
	// ErrLabelCountMismatch is returned when custom labels do not pair up with documents
	ErrLabelCountMismatch = errors.New("label count does not match document count")
)

// Series is one scan drawn on the figure
type Series struct {
	Sample      string
	Label       string
	Angles      []float64
	Intensities []float64
}

// SeriesFor builds a Series from a parsed scan record
func SeriesFor(record *xrd.Record, label string) Series {
	return Series{
		Sample:      record.SampleName,
		Label:       label,
		Angles:      record.Angles(),
		Intensities: record.Intensities,
	}
}

// Caption is the text written at the right end of the series
func (s Series) Caption() string {
	if s.Label == "" {
		return s.Sample
	}
	return fmt.Sprintf("%s (%s)", s.Sample, s.Label)
}

// Options control the figure decorations
type Options struct {
	Title  string
	Phases []Phase
}

// ParseLabels splits a comma separated label list and checks it has one label per document
func ParseLabels(csv string, documents int) ([]string, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	labels := strings.Split(csv, ",")
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	if len(labels) != documents {
		return nil, fmt.Errorf("%w: %d labels for %d documents", ErrLabelCountMismatch, len(labels), documents)
	}
	return labels, nil
}

// New draws the series on a log intensity axis, each series i scaled by SeriesOffset^i,
// and overlays the reference lines of the given phases.
func New(series []Series, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "2θ (°)"
	p.Y.Label.Text = "Intensity"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = hiddenTickLabels{plot.LogTicks{Prec: -1}}

	ymin, ymax := math.Inf(1), math.Inf(-1)
	drawn := 0
	for i, s := range series {
		xys := scaledPoints(s, math.Pow(SeriesOffset, float64(i)))
		if len(xys) == 0 {
			slog.Warn("Skipping series without positive intensities", "sample", s.Sample)
			continue
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("drawing series %s: %w", s.Sample, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)

		caption, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{xys[len(xys)-1]},
			Labels: []string{s.Caption()},
		})
		if err != nil {
			return nil, fmt.Errorf("labelling series %s: %w", s.Sample, err)
		}
		p.Add(caption)

		for _, xy := range xys {
			ymin = math.Min(ymin, xy.Y)
			ymax = math.Max(ymax, xy.Y)
		}
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoSeries
	}
	if ymin == ymax {
		// plot widens an empty range by ±1, which can cross zero on a log axis
		ymin, ymax = ymin/10, ymax*10
		p.Y.Min, p.Y.Max = ymin, ymax
	}

	for _, phase := range opts.Phases {
		if err := addPhase(p, phase, ymin, ymax); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// scaledPoints pairs angles with scaled intensities, dropping values a log axis cannot show
func scaledPoints(s Series, scale float64) plotter.XYs {
	n := min(len(s.Angles), len(s.Intensities))
	xys := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		x, y := s.Angles[i], s.Intensities[i]*scale
		if !(y > 0) || math.IsInf(y, 0) || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return xys
}

// addPhase draws one vertical line per reflection spanning ymin to ymax
func addPhase(p *plot.Plot, phase Phase, ymin, ymax float64) error {
	labels := plotter.XYLabels{}
	for _, r := range phase.Reflections {
		line, err := plotter.NewLine(plotter.XYs{{X: r.Angle, Y: ymin}, {X: r.Angle, Y: ymax}})
		if err != nil {
			return fmt.Errorf("drawing %s reference line: %w", phase.Name, err)
		}
		line.Color = color.Black
		line.Dashes = phase.Dashes
		p.Add(line)

		labels.XYs = append(labels.XYs, plotter.XY{X: r.Angle + phase.LabelShift, Y: ymax * phase.LabelHeight})
		labels.Labels = append(labels.Labels, phase.Name+" "+r.Miller)
	}
	if len(labels.XYs) == 0 {
		return nil
	}

	reflections, err := plotter.NewLabels(labels)
	if err != nil {
		return fmt.Errorf("labelling %s reference lines: %w", phase.Name, err)
	}
	// Labels read upwards and hang down from their anchor
	for i := range reflections.TextStyle {
		reflections.TextStyle[i].Rotation = math.Pi / 2
		reflections.TextStyle[i].XAlign = text.XRight
		if phase.Side == LabelLeft {
			reflections.TextStyle[i].YAlign = text.YBottom
		} else {
			reflections.TextStyle[i].YAlign = text.YTop
		}
	}
	p.Add(reflections)
	return nil
}

// hiddenTickLabels keeps the tick marks of a Ticker but drops their labels
type hiddenTickLabels struct {
	plot.Ticker
}

func (t hiddenTickLabels) Ticks(lo, hi float64) []plot.Tick {
	ticks := t.Ticker.Ticks(lo, hi)
	for i := range ticks {
		ticks[i].Label = ""
	}
	return ticks
}
