package model

import (
	"github.com/fredbi/labelfit/internal/pkg/fit"
	"github.com/fredbi/labelfit/internal/pkg/measure"
	"github.com/fredbi/labelfit/internal/pkg/placement"
)

// Dataset is a series of values to be rendered as a bar chart, one bar per [Point].
type Dataset struct {
	Title       string  `json:"title" yaml:"title"`
	Environment string  `json:"environment,omitempty" yaml:"environment"`
	Unit        string  `json:"unit,omitempty" yaml:"unit"`
	File        string  `json:"file,omitempty" yaml:"-"`
	Points      []Point `json:"points" yaml:"points"`
}

// Point is a single data point of a [Dataset].
//
// The Label is displayed on the category axis. When empty, it is derived from the Category.
type Point struct {
	Category string  `json:"category" yaml:"category"`
	Label    string  `json:"label,omitempty" yaml:"label"`
	Value    float64 `json:"value" yaml:"value"`
	Color    string  `json:"color,omitempty" yaml:"color"`
}

// Labels returns the category axis labels of the dataset.
func (d Dataset) Labels() []string {
	labels := make([]string, 0, len(d.Points))
	for _, point := range d.Points {
		labels = append(labels, point.Label)
	}

	return labels
}

// MaxValue returns the largest value of the dataset, or 0 when all values are negative.
func (d Dataset) MaxValue() float64 {
	var maxValue float64
	for _, point := range d.Points {
		maxValue = max(maxValue, point.Value)
	}

	return maxValue
}

// Plan is a chart laid out to fit its labels.
//
// All lengths are expressed in pixels.
type Plan struct {
	ID          string           `json:"id"`
	Title       []placement.Line `json:"title,omitempty"`
	TitleFont   measure.FontSpec `json:"titleFont"`
	Environment string           `json:"environment,omitempty"`
	Unit        string           `json:"unit,omitempty"`
	Width       float64          `json:"width"`
	Height      float64          `json:"height"`
	Padding     float64          `json:"padding"`
	Margin      Margin           `json:"margin"`
	PlotWidth   float64          `json:"plotWidth"`
	BandHeight  float64          `json:"bandHeight"`
	BarHeight   float64          `json:"barHeight"`
	Background  string           `json:"background"`
	TextColor   string           `json:"textColor"`
	Bars        []Bar            `json:"bars"`
}

// TitleText returns the lines of the title.
func (p Plan) TitleText() []string {
	lines := make([]string, 0, len(p.Title))
	for _, line := range p.Title {
		lines = append(lines, line.Text)
	}

	return lines
}

// Margin around the plot area.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Bar is a single mark of a [Plan], with its category label and value label.
type Bar struct {
	Category   string                      `json:"category"`
	Label      fit.FitResult               `json:"label"`
	LabelFont  measure.FontSpec            `json:"labelFont"`
	Value      float64                     `json:"value"`
	ValueText  string                      `json:"valueText"`
	ValueFont  measure.FontSpec            `json:"valueFont"`
	Length     float64                     `json:"length"`
	Fill       string                      `json:"fill"`
	ValueLabel placement.PlacementDecision `json:"valueLabel"`
}

// IsInside tells if the value label is drawn inside the bar.
func (b Bar) IsInside() bool {
	return b.ValueLabel.Position == placement.Inside
}
