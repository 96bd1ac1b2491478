package chart

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"

	"github.com/fredbi/labelfit/internal/pkg/measure"
	"github.com/fredbi/labelfit/internal/pkg/model"
	"github.com/fredbi/labelfit/internal/pkg/placement"
)

const (
	defaultFontSize = 12
	axisNameGap     = 24
)

// echarts label positions for horizontal bars.
const (
	positionInside      = "inside"
	positionInsideRight = "insideRight"
	positionRight       = "right"
)

// compactFormatter renders value axis ticks with SI suffixes, like value labels.
const compactFormatter = `function (value) {
  var abs = Math.abs(value);
  if (abs >= 1e9) { return +(value / 1e9).toFixed(2) + 'G'; }
  if (abs >= 1e6) { return +(value / 1e6).toFixed(2) + 'M'; }
  if (abs >= 1e3) { return +(value / 1e3).toFixed(2) + 'K'; }
  return +value.toFixed(2);
}`

// Chart is a horizontal bar chart laid out by a [model.Plan].
type Chart struct {
	options

	Plan model.Plan
}

// categoryLabel is a category axis entry, styled after its fitted label.
type categoryLabel struct {
	Value     string        `json:"value"`
	TextStyle categoryStyle `json:"textStyle"`
}

type categoryStyle struct {
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize"`
	FontWeight string  `json:"fontWeight,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
}

// NewChart creates a new chart from a layout [model.Plan].
func NewChart(plan model.Plan, opts ...Option) *Chart {
	return &Chart{
		options: optionsWithDefaults(opts),
		Plan:    plan,
	}
}

// Build creates the ECharts bar chart.
//
// Margins, bar widths, label fonts, label positions and label colors follow the plan:
// nothing is left for ECharts to guess.
func (c *Chart) Build() *charts.Bar {
	bar := charts.NewBar()
	plan := c.Plan

	titleOpts := c.titleOpts()
	xAxisOpts, yAxisOpts := c.setAxes()

	gridTop := plan.Margin.Top
	if c.Subtitle != "" {
		gridTop += c.subtitleSize() * lineHeightRatio(plan)
	}

	gridOpts := echartsopts.Grid{
		Left:   pixels(plan.Margin.Left),
		Right:  pixels(plan.Margin.Right),
		Top:    pixels(gridTop),
		Bottom: pixels(plan.Margin.Bottom),
	}

	globals := []charts.GlobalOpts{
		charts.WithInitializationOpts(echartsopts.Initialization{
			Theme:           c.Theme,
			Width:           pixels(plan.Width) + "px",
			Height:          pixels(plan.Height+c.extraHeight()) + "px",
			BackgroundColor: plan.Background,
			PageTitle:       strings.Join(plan.TitleText(), " "),
		}),
		charts.WithTitleOpts(titleOpts),
		charts.WithLegendOpts(echartsopts.Legend{
			Show: echartsopts.Bool(false),
		}),
		charts.WithGridOpts(gridOpts),
		charts.WithXAxisOpts(xAxisOpts),
		charts.WithYAxisOpts(yAxisOpts),
	}

	if c.ShowToolbox {
		globals = append(globals, charts.WithToolboxOpts(echartsopts.Toolbox{
			Left: "right",
			Feature: &echartsopts.ToolBoxFeature{
				SaveAsImage: &echartsopts.ToolBoxFeatureSaveAsImage{
					Title: "Save as image",
				},
			},
		}))
	}

	if c.ShowTooltip {
		globals = append(globals, charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:    echartsopts.Bool(true),
			Trigger: "axis",
			AxisPointer: &echartsopts.AxisPointer{
				Type: "shadow",
			},
		}))
	}

	bar.SetGlobalOptions(globals...)

	categories := make([]categoryLabel, 0, len(plan.Bars))
	data := make([]echartsopts.BarData, 0, len(plan.Bars))
	for _, b := range plan.Bars {
		categories = append(categories, categoryLabel{
			Value:     b.Label.Text,
			TextStyle: styleOf(b.LabelFont),
		})
		data = append(data, barData(b))
	}

	bar.SetXAxis(categories)
	bar.AddSeries(c.seriesName(), data,
		charts.WithBarChartOpts(echartsopts.BarChart{
			BarWidth: pixels(plan.BarHeight),
		}),
	)

	return bar.XYReversal()
}

func (c *Chart) titleOpts() echartsopts.Title {
	plan := c.Plan
	titleOpts := echartsopts.Title{
		Title: strings.Join(plan.TitleText(), "\n"),
		Left:  pixels(plan.Padding),
		Top:   pixels(plan.Padding),
		TitleStyle: &echartsopts.TextStyle{
			Color:      plan.TextColor,
			FontFamily: plan.TitleFont.Family,
			FontSize:   int(math.Round(plan.TitleFont.Size)),
			FontWeight: plan.TitleFont.Weight,
			FontStyle:  plan.TitleFont.Style,
			LineHeight: int(math.Round(plan.TitleFont.Size * lineHeightRatio(plan))),
		},
	}

	if c.Subtitle != "" {
		titleOpts.Subtitle = c.Subtitle
		titleOpts.SubtitleStyle = &echartsopts.TextStyle{
			Color:     plan.TextColor,
			FontStyle: "italic",
			FontSize:  int(math.Round(c.subtitleSize())),
		}
	}

	return titleOpts
}

// setAxes builds the axes of a horizontal bar chart: X is the value axis, Y the category axis.
func (c *Chart) setAxes() (echartsopts.XAxis, echartsopts.YAxis) {
	plan := c.Plan

	valueAxis := echartsopts.XAxis{
		Name:         c.ValueAxisName,
		NameLocation: "center",
		NameGap:      axisNameGap,
		Type:         "value",
		Min:          0,
		AxisLabel: &echartsopts.AxisLabel{
			Formatter:  echartsopts.FuncOpts(compactFormatter),
			Color:      plan.TextColor,
			FontFamily: c.AxisFont.Family,
			FontSize:   int(math.Round(c.AxisFont.Size)),
		},
	}

	if maxValue := maxValueOf(plan); maxValue > 0 {
		valueAxis.Max = maxValue
	}

	// bars are listed from top to bottom
	categoryAxis := echartsopts.YAxis{
		Type:    "category",
		Inverse: echartsopts.Bool(true),
		AxisLabel: &echartsopts.AxisLabel{
			Interval:     "0",
			Margin:       plan.Padding,
			ShowMinLabel: echartsopts.Bool(true),
			ShowMaxLabel: echartsopts.Bool(true),
			HideOverlap:  echartsopts.Bool(false),
			Color:        plan.TextColor,
		},
	}

	return valueAxis, categoryAxis
}

func (c *Chart) seriesName() string {
	if c.ValueAxisName != "" {
		return c.ValueAxisName
	}

	return "value"
}

func (c *Chart) subtitleSize() float64 {
	if c.AxisFont.Size > 0 {
		return c.AxisFont.Size
	}

	return defaultFontSize
}

// extraHeight is the room taken by the subtitle, which the plan does not account for.
func (c *Chart) extraHeight() float64 {
	if c.Subtitle == "" {
		return 0
	}

	return c.subtitleSize() * lineHeightRatio(c.Plan)
}

// barData renders a bar with its value label, as placed by the plan.
func barData(b model.Bar) echartsopts.BarData {
	data := echartsopts.BarData{
		Name:  b.Label.Text,
		Value: b.Value,
		ItemStyle: &echartsopts.ItemStyle{
			Color: b.Fill,
		},
	}

	if b.ValueText == "" {
		data.Label = &echartsopts.Label{
			Show: echartsopts.Bool(false),
		}

		return data
	}

	data.Label = &echartsopts.Label{
		Show:       echartsopts.Bool(true),
		Position:   labelPosition(b.ValueLabel),
		Color:      b.ValueLabel.TextColor,
		FontFamily: b.ValueFont.Family,
		FontSize:   float32(b.ValueFont.Size),
		FontWeight: b.ValueFont.Weight,
		FontStyle:  b.ValueFont.Style,
		Formatter:  b.ValueText,
	}

	return data
}

func labelPosition(decision placement.PlacementDecision) string {
	switch {
	case decision.Position == placement.Outside:
		return positionRight
	case decision.Anchor == placement.AnchorEnd:
		return positionInsideRight
	default:
		return positionInside
	}
}

func styleOf(font measure.FontSpec) categoryStyle {
	return categoryStyle{
		FontFamily: font.Family,
		FontSize:   font.Size,
		FontWeight: font.Weight,
		FontStyle:  font.Style,
	}
}

func maxValueOf(plan model.Plan) float64 {
	var maxValue float64
	for _, b := range plan.Bars {
		maxValue = max(maxValue, b.Value)
	}

	return maxValue
}

// lineHeightRatio recovers the line height of the title, in em.
func lineHeightRatio(plan model.Plan) float64 {
	const fallback = placement.DefaultLineHeight

	if len(plan.Title) < 2 || plan.TitleFont.Size <= 0 {
		return fallback
	}

	return plan.Title[1].DY / plan.TitleFont.Size
}

// pixels renders a length for echarts, with at most one decimal.
func pixels(v float64) string {
	return humanize.FtoaWithDigits(max(v, 0), 1)
}
