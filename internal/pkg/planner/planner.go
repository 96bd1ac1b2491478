// Package planner lays out bar charts so that their titles, category labels and value labels fit.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/fredbi/labelfit/internal/pkg/config"
	"github.com/fredbi/labelfit/internal/pkg/fit"
	"github.com/fredbi/labelfit/internal/pkg/measure"
	"github.com/fredbi/labelfit/internal/pkg/model"
	"github.com/fredbi/labelfit/internal/pkg/placement"
)

// ErrEmptyDataset is returned when planning a dataset without any point.
var ErrEmptyDataset = errors.New("empty dataset")

// Planner computes the layout of bar charts from a configuration.
type Planner struct {
	options

	cfg      *config.Config
	measurer measure.Measurer
	sizer    *fit.Sizer
	resolver *placement.Resolver
	l        *slog.Logger
}

// New builds a [Planner] measuring text with the provided [measure.Measurer].
//
// The configuration must have been validated, e.g. by [config.Load].
func New(cfg *config.Config, measurer measure.Measurer, opts ...Option) *Planner {
	return &Planner{
		options:  optionsWithDefaults(opts),
		cfg:      cfg,
		measurer: measurer,
		sizer: fit.New(measurer,
			fit.WithEllipsis(cfg.Layout.Ellipsis),
		),
		resolver: placement.New(measurer,
			placement.WithEdgeAligned(cfg.Layout.EdgeAligned),
			placement.WithMinContrast(cfg.Layout.MinContrast),
			placement.WithLightDark(placement.DefaultLight, cfg.Colors.Text),
		),
		l: slog.Default().With(slog.String("module", "planner")),
	}
}

// PlanAll lays out a chart for each dataset.
func (p *Planner) PlanAll(datasets []model.Dataset) ([]model.Plan, error) {
	plans := make([]model.Plan, 0, len(datasets))
	ids := make(map[string]struct{}, len(datasets))

	for i, dataset := range datasets {
		if len(dataset.Points) == 0 {
			return nil, fmt.Errorf("planning dataset #%d %q: %w", i, dataset.Title, ErrEmptyDataset)
		}

		plan := p.Plan(dataset)
		plan.ID = uniqueID(ids, plan.ID)
		ids[plan.ID] = struct{}{}

		plans = append(plans, plan)
	}

	return plans, nil
}

// Plan lays out a single dataset as a horizontal bar chart.
//
// The title is wrapped to the chart width. The left margin is sized after the widest category label,
// up to the configured maximum margin: longer labels are shrunk, then truncated. Value labels are placed
// inside bars when they fit, and after the end of bars otherwise.
func (p *Planner) Plan(dataset model.Dataset) model.Plan {
	layout := p.cfg.Layout
	typo := p.cfg.Typography
	pad := layout.Padding
	width := float64(layout.Width)

	plan := model.Plan{
		ID:          planID(dataset.Title),
		TitleFont:   typo.Title.FontSpec(),
		Environment: dataset.Environment,
		Unit:        dataset.Unit,
		Width:       width,
		Padding:     pad,
		Background:  p.cfg.Colors.Background,
		TextColor:   p.cfg.Colors.Text,
		Bars:        make([]model.Bar, 0, len(dataset.Points)),
	}

	// title
	plan.Margin.Top = pad
	if dataset.Title != "" {
		titleWidth := layout.TitleWidth
		if titleWidth <= 0 {
			titleWidth = width - 2*pad
		}

		block := p.resolver.WrapBlock(dataset.Title, titleWidth, plan.TitleFont, typo.LineHeight)
		plan.Title = block.Lines
		plan.Margin.Top += block.Height + pad
	}

	// category axis
	axisFont := typo.Axis.FontSpec()
	left := measure.Widest(p.measurer, dataset.Labels(), axisFont) + 2*pad
	if layout.MaxMargin > 0 {
		left = min(left, layout.MaxMargin)
	}
	plan.Margin.Left = left

	// value labels
	labelFont := typo.Label.FontSpec()
	values := make([]string, 0, len(dataset.Points))
	for _, point := range dataset.Points {
		values = append(values, p.formatValue(point.Value))
	}
	plan.Margin.Right = measure.Widest(p.measurer, values, labelFont) + 2*pad
	plan.Margin.Bottom = 2*pad + axisFont.Size*typo.LineHeight

	plan.PlotWidth = width - plan.Margin.Left - plan.Margin.Right
	if plan.PlotWidth <= 0 {
		p.l.Warn("chart is too narrow for its labels",
			slog.String("chart", plan.ID),
			slog.Float64("width", width),
			slog.Float64("left_margin", plan.Margin.Left),
			slog.Float64("right_margin", plan.Margin.Right),
		)
		plan.PlotWidth = 0
	}

	n := float64(len(dataset.Points))
	plan.BandHeight = layout.BarHeight
	if layout.Height > 0 && n > 0 {
		plan.BandHeight = max((float64(layout.Height)-plan.Margin.Top-plan.Margin.Bottom)/n, 0)
		plan.Height = float64(layout.Height)
	} else {
		plan.Height = plan.Margin.Top + plan.Margin.Bottom + n*plan.BandHeight
	}
	plan.BarHeight = plan.BandHeight * (1 - layout.BarGap)

	maxValue := dataset.MaxValue()
	contrast := p.cfg.Colors.Contrast()
	var truncated, shrunk int

	for i, point := range dataset.Points {
		bar := model.Bar{
			Category: point.Category,
			Value:    point.Value,
			Fill:     point.Color,
		}
		if bar.Fill == "" {
			bar.Fill = p.cfg.CategoryColor(point.Category, i)
		}

		bar.Label = p.sizer.Fit(point.Label, fit.LayoutBudget{
			MaxWidth:  left - 2*pad,
			MaxHeight: plan.BandHeight,
		}, axisFont, typo.Axis.MinSize)
		bar.LabelFont = axisFont.WithSize(bar.Label.FontSize)

		switch {
		case bar.Label.Truncated:
			truncated++
		case bar.Label.FontSize < axisFont.Size:
			shrunk++
		}

		if maxValue > 0 && point.Value > 0 {
			bar.Length = point.Value / maxValue * plan.PlotWidth
		}

		value := p.sizer.Fit(values[i], fit.LayoutBudget{
			MaxWidth:  plan.Margin.Right - pad,
			MaxHeight: plan.BarHeight,
		}, labelFont, typo.Label.MinSize)
		bar.ValueText = value.Text
		bar.ValueFont = labelFont.WithSize(value.FontSize)
		bar.ValueLabel = p.resolver.ResolveInlineLabel(bar.Length, bar.ValueText, bar.ValueFont, bar.Fill, contrast, pad)

		plan.Bars = append(plan.Bars, bar)
	}

	p.l.Info("chart planned",
		slog.String("chart", plan.ID),
		slog.Int("bars", len(plan.Bars)),
		slog.Int("title_lines", len(plan.Title)),
		slog.Int("shrunk_labels", shrunk),
		slog.Int("truncated_labels", truncated),
		slog.Float64("left_margin", plan.Margin.Left),
		slog.Float64("plot_width", plan.PlotWidth),
	)

	return plan
}

// uniqueID suffixes id with the first free counter: id, id-1, id-2...
func uniqueID(ids map[string]struct{}, id string) string {
	candidate := id
	for n := 1; ; n++ {
		if _, taken := ids[candidate]; !taken {
			return candidate
		}

		candidate = fmt.Sprintf("%s-%d", id, n)
	}
}

// formatValue renders a value label, rounded to the configured number of decimals.
func (p *Planner) formatValue(value float64) string {
	if !p.compact {
		return humanize.CommafWithDigits(p.round(value), p.valueDigits)
	}

	value = p.round(value)
	if math.Abs(value) < 1000 {
		return humanize.FtoaWithDigits(value, p.valueDigits)
	}

	scaled, prefix := humanize.ComputeSI(value)
	if rounded := p.round(scaled); math.Abs(rounded) >= 1000 {
		// rounding carried over to the next prefix, e.g. 999.999K
		scale := math.Round(value / scaled)
		scaled, prefix = humanize.ComputeSI(rounded * scale)
	}
	if prefix == "k" {
		prefix = "K"
	}

	return humanize.FtoaWithDigits(p.round(scaled), p.valueDigits) + prefix
}

func (p *Planner) round(value float64) float64 {
	scale := math.Pow10(p.valueDigits)

	return math.Round(value*scale) / scale
}

// planID derives an identifier from a chart title.
func planID(title string) string {
	var b strings.Builder
	dash := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false

			continue
		}

		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	id := strings.TrimSuffix(b.String(), "-")
	if id == "" {
		return "chart"
	}

	return id
}
