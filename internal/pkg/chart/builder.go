package chart

import (
	"io"
	"log/slog"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/fredbi/labelfit/internal/pkg/config"
	"github.com/fredbi/labelfit/internal/pkg/model"
)

// Builder constructs charts from layout plans.
type Builder struct {
	cfg   *config.Config
	plans []model.Plan
	l     *slog.Logger
}

// New creates a new chart [Builder], given a [config.Config] and pre-calculated layout plans.
//
// The builder embeds a [slog.Logger] to croak about warnings and issues.
func New(cfg *config.Config, plans []model.Plan) *Builder {
	return &Builder{
		cfg:   cfg,
		plans: plans,
		l:     slog.Default().With(slog.String("module", "chart")),
	}
}

// BuildPage creates a page with one chart per plan.
func (b *Builder) BuildPage() *Page {
	page := NewPage(b.cfg.Name)

	for _, plan := range b.plans {
		chart := b.buildChart(plan)
		if chart == nil {
			b.l.Warn("empty chart skipped", slog.String("chart", plan.ID))

			continue
		}

		page.AddChart(chart)
		b.l.Info("added chart", slog.String("chart", plan.ID), slog.Int("bars", len(plan.Bars)))
	}

	b.l.Info("added charts", slog.Int("charts", len(page.Charts)))

	return page
}

func (b *Builder) buildChart(plan model.Plan) *Chart {
	if len(plan.Bars) == 0 {
		return nil
	}

	return NewChart(plan,
		WithSubtitle(plan.Environment),
		WithValueAxisName(plan.Unit),
		WithAxisFont(b.cfg.Typography.Axis.FontSpec()),
		WithTheme(b.cfg.Render.Theme),
		WithToolbox(b.cfg.Outputs.PngFile == ""), // no toolbox on screenshots
	)
}

// Page stacks the charts of several plans on a single HTML page.
type Page struct {
	Title  string
	Charts []*Chart
}

// NewPage creates a new page with the given title.
func NewPage(title string) *Page {
	return &Page{
		Title: title,
	}
}

// AddChart adds a chart to the page.
func (p *Page) AddChart(c *Chart) {
	p.Charts = append(p.Charts, c)
}

// Render writes the page HTML to the given writer.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.SetPageTitle(p.Title)

	for _, c := range p.Charts {
		page.AddCharts(c.Build())
	}

	return page.Render(w)
}
