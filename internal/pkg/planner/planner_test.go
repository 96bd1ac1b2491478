package planner

import (
	"testing"
	"unicode/utf8"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"

	"github.com/fredbi/labelfit/internal/pkg/config"
	"github.com/fredbi/labelfit/internal/pkg/measure"
	"github.com/fredbi/labelfit/internal/pkg/model"
	"github.com/fredbi/labelfit/internal/pkg/placement"
)

const epsilon = 1e-9

func TestPlan(t *testing.T) {
	cfg := mustLoadDefaults(t)
	p := New(cfg, monoMeasurer{})

	plan := p.Plan(populationDataset())

	t.Run("should wrap the title", func(t *testing.T) {
		require.Len(t, plan.Title, 1)
		assert.Equal(t, "Population", plan.Title[0].Text)
		assert.Equal(t, []string{"Population"}, plan.TitleText())
		assert.Equal(t, "population", plan.ID)
		assert.InDelta(t, 5+18*1.2+5, plan.Margin.Top, epsilon)
	})

	t.Run("should size margins after labels", func(t *testing.T) {
		// "Czech Republic" at 12px, plus padding
		assert.InDelta(t, 14*6+10, plan.Margin.Left, epsilon)
		// "100K" at 11px, plus padding
		assert.InDelta(t, 4*5.5+10, plan.Margin.Right, epsilon)
		assert.InDelta(t, 10+12*1.2, plan.Margin.Bottom, epsilon)
		assert.InDelta(t, 960-94-32, plan.PlotWidth, epsilon)
	})

	t.Run("should stack bands", func(t *testing.T) {
		assert.InDelta(t, 28, plan.BandHeight, epsilon)
		assert.InDelta(t, 28*0.7, plan.BarHeight, epsilon)
		assert.InDelta(t, plan.Margin.Top+plan.Margin.Bottom+3*28, plan.Height, epsilon)
		assert.InDelta(t, 960, plan.Width, epsilon)
	})

	require.Len(t, plan.Bars, 3)

	t.Run("should keep category labels which fit", func(t *testing.T) {
		for _, bar := range plan.Bars {
			assert.False(t, bar.Label.Truncated)
			assert.InDelta(t, 12, bar.Label.FontSize, epsilon)
			assert.InDelta(t, 12, bar.LabelFont.Size, epsilon)
		}
		assert.Equal(t, "Czech Republic", plan.Bars[0].Label.Text)
	})

	t.Run("should scale bars to the largest value", func(t *testing.T) {
		assert.InDelta(t, plan.PlotWidth, plan.Bars[0].Length, epsilon)
		assert.InDelta(t, plan.PlotWidth/2, plan.Bars[1].Length, epsilon)
		assert.InDelta(t, plan.PlotWidth/100, plan.Bars[2].Length, epsilon)
	})

	t.Run("should format values", func(t *testing.T) {
		assert.Equal(t, "10M", plan.Bars[0].ValueText)
		assert.Equal(t, "5M", plan.Bars[1].ValueText)
		assert.Equal(t, "100K", plan.Bars[2].ValueText)
	})

	t.Run("should place value labels", func(t *testing.T) {
		first := plan.Bars[0]
		assert.Equal(t, "#1f77b4", first.Fill)
		assert.True(t, first.IsInside())
		assert.Equal(t, placement.AnchorMiddle, first.ValueLabel.Anchor)
		assert.Equal(t, "#ffffff", first.ValueLabel.TextColor)

		second := plan.Bars[1]
		assert.Equal(t, "#ff7f0e", second.Fill)
		assert.True(t, second.IsInside())
		assert.Equal(t, "#333333", second.ValueLabel.TextColor, "white on orange lacks contrast")

		third := plan.Bars[2]
		assert.False(t, third.IsInside())
		assert.Equal(t, placement.AnchorStart, third.ValueLabel.Anchor)
		assert.InDelta(t, third.Length+5, third.ValueLabel.X, epsilon)
		assert.Equal(t, "#333333", third.ValueLabel.TextColor)
	})
}

func TestPlanWithNarrowMargin(t *testing.T) {
	cfg := mustLoadDefaults(t)
	cfg.Layout.MaxMargin = 60
	p := New(cfg, monoMeasurer{})

	plan := p.Plan(model.Dataset{
		Points: []model.Point{
			{Category: "czech-republic", Label: "Czech Republic", Value: 3},
			{Category: "netherlands", Label: "Netherlands", Value: 2},
			{Category: "germany", Label: "Germany", Value: 1},
		},
	})

	assert.Empty(t, plan.Title)
	assert.Equal(t, "chart", plan.ID)
	assert.InDelta(t, 5, plan.Margin.Top, epsilon)
	assert.InDelta(t, 60, plan.Margin.Left, epsilon)
	require.Len(t, plan.Bars, 3)

	t.Run("should truncate labels which do not fit at the minimum size", func(t *testing.T) {
		label := plan.Bars[0].Label
		assert.True(t, label.Truncated)
		assert.Equal(t, "Czech Repub…", label.Text)
		assert.InDelta(t, 8, label.FontSize, epsilon)
	})

	t.Run("should shrink labels which fit at a smaller size", func(t *testing.T) {
		label := plan.Bars[1].Label
		assert.False(t, label.Truncated)
		assert.Equal(t, "Netherlands", label.Text)
		assert.InDelta(t, 9, label.FontSize, epsilon)
	})

	t.Run("should keep labels which fit", func(t *testing.T) {
		label := plan.Bars[2].Label
		assert.False(t, label.Truncated)
		assert.InDelta(t, 12, label.FontSize, epsilon)
	})
}

func TestPlanWithFixedHeight(t *testing.T) {
	cfg := mustLoadDefaults(t)
	cfg.Layout.Height = 400
	p := New(cfg, monoMeasurer{})

	plan := p.Plan(populationDataset())

	assert.InDelta(t, 400, plan.Height, epsilon)
	assert.InDelta(t, (400-plan.Margin.Top-plan.Margin.Bottom)/3, plan.BandHeight, epsilon)
	assert.InDelta(t, plan.BandHeight*0.7, plan.BarHeight, epsilon)
}

func TestPlanWithTinyBars(t *testing.T) {
	cfg := mustLoadDefaults(t)
	cfg.Layout.BarHeight = 10
	cfg.Layout.BarGap = 0.5
	p := New(cfg, monoMeasurer{})

	plan := p.Plan(populationDataset())
	require.Len(t, plan.Bars, 3)

	for _, bar := range plan.Bars {
		// value labels shrink to the bar height, down to the minimum label size
		assert.InDelta(t, 8, bar.ValueFont.Size, epsilon)
		assert.LessOrEqual(t, bar.Label.FontSize, 10.0)
	}
}

func TestPlanWithNarrowChart(t *testing.T) {
	cfg := mustLoadDefaults(t)
	cfg.Layout.Width = 50
	p := New(cfg, monoMeasurer{})

	plan := p.Plan(populationDataset())

	assert.InDelta(t, 0, plan.PlotWidth, epsilon)
	for _, bar := range plan.Bars {
		assert.InDelta(t, 0, bar.Length, epsilon)
		assert.False(t, bar.IsInside())
	}
}

func TestPlanWithNegativeValues(t *testing.T) {
	cfg := mustLoadDefaults(t)
	p := New(cfg, monoMeasurer{})

	plan := p.Plan(model.Dataset{
		Title: "Deltas",
		Points: []model.Point{
			{Category: "a", Label: "A", Value: -5, Color: "#000000"},
			{Category: "b", Label: "B", Value: 10},
		},
	})

	require.Len(t, plan.Bars, 2)
	assert.InDelta(t, 0, plan.Bars[0].Length, epsilon)
	assert.Equal(t, "#000000", plan.Bars[0].Fill)
	assert.Equal(t, "-5", plan.Bars[0].ValueText)
	assert.InDelta(t, plan.PlotWidth, plan.Bars[1].Length, epsilon)
}

func TestPlanAll(t *testing.T) {
	cfg := mustLoadDefaults(t)
	p := New(cfg, monoMeasurer{})

	t.Run("should plan all datasets with unique IDs", func(t *testing.T) {
		plans, err := p.PlanAll([]model.Dataset{populationDataset(), populationDataset()})
		require.NoError(t, err)
		require.Len(t, plans, 2)

		assert.Equal(t, "population", plans[0].ID)
		assert.Equal(t, "population-1", plans[1].ID)
	})

	t.Run("should keep IDs unique with repeated titles", func(t *testing.T) {
		suffixed := populationDataset()
		suffixed.Title = "Population 1"

		plans, err := p.PlanAll([]model.Dataset{
			populationDataset(),
			populationDataset(),
			populationDataset(),
			suffixed,
		})
		require.NoError(t, err)
		require.Len(t, plans, 4)

		ids := make([]string, 0, len(plans))
		for _, plan := range plans {
			ids = append(ids, plan.ID)
		}
		assert.Equal(t, []string{"population", "population-1", "population-2", "population-1-1"}, ids)
	})

	t.Run("should fail on empty datasets", func(t *testing.T) {
		_, err := p.PlanAll([]model.Dataset{populationDataset(), {Title: "empty"}})
		require.Error(t, err)
		require.ErrorIs(t, err, ErrEmptyDataset)
		assert.Contains(t, err.Error(), `"empty"`)
	})
}

func TestFormatValue(t *testing.T) {
	compact := New(mustLoadDefaults(t), monoMeasurer{})
	plain := New(mustLoadDefaults(t), monoMeasurer{}, WithCompactValues(false), WithValueDigits(1))

	for _, tc := range []struct {
		value    float64
		compact  string
		expected string
	}{
		{0, "0", "0"},
		{12.346, "12.35", "12.3"},
		{84_359, "84.36K", "84,359"},
		{999, "999", "999"},
		{999.999, "1K", "1,000"},
		{999_999, "1M", "999,999"},
		{-999_999, "-1M", "-999,999"},
		{999_994, "999.99K", "999,994"},
		{1500, "1.5K", "1,500"},
		{100_000, "100K", "100,000"},
		{2_500_000, "2.5M", "2,500,000"},
		{-4200, "-4.2K", "-4,200"},
	} {
		assert.Equal(t, tc.compact, compact.formatValue(tc.value))
		assert.Equal(t, tc.expected, plain.formatValue(tc.value))
	}
}

func TestPlanID(t *testing.T) {
	for _, tc := range []struct {
		title    string
		expected string
	}{
		{"", "chart"},
		{"  ", "chart"},
		{"Population", "population"},
		{"Benchmarks (timings)", "benchmarks-timings"},
		{"Česká republika: 2024", "česká-republika-2024"},
	} {
		assert.Equal(t, tc.expected, planID(tc.title))
	}
}

func mustLoadDefaults(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadDefaults()
	require.NoError(t, err)

	return cfg
}

func populationDataset() model.Dataset {
	return model.Dataset{
		Title: "Population",
		Unit:  "people",
		Points: []model.Point{
			{Category: "czech-republic", Label: "Czech Republic", Value: 10_000_000},
			{Category: "united-kingdom", Label: "UK", Value: 5_000_000},
			{Category: "germany", Label: "Germany", Value: 100_000},
		},
	}
}

// monoMeasurer measures every rune as half an em wide, and lines as one em high.
type monoMeasurer struct{}

func (monoMeasurer) Measure(text string, font measure.FontSpec) measure.TextMeasurement {
	if text == "" {
		return measure.TextMeasurement{}
	}

	font = font.Clamped()

	return measure.TextMeasurement{
		Width:  float64(utf8.RuneCountInString(text)) * font.Size / 2,
		Height: font.Size,
	}
}
