package chart

import "github.com/fredbi/labelfit/internal/pkg/measure"

// Theme constants from go-echarts.
const (
	ThemeWhite = "white"
	ThemeRoma  = "roma"
)

// Option configures a [Chart].
type Option func(*options)

type options struct {
	Subtitle      string
	ValueAxisName string
	Theme         string
	ShowToolbox   bool
	ShowTooltip   bool
	AxisFont      measure.FontSpec
}

// WithSubtitle sets the chart subtitle (typically environment info).
func WithSubtitle(subtitle string) Option {
	return func(c *options) {
		c.Subtitle = subtitle
	}
}

// WithTheme sets the color theme.
func WithTheme(theme string) Option {
	return func(c *options) {
		if theme != "" {
			c.Theme = theme
		}
	}
}

// WithValueAxisName sets the name of the value axis, e.g. its unit.
func WithValueAxisName(name string) Option {
	return func(c *options) {
		c.ValueAxisName = name
	}
}

// WithAxisFont sets the font of the value axis tick labels.
func WithAxisFont(font measure.FontSpec) Option {
	return func(c *options) {
		c.AxisFont = font
	}
}

// WithToolbox enables or disables the "save as image" toolbox.
func WithToolbox(enabled bool) Option {
	return func(c *options) {
		c.ShowToolbox = enabled
	}
}

// WithTooltip enables or disables tooltips over bars.
func WithTooltip(enabled bool) Option {
	return func(c *options) {
		c.ShowTooltip = enabled
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Theme:       ThemeWhite,
		ShowToolbox: true,
		ShowTooltip: true,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
