package placement

const (
	// DefaultMinContrast is the contrast ratio an inside label color must reach against the mark fill.
	DefaultMinContrast = 3.0

	// DefaultLight is the inside label color picked on dark fills.
	DefaultLight = "#ffffff"

	// DefaultDark is the inside label color picked on light fills.
	DefaultDark = "#333333"

	// DefaultLineHeight is the line height of wrapped labels, in em.
	DefaultLineHeight = 1.2

	// baselineShift centers a line of text vertically around its anchor point, in em.
	baselineShift = 0.35
)

// Option configures a [Resolver].
type Option func(*options)

type options struct {
	edgeAligned bool
	minContrast float64
	light       string
	dark        string
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		minContrast: DefaultMinContrast,
		light:       DefaultLight,
		dark:        DefaultDark,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithEdgeAligned anchors inside labels at the end of the mark rather than at its middle.
func WithEdgeAligned(enabled bool) Option {
	return func(o *options) {
		o.edgeAligned = enabled
	}
}

// WithMinContrast sets the contrast ratio the caller's inside color must reach before it is replaced.
//
// Defaults to 3 (WCAG large text). A ratio of 1 or less always keeps the caller's color.
func WithMinContrast(ratio float64) Option {
	return func(o *options) {
		if ratio <= 0 {
			return
		}

		o.minContrast = ratio
	}
}

// WithLightDark sets the colors picked by luminance when the caller's inside color lacks contrast.
//
// Empty values are ignored.
func WithLightDark(light, dark string) Option {
	return func(o *options) {
		if light != "" {
			o.light = light
		}

		if dark != "" {
			o.dark = dark
		}
	}
}
