package fit

const (
	// DefaultEllipsis is appended to truncated labels.
	DefaultEllipsis = "…"

	// DefaultStep is the granularity of font size reductions, in pixels.
	DefaultStep = 0.5

	// DefaultMaxSteps bounds the number of measurements spent shrinking a label.
	DefaultMaxSteps = 40
)

// Option configures a [Sizer].
type Option func(*options)

type options struct {
	ellipsis string
	step     float64
	maxSteps int
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		ellipsis: DefaultEllipsis,
		step:     DefaultStep,
		maxSteps: DefaultMaxSteps,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithEllipsis sets the marker appended to truncated labels, e.g. "...".
//
// An empty marker truncates without any suffix.
func WithEllipsis(ellipsis string) Option {
	return func(o *options) {
		o.ellipsis = ellipsis
	}
}

// WithStep sets the granularity of font size reductions. Non-positive values are ignored.
func WithStep(step float64) Option {
	return func(o *options) {
		if step > 0 {
			o.step = step
		}
	}
}

// WithMaxSteps bounds the number of measurements spent shrinking a label. Non-positive values are ignored.
func WithMaxSteps(steps int) Option {
	return func(o *options) {
		if steps > 0 {
			o.maxSteps = steps
		}
	}
}
