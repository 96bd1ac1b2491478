package planner

// Option configures a [Planner].
type Option func(*options)

type options struct {
	compact     bool
	valueDigits int
}

// DefaultValueDigits is the default number of decimals of value labels.
const DefaultValueDigits = 2

// WithCompactValues formats value labels with SI prefixes (e.g. "100K", "2.5M").
//
// This is enabled by default. When disabled, values are rendered with thousands separators (e.g. "100,000").
func WithCompactValues(enabled bool) Option {
	return func(o *options) {
		o.compact = enabled
	}
}

// WithValueDigits sets the maximum number of decimals of value labels. Trailing zeros are never shown.
func WithValueDigits(digits int) Option {
	return func(o *options) {
		if digits >= 0 {
			o.valueDigits = digits
		}
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		compact:     true,
		valueDigits: DefaultValueDigits,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
