package measure

import "log/slog"

// DefaultCharWidthFactor is the average advance of a proportional glyph, in em.
const DefaultCharWidthFactor = 0.55

// Option configures a [TextMeasurer] or a backend.
type Option func(*options)

type options struct {
	charWidthFactor float64
	cacheSize       int64
	cache           *memo
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		charWidthFactor: DefaultCharWidthFactor,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithCharWidthFactor sets the average glyph advance (in em) used by the heuristic estimate.
//
// Defaults to 0.55. Non-positive values are ignored.
func WithCharWidthFactor(factor float64) Option {
	return func(o *options) {
		if factor <= 0 {
			return
		}

		o.charWidthFactor = factor
	}
}

// WithCache memoizes measurements, keeping up to size distinct entries.
//
// The cache does not alter results: a [TextMeasurer] returns the same values with or without it.
func WithCache(size int64) Option {
	return func(o *options) {
		if size <= 0 {
			return
		}

		cache, err := newMemo(size)
		if err != nil {
			slog.Default().Warn("measurement cache disabled", slog.String("module", "measure"), slog.String("error", err.Error()))

			return
		}

		o.cacheSize = size
		o.cache = cache
	}
}
