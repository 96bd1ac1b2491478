// Package measure computes the rendered size of label text without drawing it.
//
// A [TextMeasurer] queries a [Backend] (outline fonts, a headless browser) and degrades
// to a deterministic estimate whenever the backend cannot answer.
package measure

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

// MinFontSize is the smallest font size, in pixels, accepted by measurements.
//
// Non-positive sizes are clamped to this value.
const MinFontSize = 1.0

// FontSpec describes the style used to render a piece of text.
type FontSpec struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"` // px
	Weight string  `json:"weight"`
	Style  string  `json:"style,omitempty"`
}

// WithSize returns a copy of the [FontSpec] with another size.
func (f FontSpec) WithSize(size float64) FontSpec {
	f.Size = size

	return f
}

// Clamped returns a copy of the [FontSpec] with its size clamped to [MinFontSize].
//
// Sizes which are not finite are replaced by [MinFontSize] as well.
func (f FontSpec) Clamped() FontSpec {
	if f.Size < MinFontSize || math.IsNaN(f.Size) || math.IsInf(f.Size, 0) {
		f.Size = MinFontSize
	}

	return f
}

// TextMeasurement is the pixel extent of a text rendered with a [FontSpec].
type TextMeasurement struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (m TextMeasurement) valid() bool {
	return m.Width >= 0 && m.Height >= 0 &&
		!math.IsNaN(m.Width) && !math.IsNaN(m.Height) &&
		!math.IsInf(m.Width, 0) && !math.IsInf(m.Height, 0)
}

// Measurer knows how to measure text.
type Measurer interface {
	Measure(text string, font FontSpec) TextMeasurement
}

// Backend is a text geometry provider.
//
// Backends may fail, e.g. when a font file cannot be loaded or when no browser is available.
type Backend interface {
	Bounds(text string, font FontSpec) (TextMeasurement, error)
}

// TextMeasurer measures text with a [Backend], falling back to the [HeuristicBackend]
// whenever the backend fails.
//
// A [TextMeasurer] is safe for concurrent use.
type TextMeasurer struct {
	options

	backend   Backend
	fallback  *HeuristicBackend
	warned    atomic.Bool
	fallbacks atomic.Uint64
	l         *slog.Logger
}

// New builds a [TextMeasurer] on top of a [Backend].
//
// A nil backend measures with the heuristic estimate only.
func New(backend Backend, opts ...Option) *TextMeasurer {
	o := optionsWithDefaults(opts)
	m := &TextMeasurer{
		options:  o,
		backend:  backend,
		fallback: NewHeuristicBackend(WithCharWidthFactor(o.charWidthFactor)),
		l:        slog.Default().With(slog.String("module", "measure")),
	}

	return m
}

// Measure the rendered width and height of text, in pixels.
//
// Empty text measures {0, 0}. Backend failures are not reported: the heuristic estimate is returned instead.
func (m *TextMeasurer) Measure(text string, font FontSpec) TextMeasurement {
	if text == "" {
		return TextMeasurement{}
	}

	font = font.Clamped()

	if m.cache != nil {
		if cached, ok := m.cache.get(text, font); ok {
			return cached
		}
	}

	result := m.measure(text, font)

	if m.cache != nil {
		m.cache.set(text, font, result)
	}

	return result
}

// Fallbacks returns the number of measurements answered by the heuristic estimate after a backend failure.
func (m *TextMeasurer) Fallbacks() uint64 {
	return m.fallbacks.Load()
}

// Close releases the resources held by the backend and the cache, if any.
func (m *TextMeasurer) Close() error {
	if m.cache != nil {
		m.cache.close()
	}

	if closer, ok := m.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}

	return nil
}

func (m *TextMeasurer) measure(text string, font FontSpec) TextMeasurement {
	if m.backend == nil {
		estimate, _ := m.fallback.Bounds(text, font)

		return estimate
	}

	result, err := m.backend.Bounds(text, font)
	if err == nil && result.valid() {
		return result
	}

	m.fallbacks.Add(1)
	estimate, _ := m.fallback.Bounds(text, font)

	attrs := []any{
		slog.String("family", font.Family),
		slog.Float64("size", font.Size),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	if m.warned.CompareAndSwap(false, true) {
		m.l.Warn("text measurement backend unavailable, using estimated widths", attrs...)
	} else {
		m.l.Debug("estimated text width", attrs...)
	}

	return estimate
}

// Widest returns the largest measured width among texts.
func Widest(m Measurer, texts []string, font FontSpec) float64 {
	var widest float64
	for _, text := range texts {
		if w := m.Measure(text, font).Width; w > widest {
			widest = w
		}
	}

	return widest
}

var (
	defaultOnce     sync.Once
	defaultMeasurer *TextMeasurer
)

// Default returns the process-wide [TextMeasurer], backed by the embedded fonts.
func Default() *TextMeasurer {
	defaultOnce.Do(func() {
		defaultMeasurer = New(NewFontBackend())
	})

	return defaultMeasurer
}

// Measure text with the [Default] measurer.
func Measure(text string, font FontSpec) TextMeasurement {
	return Default().Measure(text, font)
}
