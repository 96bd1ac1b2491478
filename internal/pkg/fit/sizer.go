// Package fit shrinks, then truncates, text so that it fits a layout budget.
package fit

import (
	"log/slog"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/fredbi/labelfit/internal/pkg/measure"
)

// LayoutBudget is the room available to render a label, in pixels.
//
// A zero MaxHeight means the height is not constrained.
type LayoutBudget struct {
	MaxWidth  float64 `json:"maxWidth"`
	MaxHeight float64 `json:"maxHeight,omitempty"`
}

// FitResult is the text to render and the font size to render it with.
type FitResult struct {
	Text      string  `json:"text"`
	FontSize  float64 `json:"fontSize"`
	Truncated bool    `json:"truncated,omitempty"`
}

// Sizer fits labels into a [LayoutBudget].
//
// Shrinking the font is preferred over truncating the text.
// A [Sizer] is safe for concurrent use if its [measure.Measurer] is.
type Sizer struct {
	options

	measurer measure.Measurer
	l        *slog.Logger
}

// New builds a [Sizer] on top of a [measure.Measurer].
func New(measurer measure.Measurer, opts ...Option) *Sizer {
	return &Sizer{
		options:  optionsWithDefaults(opts),
		measurer: measurer,
		l:        slog.Default().With(slog.String("module", "fit")),
	}
}

// Fit the text into the budget, starting at font.Size and shrinking down to minFontSize.
//
// The returned FontSize always lies within [minFontSize, font.Size]. When the text still overflows
// at minFontSize, it is truncated from the end and suffixed with an ellipsis: the result may be an empty string.
//
// Non-positive font sizes are clamped to [measure.MinFontSize], and minFontSize is clamped down to font.Size.
func (s *Sizer) Fit(text string, budget LayoutBudget, font measure.FontSpec, minFontSize float64) FitResult {
	font = font.Clamped()
	maxSize := font.Size
	minSize := clampMin(minFontSize, maxSize)

	if !(budget.MaxWidth > 0) {
		return FitResult{Text: "", FontSize: minSize, Truncated: true}
	}

	if s.fits(text, budget, font) {
		return FitResult{Text: text, FontSize: maxSize}
	}

	if minSize < maxSize && s.fits(text, budget, font.WithSize(minSize)) {
		return FitResult{Text: text, FontSize: s.shrink(text, budget, font, minSize)}
	}

	truncated := s.truncate(text, budget, font.WithSize(minSize))
	s.l.Debug("label truncated",
		slog.String("text", text),
		slog.String("truncated", truncated),
		slog.Float64("max_width", budget.MaxWidth),
		slog.Float64("font_size", minSize),
	)

	return FitResult{Text: truncated, FontSize: minSize, Truncated: true}
}

func (s *Sizer) fits(text string, budget LayoutBudget, font measure.FontSpec) bool {
	m := s.measurer.Measure(text, font)
	if m.Width > budget.MaxWidth {
		return false
	}

	return budget.MaxHeight <= 0 || m.Height <= budget.MaxHeight
}

// shrink finds the largest size on the grid {minSize + k×step} that fits, knowing that
// minSize fits and font.Size does not.
func (s *Sizer) shrink(text string, budget LayoutBudget, font measure.FontSpec, minSize float64) float64 {
	maxSize := font.Size
	grid := func(k int) float64 {
		return math.Min(minSize+float64(k)*s.step, maxSize)
	}

	// grid(lo) fits, grid(hi) overflows
	lo, hi := 0, int(math.Floor((maxSize-minSize)/s.step))+1
	for steps := 0; hi-lo > 1 && steps < s.maxSteps; steps++ {
		mid := lo + (hi-lo)/2
		if s.fits(text, budget, font.WithSize(grid(mid))) {
			lo = mid
		} else {
			hi = mid
		}
	}

	return grid(lo)
}

// truncate keeps the longest prefix of the text that fits once suffixed with the ellipsis.
func (s *Sizer) truncate(text string, budget LayoutBudget, font measure.FontSpec) string {
	runes := []rune(text)
	candidate := func(n int) string {
		prefix := strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace)

		return prefix + s.ellipsis
	}

	lo, hi := -1, len(runes) // runes[:hi] is the full text, which overflows
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if s.fits(candidate(mid), budget, font) {
			lo = mid
		} else {
			hi = mid
		}
	}

	if lo < 0 {
		return ""
	}

	return candidate(lo)
}

func clampMin(minFontSize, maxSize float64) float64 {
	if minFontSize < measure.MinFontSize || math.IsNaN(minFontSize) {
		minFontSize = measure.MinFontSize
	}

	return math.Min(minFontSize, maxSize)
}

var (
	defaultOnce  sync.Once
	defaultSizer *Sizer
)

// Fit text with a [Sizer] using the default measurer.
//
// See [Sizer.Fit].
func Fit(text string, budget LayoutBudget, font measure.FontSpec, minFontSize float64) FitResult {
	defaultOnce.Do(func() {
		defaultSizer = New(measure.Default())
	})

	return defaultSizer.Fit(text, budget, font, minFontSize)
}
