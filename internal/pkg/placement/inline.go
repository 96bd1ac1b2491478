// Package placement decides where and in which color labels are drawn relative to their marks.
package placement

import (
	"image/color"
	"log/slog"
	"math"
	"sync"

	"github.com/fredbi/labelfit/internal/pkg/measure"
)

// Position of a label relative to its mark.
type Position string

// Anchor is the text anchor of a label, as in SVG text-anchor.
type Anchor string

const (
	Inside  Position = "inside"
	Outside Position = "outside"

	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Contrast holds the label colors requested by the caller.
type Contrast struct {
	// OnFill is the preferred color for labels drawn inside a mark.
	OnFill string `json:"onFill" mapstructure:"onFill"`
	// OnBackground is the color for labels drawn outside a mark.
	OnBackground string `json:"onBackground" mapstructure:"onBackground"`
}

// PlacementDecision tells how to draw the label of a mark.
//
// X is measured along the mark from its origin. Y is the baseline offset from the mark's cross-axis center.
type PlacementDecision struct {
	Position  Position `json:"position"`
	Anchor    Anchor   `json:"anchor"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	TextColor string   `json:"textColor"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
}

// Resolver places labels inside or outside their marks, and wraps long labels on several lines.
//
// A [Resolver] is safe for concurrent use if its [measure.Measurer] is.
type Resolver struct {
	options

	measurer measure.Measurer
	l        *slog.Logger
}

// New builds a [Resolver] on top of a [measure.Measurer].
func New(measurer measure.Measurer, opts ...Option) *Resolver {
	return &Resolver{
		options:  optionsWithDefaults(opts),
		measurer: measurer,
		l:        slog.Default().With(slog.String("module", "placement")),
	}
}

// ResolveInlineLabel decides whether the label fits inside a mark of length markLength.
//
// The label goes inside when its width plus padding on both sides does not exceed the mark length.
// Otherwise it goes right after the end of the mark, in the OnBackground color.
//
// Inside labels use the OnFill color, unless it lacks contrast against markFill: the light or dark color
// is then picked from the luminance of the fill. Colors that cannot be parsed are used as they are.
func (r *Resolver) ResolveInlineLabel(markLength float64, label string, font measure.FontSpec, markFill string, colors Contrast, padding float64) PlacementDecision {
	markLength = nonNegative(markLength)
	padding = nonNegative(padding)
	font = font.Clamped()

	m := r.measurer.Measure(label, font)
	decision := PlacementDecision{
		Y:      baselineShift * font.Size,
		Width:  m.Width,
		Height: m.Height,
	}

	if m.Width+2*padding > markLength {
		decision.Position = Outside
		decision.Anchor = AnchorStart
		decision.X = markLength + padding
		decision.TextColor = colors.OnBackground
		if decision.TextColor == "" {
			decision.TextColor = r.dark
		}

		return decision
	}

	decision.Position = Inside
	if r.edgeAligned {
		decision.Anchor = AnchorEnd
		decision.X = markLength - padding
	} else {
		decision.Anchor = AnchorMiddle
		decision.X = markLength / 2
	}
	decision.TextColor = r.onFill(markFill, colors.OnFill)

	return decision
}

// onFill picks a legible color for text drawn over the fill.
func (r *Resolver) onFill(fill, preferred string) string {
	fillColor, err := ParseColor(fill)
	if err != nil {
		if preferred == "" {
			return r.dark
		}

		return preferred
	}

	if preferred != "" {
		preferredColor, err := ParseColor(preferred)
		if err != nil || ContrastRatio(fillColor, preferredColor) >= r.minContrast {
			return preferred
		}
	}

	picked := r.pick(fillColor)
	r.l.Debug("label color replaced for contrast",
		slog.String("fill", fill),
		slog.String("requested", preferred),
		slog.String("picked", picked),
	)

	return picked
}

// pick the light or dark color, whichever contrasts best with the fill.
func (r *Resolver) pick(fill color.RGBA) string {
	light, errLight := ParseColor(r.light)
	dark, errDark := ParseColor(r.dark)

	switch {
	case errLight != nil && errDark != nil:
		// neither can be compared: the WCAG luminance midpoint decides
		if RelativeLuminance(fill) > 0.179 {
			return r.dark
		}

		return r.light
	case errLight != nil:
		return r.dark
	case errDark != nil:
		return r.light
	}

	if ContrastRatio(fill, light) >= ContrastRatio(fill, dark) {
		return r.light
	}

	return r.dark
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}

	return v
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns a [Resolver] using the default measurer.
func Default() *Resolver {
	defaultOnce.Do(func() {
		defaultResolver = New(measure.Default())
	})

	return defaultResolver
}

// ResolveInlineLabel with the [Default] resolver.
//
// See [Resolver.ResolveInlineLabel].
func ResolveInlineLabel(markLength float64, label string, font measure.FontSpec, markFill string, colors Contrast, padding float64) PlacementDecision {
	return Default().ResolveInlineLabel(markLength, label, font, markFill, colors, padding)
}
