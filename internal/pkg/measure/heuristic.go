package measure

import (
	"unicode"

	"golang.org/x/text/width"
)

const (
	// heightFactor is the line box height of the estimate, in em.
	heightFactor = 1.2
	// boldFactor widens the estimate for heavy weights.
	boldFactor = 1.1
)

// HeuristicBackend estimates text extents from the number of glyphs.
//
// The estimate is width = Σ glyphs × size × factor, where wide and fullwidth East-Asian glyphs
// count for two, combining marks and control characters count for nothing,
// and heavy weights are 10% wider. It never fails.
type HeuristicBackend struct {
	factor float64
}

// NewHeuristicBackend builds an estimating [Backend].
func NewHeuristicBackend(opts ...Option) *HeuristicBackend {
	o := optionsWithDefaults(opts)

	return &HeuristicBackend{factor: o.charWidthFactor}
}

// Bounds estimates the size of the text. The error is always nil.
func (h *HeuristicBackend) Bounds(text string, font FontSpec) (TextMeasurement, error) {
	if text == "" {
		return TextMeasurement{}, nil
	}

	font = font.Clamped()

	var advances float64
	for _, r := range text {
		advances += runeAdvance(r)
	}

	w := advances * font.Size * h.factor
	if IsBold(font.Weight) {
		w *= boldFactor
	}

	return TextMeasurement{
		Width:  w,
		Height: font.Size * heightFactor,
	}, nil
}

func runeAdvance(r rune) float64 {
	if unicode.Is(unicode.Mn, r) || unicode.IsControl(r) {
		return 0
	}

	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
