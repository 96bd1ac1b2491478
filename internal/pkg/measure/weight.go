package measure

import (
	"strconv"
	"strings"
)

// Font weights, as CSS keywords.
const (
	WeightNormal = "normal"
	WeightBold   = "bold"
)

// Font styles.
const (
	StyleNormal = "normal"
	StyleItalic = "italic"
)

// WeightFromNumber converts a numeric CSS weight (100..900) to its string form.
func WeightFromNumber(weight int) string {
	switch weight {
	case 400:
		return WeightNormal
	case 700:
		return WeightBold
	default:
		return strconv.Itoa(weight)
	}
}

// NumericWeight returns the numeric CSS weight of a weight keyword or number.
//
// Unknown values resolve to 400.
func NumericWeight(weight string) int {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "", WeightNormal, "regular", "book":
		return 400
	case "thin", "hairline":
		return 100
	case "extralight", "ultralight":
		return 200
	case "light", "lighter":
		return 300
	case "medium":
		return 500
	case "semibold", "demibold":
		return 600
	case WeightBold, "bolder":
		return 700
	case "extrabold", "ultrabold":
		return 800
	case "black", "heavy":
		return 900
	}

	n, err := strconv.Atoi(w)
	if err != nil || n < 1 || n > 1000 {
		return 400
	}

	return n
}

// IsBold reports whether the weight renders as bold (600 and above).
func IsBold(weight string) bool {
	return NumericWeight(weight) >= 600
}

// IsItalic reports whether a style is slanted.
func IsItalic(style string) bool {
	s := strings.ToLower(strings.TrimSpace(style))

	return s == StyleItalic || s == "oblique"
}
