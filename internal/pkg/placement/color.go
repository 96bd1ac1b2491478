package placement

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses a CSS color: "#rgb", "#rrggbb", "#rrggbbaa", "rgb(r, g, b)", "rgba(r, g, b, a)"
// or an SVG color keyword such as "steelblue".
//
// The alpha channel is ignored: colors are considered opaque.
func ParseColor(value string) (color.RGBA, error) {
	s := strings.ToLower(strings.TrimSpace(value))

	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseFunctional(s)
	}

	if c, ok := colornames.Map[s]; ok {
		c.A = 0xff

		return c, nil
	}

	return color.RGBA{}, fmt.Errorf("unsupported color %q", value)
}

func parseHex(hex string) (color.RGBA, error) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	case 8:
		hex = hex[:6]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", "#"+hex)
	}

	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", "#"+hex, err)
	}

	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}

func parseFunctional(s string) (color.RGBA, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	args := strings.Split(s[open+1:len(s)-1], ",")
	if len(args) != 3 && len(args) != 4 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected 3 or 4 components", s)
	}

	var channels [3]uint8
	for i := range channels {
		arg := strings.TrimSpace(args[i])

		var (
			v   float64
			err error
		)
		if pct, ok := strings.CutSuffix(arg, "%"); ok {
			v, err = strconv.ParseFloat(pct, 64)
			v = v * 255 / 100
		} else {
			v, err = strconv.ParseFloat(arg, 64)
		}
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}

		channels[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}

	return color.RGBA{R: channels[0], G: channels[1], B: channels[2], A: 0xff}, nil
}

// RelativeLuminance of an sRGB color, in [0, 1], as defined by WCAG 2.
func RelativeLuminance(c color.RGBA) float64 {
	return 0.2126*linear(c.R) + 0.7152*linear(c.G) + 0.0722*linear(c.B)
}

// ContrastRatio between two colors, in [1, 21], as defined by WCAG 2.
func ContrastRatio(a, b color.RGBA) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}

	return (la + 0.05) / (lb + 0.05)
}

func linear(channel uint8) float64 {
	v := float64(channel) / 255
	if v <= 0.04045 {
		return v / 12.92
	}

	return math.Pow((v+0.055)/1.055, 2.4)
}
