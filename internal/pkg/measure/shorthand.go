package measure

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const pxPerEm = 16.0

var (
	fontLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Size", Pattern: `(?:\d+\.\d+|\.\d+|\d+)(?:px|pt|rem|em)`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\.\d+|\d+)`},
		{Name: "String", Pattern: `"[^"]*"|'[^']*'`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[,/]`},
	})

	fontParser = participle.MustBuild[fontShorthand](
		participle.Lexer(fontLexer),
		participle.Elide("Whitespace"),
	)
)

// fontShorthand is the grammar of a CSS font shorthand:
//
//	[style] [variant] [weight] size[/line-height] family[, family]*
type fontShorthand struct {
	Modifiers  []string      `parser:"( @Ident | @Number )*"`
	Size       string        `parser:"@Size"`
	LineHeight string        `parser:"( '/' ( @Size | @Number ) )?"`
	Families   []*fontFamily `parser:"@@ ( ',' @@ )*"`
}

type fontFamily struct {
	Quoted string   `parser:"  @String"`
	Words  []string `parser:"| @Ident+"`
}

func (f fontFamily) String() string {
	if f.Quoted != "" {
		return strings.Trim(f.Quoted, `"'`)
	}

	return strings.Join(f.Words, " ")
}

// ParseFont parses a CSS-like font shorthand into a [FontSpec].
//
// Examples: "12px Arial", "bold 16px \"Open Sans\", sans-serif", "italic 600 9pt Go".
//
// Sizes may be expressed in px, pt, em or rem (1em = 16px). The line height, if any, is ignored.
func ParseFont(shorthand string) (FontSpec, error) {
	ast, err := fontParser.ParseString("", shorthand)
	if err != nil {
		return FontSpec{}, fmt.Errorf("invalid font %q: %w", shorthand, err)
	}

	font := FontSpec{
		Weight: WeightNormal,
		Style:  StyleNormal,
	}

	for _, modifier := range ast.Modifiers {
		if err := applyModifier(&font, modifier); err != nil {
			return FontSpec{}, fmt.Errorf("invalid font %q: %w", shorthand, err)
		}
	}

	size, err := parseFontSize(ast.Size)
	if err != nil {
		return FontSpec{}, fmt.Errorf("invalid font %q: %w", shorthand, err)
	}
	font.Size = size

	families := make([]string, 0, len(ast.Families))
	for _, family := range ast.Families {
		families = append(families, family.String())
	}
	font.Family = strings.Join(families, ", ")

	return font, nil
}

func applyModifier(font *FontSpec, modifier string) error {
	m := strings.ToLower(modifier)

	switch m {
	case "normal", "small-caps":
		return nil
	case StyleItalic, "oblique":
		font.Style = StyleItalic

		return nil
	case "condensed", "semi-condensed", "expanded", "semi-expanded":
		return nil
	}

	if n, err := strconv.Atoi(m); err == nil {
		if n < 1 || n > 1000 {
			return fmt.Errorf("font weight out of range: %d", n)
		}
		font.Weight = WeightFromNumber(n)

		return nil
	}

	if NumericWeight(m) != 400 || m == "regular" {
		font.Weight = m

		return nil
	}

	return fmt.Errorf("unknown font modifier %q", modifier)
}

func parseFontSize(size string) (float64, error) {
	unit := strings.TrimLeft(size, "0123456789.")
	value, err := strconv.ParseFloat(strings.TrimSuffix(size, unit), 64)
	if err != nil {
		return 0, err
	}

	switch unit {
	case "pt":
		value /= ptPerPx
	case "em", "rem":
		value *= pxPerEm
	}

	if value <= 0 {
		return 0, fmt.Errorf("font size must be positive: %s", size)
	}

	return value, nil
}
