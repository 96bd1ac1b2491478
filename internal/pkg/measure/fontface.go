package measure

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Embedded font families.
const (
	FamilyGo     = "Go"
	FamilyGoMono = "Go Mono"
)

const (
	ptPerPx = 0.75       // CSS reference pixel: 1px = 0.75pt
	pxPerMM = 96.0 / 25.4 // canvas measures in millimeters
)

// weight classes available in font files
const (
	classRegular = iota
	classMedium
	classBold
)

type faceKey struct {
	family string
	class  int
	italic bool
}

type faceEntry struct {
	data   []byte
	family *canvas.FontFamily
	err    error
}

// FontBackend measures text against outline fonts, using github.com/tdewolff/canvas.
//
// The Go font family is embedded and serves as fallback for unknown families,
// so that "Arial" or "sans-serif" measure with Go font metrics unless a font file
// is registered for them with [FontBackend.RegisterFont] or [FontBackend.RegisterFontFile].
//
// Font files are parsed lazily, on first use.
type FontBackend struct {
	mu            sync.Mutex
	faces         map[faceKey]*faceEntry
	aliases       map[string]string
	defaultFamily string
	l             *slog.Logger
}

// NewFontBackend builds a [FontBackend] with the embedded Go fonts.
func NewFontBackend() *FontBackend {
	b := &FontBackend{
		faces: make(map[faceKey]*faceEntry),
		aliases: map[string]string{
			"sans-serif": FamilyGo,
			"serif":      FamilyGo,
			"system-ui":  FamilyGo,
			"monospace":  FamilyGoMono,
		},
		defaultFamily: normalizeFamily(FamilyGo),
		l:             slog.Default().With(slog.String("module", "measure")),
	}

	embedded := []struct {
		family string
		weight string
		style  string
		data   []byte
	}{
		{FamilyGo, WeightNormal, StyleNormal, goregular.TTF},
		{FamilyGo, "medium", StyleNormal, gomedium.TTF},
		{FamilyGo, WeightBold, StyleNormal, gobold.TTF},
		{FamilyGo, WeightNormal, StyleItalic, goitalic.TTF},
		{FamilyGo, "medium", StyleItalic, gomediumitalic.TTF},
		{FamilyGo, WeightBold, StyleItalic, gobolditalic.TTF},
		{FamilyGoMono, WeightNormal, StyleNormal, gomono.TTF},
		{FamilyGoMono, WeightBold, StyleNormal, gomonobold.TTF},
		{FamilyGoMono, WeightNormal, StyleItalic, gomonoitalic.TTF},
		{FamilyGoMono, WeightBold, StyleItalic, gomonobolditalic.TTF},
	}

	for _, font := range embedded {
		b.RegisterFont(font.family, font.weight, font.style, font.data)
	}

	return b
}

// RegisterFont declares the font data (TTF, OTF, WOFF...) to use for a family, weight and style.
//
// A later registration for the same family, weight class and style replaces the previous one.
func (b *FontBackend) RegisterFont(family, weight, style string, data []byte) {
	key := faceKey{
		family: normalizeFamily(family),
		class:  weightClass(weight),
		italic: IsItalic(style),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.faces[key] = &faceEntry{data: data}
}

// RegisterFontFile declares a font file to use for a family, weight and style.
func (b *FontBackend) RegisterFontFile(family, weight, style, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading font file %q: %w", path, err)
	}

	b.RegisterFont(family, weight, style, data)

	return nil
}

// SetDefaultFamily sets the family used to measure unknown families.
func (b *FontBackend) SetDefaultFamily(family string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.defaultFamily = normalizeFamily(family)
}

// Bounds measures the advance width and the line height of the text, in pixels.
func (b *FontBackend) Bounds(text string, font FontSpec) (TextMeasurement, error) {
	if text == "" {
		return TextMeasurement{}, nil
	}

	font = font.Clamped()

	// faces share glyph caches: serialize shaping
	b.mu.Lock()
	defer b.mu.Unlock()

	family, err := b.resolve(font)
	if err != nil {
		return TextMeasurement{}, err
	}

	face := family.Face(font.Size*ptPerPx, color.Black, canvas.FontRegular, canvas.FontNormal)
	metrics := face.Metrics()

	return TextMeasurement{
		Width:  face.TextWidth(text) * pxPerMM,
		Height: metrics.LineHeight * pxPerMM,
	}, nil
}

// resolve picks the closest registered face: requested family first, then the default family;
// within a family, the requested style is preferred over the requested weight.
func (b *FontBackend) resolve(font FontSpec) (*canvas.FontFamily, error) {
	class := weightClass(font.Weight)
	italic := IsItalic(font.Style)

	candidates := make([]faceKey, 0, 12)
	for _, family := range b.families(font.Family) {
		for _, it := range []bool{italic, false} {
			for _, c := range nearestClasses(class) {
				candidates = append(candidates, faceKey{family: family, class: c, italic: it})
			}
		}
	}

	for _, key := range candidates {
		entry, ok := b.faces[key]
		if !ok {
			continue
		}

		return b.load(key, entry)
	}

	return nil, fmt.Errorf("no font registered for family %q", font.Family)
}

func (b *FontBackend) families(requested string) []string {
	var families []string

	// CSS font-family lists: the first known family wins
	for _, name := range strings.Split(requested, ",") {
		family := normalizeFamily(name)
		if alias, ok := b.aliases[family]; ok {
			family = normalizeFamily(alias)
		}

		if family != "" && b.hasFamily(family) {
			families = append(families, family)

			break
		}
	}

	return append(families, b.defaultFamily)
}

func (b *FontBackend) hasFamily(family string) bool {
	for key := range b.faces {
		if key.family == family {
			return true
		}
	}

	return false
}

func (b *FontBackend) load(key faceKey, entry *faceEntry) (*canvas.FontFamily, error) {
	if entry.family != nil || entry.err != nil {
		return entry.family, entry.err
	}

	family := canvas.NewFontFamily(key.family)
	if err := family.LoadFont(entry.data, 0, canvas.FontRegular); err != nil {
		entry.err = fmt.Errorf("loading font %q: %w", key.family, err)
		b.l.Warn("font not loaded", slog.String("family", key.family), slog.String("error", err.Error()))

		return nil, entry.err
	}

	entry.family = family
	entry.data = nil

	return family, nil
}

func normalizeFamily(family string) string {
	family = strings.TrimSpace(family)
	family = strings.Trim(family, `"'`)

	return strings.ToLower(family)
}

func weightClass(weight string) int {
	n := NumericWeight(weight)
	switch {
	case n >= 600:
		return classBold
	case n >= 500:
		return classMedium
	default:
		return classRegular
	}
}

func nearestClasses(class int) []int {
	switch class {
	case classBold:
		return []int{classBold, classMedium, classRegular}
	case classMedium:
		return []int{classMedium, classBold, classRegular}
	default:
		return []int{classRegular, classMedium, classBold}
	}
}
