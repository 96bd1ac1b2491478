package placement

import (
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/fredbi/labelfit/internal/pkg/measure"
)

// Line is a wrapped line of text, with its baseline offset relative to the previous line.
type Line struct {
	Text  string  `json:"text"`
	DY    float64 `json:"dy"`
	Width float64 `json:"width"`
}

// TextBlock is a label wrapped on several lines, laid out as SVG tspan elements.
type TextBlock struct {
	Lines      []Line  `json:"lines"`
	LineHeight float64 `json:"lineHeight"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Texts returns the text of each line.
func (b TextBlock) Texts() []string {
	texts := make([]string, 0, len(b.Lines))
	for _, line := range b.Lines {
		texts = append(texts, line.Text)
	}

	return texts
}

// Lines wraps the text greedily on whitespace, so that lines do not exceed maxWidth.
//
// Words are never split: a word wider than maxWidth sits alone on its own line.
// When maxWidth is not positive, all words are kept on a single line.
//
// The sequence is lazy, and may be iterated several times.
func (r *Resolver) Lines(text string, maxWidth float64, font measure.FontSpec) iter.Seq[string] {
	return func(yield func(string) bool) {
		words := strings.Fields(text)
		if len(words) == 0 {
			return
		}

		if !(maxWidth > 0) {
			yield(strings.Join(words, " "))

			return
		}

		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if r.measurer.Measure(candidate, font).Width <= maxWidth {
				line = candidate

				continue
			}

			if !yield(line) {
				return
			}
			line = word
		}

		yield(line)
	}
}

// ResolveMultilineLabel wraps the text into lines no wider than maxWidth.
//
// Line breaks do not depend on lineHeightEm: use [Resolver.WrapBlock] to get lines positioned lineHeightEm apart.
//
// See [Resolver.Lines].
func (r *Resolver) ResolveMultilineLabel(text string, maxWidth float64, font measure.FontSpec, lineHeightEm float64) []string {
	return slices.Collect(r.Lines(text, maxWidth, font))
}

// WrapBlock wraps the text like [Resolver.ResolveMultilineLabel] and lays out its lines
// lineHeightEm apart. A non-positive lineHeightEm defaults to [DefaultLineHeight].
//
// The first line has a zero offset: callers place it on the block's first baseline.
func (r *Resolver) WrapBlock(text string, maxWidth float64, font measure.FontSpec, lineHeightEm float64) TextBlock {
	if !(lineHeightEm > 0) || math.IsInf(lineHeightEm, 0) {
		lineHeightEm = DefaultLineHeight
	}

	font = font.Clamped()
	block := TextBlock{
		LineHeight: lineHeightEm * font.Size,
	}

	for text := range r.Lines(text, maxWidth, font) {
		line := Line{
			Text:  text,
			Width: r.measurer.Measure(text, font).Width,
		}
		if len(block.Lines) > 0 {
			line.DY = block.LineHeight
		}

		block.Width = math.Max(block.Width, line.Width)
		block.Lines = append(block.Lines, line)
	}

	block.Height = float64(len(block.Lines)) * block.LineHeight

	return block
}

// ResolveMultilineLabel with the [Default] resolver.
//
// See [Resolver.ResolveMultilineLabel].
func ResolveMultilineLabel(text string, maxWidth float64, font measure.FontSpec, lineHeightEm float64) []string {
	return Default().ResolveMultilineLabel(text, maxWidth, font, lineHeightEm)
}
