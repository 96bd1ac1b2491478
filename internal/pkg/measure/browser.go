package measure

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/fredbi/labelfit/internal/pkg/browser"
)

// measureScript measures text on a detached canvas: nothing is attached to the document.
const measureScript = `(() => {
	const ctx = document.createElement("canvas").getContext("2d");
	ctx.font = %s;
	const m = ctx.measureText(%s);
	const ascent = m.fontBoundingBoxAscent || m.actualBoundingBoxAscent || 0;
	const descent = m.fontBoundingBoxDescent || m.actualBoundingBoxDescent || 0;
	return {width: m.width, height: ascent + descent};
})()`

// BrowserBackend measures text with the 2D canvas of a headless browser.
//
// This reproduces the metrics of charts rendered in a web page, including system fonts.
type BrowserBackend struct {
	session *browser.Session
	owned   bool
}

// NewBrowserBackend builds a [BrowserBackend] on a shared [browser.Session].
//
// When session is nil, the backend starts its own session and closes it on [BrowserBackend.Close].
func NewBrowserBackend(session *browser.Session) *BrowserBackend {
	b := &BrowserBackend{session: session}
	if session == nil {
		b.session = browser.New()
		b.owned = true
	}

	return b
}

// Bounds measures the text in the browser. It fails when no browser could be started.
func (b *BrowserBackend) Bounds(text string, font FontSpec) (TextMeasurement, error) {
	if text == "" {
		return TextMeasurement{}, nil
	}

	font = font.Clamped()

	cssFont, err := json.Marshal(CSSFont(font))
	if err != nil {
		return TextMeasurement{}, err
	}

	literal, err := json.Marshal(text)
	if err != nil {
		return TextMeasurement{}, err
	}

	var result TextMeasurement
	script := fmt.Sprintf(measureScript, cssFont, literal)
	if err := b.session.Run(context.Background(), chromedp.Evaluate(script, &result)); err != nil {
		return TextMeasurement{}, fmt.Errorf("measuring text in browser: %w", err)
	}

	if result.Height == 0 {
		result.Height = font.Size * heightFactor
	}

	return result, nil
}

// Close the browser session, if owned by this backend.
func (b *BrowserBackend) Close() error {
	if !b.owned {
		return nil
	}

	return b.session.Close()
}

var genericFamilies = map[string]struct{}{
	"serif": {}, "sans-serif": {}, "monospace": {}, "cursive": {}, "fantasy": {}, "system-ui": {},
}

// CSSFont formats a [FontSpec] as a CSS font shorthand, e.g. `italic 700 12px "Open Sans", sans-serif`.
func CSSFont(font FontSpec) string {
	var b strings.Builder

	if IsItalic(font.Style) {
		b.WriteString(StyleItalic)
		b.WriteByte(' ')
	}

	b.WriteString(strconv.Itoa(NumericWeight(font.Weight)))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(font.Size, 'f', -1, 64))
	b.WriteString("px ")

	families := strings.Split(font.Family, ",")
	written := 0
	for _, family := range families {
		family = strings.Trim(strings.TrimSpace(family), `"'`)
		if family == "" {
			continue
		}

		if written > 0 {
			b.WriteString(", ")
		}
		written++

		if _, generic := genericFamilies[strings.ToLower(family)]; generic {
			b.WriteString(strings.ToLower(family))

			continue
		}

		b.WriteString(strconv.Quote(family))
	}

	if written == 0 {
		b.WriteString("sans-serif")
	}

	return b.String()
}
