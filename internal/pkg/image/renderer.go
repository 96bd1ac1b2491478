// Package image converts a HTML page into a PNG screenshot.
package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"

	"github.com/fredbi/labelfit/internal/pkg/browser"
)

// Renderer knows how to take a screenshot from a HTML input and writes it as PNG.
type Renderer struct {
	options

	session *browser.Session
	l       *slog.Logger
}

// New builds an image [Renderer] taking screenshots in a headless browser [browser.Session].
//
// The session may be shared with a browser-backed text measurer.
func New(session *browser.Session, opts ...Option) *Renderer {
	return &Renderer{
		options: optionsWithDefaults(opts),
		session: session,
		l:       slog.Default().With(slog.String("module", "image")),
	}
}

// Render a PNG image as a screenshot from a HTML input [io.Reader].
func (r *Renderer) Render(ctx context.Context, dest io.Writer, source io.Reader) error {
	screenshot, err := r.screenshot(ctx, source)
	if err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}

	_, err = dest.Write(screenshot)
	if err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	r.l.Info("screenshot taken", slog.Int("bytes", len(screenshot)))

	return nil
}

func (r *Renderer) screenshot(ctx context.Context, reader io.Reader) ([]byte, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	const qualityPNG = 100 // 100 to force PNG

	// colors like "#1f77b4" would end a plain data URL
	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString(content)

	actions := []chromedp.Action{
		chromedp.Emulate(device.Info{
			Height:    r.Height,
			Width:     r.Width,
			Landscape: true,
		}),
		chromedp.Navigate(url),
	}

	if r.WaitVisible != "" {
		actions = append(actions, chromedp.WaitVisible(r.WaitVisible, chromedp.ByQuery))
	}

	var screenshot []byte
	actions = append(actions,
		chromedp.Sleep(r.SleepDuration), // charts are animated
		chromedp.FullScreenshot(&screenshot, qualityPNG),
	)

	if err := r.session.Run(ctx, actions...); err != nil {
		return nil, err
	}

	return screenshot, nil
}
