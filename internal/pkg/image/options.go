package image //nolint:revive // it's okay for an internal package to use this name

import "time"

// Option to tune image rendering.
type Option func(*options)

type options struct {
	Height        int64
	Width         int64
	SleepDuration time.Duration
	WaitVisible   string
}

const (
	defaultHeight int64 = 800
	defaultWidth  int64 = 1280
	defaultWait         = time.Second
)

func optionsWithDefaults(opts []Option) options {
	o := options{
		Height:        defaultHeight,
		Width:         defaultWidth,
		SleepDuration: defaultWait,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithViewport sets the size of the browser viewport.
//
// Defaults to 1280x800. Non-positive values are ignored.
func WithViewport(width, height int64) Option {
	return func(o *options) {
		if width > 0 {
			o.Width = width
		}

		if height > 0 {
			o.Height = height
		}
	}
}

// WithSleep sets the time to wait for the chrome headless engine to render the HTML page.
//
// Defaults to 1s.
func WithSleep(sleep time.Duration) Option {
	return func(o *options) {
		if sleep == 0 {
			return
		}

		o.SleepDuration = sleep
	}
}

// WithWaitVisible waits for an element matching a CSS selector (e.g. "canvas") before taking the screenshot.
func WithWaitVisible(selector string) Option {
	return func(o *options) {
		o.WaitVisible = selector
	}
}
