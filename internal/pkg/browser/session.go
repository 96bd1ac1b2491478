// Package browser manages a headless Chrome session shared by text measurement and screenshots.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/chromedp/chromedp"
)

// ErrClosed is returned when running actions on a closed [Session].
var ErrClosed = errors.New("browser session closed")

// Session is a lazily started headless browser tab.
//
// The browser process is launched on the first call to [Session.Run] and kept alive until [Session.Close].
// A failure to launch is remembered: subsequent calls fail fast with the same error.
//
// A [Session] is safe for concurrent use; actions are serialized on the single tab.
type Session struct {
	options

	mu          sync.Mutex
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	started     bool
	closed      bool
	startErr    error
	l           *slog.Logger
}

// New builds a [Session]. No browser is launched until actions are run.
func New(opts ...Option) *Session {
	return &Session{
		options: optionsWithDefaults(opts),
		l:       slog.Default().With(slog.String("module", "browser")),
	}
}

// Run the chromedp actions on the session tab, within the configured timeout.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.start(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(s.ctx, s.Timeout)
	defer cancel()

	// propagate the caller's cancellation to the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Close terminates the browser, if started.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if !s.started {
		return nil
	}

	s.cancelTab()
	s.cancelAlloc()
	s.l.Debug("browser closed")

	return nil
}

func (s *Session) start() error {
	if s.closed {
		return ErrClosed
	}

	if s.started {
		return s.startErr
	}
	s.started = true

	allocatorOptions := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if s.NoSandbox {
		allocatorOptions = append(allocatorOptions, chromedp.NoSandbox)
	}
	if s.ExecPath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(s.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOptions...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	s.ctx, s.cancelTab, s.cancelAlloc = tabCtx, cancelTab, cancelAlloc

	// the first run allocates the browser: it must not be bound to a timeout, or the browser dies with it
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		s.startErr = fmt.Errorf("starting headless browser: %w", err)
		s.l.Warn("headless browser unavailable", slog.String("error", err.Error()))

		return s.startErr
	}

	s.l.Info("headless browser started")

	return nil
}

// Available reports whether a Chrome or Chromium executable may be found on the PATH.
func Available() bool {
	for _, name := range []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}

	return false
}
