package image //nolint:revive // it's okay for an internal package to use this name

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"

	"github.com/fredbi/labelfit/internal/pkg/browser"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

func TestOptions(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		r := New(nil)

		assert.Equal(t, defaultWidth, r.Width)
		assert.Equal(t, defaultHeight, r.Height)
		assert.Equal(t, defaultWait, r.SleepDuration)
		assert.Empty(t, r.WaitVisible)
	})

	t.Run("should ignore invalid values", func(t *testing.T) {
		r := New(nil, WithViewport(-1, 0), WithSleep(0))

		assert.Equal(t, defaultWidth, r.Width)
		assert.Equal(t, defaultHeight, r.Height)
		assert.Equal(t, defaultWait, r.SleepDuration)
	})

	t.Run("should override defaults", func(t *testing.T) {
		r := New(nil, WithViewport(800, 600), WithSleep(time.Millisecond), WithWaitVisible("canvas"))

		assert.Equal(t, int64(800), r.Width)
		assert.Equal(t, int64(600), r.Height)
		assert.Equal(t, time.Millisecond, r.SleepDuration)
		assert.Equal(t, "canvas", r.WaitVisible)
	})
}

func TestRenderFailingReader(t *testing.T) {
	r := New(newSession(t))
	errExpected := errors.New("read failure")
	dest := &bytes.Buffer{}

	err := r.Render(t.Context(), dest, &failingReader{err: errExpected})
	require.Error(t, err)
	require.ErrorIs(t, err, errExpected)
	assert.Contains(t, err.Error(), "read content")
}

func TestRenderClosedSession(t *testing.T) {
	session := newSession(t)
	require.NoError(t, session.Close())

	err := New(session).Render(t.Context(), &bytes.Buffer{}, strings.NewReader("<html></html>"))
	require.Error(t, err)
	require.ErrorIs(t, err, browser.ErrClosed)
}

func TestRenderFailingWriter(t *testing.T) {
	skipIfNoBrowser(t)

	r := New(newSession(t), WithSleep(10*time.Millisecond))
	html := `<html><body><p>hello</p></body></html>`
	errExpected := errors.New("write failure")

	err := r.Render(t.Context(), &failingWriter{err: errExpected}, strings.NewReader(html))
	require.Error(t, err)
	require.ErrorIs(t, err, errExpected)
	assert.Contains(t, err.Error(), "writing screenshot")
}

func TestRenderSimpleHTML(t *testing.T) {
	skipIfNoBrowser(t)

	r := New(newSession(t), WithViewport(640, 480), WithWaitVisible("h1"))
	html := `<!DOCTYPE html><html><body style="background:#ffffff"><h1 style="color:#1f77b4">Test</h1></body></html>`
	dest := &bytes.Buffer{}

	require.NoError(t, r.Render(t.Context(), dest, strings.NewReader(html)))

	output := dest.Bytes()
	require.NotEmpty(t, output)
	assert.True(t, bytes.HasPrefix(output, pngMagic),
		"output does not start with PNG magic bytes, got %x", output[:min(4, len(output))])
}

func TestRenderEmptyHTML(t *testing.T) {
	skipIfNoBrowser(t)

	r := New(newSession(t))
	dest := &bytes.Buffer{}

	require.NoError(t, r.Render(t.Context(), dest, strings.NewReader("")))

	// Should still produce a valid PNG (blank page screenshot)
	assert.True(t, bytes.HasPrefix(dest.Bytes(), pngMagic),
		"expected valid PNG output even for empty HTML")
}

func TestRenderCanceled(t *testing.T) {
	skipIfNoBrowser(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := New(newSession(t), WithSleep(time.Second)).Render(ctx, &bytes.Buffer{}, strings.NewReader("<html></html>"))
	require.Error(t, err)
}

// helpers

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func newSession(t *testing.T) *browser.Session {
	t.Helper()

	session := browser.New(browser.WithNoSandbox(true), browser.WithTimeout(30*time.Second))
	t.Cleanup(func() {
		_ = session.Close()
	})

	return session
}

func skipIfNoBrowser(t *testing.T) {
	t.Helper()

	if !browser.Available() {
		t.Skip("no Chrome/Chromium browser found, skipping integration test")
	}
}
