package measure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/fredbi/labelfit/internal/pkg/browser"
)

func TestHeuristicBackend(t *testing.T) {
	h := NewHeuristicBackend()

	t.Run("width is proportional to glyph count", func(t *testing.T) {
		m, err := h.Bounds("abcd", arial(10))
		require.NoError(t, err)
		assert.InDelta(t, 4*10*DefaultCharWidthFactor, m.Width, 1e-9)
		assert.InDelta(t, 12, m.Height, 1e-9)
	})

	t.Run("wide glyphs count twice", func(t *testing.T) {
		narrow, _ := h.Bounds("ab", arial(10))
		wide, _ := h.Bounds("日本", arial(10))
		assert.InDelta(t, 2*narrow.Width, wide.Width, 1e-9)
	})

	t.Run("bold is wider", func(t *testing.T) {
		regular, _ := h.Bounds("label", arial(10))
		bold, _ := h.Bounds("label", FontSpec{Family: "Arial", Size: 10, Weight: "bold"})
		assert.Greater(t, bold.Width, regular.Width)
	})

	t.Run("combining marks have no advance", func(t *testing.T) {
		plain, _ := h.Bounds("e", arial(10))
		combined, _ := h.Bounds("é", arial(10))
		assert.InDelta(t, plain.Width, combined.Width, 1e-9)
	})
}

func TestFontBackend(t *testing.T) {
	b := NewFontBackend()

	t.Run("measures embedded fonts", func(t *testing.T) {
		m, err := b.Bounds("Hello", FontSpec{Family: FamilyGo, Size: 16, Weight: WeightNormal})
		require.NoError(t, err)
		assert.Positive(t, m.Width)
		assert.Positive(t, m.Height)
	})

	t.Run("unknown families fall back to the default family", func(t *testing.T) {
		known, err := b.Bounds("Hello", FontSpec{Family: FamilyGo, Size: 16})
		require.NoError(t, err)
		unknown, err := b.Bounds("Hello", FontSpec{Family: "Some Missing Font", Size: 16})
		require.NoError(t, err)
		assert.InDelta(t, known.Width, unknown.Width, 1e-9)
	})

	t.Run("family lists pick the first known family", func(t *testing.T) {
		mono, err := b.Bounds("iiii", FontSpec{Family: FamilyGoMono, Size: 16})
		require.NoError(t, err)
		listed, err := b.Bounds("iiii", FontSpec{Family: `"Fancy", monospace`, Size: 16})
		require.NoError(t, err)
		assert.InDelta(t, mono.Width, listed.Width, 1e-9)
	})

	t.Run("bold is wider than regular", func(t *testing.T) {
		regular, err := b.Bounds("Czech Republic", FontSpec{Family: FamilyGo, Size: 16, Weight: WeightNormal})
		require.NoError(t, err)
		bold, err := b.Bounds("Czech Republic", FontSpec{Family: FamilyGo, Size: 16, Weight: WeightBold})
		require.NoError(t, err)
		assert.Greater(t, bold.Width, regular.Width)
	})

	t.Run("width scales with size", func(t *testing.T) {
		small, err := b.Bounds("scale", FontSpec{Family: FamilyGo, Size: 10})
		require.NoError(t, err)
		large, err := b.Bounds("scale", FontSpec{Family: FamilyGo, Size: 20})
		require.NoError(t, err)
		assert.InEpsilon(t, 2*small.Width, large.Width, 0.05)
	})

	t.Run("registers font files", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "mono.ttf")
		require.NoError(t, os.WriteFile(file, gomono.TTF, 0o600))

		custom := NewFontBackend()
		require.NoError(t, custom.RegisterFontFile("Custom", WeightNormal, StyleNormal, file))

		got, err := custom.Bounds("iiii", FontSpec{Family: "Custom", Size: 12})
		require.NoError(t, err)
		want, err := custom.Bounds("iiii", FontSpec{Family: FamilyGoMono, Size: 12})
		require.NoError(t, err)
		assert.InDelta(t, want.Width, got.Width, 1e-9)

		require.Error(t, custom.RegisterFontFile("Custom", WeightNormal, StyleNormal, filepath.Join(dir, "missing.ttf")))
	})

	t.Run("invalid font data fails", func(t *testing.T) {
		broken := NewFontBackend()
		broken.RegisterFont("Broken", WeightNormal, StyleNormal, []byte("not a font"))

		_, err := broken.Bounds("text", FontSpec{Family: "Broken", Size: 12})
		require.Error(t, err)

		// the measurer degrades to the estimate
		m := New(broken)
		assert.Positive(t, m.Measure("text", FontSpec{Family: "Broken", Size: 12}).Width)
		assert.EqualValues(t, 1, m.Fallbacks())
	})
}

func TestCSSFont(t *testing.T) {
	tests := []struct {
		font FontSpec
		want string
	}{
		{FontSpec{Family: "Arial", Size: 12, Weight: "normal"}, `400 12px "Arial"`},
		{FontSpec{Family: "Open Sans, sans-serif", Size: 9.5, Weight: "bold", Style: "italic"}, `italic 700 9.5px "Open Sans", sans-serif`},
		{FontSpec{Size: 10}, `400 10px sans-serif`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, CSSFont(tt.font))
		})
	}
}

func TestBrowserBackend(t *testing.T) {
	if !browser.Available() {
		t.Skip("no Chrome/Chromium browser found, skipping integration test")
	}

	session := browser.New(browser.WithNoSandbox(true))
	defer func() { _ = session.Close() }()

	b := NewBrowserBackend(session)
	small, err := b.Bounds("100K", arial(12))
	require.NoError(t, err)
	assert.Positive(t, small.Width)

	large, err := b.Bounds("100K", arial(24))
	require.NoError(t, err)
	assert.Greater(t, large.Width, small.Width)
}
