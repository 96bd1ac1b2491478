package measure

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func arial(size float64) FontSpec {
	return FontSpec{Family: "Arial", Size: size, Weight: WeightNormal}
}

func TestMeasureEmptyText(t *testing.T) {
	for name, m := range testMeasurers(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, TextMeasurement{}, m.Measure("", arial(12)))
		})
	}
}

func TestMeasureConcreteScenario(t *testing.T) {
	for name, m := range testMeasurers(t) {
		t.Run(name, func(t *testing.T) {
			first := m.Measure("100K", arial(12))
			assert.Positive(t, first.Width)
			assert.Positive(t, first.Height)

			for range 5 {
				assert.Equal(t, first, m.Measure("100K", arial(12)))
			}
		})
	}
}

func TestMeasureMonotonicity(t *testing.T) {
	texts := []string{"a", "Czech Republic", "42%", "日本語のラベル", "WWW iii"}
	sizes := []float64{1, 4, 8, 9.5, 12, 16, 24, 48}

	for name, m := range testMeasurers(t) {
		t.Run(name, func(t *testing.T) {
			for _, text := range texts {
				previous := 0.0
				for _, size := range sizes {
					w := m.Measure(text, arial(size)).Width
					assert.GreaterOrEqual(t, w, previous, "width of %q must not decrease at size %v", text, size)
					previous = w
				}
			}
		})
	}
}

func TestMeasureClampsFontSize(t *testing.T) {
	m := New(NewHeuristicBackend())

	for _, size := range []float64{0, -3, math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := m.Measure("abc", arial(size))
		assert.Equal(t, m.Measure("abc", arial(MinFontSize)), got)
		assert.Positive(t, got.Width)
	}

	t.Run("infinite sizes never reach the backend", func(t *testing.T) {
		backend := &sizeRecorder{}
		m := New(backend)

		got := m.Measure("abc", arial(math.Inf(1)))
		assert.InDelta(t, MinFontSize, backend.size, 1e-9)
		assert.InDelta(t, 3*MinFontSize, got.Width, 1e-9)
		assert.Zero(t, m.Fallbacks())
	})
}

// sizeRecorder measures one pixel per rune and em, and records the last size it was asked for.
type sizeRecorder struct {
	size float64
}

func (b *sizeRecorder) Bounds(text string, font FontSpec) (TextMeasurement, error) {
	if math.IsInf(font.Size, 0) {
		return TextMeasurement{}, errors.New("infinite font size")
	}
	b.size = font.Size

	return TextMeasurement{Width: float64(len([]rune(text))) * font.Size, Height: font.Size}, nil
}

func TestMeasureFallback(t *testing.T) {
	errBackend := errors.New("no geometry")

	t.Run("with failing backend", func(t *testing.T) {
		m := New(&stubBackend{err: errBackend})
		got := m.Measure("hello", arial(10))

		expected, _ := NewHeuristicBackend().Bounds("hello", arial(10))
		assert.Equal(t, expected, got)
		assert.EqualValues(t, 1, m.Fallbacks())

		_ = m.Measure("hello again", arial(10))
		assert.EqualValues(t, 2, m.Fallbacks())
	})

	t.Run("with invalid backend result", func(t *testing.T) {
		m := New(&stubBackend{result: TextMeasurement{Width: -1, Height: 3}})
		got := m.Measure("hello", arial(10))
		assert.Positive(t, got.Width)
		assert.EqualValues(t, 1, m.Fallbacks())
	})

	t.Run("with NaN backend result", func(t *testing.T) {
		m := New(&stubBackend{result: TextMeasurement{Width: math.NaN()}})
		assert.False(t, math.IsNaN(m.Measure("hello", arial(10)).Width))
	})

	t.Run("without backend", func(t *testing.T) {
		m := New(nil)
		assert.Positive(t, m.Measure("hello", arial(10)).Width)
		assert.Zero(t, m.Fallbacks())
	})

	t.Run("with custom char width factor", func(t *testing.T) {
		m := New(&stubBackend{err: errBackend}, WithCharWidthFactor(0.6))
		assert.InDelta(t, 5*10*0.6, m.Measure("hello", arial(10)).Width, 1e-9)
	})
}

func TestMeasureWithCache(t *testing.T) {
	backend := &stubBackend{result: TextMeasurement{Width: 10, Height: 2}}
	cached := New(backend, WithCache(100))
	defer func() { _ = cached.Close() }()
	uncached := New(backend)

	for range 10 {
		for _, text := range []string{"a", "b", "a b"} {
			for _, size := range []float64{8, 12} {
				assert.Equal(t, uncached.Measure(text, arial(size)), cached.Measure(text, arial(size)))
			}
		}
	}
}

func TestMemoKeyCoversFullTuple(t *testing.T) {
	base := FontSpec{Family: "Arial", Size: 12, Weight: WeightNormal, Style: StyleNormal}
	variants := []FontSpec{
		{Family: "Arial Black", Size: 12, Weight: WeightNormal, Style: StyleNormal},
		{Family: "Arial", Size: 12.5, Weight: WeightNormal, Style: StyleNormal},
		{Family: "Arial", Size: 12, Weight: WeightBold, Style: StyleNormal},
		{Family: "Arial", Size: 12, Weight: WeightNormal, Style: StyleItalic},
	}

	key := memoKey("x", base)
	assert.NotEqual(t, key, memoKey("y", base))
	for _, variant := range variants {
		assert.NotEqual(t, key, memoKey("x", variant))
	}
	assert.Equal(t, key, memoKey("x", base))
}

func TestMeasureConcurrently(t *testing.T) {
	m := New(NewFontBackend(), WithCache(1000))
	defer func() { _ = m.Close() }()

	expected := m.Measure("concurrent label", arial(14))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				assert.Equal(t, expected, m.Measure("concurrent label", arial(14)))
			}
		}()
	}
	wg.Wait()
}

func TestWidest(t *testing.T) {
	m := New(NewHeuristicBackend())
	font := arial(10)

	assert.Zero(t, Widest(m, nil, font))
	assert.InDelta(t, m.Measure("longest label", font).Width, Widest(m, []string{"a", "longest label", "mid"}, font), 1e-9)
}

func TestDefaultMeasurer(t *testing.T) {
	require.Same(t, Default(), Default())
	assert.Equal(t, Default().Measure("label", arial(12)), Measure("label", arial(12)))
}

func TestWeights(t *testing.T) {
	tests := []struct {
		weight string
		want   int
		bold   bool
	}{
		{"", 400, false},
		{"normal", 400, false},
		{"bold", 700, true},
		{"Bold", 700, true},
		{"600", 600, true},
		{"500", 500, false},
		{"medium", 500, false},
		{"black", 900, true},
		{"unknown", 400, false},
		{"5000", 400, false},
	}

	for _, tt := range tests {
		t.Run(tt.weight, func(t *testing.T) {
			assert.Equal(t, tt.want, NumericWeight(tt.weight))
			assert.Equal(t, tt.bold, IsBold(tt.weight))
		})
	}

	assert.Equal(t, WeightBold, WeightFromNumber(700))
	assert.Equal(t, WeightNormal, WeightFromNumber(400))
	assert.Equal(t, "300", WeightFromNumber(300))
}

// testMeasurers returns measurers which must all satisfy the measurement contract.
func testMeasurers(t *testing.T) map[string]Measurer {
	t.Helper()

	return map[string]Measurer{
		"font":      New(NewFontBackend()),
		"heuristic": New(NewHeuristicBackend()),
		"fallback":  New(&stubBackend{err: errors.New("unavailable")}),
		"cached":    New(NewFontBackend(), WithCache(64)),
	}
}

type stubBackend struct {
	result TextMeasurement
	err    error
}

func (b *stubBackend) Bounds(string, FontSpec) (TextMeasurement, error) {
	return b.result, b.err
}
