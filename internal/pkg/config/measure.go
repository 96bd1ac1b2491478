package config

import (
	"fmt"
	"time"

	"github.com/fredbi/labelfit/internal/pkg/browser"
	"github.com/fredbi/labelfit/internal/pkg/measure"
)

// BackendName identifies a text measurement backend (e.g. "font", "browser").
type BackendName string

// Supported measurement backends.
const (
	BackendFont      BackendName = "font"
	BackendBrowser   BackendName = "browser"
	BackendHeuristic BackendName = "heuristic"
)

// String returns the backend name as a plain string.
func (b BackendName) String() string {
	return string(b)
}

// IsValid reports whether the backend name is one of the known measurement backends.
func (b BackendName) IsValid() bool {
	switch b {
	case BackendFont, BackendBrowser, BackendHeuristic:
		return true
	default:
		return false
	}
}

// AllBackendNames returns all known measurement backend names.
func AllBackendNames() []BackendName {
	return []BackendName{
		BackendFont,
		BackendBrowser,
		BackendHeuristic,
	}
}

// Measure configures text measurement.
type Measure struct {
	Backend         BackendName
	CharWidthFactor float64
	Cache           bool
	CacheSize       int64
	Timeout         string
	DefaultFamily   string
	Fonts           []FontFile
}

// FontFile declares a font file to measure a family, weight and style with.
type FontFile struct {
	Family string
	Weight string
	Style  string
	File   string
}

// TimeoutDuration parses the Timeout field as a [time.Duration].
func (m Measure) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0
	}

	return d
}

// NeedsBrowser reports whether measurements require a headless browser.
func (m Measure) NeedsBrowser() bool {
	return m.Backend == BackendBrowser
}

// NewMeasurer builds the [measure.TextMeasurer] configured by this section.
//
// The browser session is only used by the browser backend. When nil, the backend starts its own session.
func (m Measure) NewMeasurer(session *browser.Session) (*measure.TextMeasurer, error) {
	opts := []measure.Option{
		measure.WithCharWidthFactor(m.CharWidthFactor),
	}
	if m.Cache {
		opts = append(opts, measure.WithCache(m.CacheSize))
	}

	switch m.Backend {
	case BackendHeuristic:
		return measure.New(measure.NewHeuristicBackend(measure.WithCharWidthFactor(m.CharWidthFactor)), opts...), nil
	case BackendBrowser:
		return measure.New(measure.NewBrowserBackend(session), opts...), nil
	case BackendFont, "":
		backend := measure.NewFontBackend()
		for i, font := range m.Fonts {
			if err := backend.RegisterFontFile(font.Family, font.Weight, font.Style, font.File); err != nil {
				return nil, fmt.Errorf("measure.fonts[%d]: %w", i, err)
			}
		}

		if m.DefaultFamily != "" {
			backend.SetDefaultFamily(m.DefaultFamily)
		}

		return measure.New(backend, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported measurement backend %q (should be one of %v)", m.Backend, AllBackendNames())
	}
}

func (c *Config) validateMeasure() error {
	m := c.Measure

	if m.Backend == "" {
		c.Measure.Backend = BackendFont
	} else if !m.Backend.IsValid() {
		return fmt.Errorf("invalid measure: invalid backend: %v (should be one of %v)", m.Backend, AllBackendNames())
	}

	if m.CharWidthFactor < 0 {
		return fmt.Errorf("invalid measure: charWidthFactor must not be negative: %v", m.CharWidthFactor)
	}

	if m.Cache && m.CacheSize <= 0 {
		return fmt.Errorf("invalid measure: cacheSize must be positive when the cache is enabled: %d", m.CacheSize)
	}

	if m.Timeout != "" {
		if _, err := time.ParseDuration(m.Timeout); err != nil {
			return fmt.Errorf("invalid measure: timeout: %w", err)
		}
	}

	for i, font := range m.Fonts {
		if font.Family == "" || font.File == "" {
			return fmt.Errorf("invalid measure: fonts[%d] requires a family and a file", i)
		}
	}

	return nil
}
