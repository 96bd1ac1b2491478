package config

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fredbi/labelfit/internal/pkg/measure"
	"github.com/fredbi/labelfit/internal/pkg/placement"
)

//go:embed default_config.yaml
var efs embed.FS

// Config holds the configuration for labelfit.
type Config struct {
	Name       string
	IsJSON     bool `mapstructure:"-"`
	PlanOnly   bool `mapstructure:"-"`
	Typography Typography
	Colors     Colors
	Layout     Layout
	Measure    Measure
	Render     Rendering
	Outputs    Output `mapstructure:"-"`
	Categories []Category

	categoryIndex map[string]Category
}

// GetCategory retrieves a category definition by its ID.
func (c Config) GetCategory(id string) (Category, bool) {
	v, ok := c.categoryIndex[id]

	return v, ok
}

// CategoryTitle returns the display title of a category.
//
// Undeclared categories are titleized from their ID.
func (c Config) CategoryTitle(id string) string {
	if v, ok := c.categoryIndex[id]; ok {
		return v.Title
	}

	return titleize(id)
}

// CategoryColor returns the fill color of the i-th category of a chart.
//
// Declared category colors come first, then the palette. Without a palette,
// categories alternate between the primary and secondary colors.
func (c Config) CategoryColor(id string, i int) string {
	if v, ok := c.categoryIndex[id]; ok && v.Color != "" {
		return v.Color
	}

	if len(c.Colors.Palette) > 0 {
		return c.Colors.Palette[i%len(c.Colors.Palette)]
	}

	if i%2 == 1 && c.Colors.Secondary != "" {
		return c.Colors.Secondary
	}

	return c.Colors.Primary
}

// EncodeYAML serializes a [Config] to YAML into the provided writer.
//
// Runtime-only fields (IsJSON, PlanOnly, Outputs) are excluded from the output.
func (c *Config) EncodeYAML(w io.Writer) error {
	var raw map[string]any

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decoding config to map: %w", err)
	}

	return yaml.NewEncoder(w).Encode(raw)
}

// Typography holds the fonts of the text roles found in a chart.
type Typography struct {
	LineHeight float64 // in em
	Title      TextRole
	Axis       TextRole
	Label      TextRole
}

// TextRole describes the font of a kind of text, and how small it may shrink.
//
// Font is an optional CSS font shorthand (e.g. "bold 16px Arial"), which takes precedence over
// the Family, Size, Weight and Style fields.
type TextRole struct {
	Font    string
	Family  string
	Size    float64
	Weight  string
	Style   string
	MinSize float64
}

// FontSpec returns the font of this text role.
func (r TextRole) FontSpec() measure.FontSpec {
	return measure.FontSpec{
		Family: r.Family,
		Size:   r.Size,
		Weight: r.Weight,
		Style:  r.Style,
	}
}

// Colors holds the chart color scheme.
type Colors struct {
	Background string
	Text       string
	OnFill     string
	Primary    string
	Secondary  string
	Palette    []string
}

// Contrast returns the label colors to use inside and outside marks.
func (c Colors) Contrast() placement.Contrast {
	return placement.Contrast{
		OnFill:       c.OnFill,
		OnBackground: c.Text,
	}
}

// Layout holds chart geometry and label placement settings, in pixels.
type Layout struct {
	Width       int
	Height      int // 0 sizes the chart after its bars
	BarHeight   float64
	Padding     float64
	Ellipsis    string
	EdgeAligned bool
	MinContrast float64
	MaxMargin   float64
	TitleWidth  float64 // 0 uses the chart width
	BarGap      float64 // ratio of the band left empty between bars
}

// Rendering holds chart rendering settings.
type Rendering struct {
	Title      string
	Theme      string
	Screenshot Screenshot
}

// Screenshot configures the headless Chrome screenshot used for PNG rendering.
type Screenshot struct {
	Height int64
	Width  int64
	Sleep  string
}

// SleepDuration parses the Sleep field as a [time.Duration].
func (s Screenshot) SleepDuration() time.Duration {
	d, err := time.ParseDuration(s.Sleep)
	if d == 0 || err != nil {
		return 0
	}

	return d
}

// Output holds the resolved output file paths for HTML and PNG rendering.
type Output struct {
	HTMLFile string
	PngFile  string
	IsTemp   bool
}

// Category declares the display title and fill color of a data category.
type Category struct {
	ID    string
	Title string
	Color string
}

// Load a configuration file from the local file system.
//
// The file is merged onto the default configuration.
func Load(file string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	fsys := os.DirFS(filepath.Dir(file))
	pth := filepath.Join(".", filepath.Base(file))

	return load(fsys, pth, cfg)
}

// LoadDefaults loads the default configuration from the embedded default_config.yaml.
func LoadDefaults() (*Config, error) {
	return loadDefaults()
}

// loadDefaults loads the default configuration from embedded FS.
func loadDefaults() (*Config, error) {
	return load(efs, "default_config.yaml", &Config{})
}

func load(fsys fs.FS, file string, cfg *Config) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var raw any
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, err
	}

	err = mapstructure.Decode(raw, cfg)
	if err != nil {
		return nil, err
	}

	cfg.categoryIndex = make(map[string]Category, len(cfg.Categories))

	if err = cfg.validateTypography(); err != nil {
		return nil, err
	}

	if err = cfg.validateColors(); err != nil {
		return nil, err
	}

	if err = cfg.validateLayout(); err != nil {
		return nil, err
	}

	if err = cfg.validateMeasure(); err != nil {
		return nil, err
	}

	if err = cfg.validateCategories(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateTypography() error {
	if c.Typography.LineHeight <= 0 {
		return fmt.Errorf("invalid typography: lineHeight must be positive: %v", c.Typography.LineHeight)
	}

	for _, role := range []struct {
		name string
		role *TextRole
	}{
		{"title", &c.Typography.Title},
		{"axis", &c.Typography.Axis},
		{"label", &c.Typography.Label},
	} {
		if err := validateTextRole(role.name, role.role); err != nil {
			return err
		}
	}

	return nil
}

func validateTextRole(name string, r *TextRole) error {
	if r.Font != "" {
		font, err := measure.ParseFont(r.Font)
		if err != nil {
			return fmt.Errorf("invalid typography: typography.%s.font: %w", name, err)
		}

		r.Family = font.Family
		r.Size = font.Size
		r.Weight = font.Weight
		r.Style = font.Style
	}

	if r.Size <= 0 {
		return fmt.Errorf("invalid typography: typography.%s.size must be positive: %v", name, r.Size)
	}

	if r.MinSize < 0 || r.MinSize > r.Size {
		return fmt.Errorf("invalid typography: typography.%s.minSize must be within [0, %v]: %v", name, r.Size, r.MinSize)
	}

	if r.MinSize == 0 {
		r.MinSize = r.Size
	}

	if r.Weight == "" {
		r.Weight = measure.WeightNormal
	}

	if r.Style == "" {
		r.Style = measure.StyleNormal
	}

	return nil
}

func (c *Config) validateColors() error {
	for _, v := range []struct {
		name  string
		color string
	}{
		{"background", c.Colors.Background},
		{"text", c.Colors.Text},
		{"onFill", c.Colors.OnFill},
		{"primary", c.Colors.Primary},
		{"secondary", c.Colors.Secondary},
	} {
		if v.color == "" {
			continue
		}

		if _, err := placement.ParseColor(v.color); err != nil {
			return fmt.Errorf("invalid colors: colors.%s: %w", v.name, err)
		}
	}

	for i, v := range c.Colors.Palette {
		if _, err := placement.ParseColor(v); err != nil {
			return fmt.Errorf("invalid colors: colors.palette[%d]: %w", i, err)
		}
	}

	return nil
}

func (c *Config) validateLayout() error {
	l := c.Layout

	if l.Width <= 0 {
		return fmt.Errorf("invalid layout: width must be positive: %d", l.Width)
	}

	if l.Height < 0 {
		return fmt.Errorf("invalid layout: height must not be negative: %d", l.Height)
	}

	if l.BarHeight <= 0 {
		return fmt.Errorf("invalid layout: barHeight must be positive: %v", l.BarHeight)
	}

	if l.Padding < 0 || l.MaxMargin < 0 || l.TitleWidth < 0 {
		return fmt.Errorf("invalid layout: padding, maxMargin and titleWidth must not be negative")
	}

	if l.BarGap < 0 || l.BarGap >= 1 {
		return fmt.Errorf("invalid layout: barGap must be within [0, 1): %v", l.BarGap)
	}

	if l.MinContrast < 0 || l.MinContrast > 21 {
		return fmt.Errorf("invalid layout: minContrast must be within [0, 21]: %v", l.MinContrast)
	}

	return nil
}

func (c *Config) validateCategories() error {
	for i, v := range c.Categories {
		if v.ID == "" {
			return fmt.Errorf("invalid categories: empty ID found: categories[%d]", i)
		}
		if _, ok := c.categoryIndex[v.ID]; ok {
			return fmt.Errorf("invalid categories: duplicate ID key found: %s", v.ID)
		}
		if v.Title == "" {
			v.Title = titleize(v.ID)
		}
		if v.Color != "" {
			if _, err := placement.ParseColor(v.Color); err != nil {
				return fmt.Errorf("invalid categories: categories.%s.color: %w", v.ID, err)
			}
		}

		c.Categories[i] = v
		c.categoryIndex[v.ID] = v
	}

	return nil
}

type str interface {
	~string
}

func titleize[T str](in T) string {
	caser := cases.Title(language.English, cases.NoLower) // the case is stateful: cannot declare it globally

	return caser.String(strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, string(in),
	))
}
