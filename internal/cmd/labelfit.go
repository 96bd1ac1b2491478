// Package cmd owns the implementation details of the CLI command.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/fredbi/labelfit/internal/pkg/browser"
	"github.com/fredbi/labelfit/internal/pkg/chart"
	"github.com/fredbi/labelfit/internal/pkg/config"
	"github.com/fredbi/labelfit/internal/pkg/image"
	"github.com/fredbi/labelfit/internal/pkg/measure"
	"github.com/fredbi/labelfit/internal/pkg/model"
	"github.com/fredbi/labelfit/internal/pkg/parser"
	"github.com/fredbi/labelfit/internal/pkg/planner"
)

const (
	defaultConfigFile = "labelfit.yaml"
	stdio             = "-"
)

// Command holds command line flags and executes the labelfit command.
//
// It knows how to load a configuration file in a [config.Config] and manage CLI flag configuration overrides.
//
// The main purpose of this package is to deal with io's: opening and closing files, starting and stopping
// the headless browser.
//
// All other invoked functionalities deal with streams, except the dataset parser which may collect several files
// directly.
type Command struct {
	Config     string
	OutputFile string
	IsJSON     bool
	PlanOnly   bool
	Report     bool
	Png        bool
	Backend    string
	Metric     string
	L          *slog.Logger
}

// NewCommand builds a CLI command with registered flags and an injected logger.
func NewCommand() *Command {
	// inject a structured logger
	cli := &Command{
		L: slog.Default().With(slog.String("module", "main")),
	}

	cli.registerFlags()

	return cli
}

// Parse command line flags and arguments.
func (*Command) Parse() error {
	return flag.CommandLine.Parse(os.Args[1:])
}

// Fatalf logs an error message then exits. The output is spewed on both stderr and the structured logger output.
func (c *Command) Fatalf(err error) {
	c.L.Error(err.Error())
	log.Fatalf("%v", err)
}

// Execute the CLI with flags and extra arguments.
//
// If no argument is passed, command line arguments (i.e. [os.Args]) are used.
func (c *Command) Execute(args ...string) error {
	if args == nil { // passing explicit args allows for testing Execute without altering [os.Args]
		args = c.args()
	}
	if len(args) == 0 { // no file is provided: assume stdin
		args = append(args, stdio)
	}

	cfg, cleanup, err := c.prepareConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := c.parse(cfg, args)
	if err != nil {
		return err
	}

	if c.Report {
		// just want to report about the content of the dataset files
		return encodeJSON(os.Stdout, p.Report())
	}

	ctx := context.Background()

	// 1. start the headless browser, if measurements or screenshots need one
	var session *browser.Session
	if cfg.Measure.NeedsBrowser() || (cfg.Outputs.PngFile != "" && !cfg.PlanOnly) {
		session = browser.New(
			browser.WithTimeout(cfg.Measure.TimeoutDuration()),
			browser.WithNoSandbox(os.Geteuid() == 0), // chrome refuses to run sandboxed as root
		)
		defer func() {
			_ = session.Close()
		}()
	}

	measurer, err := cfg.Measure.NewMeasurer(session)
	if err != nil {
		return fmt.Errorf("preparing text measurement: %w", err)
	}
	defer func() {
		_ = measurer.Close()
	}()

	// 2. lay out charts so that labels fit
	plans, err := buildPlans(cfg, measurer, p.Datasets())
	if err != nil {
		return err
	}

	if fallbacks := measurer.Fallbacks(); fallbacks > 0 {
		c.L.Warn("text measurements fell back to estimates",
			slog.String("backend", cfg.Measure.Backend.String()),
			slog.Uint64("fallbacks", fallbacks),
		)
	}

	if cfg.PlanOnly {
		return c.writePlans(plans)
	}

	// 3. render the page as HTML, possibly to stdout, possibly to temp file
	page := chart.New(cfg, plans).BuildPage()

	htmlWriter, htmlCloser, err := getWriter(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}

	if err := page.Render(htmlWriter); err != nil {
		htmlCloser()
		return fmt.Errorf("rendering page: %w", err)
	}

	htmlCloser()

	if cfg.Outputs.PngFile == "" {
		// html only: we're done
		return nil
	}

	// 4. convert the HTML page to a PNG image, possibly to stdout
	htmlReader, htmlCloser, err := getReader(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}
	defer htmlCloser()

	pngWriter, pngCloser, err := getWriter(cfg.Outputs.PngFile, "PNG")
	if err != nil {
		return err
	}
	defer pngCloser()

	screenshot := cfg.Render.Screenshot
	r := image.New(session,
		image.WithViewport(screenshot.Width, screenshot.Height),
		image.WithSleep(screenshot.SleepDuration()),
		image.WithWaitVisible("canvas"),
	)

	if err = r.Render(ctx, pngWriter, htmlReader); err != nil {
		return fmt.Errorf("rendering image: %w", err)
	}

	return nil
}

func (*Command) args() []string {
	return flag.CommandLine.Args()
}

func (c *Command) registerFlags() {
	defaults := Command{
		Config:     defaultConfigFile,
		OutputFile: stdio,
		Png:        false,
		IsJSON:     false,
		PlanOnly:   false,
		Report:     false,
		Backend:    "",
		Metric:     string(parser.MetricNsPerOp),
	}

	flag.BoolVar(&c.IsJSON, "json", defaults.IsJSON, "read benchmarks from go test -json output")
	flag.StringVar(&c.Config, "config", defaults.Config, "config file")
	flag.StringVar(&c.Config, "c", defaults.Config, "config file (shorthand)")
	flag.StringVar(&c.OutputFile, "output", defaults.OutputFile, "file output or - for standard output")
	flag.StringVar(&c.OutputFile, "o", defaults.OutputFile, "file output or - for standard output (shorthand)")
	flag.BoolVar(&c.PlanOnly, "plan", defaults.PlanOnly, "print layout plans as JSON, no rendering")
	flag.BoolVar(&c.PlanOnly, "p", defaults.PlanOnly, "print layout plans as JSON, no rendering (shorthand)")
	flag.StringVar(&c.Backend, "backend", defaults.Backend, "text measurement backend: font, browser or heuristic")
	flag.StringVar(&c.Backend, "b", defaults.Backend, "text measurement backend (shorthand)")
	flag.StringVar(&c.Metric, "metric", defaults.Metric, "benchmark metric: nsPerOp, allocsPerOp, bytesPerOp or MBytesPerS")
	flag.StringVar(&c.Metric, "m", defaults.Metric, "benchmark metric (shorthand)")
	flag.BoolVar(&c.Report, "r", defaults.Report, "report dataset contents only, no rendering (shorthand)")
	flag.BoolVar(&c.Report, "report", defaults.Report, "report dataset contents only")
	flag.BoolVar(&c.Png, "png", defaults.Png, "enable PNG screenshot output")
}

func (c *Command) prepareConfig() (cfg *config.Config, cleanup func(), err error) {
	cfg, err = c.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err = c.setConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("preparing config: %w", err)
	}

	if cfg.Outputs.IsTemp && !c.Report {
		cleanup = func() {
			_ = os.Remove(cfg.Outputs.HTMLFile)
		}

		return cfg, cleanup, err
	}

	return cfg, func() {}, err
}

// loadConfig loads the config file. A missing default config file falls back to the built-in defaults.
func (c *Command) loadConfig() (*config.Config, error) {
	file := c.Config
	if file == "" {
		file = defaultConfigFile
	}

	cfg, err := config.Load(file)
	if err == nil {
		return cfg, nil
	}

	if file != defaultConfigFile || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	c.L.Info("no config file found, using defaults", slog.String("config", file))

	return config.LoadDefaults()
}

// apply CLI flags overrides to YAML config.
func (c *Command) setConfig(cfg *config.Config) error {
	cfg.IsJSON = c.IsJSON
	cfg.PlanOnly = c.PlanOnly

	if c.Backend != "" {
		backend := config.BackendName(c.Backend)
		if !backend.IsValid() {
			return fmt.Errorf("invalid backend: %q (should be one of %v)", c.Backend, config.AllBackendNames())
		}
		cfg.Measure.Backend = backend
	}

	if c.Metric != "" && !parser.Metric(c.Metric).IsValid() {
		return fmt.Errorf("invalid metric: %q", c.Metric)
	}

	if c.OutputFile != "" && c.OutputFile != stdio && !c.PlanOnly {
		// an outfile is defined: infer the PNG file from the HTML file provided
		cfg.Outputs.HTMLFile = inferHTMLFile(c.OutputFile)
		if cfg.Outputs.PngFile == "" && c.Png {
			cfg.Outputs.PngFile = inferImageFile(cfg.Outputs.HTMLFile)
		}
	}

	if c.Report || c.PlanOnly {
		return nil
	}

	switch {
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile == "":
		c.L.Info("output sent to standard output as HTML, no PNG image rendered")
		if c.Png {
			c.L.Info("set an output file to render a PNG image")
		}
		cfg.Outputs.HTMLFile = stdio
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile != "":
		c.L.Info("HTML generated as a temporary file to produce PNG")
		tmp, err := os.CreateTemp("", "labelfit.*.html")
		if err != nil {
			return err
		}
		cfg.Outputs.HTMLFile = tmp.Name()
		cfg.Outputs.IsTemp = true
		_ = tmp.Close()
	}

	return nil
}

// parse input datasets passed as CLI args.
func (c *Command) parse(cfg *config.Config, args []string) (*parser.DatasetParser, error) {
	p := parser.New(cfg,
		parser.WithParseJSON(cfg.IsJSON),
		parser.WithMetric(parser.Metric(c.Metric)),
	)

	t0 := time.Now()
	if err := p.ParseFiles(args...); err != nil {
		return nil, fmt.Errorf("parsing files: %w", err)
	}
	c.L.Info("parsed input datasets",
		slog.Int("datasets", len(p.Datasets())),
		slog.Duration("duration", time.Since(t0)),
	)

	return p, nil
}

// writePlans prints layout plans as JSON, to the output file or to stdout.
func (c *Command) writePlans(plans []model.Plan) error {
	w, closer, err := getWriter(c.OutputFile, "JSON")
	if err != nil {
		return err
	}
	defer closer()

	return encodeJSON(w, plans)
}

func buildPlans(cfg *config.Config, measurer measure.Measurer, datasets []model.Dataset) ([]model.Plan, error) {
	plans, err := planner.New(cfg, measurer).PlanAll(datasets)
	if err != nil {
		return nil, fmt.Errorf("planning charts: %w", err)
	}

	return plans, nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")

	return enc.Encode(v)
}

func getReader(file, kind string) (rdr *os.File, cleanup func(), err error) {
	if file == stdio {
		return nil, nil, fmt.Errorf("cannot read back %s from standard output", kind)
	}

	rdr, err = os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = rdr.Close()
	}

	return rdr, cleanup, nil
}

func getWriter(file, kind string) (wrt *os.File, cleanup func(), err error) {
	if file == "" || file == stdio {
		return os.Stdout, func() {}, nil
	}

	wrt, err = os.Create(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file for writing: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = wrt.Close()
	}

	return wrt, cleanup, nil
}

func inferHTMLFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".html"
}

func inferImageFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".png"
}
