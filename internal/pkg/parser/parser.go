package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/tools/benchmark/parse"

	"github.com/fredbi/labelfit/internal/pkg/config"
	"github.com/fredbi/labelfit/internal/pkg/model"
)

// ErrNoData is returned when an input holds neither a dataset nor benchmark results.
var ErrNoData = errors.New("no data found in input")

// ParsingReport allows to inspect the contents of parsed inputs.
type ParsingReport struct {
	NumberOfDatasets int           `json:"datasets"`
	AnalyzedFiles    []string      `json:"analyzed_files"`
	Categories       []string      `json:"categories"`
	Ranges           []MinMaxRange `json:"ranges"`
}

// MinMaxRange summarizes the values of a dataset.
type MinMaxRange struct {
	Title       string  `json:"title"`
	Environment string  `json:"environment,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Count       int     `json:"points_count"`
	Min         float64 `json:"min_value"`
	Max         float64 `json:"max_value"`
	Origin      string  `json:"origin_file"`
}

// Report produces a [ParsingReport], which allows for closer inspection of the content
// of parsed input.
func (p *DatasetParser) Report() ParsingReport {
	var r ParsingReport
	seenFiles := make(map[string]struct{})
	seenCategories := make(map[string]struct{})

	for _, dataset := range p.datasets {
		r.NumberOfDatasets++
		if _, seenFile := seenFiles[dataset.File]; !seenFile {
			seenFiles[dataset.File] = struct{}{}
			r.AnalyzedFiles = append(r.AnalyzedFiles, dataset.File)
		}

		rng := MinMaxRange{
			Title:       dataset.Title,
			Environment: dataset.Environment,
			Unit:        dataset.Unit,
			Origin:      dataset.File,
		}

		for i, point := range dataset.Points {
			if _, seen := seenCategories[point.Category]; !seen {
				seenCategories[point.Category] = struct{}{}
				r.Categories = append(r.Categories, point.Category)
			}

			rng.Count++
			if i == 0 || point.Value < rng.Min {
				rng.Min = point.Value
			}
			if i == 0 || point.Value > rng.Max {
				rng.Max = point.Value
			}
		}

		r.Ranges = append(r.Ranges, rng)
	}

	sort.Strings(r.Categories)

	return r
}

// DatasetParser reads datasets from JSON or YAML documents, or from go benchmark outputs.
type DatasetParser struct {
	options

	config   *config.Config
	datasets []model.Dataset
	l        *slog.Logger
}

// New [DatasetParser] ready to parse input files.
//
// A nil configuration leaves labels and colors of points as they are, or derives them from the category.
func New(cfg *config.Config, opts ...Option) *DatasetParser {
	if cfg == nil {
		cfg = &config.Config{}
	}

	return &DatasetParser{
		options: optionsWithDefaults(opts),
		config:  cfg,
		l:       slog.Default().With(slog.String("module", "parser")),
	}
}

// ParseFiles parses datasets from files. The file "-" stands for the standard input.
func (p *DatasetParser) ParseFiles(files ...string) error {
	for _, file := range files {
		var (
			reader io.ReadCloser
			err    error
		)

		if file == "-" {
			reader = os.Stdin
		} else {
			reader, err = os.Open(file)
			if err != nil {
				return fmt.Errorf("input file %q: %w", file, err)
			}
		}

		dataset, err := p.parse(reader, formatFromFile(file))
		if file != "-" {
			_ = reader.Close()
		}
		if err != nil {
			return fmt.Errorf("input file %q: %w", file, err)
		}

		dataset.File = file
		p.datasets = append(p.datasets, dataset)
	}

	p.l.Info("input parsed", slog.Int("parsed_files", len(files)), slog.Int("datasets", len(p.datasets)))

	return nil
}

// ParseInput parses a dataset from a reader.
//
// Unless a format is set with [WithFormat], the format is guessed from the content.
func (p *DatasetParser) ParseInput(r io.Reader) (model.Dataset, error) {
	return p.parse(r, FormatAuto)
}

// Datasets returns the datasets parsed so far.
func (p *DatasetParser) Datasets() []model.Dataset {
	return p.datasets
}

func (p *DatasetParser) parse(r io.Reader, guessed Format) (model.Dataset, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading input: %w", err)
	}

	format := p.format
	if format == FormatAuto {
		format = guessed
	}
	if format == FormatAuto {
		format = sniffFormat(content)
	}

	var dataset model.Dataset
	switch format {
	case FormatJSON:
		dataset, err = parseJSONDataset(content)
	case FormatYAML:
		dataset, err = parseYAMLDataset(content)
	case FormatBenchJSON:
		dataset, err = p.parseBenchJSON(content)
	default:
		dataset, err = p.parseBenchText(content)
	}
	if err != nil {
		return model.Dataset{}, err
	}

	if len(dataset.Points) == 0 {
		return model.Dataset{}, ErrNoData
	}

	p.enrich(&dataset)

	return dataset, nil
}

// enrich fills in missing labels and colors from the configuration.
func (p *DatasetParser) enrich(dataset *model.Dataset) {
	for i, point := range dataset.Points {
		if point.Category == "" {
			point.Category = benchNameToID(point.Label)
		}

		if point.Label == "" {
			point.Label = p.config.CategoryTitle(point.Category)
		}

		if point.Color == "" {
			point.Color = p.config.CategoryColor(point.Category, i)
		}

		dataset.Points[i] = point
	}

	if dataset.Title == "" {
		dataset.Title = p.config.Render.Title
	}
}

func parseJSONDataset(content []byte) (model.Dataset, error) {
	var dataset model.Dataset
	if err := json.Unmarshal(content, &dataset); err != nil {
		return model.Dataset{}, fmt.Errorf("parsing JSON dataset: %w", err)
	}

	return dataset, nil
}

func parseYAMLDataset(content []byte) (model.Dataset, error) {
	var dataset model.Dataset
	if err := yaml.Unmarshal(content, &dataset); err != nil {
		return model.Dataset{}, fmt.Errorf("parsing YAML dataset: %w", err)
	}

	return dataset, nil
}

func (p *DatasetParser) parseBenchText(content []byte) (model.Dataset, error) {
	// Extract environment info
	environment := extractEnvironment(string(content))

	// Parse benchmarks
	set, err := parse.ParseSet(bytes.NewReader(content))
	if err != nil {
		return model.Dataset{}, fmt.Errorf("parsing benchmark output: %w", err)
	}

	return p.benchmarkDataset(set, environment), nil
}

// parseBenchJSON parses JSON output from `go test -json -bench`.
// It extracts the Output fields from "output" events and feeds them
// to the standard benchmark parser.
func (p *DatasetParser) parseBenchJSON(content []byte) (model.Dataset, error) {
	// Read JSON events line by line and extract Output fields
	var textOutput strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(content))

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event testEvent
		if err := json.Unmarshal(line, &event); err != nil { //nolint:musttag // JSON produced uses titleized keys expected by std json/encoding
			// Skip lines that aren't valid JSON (shouldn't happen with -json flag)
			continue
		}

		// Only collect output from "output" action events
		if event.Action == "output" && event.Output != "" {
			textOutput.WriteString(event.Output)
		}
	}

	if err := scanner.Err(); err != nil {
		return model.Dataset{}, fmt.Errorf("scanning input: %w", err)
	}

	return p.parseBenchText([]byte(textOutput.String()))
}

// benchmarkDataset turns benchmark results into one point per benchmark.
//
// Repeated runs of the same benchmark (e.g. with -count or several -cpu values) are averaged.
func (p *DatasetParser) benchmarkDataset(set parse.Set, environment string) model.Dataset {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	dataset := model.Dataset{
		Title:       "Benchmarks (" + p.metric.Title() + ")",
		Environment: environment,
		Unit:        p.metric.Unit(),
	}

	type accumulator struct {
		sum   float64
		count int
	}
	index := make(map[string]int, len(names))
	totals := make([]accumulator, 0, len(names))

	for _, name := range names {
		for _, bench := range set[name] {
			value, ok := p.metric.Value(bench)
			if !ok {
				continue
			}

			id := benchNameToID(name)
			idx, seen := index[id]
			if !seen {
				idx = len(dataset.Points)
				index[id] = idx
				totals = append(totals, accumulator{})
				dataset.Points = append(dataset.Points, model.Point{
					Category: id,
					Label:    benchNameToLabel(name),
				})
			}

			totals[idx].sum += value
			totals[idx].count++
		}
	}

	for i, total := range totals {
		dataset.Points[i].Value = total.sum / float64(total.count)
	}

	p.l.Debug("benchmarks parsed", slog.Int("benchmarks", len(names)), slog.Int("points", len(dataset.Points)))

	return dataset
}

// sniffFormat guesses the format of an input from its content.
func sniffFormat(content []byte) Format {
	trimmed := bytes.TrimSpace(content)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		if looksLikeBenchmarks(trimmed) {
			return FormatBenchText
		}

		return FormatYAML
	}

	// go test -json emits one event per line
	firstLine, _, _ := bytes.Cut(trimmed, []byte("\n"))
	var event testEvent
	if err := json.Unmarshal(firstLine, &event); err == nil && event.Action != "" { //nolint:musttag // JSON produced uses titleized keys expected by std json/encoding
		return FormatBenchJSON
	}

	return FormatJSON
}

func looksLikeBenchmarks(content []byte) bool {
	for line := range bytes.SplitSeq(content, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("Benchmark")) {
			return true
		}
	}

	return false
}

func formatFromFile(file string) Format {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// extractEnvironment extracts environment information from benchmark output.
// It looks for goos, goarch, and cpu lines and combines them.
func extractEnvironment(text string) string {
	var parts []string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "goos: "):
			parts = append(parts, strings.TrimPrefix(line, "goos: "))
		case strings.HasPrefix(line, "goarch: "):
			parts = append(parts, strings.TrimPrefix(line, "goarch: "))
		case strings.HasPrefix(line, "cpu: "):
			cpu := strings.TrimPrefix(line, "cpu: ")
			cpu = strings.TrimSpace(cpu)
			parts = append(parts, "cpu: "+cpu)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, " ")
}

// benchNameToID converts a benchmark function name to a kebab-case ID.
//
// It strips the "Benchmark" prefix and the GOMAXPROCS suffix (e.g. "-16").
func benchNameToID(name string) string {
	id := stripProcs(strings.TrimPrefix(strings.TrimPrefix(name, "Benchmark"), "_"))

	// convert slashes, spaces and underscores to hyphens, lowercase
	id = strings.Map(func(r rune) rune {
		switch r {
		case '/', '_', ' ':
			return '-'
		default:
			return r
		}
	}, id)

	return strings.ToLower(id)
}

// benchNameToLabel converts a benchmark function name to a display label, e.g. "Fit/shrink".
func benchNameToLabel(name string) string {
	return stripProcs(strings.TrimPrefix(strings.TrimPrefix(name, "Benchmark"), "_"))
}

// stripProcs strips the GOMAXPROCS suffix like "-16".
func stripProcs(name string) string {
	idx := strings.LastIndex(name, "-")
	if idx <= 0 {
		return name
	}

	suffix := name[idx+1:]
	if suffix == "" || slices.ContainsFunc([]rune(suffix), func(r rune) bool { return r < '0' || r > '9' }) {
		return name
	}

	return name[:idx]
}

// testEvent represents a single JSON event from `go test -json` output.
// See: https://pkg.go.dev/cmd/test2json
type testEvent struct {
	Time    string
	Action  string
	Package string
	Test    string
	Output  string
	Elapsed float64
}
