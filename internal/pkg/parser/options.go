package parser //nolint:revive // it's okay for an internal package to use this name

import "golang.org/x/tools/benchmark/parse"

// Format of an input.
type Format string

// Supported input formats.
const (
	FormatAuto      Format = ""
	FormatJSON      Format = "json"
	FormatYAML      Format = "yaml"
	FormatBenchText Format = "bench"
	FormatBenchJSON Format = "bench-json"
)

// Metric selects the benchmark measurement used as the value of a point.
type Metric string

// Supported benchmark metrics.
const (
	MetricNsPerOp     Metric = "nsPerOp"
	MetricAllocsPerOp Metric = "allocsPerOp"
	MetricBytesPerOp  Metric = "bytesPerOp"
	MetricMBPerS      Metric = "MBytesPerS"
)

// IsValid reports whether the metric name is one of the known benchmark metrics.
func (m Metric) IsValid() bool {
	switch m {
	case MetricNsPerOp, MetricAllocsPerOp, MetricBytesPerOp, MetricMBPerS:
		return true
	default:
		return false
	}
}

// Title of the metric, for chart titles.
func (m Metric) Title() string {
	switch m {
	case MetricAllocsPerOp:
		return "allocations per op"
	case MetricBytesPerOp:
		return "bytes per op"
	case MetricMBPerS:
		return "throughput"
	default:
		return "timings"
	}
}

// Unit of the metric.
func (m Metric) Unit() string {
	switch m {
	case MetricAllocsPerOp:
		return "allocs/op"
	case MetricBytesPerOp:
		return "B/op"
	case MetricMBPerS:
		return "MB/s"
	default:
		return "ns/op"
	}
}

// Value of the metric for a benchmark result. Benchmarks which did not report the metric return false.
func (m Metric) Value(bench *parse.Benchmark) (float64, bool) {
	switch m {
	case MetricAllocsPerOp:
		return float64(bench.AllocsPerOp), bench.Measured&parse.AllocsPerOp != 0
	case MetricBytesPerOp:
		return float64(bench.AllocedBytesPerOp), bench.Measured&parse.AllocedBytesPerOp != 0
	case MetricMBPerS:
		return bench.MBPerS, bench.Measured&parse.MBPerS != 0
	default:
		return bench.NsPerOp, bench.Measured&parse.NsPerOp != 0
	}
}

// Option configures a [DatasetParser].
type Option func(*options)

type options struct {
	format Format
	metric Metric
}

// WithParseJSON enables `go test -json` input parsing instead of guessing the input format.
func WithParseJSON(enabled bool) Option {
	return func(o *options) {
		if enabled {
			o.format = FormatBenchJSON
		}
	}
}

// WithFormat forces the format of all inputs.
//
// Defaults to [FormatAuto]: YAML for .yaml and .yml files, otherwise guessed from the content.
func WithFormat(format Format) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithMetric selects the benchmark measurement charted for benchmark inputs.
//
// Defaults to [MetricNsPerOp]. Unknown metrics are ignored.
func WithMetric(metric Metric) Option {
	return func(o *options) {
		if metric.IsValid() {
			o.metric = metric
		}
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		metric: MetricNsPerOp,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
