// Package bench is a small axis-sweeping micro-benchmark harness. A
// Benchmark couples a named kernel with int64 and type axes; a Runner
// executes the kernel once per configuration in the cartesian product of
// those axes, each configuration on its own freshly constructed State, and
// summarizes the timed samples with nearest-rank percentiles and derived
// throughput.
package bench

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Options control sampling for every configuration of a run.
type Options struct {
	// WarmupIterations is the number of untimed kernel invocations before
	// sampling starts.
	WarmupIterations int
	// Samples is the number of timed invocations per configuration.
	Samples int
	// OnResult, when set, is called with each configuration's result as soon
	// as it completes.
	OnResult func(Result)
}

func (o Options) withDefaults() Options {
	if o.WarmupIterations <= 0 {
		o.WarmupIterations = 2
	}
	if o.Samples <= 0 {
		o.Samples = 20
	}
	return o
}

type int64Axis struct {
	name   string
	values []int64
}

type typeAxis struct {
	name     string
	variants []string
}

// Benchmark is a named kernel swept over the cartesian product of its axes.
// Axis order is registration order and determines configuration naming.
type Benchmark struct {
	name     string
	intAxes  []int64Axis
	typeAxes []typeAxis
	kernel   func(*State)
}

// New creates an empty benchmark with the given name.
func New(name string) *Benchmark {
	return &Benchmark{name: name}
}

// AddInt64Axis registers an integer sweep axis.
func (b *Benchmark) AddInt64Axis(name string, values ...int64) *Benchmark {
	b.intAxes = append(b.intAxes, int64Axis{name: name, values: values})
	return b
}

// AddTypeAxis registers a type-variant sweep axis.
func (b *Benchmark) AddTypeAxis(name string, variants ...string) *Benchmark {
	b.typeAxes = append(b.typeAxes, typeAxis{name: name, variants: variants})
	return b
}

// Kernel sets the function executed once per configuration.
func (b *Benchmark) Kernel(kernel func(*State)) *Benchmark {
	b.kernel = kernel
	return b
}

// State carries one axis configuration through a kernel invocation and
// collects its measurements. Kernels read axis values, declare the element
// count and memory traffic of one invocation, and wrap the measured region
// in Exec.
type State struct {
	int64Values map[string]int64
	typeValues  map[string]string

	warmup       int
	sampleTarget int
	samples      []float64

	elements     int64
	bytesRead    int64
	bytesWritten int64
}

// Int64 returns the configuration's value for the named integer axis.
// Unknown axis names abort the configuration.
func (s *State) Int64(name string) int64 {
	value, ok := s.int64Values[name]
	if !ok {
		panic(fmt.Sprintf("unknown int64 axis %q", name))
	}
	return value
}

// Type returns the configuration's variant for the named type axis.
// Unknown axis names abort the configuration.
func (s *State) Type(name string) string {
	value, ok := s.typeValues[name]
	if !ok {
		panic(fmt.Sprintf("unknown type axis %q", name))
	}
	return value
}

// AddElementCount records elements processed by one kernel invocation.
func (s *State) AddElementCount(count int64) {
	s.elements += count
}

// AddGlobalMemoryReads records bytes read by one kernel invocation.
func (s *State) AddGlobalMemoryReads(bytes int64) {
	s.bytesRead += bytes
}

// AddGlobalMemoryWrites records bytes written by one kernel invocation.
func (s *State) AddGlobalMemoryWrites(bytes int64) {
	s.bytesWritten += bytes
}

// Exec times fn. Warmup invocations are discarded; each sample is one timed
// invocation.
func (s *State) Exec(fn func()) {
	for index := 0; index < s.warmup; index++ {
		fn()
	}
	s.samples = make([]float64, 0, s.sampleTarget)
	for index := 0; index < s.sampleTarget; index++ {
		start := time.Now()
		fn()
		s.samples = append(s.samples, float64(time.Since(start).Nanoseconds()))
	}
}

// Result is the outcome of one axis configuration.
type Result struct {
	Benchmark    string            `json:"benchmark"`
	Name         string            `json:"name"`
	Axes         map[string]string `json:"axes"`
	Stats        Stats             `json:"stats"`
	Elements     int64             `json:"elements"`
	BytesRead    int64             `json:"bytes_read"`
	BytesWritten int64             `json:"bytes_written"`
	ElemsPerSec  float64           `json:"elements_per_second"`
	GBPerSec     float64           `json:"gigabytes_per_second"`
	Failed       bool              `json:"failed,omitempty"`
	FailReason   string            `json:"fail_reason,omitempty"`
}

// Runner executes registered benchmarks configuration by configuration.
type Runner struct {
	options    Options
	benchmarks []*Benchmark
}

// NewRunner creates a runner with the given options.
func NewRunner(options Options) *Runner {
	return &Runner{options: options.withDefaults()}
}

// Register adds a benchmark to the sweep.
func (r *Runner) Register(b *Benchmark) {
	r.benchmarks = append(r.benchmarks, b)
}

type configuration struct {
	name        string
	int64Values map[string]int64
	typeValues  map[string]string
	axes        map[string]string
}

func enumerate(b *Benchmark) []configuration {
	configurations := []configuration{{
		name:        b.name,
		int64Values: map[string]int64{},
		typeValues:  map[string]string{},
		axes:        map[string]string{},
	}}

	for _, axis := range b.typeAxes {
		expanded := make([]configuration, 0, len(configurations)*len(axis.variants))
		for _, base := range configurations {
			for _, variant := range axis.variants {
				next := cloneConfiguration(base)
				next.name = fmt.Sprintf("%s/%s=%s", base.name, axis.name, variant)
				next.typeValues[axis.name] = variant
				next.axes[axis.name] = variant
				expanded = append(expanded, next)
			}
		}
		configurations = expanded
	}

	for _, axis := range b.intAxes {
		expanded := make([]configuration, 0, len(configurations)*len(axis.values))
		for _, base := range configurations {
			for _, value := range axis.values {
				next := cloneConfiguration(base)
				next.name = fmt.Sprintf("%s/%s=%d", base.name, axis.name, value)
				next.int64Values[axis.name] = value
				next.axes[axis.name] = fmt.Sprintf("%d", value)
				expanded = append(expanded, next)
			}
		}
		configurations = expanded
	}

	return configurations
}

func cloneConfiguration(base configuration) configuration {
	next := configuration{
		name:        base.name,
		int64Values: make(map[string]int64, len(base.int64Values)+1),
		typeValues:  make(map[string]string, len(base.typeValues)+1),
		axes:        make(map[string]string, len(base.axes)+1),
	}
	for name, value := range base.int64Values {
		next.int64Values[name] = value
	}
	for name, value := range base.typeValues {
		next.typeValues[name] = value
	}
	for name, value := range base.axes {
		next.axes[name] = value
	}
	return next
}

// Run executes every configuration of every registered benchmark and returns
// the results in sweep order. A configuration that aborts (unknown axis,
// kernel contract violation) is reported as failed and does not stop the
// sweep.
func (r *Runner) Run() []Result {
	var results []Result
	for _, benchmark := range r.benchmarks {
		for _, config := range enumerate(benchmark) {
			result := r.runConfiguration(benchmark, config)
			if r.options.OnResult != nil {
				r.options.OnResult(result)
			}
			results = append(results, result)
		}
	}
	return results
}

func (r *Runner) runConfiguration(b *Benchmark, config configuration) (result Result) {
	result.Benchmark = b.name
	result.Name = config.name
	result.Axes = config.axes

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Failed = true
			result.FailReason = fmt.Sprint(recovered)
		}
	}()

	if b.kernel == nil {
		panic(fmt.Sprintf("benchmark %s has no kernel", b.name))
	}

	state := &State{
		int64Values:  config.int64Values,
		typeValues:   config.typeValues,
		warmup:       r.options.WarmupIterations,
		sampleTarget: r.options.Samples,
	}
	b.kernel(state)

	result.Stats = summarize(state.samples)
	result.Elements = state.elements
	result.BytesRead = state.bytesRead
	result.BytesWritten = state.bytesWritten
	if result.Stats.MeanNSOp > 0 {
		seconds := result.Stats.MeanNSOp / 1e9
		result.ElemsPerSec = float64(state.elements) / seconds
		result.GBPerSec = float64(state.bytesRead+state.bytesWritten) / seconds / 1e9
	}
	return result
}

// ConfigurationCount reports how many configurations a benchmark expands to.
func ConfigurationCount(b *Benchmark) int {
	count := 1
	for _, axis := range b.typeAxes {
		count *= len(axis.variants)
	}
	for _, axis := range b.intAxes {
		count *= len(axis.values)
	}
	return count
}

// SortResults orders results by name for stable reporting.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return strings.Compare(results[i].Name, results[j].Name) < 0
	})
}
