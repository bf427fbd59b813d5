package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/tools/benchmark/parse"

	"github.com/YinLiu-91/segreduce-go/bench"
)

const (
	defaultCaptureTimeout   = 5 * time.Minute
	defaultProgressInterval = 20 * time.Second
)

type comparisonEntry struct {
	P95Before   float64 `json:"p95_before"`
	P95After    float64 `json:"p95_after"`
	P95Delta    float64 `json:"p95_delta"`
	P95DeltaPct float64 `json:"p95_delta_pct"`
	P99Before   float64 `json:"p99_before"`
	P99After    float64 `json:"p99_after"`
	P99Delta    float64 `json:"p99_delta"`
	P99DeltaPct float64 `json:"p99_delta_pct"`
}

type comparisonFile struct {
	BaselineGeneratedAtUTC string                     `json:"baseline_generated_at_utc"`
	CurrentGeneratedAtUTC  string                     `json:"current_generated_at_utc"`
	Metric                 string                     `json:"metric"`
	PercentileMethod       string                     `json:"percentile_method"`
	Benchmarks             map[string]comparisonEntry `json:"benchmarks"`
}

type sweepBenchmark struct {
	BenchmarkID  string `json:"benchmark_id"`
	CPUBenchmark string `json:"cpu_benchmark"`
	GPUBenchmark string `json:"gpu_benchmark"`
	Elements     int64  `json:"elements"`
	MaxSegSize   int64  `json:"max_seg_size"`
	KeyType      string `json:"key_type"`
	ValueType    string `json:"value_type"`
	Enabled      bool   `json:"enabled"`
	Notes        string `json:"notes"`
}

type sweepManifest struct {
	Version          int              `json:"version"`
	Description      string           `json:"description"`
	PercentileMethod string           `json:"percentile_method"`
	Benchmarks       []sweepBenchmark `json:"benchmarks"`
}

type mergedMetrics struct {
	P50 float64 `json:"p50_ns_op,omitempty"`
	P95 float64 `json:"p95_ns_op,omitempty"`
	P99 float64 `json:"p99_ns_op,omitempty"`
}

type mergedDelta struct {
	P50NS  float64 `json:"p50_ns"`
	P50Pct float64 `json:"p50_pct"`
	P95NS  float64 `json:"p95_ns"`
	P95Pct float64 `json:"p95_pct"`
	P99NS  float64 `json:"p99_ns"`
	P99Pct float64 `json:"p99_pct"`
}

type mergedRow struct {
	BenchmarkID  string        `json:"benchmark_id"`
	Elements     int64         `json:"elements"`
	MaxSegSize   int64         `json:"max_seg_size"`
	KeyType      string        `json:"key_type"`
	ValueType    string        `json:"value_type"`
	CPUBenchmark string        `json:"cpu_benchmark"`
	GPUBenchmark string        `json:"gpu_benchmark"`
	Enabled      bool          `json:"enabled"`
	Notes        string        `json:"notes"`
	CPU          mergedMetrics `json:"cpu,omitempty"`
	GPU          mergedMetrics `json:"gpu,omitempty"`
	Delta        *mergedDelta  `json:"delta_cpu_vs_gpu,omitempty"`
	GPUSpeedupX  float64       `json:"gpu_speedup_x,omitempty"`
	WinnerP95    string        `json:"winner_p95"`
}

type mergedSummary struct {
	Rows        int `json:"rows"`
	Comparable  int `json:"comparable"`
	CPUWinsP95  int `json:"cpu_wins_p95"`
	GPUWinsP95  int `json:"gpu_wins_p95"`
	TiesP95     int `json:"ties_p95"`
	Unavailable int `json:"unavailable"`
}

type mergedFile struct {
	GeneratedAtUTC   string        `json:"generated_at_utc"`
	PercentileMethod string        `json:"percentile_method"`
	ManifestVersion  int           `json:"manifest_version"`
	Summary          mergedSummary `json:"summary"`
	Rows             []mergedRow   `json:"rows"`
}

var validTypeNames = map[string]bool{
	"I8": true, "I16": true, "I32": true, "I64": true, "F32": true, "F64": true,
}

func normalizeBenchmarkName(name string) string {
	var dash = strings.LastIndex(name, "-")
	if dash <= 0 {
		return name
	}
	var suffix = name[dash+1:]
	if suffix == "" {
		return name
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return name
		}
	}
	return name[:dash]
}

func summarizeSamples(samples []float64) bench.Stats {
	return bench.Summarize(samples)
}

func runCommand(command []string, timeout time.Duration, progressInterval time.Duration, progressLabel string) (string, error) {
	if len(command) == 0 {
		return "", errors.New("empty command")
	}

	if timeout <= 0 {
		timeout = defaultCaptureTimeout
	}
	if progressInterval <= 0 {
		progressInterval = defaultProgressInterval
	}

	var label = strings.TrimSpace(progressLabel)
	if label == "" {
		label = strings.Join(command, " ")
	}

	var ctx, cancel = context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var cmd = exec.CommandContext(ctx, command[0], command[1:]...) // #nosec G204 -- structured arguments only
	var done = make(chan struct{}, 1)
	var outputBytes []byte
	var runErr error
	go func() {
		outputBytes, runErr = cmd.CombinedOutput()
		done <- struct{}{}
	}()

	var startedAt = time.Now()
	var ticker = time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			var output = string(outputBytes)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return output, fmt.Errorf("command timed out after %s: %s\n%s", timeout, label, output)
			}
			if runErr != nil {
				return output, fmt.Errorf("command failed: %w\n%s", runErr, output)
			}
			return output, nil
		case <-ticker.C:
			var elapsed = time.Since(startedAt).Round(time.Second)
			var remaining = time.Until(startedAt.Add(timeout)).Round(time.Second)
			if remaining < 0 {
				remaining = 0
			}
			fmt.Fprintf(os.Stderr, "[perfreport] running: %s (elapsed=%s remaining=%s)\n", label, elapsed, remaining)
		}
	}
}

func parseCPUBenchSamples(output string) (map[string][]float64, error) {
	var set, err = parse.ParseSet(strings.NewReader(output))
	if err != nil {
		return nil, err
	}
	var result = map[string][]float64{}
	for name, benchmarks := range set {
		for _, benchmark := range benchmarks {
			if benchmark.Measured&parse.NsPerOp == 0 {
				continue
			}
			var value = benchmark.NsPerOp
			if math.IsNaN(value) || math.IsInf(value, 0) {
				continue
			}
			var normalized = normalizeBenchmarkName(name)
			result[normalized] = append(result[normalized], value)
		}
	}
	return result, nil
}

func parseGPUBenchSample(output string) map[string]float64 {
	var result = map[string]float64{}
	var matcher = regexp.MustCompile(`(?m)^(Gpu\S+)\s+\d+\s+([0-9]+(?:\.[0-9]+)?)\s+ns/op\r?$`)
	var matches = matcher.FindAllStringSubmatch(output, -1)
	for _, match := range matches {
		if len(match) != 3 {
			continue
		}
		var value, err = strconv.ParseFloat(match[2], 64)
		if err != nil {
			continue
		}
		result[normalizeBenchmarkName(match[1])] = value
	}
	return result
}

func writeJSON(path string, value any) error {
	var bytes, err = json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')
	return os.WriteFile(path, bytes, 0o644)
}

func readTail(path string) (bench.TailFile, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return bench.TailFile{}, err
	}
	var file bench.TailFile
	err = json.Unmarshal(data, &file)
	if err != nil {
		return bench.TailFile{}, err
	}
	return file, nil
}

func readManifest(path string) (sweepManifest, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return sweepManifest{}, err
	}
	var manifest sweepManifest
	err = json.Unmarshal(data, &manifest)
	if err != nil {
		return sweepManifest{}, err
	}
	return manifest, nil
}

func validateManifest(manifest sweepManifest) error {
	var seen = map[string]bool{}
	for _, benchmark := range manifest.Benchmarks {
		if strings.TrimSpace(benchmark.BenchmarkID) == "" {
			return errors.New("manifest entry is missing benchmark_id")
		}
		if seen[benchmark.BenchmarkID] {
			return fmt.Errorf("duplicate benchmark_id %s", benchmark.BenchmarkID)
		}
		seen[benchmark.BenchmarkID] = true

		if !benchmark.Enabled {
			continue
		}
		if strings.TrimSpace(benchmark.CPUBenchmark) == "" {
			return fmt.Errorf("benchmark %s is missing cpu_benchmark", benchmark.BenchmarkID)
		}
		if strings.TrimSpace(benchmark.GPUBenchmark) == "" {
			return fmt.Errorf("benchmark %s is missing gpu_benchmark", benchmark.BenchmarkID)
		}
		if benchmark.Elements <= 0 {
			return fmt.Errorf("benchmark %s has non-positive elements", benchmark.BenchmarkID)
		}
		if benchmark.MaxSegSize <= 0 {
			return fmt.Errorf("benchmark %s has non-positive max_seg_size", benchmark.BenchmarkID)
		}
		if !validTypeNames[benchmark.KeyType] {
			return fmt.Errorf("benchmark %s has unknown key_type %q", benchmark.BenchmarkID, benchmark.KeyType)
		}
		if !validTypeNames[benchmark.ValueType] {
			return fmt.Errorf("benchmark %s has unknown value_type %q", benchmark.BenchmarkID, benchmark.ValueType)
		}
	}
	return nil
}

func lookupStats(file bench.TailFile, name string) (bench.Stats, bool) {
	if name == "" {
		return bench.Stats{}, false
	}
	if stats, ok := file.Benchmarks[name]; ok {
		return stats, true
	}
	var normalized = normalizeBenchmarkName(name)
	if stats, ok := file.Benchmarks[normalized]; ok {
		return stats, true
	}
	for key, stats := range file.Benchmarks {
		if normalizeBenchmarkName(key) == normalized {
			return stats, true
		}
	}
	return bench.Stats{}, false
}

func formatMetric(stats bench.Stats, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f / %.2f / %.2f", stats.P50NSOp, stats.P95NSOp, stats.P99NSOp)
}

func winnerP95(cpuStats bench.Stats, hasCPU bool, gpuStats bench.Stats, hasGPU bool) string {
	if !hasCPU || !hasGPU {
		return "n/a"
	}
	if cpuStats.P95NSOp < gpuStats.P95NSOp {
		return "cpu"
	}
	if gpuStats.P95NSOp < cpuStats.P95NSOp {
		return "gpu"
	}
	if cpuStats.P99NSOp < gpuStats.P99NSOp {
		return "cpu"
	}
	if gpuStats.P99NSOp < cpuStats.P99NSOp {
		return "gpu"
	}
	return "tie"
}

func delta(cpuValue float64, gpuValue float64) (float64, float64) {
	var absolute = cpuValue - gpuValue
	if gpuValue == 0 {
		return absolute, 0
	}
	var percentage = (absolute / gpuValue) * 100.0
	return absolute, percentage
}

func commandCaptureCPU(arguments []string) error {
	var flagSet = flag.NewFlagSet("capture-cpu", flag.ContinueOnError)
	var packagePath = flagSet.String("package", "./segreduce", "package path to benchmark")
	var benchPattern = flagSet.String("bench", ".", "go benchmark regex")
	var benchtime = flagSet.String("benchtime", "1s", "go benchmark benchtime")
	var executable = flagSet.String("exe", "", "optional prebuilt reducebench binary captured instead of go test")
	var executableArgs = flagSet.String("exe-args", "", "space-separated extra arguments for -exe")
	var samples = flagSet.Int("samples", 20, "number of benchmark samples")
	var timeout = flagSet.Duration("timeout", defaultCaptureTimeout, "maximum capture runtime")
	var progressInterval = flagSet.Duration("progress-interval", defaultProgressInterval, "progress log interval")
	var outPath = flagSet.String("out", "tools/perf_tail_cpu_current.json", "output JSON path")
	if err := flagSet.Parse(arguments); err != nil {
		return err
	}
	if *timeout <= 0 {
		*timeout = defaultCaptureTimeout
	}
	if *progressInterval <= 0 {
		*progressInterval = defaultProgressInterval
	}

	var startedAt = time.Now()
	var deadline = startedAt.Add(*timeout)

	var parsed = map[string][]float64{}
	var sourceCommand string

	if strings.TrimSpace(*executable) != "" {
		var command = []string{*executable}
		if strings.TrimSpace(*executableArgs) != "" {
			command = append(command, strings.Fields(*executableArgs)...)
		}
		sourceCommand = strings.Join(command, " ")
		for index := 0; index < *samples; index++ {
			var remaining = time.Until(deadline)
			if remaining <= 0 {
				return fmt.Errorf("capture-cpu timed out after %s", *timeout)
			}
			var label = fmt.Sprintf("capture-cpu sample %d/%d %s", index+1, *samples, *executable)
			var output, err = runCommand(command, remaining, *progressInterval, label)
			if err != nil {
				return err
			}
			var sampleValues, parseErr = parseCPUBenchSamples(output)
			if parseErr != nil {
				return parseErr
			}
			for name, values := range sampleValues {
				parsed[name] = append(parsed[name], values...)
			}
		}
	} else {
		var remaining = time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("capture-cpu timed out before execution (%s)", *timeout)
		}
		var command = []string{"go", "test", *packagePath, "-run", "^$", "-bench", *benchPattern, "-benchmem", "-benchtime=" + *benchtime, "-count=" + strconv.Itoa(*samples)}
		sourceCommand = strings.Join(command, " ")
		var output, err = runCommand(command, remaining, *progressInterval, "capture-cpu go benchmarks")
		if err != nil {
			return err
		}
		parsed, err = parseCPUBenchSamples(output)
		if err != nil {
			return err
		}
	}

	if len(parsed) == 0 {
		return errors.New("no cpu benchmark samples parsed")
	}

	var file bench.TailFile
	file.GeneratedAtUTC = time.Now().UTC().Format(time.RFC3339)
	file.SourceCommand = sourceCommand
	file.PercentileMethod = "nearest-rank"
	file.SamplesPerBench = *samples
	file.Benchmarks = map[string]bench.Stats{}
	for name, values := range parsed {
		file.Benchmarks[name] = summarizeSamples(values)
	}

	return writeJSON(*outPath, file)
}

func commandCaptureGPU(arguments []string) error {
	var flagSet = flag.NewFlagSet("capture-gpu", flag.ContinueOnError)
	var executable = flagSet.String("exe", "./gpu_reduce_by_key", "GPU benchmark executable path")
	var extraExecutables = flagSet.String("extra-exe", "", "comma-separated extra GPU benchmark executables")
	var samples = flagSet.Int("samples", 20, "number of benchmark samples")
	var timeout = flagSet.Duration("timeout", defaultCaptureTimeout, "maximum capture runtime")
	var progressInterval = flagSet.Duration("progress-interval", defaultProgressInterval, "progress log interval")
	var outPath = flagSet.String("out", "tools/perf_tail_gpu_current.json", "output JSON path")
	if err := flagSet.Parse(arguments); err != nil {
		return err
	}
	if *timeout <= 0 {
		*timeout = defaultCaptureTimeout
	}
	if *progressInterval <= 0 {
		*progressInterval = defaultProgressInterval
	}

	var executables = []string{*executable}
	if strings.TrimSpace(*extraExecutables) != "" {
		for _, rawExecutable := range strings.Split(*extraExecutables, ",") {
			var parsedExecutable = strings.TrimSpace(rawExecutable)
			if parsedExecutable == "" {
				continue
			}
			executables = append(executables, parsedExecutable)
		}
	}

	var startedAt = time.Now()
	var deadline = startedAt.Add(*timeout)
	var nextProgress = startedAt.Add(*progressInterval)

	var values = map[string][]float64{}
	for index := 0; index < *samples; index++ {
		if time.Now().After(deadline) {
			return fmt.Errorf("capture-gpu timed out after %s", *timeout)
		}
		if !time.Now().Before(nextProgress) {
			var elapsed = time.Since(startedAt).Round(time.Second)
			fmt.Fprintf(os.Stderr, "[perfreport] running: capture-gpu sample %d/%d (elapsed=%s)\n", index+1, *samples, elapsed)
			nextProgress = time.Now().Add(*progressInterval)
		}
		for _, currentExecutable := range executables {
			var remaining = time.Until(deadline)
			if remaining <= 0 {
				return fmt.Errorf("capture-gpu timed out after %s", *timeout)
			}
			var label = fmt.Sprintf("capture-gpu sample %d/%d %s", index+1, *samples, currentExecutable)
			var output, err = runCommand([]string{currentExecutable}, remaining, *progressInterval, label)
			if err != nil {
				return err
			}
			var parsed = parseGPUBenchSample(output)
			if len(parsed) == 0 {
				return fmt.Errorf("no gpu benchmark samples parsed from %s", currentExecutable)
			}
			for name, value := range parsed {
				values[name] = append(values[name], value)
			}
		}
	}

	var file bench.TailFile
	file.GeneratedAtUTC = time.Now().UTC().Format(time.RFC3339)
	file.SourceCommand = strings.Join(executables, " ; ")
	file.PercentileMethod = "nearest-rank"
	file.SamplesPerBench = *samples
	file.Benchmarks = map[string]bench.Stats{}
	for name, sampleValues := range values {
		file.Benchmarks[name] = summarizeSamples(sampleValues)
	}

	return writeJSON(*outPath, file)
}

func commandCompare(arguments []string) error {
	var flagSet = flag.NewFlagSet("compare", flag.ContinueOnError)
	var baselinePath = flagSet.String("baseline", "tools/perf_tail_baseline.json", "baseline tail file")
	var currentPath = flagSet.String("current", "tools/perf_tail_cpu_current.json", "current tail file")
	var outPath = flagSet.String("out", "tools/perf_tail_comparison.json", "output comparison JSON")
	if err := flagSet.Parse(arguments); err != nil {
		return err
	}

	var baseline, err = readTail(*baselinePath)
	if err != nil {
		return err
	}
	var current, err2 = readTail(*currentPath)
	if err2 != nil {
		return err2
	}

	var file comparisonFile
	file.BaselineGeneratedAtUTC = baseline.GeneratedAtUTC
	file.CurrentGeneratedAtUTC = current.GeneratedAtUTC
	file.Metric = "ns/op (lower is better)"
	file.PercentileMethod = "nearest-rank"
	file.Benchmarks = map[string]comparisonEntry{}

	for name, baseStats := range baseline.Benchmarks {
		var currentStats, ok = lookupStats(current, name)
		if !ok {
			continue
		}
		var p95Delta = currentStats.P95NSOp - baseStats.P95NSOp
		var p99Delta = currentStats.P99NSOp - baseStats.P99NSOp
		var p95Pct float64
		if baseStats.P95NSOp != 0 {
			p95Pct = (p95Delta / baseStats.P95NSOp) * 100.0
		}
		var p99Pct float64
		if baseStats.P99NSOp != 0 {
			p99Pct = (p99Delta / baseStats.P99NSOp) * 100.0
		}
		file.Benchmarks[name] = comparisonEntry{
			P95Before:   baseStats.P95NSOp,
			P95After:    currentStats.P95NSOp,
			P95Delta:    p95Delta,
			P95DeltaPct: p95Pct,
			P99Before:   baseStats.P99NSOp,
			P99After:    currentStats.P99NSOp,
			P99Delta:    p99Delta,
			P99DeltaPct: p99Pct,
		}
	}

	return writeJSON(*outPath, file)
}

func commandMerge(arguments []string) error {
	var flagSet = flag.NewFlagSet("merge", flag.ContinueOnError)
	var manifestPath = flagSet.String("manifest", "tools/sweep_manifest.json", "sweep benchmark manifest")
	var cpuPath = flagSet.String("cpu", "tools/perf_tail_cpu_current.json", "CPU tail metrics JSON")
	var gpuPath = flagSet.String("gpu", "tools/perf_tail_gpu_current.json", "GPU tail metrics JSON")
	var outJSON = flagSet.String("out-json", "tools/perf_side_by_side_current.json", "merged output JSON")
	var outMarkdown = flagSet.String("out-md", "tools/perf_side_by_side_report.md", "merged output markdown")
	if err := flagSet.Parse(arguments); err != nil {
		return err
	}

	var manifest, err = readManifest(*manifestPath)
	if err != nil {
		return err
	}
	if err = validateManifest(manifest); err != nil {
		return err
	}
	var cpuFile, err2 = readTail(*cpuPath)
	if err2 != nil {
		return err2
	}
	var gpuFile, err3 = readTail(*gpuPath)
	if err3 != nil {
		return err3
	}

	var output mergedFile
	output.GeneratedAtUTC = time.Now().UTC().Format(time.RFC3339)
	output.PercentileMethod = "nearest-rank"
	output.ManifestVersion = manifest.Version
	output.Rows = make([]mergedRow, 0, len(manifest.Benchmarks))

	var markdownLines []string
	markdownLines = append(markdownLines, "# Reduce-By-Key Performance Report (CPU vs GPU)")
	markdownLines = append(markdownLines, "")
	markdownLines = append(markdownLines, "Percentile method: `nearest-rank`")
	markdownLines = append(markdownLines, "")
	markdownLines = append(markdownLines, "| Benchmark ID | Key | Value | Elements | MaxSeg | CPU p50/p95/p99 (ns/op) | GPU p50/p95/p99 (ns/op) | Winner (p95) | GPU speedup (p50) | Enabled |")
	markdownLines = append(markdownLines, "|---|---|---|---:|---:|---|---|---|---:|---:|")

	for _, benchmark := range manifest.Benchmarks {
		var cpuStats, hasCPU = lookupStats(cpuFile, benchmark.CPUBenchmark)
		var gpuStats, hasGPU = lookupStats(gpuFile, benchmark.GPUBenchmark)

		var row mergedRow
		row.BenchmarkID = benchmark.BenchmarkID
		row.Elements = benchmark.Elements
		row.MaxSegSize = benchmark.MaxSegSize
		row.KeyType = benchmark.KeyType
		row.ValueType = benchmark.ValueType
		row.CPUBenchmark = benchmark.CPUBenchmark
		row.GPUBenchmark = benchmark.GPUBenchmark
		row.Enabled = benchmark.Enabled
		row.Notes = benchmark.Notes
		row.WinnerP95 = winnerP95(cpuStats, hasCPU, gpuStats, hasGPU)

		if hasCPU {
			row.CPU = mergedMetrics{P50: cpuStats.P50NSOp, P95: cpuStats.P95NSOp, P99: cpuStats.P99NSOp}
		}
		if hasGPU {
			row.GPU = mergedMetrics{P50: gpuStats.P50NSOp, P95: gpuStats.P95NSOp, P99: gpuStats.P99NSOp}
		}
		if hasCPU && hasGPU {
			var p50NS, p50Pct = delta(cpuStats.P50NSOp, gpuStats.P50NSOp)
			var p95NS, p95Pct = delta(cpuStats.P95NSOp, gpuStats.P95NSOp)
			var p99NS, p99Pct = delta(cpuStats.P99NSOp, gpuStats.P99NSOp)
			row.Delta = &mergedDelta{P50NS: p50NS, P50Pct: p50Pct, P95NS: p95NS, P95Pct: p95Pct, P99NS: p99NS, P99Pct: p99Pct}
			if gpuStats.P50NSOp > 0 {
				row.GPUSpeedupX = cpuStats.P50NSOp / gpuStats.P50NSOp
			}
		}

		output.Rows = append(output.Rows, row)

		var speedup = "N/A"
		if row.GPUSpeedupX > 0 {
			speedup = fmt.Sprintf("%.2fx", row.GPUSpeedupX)
		}
		var markdownLine = fmt.Sprintf("| %s | %s | %s | %d | %d | %s | %s | %s | %s | %t |",
			row.BenchmarkID,
			row.KeyType,
			row.ValueType,
			row.Elements,
			row.MaxSegSize,
			formatMetric(cpuStats, hasCPU),
			formatMetric(gpuStats, hasGPU),
			row.WinnerP95,
			speedup,
			row.Enabled,
		)
		markdownLines = append(markdownLines, markdownLine)

		output.Summary.Rows++
		if hasCPU && hasGPU {
			output.Summary.Comparable++
			switch row.WinnerP95 {
			case "cpu":
				output.Summary.CPUWinsP95++
			case "gpu":
				output.Summary.GPUWinsP95++
			default:
				output.Summary.TiesP95++
			}
		} else {
			output.Summary.Unavailable++
		}
	}

	markdownLines = append(markdownLines, "")
	markdownLines = append(markdownLines, fmt.Sprintf("Comparable rows: **%d**", output.Summary.Comparable))
	markdownLines = append(markdownLines, fmt.Sprintf("CPU wins (p95): **%d**", output.Summary.CPUWinsP95))
	markdownLines = append(markdownLines, fmt.Sprintf("GPU wins (p95): **%d**", output.Summary.GPUWinsP95))
	markdownLines = append(markdownLines, fmt.Sprintf("Ties (p95): **%d**", output.Summary.TiesP95))
	markdownLines = append(markdownLines, fmt.Sprintf("Rows without both sides yet: **%d**", output.Summary.Unavailable))

	if err := writeJSON(*outJSON, output); err != nil {
		return err
	}
	var markdown = strings.Join(markdownLines, "\n") + "\n"
	return os.WriteFile(*outMarkdown, []byte(markdown), 0o644)
}

func commandCompareMerged(arguments []string) error {
	var flagSet = flag.NewFlagSet("compare-merged", flag.ContinueOnError)
	var baselinePath = flagSet.String("baseline", "tools/perf_side_by_side_baseline.json", "baseline merged JSON")
	var currentPath = flagSet.String("current", "tools/perf_side_by_side_current.json", "current merged JSON")
	var outPath = flagSet.String("out", "tools/perf_side_by_side_comparison.json", "output comparison JSON")
	if err := flagSet.Parse(arguments); err != nil {
		return err
	}

	var baselineData, err = os.ReadFile(*baselinePath)
	if err != nil {
		return err
	}
	var currentData, err2 = os.ReadFile(*currentPath)
	if err2 != nil {
		return err2
	}
	var baseline mergedFile
	var current mergedFile
	if err = json.Unmarshal(baselineData, &baseline); err != nil {
		return err
	}
	if err = json.Unmarshal(currentData, &current); err != nil {
		return err
	}

	type mergedComparisonEntry struct {
		BenchmarkID  string  `json:"benchmark_id"`
		CPUP95Before float64 `json:"cpu_p95_before,omitempty"`
		CPUP95After  float64 `json:"cpu_p95_after,omitempty"`
		CPUP95Delta  float64 `json:"cpu_p95_delta,omitempty"`
		GPUP95Before float64 `json:"gpu_p95_before,omitempty"`
		GPUP95After  float64 `json:"gpu_p95_after,omitempty"`
		GPUP95Delta  float64 `json:"gpu_p95_delta,omitempty"`
		WinnerBefore string  `json:"winner_before"`
		WinnerAfter  string  `json:"winner_after"`
	}

	type mergedComparisonFile struct {
		BaselineGeneratedAtUTC string                  `json:"baseline_generated_at_utc"`
		CurrentGeneratedAtUTC  string                  `json:"current_generated_at_utc"`
		Entries                []mergedComparisonEntry `json:"entries"`
	}

	var baselineByID = map[string]mergedRow{}
	for _, row := range baseline.Rows {
		baselineByID[row.BenchmarkID] = row
	}

	var comparison mergedComparisonFile
	comparison.BaselineGeneratedAtUTC = baseline.GeneratedAtUTC
	comparison.CurrentGeneratedAtUTC = current.GeneratedAtUTC
	comparison.Entries = make([]mergedComparisonEntry, 0, len(current.Rows))

	for _, currentRow := range current.Rows {
		var entry mergedComparisonEntry
		entry.BenchmarkID = currentRow.BenchmarkID
		entry.WinnerAfter = currentRow.WinnerP95

		var baselineRow, ok = baselineByID[currentRow.BenchmarkID]
		if ok {
			entry.WinnerBefore = baselineRow.WinnerP95
			if baselineRow.CPU.P95 != 0 && currentRow.CPU.P95 != 0 {
				entry.CPUP95Before = baselineRow.CPU.P95
				entry.CPUP95After = currentRow.CPU.P95
				entry.CPUP95Delta = currentRow.CPU.P95 - baselineRow.CPU.P95
			}
			if baselineRow.GPU.P95 != 0 && currentRow.GPU.P95 != 0 {
				entry.GPUP95Before = baselineRow.GPU.P95
				entry.GPUP95After = currentRow.GPU.P95
				entry.GPUP95Delta = currentRow.GPU.P95 - baselineRow.GPU.P95
			}
		}

		comparison.Entries = append(comparison.Entries, entry)
	}

	return writeJSON(*outPath, comparison)
}

func usage() {
	fmt.Println("Usage: perfreport <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  capture-cpu     Capture CPU benchmark tails into JSON")
	fmt.Println("  capture-gpu     Capture GPU counterpart tails into JSON")
	fmt.Println("  compare         Compare baseline/current tail JSON")
	fmt.Println("  merge           Merge CPU/GPU tail JSON into side-by-side report")
	fmt.Println("  compare-merged  Compare baseline/current side-by-side JSON")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var command = os.Args[1]
	var args = os.Args[2:]
	var err error

	switch command {
	case "capture-cpu":
		err = commandCaptureCPU(args)
	case "capture-gpu":
		err = commandCaptureGPU(args)
	case "compare":
		err = commandCompare(args)
	case "merge":
		err = commandMerge(args)
	case "compare-merged":
		err = commandCompareMerged(args)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
