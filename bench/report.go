package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// TailFile is the JSON artifact the perf tooling consumes: one stats entry
// per benchmark configuration, keyed by configuration name.
type TailFile struct {
	GeneratedAtUTC   string           `json:"generated_at_utc"`
	SourceCommand    string           `json:"source_command"`
	PercentileMethod string           `json:"percentile_method"`
	SamplesPerBench  int              `json:"samples_per_benchmark"`
	Benchmarks       map[string]Stats `json:"benchmarks"`
}

// WriteTail writes results as a perf tail JSON file. Failed configurations
// are omitted; the caller reports them separately.
func WriteTail(path string, sourceCommand string, samplesPerBench int, results []Result) error {
	var file TailFile
	file.GeneratedAtUTC = time.Now().UTC().Format(time.RFC3339)
	file.SourceCommand = sourceCommand
	file.PercentileMethod = "nearest-rank"
	file.SamplesPerBench = samplesPerBench
	file.Benchmarks = map[string]Stats{}
	for _, result := range results {
		if result.Failed {
			continue
		}
		file.Benchmarks["Benchmark"+result.Name] = result.Stats
	}

	bytes, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')
	return os.WriteFile(path, bytes, 0o644)
}

// WriteTable prints one Go-benchmark-compatible line per configuration, so
// the output can be parsed by the same tooling that parses go test -bench
// output. Failed configurations print a FAIL line instead.
func WriteTable(w io.Writer, results []Result) {
	for _, result := range results {
		if result.Failed {
			fmt.Fprintf(w, "FAIL: Benchmark%s: %s\n", result.Name, result.FailReason)
			continue
		}
		fmt.Fprintf(w, "Benchmark%s %d %.2f ns/op %.2f Melem/s %.3f GB/s\n",
			result.Name,
			result.Stats.N,
			result.Stats.MeanNSOp,
			result.ElemsPerSec/1e6,
			result.GBPerSec,
		)
	}
}
