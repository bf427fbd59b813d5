package main

import (
	"strings"
	"testing"

	"github.com/YinLiu-91/segreduce-go/bench"
)

func TestNormalizeBenchmarkName(t *testing.T) {
	var cases = map[string]string{
		"BenchmarkReduceByKeyI32F32-16": "BenchmarkReduceByKeyI32F32",
		"BenchmarkReduceByKeyI32F32":    "BenchmarkReduceByKeyI32F32",
		"GpuReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8": "GpuReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8",
		"Benchmark-": "Benchmark-",
	}
	for input, expected := range cases {
		if got := normalizeBenchmarkName(input); got != expected {
			t.Fatalf("normalize %s: expected %s, got %s", input, expected, got)
		}
	}
}

func TestParseCPUBenchSamples(t *testing.T) {
	var output = strings.Join([]string{
		"goos: linux",
		"BenchmarkReduceByKeyI32F32-16  1000  1250.0 ns/op  0 B/op  0 allocs/op",
		"BenchmarkReduceByKeyI32F32-16  1000  1350.0 ns/op  0 B/op  0 allocs/op",
		"BenchmarkReduceByKeyI64F64-16  800  2100.0 ns/op  0 B/op  0 allocs/op",
		"PASS",
	}, "\n")

	var samples, err = parseCPUBenchSamples(output)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(samples["BenchmarkReduceByKeyI32F32"]) != 2 {
		t.Fatalf("expected 2 samples, got %v", samples)
	}
	if samples["BenchmarkReduceByKeyI32F32"][0] != 1250.0 {
		t.Fatalf("unexpected first sample %v", samples["BenchmarkReduceByKeyI32F32"][0])
	}
	if len(samples["BenchmarkReduceByKeyI64F64"]) != 1 {
		t.Fatalf("expected 1 sample for I64F64, got %v", samples)
	}
}

func TestParseCPUBenchSamplesDriverOutput(t *testing.T) {
	var output = strings.Join([]string{
		"BenchmarkReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8 20 105.00 ns/op 6.20 Melem/s 6.200 GB/s",
		"FAIL: BenchmarkReduceByKey/KeyType=I8/ValueType=I32/Elements=16/MaxSegSize=1: boom",
	}, "\n")

	var samples, err = parseCPUBenchSamples(output)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 benchmark, got %v", samples)
	}
	var values = samples["BenchmarkReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8"]
	if len(values) != 1 || values[0] != 105.0 {
		t.Fatalf("unexpected samples %v", samples)
	}
}

func TestParseGPUBenchSample(t *testing.T) {
	var output = strings.Join([]string{
		"GpuReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8 1000 812.50 ns/op",
		"GpuReduceByKey/KeyType=I64/ValueType=F64/Elements=65536/MaxSegSize=8 1000 905 ns/op",
		"some unrelated line",
	}, "\n")

	var parsed = parseGPUBenchSample(output)
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %v", parsed)
	}
	if parsed["GpuReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8"] != 812.5 {
		t.Fatalf("unexpected parsed values %v", parsed)
	}
}

func TestValidateManifest(t *testing.T) {
	var manifest = sweepManifest{
		Version: 1,
		Benchmarks: []sweepBenchmark{{
			BenchmarkID:  "reduce_by_key.i32.f32.pow16.seg8",
			CPUBenchmark: "BenchmarkReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8",
			GPUBenchmark: "GpuReduceByKey/KeyType=I32/ValueType=F32/Elements=65536/MaxSegSize=8",
			Elements:     65536,
			MaxSegSize:   8,
			KeyType:      "I32",
			ValueType:    "F32",
			Enabled:      true,
		}},
	}
	if err := validateManifest(manifest); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}

	var missingGPU = manifest
	missingGPU.Benchmarks = []sweepBenchmark{manifest.Benchmarks[0]}
	missingGPU.Benchmarks[0].GPUBenchmark = ""
	if err := validateManifest(missingGPU); err == nil || !strings.Contains(err.Error(), "missing gpu_benchmark") {
		t.Fatalf("expected missing gpu_benchmark error, got %v", err)
	}

	var badType = manifest
	badType.Benchmarks = []sweepBenchmark{manifest.Benchmarks[0]}
	badType.Benchmarks[0].KeyType = "U32"
	if err := validateManifest(badType); err == nil || !strings.Contains(err.Error(), "unknown key_type") {
		t.Fatalf("expected unknown key_type error, got %v", err)
	}

	var duplicate = manifest
	duplicate.Benchmarks = []sweepBenchmark{manifest.Benchmarks[0], manifest.Benchmarks[0]}
	if err := validateManifest(duplicate); err == nil || !strings.Contains(err.Error(), "duplicate benchmark_id") {
		t.Fatalf("expected duplicate benchmark_id error, got %v", err)
	}
}

func TestLookupStatsNormalizesNames(t *testing.T) {
	var file = bench.TailFile{
		Benchmarks: map[string]bench.Stats{
			"BenchmarkReduceByKeyI32F32-16": {P95NSOp: 120},
		},
	}
	var stats, ok = lookupStats(file, "BenchmarkReduceByKeyI32F32")
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if stats.P95NSOp != 120 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if _, ok := lookupStats(file, "BenchmarkMissing"); ok {
		t.Fatalf("expected lookup miss")
	}
}

func TestWinnerP95(t *testing.T) {
	var cpu = bench.Stats{P95NSOp: 100, P99NSOp: 110}
	var gpu = bench.Stats{P95NSOp: 80, P99NSOp: 90}
	if winner := winnerP95(cpu, true, gpu, true); winner != "gpu" {
		t.Fatalf("expected gpu winner, got %s", winner)
	}
	if winner := winnerP95(gpu, true, cpu, true); winner != "cpu" {
		t.Fatalf("expected cpu winner, got %s", winner)
	}
	if winner := winnerP95(cpu, true, cpu, true); winner != "tie" {
		t.Fatalf("expected tie, got %s", winner)
	}
	if winner := winnerP95(cpu, true, gpu, false); winner != "n/a" {
		t.Fatalf("expected n/a, got %s", winner)
	}
}

func TestDelta(t *testing.T) {
	var absolute, percentage = delta(150, 100)
	if absolute != 50 || percentage != 50 {
		t.Fatalf("expected 50/50%%, got %v/%v", absolute, percentage)
	}
	absolute, percentage = delta(150, 0)
	if absolute != 150 || percentage != 0 {
		t.Fatalf("expected 150/0%%, got %v/%v", absolute, percentage)
	}
}

func TestSummarizeSamplesNearestRank(t *testing.T) {
	var samples = make([]float64, 100)
	for index := range samples {
		samples[index] = float64(index + 1)
	}
	var stats = summarizeSamples(samples)
	if stats.P50NSOp != 50 {
		t.Fatalf("expected p50 of 50, got %v", stats.P50NSOp)
	}
	if stats.P95NSOp != 95 {
		t.Fatalf("expected p95 of 95, got %v", stats.P95NSOp)
	}
	if stats.P99NSOp != 99 {
		t.Fatalf("expected p99 of 99, got %v", stats.P99NSOp)
	}
	if stats.MinNSOp != 1 || stats.MaxNSOp != 100 {
		t.Fatalf("unexpected min/max %v/%v", stats.MinNSOp, stats.MaxNSOp)
	}
}
