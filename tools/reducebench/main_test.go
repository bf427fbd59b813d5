package main

import (
	"strings"
	"testing"

	"github.com/YinLiu-91/segreduce-go/bench"
	"github.com/YinLiu-91/segreduce-go/segreduce"
)

func TestElementCounts(t *testing.T) {
	counts, err := elementCounts(16, 18)
	if err != nil {
		t.Fatalf("element counts failed: %v", err)
	}
	expected := []int64{1 << 16, 1 << 17, 1 << 18}
	if len(counts) != len(expected) {
		t.Fatalf("expected %d counts, got %d", len(expected), len(counts))
	}
	for index := range expected {
		if counts[index] != expected[index] {
			t.Fatalf("expected %v, got %v", expected, counts)
		}
	}

	if _, err := elementCounts(20, 16); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestParseInt64List(t *testing.T) {
	values, err := parseInt64List("1, 4,8")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(values) != 3 || values[0] != 1 || values[1] != 4 || values[2] != 8 {
		t.Fatalf("unexpected values %v", values)
	}

	if _, err := parseInt64List("1,x"); err == nil {
		t.Fatalf("expected error for non-integer item")
	}
}

func TestBuildKernelsCoversAllTypeCombinations(t *testing.T) {
	kernels := buildKernels(segreduce.PolicySeq, 42)
	keyTypes := []string{"I8", "I16", "I32", "I64"}
	valueTypes := []string{"I32", "I64", "F32", "F64"}

	for _, keyType := range keyTypes {
		byValue, ok := kernels[keyType]
		if !ok {
			t.Fatalf("missing key type %s", keyType)
		}
		for _, valueType := range valueTypes {
			if byValue[valueType] == nil {
				t.Fatalf("missing kernel for %s/%s", keyType, valueType)
			}
		}
	}
}

func TestTypedKernelMeasuresConfiguration(t *testing.T) {
	kernel := typedKernel[int32, float32](segreduce.PolicySeq, 42)
	benchmark := bench.New("ReduceByKey").
		AddInt64Axis("Elements", 1<<12).
		AddInt64Axis("MaxSegSize", 8).
		Kernel(kernel)

	runner := bench.NewRunner(bench.Options{WarmupIterations: 1, Samples: 2})
	runner.Register(benchmark)
	results := runner.Run()

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	result := results[0]
	if result.Failed {
		t.Fatalf("configuration failed: %s", result.FailReason)
	}
	if result.Elements != 1<<12 {
		t.Fatalf("expected %d elements, got %d", 1<<12, result.Elements)
	}
	// int32 keys + float32 values: 8 bytes per input element.
	if result.BytesRead != (1<<12)*8 {
		t.Fatalf("expected %d bytes read, got %d", (1<<12)*8, result.BytesRead)
	}
	if result.BytesWritten <= 0 || result.BytesWritten > result.BytesRead {
		t.Fatalf("unexpected bytes written %d", result.BytesWritten)
	}
	if !strings.HasPrefix(result.Name, "ReduceByKey/Elements=") {
		t.Fatalf("unexpected configuration name %s", result.Name)
	}
}
