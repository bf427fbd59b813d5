package segreduce

import "testing"

func benchmarkReduceByKey[K KeyType, V ValueType](b *testing.B, policy Policy, elements int, maxSegmentSize int) {
	config, err := NewGeneratorConfig(1, maxSegmentSize, 42)
	if err != nil {
		b.Fatalf("generator config failed: %v", err)
	}
	keys := GenerateSegmentKeys[K](elements, config)
	values := make([]V, elements)
	FillValues(values, 1)

	runs := CountRuns(keys)
	outKeys := make([]K, runs)
	outValues := make([]V, runs)

	b.ReportAllocs()
	b.ResetTimer()

	for index := 0; index < b.N; index++ {
		if _, err := ReduceByKeyWithPolicy(policy, keys, values, outKeys, outValues); err != nil {
			b.Fatalf("reduce failed: %v", err)
		}
	}
}

func BenchmarkReduceByKeyI32F32(b *testing.B) {
	benchmarkReduceByKey[int32, float32](b, PolicySeq, 1<<20, 8)
}

func BenchmarkReduceByKeyI64F64(b *testing.B) {
	benchmarkReduceByKey[int64, float64](b, PolicySeq, 1<<20, 8)
}

func BenchmarkReduceByKeyI8I32(b *testing.B) {
	benchmarkReduceByKey[int8, int32](b, PolicySeq, 1<<20, 4)
}

func BenchmarkReduceByKeyI16I64(b *testing.B) {
	benchmarkReduceByKey[int16, int64](b, PolicySeq, 1<<20, 1)
}

func BenchmarkReduceByKeyParI32F32(b *testing.B) {
	benchmarkReduceByKey[int32, float32](b, PolicyPar, 1<<20, 8)
}

func BenchmarkSegmentKeyGeneration(b *testing.B) {
	config, err := NewGeneratorConfig(1, 8, 42)
	if err != nil {
		b.Fatalf("generator config failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for index := 0; index < b.N; index++ {
		keys := GenerateSegmentKeys[int32](1<<18, config)
		if len(keys) != 1<<18 {
			b.Fatalf("expected %d keys, got %d", 1<<18, len(keys))
		}
	}
}

func BenchmarkCountRuns(b *testing.B) {
	config, err := NewGeneratorConfig(1, 8, 42)
	if err != nil {
		b.Fatalf("generator config failed: %v", err)
	}
	keys := GenerateSegmentKeys[int32](1<<20, config)

	b.ReportAllocs()
	b.ResetTimer()

	for index := 0; index < b.N; index++ {
		if runs := CountRuns(keys); runs == 0 {
			b.Fatalf("expected runs, got 0")
		}
	}
}
