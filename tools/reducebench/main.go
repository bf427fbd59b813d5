package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/YinLiu-91/segreduce-go/bench"
	"github.com/YinLiu-91/segreduce-go/segreduce"
)

var (
	flagMinElementsPow2 = flag.Int("min-elements-pow2", 16, "smallest element count as a power of two")
	flagMaxElementsPow2 = flag.Int("max-elements-pow2", 26, "largest element count as a power of two")
	flagMaxSegSizes     = flag.String("max-seg-sizes", "1,4,8", "comma-separated maximum segment sizes")
	flagKeyTypes        = flag.String("key-types", "I8,I16,I32,I64", "comma-separated key types")
	flagValueTypes      = flag.String("value-types", "I32,I64,F32,F64", "comma-separated value types")
	flagSeed            = flag.Int64("seed", 42, "segment-key generator seed")
	flagPolicy          = flag.String("policy", "seq", "execution policy: seq or par")
	flagWarmup          = flag.Int("warmup", 2, "warmup iterations per configuration")
	flagSamples         = flag.Int("samples", 20, "timed samples per configuration")
	flagOut             = flag.String("out", "", "optional tail JSON output path")
	flagLive            = flag.String("live", "", "optional websocket live-results listen address")
	flagQuiet           = flag.Bool("quiet", false, "suppress per-configuration progress on stderr")
)

func typedKernel[K segreduce.KeyType, V segreduce.ValueType](policy segreduce.Policy, seed int64) func(*bench.State) {
	return func(state *bench.State) {
		elements := int(state.Int64("Elements"))
		maxSegmentSize := int(state.Int64("MaxSegSize"))

		config, err := segreduce.NewGeneratorConfig(1, maxSegmentSize, seed)
		if err != nil {
			panic(err)
		}
		keys := segreduce.GenerateSegmentKeys[K](elements, config)
		values := make([]V, elements)
		segreduce.FillValues(values, 1)

		// Output keys start as a copy of the input; the measured reduction
		// overwrites the first CountRuns entries.
		outKeys := append([]K(nil), keys...)
		runs := segreduce.CountRuns(keys)
		outValues := make([]V, runs)

		var keyZero K
		var valueZero V
		keySize := int64(unsafe.Sizeof(keyZero))
		valueSize := int64(unsafe.Sizeof(valueZero))

		state.AddElementCount(int64(elements))
		state.AddGlobalMemoryReads(int64(elements) * (keySize + valueSize))
		state.AddGlobalMemoryWrites(int64(runs) * (keySize + valueSize))

		state.Exec(func() {
			if _, reduceErr := segreduce.ReduceByKeyWithPolicy(policy, keys, values, outKeys, outValues); reduceErr != nil {
				panic(reduceErr)
			}
		})
	}
}

func kernelsForKey[K segreduce.KeyType](policy segreduce.Policy, seed int64) map[string]func(*bench.State) {
	return map[string]func(*bench.State){
		"I32": typedKernel[K, int32](policy, seed),
		"I64": typedKernel[K, int64](policy, seed),
		"F32": typedKernel[K, float32](policy, seed),
		"F64": typedKernel[K, float64](policy, seed),
	}
}

func buildKernels(policy segreduce.Policy, seed int64) map[string]map[string]func(*bench.State) {
	return map[string]map[string]func(*bench.State){
		"I8":  kernelsForKey[int8](policy, seed),
		"I16": kernelsForKey[int16](policy, seed),
		"I32": kernelsForKey[int32](policy, seed),
		"I64": kernelsForKey[int64](policy, seed),
	}
}

func parseList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

func parseInt64List(raw string) ([]int64, error) {
	var values []int64
	for _, item := range parseList(raw) {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", item, err)
		}
		values = append(values, value)
	}
	return values, nil
}

func elementCounts(minPow2 int, maxPow2 int) ([]int64, error) {
	if minPow2 < 0 || maxPow2 > 62 || minPow2 > maxPow2 {
		return nil, fmt.Errorf("invalid element range 2^%d..2^%d", minPow2, maxPow2)
	}
	var counts []int64
	for pow := minPow2; pow <= maxPow2; pow++ {
		counts = append(counts, int64(1)<<pow)
	}
	return counts, nil
}

func run() error {
	policy, err := segreduce.ParsePolicy(*flagPolicy)
	if err != nil {
		return err
	}
	counts, err := elementCounts(*flagMinElementsPow2, *flagMaxElementsPow2)
	if err != nil {
		return err
	}
	segSizes, err := parseInt64List(*flagMaxSegSizes)
	if err != nil {
		return err
	}
	keyTypes := parseList(*flagKeyTypes)
	valueTypes := parseList(*flagValueTypes)
	if len(segSizes) == 0 || len(keyTypes) == 0 || len(valueTypes) == 0 {
		return fmt.Errorf("max-seg-sizes, key-types and value-types must be non-empty")
	}

	kernels := buildKernels(policy, *flagSeed)
	for _, keyType := range keyTypes {
		if _, ok := kernels[keyType]; !ok {
			return fmt.Errorf("unknown key type %q", keyType)
		}
		for _, valueType := range valueTypes {
			if _, ok := kernels[keyType][valueType]; !ok {
				return fmt.Errorf("unknown value type %q", valueType)
			}
		}
	}

	benchmark := bench.New("ReduceByKey").
		AddTypeAxis("KeyType", keyTypes...).
		AddTypeAxis("ValueType", valueTypes...).
		AddInt64Axis("Elements", counts...).
		AddInt64Axis("MaxSegSize", segSizes...).
		Kernel(func(state *bench.State) {
			kernels[state.Type("KeyType")][state.Type("ValueType")](state)
		})

	var live *bench.LiveServer
	if *flagLive != "" {
		live, err = bench.NewLiveServer(*flagLive)
		if err != nil {
			return fmt.Errorf("live server listen failed: %w", err)
		}
		live.Start()
		defer live.Close()
		fmt.Fprintf(os.Stderr, "[reducebench] live results at ws://%s/live\n", live.Addr())
	}

	total := bench.ConfigurationCount(benchmark)
	completed := 0
	runner := bench.NewRunner(bench.Options{
		WarmupIterations: *flagWarmup,
		Samples:          *flagSamples,
		OnResult: func(result bench.Result) {
			completed++
			if live != nil {
				live.Publish(result)
			}
			if !*flagQuiet {
				fmt.Fprintf(os.Stderr, "[reducebench] %d/%d %s\n", completed, total, result.Name)
			}
		},
	})
	runner.Register(benchmark)

	results := runner.Run()
	bench.WriteTable(os.Stdout, results)

	if *flagOut != "" {
		source := strings.Join(os.Args, " ")
		if writeErr := bench.WriteTail(*flagOut, source, *flagSamples, results); writeErr != nil {
			return fmt.Errorf("tail write failed: %w", writeErr)
		}
	}

	failed := 0
	for _, result := range results {
		if result.Failed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d configurations failed", failed, total)
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
