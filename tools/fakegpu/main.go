// Package main implements fakegpu — a stand-in for the GPU reduce-by-key
// benchmark executable. It sweeps the same configuration axes as reducebench
// and emits the counterpart's result line format
//
//	Gpu<configuration> <iterations> <ns> ns/op
//
// with deterministic pseudo-timings, so the perfreport capture and merge
// pipeline can be exercised end to end on machines without a GPU.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

var (
	flagMinElementsPow2 = flag.Int("min-elements-pow2", 16, "smallest element count as a power of two")
	flagMaxElementsPow2 = flag.Int("max-elements-pow2", 26, "largest element count as a power of two")
	flagMaxSegSizes     = flag.String("max-seg-sizes", "1,4,8", "comma-separated maximum segment sizes")
	flagKeyTypes        = flag.String("key-types", "I8,I16,I32,I64", "comma-separated key types")
	flagValueTypes      = flag.String("value-types", "I32,I64,F32,F64", "comma-separated value types")
	flagSeed            = flag.Int64("seed", 7, "pseudo-timing seed")
	flagJitterPct       = flag.Float64("jitter-pct", 5.0, "pseudo-jitter amplitude as a percentage")
	flagIterations      = flag.Int("iterations", 1000, "iteration count echoed in each result line")
)

var typeWidths = map[string]int64{
	"I8":  1,
	"I16": 2,
	"I32": 4,
	"I64": 8,
	"F32": 4,
	"F64": 8,
}

// pseudoNS models a bandwidth-bound kernel: a fixed launch overhead plus a
// per-byte cost that shrinks as segments grow (fewer output writes).
func pseudoNS(elements int64, maxSegSize int64, keyWidth int64, valueWidth int64, jitter float64) float64 {
	bytesMoved := float64(elements * (keyWidth + valueWidth))
	perByteNS := 0.0025 / float64(maxSegSize)
	base := 3500.0 + bytesMoved*(0.0008+perByteNS)
	return base * (1.0 + jitter)
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

func run() error {
	if *flagMinElementsPow2 < 0 || *flagMaxElementsPow2 > 62 || *flagMinElementsPow2 > *flagMaxElementsPow2 {
		return fmt.Errorf("invalid element range 2^%d..2^%d", *flagMinElementsPow2, *flagMaxElementsPow2)
	}

	var segSizes []int64
	for _, item := range parseList(*flagMaxSegSizes) {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil || value < 1 {
			return fmt.Errorf("invalid max segment size %q", item)
		}
		segSizes = append(segSizes, value)
	}

	keyTypes := parseList(*flagKeyTypes)
	valueTypes := parseList(*flagValueTypes)
	for _, name := range append(append([]string(nil), keyTypes...), valueTypes...) {
		if _, ok := typeWidths[name]; !ok {
			return fmt.Errorf("unknown type %q", name)
		}
	}

	rng := rand.New(rand.NewSource(*flagSeed))
	amplitude := *flagJitterPct / 100.0

	for _, keyType := range keyTypes {
		for _, valueType := range valueTypes {
			for pow := *flagMinElementsPow2; pow <= *flagMaxElementsPow2; pow++ {
				elements := int64(1) << pow
				for _, segSize := range segSizes {
					jitter := (rng.Float64()*2 - 1) * amplitude
					ns := pseudoNS(elements, segSize, typeWidths[keyType], typeWidths[valueType], jitter)
					fmt.Printf("GpuReduceByKey/KeyType=%s/ValueType=%s/Elements=%d/MaxSegSize=%d %d %.2f ns/op\n",
						keyType, valueType, elements, segSize, *flagIterations, ns)
				}
			}
		}
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
