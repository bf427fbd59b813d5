package bench

import (
	"math"
	"sort"
)

// Stats summarizes one configuration's samples with nearest-rank
// percentiles, in ns per kernel invocation.
type Stats struct {
	N        int     `json:"n"`
	MinNSOp  float64 `json:"min_ns_op"`
	P50NSOp  float64 `json:"p50_ns_op"`
	P95NSOp  float64 `json:"p95_ns_op"`
	P99NSOp  float64 `json:"p99_ns_op"`
	MaxNSOp  float64 `json:"max_ns_op"`
	MeanNSOp float64 `json:"mean_ns_op"`
}

func nearestRank(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}
	rank := int(math.Ceil((percentile / 100.0) * float64(len(values))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(values) {
		rank = len(values)
	}
	return values[rank-1]
}

// Summarize computes nearest-rank tail statistics for raw ns/op samples.
// It is used both by the Runner and by the perf capture tooling.
func Summarize(samples []float64) Stats {
	return summarize(samples)
}

func summarize(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	var total float64
	for _, value := range sorted {
		total += value
	}
	mean := total / float64(len(sorted))
	return Stats{
		N:        len(sorted),
		MinNSOp:  sorted[0],
		P50NSOp:  nearestRank(sorted, 50),
		P95NSOp:  nearestRank(sorted, 95),
		P99NSOp:  nearestRank(sorted, 99),
		MaxNSOp:  sorted[len(sorted)-1],
		MeanNSOp: math.Round(mean*10000) / 10000,
	}
}
