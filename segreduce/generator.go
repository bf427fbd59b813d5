package segreduce

import (
	"fmt"
	"math/rand"
)

// KeyType constrains the signed integer widths usable as run keys.
type KeyType interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// ValueType constrains the numeric scalar types carried alongside keys.
type ValueType interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// GeneratorConfig describes one segmented key workload. Segment lengths are
// drawn uniformly from [MinSegmentSize, MaxSegmentSize] by a pseudo-random
// engine seeded with Seed. Configurations must come from NewGeneratorConfig;
// the zero value is not valid.
type GeneratorConfig struct {
	MinSegmentSize int
	MaxSegmentSize int
	Seed           int64
}

// NewGeneratorConfig validates the segment range eagerly. A max below min or
// a min below one would otherwise stall the generator, so both are rejected
// here instead of being left as undefined behavior.
func NewGeneratorConfig(minSegmentSize int, maxSegmentSize int, seed int64) (GeneratorConfig, error) {
	if minSegmentSize < 1 {
		return GeneratorConfig{}, NewError(ZeroSegmentSizeError, fmt.Sprintf("min segment size %d must be at least 1", minSegmentSize))
	}
	if maxSegmentSize < minSegmentSize {
		return GeneratorConfig{}, NewError(InvalidSegmentRangeError, fmt.Sprintf("max segment size %d is below min segment size %d", maxSegmentSize, minSegmentSize))
	}
	return GeneratorConfig{
		MinSegmentSize: minSegmentSize,
		MaxSegmentSize: maxSegmentSize,
		Seed:           seed,
	}, nil
}

// GenerateSegmentKeys produces n keys partitioned into contiguous runs of
// pseudo-random length. The run key starts at zero and increments once per
// run; the final run is truncated so the run lengths sum to n exactly. The
// same config and n always yield the same sequence. n = 0 yields an empty,
// non-nil sequence.
func GenerateSegmentKeys[K KeyType](n int, config GeneratorConfig) []K {
	keys := make([]K, n)
	rng := rand.New(rand.NewSource(config.Seed))
	span := config.MaxSegmentSize - config.MinSegmentSize + 1

	cursor := 0
	key := K(0)
	for cursor < n {
		segment := config.MinSegmentSize + rng.Intn(span)
		if remaining := n - cursor; segment > remaining {
			segment = remaining
		}
		for index := 0; index < segment; index++ {
			keys[cursor+index] = key
		}
		cursor += segment
		key++
	}
	return keys
}
