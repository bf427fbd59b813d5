package segreduce

import "fmt"

// CountRuns returns the number of maximal runs of equal adjacent keys. This
// is the deduplication pass a benchmark driver uses to size output buffers
// before the measured reduction.
func CountRuns[K KeyType](keys []K) int {
	if len(keys) == 0 {
		return 0
	}
	runs := 1
	for index := 1; index < len(keys); index++ {
		if keys[index] != keys[index-1] {
			runs++
		}
	}
	return runs
}

// FillValues sets every element of values to value.
func FillValues[V ValueType](values []V, value V) {
	for index := range values {
		values[index] = value
	}
}

// ReduceByKey consumes keys and aligned values in one left-to-right pass and
// emits one entry per run: the run's key and the sum of its values. It
// returns the number of runs written. Both output buffers must hold at least
// CountRuns(keys) entries.
func ReduceByKey[K KeyType, V ValueType](keys []K, values []V, outKeys []K, outValues []V) (int, error) {
	if len(values) != len(keys) {
		return 0, NewError(LengthMismatchError, fmt.Sprintf("%d keys but %d values", len(keys), len(values)))
	}
	if len(keys) == 0 {
		return 0, nil
	}

	emitted := 0
	current := keys[0]
	sum := values[0]
	for index := 1; index < len(keys); index++ {
		if keys[index] == current {
			sum += values[index]
			continue
		}
		if emitted >= len(outKeys) || emitted >= len(outValues) {
			return emitted, NewError(OutputTooSmallError, fmt.Sprintf("output buffers hold %d/%d entries but more runs remain", len(outKeys), len(outValues)))
		}
		outKeys[emitted] = current
		outValues[emitted] = sum
		emitted++
		current = keys[index]
		sum = values[index]
	}

	if emitted >= len(outKeys) || emitted >= len(outValues) {
		return emitted, NewError(OutputTooSmallError, fmt.Sprintf("output buffers hold %d/%d entries but one run remains", len(outKeys), len(outValues)))
	}
	outKeys[emitted] = current
	outValues[emitted] = sum
	return emitted + 1, nil
}
