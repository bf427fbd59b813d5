package segreduce

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Policy selects the execution backend for ReduceByKeyWithPolicy.
type Policy int

const (
	// PolicySeq runs the reduction on the calling goroutine.
	PolicySeq Policy = iota
	// PolicyPar splits the input at run boundaries and reduces the pieces
	// on up to GOMAXPROCS goroutines.
	PolicyPar
)

// parallelCutoff is the input length below which PolicyPar falls back to the
// sequential pass; goroutine handoff dominates on smaller buffers.
const parallelCutoff = 1 << 14

// ParsePolicy maps an external policy name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "seq":
		return PolicySeq, nil
	case "par":
		return PolicyPar, nil
	}
	return PolicySeq, NewError(UnknownPolicyError, fmt.Sprintf("policy %q is not seq or par", name))
}

// ReduceByKeyWithPolicy behaves exactly like ReduceByKey; the policy only
// chooses the execution backend, never the result.
func ReduceByKeyWithPolicy[K KeyType, V ValueType](policy Policy, keys []K, values []V, outKeys []K, outValues []V) (int, error) {
	switch policy {
	case PolicySeq:
		return ReduceByKey(keys, values, outKeys, outValues)
	case PolicyPar:
		return reduceByKeyParallel(keys, values, outKeys, outValues)
	}
	return 0, NewError(UnknownPolicyError, fmt.Sprintf("policy %d", policy))
}

func reduceByKeyParallel[K KeyType, V ValueType](keys []K, values []V, outKeys []K, outValues []V) (int, error) {
	if len(values) != len(keys) {
		return 0, NewError(LengthMismatchError, fmt.Sprintf("%d keys but %d values", len(keys), len(values)))
	}
	workers := runtime.GOMAXPROCS(0)
	if workers <= 1 || len(keys) < parallelCutoff {
		return ReduceByKey(keys, values, outKeys, outValues)
	}

	// Chunk starts are pushed forward to the next run boundary so no run
	// spans two pieces and piece results can be concatenated verbatim.
	bounds := []int{0}
	chunk := len(keys) / workers
	for index := 1; index < workers; index++ {
		start := index * chunk
		if start <= bounds[len(bounds)-1] {
			continue
		}
		for start < len(keys) && keys[start] == keys[start-1] {
			start++
		}
		if start <= bounds[len(bounds)-1] || start >= len(keys) {
			continue
		}
		bounds = append(bounds, start)
	}
	bounds = append(bounds, len(keys))

	type piece struct {
		keys   []K
		values []V
		count  int
	}
	pieces := make([]piece, len(bounds)-1)

	var group errgroup.Group
	for index := 0; index < len(bounds)-1; index++ {
		lo, hi := bounds[index], bounds[index+1]
		slot := &pieces[index]
		group.Go(func() error {
			runs := CountRuns(keys[lo:hi])
			slot.keys = make([]K, runs)
			slot.values = make([]V, runs)
			count, err := ReduceByKey(keys[lo:hi], values[lo:hi], slot.keys, slot.values)
			if err != nil {
				return err
			}
			slot.count = count
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, err
	}

	emitted := 0
	for _, part := range pieces {
		if emitted+part.count > len(outKeys) || emitted+part.count > len(outValues) {
			return emitted, NewError(OutputTooSmallError, fmt.Sprintf("output buffers hold %d/%d entries but %d runs were produced", len(outKeys), len(outValues), emitted+part.count))
		}
		copy(outKeys[emitted:], part.keys[:part.count])
		copy(outValues[emitted:], part.values[:part.count])
		emitted += part.count
	}
	return emitted, nil
}
