package segreduce

import (
	"strings"
	"testing"
)

func TestParsePolicy(t *testing.T) {
	if policy, err := ParsePolicy("seq"); err != nil || policy != PolicySeq {
		t.Fatalf("expected PolicySeq, got %v (%v)", policy, err)
	}
	if policy, err := ParsePolicy("par"); err != nil || policy != PolicyPar {
		t.Fatalf("expected PolicyPar, got %v (%v)", policy, err)
	}
	if _, err := ParsePolicy("gpu"); err == nil || !strings.HasPrefix(err.Error(), "UnknownPolicyError") {
		t.Fatalf("expected UnknownPolicyError, got %v", err)
	}
}

func TestReduceByKeyWithPolicyParMatchesSeq(t *testing.T) {
	const n = 1 << 17
	config := mustConfig(t, 1, 8, 21)
	keys := GenerateSegmentKeys[int32](n, config)
	values := make([]float32, n)
	FillValues(values, 1)

	runs := CountRuns(keys)
	seqKeys := make([]int32, runs)
	seqValues := make([]float32, runs)
	seqCount, err := ReduceByKeyWithPolicy(PolicySeq, keys, values, seqKeys, seqValues)
	if err != nil {
		t.Fatalf("sequential reduce failed: %v", err)
	}

	parKeys := make([]int32, runs)
	parValues := make([]float32, runs)
	parCount, err := ReduceByKeyWithPolicy(PolicyPar, keys, values, parKeys, parValues)
	if err != nil {
		t.Fatalf("parallel reduce failed: %v", err)
	}

	if seqCount != parCount {
		t.Fatalf("expected %d runs from both policies, parallel produced %d", seqCount, parCount)
	}
	for index := 0; index < seqCount; index++ {
		if seqKeys[index] != parKeys[index] || seqValues[index] != parValues[index] {
			t.Fatalf("policies diverge at run %d: seq (%d, %v) vs par (%d, %v)",
				index, seqKeys[index], seqValues[index], parKeys[index], parValues[index])
		}
	}
}

func TestReduceByKeyWithPolicyParSmallInput(t *testing.T) {
	keys := []int64{0, 0, 1, 2, 2, 2}
	values := []int64{1, 1, 1, 1, 1, 1}

	outKeys := make([]int64, 3)
	outValues := make([]int64, 3)
	count, err := ReduceByKeyWithPolicy(PolicyPar, keys, values, outKeys, outValues)
	if err != nil {
		t.Fatalf("parallel reduce failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 runs, got %d", count)
	}
	if outValues[0] != 2 || outValues[1] != 1 || outValues[2] != 3 {
		t.Fatalf("unexpected sums %v", outValues[:count])
	}
}

func TestReduceByKeyWithPolicyParLengthMismatch(t *testing.T) {
	_, err := ReduceByKeyWithPolicy(PolicyPar, []int32{0, 1}, []int32{1}, make([]int32, 2), make([]int32, 2))
	if err == nil || !strings.HasPrefix(err.Error(), "LengthMismatchError") {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
}

func TestReduceByKeyWithPolicyUnknown(t *testing.T) {
	_, err := ReduceByKeyWithPolicy(Policy(99), []int32{0}, []int32{1}, make([]int32, 1), make([]int32, 1))
	if err == nil || !strings.HasPrefix(err.Error(), "UnknownPolicyError") {
		t.Fatalf("expected UnknownPolicyError, got %v", err)
	}
}
