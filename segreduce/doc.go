// Package segreduce provides the host-side building blocks of a reduce-by-key
// micro-benchmark: a deterministic segmented key generator and single-pass
// reduction primitives over aligned key/value buffers.
//
// The typical flow is:
//   - build a GeneratorConfig with NewGeneratorConfig
//   - produce a key sequence with GenerateSegmentKeys
//   - size output buffers with CountRuns
//   - run ReduceByKey (or ReduceByKeyWithPolicy) over the buffers
//
// A key sequence is partitioned into contiguous runs. Each run's length is
// drawn uniformly from the configured [min, max] segment range by a seeded
// pseudo-random engine, with the final run truncated to fill the remaining
// length exactly. The same configuration and element count always produce
// the same sequence, which keeps benchmark measurements reproducible across
// invocations of one build. The key value increments once per run and wraps
// at the width of the key type; adjacent runs always carry distinct keys.
//
// All operations work on caller-owned slices and share no mutable state, so
// independent benchmark configurations can run concurrently as long as each
// owns its own buffers. Errors are reported as typed errors created with
// NewError and indicate contract violations such as mismatched buffer
// lengths; they are not recoverable conditions within one measurement.
package segreduce
