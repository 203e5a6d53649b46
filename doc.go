// Package patomic provides 64-bit and 128-bit atomic integers that behave
// identically on every Go target, whether or not the CPU has a native
// instruction of that width.
//
// Each operation passes through a dispatch gate. When the running CPU
// offers a suitable instruction (sync/atomic for 64 bits, CMPXCHG16B on
// x86-64 or CASPAL from FEAT_LSE on aarch64 for 128 bits) the instruction
// is issued directly. Otherwise the value is emulated over plain memory:
// its address selects one of a fixed set of seqlocks, loads read the words
// optimistically with atomic loads and validate the sequence, and
// read-modify-write operations hold the seqlock for the duration of the
// update.
//
// CPU capabilities are probed once per process and cached; when the build
// target already guarantees an instruction (for example GOAMD64=v2 or
// GOARM64=v8.1) the run-time check is a constant.
//
// Orderings follow the usual Relaxed/Acquire/Release/AcqRel/SeqCst
// contract. Every path is at least as strong as requested. Orderings that
// are illegal for an operation panic with *OrderingError before memory is
// touched.
//
// Build tags:
//   - patomic_no_native: route every cell through the seqlock fallback.
//   - patomic_enable_padding / patomic_disable_padding: force cache-line
//     padding of the lock stripes on or off.
package patomic
