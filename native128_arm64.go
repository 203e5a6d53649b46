//go:build arm64

package patomic

const hasNative128 = true

// casp128 executes CASPAL on addr, which must be 16-byte aligned. It
// returns the 128-bit value held before the instruction. CASPAL is part of
// FEAT_LSE; calling it on an ARMv8.0 core raises SIGILL, so it is only
// reachable when the dispatch gate has seen cpuinfo.CAS128.
//
//go:noescape
func casp128(addr *Uint128, oldLo, oldHi, newLo, newHi uint64) (lo, hi uint64)

//go:nosplit
func nativeCAS128(p *Uint128, old, new Uint128) Uint128 {
	lo, hi := casp128(p, old.Lo, old.Hi, new.Lo, new.Hi)
	return Uint128{Lo: lo, Hi: hi}
}
