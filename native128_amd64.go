//go:build amd64

package patomic

const hasNative128 = true

// cmpxchg16b executes LOCK CMPXCHG16B on addr, which must be 16-byte
// aligned. It returns the 128-bit value held before the instruction,
// which equals old exactly when the exchange happened.
//
//go:noescape
func cmpxchg16b(addr *Uint128, oldLo, oldHi, newLo, newHi uint64) (lo, hi uint64)

//go:nosplit
func nativeCAS128(p *Uint128, old, new Uint128) Uint128 {
	lo, hi := cmpxchg16b(p, old.Lo, old.Hi, new.Lo, new.Hi)
	return Uint128{Lo: lo, Hi: hi}
}
