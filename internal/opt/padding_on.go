//go:build !(386 || arm || mips || mipsle || wasm) && !patomic_disable_padding && !patomic_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// LockStripe_ holds one seqlock counter of the striped lock table.
// Padding is automatically enabled for architectures that are NOT 32-bit or wasm
// (386, arm, mips, mipsle, wasm), so that writers on neighbouring stripes
// do not bounce the same cache line.
//
// Enabled for: amd64, arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, mips64le, etc.
type LockStripe_ struct {
	Seq atomic.Uint64 // Sequence counter
	_   [(CacheLineSize_ - unsafe.Sizeof(struct {
		Seq atomic.Uint64
	}{})%CacheLineSize_) % CacheLineSize_]byte
}
