//go:build (386 || arm || mips || mipsle || wasm) && !patomic_disable_padding && !patomic_enable_padding

package opt

import "sync/atomic"

// LockStripe_ holds one seqlock counter of the striped lock table.
// Padding is disabled by default for 32-bit architectures and wasm
// (386, arm, mips, mipsle, wasm), where the table stays within a few
// cache lines and memory is usually tight.
type LockStripe_ struct {
	Seq atomic.Uint64 // Sequence counter
}
