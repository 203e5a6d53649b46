//go:build patomic_disable_padding

package opt

import "sync/atomic"

// LockStripe_ holds one seqlock counter of the striped lock table.
// Padding is force-disabled via the patomic_disable_padding build tag.
// Use: go build -tags=patomic_disable_padding
type LockStripe_ struct {
	Seq atomic.Uint64 // Sequence counter
}
