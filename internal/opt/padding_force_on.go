//go:build patomic_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// LockStripe_ holds one seqlock counter of the striped lock table.
// Padding is force-enabled via the patomic_enable_padding build tag.
// Use: go build -tags=patomic_enable_padding
type LockStripe_ struct {
	Seq atomic.Uint64 // Sequence counter
	_   [(CacheLineSize_ - unsafe.Sizeof(struct {
		Seq atomic.Uint64
	}{})%CacheLineSize_) % CacheLineSize_]byte
}
