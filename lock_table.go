package patomic

import (
	"github.com/llxisdsh/patomic/internal/opt"
)

// lockCount is the number of stripes. It is prime so that addr%lockCount
// disperses addresses that share a large power-of-two alignment across
// every stripe.
const lockCount = 67

// LockStripes is the number of seqlocks shared by every cell that takes
// the fallback path.
const LockStripes = lockCount

// lockTable is allocated statically and never grows: its size is
// independent of how many cells exist. Cells whose addresses collide on
// a stripe serialize against each other.
var lockTable [lockCount]opt.LockStripe_

// lockIndex maps an address to its stripe.
//
//go:nosplit
func lockIndex(addr uintptr) uintptr {
	// With a constant modulus the compiler lowers this to a multiply and
	// shift rather than a division.
	return addr % lockCount
}

// lockFor returns the seqlock guarding addr. There is no persistent
// binding between a cell and a stripe; the mapping is recomputed on every
// access.
//
//go:nosplit
func lockFor(addr uintptr) *seqLock {
	return (*seqLock)(&lockTable[lockIndex(addr)].Seq)
}
