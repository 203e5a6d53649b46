package patomic

import (
	"github.com/llxisdsh/patomic/internal/cpuinfo"
	"github.com/llxisdsh/patomic/internal/opt"
)

// IsAlwaysLockFree64 reports whether 64-bit cells use hardware atomics on
// every CPU this binary can run on.
const IsAlwaysLockFree64 = !opt.NoNative_

// IsAlwaysLockFree128 reports whether 128-bit cells use hardware atomics
// on every CPU this binary can run on. When false, IsLockFree128 may still
// report true on the running CPU.
const IsAlwaysLockFree128 = !opt.NoNative_ && hasNative128 && always128

// use64 reports whether 64-bit operations take the sync/atomic path.
// Every Go port provides 64-bit atomics, so only the patomic_no_native
// tag can turn this off.
//
//go:nosplit
func use64() bool {
	return !opt.NoNative_
}

// use128 reports whether 128-bit operations take the native path.
// It is evaluated on every operation and never remembered per cell: the
// answer is a property of the process, not of the value.
func use128() bool {
	if opt.NoNative_ || !hasNative128 {
		return false
	}
	if always128 {
		return true
	}
	return cpuinfo.Has(cpuinfo.CAS128)
}

// IsLockFree64 reports whether 64-bit cells are lock-free on this CPU.
func IsLockFree64() bool {
	return use64()
}

// IsLockFree128 reports whether 128-bit cells are lock-free on this CPU.
// It reads the same capability state as the operations themselves.
func IsLockFree128() bool {
	return use128()
}

// Features returns the names of the detected atomic capabilities of the
// running CPU, for diagnostics.
func Features() []string {
	return cpuinfo.Detect().Names()
}
