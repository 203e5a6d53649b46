package patomic

import (
	"sync/atomic"
	"unsafe"
)

// AtomicUint64 is a 64-bit unsigned integer that can be accessed
// atomically. The zero value is 0 and ready to use.
//
// Operations use sync/atomic unless the binary was built with the
// patomic_no_native tag, in which case they go through the striped
// seqlock table with identical semantics.
//
// atomic.Uint64 is used as storage for its 64-bit alignment guarantee on
// 32-bit platforms.
type AtomicUint64 struct {
	_ noCopy
	v atomic.Uint64
}

// NewAtomicUint64 returns a cell holding v.
func NewAtomicUint64(v uint64) *AtomicUint64 {
	a := new(AtomicUint64)
	*a.Raw() = v
	return a
}

// Raw returns a pointer to the stored value. Accesses through it bypass
// every lock and instruction, so the caller must have exclusive access to
// the cell.
//
//go:nosplit
func (a *AtomicUint64) Raw() *uint64 {
	return (*uint64)(unsafe.Pointer(&a.v))
}

// Inner returns the stored value with a plain read. Like Raw, it requires
// exclusive access.
func (a *AtomicUint64) Inner() uint64 {
	return *a.Raw()
}

//go:nosplit
func (a *AtomicUint64) cell() *lockedCell[uint64] {
	return asLockedCell(a.Raw())
}

// Load atomically loads the value. order must not be Release or AcqRel.
func (a *AtomicUint64) Load(order Ordering) uint64 {
	checkLoad(order)
	if use64() {
		return a.v.Load()
	}
	return a.cell().load()
}

// Store atomically stores v. order must not be Acquire or AcqRel.
func (a *AtomicUint64) Store(v uint64, order Ordering) {
	checkStore(order)
	if use64() {
		a.v.Store(v)
		return
	}
	a.cell().store(v)
}

// Swap atomically stores v and returns the previous value.
func (a *AtomicUint64) Swap(v uint64, order Ordering) uint64 {
	checkRMW("swap", order)
	if use64() {
		return a.v.Swap(v)
	}
	return a.cell().swap(v)
}

// CompareExchange stores new if the value is old. It returns the value
// observed before the operation and whether the store happened; on
// failure the returned value is the current one.
//
// failure must not be Release or AcqRel.
func (a *AtomicUint64) CompareExchange(old, new uint64, success, failure Ordering) (uint64, bool) {
	checkCompareExchange(success, failure)
	return a.compareExchange(old, new)
}

// CompareExchangeWeak is like CompareExchange but is allowed to fail
// spuriously. Neither path ever does.
func (a *AtomicUint64) CompareExchangeWeak(old, new uint64, success, failure Ordering) (uint64, bool) {
	checkCompareExchange(success, failure)
	return a.compareExchange(old, new)
}

func (a *AtomicUint64) compareExchange(old, new uint64) (uint64, bool) {
	if use64() {
		for {
			if a.v.CompareAndSwap(old, new) {
				return old, true
			}
			// sync/atomic does not report the witness; retry until the
			// observed value differs from old, so that a failure always
			// reports a value the cell actually held.
			if cur := a.v.Load(); cur != old {
				return cur, false
			}
		}
	}
	return a.cell().compareExchange(old, new)
}

// FetchAdd adds v with wraparound and returns the previous value.
func (a *AtomicUint64) FetchAdd(v uint64, order Ordering) uint64 {
	checkRMW("fetch_add", order)
	if use64() {
		return a.v.Add(v) - v
	}
	return a.cell().update(func(x uint64) uint64 { return x + v })
}

// FetchSub subtracts v with wraparound and returns the previous value.
func (a *AtomicUint64) FetchSub(v uint64, order Ordering) uint64 {
	checkRMW("fetch_sub", order)
	if use64() {
		return a.v.Add(-v) + v
	}
	return a.cell().update(func(x uint64) uint64 { return x - v })
}

// FetchAnd stores the bitwise AND with v and returns the previous value.
func (a *AtomicUint64) FetchAnd(v uint64, order Ordering) uint64 {
	checkRMW("fetch_and", order)
	if use64() {
		return a.v.And(v)
	}
	return a.cell().update(func(x uint64) uint64 { return x & v })
}

// FetchOr stores the bitwise OR with v and returns the previous value.
func (a *AtomicUint64) FetchOr(v uint64, order Ordering) uint64 {
	checkRMW("fetch_or", order)
	if use64() {
		return a.v.Or(v)
	}
	return a.cell().update(func(x uint64) uint64 { return x | v })
}

// FetchXor stores the bitwise XOR with v and returns the previous value.
func (a *AtomicUint64) FetchXor(v uint64, order Ordering) uint64 {
	checkRMW("fetch_xor", order)
	return a.update(func(x uint64) uint64 { return x ^ v })
}

// FetchNand stores ^(x & v) and returns the previous value x.
func (a *AtomicUint64) FetchNand(v uint64, order Ordering) uint64 {
	checkRMW("fetch_nand", order)
	return a.update(func(x uint64) uint64 { return ^(x & v) })
}

// FetchMax stores the larger of the value and v, returning the previous value.
func (a *AtomicUint64) FetchMax(v uint64, order Ordering) uint64 {
	checkRMW("fetch_max", order)
	return a.update(func(x uint64) uint64 { return max(x, v) })
}

// FetchMin stores the smaller of the value and v, returning the previous value.
func (a *AtomicUint64) FetchMin(v uint64, order Ordering) uint64 {
	checkRMW("fetch_min", order)
	return a.update(func(x uint64) uint64 { return min(x, v) })
}

// FetchNot inverts every bit and returns the previous value.
func (a *AtomicUint64) FetchNot(order Ordering) uint64 {
	checkRMW("fetch_not", order)
	return a.update(func(x uint64) uint64 { return ^x })
}

// FetchUpdate applies f until it either declines (ok == false) or its
// result is stored with a compare-exchange. It returns the previous value
// and whether a store happened. f may run several times under contention
// and is never called while a stripe is held.
func (a *AtomicUint64) FetchUpdate(set, fetch Ordering, f func(uint64) (uint64, bool)) (uint64, bool) {
	checkCompareExchange(set, fetch)
	prev := a.load()
	for {
		next, ok := f(prev)
		if !ok {
			return prev, false
		}
		cur, swapped := a.compareExchange(prev, next)
		if swapped {
			return prev, true
		}
		prev = cur
	}
}

func (a *AtomicUint64) load() uint64 {
	if use64() {
		return a.v.Load()
	}
	return a.cell().load()
}

// update is the generic read-modify-write for operations that sync/atomic
// has no instruction for.
func (a *AtomicUint64) update(f func(uint64) uint64) uint64 {
	if use64() {
		for {
			old := a.v.Load()
			if a.v.CompareAndSwap(old, f(old)) {
				return old
			}
		}
	}
	return a.cell().update(f)
}

// AtomicInt64 is a 64-bit signed integer that can be accessed atomically.
// The zero value is 0 and ready to use.
type AtomicInt64 struct {
	u AtomicUint64
}

// NewAtomicInt64 returns a cell holding v.
func NewAtomicInt64(v int64) *AtomicInt64 {
	a := new(AtomicInt64)
	*a.Raw() = v
	return a
}

// Raw returns a pointer to the stored value; see AtomicUint64.Raw.
func (a *AtomicInt64) Raw() *int64 {
	return (*int64)(unsafe.Pointer(a.u.Raw()))
}

// Inner returns the stored value with a plain read; see AtomicUint64.Inner.
func (a *AtomicInt64) Inner() int64 {
	return *a.Raw()
}

// Load atomically loads the value. order must not be Release or AcqRel.
func (a *AtomicInt64) Load(order Ordering) int64 {
	checkLoad(order)
	return int64(a.u.Load(order))
}

// Store atomically stores v. order must not be Acquire or AcqRel.
func (a *AtomicInt64) Store(v int64, order Ordering) {
	checkStore(order)
	a.u.Store(uint64(v), order)
}

// Swap atomically stores v and returns the previous value.
func (a *AtomicInt64) Swap(v int64, order Ordering) int64 {
	checkRMW("swap", order)
	return int64(a.u.Swap(uint64(v), order))
}

// CompareExchange stores new if the value is old; see AtomicUint64.CompareExchange.
func (a *AtomicInt64) CompareExchange(old, new int64, success, failure Ordering) (int64, bool) {
	checkCompareExchange(success, failure)
	cur, ok := a.u.CompareExchange(uint64(old), uint64(new), success, failure)
	return int64(cur), ok
}

// CompareExchangeWeak is like CompareExchange and never fails spuriously.
func (a *AtomicInt64) CompareExchangeWeak(old, new int64, success, failure Ordering) (int64, bool) {
	checkCompareExchange(success, failure)
	cur, ok := a.u.CompareExchangeWeak(uint64(old), uint64(new), success, failure)
	return int64(cur), ok
}

// FetchAdd adds v with two's-complement wraparound and returns the previous value.
func (a *AtomicInt64) FetchAdd(v int64, order Ordering) int64 {
	checkRMW("fetch_add", order)
	return int64(a.u.FetchAdd(uint64(v), order))
}

// FetchSub subtracts v with two's-complement wraparound and returns the previous value.
func (a *AtomicInt64) FetchSub(v int64, order Ordering) int64 {
	checkRMW("fetch_sub", order)
	return int64(a.u.FetchSub(uint64(v), order))
}

// FetchAnd stores the bitwise AND with v and returns the previous value.
func (a *AtomicInt64) FetchAnd(v int64, order Ordering) int64 {
	checkRMW("fetch_and", order)
	return int64(a.u.FetchAnd(uint64(v), order))
}

// FetchOr stores the bitwise OR with v and returns the previous value.
func (a *AtomicInt64) FetchOr(v int64, order Ordering) int64 {
	checkRMW("fetch_or", order)
	return int64(a.u.FetchOr(uint64(v), order))
}

// FetchXor stores the bitwise XOR with v and returns the previous value.
func (a *AtomicInt64) FetchXor(v int64, order Ordering) int64 {
	checkRMW("fetch_xor", order)
	return int64(a.u.FetchXor(uint64(v), order))
}

// FetchNand stores ^(x & v) and returns the previous value x.
func (a *AtomicInt64) FetchNand(v int64, order Ordering) int64 {
	checkRMW("fetch_nand", order)
	return int64(a.u.FetchNand(uint64(v), order))
}

// FetchNot inverts every bit and returns the previous value.
func (a *AtomicInt64) FetchNot(order Ordering) int64 {
	checkRMW("fetch_not", order)
	return int64(a.u.FetchNot(order))
}

// FetchMax stores the larger of the value and v, compared as signed integers,
// and returns the previous value.
func (a *AtomicInt64) FetchMax(v int64, order Ordering) int64 {
	checkRMW("fetch_max", order)
	return int64(a.u.update(func(x uint64) uint64 { return uint64(max(int64(x), v)) }))
}

// FetchMin stores the smaller of the value and v, compared as signed integers,
// and returns the previous value.
func (a *AtomicInt64) FetchMin(v int64, order Ordering) int64 {
	checkRMW("fetch_min", order)
	return int64(a.u.update(func(x uint64) uint64 { return uint64(min(int64(x), v)) }))
}

// FetchNeg negates the value with wraparound and returns the previous value.
func (a *AtomicInt64) FetchNeg(order Ordering) int64 {
	checkRMW("fetch_neg", order)
	return int64(a.u.update(func(x uint64) uint64 { return -x }))
}

// FetchUpdate applies f in a compare-exchange loop; see AtomicUint64.FetchUpdate.
func (a *AtomicInt64) FetchUpdate(set, fetch Ordering, f func(int64) (int64, bool)) (int64, bool) {
	checkCompareExchange(set, fetch)
	prev, ok := a.u.FetchUpdate(set, fetch, func(x uint64) (uint64, bool) {
		next, ok := f(int64(x))
		return uint64(next), ok
	})
	return int64(prev), ok
}
