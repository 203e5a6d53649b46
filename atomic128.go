package patomic

import (
	"unsafe"
)

// AtomicUint128 is a 128-bit unsigned integer that can be accessed
// atomically. The zero value is 0 and ready to use.
//
// Each operation consults the dispatch gate: with a native 128-bit
// compare-and-swap it issues the instruction directly, otherwise it goes
// through the striped seqlock table. Callers observe the same semantics
// on either path.
//
// AtomicUint128 must not be copied after first use.
type AtomicUint128 struct {
	_ noCopy
	// Native 128-bit instructions need 16-byte alignment, which Go does
	// not guarantee. On 64-bit targets one of d[0:2] and d[1:3] has it;
	// elsewhere only the fallback runs and word alignment is enough.
	d [3]uint64
}

// NewAtomicUint128 returns a cell holding v.
func NewAtomicUint128(v Uint128) *AtomicUint128 {
	a := new(AtomicUint128)
	*a.ptr() = v
	return a
}

//go:nosplit
func (a *AtomicUint128) ptr() *Uint128 {
	p := unsafe.Pointer(&a.d[0])
	if uintptr(p)%16 != 0 {
		p = unsafe.Pointer(&a.d[1])
	}
	return (*Uint128)(p)
}

// Raw returns a pointer to the stored value. Accesses through it bypass
// every lock and instruction, so the caller must have exclusive access to
// the cell, for example before publishing it to other goroutines.
func (a *AtomicUint128) Raw() *Uint128 {
	return a.ptr()
}

// Inner returns the stored value with a plain read. Like Raw, it requires
// exclusive access.
func (a *AtomicUint128) Inner() Uint128 {
	return *a.ptr()
}

// Load atomically loads the value. order must not be Release or AcqRel.
func (a *AtomicUint128) Load(order Ordering) Uint128 {
	checkLoad(order)
	return load128(a.ptr())
}

// Store atomically stores v. order must not be Acquire or AcqRel.
func (a *AtomicUint128) Store(v Uint128, order Ordering) {
	checkStore(order)
	p := a.ptr()
	if use128() {
		rmw128(p, func(Uint128) Uint128 { return v })
		return
	}
	asLockedCell(p).store(v)
}

// Swap atomically stores v and returns the previous value.
func (a *AtomicUint128) Swap(v Uint128, order Ordering) Uint128 {
	checkRMW("swap", order)
	p := a.ptr()
	if use128() {
		return rmw128(p, func(Uint128) Uint128 { return v })
	}
	return asLockedCell(p).swap(v)
}

// CompareExchange stores new if the value is old. It returns the value
// observed before the operation and whether the store happened; on
// failure the returned value is the current one.
//
// failure must not be Release or AcqRel.
func (a *AtomicUint128) CompareExchange(old, new Uint128, success, failure Ordering) (Uint128, bool) {
	checkCompareExchange(success, failure)
	return cas128(a.ptr(), old, new)
}

// CompareExchangeWeak is like CompareExchange but is allowed to fail
// spuriously. Neither path ever does.
func (a *AtomicUint128) CompareExchangeWeak(old, new Uint128, success, failure Ordering) (Uint128, bool) {
	checkCompareExchange(success, failure)
	return cas128(a.ptr(), old, new)
}

// FetchAdd adds v with wraparound and returns the previous value.
func (a *AtomicUint128) FetchAdd(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_add", order)
	return update128(a.ptr(), func(x Uint128) Uint128 { return x.Add(v) })
}

// FetchSub subtracts v with wraparound and returns the previous value.
func (a *AtomicUint128) FetchSub(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_sub", order)
	return update128(a.ptr(), func(x Uint128) Uint128 { return x.Sub(v) })
}

// FetchAnd stores the bitwise AND with v and returns the previous value.
func (a *AtomicUint128) FetchAnd(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_and", order)
	return update128(a.ptr(), func(x Uint128) Uint128 { return x.And(v) })
}

// FetchOr stores the bitwise OR with v and returns the previous value.
func (a *AtomicUint128) FetchOr(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_or", order)
	return update128(a.ptr(), func(x Uint128) Uint128 { return x.Or(v) })
}

// FetchXor stores the bitwise XOR with v and returns the previous value.
func (a *AtomicUint128) FetchXor(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_xor", order)
	return update128(a.ptr(), func(x Uint128) Uint128 { return x.Xor(v) })
}

// FetchNand stores ^(x & v) and returns the previous value x.
func (a *AtomicUint128) FetchNand(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_nand", order)
	return update128(a.ptr(), func(x Uint128) Uint128 { return x.And(v).Not() })
}

// FetchMax stores the larger of the value and v, returning the previous value.
func (a *AtomicUint128) FetchMax(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_max", order)
	return update128(a.ptr(), func(x Uint128) Uint128 {
		if x.Cmp(v) >= 0 {
			return x
		}
		return v
	})
}

// FetchMin stores the smaller of the value and v, returning the previous value.
func (a *AtomicUint128) FetchMin(v Uint128, order Ordering) Uint128 {
	checkRMW("fetch_min", order)
	return update128(a.ptr(), func(x Uint128) Uint128 {
		if x.Cmp(v) <= 0 {
			return x
		}
		return v
	})
}

// FetchNot inverts every bit and returns the previous value.
func (a *AtomicUint128) FetchNot(order Ordering) Uint128 {
	checkRMW("fetch_not", order)
	return update128(a.ptr(), Uint128.Not)
}

// FetchUpdate applies f until it either declines (ok == false) or its
// result is stored with a compare-exchange. It returns the previous value
// and whether a store happened. f may run several times under contention
// and is never called while a stripe is held.
//
// set is the ordering of the store, fetch of the loads; fetch must not be
// Release or AcqRel.
func (a *AtomicUint128) FetchUpdate(set, fetch Ordering, f func(Uint128) (Uint128, bool)) (Uint128, bool) {
	checkCompareExchange(set, fetch)
	p := a.ptr()
	prev := load128(p)
	for {
		next, ok := f(prev)
		if !ok {
			return prev, false
		}
		cur, swapped := cas128(p, prev, next)
		if swapped {
			return prev, true
		}
		prev = cur
	}
}

// AtomicInt128 is a 128-bit signed integer that can be accessed
// atomically. The zero value is 0 and ready to use.
//
// AtomicInt128 must not be copied after first use.
type AtomicInt128 struct {
	u AtomicUint128
}

// NewAtomicInt128 returns a cell holding v.
func NewAtomicInt128(v Int128) *AtomicInt128 {
	a := new(AtomicInt128)
	*a.Raw() = v
	return a
}

// Raw returns a pointer to the stored value; see AtomicUint128.Raw.
func (a *AtomicInt128) Raw() *Int128 {
	return (*Int128)(unsafe.Pointer(a.u.ptr()))
}

// Inner returns the stored value with a plain read; see AtomicUint128.Inner.
func (a *AtomicInt128) Inner() Int128 {
	return *a.Raw()
}

// Load atomically loads the value. order must not be Release or AcqRel.
func (a *AtomicInt128) Load(order Ordering) Int128 {
	checkLoad(order)
	return a.u.Load(order).Int128()
}

// Store atomically stores v. order must not be Acquire or AcqRel.
func (a *AtomicInt128) Store(v Int128, order Ordering) {
	checkStore(order)
	a.u.Store(v.Uint128(), order)
}

// Swap atomically stores v and returns the previous value.
func (a *AtomicInt128) Swap(v Int128, order Ordering) Int128 {
	checkRMW("swap", order)
	return a.u.Swap(v.Uint128(), order).Int128()
}

// CompareExchange stores new if the value is old; see AtomicUint128.CompareExchange.
func (a *AtomicInt128) CompareExchange(old, new Int128, success, failure Ordering) (Int128, bool) {
	checkCompareExchange(success, failure)
	cur, ok := a.u.CompareExchange(old.Uint128(), new.Uint128(), success, failure)
	return cur.Int128(), ok
}

// CompareExchangeWeak is like CompareExchange and never fails spuriously.
func (a *AtomicInt128) CompareExchangeWeak(old, new Int128, success, failure Ordering) (Int128, bool) {
	checkCompareExchange(success, failure)
	cur, ok := a.u.CompareExchangeWeak(old.Uint128(), new.Uint128(), success, failure)
	return cur.Int128(), ok
}

// FetchAdd adds v with two's-complement wraparound and returns the previous value.
func (a *AtomicInt128) FetchAdd(v Int128, order Ordering) Int128 {
	checkRMW("fetch_add", order)
	return a.u.FetchAdd(v.Uint128(), order).Int128()
}

// FetchSub subtracts v with two's-complement wraparound and returns the previous value.
func (a *AtomicInt128) FetchSub(v Int128, order Ordering) Int128 {
	checkRMW("fetch_sub", order)
	return a.u.FetchSub(v.Uint128(), order).Int128()
}

// FetchAnd stores the bitwise AND with v and returns the previous value.
func (a *AtomicInt128) FetchAnd(v Int128, order Ordering) Int128 {
	checkRMW("fetch_and", order)
	return a.u.FetchAnd(v.Uint128(), order).Int128()
}

// FetchOr stores the bitwise OR with v and returns the previous value.
func (a *AtomicInt128) FetchOr(v Int128, order Ordering) Int128 {
	checkRMW("fetch_or", order)
	return a.u.FetchOr(v.Uint128(), order).Int128()
}

// FetchXor stores the bitwise XOR with v and returns the previous value.
func (a *AtomicInt128) FetchXor(v Int128, order Ordering) Int128 {
	checkRMW("fetch_xor", order)
	return a.u.FetchXor(v.Uint128(), order).Int128()
}

// FetchNand stores ^(x & v) and returns the previous value x.
func (a *AtomicInt128) FetchNand(v Int128, order Ordering) Int128 {
	checkRMW("fetch_nand", order)
	return a.u.FetchNand(v.Uint128(), order).Int128()
}

// FetchNot inverts every bit and returns the previous value.
func (a *AtomicInt128) FetchNot(order Ordering) Int128 {
	checkRMW("fetch_not", order)
	return a.u.FetchNot(order).Int128()
}

// FetchMax stores the larger of the value and v, compared as signed integers,
// and returns the previous value.
func (a *AtomicInt128) FetchMax(v Int128, order Ordering) Int128 {
	checkRMW("fetch_max", order)
	return update128(a.u.ptr(), func(x Uint128) Uint128 {
		if x.Int128().Cmp(v) >= 0 {
			return x
		}
		return v.Uint128()
	}).Int128()
}

// FetchMin stores the smaller of the value and v, compared as signed integers,
// and returns the previous value.
func (a *AtomicInt128) FetchMin(v Int128, order Ordering) Int128 {
	checkRMW("fetch_min", order)
	return update128(a.u.ptr(), func(x Uint128) Uint128 {
		if x.Int128().Cmp(v) <= 0 {
			return x
		}
		return v.Uint128()
	}).Int128()
}

// FetchNeg negates the value with wraparound and returns the previous value.
func (a *AtomicInt128) FetchNeg(order Ordering) Int128 {
	checkRMW("fetch_neg", order)
	return update128(a.u.ptr(), func(x Uint128) Uint128 {
		return x.Int128().Neg().Uint128()
	}).Int128()
}

// FetchUpdate applies f in a compare-exchange loop; see AtomicUint128.FetchUpdate.
func (a *AtomicInt128) FetchUpdate(set, fetch Ordering, f func(Int128) (Int128, bool)) (Int128, bool) {
	checkCompareExchange(set, fetch)
	prev, ok := a.u.FetchUpdate(set, fetch, func(x Uint128) (Uint128, bool) {
		next, ok := f(x.Int128())
		return next.Uint128(), ok
	})
	return prev.Int128(), ok
}

// load128, cas128 and update128 are the dispatch points shared by the
// 128-bit cells.

func load128(p *Uint128) Uint128 {
	if use128() {
		// A compare-exchange of 0 with 0 returns the current value and
		// leaves it unchanged.
		return nativeCAS128(p, Uint128{}, Uint128{})
	}
	return asLockedCell(p).load()
}

func cas128(p *Uint128, old, new Uint128) (Uint128, bool) {
	if use128() {
		prev := nativeCAS128(p, old, new)
		return prev, prev == old
	}
	return asLockedCell(p).compareExchange(old, new)
}

func update128(p *Uint128, f func(Uint128) Uint128) Uint128 {
	if use128() {
		return rmw128(p, f)
	}
	return asLockedCell(p).update(f)
}

// rmw128 is the native read-modify-write loop.
func rmw128(p *Uint128, f func(Uint128) Uint128) Uint128 {
	old := nativeCAS128(p, Uint128{}, Uint128{})
	for {
		prev := nativeCAS128(p, old, f(old))
		if prev == old {
			return old
		}
		old = prev
	}
}
