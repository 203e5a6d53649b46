package patomic

import (
	"sync/atomic"
	"unsafe"
)

// optimisticReads bounds how many optimistic windows a load attempts
// before it takes the stripe exclusively, so readers make progress under
// a steady stream of writers.
const optimisticReads = 2

// lockedCell[V] is the lock-emulated atomic cell: plain storage for V plus
// operations that route through the stripe selected by the cell address.
//
// V must be a whole number of machine words and at least word aligned.
// The storage is viewed as [n]uintptr and:
//   - every write goes through atomic.StoreUintptr, even while the stripe
//     is held, because optimistic readers may be loading concurrently;
//   - optimistic reads go through atomic.LoadUintptr, so a read racing a
//     writer is a discarded atomic observation rather than a data race;
//   - reads made while holding the stripe may be plain, since no other
//     writer can exist.
//
// A cell never owns a seqLock; pointers into the lock table are not kept.
// Cells that live on a goroutine stack can move when the stack grows, but
// such cells are not shared, and the stripe is re-derived on every call.
type lockedCell[V comparable] struct {
	_ [0]atomic.Uintptr
	v V
}

// asLockedCell reinterprets p as a fallback cell. p must satisfy the
// word size and alignment constraints of lockedCell.
//
//go:nosplit
func asLockedCell[V comparable](p *V) *lockedCell[V] {
	return (*lockedCell[V])(unsafe.Pointer(p))
}

//go:nosplit
func (c *lockedCell[V]) lock() *seqLock {
	return lockFor(uintptr(unsafe.Pointer(c)))
}

// readAtomic copies v with one atomic load per word.
//
//go:nosplit
func (c *lockedCell[V]) readAtomic() (v V) {
	ws := unsafe.Sizeof(uintptr(0))
	switch unsafe.Sizeof(c.v) / ws {
	case 1:
		u := atomic.LoadUintptr((*uintptr)(unsafe.Pointer(&c.v)))
		*(*uintptr)(unsafe.Pointer(&v)) = u
	case 2:
		p := (*[2]uintptr)(unsafe.Pointer(&c.v))
		q := (*[2]uintptr)(unsafe.Pointer(&v))
		q[0] = atomic.LoadUintptr(&p[0])
		q[1] = atomic.LoadUintptr(&p[1])
	case 4:
		p := (*[4]uintptr)(unsafe.Pointer(&c.v))
		q := (*[4]uintptr)(unsafe.Pointer(&v))
		q[0] = atomic.LoadUintptr(&p[0])
		q[1] = atomic.LoadUintptr(&p[1])
		q[2] = atomic.LoadUintptr(&p[2])
		q[3] = atomic.LoadUintptr(&p[3])
	default:
		for i := range unsafe.Sizeof(c.v) / ws {
			off := i * ws
			src := (*uintptr)(unsafe.Add(unsafe.Pointer(&c.v), off))
			dst := (*uintptr)(unsafe.Add(unsafe.Pointer(&v), off))
			*dst = atomic.LoadUintptr(src)
		}
	}
	return v
}

// writeAtomic stores v with one atomic store per word.
// The caller must hold the stripe.
//
//go:nosplit
func (c *lockedCell[V]) writeAtomic(v V) {
	ws := unsafe.Sizeof(uintptr(0))
	switch unsafe.Sizeof(c.v) / ws {
	case 1:
		u := *(*uintptr)(unsafe.Pointer(&v))
		atomic.StoreUintptr((*uintptr)(unsafe.Pointer(&c.v)), u)
	case 2:
		p := (*[2]uintptr)(unsafe.Pointer(&c.v))
		q := (*[2]uintptr)(unsafe.Pointer(&v))
		atomic.StoreUintptr(&p[0], q[0])
		atomic.StoreUintptr(&p[1], q[1])
	case 4:
		p := (*[4]uintptr)(unsafe.Pointer(&c.v))
		q := (*[4]uintptr)(unsafe.Pointer(&v))
		atomic.StoreUintptr(&p[0], q[0])
		atomic.StoreUintptr(&p[1], q[1])
		atomic.StoreUintptr(&p[2], q[2])
		atomic.StoreUintptr(&p[3], q[3])
	default:
		for i := range unsafe.Sizeof(c.v) / ws {
			off := i * ws
			src := (*uintptr)(unsafe.Add(unsafe.Pointer(&v), off))
			dst := (*uintptr)(unsafe.Add(unsafe.Pointer(&c.v), off))
			atomic.StoreUintptr(dst, *src)
		}
	}
}

// load returns a tear-free snapshot. It tries optimistic windows first and
// falls back to holding the stripe, which it then releases without
// advancing the sequence.
func (c *lockedCell[V]) load() V {
	l := c.lock()
	for range optimisticReads {
		if s1, ok := l.BeginRead(); ok {
			v := c.readAtomic()
			if l.EndRead(s1) {
				return v
			}
		}
	}
	s1 := l.Lock()
	v := c.v
	l.AbortWrite(s1)
	return v
}

func (c *lockedCell[V]) store(v V) {
	l := c.lock()
	s1 := l.Lock()
	c.writeAtomic(v)
	l.EndWrite(s1)
}

func (c *lockedCell[V]) swap(v V) (old V) {
	l := c.lock()
	s1 := l.Lock()
	old = c.v
	c.writeAtomic(v)
	l.EndWrite(s1)
	return old
}

// compareExchange stores new if the cell holds old. It returns the value
// observed under the stripe and whether the store happened. A failed
// exchange releases the stripe without advancing the sequence.
func (c *lockedCell[V]) compareExchange(old, new V) (V, bool) {
	l := c.lock()
	s1 := l.Lock()
	cur := c.v
	if cur != old {
		l.AbortWrite(s1)
		return cur, false
	}
	c.writeAtomic(new)
	l.EndWrite(s1)
	return cur, true
}

// update replaces the value with f(old) and returns old. f runs while the
// stripe is held and must not touch other cells.
func (c *lockedCell[V]) update(f func(V) V) (old V) {
	l := c.lock()
	s1 := l.Lock()
	old = c.v
	c.writeAtomic(f(old))
	l.EndWrite(s1)
	return old
}
