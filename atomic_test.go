package patomic

import (
	"errors"
	"math"
	"runtime"
	"sync"
	"testing"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/patomic/internal/opt"
)

var (
	loadOrders  = []Ordering{Relaxed, Acquire, SeqCst}
	storeOrders = []Ordering{Relaxed, Release, SeqCst}
	rmwOrders   = []Ordering{Relaxed, Acquire, Release, AcqRel, SeqCst}
)

func TestAtomicUint64_RoundTrip(t *testing.T) {
	var a AtomicUint64
	for _, so := range storeOrders {
		for _, lo := range loadOrders {
			v := uint64(so)<<32 | uint64(lo) | 1<<63
			a.Store(v, so)
			if got := a.Load(lo); got != v {
				t.Fatalf("Store(%v)/Load(%v)=%#x want %#x", so, lo, got, v)
			}
		}
	}
	if a.Inner() != *a.Raw() {
		t.Fatal("Inner and Raw disagree")
	}
}

func TestAtomicUint128_RoundTrip(t *testing.T) {
	a := NewAtomicUint128(Uint128{Lo: 5, Hi: 6})
	if got := a.Load(SeqCst); got != (Uint128{Lo: 5, Hi: 6}) {
		t.Fatalf("constructor value=%v", got)
	}
	for _, so := range storeOrders {
		for _, lo := range loadOrders {
			v := Uint128{Lo: uint64(lo) + 1<<40, Hi: uint64(so) | 1<<63}
			a.Store(v, so)
			if got := a.Load(lo); got != v {
				t.Fatalf("Store(%v)/Load(%v)=%v want %v", so, lo, got, v)
			}
		}
	}
	if a.Inner() != *a.Raw() {
		t.Fatal("Inner and Raw disagree")
	}
}

func TestAtomicInt_RoundTrip(t *testing.T) {
	a := NewAtomicInt64(-9)
	if v := a.Load(Relaxed); v != -9 {
		t.Fatalf("int64=%d", v)
	}
	b := NewAtomicInt128(Int128From64(-9))
	if v := b.Load(Acquire); v != Int128From64(-9) {
		t.Fatalf("int128=%v", v)
	}
	for _, so := range storeOrders {
		a.Store(math.MinInt64, so)
		b.Store(Int128{Hi: math.MinInt64}, so)
		if a.Load(SeqCst) != math.MinInt64 || b.Load(SeqCst) != (Int128{Hi: math.MinInt64}) {
			t.Fatalf("store %v lost", so)
		}
	}
}

func TestAtomicUint128_Alignment(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("16-byte alignment is only arranged on 64-bit targets")
	}
	cells := make([]AtomicUint128, 5)
	for i := range cells {
		if p := uintptr(unsafe.Pointer(cells[i].ptr())); p%16 != 0 {
			t.Fatalf("cell %d: value at %#x is not 16-byte aligned", i, p)
		}
	}
	var s struct {
		_ byte
		a AtomicInt128
	}
	if p := uintptr(unsafe.Pointer(s.a.Raw())); p%16 != 0 {
		t.Fatalf("embedded cell: value at %#x is not 16-byte aligned", p)
	}
}

func TestAtomicUint64_Ops(t *testing.T) {
	for _, o := range rmwOrders {
		a := NewAtomicUint64(10)
		check := func(name string, got, wantOld, wantNew uint64) {
			t.Helper()
			if got != wantOld {
				t.Fatalf("%s(%v) returned %d want %d", name, o, got, wantOld)
			}
			if v := a.Load(SeqCst); v != wantNew {
				t.Fatalf("%s(%v) left %d want %d", name, o, v, wantNew)
			}
		}
		check("FetchAdd", a.FetchAdd(5, o), 10, 15)
		check("FetchSub", a.FetchSub(20, o), 15, math.MaxUint64-4)
		check("FetchAdd", a.FetchAdd(5, o), math.MaxUint64-4, 0)
		check("Swap", a.Swap(0b1100, o), 0, 0b1100)
		check("FetchAnd", a.FetchAnd(0b1010, o), 0b1100, 0b1000)
		check("FetchOr", a.FetchOr(0b0011, o), 0b1000, 0b1011)
		check("FetchXor", a.FetchXor(0b1111, o), 0b1011, 0b0100)
		check("FetchNand", a.FetchNand(0b0110, o), 0b0100, ^uint64(0b0100))
		check("FetchNot", a.FetchNot(o), ^uint64(0b0100), 0b0100)
		check("FetchMax", a.FetchMax(1<<63, o), 0b0100, 1<<63)
		check("FetchMax", a.FetchMax(7, o), 1<<63, 1<<63)
		check("FetchMin", a.FetchMin(7, o), 1<<63, 7)
		check("FetchMin", a.FetchMin(9, o), 7, 7)
	}
}

func TestAtomicInt64_Ops(t *testing.T) {
	for _, o := range rmwOrders {
		a := NewAtomicInt64(-1)
		check := func(name string, got, wantOld, wantNew int64) {
			t.Helper()
			if got != wantOld {
				t.Fatalf("%s(%v) returned %d want %d", name, o, got, wantOld)
			}
			if v := a.Load(SeqCst); v != wantNew {
				t.Fatalf("%s(%v) left %d want %d", name, o, v, wantNew)
			}
		}
		// Signed comparison: -1 is below 1 even though its bits are all set.
		check("FetchMax", a.FetchMax(1, o), -1, 1)
		check("FetchMin", a.FetchMin(-5, o), 1, -5)
		check("FetchMax", a.FetchMax(-7, o), -5, -5)
		check("FetchNeg", a.FetchNeg(o), -5, 5)
		check("FetchSub", a.FetchSub(6, o), 5, -1)
		check("FetchNot", a.FetchNot(o), -1, 0)
		a.Store(math.MaxInt64, SeqCst)
		check("FetchAdd", a.FetchAdd(1, o), math.MaxInt64, math.MinInt64)
		check("FetchNeg", a.FetchNeg(o), math.MinInt64, math.MinInt64)
		check("FetchAnd", a.FetchAnd(-1, o), math.MinInt64, math.MinInt64)
		check("FetchOr", a.FetchOr(1, o), math.MinInt64, math.MinInt64+1)
		check("FetchXor", a.FetchXor(math.MinInt64, o), math.MinInt64+1, 1)
		check("FetchNand", a.FetchNand(1, o), 1, -2)
		check("Swap", a.Swap(3, o), -2, 3)
	}
}

func TestAtomicUint128_Ops(t *testing.T) {
	u := Uint128From64
	maxU := Uint128{Lo: math.MaxUint64, Hi: math.MaxUint64}
	for _, o := range rmwOrders {
		a := NewAtomicUint128(u(10))
		check := func(name string, got, wantOld, wantNew Uint128) {
			t.Helper()
			if got != wantOld {
				t.Fatalf("%s(%v) returned %v want %v", name, o, got, wantOld)
			}
			if v := a.Load(SeqCst); v != wantNew {
				t.Fatalf("%s(%v) left %v want %v", name, o, v, wantNew)
			}
		}
		check("FetchAdd", a.FetchAdd(u(math.MaxUint64), o), u(10), Uint128{Lo: 9, Hi: 1})
		check("FetchSub", a.FetchSub(u(10), o), Uint128{Lo: 9, Hi: 1}, u(math.MaxUint64))
		check("FetchSub", a.FetchSub(Uint128{Hi: 1}, o), u(math.MaxUint64), Uint128{Lo: math.MaxUint64, Hi: math.MaxUint64})
		check("FetchAdd", a.FetchAdd(u(1), o), maxU, Uint128{})
		check("Swap", a.Swap(Uint128{Lo: 0b1100, Hi: 0b1100}, o), Uint128{}, Uint128{Lo: 0b1100, Hi: 0b1100})
		check("FetchAnd", a.FetchAnd(Uint128{Lo: 0b1010, Hi: 0b0110}, o),
			Uint128{Lo: 0b1100, Hi: 0b1100}, Uint128{Lo: 0b1000, Hi: 0b0100})
		check("FetchOr", a.FetchOr(Uint128{Lo: 1, Hi: 1}, o),
			Uint128{Lo: 0b1000, Hi: 0b0100}, Uint128{Lo: 0b1001, Hi: 0b0101})
		check("FetchXor", a.FetchXor(Uint128{Lo: 0b1111}, o),
			Uint128{Lo: 0b1001, Hi: 0b0101}, Uint128{Lo: 0b0110, Hi: 0b0101})
		check("FetchNand", a.FetchNand(maxU, o),
			Uint128{Lo: 0b0110, Hi: 0b0101}, Uint128{Lo: ^uint64(0b0110), Hi: ^uint64(0b0101)})
		check("FetchNot", a.FetchNot(o),
			Uint128{Lo: ^uint64(0b0110), Hi: ^uint64(0b0101)}, Uint128{Lo: 0b0110, Hi: 0b0101})
		check("FetchMax", a.FetchMax(Uint128{Hi: 1 << 63}, o), Uint128{Lo: 0b0110, Hi: 0b0101}, Uint128{Hi: 1 << 63})
		check("FetchMin", a.FetchMin(u(3), o), Uint128{Hi: 1 << 63}, u(3))
		check("FetchMin", a.FetchMin(u(4), o), u(3), u(3))
	}
}

func TestAtomicInt128_Ops(t *testing.T) {
	i := Int128From64
	minI := Int128{Hi: math.MinInt64}
	maxI := Int128{Lo: math.MaxUint64, Hi: math.MaxInt64}
	for _, o := range rmwOrders {
		a := NewAtomicInt128(i(-1))
		check := func(name string, got, wantOld, wantNew Int128) {
			t.Helper()
			if got != wantOld {
				t.Fatalf("%s(%v) returned %v want %v", name, o, got, wantOld)
			}
			if v := a.Load(SeqCst); v != wantNew {
				t.Fatalf("%s(%v) left %v want %v", name, o, v, wantNew)
			}
		}
		check("FetchMax", a.FetchMax(i(1), o), i(-1), i(1))
		check("FetchMin", a.FetchMin(i(-5), o), i(1), i(-5))
		check("FetchMax", a.FetchMax(i(-7), o), i(-5), i(-5))
		check("FetchNeg", a.FetchNeg(o), i(-5), i(5))
		check("FetchSub", a.FetchSub(i(6), o), i(5), i(-1))
		check("FetchNot", a.FetchNot(o), i(-1), i(0))
		check("Swap", a.Swap(maxI, o), i(0), maxI)
		check("FetchAdd", a.FetchAdd(i(1), o), maxI, minI)
		check("FetchNeg", a.FetchNeg(o), minI, minI)
		check("FetchMin", a.FetchMin(i(0), o), minI, minI)
		check("FetchOr", a.FetchOr(i(1), o), minI, Int128{Lo: 1, Hi: math.MinInt64})
		check("FetchXor", a.FetchXor(minI, o), Int128{Lo: 1, Hi: math.MinInt64}, i(1))
		check("FetchAnd", a.FetchAnd(i(3), o), i(1), i(1))
		check("FetchNand", a.FetchNand(i(1), o), i(1), i(-2))
	}
}

func TestCompareExchange_Semantics(t *testing.T) {
	var a AtomicUint64
	var b AtomicUint128
	var c AtomicInt64
	var d AtomicInt128
	for _, s := range rmwOrders {
		for _, f := range loadOrders {
			a.Store(1, SeqCst)
			if cur, ok := a.CompareExchange(2, 3, s, f); ok || cur != 1 {
				t.Fatalf("uint64 mismatch (%v,%v): %d %v", s, f, cur, ok)
			}
			if cur, ok := a.CompareExchangeWeak(1, 3, s, f); !ok || cur != 1 {
				t.Fatalf("uint64 match (%v,%v): %d %v", s, f, cur, ok)
			}

			b.Store(Uint128{Lo: 1, Hi: 1}, SeqCst)
			if cur, ok := b.CompareExchange(Uint128{Lo: 1}, Uint128{}, s, f); ok || cur != (Uint128{Lo: 1, Hi: 1}) {
				t.Fatalf("uint128 mismatch in high word (%v,%v): %v %v", s, f, cur, ok)
			}
			if cur, ok := b.CompareExchangeWeak(Uint128{Lo: 1, Hi: 1}, Uint128{Hi: 9}, s, f); !ok || cur != (Uint128{Lo: 1, Hi: 1}) {
				t.Fatalf("uint128 match (%v,%v): %v %v", s, f, cur, ok)
			}
			if b.Load(SeqCst) != (Uint128{Hi: 9}) {
				t.Fatal("uint128 exchange not stored")
			}

			c.Store(-1, SeqCst)
			if cur, ok := c.CompareExchange(-1, -2, s, f); !ok || cur != -1 || c.Load(SeqCst) != -2 {
				t.Fatalf("int64 (%v,%v): %d %v", s, f, cur, ok)
			}
			if cur, ok := c.CompareExchangeWeak(-1, 0, s, f); ok || cur != -2 {
				t.Fatalf("int64 weak (%v,%v): %d %v", s, f, cur, ok)
			}

			d.Store(Int128From64(-1), SeqCst)
			if cur, ok := d.CompareExchange(Int128From64(-1), Int128From64(7), s, f); !ok || cur != Int128From64(-1) {
				t.Fatalf("int128 (%v,%v): %v %v", s, f, cur, ok)
			}
			if cur, ok := d.CompareExchangeWeak(Int128From64(-1), Int128{}, s, f); ok || cur != Int128From64(7) {
				t.Fatalf("int128 weak (%v,%v): %v %v", s, f, cur, ok)
			}
		}
	}
}

func TestFetchUpdate(t *testing.T) {
	a := NewAtomicUint64(3)
	prev, ok := a.FetchUpdate(SeqCst, Acquire, func(x uint64) (uint64, bool) { return x * 2, true })
	if !ok || prev != 3 || a.Load(Relaxed) != 6 {
		t.Fatalf("uint64 FetchUpdate: prev=%d ok=%v v=%d", prev, ok, a.Load(Relaxed))
	}
	prev, ok = a.FetchUpdate(SeqCst, Relaxed, func(x uint64) (uint64, bool) { return 0, false })
	if ok || prev != 6 || a.Load(Relaxed) != 6 {
		t.Fatalf("declined FetchUpdate: prev=%d ok=%v", prev, ok)
	}

	b := NewAtomicInt128(Int128From64(-4))
	p, ok := b.FetchUpdate(AcqRel, SeqCst, func(x Int128) (Int128, bool) { return x.Neg(), x.Cmp(Int128{}) < 0 })
	if !ok || p != Int128From64(-4) || b.Load(SeqCst) != Int128From64(4) {
		t.Fatalf("int128 FetchUpdate: prev=%v ok=%v", p, ok)
	}
	p, ok = b.FetchUpdate(AcqRel, SeqCst, func(x Int128) (Int128, bool) { return x.Neg(), x.Cmp(Int128{}) < 0 })
	if ok || p != Int128From64(4) {
		t.Fatalf("int128 declined FetchUpdate: prev=%v ok=%v", p, ok)
	}

	c := NewAtomicInt64(-1)
	if p, ok := c.FetchUpdate(Release, Relaxed, func(x int64) (int64, bool) { return x - 1, true }); !ok || p != -1 || c.Load(SeqCst) != -2 {
		t.Fatalf("int64 FetchUpdate: prev=%d ok=%v", p, ok)
	}
	d := NewAtomicUint128(Uint128{Hi: 1})
	if p, ok := d.FetchUpdate(Relaxed, Relaxed, func(x Uint128) (Uint128, bool) { return x.Sub(Uint128From64(1)), true }); !ok || p != (Uint128{Hi: 1}) || d.Load(SeqCst) != Uint128From64(math.MaxUint64) {
		t.Fatalf("uint128 FetchUpdate: prev=%v ok=%v", p, ok)
	}
}

func TestFetchUpdate_Concurrent(t *testing.T) {
	goroutines := runtime.GOMAXPROCS(0) * 2
	iterations := 2000
	if opt.Race_ || testing.Short() {
		iterations = 200
	}
	var a AtomicUint128
	var g errgroup.Group
	for range goroutines {
		g.Go(func() error {
			for range iterations {
				a.FetchUpdate(SeqCst, SeqCst, func(x Uint128) (Uint128, bool) {
					// f may use the cell itself: no stripe is held here.
					_ = a.Load(Relaxed)
					return x.Add(Uint128From64(1)), true
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if v := a.Load(SeqCst); v != Uint128From64(uint64(goroutines*iterations)) {
		t.Fatalf("got %v want %d", v, goroutines*iterations)
	}
}

func TestNoLostUpdates(t *testing.T) {
	goroutines := runtime.GOMAXPROCS(0) * 2
	iterations := 10000
	if opt.Race_ || testing.Short() {
		iterations = 1000
	}

	var u64 AtomicUint64
	var i64 AtomicInt64
	var u128 AtomicUint128
	var i128 AtomicInt128
	u128.Store(Uint128{Lo: math.MaxUint64 - 100}, SeqCst)

	var g errgroup.Group
	for w := range goroutines {
		g.Go(func() error {
			for range iterations {
				u64.FetchAdd(2, AcqRel)
				u64.FetchSub(1, Relaxed)
				i64.FetchSub(1, SeqCst)
				u128.FetchAdd(Uint128From64(1), Relaxed)
				if w%2 == 0 {
					i128.FetchAdd(Int128From64(-1), SeqCst)
				} else {
					i128.FetchSub(Int128From64(-1), SeqCst)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	n := uint64(goroutines * iterations)
	if v := u64.Load(SeqCst); v != n {
		t.Fatalf("uint64=%d want %d", v, n)
	}
	if v := i64.Load(SeqCst); v != -int64(n) {
		t.Fatalf("int64=%d want %d", v, -int64(n))
	}
	if v, want := u128.Load(SeqCst), (Uint128{Lo: math.MaxUint64 - 100}).Add(Uint128From64(n)); v != want {
		t.Fatalf("uint128=%v want %v", v, want)
	}
	if v := i128.Load(SeqCst); v != (Int128{}) {
		t.Fatalf("int128=%v want 0", v)
	}
}

// TestCompareExchange_AfterBarrier: store 10, FetchAdd 5 on one goroutine,
// then after a barrier another goroutine's CompareExchange(15, 100) wins.
func TestCompareExchange_AfterBarrier(t *testing.T) {
	var a AtomicUint64
	var b AtomicUint128
	a.Store(10, SeqCst)
	b.Store(Uint128From64(10), SeqCst)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.FetchAdd(5, SeqCst)
		b.FetchAdd(Uint128From64(5), SeqCst)
	}()
	wg.Wait()

	done := make(chan error)
	go func() {
		if cur, ok := a.CompareExchange(15, 100, SeqCst, SeqCst); !ok {
			done <- errors.New("uint64 exchange failed at " + Uint128From64(cur).String())
			return
		}
		if cur, ok := b.CompareExchange(Uint128From64(15), Uint128From64(100), SeqCst, SeqCst); !ok {
			done <- errors.New("uint128 exchange failed at " + cur.String())
			return
		}
		done <- nil
	}()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if a.Load(SeqCst) != 100 || b.Load(SeqCst) != Uint128From64(100) {
		t.Fatal("exchange not visible")
	}
}

// TestCompareExchange_Unsynchronized drops the barrier: the exchange either
// sees the add and succeeds, or fails and reports 10.
func TestCompareExchange_Unsynchronized(t *testing.T) {
	rounds := 2000
	if opt.Race_ || testing.Short() {
		rounds = 200
	}
	for range rounds {
		var b AtomicUint128
		b.Store(Uint128From64(10), SeqCst)

		var g errgroup.Group
		g.Go(func() error {
			b.FetchAdd(Uint128From64(5), SeqCst)
			return nil
		})
		var cur Uint128
		var ok bool
		g.Go(func() error {
			cur, ok = b.CompareExchange(Uint128From64(15), Uint128From64(100), SeqCst, Acquire)
			return nil
		})
		_ = g.Wait()

		final := b.Load(SeqCst)
		switch {
		case ok && final == Uint128From64(100):
		case !ok && cur == Uint128From64(10) && final == Uint128From64(15):
		default:
			t.Fatalf("ok=%v cur=%v final=%v", ok, cur, final)
		}
	}
}

func TestNoTornReads128(t *testing.T) {
	iterations := 20000
	if opt.Race_ || testing.Short() {
		iterations = 2000
	}
	var a AtomicUint128
	var g errgroup.Group
	for w := range 4 {
		g.Go(func() error {
			x := uint64(w) << 56
			for range iterations {
				x++
				a.Store(Uint128{Lo: x, Hi: ^x}, Release)
			}
			return nil
		})
	}
	for range 4 {
		g.Go(func() error {
			for range iterations {
				v := a.Load(Acquire)
				if v != (Uint128{}) && v.Hi != ^v.Lo {
					return errors.New("torn read: " + v.String())
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestNativeMatchesFallback replays the same operations through the
// native 128-bit instruction and through the seqlock cell.
func TestNativeMatchesFallback(t *testing.T) {
	if !use128() {
		t.Skip("no native 128-bit compare-and-swap on this CPU")
	}
	steps := []func(Uint128) Uint128{
		func(x Uint128) Uint128 { return x.Add(Uint128From64(math.MaxUint64)) },
		func(x Uint128) Uint128 { return x.Sub(Uint128{Lo: 3, Hi: 7}) },
		func(x Uint128) Uint128 { return x.Xor(Uint128{Lo: 0xf0f0, Hi: 1 << 63}) },
		Uint128.Not,
		func(x Uint128) Uint128 { return x.And(Uint128{Lo: math.MaxUint32, Hi: math.MaxUint64}) },
	}
	var na AtomicUint128
	var fb lockedCell[Uint128]
	for i, f := range steps {
		n := rmw128(na.ptr(), f)
		l := fb.update(f)
		if n != l {
			t.Fatalf("step %d: native old %v, fallback old %v", i, n, l)
		}
		nv := nativeCAS128(na.ptr(), Uint128{}, Uint128{})
		if lv := fb.load(); nv != lv {
			t.Fatalf("step %d: native %v, fallback %v", i, nv, lv)
		}
	}

	cur := fb.load()
	nPrev := nativeCAS128(na.ptr(), cur.Add(Uint128From64(1)), Uint128{})
	lPrev, lok := fb.compareExchange(cur.Add(Uint128From64(1)), Uint128{})
	if nPrev != lPrev || lok {
		t.Fatalf("failed exchange: native %v, fallback %v %v", nPrev, lPrev, lok)
	}
	nPrev = nativeCAS128(na.ptr(), cur, Uint128{Hi: 1})
	lPrev, lok = fb.compareExchange(cur, Uint128{Hi: 1})
	if nPrev != lPrev || !lok {
		t.Fatalf("exchange: native %v, fallback %v %v", nPrev, lPrev, lok)
	}
}

func TestAtomic64MatchesFallback(t *testing.T) {
	var a AtomicUint64
	var fb lockedCell[uint64]
	steps := []struct {
		op func(uint64) uint64
		fb func(uint64) uint64
	}{
		{func(v uint64) uint64 { return a.FetchAdd(v, SeqCst) }, func(x uint64) uint64 { return x + 0xdead }},
		{func(v uint64) uint64 { return a.FetchXor(v, SeqCst) }, func(x uint64) uint64 { return x ^ 0xdead }},
		{func(v uint64) uint64 { return a.FetchSub(v, SeqCst) }, func(x uint64) uint64 { return x - 0xdead }},
		{func(v uint64) uint64 { return a.FetchOr(v, SeqCst) }, func(x uint64) uint64 { return x | 0xdead }},
		{func(v uint64) uint64 { return a.FetchNand(v, SeqCst) }, func(x uint64) uint64 { return ^(x & 0xdead) }},
		{func(v uint64) uint64 { return a.FetchAnd(v, SeqCst) }, func(x uint64) uint64 { return x & 0xdead }},
	}
	for i, s := range steps {
		if got, want := s.op(0xdead), fb.update(s.fb); got != want {
			t.Fatalf("step %d: old %#x, fallback old %#x", i, got, want)
		}
		if got, want := a.Load(SeqCst), fb.load(); got != want {
			t.Fatalf("step %d: %#x, fallback %#x", i, got, want)
		}
	}
}
