package patomic

import "strconv"

// Ordering is the memory ordering requested for an atomic operation.
//
// Every cell honours the request or something stronger: the seqlock
// fallback and the native 128-bit instructions are sequentially
// consistent, so weaker requests are silently upgraded. An ordering that
// is illegal for the operation class panics with *OrderingError before
// the cell is touched.
type Ordering uint8

const (
	// Relaxed guarantees atomicity only.
	Relaxed Ordering = iota
	// Acquire orders later accesses after the load.
	Acquire
	// Release orders earlier accesses before the store.
	Release
	// AcqRel is Acquire for the load half and Release for the store half.
	AcqRel
	// SeqCst participates in a single total order.
	SeqCst
)

func (o Ordering) String() string {
	switch o {
	case Relaxed:
		return "Relaxed"
	case Acquire:
		return "Acquire"
	case Release:
		return "Release"
	case AcqRel:
		return "AcqRel"
	case SeqCst:
		return "SeqCst"
	}
	return "Ordering(" + strconv.Itoa(int(o)) + ")"
}

func (o Ordering) valid() bool {
	return o <= SeqCst
}

// OrderingError is the panic value for an ordering that is illegal for the
// operation it was passed to. It is a programming error; there is no
// recovery path in the library.
type OrderingError struct {
	Op      string
	Success Ordering
	// Failure is only meaningful for compare-exchange.
	Failure Ordering
}

func (e *OrderingError) Error() string {
	if e.Op == "compare_exchange" {
		return "patomic: invalid orderings for compare_exchange: success=" +
			e.Success.String() + " failure=" + e.Failure.String()
	}
	return "patomic: invalid ordering for " + e.Op + ": " + e.Success.String()
}

// checkLoad rejects Release and AcqRel.
func checkLoad(o Ordering) {
	switch o {
	case Relaxed, Acquire, SeqCst:
		return
	}
	panic(&OrderingError{Op: "load", Success: o})
}

// checkStore rejects Acquire and AcqRel.
func checkStore(o Ordering) {
	switch o {
	case Relaxed, Release, SeqCst:
		return
	}
	panic(&OrderingError{Op: "store", Success: o})
}

// checkRMW accepts every defined ordering.
func checkRMW(op string, o Ordering) {
	if !o.valid() {
		panic(&OrderingError{Op: op, Success: o})
	}
}

// checkCompareExchange accepts any defined success ordering; the failure
// ordering is a load and therefore rejects Release and AcqRel.
func checkCompareExchange(success, failure Ordering) {
	if success.valid() {
		switch failure {
		case Relaxed, Acquire, SeqCst:
			return
		}
	}
	panic(&OrderingError{Op: "compare_exchange", Success: success, Failure: failure})
}
