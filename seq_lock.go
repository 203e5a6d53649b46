package patomic

import (
	"sync/atomic"
)

// seqLock is a sequence lock guarding the cells that hash to one stripe
// of the lock table.
//
// Even counter: unlocked, the protected words are consistent.
// Odd counter: a writer holds the stripe.
//
// The counter is 64 bits on every target, so an optimistic reader cannot
// be fooled by the counter wrapping around while it is descheduled.
type seqLock atomic.Uint64

// BeginRead starts an optimistic read.
// It returns the current sequence number and true if no writer is active.
//
//go:nosplit
func (l *seqLock) BeginRead() (s1 uint64, ok bool) {
	s1 = (*atomic.Uint64)(l).Load()
	return s1, s1&1 == 0
}

// EndRead validates an optimistic read started by BeginRead.
// It returns true if no writer entered the stripe in between.
//
//go:nosplit
func (l *seqLock) EndRead(s1 uint64) (ok bool) {
	return (*atomic.Uint64)(l).Load() == s1
}

// BeginWrite tries once to take the stripe by moving the sequence to odd.
// It returns the previous (even) sequence number and true on success.
//
//go:nosplit
func (l *seqLock) BeginWrite() (s1 uint64, ok bool) {
	s1 = (*atomic.Uint64)(l).Load()
	if s1&1 != 0 {
		return s1, false
	}
	return s1, (*atomic.Uint64)(l).CompareAndSwap(s1, s1|1)
}

// Lock takes the stripe exclusively, spinning until it is free.
// The returned sequence must be passed to EndWrite or AbortWrite.
func (l *seqLock) Lock() (s1 uint64) {
	if s1, ok := l.BeginWrite(); ok {
		return s1
	}
	return l.lockSlow()
}

func (l *seqLock) lockSlow() uint64 {
	var spins int
	for {
		if s1, ok := l.BeginWrite(); ok {
			return s1
		}
		delay(&spins)
	}
}

// EndWrite releases the stripe and publishes a new even sequence,
// invalidating every optimistic read that overlapped the write.
//
//go:nosplit
func (l *seqLock) EndWrite(s1 uint64) {
	(*atomic.Uint64)(l).Store(s1 + 2)
}

// AbortWrite releases the stripe without advancing the sequence.
// Only valid when the holder did not modify any protected word; readers
// that overlapped the critical section still validate.
//
//go:nosplit
func (l *seqLock) AbortWrite(s1 uint64) {
	(*atomic.Uint64)(l).Store(s1)
}

// Locked reports whether a writer currently holds the stripe.
//
//go:nosplit
func (l *seqLock) Locked() bool {
	return (*atomic.Uint64)(l).Load()&1 != 0
}
