// Package cpuinfo probes the atomic-relevant capabilities of the running
// CPU and caches the result for the lifetime of the process.
package cpuinfo

import (
	"strings"
	"sync/atomic"
)

// Features is a bitmask of hardware atomic capabilities.
type Features uint32

const (
	// CAS128 reports a native 128-bit compare-and-swap
	// (x86-64 CMPXCHG16B, aarch64 CASP from FEAT_LSE).
	CAS128 Features = 1 << iota
	// LSE reports aarch64 FEAT_LSE (ARMv8.1 atomics).
	LSE
	// LSE2 reports aarch64 FEAT_LSE2 (single-copy atomic 128-bit LDP/STP).
	LSE2
	// AVX reports x86 AVX. Reported only; no cell depends on it.
	AVX

	// initialized marks a populated cache word, so that a probed mask of
	// zero is distinguishable from "not probed yet".
	initialized Features = 1 << 31
)

var names = [...]struct {
	f    Features
	name string
}{
	{CAS128, "cas128"},
	{LSE, "lse"},
	{LSE2, "lse2"},
	{AVX, "avx"},
}

// String returns the feature names joined by '+', or "none".
func (f Features) String() string {
	var sb strings.Builder
	for _, n := range names {
		if f&n.f == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(n.name)
	}
	if sb.Len() == 0 {
		return "none"
	}
	return sb.String()
}

// Names returns the names of the features set in f.
func (f Features) Names() []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if f&n.f != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

var cache atomic.Uint32

// Detect returns the cached feature mask, probing on first use.
//
// Concurrent first callers may each run the probe. The probe is pure, so
// they all store the same word, and a reader can only ever observe either
// a zero word (not yet probed) or the complete mask.
func Detect() Features {
	if f := Features(cache.Load()); f&initialized != 0 {
		return f &^ initialized
	}
	return detectSlow()
}

func detectSlow() Features {
	f := probe() &^ initialized
	cache.Store(uint32(f | initialized))
	return f
}

// Has reports whether every feature in want is present.
func Has(want Features) bool {
	return Detect()&want == want
}

// Probe runs the platform probe directly, bypassing the cache.
func Probe() Features {
	return probe() &^ initialized
}
