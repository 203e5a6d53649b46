//go:build arm64 && (linux || android)

package cpuinfo

import (
	_ "unsafe" // for linkname
)

// https://github.com/torvalds/linux/blob/HEAD/include/uapi/linux/auxvec.h
const _AT_HWCAP = 16

// https://github.com/torvalds/linux/blob/HEAD/arch/arm64/include/uapi/asm/hwcap.h
const (
	hwcapATOMICS = 1 << 8
	hwcapUSCAT   = 1 << 25
)

// The runtime keeps the auxiliary vector the kernel handed to the process
// and exports it for golang.org/x/sys/cpu. Reading it needs no system call
// and cannot fail, unlike getauxval, which is not reliably linked on every
// libc.
//
// nolint:all
//
//go:linkname runtime_getAuxv runtime.getAuxv
//goland:noinspection ALL
func runtime_getAuxv() []uintptr

func probe() Features {
	return parseHWCAP(hwcapFromAuxv(runtime_getAuxv()))
}

func hwcapFromAuxv(auxv []uintptr) uint64 {
	for i := 0; i+1 < len(auxv); i += 2 {
		if auxv[i] == _AT_HWCAP {
			return uint64(auxv[i+1])
		}
	}
	return 0
}

func parseHWCAP(hwcap uint64) Features {
	var f Features
	if hwcap&hwcapATOMICS != 0 {
		f |= LSE | CAS128
	}
	if hwcap&hwcapUSCAT != 0 {
		f |= LSE2
	}
	return f
}
