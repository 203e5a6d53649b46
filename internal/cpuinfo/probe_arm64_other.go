//go:build arm64 && !(linux || android)

package cpuinfo

import "golang.org/x/sys/cpu"

// Outside Linux the kernel capability vector is not reachable; x/sys/cpu
// resolves ATOMICS from sysctl (darwin, *bsd) or the ID registers.
func probe() Features {
	if cpu.ARM64.HasATOMICS {
		return LSE | CAS128
	}
	return 0
}
