//go:build amd64

package cpuinfo

import "golang.org/x/sys/cpu"

// x/sys/cpu executes CPUID once during package initialization; reading
// its flags costs no further instruction.
func probe() Features {
	var f Features
	if cpu.X86.HasCX16 {
		f |= CAS128
	}
	if cpu.X86.HasAVX {
		f |= AVX
	}
	return f
}
