//go:build !race && (amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || wasm)

package patomic

import (
	"github.com/llxisdsh/pb"
)

// valueSet is a concurrent set of observed values.
type valueSet[K comparable] struct {
	m pb.MapOf[K, struct{}]
}

func newValueSet[K comparable](func(K) uint32) *valueSet[K] {
	return &valueSet[K]{}
}

// add reports whether k was not yet present.
func (s *valueSet[K]) add(k K) bool {
	_, loaded := s.m.LoadOrStore(k, struct{}{})
	return !loaded
}

func (s *valueSet[K]) each(f func(K)) {
	s.m.Range(func(k K, _ struct{}) bool {
		f(k)
		return true
	})
}

func (s *valueSet[K]) size() int {
	return s.m.Size()
}
