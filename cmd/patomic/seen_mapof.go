//go:build !race && (amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || wasm)

package main

import (
	"github.com/llxisdsh/pb"

	"github.com/llxisdsh/patomic"
)

// seenSet records the previous values returned by the increments.
type seenSet struct {
	m pb.MapOf[patomic.Uint128, struct{}]
}

func newSeenSet() *seenSet {
	return &seenSet{}
}

// add reports whether v was not yet recorded.
func (s *seenSet) add(v patomic.Uint128) bool {
	_, loaded := s.m.LoadOrStore(v, struct{}{})
	return !loaded
}
