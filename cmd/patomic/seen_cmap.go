//go:build race || !(amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || wasm)

package main

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/llxisdsh/patomic"
)

// seenSet records the previous values returned by the increments.
// pb.MapOf does not build on 32-bit ports and its unfenced loads trip the
// race detector, so these builds use a sharded RWMutex map.
type seenSet struct {
	m cmap.ConcurrentMap[patomic.Uint128, struct{}]
}

func newSeenSet() *seenSet {
	return &seenSet{m: cmap.NewWithCustomShardingFunction[patomic.Uint128, struct{}](func(v patomic.Uint128) uint32 {
		x := v.Lo ^ v.Hi
		return uint32(x ^ x>>32)
	})}
}

// add reports whether v was not yet recorded.
func (s *seenSet) add(v patomic.Uint128) bool {
	return s.m.SetIfAbsent(v, struct{}{})
}
