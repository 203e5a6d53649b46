//go:build race || !(amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || wasm)

package patomic

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// valueSet is a concurrent set of observed values. pb.MapOf does not build
// on 32-bit ports and uses unfenced loads the race detector reports, so
// these builds use a sharded RWMutex map.
type valueSet[K comparable] struct {
	m cmap.ConcurrentMap[K, struct{}]
}

func newValueSet[K comparable](shard func(K) uint32) *valueSet[K] {
	return &valueSet[K]{m: cmap.NewWithCustomShardingFunction[K, struct{}](shard)}
}

// add reports whether k was not yet present.
func (s *valueSet[K]) add(k K) bool {
	return s.m.SetIfAbsent(k, struct{}{})
}

func (s *valueSet[K]) each(f func(K)) {
	s.m.IterCb(func(k K, _ struct{}) {
		f(k)
	})
}

func (s *valueSet[K]) size() int {
	return s.m.Count()
}
