//go:build amd64.v2 || arm64.v8.1

package patomic

// GOAMD64=v2 guarantees CMPXCHG16B and GOARM64=v8.1 guarantees FEAT_LSE,
// so the run-time bit test folds away.
const always128 = true
