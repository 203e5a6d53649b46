//go:build !amd64 && !arm64

package patomic

import "runtime"

const hasNative128 = false

func nativeCAS128(*Uint128, Uint128, Uint128) Uint128 {
	panic("patomic: no native 128-bit compare-and-swap on " + runtime.GOARCH)
}
