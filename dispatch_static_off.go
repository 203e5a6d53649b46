//go:build !(amd64.v2 || arm64.v8.1)

package patomic

const always128 = false
