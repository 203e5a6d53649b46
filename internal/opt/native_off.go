//go:build patomic_no_native

package opt

const NoNative_ = true
