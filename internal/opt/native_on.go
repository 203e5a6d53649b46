//go:build !patomic_no_native

package opt

// NoNative_ disables every hardware atomic path when true, so that all
// cells go through the seqlock fallback.
// Use: go build -tags=patomic_no_native
const NoNative_ = false
