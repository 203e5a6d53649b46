//go:build race

package opt

// Race_ reports that the race detector is enabled. Tests use it to scale
// down stress loops, which run an order of magnitude slower instrumented.
const Race_ = true
