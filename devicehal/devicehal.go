// Package devicehal defines the hardware abstraction boundary between the
// device-side protocol logic (package device) and the physical output/input
// lines it drives and samples. This mirrors the minimal single-method
// hardware interfaces used across the Type-C driver stack this module is
// descended from (one capability per interface, many backends).
package devicehal

// OutputDriver drives the 16 digital output lines. SetLine must be safe to
// call from whichever goroutine owns the device tick loop; it is never
// called concurrently by this module.
type OutputDriver interface {
	// SetLine sets output line i (0..15) to high or low.
	SetLine(i int, high bool)
}

// InputSampler samples the 8 digital input lines.
type InputSampler interface {
	// SampleLine returns the current level of input line i (0..7).
	SampleLine(i int) bool
}

// HAL bundles both halves of the device-side hardware boundary.
type HAL interface {
	OutputDriver
	InputSampler
}
