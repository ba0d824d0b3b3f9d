package devicehal

import "sync"

// Memory is an in-memory simulated bank of 16 outputs and 8 inputs. It is
// used by device package tests and by cmd/iolinkdevice's -simulate mode,
// where there is no physical board attached.
type Memory struct {
	mu      sync.Mutex
	outputs [16]bool
	inputs  [8]bool
}

// NewMemory returns a Memory HAL with every line initialized low.
func NewMemory() *Memory {
	return &Memory{}
}

// SetLine implements OutputDriver.
func (m *Memory) SetLine(i int, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[i] = high
}

// OutputLine reports the last value SetLine was called with for output i.
// Intended for tests that want to observe what the device drove onto the
// simulated line.
func (m *Memory) OutputLine(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outputs[i]
}

// SampleLine implements InputSampler.
func (m *Memory) SampleLine(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[i]
}

// SetInput sets the simulated level of input line i, as if external wiring
// had changed it. The device's next Tick will observe the new value.
func (m *Memory) SetInput(i int, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[i] = high
}
