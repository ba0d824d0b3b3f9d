//go:build !tinygo

package devicehal

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph drives real GPIO pins via periph.io, standing in for the
// microcontroller's GPIOA/GPIOB output banks and GPIOC input bank. It is
// used when cmd/iolinkdevice runs on a host with real wiring (e.g. a
// Raspberry Pi bridging to the same 16 output / 8 input lines the original
// firmware drove directly).
type Periph struct {
	outputs [16]gpio.PinIO
	inputs  [8]gpio.PinIO
}

// NewPeriph initializes periph.io's host drivers and resolves the given pin
// names to GPIO handles. outNames and inNames must have length 16 and 8
// respectively, in line-index order.
func NewPeriph(outNames [16]string, inNames [8]string) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("devicehal: periph host init: %w", err)
	}
	p := &Periph{}
	for i, name := range outNames {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("devicehal: unknown output pin %q (line %d)", name, i)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("devicehal: configure output pin %q: %w", name, err)
		}
		p.outputs[i] = pin
	}
	for i, name := range inNames {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("devicehal: unknown input pin %q (line %d)", name, i)
		}
		if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("devicehal: configure input pin %q: %w", name, err)
		}
		p.inputs[i] = pin
	}
	return p, nil
}

// SetLine implements OutputDriver.
func (p *Periph) SetLine(i int, high bool) {
	lvl := gpio.Low
	if high {
		lvl = gpio.High
	}
	_ = p.outputs[i].Out(lvl)
}

// SampleLine implements InputSampler.
func (p *Periph) SampleLine(i int) bool {
	return p.inputs[i].Read() == gpio.High
}
