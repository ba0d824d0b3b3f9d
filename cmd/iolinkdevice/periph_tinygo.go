//go:build tinygo

package main

import (
	"errors"

	"github.com/boardlink/iolinkd/devicehal"
)

// A tinygo build has no periph.io host to attach to; a real microcontroller
// target should wire its own devicehal.HAL implementation in here instead.
func newPeriphHAL() (devicehal.HAL, error) {
	return nil, errors.New("iolinkdevice: no GPIO backend wired for this tinygo target; use -simulate")
}
