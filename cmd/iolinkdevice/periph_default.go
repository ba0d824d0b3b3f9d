//go:build !tinygo

package main

import "github.com/boardlink/iolinkd/devicehal"

// outputPins and inputPins name the GPIO lines this board binds to, using
// the pin naming periph.io's gpioreg expects (e.g. "GPIO17" on a Raspberry
// Pi). Adjust to match the target board's wiring.
var outputPins = [16]string{
	"GPIO0", "GPIO1", "GPIO2", "GPIO3", "GPIO4", "GPIO5", "GPIO6", "GPIO7",
	"GPIO8", "GPIO9", "GPIO10", "GPIO11", "GPIO12", "GPIO13", "GPIO14", "GPIO15",
}

var inputPins = [8]string{
	"GPIO16", "GPIO17", "GPIO18", "GPIO19", "GPIO20", "GPIO21", "GPIO22", "GPIO23",
}

func newPeriphHAL() (*devicehal.Periph, error) {
	return devicehal.NewPeriph(outputPins, inputPins)
}
