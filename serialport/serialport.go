// Package serialport opens the physical serial connection to the I/O board
// (spec.md §1, §6: "a dedicated serial link... out of scope for this
// specification" — the transport itself is an external collaborator; this
// package is that collaborator's concrete binding).
package serialport

import (
	"io"
	"time"

	"github.com/tarm/serial"
)

// Baud is the link's fixed bit rate: 9600 8N1, no flow control, matching the
// board firmware's UART configuration.
const Baud = 9600

// ReadTimeout bounds how long a Read blocks with no bytes available, so the
// host package's reader goroutine can still observe a closed connection in
// bounded time.
const ReadTimeout = 500 * time.Millisecond

// Open opens dev (e.g. "/dev/ttyUSB0" or "COM3") at the link's fixed
// parameters and returns it ready for use by host.Link.
func Open(dev string) (io.ReadWriteCloser, error) {
	cfg := &serial.Config{
		Name:        dev,
		Baud:        Baud,
		ReadTimeout: ReadTimeout,
	}
	return serial.OpenPort(cfg)
}
