// Package host implements the host (daemon) side of the link: per-output
// set/read/pulse reconciliation against waiter queues, per-input caching,
// retry timers, and the full (re)initialization sequence (spec §4.7-§4.8,
// §5). A Link owns exactly one serial file descriptor for its whole life;
// all state is touched only from the goroutine running Link.Run, so no
// field needs a lock — the Go translation of "single-threaded cooperative
// event loop" spec §5 calls for.
package host

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/boardlink/iolinkd/device"
	"github.com/boardlink/iolinkd/wire"
)

const (
	setRetryInterval      = time.Second
	readRetryInterval     = time.Second
	pulseShortRetryPeriod = time.Second
	pulseLongRetryPeriod  = 10 * time.Second
)

// Pulse kinds in flight for an output, per spec §3's pulse_pending field.
const (
	pulseIdle = iota
	pulseShortInFlight
	pulseLongInFlight
)

type outputEntry struct {
	state            bool
	statePending     bool
	stateReadPending bool
	pulsePending     int

	setWaiters   []chan struct{}
	readWaiters  []chan bool
	pulseWaiters []chan struct{}

	setTimer   *time.Timer
	readTimer  *time.Timer
	pulseTimer *time.Timer
}

type inputEntry struct {
	state bool
}

// flusher is implemented by transports (e.g. *tarm/serial.Port, see package
// serialport) that can discard unread/unwritten buffered bytes. Link uses it
// opportunistically during (re)init, matching spec §4.8's "flush both serial
// queues" — a plain io.ReadWriteCloser without it is still fully usable.
type flusher interface {
	Flush() error
}

// Link is one host-side device connection.
type Link struct {
	conn io.ReadWriteCloser
	log  *zap.SugaredLogger

	outputs [device.NumOutputs]outputEntry
	inputs  [device.NumInputs]inputEntry

	requests chan request
	rxBytes  chan byte
	retries  chan retryEvent

	readErr chan error
}

// New constructs a Link bound to conn, which must already be open and
// configured (spec §1: serial configuration is an external collaborator).
// Pass a nil logger to disable logging.
func New(conn io.ReadWriteCloser, log *zap.SugaredLogger) *Link {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Link{
		conn:     conn,
		log:      log,
		requests: make(chan request),
		rxBytes:  make(chan byte, 64),
		retries:  make(chan retryEvent, 64),
		readErr:  make(chan error, 1),
	}
}

// Open performs the seed-read-then-init sequence spec §4.8 and its
// original_source supplement describe: queue an initial read for every
// output before sending the magic init string, so a fresh connection never
// clobbers an output the host hasn't yet learned the true value of.
func (l *Link) Open() {
	for i := 0; i < device.NumOutputs; i++ {
		l.queueRead(i)
	}
	l.reinit()
}

func (l *Link) send(f wire.Frame) error {
	_, err := l.conn.Write([]byte{byte(f)})
	return err
}

// reinit implements spec §4.8: flush both queues, (re)send the magic init
// string, and push the host's believed value for every output that isn't
// already waiting on a fresh read.
func (l *Link) reinit() {
	if fl, ok := l.conn.(flusher); ok {
		if err := fl.Flush(); err != nil {
			l.log.Debugw("flush before reinit failed", "error", err)
		}
	}
	if _, err := l.conn.Write([]byte(wire.MagicInit)); err != nil {
		l.log.Errorw("write magic init failed", "error", err)
		return
	}
	for i := 0; i < device.NumOutputs; i++ {
		if !l.outputs[i].stateReadPending {
			l.queueSet(i)
		}
	}
}
