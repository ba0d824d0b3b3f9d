package host

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/boardlink/iolinkd/wire"
)

type retryKind int

const (
	retrySet retryKind = iota
	retryRead
	retryPulse
)

type retryEvent struct {
	kind retryKind
	i    int
}

// retryFunc returns a callback suitable for time.AfterFunc that posts a
// retryEvent back onto the Link's own goroutine; the timer callback itself
// never touches Link state directly (spec §5: all mutation happens on the
// single owning goroutine).
func (l *Link) retryFunc(kind retryKind, i int) func() {
	return func() {
		select {
		case l.retries <- retryEvent{kind: kind, i: i}:
		default:
			// Run has exited; dropping is safe, nothing left to retry for.
		}
	}
}

func (l *Link) handleRetry(ev retryEvent) {
	switch ev.kind {
	case retrySet:
		entry := &l.outputs[ev.i]
		if !entry.statePending {
			return
		}
		l.send(wire.SetOutput(ev.i, entry.state))
		entry.setTimer.Reset(setRetryInterval)
	case retryRead:
		entry := &l.outputs[ev.i]
		if !entry.stateReadPending {
			return
		}
		l.send(wire.ReadOutput(ev.i))
		entry.readTimer.Reset(readRetryInterval)
	case retryPulse:
		entry := &l.outputs[ev.i]
		if entry.pulsePending == pulseIdle {
			return
		}
		period := pulseShortRetryPeriod
		frame := wire.PulseShort(ev.i)
		if entry.pulsePending == pulseLongInFlight {
			period = pulseLongRetryPeriod
			frame = wire.PulseLong(ev.i)
		}
		l.send(frame)
		entry.pulseTimer.Reset(period)
	}
}

// readLoop runs in its own goroutine for the life of the Link, feeding
// rxBytes from conn. It exits (and signals via readErr) when conn is closed
// or returns a non-EOF, non-idle error.
//
// tarm/serial's ReadTimeout makes the underlying Read return (0, nil) on
// every idle timeout. bufio.Reader.fill treats a run of such zero-byte reads
// as bufio.ErrNoProgress — reachable after merely ReadTimeout * 100 of a
// quiet but perfectly healthy wire (no pulses, no input changes, no RPC
// traffic). That is not a link failure spec.md's error handling anticipates,
// so it is swallowed here and the read retried rather than surfaced through
// readErr.
func (l *Link) readLoop() {
	r := bufio.NewReaderSize(l.conn, 64)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, bufio.ErrNoProgress) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				l.readErr <- err
			}
			close(l.rxBytes)
			return
		}
		l.rxBytes <- b
	}
}

// Run is the cooperative event loop spec §5 calls for: one goroutine owns
// every field on Link, fed by the reader goroutine (serial bytes), retry
// timers, and incoming RPC requests. It returns when ctx is cancelled or the
// underlying connection is closed/erroring.
func (l *Link) Run(ctx context.Context) error {
	l.Open()
	go l.readLoop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-l.rxBytes:
			if !ok {
				select {
				case err := <-l.readErr:
					return err
				default:
					return io.ErrClosedPipe
				}
			}
			l.handleFrame(b)
		case ev := <-l.retries:
			l.handleRetry(ev)
		case req := <-l.requests:
			l.handleRequest(req)
		}
	}
}
