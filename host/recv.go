package host

import (
	"github.com/boardlink/iolinkd/wire"
)

// handleFrame dispatches one device->host byte per spec §4.7's receive
// table. It runs only on the Link.Run goroutine.
func (l *Link) handleFrame(b byte) {
	l.log.Debugw("recv", "byte", b)

	if b == byte(wire.ErrorReset) {
		l.log.Infow("device signalled resync", "byte", b)
		l.reinit()
		return
	}
	if b == byte(wire.HandshakeComplete) {
		// The device's state dump follows on its own; nothing to resend.
		l.log.Infow("device handshake complete", "byte", b)
		return
	}

	f, err := wire.DecodeDeviceToHost(b)
	if err != nil {
		l.log.Warnw("malformed byte from device, resyncing", "error", err)
		l.reinit()
		return
	}

	op := f.Opcode()
	i := f.Index()

	switch op {
	case wire.OpPulseStarted:
		// Acknowledges the command landed; completion is reported by
		// OpPulseFinished. No waiter state changes here.
	case wire.OpPulseFinished:
		l.completePulseWaiters(i)
	case wire.OpOutputState, 0x30:
		l.handleOutputState(i, f.Bit(4))
	case wire.OpWatchdogEvent:
		l.log.Debugw("watchdog event", "sub", i)
	case wire.OpInputChanged:
		l.handleInputChanged(f.InputIndex(), f.Bit(3))
	default:
		l.log.Warnw("unhandled device opcode, resyncing", "opcode", op)
		l.reinit()
	}
}

// handleOutputState reconciles a reported output state against the host's
// intended value, per spec §4.7 "Set"/"Read" resolution rules.
func (l *Link) handleOutputState(i int, reported bool) {
	entry := &l.outputs[i]

	if entry.stateReadPending {
		// This is the answer to an in-flight read: report the new intended
		// value if one has since been requested (spec §4.7 explicitly calls
		// for completing the read with the new v, not the stale device
		// report), otherwise report what the device just told us.
		value := reported
		if entry.statePending {
			value = entry.state
		} else {
			entry.state = reported
		}
		waiters := entry.readWaiters
		entry.readWaiters = nil
		entry.stateReadPending = false
		if entry.readTimer != nil {
			entry.readTimer.Stop()
		}
		for _, w := range waiters {
			w <- value
		}
		return
	}

	if entry.statePending && reported == entry.state {
		l.completeSetWaiters(i)
		return
	}

	if !entry.statePending && reported != entry.state {
		// Unsolicited report that disagrees with the host's own intended
		// value (e.g. a resync dump after the device re-handshakes): reassert
		// it rather than adopting the device's report.
		l.queueSet(i)
	}
}

// handleInputChanged updates the cached input value and acks it so the
// device stops retrying (spec §4.7 "Input").
func (l *Link) handleInputChanged(i int, value bool) {
	l.inputs[i].state = value
	l.send(wire.InputAck(i, value))
}
