package device

import "github.com/boardlink/iolinkd/wire"

// HandleByte processes one byte received from the host (spec §4.1-§4.2,
// §4.5). It returns any bytes that must be transmitted synchronously as the
// direct reply to this byte (the error/reset byte, or handshake-complete) —
// distinct from NextFrame's priority-ordered queue, matching the original
// firmware writing those two bytes directly from the receive handler rather
// than through the transmit-empty interrupt.
func (s *State) HandleByte(b byte) []wire.Frame {
	f := wire.Frame(b)
	if f.Opcode() == wire.OpHandshake {
		return s.recvHandshake(f.Index())
	}
	if !s.active {
		return s.errorReset()
	}

	switch f.Opcode() {
	case wire.OpPulseShort:
		i := f.Index()
		s.pulseRemaining[i] = pulseShortTicks
		s.ackPendingPulse[i] = true
		s.pending.set(pulseStartBit(i))
	case wire.OpPulseLong:
		i := f.Index()
		s.pulseRemaining[i] = pulseLongTicks
		s.ackPendingPulse[i] = true
		s.pending.set(pulseStartBit(i))
	case wire.OpSetOutput, 0x30:
		i := f.Index()
		s.outputState[i] = f.Bit(4)
		s.ackPendingState[i] = true
		s.pending.set(outputStateBit(i))
	case wire.OpWatchdog:
		s.recvWatchdog(f.Index())
	case wire.OpInputAck:
		s.recvInputAck(f.InputIndex(), f.Bit(3))
	case wire.OpReadOutput:
		i := f.Index()
		s.ackPendingState[i] = true
		s.pending.set(outputStateBit(i))
	default:
		return s.errorReset()
	}
	return nil
}

// errorReset implements spec §4.1's malformed-byte handling: re-emit the
// error/reset byte and clear active. Transmit interest is "dropped" by
// NextFrame's own active check (pending.go), not by discarding queued flags — a
// later handshake completion re-raises every flag that matters wholesale.
func (s *State) errorReset() []wire.Frame {
	s.active = false
	return []wire.Frame{wire.ErrorReset}
}

func (s *State) recvWatchdog(sub int) {
	if s.onWatchdogEvent != nil {
		s.onWatchdogEvent(sub)
	}
	switch sub {
	case wire.WatchdogStart, wire.WatchdogPoke:
		s.wdActive = true
		s.wdSecs = watchdogReloadSecs
		s.wdTicks = tickHz
		s.wdAckPending = true
		s.pending.set(bitWDPokeAck)
	case wire.WatchdogStop:
		s.wdActive = false
		s.wdOffPending = true
		s.pending.set(bitWDOffAck)
	}
}

func (s *State) recvInputAck(i int, val bool) {
	if s.inputSampled[i] == val {
		s.inputRetry[i] = 0
	} else {
		s.inputPending[i] = true
		s.inputRetry[i] = inputRetryTicks
		s.pending.set(inputChangedBit(i))
	}
}
