package device

import "github.com/boardlink/iolinkd/wire"

// recvHandshake implements spec §4.2's handshake algorithm for one
// handshake byte carrying low-nibble value v.
func (s *State) recvHandshake(v int) []wire.Frame {
	val := byte(v)
	switch {
	case val == wire.MagicSequence[s.handshakeIndex]:
		s.handshakeIndex++
		s.active = false
		if s.handshakeIndex != len(wire.MagicSequence) {
			return nil
		}
		return s.activate()
	case val == wire.MagicSequence[0]:
		s.handshakeIndex = 1
		s.active = false
	default:
		s.handshakeIndex = 0
		s.active = false
	}
	return nil
}

// activate is reached when the full magic sequence has been matched. It
// requests a full state push (every output and input), arms the
// appropriate watchdog notification, and reports handshake-complete.
func (s *State) activate() []wire.Frame {
	s.active = true
	for i := 0; i < NumOutputs; i++ {
		s.pulseRemaining[i] = 0
		s.ackPendingState[i] = true
		s.pending.set(outputStateBit(i))
	}
	for i := 0; i < NumInputs; i++ {
		s.inputRetry[i] = inputRetryTicks
		s.inputPending[i] = true
		s.pending.set(inputChangedBit(i))
	}
	if s.wdActive {
		s.wdWarnPending = true
		s.pending.set(bitWDWarn)
	} else {
		s.wdOffPending = true
		s.pending.set(bitWDOffAck)
	}
	s.handshakeIndex = 0
	return []wire.Frame{wire.HandshakeComplete}
}
