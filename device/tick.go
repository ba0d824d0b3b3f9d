package device

import "github.com/boardlink/iolinkd/wire"

// Tick advances the output, input and watchdog engines by one tick (spec
// §4.3-§4.5), in that order, matching the canonical firmware's periodic
// timer interrupt which runs all tickers in sequence. It returns any bytes
// that must be transmitted immediately regardless of the priority queue
// (currently only the watchdog detonation diagnostic, sent best-effort per
// spec §4.5's rationale).
func (s *State) Tick() []wire.Frame {
	s.outputTick()
	s.inputTick()
	return s.watchdogTick()
}

func (s *State) outputTick() {
	for i := 0; i < NumOutputs; i++ {
		if s.pulseRemaining[i] > 0 {
			s.hal.SetLine(i, !s.outputState[i])
			s.pulseRemaining[i]--
			if s.pulseRemaining[i] == 0 {
				s.ackPendingDone[i] = true
				s.pending.set(pulseDoneBit(i))
			}
		} else {
			s.hal.SetLine(i, s.outputState[i])
		}
	}
}

func (s *State) inputTick() {
	for i := 0; i < NumInputs; i++ {
		st := s.hal.SampleLine(i)
		if s.inputRetry[i] > 0 {
			s.inputRetry[i]--
			if s.inputRetry[i] == 0 {
				s.inputPending[i] = true
				s.pending.set(inputChangedBit(i))
				s.inputRetry[i] = inputRetryTicks
			}
		}
		if st != s.inputSampled[i] {
			s.inputSampled[i] = st
			s.inputPending[i] = true
			s.pending.set(inputChangedBit(i))
			s.inputRetry[i] = inputRetryTicks
		}
	}
}

func (s *State) watchdogTick() []wire.Frame {
	if !s.wdActive {
		return nil
	}
	s.wdTicks--
	if s.wdTicks != 0 {
		return nil
	}
	s.wdTicks = tickHz
	s.wdSecs--
	if s.wdSecs == watchdogWarnSecs {
		s.wdWarnPending = true
		s.pending.set(bitWDWarn)
	}
	if s.wdSecs != 0 {
		return nil
	}
	// Detonation: pulse the watchdog-boom line (output 0), tear down the
	// session, and report best-effort.
	s.pulseRemaining[0] = pulseShortTicks
	s.ackPendingPulse[0] = true
	s.pending.set(pulseStartBit(0))
	s.wdActive = false
	s.active = false
	return []wire.Frame{wire.WatchdogDetonation}
}
