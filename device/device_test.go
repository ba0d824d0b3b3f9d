package device

import (
	"testing"

	"github.com/boardlink/iolinkd/devicehal"
	"github.com/boardlink/iolinkd/wire"
)

func activated(t *testing.T) (*State, *devicehal.Memory) {
	t.Helper()
	hal := devicehal.NewMemory()
	s := New(hal)
	var last []wire.Frame
	for _, v := range wire.MagicSequence {
		last = s.HandleByte(byte(wire.OpHandshake | int(v)))
	}
	if len(last) != 1 || last[0] != wire.HandshakeComplete {
		t.Fatalf("expected handshake-complete reply, got %v", last)
	}
	if !s.Active() {
		t.Fatalf("expected device active after handshake")
	}
	return s, hal
}

func drain(s *State) []wire.Frame {
	var out []wire.Frame
	for {
		f, ok := s.NextFrame()
		if !ok {
			return out
		}
		out = append(out, f)
	}
}

// ackInputs acks every input at its currently sampled value, as the host does
// for each input-change notification, so the retries armed at handshake
// completion stop.
func ackInputs(s *State) {
	for i := 0; i < NumInputs; i++ {
		s.HandleByte(byte(wire.InputAck(i, s.inputSampled[i])))
	}
}

func TestHandshakeCompletionQueuesFullStateDump(t *testing.T) {
	s, _ := activated(t)
	got := drain(s)

	if len(got) != 1+NumOutputs+NumInputs {
		t.Fatalf("got %d queued frames, want %d", len(got), 1+NumOutputs+NumInputs)
	}
	if got[0] != wire.WatchdogEvent(wire.WatchdogOffAck) {
		t.Fatalf("first queued frame = 0x%02x, want watchdog-off-ack", got[0])
	}
	for i := 0; i < NumOutputs; i++ {
		want := wire.OutputState(i, false)
		if got[1+i] != want {
			t.Errorf("frame %d = 0x%02x, want 0x%02x (output %d state)", 1+i, got[1+i], want, i)
		}
	}
	for i := 0; i < NumInputs; i++ {
		want := wire.InputChanged(i, false)
		if got[1+NumOutputs+i] != want {
			t.Errorf("frame %d = 0x%02x, want 0x%02x (input %d change)", 1+NumOutputs+i, got[1+NumOutputs+i], want, i)
		}
	}
}

func TestHandshakeRestartsOnFirstByteAfterMismatch(t *testing.T) {
	hal := devicehal.NewMemory()
	s := New(hal)

	// Two correct bytes, then a wrong one that happens to equal magic[0].
	s.HandleByte(byte(wire.OpHandshake | int(wire.MagicSequence[0])))
	s.HandleByte(byte(wire.OpHandshake | int(wire.MagicSequence[1])))
	s.HandleByte(byte(wire.OpHandshake | int(wire.MagicSequence[0]))) // mismatch, re-anchors at 1

	if s.handshakeIndex != 1 {
		t.Fatalf("handshakeIndex = %d, want 1 (re-anchored)", s.handshakeIndex)
	}
	if s.Active() {
		t.Fatalf("device must not be active mid-handshake")
	}
}

func TestHandshakeIndexNeverPersistsAt14(t *testing.T) {
	s, _ := activated(t)
	if s.handshakeIndex != 0 {
		t.Fatalf("handshakeIndex = %d after activation, want reset to 0", s.handshakeIndex)
	}
}

func TestMalformedByteWhenActiveResetsSession(t *testing.T) {
	s, _ := activated(t)
	drain(s)

	reply := s.HandleByte(0xff)
	if len(reply) != 1 || reply[0] != wire.ErrorReset {
		t.Fatalf("reply = %v, want [ErrorReset]", reply)
	}
	if s.Active() {
		t.Fatalf("expected active=false after malformed byte")
	}
}

func TestOrdinaryByteWhileInactiveIsMalformed(t *testing.T) {
	hal := devicehal.NewMemory()
	s := New(hal)
	reply := s.HandleByte(byte(wire.PulseShort(3)))
	if len(reply) != 1 || reply[0] != wire.ErrorReset {
		t.Fatalf("reply = %v, want [ErrorReset] for command while inactive", reply)
	}
}

func TestShortPulseOnOutput3(t *testing.T) {
	s, hal := activated(t)
	drain(s)

	reply := s.HandleByte(byte(wire.PulseShort(3)))
	if reply != nil {
		t.Fatalf("HandleByte for pulse must not reply synchronously, got %v", reply)
	}
	queued := drain(s)
	if len(queued) != 1 || queued[0] != wire.PulseStarted(3) {
		t.Fatalf("queued = %v, want [PulseStarted(3)]", queued)
	}

	for i := 0; i < pulseShortTicks-1; i++ {
		s.Tick()
		if !s.Pulsing(3) {
			t.Fatalf("tick %d: expected output 3 still pulsing", i)
		}
		if !hal.OutputLine(3) {
			t.Fatalf("tick %d: expected output 3 driven high (inverted from low steady state)", i)
		}
		if f, ok := s.NextFrame(); ok {
			t.Fatalf("tick %d: unexpected frame %v before pulse completes", i, f)
		}
	}
	s.Tick()
	if s.Pulsing(3) {
		t.Fatalf("expected pulse to have finished")
	}
	f, ok := s.NextFrame()
	if !ok || f != wire.PulseFinished(3) {
		t.Fatalf("got (%v, %v), want (PulseFinished(3), true)", f, ok)
	}
}

func TestPulseRestartDoesNotQueueEachTime(t *testing.T) {
	s, _ := activated(t)
	drain(s)

	s.HandleByte(byte(wire.PulseShort(5)))
	drain(s)
	s.Tick()
	s.Tick()
	remaining := s.pulseRemaining[5]

	// Replaying pulse-start mid-flight restarts the counter.
	s.HandleByte(byte(wire.PulseShort(5)))
	if s.pulseRemaining[5] <= remaining {
		t.Fatalf("expected pulse counter to restart to %d, got %d", pulseShortTicks, s.pulseRemaining[5])
	}
	if s.pulseRemaining[5] != pulseShortTicks {
		t.Fatalf("pulseRemaining[5] = %d, want %d", s.pulseRemaining[5], pulseShortTicks)
	}
}

func TestInputChangeAnnouncedOnceThenRetried(t *testing.T) {
	s, hal := activated(t)
	drain(s)
	ackInputs(s)

	hal.SetInput(2, true)
	s.Tick()
	queued := drain(s)
	if len(queued) != 1 || queued[0] != wire.InputChanged(2, true) {
		t.Fatalf("queued = %v, want [InputChanged(2,true)]", queued)
	}

	// No ack: retry should fire after inputRetryTicks ticks.
	for i := 0; i < inputRetryTicks-1; i++ {
		s.Tick()
		if f, ok := s.NextFrame(); ok {
			t.Fatalf("tick %d: unexpected early retry frame %v", i, f)
		}
	}
	s.Tick()
	f, ok := s.NextFrame()
	if !ok || f != wire.InputChanged(2, true) {
		t.Fatalf("got (%v,%v), want retried InputChanged(2,true)", f, ok)
	}
}

func TestInputAckStopsRetries(t *testing.T) {
	s, hal := activated(t)
	drain(s)
	ackInputs(s)

	hal.SetInput(2, true)
	s.Tick()
	drain(s)

	s.HandleByte(byte(wire.InputAck(2, true)))
	if s.inputRetry[2] != 0 {
		t.Fatalf("inputRetry[2] = %d, want 0 after matching ack", s.inputRetry[2])
	}

	for i := 0; i < inputRetryTicks*2; i++ {
		s.Tick()
		if f, ok := s.NextFrame(); ok {
			t.Fatalf("tick %d: unexpected frame %v after ack silenced retries", i, f)
		}
	}
}

func TestInputAckIsIdempotent(t *testing.T) {
	s, hal := activated(t)
	drain(s)
	hal.SetInput(2, true)
	s.Tick()
	drain(s)

	s.HandleByte(byte(wire.InputAck(2, true)))
	retryAfterFirstAck := s.inputRetry[2]
	pendingAfterFirstAck := s.inputPending[2]

	s.HandleByte(byte(wire.InputAck(2, true)))
	if s.inputRetry[2] != retryAfterFirstAck {
		t.Fatalf("duplicate ack changed inputRetry: %d -> %d", retryAfterFirstAck, s.inputRetry[2])
	}
	if s.inputPending[2] != pendingAfterFirstAck {
		t.Fatalf("duplicate ack changed inputPending: %v -> %v", pendingAfterFirstAck, s.inputPending[2])
	}
}

func TestWatchdogExpiry(t *testing.T) {
	s, _ := activated(t)
	drain(s)
	ackInputs(s)

	reply := s.HandleByte(byte(wire.WatchdogCmd(wire.WatchdogStart)))
	if reply != nil {
		t.Fatalf("watchdog start must not reply synchronously, got %v", reply)
	}
	queued := drain(s)
	if len(queued) != 1 || queued[0] != wire.WatchdogEvent(wire.WatchdogPokeAck) {
		t.Fatalf("queued = %v, want [poke-ack]", queued)
	}

	var direct []wire.Frame
	warnSeen := false
	for sec := 1; sec <= 60; sec++ {
		for i := 0; i < tickHz; i++ {
			direct = append(direct, s.Tick()...)
		}
		if f, ok := s.NextFrame(); ok {
			if f != wire.WatchdogEvent(wire.WatchdogWarn) {
				t.Fatalf("unexpected queued frame %v at %ds elapsed", f, sec)
			}
			if sec != 45 {
				t.Fatalf("watchdog warn fired at %ds elapsed, want 45s", sec)
			}
			warnSeen = true
		}
	}
	if !warnSeen {
		t.Fatalf("expected watchdog warn to have fired by 45s")
	}
	if len(direct) != 1 || direct[0] != wire.WatchdogDetonation {
		t.Fatalf("direct frames over 60s = %v, want exactly [WatchdogDetonation]", direct)
	}
	if s.Active() {
		t.Fatalf("expected session torn down after detonation")
	}
	if !s.Pulsing(0) {
		t.Fatalf("expected output 0 pulsing after detonation")
	}
}
