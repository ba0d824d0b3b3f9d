package wire

import "testing"

func TestPulseShortRoundTrip(t *testing.T) {
	for i := 0; i < 16; i++ {
		f := PulseShort(i)
		if f.Opcode() != OpPulseShort {
			t.Fatalf("PulseShort(%d).Opcode() = 0x%02x, want 0x%02x", i, f.Opcode(), OpPulseShort)
		}
		if f.Index() != i {
			t.Fatalf("PulseShort(%d).Index() = %d, want %d", i, f.Index(), i)
		}
	}
}

func TestSetOutputEncodesValue(t *testing.T) {
	cases := []struct {
		i int
		v bool
	}{
		{0, false}, {0, true}, {15, false}, {15, true},
	}
	for _, c := range cases {
		f := SetOutput(c.i, c.v)
		if got := f.Bit(4); got != c.v {
			t.Errorf("SetOutput(%d, %v).Bit(4) = %v, want %v", c.i, c.v, got, c.v)
		}
		if f.Index() != c.i {
			t.Errorf("SetOutput(%d, %v).Index() = %d, want %d", c.i, c.v, f.Index(), c.i)
		}
	}
}

func TestInputAckEncodesValue(t *testing.T) {
	f := InputAck(2, true)
	if byte(f) != 0x6a {
		t.Fatalf("InputAck(2, true) = 0x%02x, want 0x6a", byte(f))
	}
	if f.InputIndex() != 2 {
		t.Fatalf("InputIndex() = %d, want 2", f.InputIndex())
	}
	if !f.Bit(3) {
		t.Fatalf("expected bit 3 set")
	}
}

func TestDecodeHostToDeviceRejectsUnknownOpcode(t *testing.T) {
	if _, err := DecodeHostToDevice(0xff); err == nil {
		t.Fatalf("expected error decoding 0xff")
	}
	if _, err := DecodeHostToDevice(0x03); err != nil {
		t.Fatalf("unexpected error decoding 0x03: %v", err)
	}
}

func TestDecodeDeviceToHostAcceptsErrorAndHandshakeComplete(t *testing.T) {
	if _, err := DecodeDeviceToHost(byte(ErrorReset)); err != nil {
		t.Fatalf("unexpected error decoding ErrorReset: %v", err)
	}
	if _, err := DecodeDeviceToHost(byte(HandshakeComplete)); err != nil {
		t.Fatalf("unexpected error decoding HandshakeComplete: %v", err)
	}
	if _, err := DecodeDeviceToHost(0x51 ^ 0x02); err == nil {
		t.Fatalf("expected error for stray 0x50-opcode byte")
	}
}

func TestMagicInitMatchesMagicSequence(t *testing.T) {
	if len(MagicInit) != len(MagicSequence) {
		t.Fatalf("MagicInit length %d != MagicSequence length %d", len(MagicInit), len(MagicSequence))
	}
	for i, b := range []byte(MagicInit) {
		if b&0x0f != MagicSequence[i] {
			t.Errorf("MagicInit[%d] = 0x%02x, low nibble != MagicSequence[%d] = 0x%x", i, b, i, MagicSequence[i])
		}
		if b&0xf0 != OpHandshake {
			t.Errorf("MagicInit[%d] = 0x%02x, opcode nibble != OpHandshake", i, b)
		}
	}
}
