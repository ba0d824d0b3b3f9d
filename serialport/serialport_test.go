package serialport

import "testing"

func TestOpenRejectsMissingDevice(t *testing.T) {
	if _, err := Open("/dev/does-not-exist-iolinkd"); err == nil {
		t.Fatalf("expected error opening nonexistent device")
	}
}
