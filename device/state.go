// Package device implements the device-side (I/O board) half of the
// protocol: the handshake, the output/input/watchdog tickers, and the
// priority-ordered transmitter. It is a software model of firmware that
// otherwise runs on a microcontroller — see devicehal for how it is bound
// to real or simulated hardware.
//
// State owns all device-side entities for the lifetime of the link (spec
// §3). It has no internal synchronization: Tick, HandleByte and NextFrame are
// the entry points that change it, and a caller must never invoke them
// concurrently with each other, mirroring the single-handler-at-a-time guarantee the original
// firmware gets for free from running entirely inside interrupt handlers.
package device

import (
	"time"

	"github.com/boardlink/iolinkd/devicehal"
	"github.com/boardlink/iolinkd/wire"
)

const (
	// NumOutputs is the number of digital output lines (spec §3).
	NumOutputs = 16
	// NumInputs is the number of digital input lines (spec §3).
	NumInputs = 8

	// tickHz is the device tick rate (spec §4.3: "~50 Hz").
	tickHz = 50

	// pulseShortTicks is HZ/5 ticks, ~200ms at 50Hz.
	pulseShortTicks = tickHz / 5
	// pulseLongTicks is HZ*5 ticks, ~5s at 50Hz.
	pulseLongTicks = tickHz * 5
	// inputRetryTicks is HZ ticks, ~1s at 50Hz.
	inputRetryTicks = tickHz

	// watchdogReloadSecs is the countdown value loaded on start/poke.
	watchdogReloadSecs = 60
	// watchdogWarnSecs is the remaining-seconds threshold at which a single
	// warn notification fires.
	watchdogWarnSecs = 15
)

// TickInterval is the wall-clock period between Tick calls a caller should
// use to match spec §4.3's ~50 Hz tick rate.
const TickInterval = time.Second / tickHz

// State holds every device-side entity named in spec §3. Zero value is not
// ready for use; construct with New.
type State struct {
	hal devicehal.HAL

	pulseRemaining [NumOutputs]uint8
	outputState    [NumOutputs]bool

	ackPendingPulse [NumOutputs]bool // pulse-start ack owed
	ackPendingDone  [NumOutputs]bool // pulse-done ack owed
	ackPendingState [NumOutputs]bool // state report owed

	inputSampled [NumInputs]bool
	inputPending [NumInputs]bool
	inputRetry   [NumInputs]uint8

	wdTicks       uint8
	wdSecs        uint8
	wdActive      bool
	wdAckPending  bool
	wdWarnPending bool
	wdOffPending  bool

	handshakeIndex int
	active         bool

	pending pendingSet

	// onWatchdogEvent, if set, is invoked for observability whenever a
	// watchdog subcommand byte is received. It must never influence pending
	// state (spec §9 Open Question on opcode 0x40).
	onWatchdogEvent func(sub int)
}

// New returns a device State bound to the given hardware abstraction,
// starting in the inactive (pre-handshake) state.
func New(hal devicehal.HAL) *State {
	return &State{hal: hal}
}

// OnWatchdogObserved registers a callback invoked for observability whenever
// the device processes a watchdog subcommand. Intended for logging only.
func (s *State) OnWatchdogObserved(f func(sub int)) {
	s.onWatchdogEvent = f
}

// Active reports whether the handshake has completed and the device is
// accepting ordinary commands.
func (s *State) Active() bool {
	return s.active
}

// OutputState reports the committed steady-state value of output i.
func (s *State) OutputState(i int) bool {
	return s.outputState[i]
}

// Pulsing reports whether output i currently has a pulse in progress.
func (s *State) Pulsing(i int) bool {
	return s.pulseRemaining[i] > 0
}
