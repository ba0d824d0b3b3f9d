package host

import (
	"context"
	"time"

	"github.com/boardlink/iolinkd/wire"
)

type requestKind int

const (
	reqSetOutput requestKind = iota
	reqGetOutput
	reqPulse
	reqGetInput
)

type request struct {
	kind requestKind
	i    int
	v    bool // set value, or pulse-is-long

	done    chan struct{}
	boolOut chan bool
}

// SetOutput implements the Output.SetState RPC (spec §4.7 "Set"). It blocks
// until the device has confirmed the new state, or ctx is done.
func (l *Link) SetOutput(ctx context.Context, i int, v bool) error {
	done := make(chan struct{}, 1)
	req := request{kind: reqSetOutput, i: i, v: v, done: done}
	if err := l.submit(ctx, req); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetOutput implements the Output.GetState RPC (spec §4.7 "Read").
func (l *Link) GetOutput(ctx context.Context, i int) (bool, error) {
	out := make(chan bool, 1)
	req := request{kind: reqGetOutput, i: i, boolOut: out}
	if err := l.submit(ctx, req); err != nil {
		return false, err
	}
	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Pulse implements the Output.Pulse RPC (spec §4.7 "Pulse").
func (l *Link) Pulse(ctx context.Context, i int, long bool) error {
	done := make(chan struct{}, 1)
	req := request{kind: reqPulse, i: i, v: long, done: done}
	if err := l.submit(ctx, req); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetInput implements the Input.GetState RPC (spec §4.7 "Input" — resolves
// immediately from the cached value).
func (l *Link) GetInput(ctx context.Context, i int) (bool, error) {
	out := make(chan bool, 1)
	req := request{kind: reqGetInput, i: i, boolOut: out}
	if err := l.submit(ctx, req); err != nil {
		return false, err
	}
	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (l *Link) submit(ctx context.Context, req request) error {
	select {
	case l.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleRequest runs on the Link.Run goroutine only.
func (l *Link) handleRequest(req request) {
	switch req.kind {
	case reqSetOutput:
		l.handleSetOutput(req.i, req.v, req.done)
	case reqGetOutput:
		l.handleGetOutput(req.i, req.boolOut)
	case reqPulse:
		l.handlePulse(req.i, req.v, req.done)
	case reqGetInput:
		req.boolOut <- l.inputs[req.i].state
	}
}

func (l *Link) handleSetOutput(i int, v bool, done chan struct{}) {
	entry := &l.outputs[i]
	if entry.stateReadPending || entry.state != v {
		entry.state = v
		l.completeReadWaiters(i)
		l.queueSet(i)
		entry.setWaiters = append(entry.setWaiters, done)
	} else {
		done <- struct{}{}
	}
}

func (l *Link) handleGetOutput(i int, out chan bool) {
	entry := &l.outputs[i]
	if !entry.stateReadPending {
		out <- entry.state
		return
	}
	entry.readWaiters = append(entry.readWaiters, out)
}

func (l *Link) handlePulse(i int, long bool, done chan struct{}) {
	entry := &l.outputs[i]
	if entry.pulsePending == pulseIdle {
		kind := pulseShortInFlight
		frame := wire.PulseShort(i)
		period := pulseShortRetryPeriod
		if long {
			kind = pulseLongInFlight
			frame = wire.PulseLong(i)
			period = pulseLongRetryPeriod
		}
		entry.pulsePending = kind
		l.send(frame)
		entry.pulseTimer = time.AfterFunc(period, l.retryFunc(retryPulse, i))
	}
	entry.pulseWaiters = append(entry.pulseWaiters, done)
}

// queueRead sends a read-state request for output i if one isn't already in
// flight, and arms its 1-second retry (spec §4.7 "Read", §4.8 startup seed).
func (l *Link) queueRead(i int) {
	entry := &l.outputs[i]
	if entry.stateReadPending {
		return
	}
	l.send(wire.ReadOutput(i))
	entry.stateReadPending = true
	entry.readTimer = time.AfterFunc(readRetryInterval, l.retryFunc(retryRead, i))
}

// queueSet sends a set-state request for output i (using the cached intended
// value) if one isn't already in flight, and arms its 1-second retry.
func (l *Link) queueSet(i int) {
	entry := &l.outputs[i]
	if entry.statePending {
		return
	}
	l.send(wire.SetOutput(i, entry.state))
	entry.statePending = true
	entry.setTimer = time.AfterFunc(setRetryInterval, l.retryFunc(retrySet, i))
}

func (l *Link) completeReadWaiters(i int) {
	entry := &l.outputs[i]
	entry.stateReadPending = false
	if entry.readTimer != nil {
		entry.readTimer.Stop()
	}
	waiters := entry.readWaiters
	entry.readWaiters = nil
	for _, w := range waiters {
		w <- entry.state
	}
}

func (l *Link) completeSetWaiters(i int) {
	entry := &l.outputs[i]
	entry.statePending = false
	if entry.setTimer != nil {
		entry.setTimer.Stop()
	}
	waiters := entry.setWaiters
	entry.setWaiters = nil
	for _, w := range waiters {
		w <- struct{}{}
	}
}

func (l *Link) completePulseWaiters(i int) {
	entry := &l.outputs[i]
	entry.pulsePending = pulseIdle
	if entry.pulseTimer != nil {
		entry.pulseTimer.Stop()
	}
	waiters := entry.pulseWaiters
	entry.pulseWaiters = nil
	for _, w := range waiters {
		w <- struct{}{}
	}
}
