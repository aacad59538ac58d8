// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

var errNotConnected = errors.New("g2cog: SPI not connected")

// errorHandler is a wrapper for error management.
//
// The first error is kept. Unless bestEffort is set, every later bus or pin
// operation is skipped once an error occurred. Delays always run so a failed
// sequence never shortens a discharge or settle time.
type errorHandler struct {
	d          *Dev
	err        error
	bestEffort bool
}

func (eh *errorHandler) skip() bool {
	return eh.err != nil && !eh.bestEffort
}

func (eh *errorHandler) record(err error) {
	if err != nil && eh.err == nil {
		eh.err = err
	}
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.skip() {
		return
	}
	eh.record(p.Out(l))
}

func (eh *errorHandler) in(p gpio.PinIn) {
	if eh.skip() {
		return
	}
	eh.record(p.In(gpio.Float, gpio.NoEdge))
}

func (eh *errorHandler) tx(w, r []byte) {
	if eh.skip() {
		return
	}
	if eh.d.c == nil {
		eh.record(errNotConnected)
		return
	}
	eh.record(eh.d.c.Tx(w, r))
}

func (eh *errorHandler) sleep(d time.Duration) {
	eh.d.clock.Sleep(d)
}

// waitUntilIdle polls the busy pin. It has no timeout: a wedged controller
// blocks forever.
func (eh *errorHandler) waitUntilIdle() {
	if eh.skip() {
		return
	}
	for eh.d.pins.Busy.Read() == gpio.High {
		eh.d.clock.Sleep(time.Millisecond)
	}
}
