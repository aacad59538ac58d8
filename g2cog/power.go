// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// DefaultFrequency is the SPI clock used when Opts.Frequency is zero.
const DefaultFrequency = 8 * physic.MegaHertz

// chargePumpAttempts caps the DC/DC ramp-up retries.
const chargePumpAttempts = 4

// PowerState is the state of the controller's power sequencing.
type PowerState int

// Power states.
const (
	Off PowerState = iota
	BringingUp
	On
	ShuttingDown
)

func (s PowerState) String() string {
	switch s {
	case Off:
		return "off"
	case BringingUp:
		return "bringing up"
	case On:
		return "on"
	case ShuttingDown:
		return "shutting down"
	}
	return fmt.Sprintf("PowerState(%d)", int(s))
}

// powerOn powers the COG and initializes it. On any failure after the pins
// were validated the controller is powered off again before returning.
func (d *Dev) powerOn() error {
	if err := d.pins.validate(d.geom.BorderControl); err != nil {
		return err
	}
	d.state = BringingUp
	d.log.Debug("g2cog: power on", "size", d.size)

	p := &d.pins
	eh := errorHandler{d: d}

	eh.in(p.Busy)
	eh.out(p.PanelOn, gpio.High)
	eh.out(p.ChipSelect, gpio.High)
	if d.geom.BorderControl {
		eh.out(p.Border, gpio.High)
	}
	eh.out(p.Reset, gpio.High)
	eh.out(p.Discharge, gpio.Low)
	eh.sleep(5 * time.Millisecond)

	eh.out(p.Reset, gpio.Low)
	eh.sleep(5 * time.Millisecond)
	eh.out(p.Reset, gpio.High)
	eh.sleep(5 * time.Millisecond)

	if eh.err == nil {
		d.init(&eh)
	}
	if eh.err != nil {
		d.log.Warn("g2cog: bring-up failed", "err", eh.err)
		d.powerOff()
		return eh.err
	}
	d.state = On
	return nil
}

// init runs the COG G2 initialization once the controller is out of reset.
func (d *Dev) init(eh *errorHandler) {
	eh.waitUntilIdle()

	if d.c == nil && !eh.skip() {
		c, err := d.p.Connect(d.freq, d.mode, 8)
		if err != nil {
			eh.record(fmt.Errorf("g2cog: failed to connect to SPI: %w", err))
			return
		}
		d.c = c
	}

	if id := eh.readDriverID(); eh.err == nil && id != cogG2ID {
		eh.record(fmt.Errorf("%w: got %#02x, want %#02x", ErrInvalidChipID, id, cogG2ID))
		return
	}

	eh.writeRegister(regOutputEnable, 0x40) // Disable OE
	if s := eh.readRegister(regStatus); eh.err == nil && s&statusPanelPresent == 0 {
		eh.record(fmt.Errorf("%w: status %#02x", ErrBrokenPanel, s))
		return
	}
	eh.writeRegister(regPowerSaving, 0x02)

	cs := d.geom.ChannelSelect
	eh.writeRegisterData(regChannelSelect, append([]byte{headerWrite}, cs[:]...))

	eh.writeRegister(regOscillator, 0xD1) // High power mode
	eh.writeRegister(regPowerMode, 0x02)
	eh.writeRegister(regVcomLevel, 0xC2)
	eh.writeRegister(regPowerSetting, 0x03)
	eh.writeRegister(regLatch, 0x01)
	eh.writeRegister(regLatch, 0x00)
	eh.sleep(5 * time.Millisecond)

	for i := 0; i < chargePumpAttempts && eh.err == nil; i++ {
		eh.writeRegister(regChargePump, 0x01) // Positive voltage, VGH & VDH on
		eh.sleep(150 * time.Millisecond)
		eh.writeRegister(regChargePump, 0x03) // Negative voltage, VGL & VDL on
		eh.sleep(90 * time.Millisecond)
		eh.writeRegister(regChargePump, 0x0F) // Vcom on
		eh.sleep(40 * time.Millisecond)

		if s := eh.readRegister(regStatus); eh.err == nil && s&statusDCReady != 0 {
			eh.writeRegister(regOutputEnable, 0x06) // Output enable to disable
			return
		}
		d.log.Debug("g2cog: charge pump not ready", "attempt", i+1)
	}
	eh.record(fmt.Errorf("%w after %d attempts", ErrDCFail, chargePumpAttempts))
}

// finish drives a nothing frame and the dummy line so no charge is left on
// the pixels.
func (d *Dev) finish(eh *errorHandler) {
	for y := 0; y < d.geom.Height; y++ {
		d.drawLine(eh, y, d.blank, nil, codeNothing, codeNothing, 0x00)
	}
	d.drawLine(eh, dummyRow, d.blank, nil, codeNothing, codeNothing, d.geom.dummyBorder)

	if d.geom.BorderControl {
		eh.sleep(25 * time.Millisecond)
		eh.out(d.pins.Border, gpio.Low)
		eh.sleep(100 * time.Millisecond)
		eh.out(d.pins.Border, gpio.High)
	}
}

// powerOff shuts the COG down. It is best-effort: every step is attempted
// and the device always ends up Off.
func (d *Dev) powerOff() {
	d.state = ShuttingDown
	p := &d.pins
	eh := errorHandler{d: d, bestEffort: true}

	d.finish(&eh)

	eh.writeRegister(regPowerSaving, 0x00)
	eh.writeRegister(regLatch, 0x01)        // Latch reset on
	eh.writeRegister(regChargePump, 0x03)   // Vcom off
	eh.writeRegister(regChargePump, 0x01)   // Negative voltage, VGL & VDL off
	eh.sleep(300 * time.Millisecond)
	eh.writeRegister(regPowerSetting, 0x80) // Discharge internal
	eh.writeRegister(regChargePump, 0x00)   // Positive voltage, VGH & VDH off
	eh.writeRegister(regOscillator, 0x01)   // Oscillator off
	eh.sleep(50 * time.Millisecond)

	if d.geom.BorderControl {
		eh.out(p.Border, gpio.Low)
	}
	eh.out(p.PanelOn, gpio.Low)
	eh.sleep(10 * time.Millisecond)

	eh.out(p.Discharge, gpio.High)
	eh.sleep(150 * time.Millisecond)
	eh.out(p.Discharge, gpio.Low)

	eh.out(p.Reset, gpio.Low)
	eh.out(p.ChipSelect, gpio.Low)

	if eh.err != nil {
		d.log.Warn("g2cog: power off incomplete", "err", eh.err)
	}
	d.state = Off
	d.log.Debug("g2cog: power off", "size", d.size)
}
