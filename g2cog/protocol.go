// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import "periph.io/x/conn/v3/gpio"

// Header bytes of the COG serial protocol.
const (
	headerIndex    byte = 0x70
	headerDriverID byte = 0x71
	headerWrite    byte = 0x72
	headerRead     byte = 0x73
)

// Registers
const (
	regChannelSelect byte = 0x01
	regOutputEnable  byte = 0x02
	regLatch         byte = 0x03
	regPowerSetting  byte = 0x04
	regChargePump    byte = 0x05
	regOscillator    byte = 0x07
	regPowerMode     byte = 0x08
	regVcomLevel     byte = 0x09
	regLineData      byte = 0x0A
	regPowerSaving   byte = 0x0B
	regStatus        byte = 0x0F
)

// Status register bits.
const (
	statusPanelPresent byte = 0x80
	statusDCReady      byte = 0x40
)

// cogG2ID is the driver ID reported by a G2 controller; G1 reports 0x11.
const cogG2ID byte = 0x12

// rawPair sends b0 then b1 within one chip-select assertion and returns the
// byte clocked in during b1. Chip select must already be high and stay high
// for at least 80ns between calls, which successive calls guarantee.
func (eh *errorHandler) rawPair(b0, b1 byte) byte {
	var r [2]byte
	eh.out(eh.d.pins.ChipSelect, gpio.Low)
	eh.tx([]byte{b0, b1}, r[:])
	eh.out(eh.d.pins.ChipSelect, gpio.High)
	return r[1]
}

// writeRegister writes exactly one data byte.
func (eh *errorHandler) writeRegister(index, data byte) {
	eh.rawPair(headerIndex, index)
	eh.rawPair(headerWrite, data)
}

// writeRegisterData selects index and sends payload as one chip-select
// framed transfer. payload must start with headerWrite.
func (eh *errorHandler) writeRegisterData(index byte, payload []byte) {
	eh.rawPair(headerIndex, index)
	eh.out(eh.d.pins.ChipSelect, gpio.Low)
	eh.tx(payload, nil)
	eh.out(eh.d.pins.ChipSelect, gpio.High)
}

func (eh *errorHandler) readRegister(index byte) byte {
	eh.rawPair(headerIndex, index)
	return eh.rawPair(headerRead, 0x00)
}

func (eh *errorHandler) readDriverID() byte {
	return eh.rawPair(headerDriverID, 0x00)
}
