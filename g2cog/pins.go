// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/host/v3/rpi"
)

// Pins is the wiring between the host and the panel. A nil pin or
// gpio.INVALID means the role is unassigned.
//
// The host's SPI clock, MOSI and MISO lines must be connected too; chip
// select is driven as a plain GPIO.
type Pins struct {
	PanelOn    gpio.PinOut
	ChipSelect gpio.PinOut
	Reset      gpio.PinOut
	Busy       gpio.PinIn
	// Border is required for Size271 and ignored otherwise.
	Border    gpio.PinOut
	Discharge gpio.PinOut
}

// RaspberryPiPins returns the wiring of the panel extension board on a
// Raspberry Pi header, with the panel on SPI0.
func RaspberryPiPins() Pins {
	return Pins{
		PanelOn:    rpi.P1_16,
		ChipSelect: rpi.P1_24,
		Reset:      rpi.P1_18,
		Busy:       rpi.P1_22,
		Border:     rpi.P1_13,
		Discharge:  rpi.P1_15,
	}
}

// assigned reports whether p names a real pin. A typed nil pointer behind
// the interface counts as unassigned.
func assigned(p pin.Pin) (ok bool) {
	if p == nil || p == gpio.INVALID {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p.Number() >= 0
}

// validate checks the wiring without touching any pin.
func (p *Pins) validate(borderRequired bool) error {
	roles := []struct {
		name      string
		pin       pin.Pin
		mandatory bool
	}{
		{"panel-on", p.PanelOn, true},
		{"chip-select", p.ChipSelect, true},
		{"reset", p.Reset, true},
		{"busy", p.Busy, true},
		{"border", p.Border, borderRequired},
		{"discharge", p.Discharge, true},
	}

	seen := map[int]string{}
	for _, r := range roles {
		if !assigned(r.pin) {
			if r.mandatory {
				return fmt.Errorf("%w: %s pin is not assigned", ErrInvalidPinConfig, r.name)
			}
			continue
		}
		n := r.pin.Number()
		if other, ok := seen[n]; ok {
			return fmt.Errorf("%w: %s and %s pins are both %d", ErrInvalidPinConfig, other, r.name, n)
		}
		seen[n] = r.name
	}
	return nil
}
