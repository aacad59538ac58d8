// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import (
	"testing"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// event is either a pin write or an SPI transfer.
type event struct {
	pin   string
	level gpio.Level
	w     []byte
}

type fakeClock struct {
	now   time.Time
	slept time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
}

// fakeCOG is an spi.Port and spi.Conn emulating the COG register file.
type fakeCOG struct {
	events []event
	clock  *fakeClock

	chipID byte
	status byte
	index  byte

	// dcReadyAt holds the DC/DC ready status bit clear until Vcom was
	// switched on that many times.
	dcReadyAt int
	vcomOn    int

	// lineDelay advances the clock on every line transfer.
	lineDelay time.Duration

	connects int
	mode     spi.Mode
	freq     physic.Frequency
}

func newFakeCOG() *fakeCOG {
	return &fakeCOG{
		clock:     &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		chipID:    cogG2ID,
		status:    statusPanelPresent | statusDCReady,
		lineDelay: time.Millisecond,
	}
}

func (f *fakeCOG) String() string {
	return "fakeCOG"
}

func (f *fakeCOG) Connect(freq physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	f.connects++
	f.freq = freq
	f.mode = mode
	return f, nil
}

func (f *fakeCOG) LimitSpeed(freq physic.Frequency) error {
	return nil
}

func (f *fakeCOG) Duplex() conn.Duplex {
	return conn.Full
}

func (f *fakeCOG) TxPackets(p []spi.Packet) error {
	for _, pkt := range p {
		if err := f.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCOG) Tx(w, r []byte) error {
	f.events = append(f.events, event{w: append([]byte(nil), w...)})

	if len(w) == 2 {
		switch w[0] {
		case headerIndex:
			f.index = w[1]
		case headerDriverID:
			r[1] = f.chipID
		case headerWrite:
			if f.index == regChargePump && w[1] == 0x0F {
				f.vcomOn++
			}
		case headerRead:
			if f.index == regStatus {
				r[1] = f.status
				if f.vcomOn < f.dcReadyAt {
					r[1] &^= statusDCReady
				}
			}
		}
		return nil
	}
	if f.index == regLineData {
		f.clock.Sleep(f.lineDelay)
	}
	return nil
}

// tracePin records its writes in the fakeCOG event log.
type tracePin struct {
	*gpiotest.Pin
	f *fakeCOG
}

func (p *tracePin) Out(l gpio.Level) error {
	p.f.events = append(p.f.events, event{pin: p.N, level: l})
	return p.Pin.Out(l)
}

// busyPin reads High for its first high reads, logging each one.
type busyPin struct {
	*gpiotest.Pin
	f    *fakeCOG
	high int
}

func (p *busyPin) Read() gpio.Level {
	l := gpio.Low
	if p.high > 0 {
		p.high--
		l = gpio.High
	}
	p.f.events = append(p.f.events, event{pin: p.N, level: l})
	return l
}

func (f *fakeCOG) pin(name string, num int) *tracePin {
	return &tracePin{Pin: &gpiotest.Pin{N: name, Num: num}, f: f}
}

func (f *fakeCOG) pins() Pins {
	return Pins{
		PanelOn:    f.pin("panel-on", 1),
		ChipSelect: f.pin("cs", 2),
		Reset:      f.pin("reset", 3),
		Busy:       &busyPin{Pin: &gpiotest.Pin{N: "busy", Num: 4}, f: f},
		Border:     f.pin("border", 5),
		Discharge:  f.pin("discharge", 6),
	}
}

func newTestDev(t *testing.T, size Size, prev []byte) (*Dev, *fakeCOG) {
	f := newFakeCOG()
	d, err := New(f, f.pins(), &Opts{Size: size, Previous: prev, Clock: f.clock})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return d, f
}

// record is a decoded register write.
type record struct {
	reg  byte
	data []byte
}

// writes decodes the register writes in the event log.
func (f *fakeCOG) writes() []record {
	var out []record
	var index byte
	for _, e := range f.events {
		if e.w == nil {
			continue
		}
		switch e.w[0] {
		case headerIndex:
			index = e.w[1]
		case headerWrite:
			out = append(out, record{reg: index, data: e.w[1:]})
		}
	}
	return out
}

// lines returns the payloads of every line transfer.
func (f *fakeCOG) lines() [][]byte {
	var out [][]byte
	for _, r := range f.writes() {
		if r.reg == regLineData {
			out = append(out, r.data)
		}
	}
	return out
}

// pinLevels returns the successive levels written to a pin.
func (f *fakeCOG) pinLevels(name string) []gpio.Level {
	var out []gpio.Level
	for _, e := range f.events {
		if e.pin == name {
			out = append(out, e.level)
		}
	}
	return out
}

// split cuts a line payload without the write header into its even pixel,
// row selector and odd pixel parts.
func split(g *Geometry, line []byte) (border byte, even, scan, odd []byte) {
	bpl := g.BytesPerLine()
	if g.border == borderLeading {
		border, line = line[0], line[1:]
	} else {
		border = line[len(line)-1]
		line = line[:len(line)-1]
	}
	return border, line[:bpl], line[bpl : bpl+g.Height/4], line[bpl+g.Height/4:]
}
