// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/g2epd/bitmap"
)

func fill(g *Geometry, b byte) []byte {
	return bytes.Repeat([]byte{b}, g.ImageSize())
}

func TestNew(t *testing.T) {
	f := newFakeCOG()
	for _, opts := range []Opts{
		{},
		{Size: Size(7)},
		{Size: Size144, Previous: make([]byte, 100)},
	} {
		if _, err := New(f, f.pins(), &opts); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("New(%+v) = %v, want %v", opts, err, ErrInvalidArgument)
		}
	}

	d, err := New(f, f.pins(), &Opts{Size: Size271})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.events) != 0 || f.connects != 0 {
		t.Errorf("New() touched the hardware")
	}
	if d.Width() != 264 || d.Height() != 176 || d.BytesPerLine() != 33 || d.ImageSize() != 5808 {
		t.Errorf("%s: BytesPerLine() = %d, ImageSize() = %d", d, d.BytesPerLine(), d.ImageSize())
	}
	if d.State() != Off {
		t.Errorf("State() = %v, want %v", d.State(), Off)
	}
	if d.timing != (frameTiming{budget: DefaultFrameTime}) {
		t.Errorf("default timing = %+v", d.timing)
	}
	if got, want := d.String(), "g2cog.Dev{fakeCOG, Size: 2.71, Width: 264, Height: 176}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRefreshInvalidArgument(t *testing.T) {
	g, _ := Size144.Geometry()
	for _, tc := range []struct {
		name       string
		persistent []byte
		prev, next []byte
	}{
		{"no previous", nil, nil, fill(&g, 0)},
		{"short next", fill(&g, 0), nil, make([]byte, 10)},
		{"short prev", nil, make([]byte, 10), fill(&g, 0)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, f := newTestDev(t, Size144, tc.persistent)
			if err := d.ChangeImageFrom(tc.prev, tc.next); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ChangeImageFrom() = %v, want %v", err, ErrInvalidArgument)
			}
			if err := d.UpdateImageFrom(tc.prev, tc.next); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("UpdateImageFrom() = %v, want %v", err, ErrInvalidArgument)
			}
			if len(f.events) != 0 || f.connects != 0 {
				t.Errorf("hardware touched: %d events, %d connects", len(f.events), f.connects)
			}
		})
	}
}

func TestChangeImageStages(t *testing.T) {
	g, _ := Size144.Geometry()
	prev := fill(&g, 0x00)
	d, f := newTestDev(t, Size144, prev)
	d.SetFrameRepeats(1)
	next := fill(&g, 0xFF)

	if err := d.ChangeImage(next); err != nil {
		t.Fatal(err)
	}

	lines := f.lines()
	if len(lines) != 4*g.Height+g.Height+1 {
		t.Fatalf("%d lines, want %d", len(lines), 5*g.Height+1)
	}
	// White pixels in the first two stages, black ones in the last two.
	for stage, want := range []byte{0xFF, 0xAA, 0x00, 0xFF} {
		for y := 0; y < g.Height; y++ {
			_, even, scan, odd := split(&g, lines[stage*g.Height+y])
			if !cmp.Equal(even, bytes.Repeat([]byte{want}, g.BytesPerLine())) || !cmp.Equal(odd, even) {
				t.Fatalf("stage %d row %d: even %x odd %x, want %#02x", stage+1, y, even, odd, want)
			}
			if scan[len(scan)-1-y/4] != 3<<(y%4*2) {
				t.Fatalf("stage %d row %d: selector %x", stage+1, y, scan)
			}
		}
	}
	if !bytes.Equal(prev, next) {
		t.Error("previous image not updated")
	}
	if d.State() != Off {
		t.Errorf("State() = %v, want %v", d.State(), Off)
	}
}

func TestChangeImageRepeats(t *testing.T) {
	d, f := newTestDev(t, Size200, nil)
	d.SetFrameRepeats(2)
	g, _ := Size200.Geometry()

	if err := d.ChangeImageFrom(fill(&g, 0x0F), fill(&g, 0xF0)); err != nil {
		t.Fatal(err)
	}

	if got, want := len(f.lines()), 8*g.Height+g.Height+1; got != want {
		t.Errorf("%d lines, want %d", got, want)
	}
}

func TestChangeImageTimeBudget(t *testing.T) {
	d, f := newTestDev(t, Size144, nil)
	d.SetFrameTime(500 * time.Millisecond)
	g, _ := Size144.Geometry()

	if err := d.ChangeImageFrom(fill(&g, 0x00), fill(&g, 0x55)); err != nil {
		t.Fatal(err)
	}

	// A sweep of 96 lines takes 96ms on the fake, so the budget needs 6.
	if got, want := len(f.lines()), 4*6*g.Height+g.Height+1; got != want {
		t.Errorf("%d lines, want %d", got, want)
	}
}

func TestChangeImageByTemperature(t *testing.T) {
	d, f := newTestDev(t, Size144, nil)
	d.SetFrameTimeByTemperature(45)
	g, _ := Size144.Geometry()

	if err := d.ChangeImageFrom(fill(&g, 0x00), fill(&g, 0x55)); err != nil {
		t.Fatal(err)
	}

	// 441ms needs 5 sweeps of 96ms.
	if got, want := len(f.lines()), 4*5*g.Height+g.Height+1; got != want {
		t.Errorf("%d lines, want %d", got, want)
	}
}

func TestChangeImageFailureKeepsPrevious(t *testing.T) {
	g, _ := Size144.Geometry()
	prev := fill(&g, 0x00)
	d, f := newTestDev(t, Size144, prev)
	f.chipID = 0x11

	if err := d.ChangeImage(fill(&g, 0xFF)); !errors.Is(err, ErrInvalidChipID) {
		t.Fatalf("ChangeImage() = %v, want %v", err, ErrInvalidChipID)
	}
	if !bytes.Equal(prev, fill(&g, 0x00)) {
		t.Error("previous image changed after a failed refresh")
	}
	if d.State() != Off {
		t.Errorf("State() = %v, want %v", d.State(), Off)
	}
}

func TestUpdateImage(t *testing.T) {
	g, _ := Size144.Geometry()
	bpl := g.BytesPerLine()
	prev := fill(&g, 0x00)
	d, f := newTestDev(t, Size144, prev)

	next := fill(&g, 0x00)
	next[0] = 0x01
	if err := d.UpdateImage(next); err != nil {
		t.Fatal(err)
	}

	lines := f.lines()
	if len(lines) != g.Height+g.Height+1 {
		t.Fatalf("%d lines, want %d", len(lines), 2*g.Height+1)
	}
	_, even, _, odd := split(&g, lines[0])
	want := make([]byte, bpl)
	want[bpl-1] = 0x03
	if diff := cmp.Diff(even, want); diff != "" {
		t.Errorf("row 0 even bytes (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(odd, make([]byte, bpl)); diff != "" {
		t.Errorf("row 0 odd bytes (-got +want):\n%s", diff)
	}
	for y := 1; y < g.Height; y++ {
		_, even, _, odd := split(&g, lines[y])
		if !cmp.Equal(even, make([]byte, bpl)) || !cmp.Equal(odd, make([]byte, bpl)) {
			t.Fatalf("row %d drives unchanged pixels: %x", y, lines[y])
		}
	}
	if !bytes.Equal(prev, next) {
		t.Error("previous image not updated")
	}

	// Nothing changed: no pixel is driven.
	f.events = nil
	if err := d.UpdateImage(next); err != nil {
		t.Fatal(err)
	}
	for y, l := range f.lines()[:g.Height] {
		_, even, _, odd := split(&g, l)
		if !cmp.Equal(even, make([]byte, bpl)) || !cmp.Equal(odd, make([]byte, bpl)) {
			t.Fatalf("row %d drives unchanged pixels: %x", y, l)
		}
	}
}

func TestDraw(t *testing.T) {
	g, _ := Size144.Geometry()
	prev := fill(&g, 0x00)
	d, f := newTestDev(t, Size144, prev)
	d.SetFrameRepeats(1)

	if d.ColorModel() != bitmap.BitModel || d.Bounds() != image.Rect(0, 0, 128, 96) {
		t.Fatalf("ColorModel() = %v, Bounds() = %v", d.ColorModel(), d.Bounds())
	}
	black := &image.Uniform{C: color.Black}
	if err := d.Draw(image.Rect(0, 0, 8, 1), black, image.Point{}); err != nil {
		t.Fatal(err)
	}
	want := fill(&g, 0x00)
	want[0] = 0xFF
	if !bytes.Equal(prev, want) {
		t.Errorf("Draw() left %x...", prev[:4])
	}

	f.events = nil
	if err := d.DrawPartial(image.Rect(120, 95, 200, 200), black, image.Point{}); err != nil {
		t.Fatal(err)
	}
	want[len(want)-1] = 0xFF
	if !bytes.Equal(prev, want) {
		t.Errorf("DrawPartial() left %x", prev[len(prev)-4:])
	}
	if got := len(f.lines()); got != 2*g.Height+1 {
		t.Errorf("DrawPartial() sent %d lines, want a single sweep", got)
	}
}

func TestDrawNoPrevious(t *testing.T) {
	d, f := newTestDev(t, Size144, nil)
	if err := d.Draw(d.Bounds(), image.White, image.Point{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Draw() = %v, want %v", err, ErrInvalidArgument)
	}
	if len(f.events) != 0 {
		t.Errorf("hardware touched")
	}
}

func TestHalt(t *testing.T) {
	d, f := newTestDev(t, Size144, nil)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if len(f.events) != 0 {
		t.Errorf("Halt() on an idle panel touched the hardware")
	}

	if err := d.powerOn(); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if d.State() != Off {
		t.Errorf("State() = %v, want %v", d.State(), Off)
	}
	if diff := cmp.Diff(f.pinLevels("panel-on"), []gpio.Level{gpio.High, gpio.Low}); diff != "" {
		t.Errorf("panel-on difference (-got +want):\n%s", diff)
	}
}
