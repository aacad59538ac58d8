// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/GermanBionicSystems/g2epd/bitmap"
)

// Opts is the configuration of a Dev.
type Opts struct {
	// Size of the panel. Required.
	Size Size

	// Previous is the persistent previous-image slot, in the packed format
	// of bitmap.Image. It is read as the previous image when a refresh is
	// not given one and receives a copy of every image drawn. It may be nil;
	// if not, it must hold the image currently on the panel.
	Previous []byte

	// Mode is the SPI clock phase mode. Mode0 works on most hosts; some need
	// Mode1 to meet the controller's sampling edge.
	Mode spi.Mode
	// Frequency of the SPI clock. DefaultFrequency is used when zero.
	Frequency physic.Frequency

	// Clock provides delays and time. Defaults to the wall clock.
	Clock Clock
	// Logger receives debug output. Defaults to discarding.
	Logger *slog.Logger
}

// Dev is an open handle to a panel behind a COG G2 controller.
//
// A Dev owns its SPI port and pins. It is not safe for concurrent use.
type Dev struct {
	p    spi.Port
	c    conn.Conn
	mode spi.Mode
	freq physic.Frequency

	pins Pins
	size Size
	geom Geometry

	previous []byte
	timing   frameTiming
	state    PowerState

	clock Clock
	log   *slog.Logger

	enc   *lineEncoder
	blank []byte
	diff  []byte
}

// New returns a handle to the panel. It does not perform any I/O; the pins
// are validated and the SPI port connected when the panel is first powered.
func New(p spi.Port, pins Pins, opts *Opts) (*Dev, error) {
	g, ok := opts.Size.Geometry()
	if !ok {
		return nil, fmt.Errorf("%w: unknown panel size %v", ErrInvalidArgument, opts.Size)
	}
	if opts.Previous != nil && len(opts.Previous) != g.ImageSize() {
		return nil, fmt.Errorf("%w: previous image is %d bytes, want %d", ErrInvalidArgument, len(opts.Previous), g.ImageSize())
	}

	d := &Dev{
		p:        p,
		mode:     opts.Mode,
		freq:     opts.Frequency,
		pins:     pins,
		size:     opts.Size,
		geom:     g,
		previous: opts.Previous,
		timing:   frameTiming{budget: DefaultFrameTime},
		clock:    opts.Clock,
		log:      opts.Logger,
		blank:    make([]byte, g.BytesPerLine()),
		diff:     make([]byte, g.BytesPerLine()),
	}
	if d.freq == 0 {
		d.freq = DefaultFrequency
	}
	if d.clock == nil {
		d.clock = wallClock{}
	}
	if d.log == nil {
		d.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.enc = newLineEncoder(&d.geom)
	return d, nil
}

// Width returns the panel width in pixels, a multiple of 8.
func (d *Dev) Width() int {
	return d.geom.Width
}

// Height returns the panel height in pixels, a multiple of 4.
func (d *Dev) Height() int {
	return d.geom.Height
}

// BytesPerLine returns the number of packed bytes in one row.
func (d *Dev) BytesPerLine() int {
	return d.geom.BytesPerLine()
}

// ImageSize returns the length in bytes of a packed image.
func (d *Dev) ImageSize() int {
	return d.geom.ImageSize()
}

// State returns the power state. Outside of a refresh it is always Off.
func (d *Dev) State() PowerState {
	return d.state
}

// SetFrameRepeats makes each stage of a full refresh redraw the frame n
// times. Non-positive values are ignored.
func (d *Dev) SetFrameRepeats(n int) {
	d.timing.setRepeats(n)
}

// SetFrameTime makes each stage of a full refresh last at least t.
// Non-positive values are ignored.
func (d *Dev) SetFrameTime(t time.Duration) {
	d.timing.setBudget(t)
}

// SetFrameTimeByTemperature sets the stage duration recommended for the
// ambient temperature in degrees Celsius. See TemperatureFrameTime.
func (d *Dev) SetFrameTimeByTemperature(celsius int) {
	d.timing.setBudget(TemperatureFrameTime(celsius))
}

// ChangeImage replaces the image on the panel with next, using the
// persistent previous image.
func (d *Dev) ChangeImage(next []byte) error {
	return d.ChangeImageFrom(nil, next)
}

// ChangeImageFrom runs a full refresh from prev to next.
//
// prev is only read; when nil, the persistent previous image is used. The
// panel shows roughly a negative of prev, then a negative of next and finally
// next.
func (d *Dev) ChangeImageFrom(prev, next []byte) error {
	prev, err := d.resolve(prev, next)
	if err != nil {
		return err
	}
	if err := d.powerOn(); err != nil {
		return err
	}

	eh := errorHandler{d: d}
	// Stage 1: compensate.
	iters, elapsed, err := d.timing.firstStage(d.clock, func() error {
		d.drawFrame(&eh, prev, codeBlack, codeWhite, 1)
		return eh.err
	})
	eh.record(err)
	d.log.Debug("g2cog: compensate stage", "sweeps", iters, "elapsed", elapsed)

	d.drawFrame(&eh, prev, codeWhite, codeNothing, iters) // Stage 2: white
	d.drawFrame(&eh, next, codeBlack, codeNothing, iters) // Stage 3: inverse
	d.drawFrame(&eh, next, codeWhite, codeBlack, iters)   // Stage 4: normal

	if eh.err == nil {
		d.remember(next)
	}
	d.powerOff()
	return eh.err
}

// UpdateImage changes the image on the panel to next, driving only the
// pixels that differ from the persistent previous image.
func (d *Dev) UpdateImage(next []byte) error {
	return d.UpdateImageFrom(nil, next)
}

// UpdateImageFrom runs a differential refresh from prev to next in a single
// sweep. Unchanged pixels are not driven.
//
// It is faster and wears the panel less than ChangeImageFrom but ghosting
// builds up; interleave full refreshes periodically.
func (d *Dev) UpdateImageFrom(prev, next []byte) error {
	prev, err := d.resolve(prev, next)
	if err != nil {
		return err
	}
	if err := d.powerOn(); err != nil {
		return err
	}

	eh := errorHandler{d: d}
	bpl := d.geom.BytesPerLine()
	for y := 0; y < d.geom.Height && eh.err == nil; y++ {
		row := next[y*bpl : (y+1)*bpl]
		old := prev[y*bpl : (y+1)*bpl]
		for x := range d.diff {
			d.diff[x] = row[x] ^ old[x]
		}
		d.drawLine(&eh, y, row, d.diff, codeWhite, codeBlack, 0x00)
	}

	if eh.err == nil {
		d.remember(next)
	}
	d.powerOff()
	return eh.err
}

// resolve picks the previous image and checks both buffers before any
// hardware is touched.
func (d *Dev) resolve(prev, next []byte) ([]byte, error) {
	if prev == nil {
		prev = d.previous
	}
	if prev == nil {
		return nil, fmt.Errorf("%w: no previous image", ErrInvalidArgument)
	}
	size := d.geom.ImageSize()
	if len(prev) != size || len(next) != size {
		return nil, fmt.Errorf("%w: images are %d and %d bytes, want %d", ErrInvalidArgument, len(prev), len(next), size)
	}
	return prev, nil
}

func (d *Dev) remember(next []byte) {
	if d.previous != nil {
		copy(d.previous, next)
	}
}

// drawFrame sweeps all rows of pixels iterations times.
func (d *Dev) drawFrame(eh *errorHandler, pixels []byte, white, black driveCode, iterations int) {
	bpl := d.geom.BytesPerLine()
	for i := 0; i < iterations && !eh.skip(); i++ {
		for y := 0; y < d.geom.Height; y++ {
			d.drawLine(eh, y, pixels[y*bpl:(y+1)*bpl], nil, white, black, 0x00)
		}
	}
}

// drawLine sends one line and latches it to the panel.
func (d *Dev) drawLine(eh *errorHandler, row int, pixels, changed []byte, white, black driveCode, border byte) {
	eh.writeRegisterData(regLineData, d.enc.encode(row, pixels, changed, white, black, border))
	eh.writeRegister(regOutputEnable, 0x07) // Output data from COG to panel
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return bitmap.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.geom.Bounds()
}

// Draw implements display.Drawer. src is drawn over the previous image and
// the result shown with a full refresh. It needs Opts.Previous.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	next, err := d.compose(dstRect, src, sp)
	if err != nil {
		return err
	}
	return d.ChangeImage(next.Pix)
}

// DrawPartial is like Draw but uses a differential refresh.
func (d *Dev) DrawPartial(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	next, err := d.compose(dstRect, src, sp)
	if err != nil {
		return err
	}
	return d.UpdateImage(next.Pix)
}

func (d *Dev) compose(dstRect image.Rectangle, src image.Image, sp image.Point) (*bitmap.Image, error) {
	if d.previous == nil {
		return nil, fmt.Errorf("%w: no previous image", ErrInvalidArgument)
	}
	next := bitmap.NewImage(d.geom.Bounds())
	copy(next.Pix, d.previous)
	draw.Src.Draw(next, dstRect.Intersect(next.Bounds()), src, sp)
	return next, nil
}

// Halt implements conn.Resource. The panel is powered off if a refresh was
// interrupted.
func (d *Dev) Halt() error {
	if d.state != Off {
		d.powerOff()
	}
	return nil
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("g2cog.Dev{%s, Size: %s, Width: %d, Height: %d}", d.p, d.size, d.geom.Width, d.geom.Height)
}

var _ display.Drawer = &Dev{}
