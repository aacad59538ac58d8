// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen implements a display.Drawer that previews e-paper frames on
// the terminal (stdout) using ANSI color codes.
//
// Useful to check a frame before spending a full refresh on the panel.
package screen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/g2epd/bitmap"
)

// Opts represents the options available for this display.
type Opts struct {
	// Width and Height of the emulated panel in pixels.
	Width  int
	Height int
	// Scale shows one terminal cell per Scale x Scale pixels. 0 means 1.
	Scale   int
	Palette *ansi256.Palette
	// W receives the output. Defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is an e-paper panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	scale   int
	palette ansi256.Palette

	frame *bitmap.Image
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	return &Dev{
		w:       w,
		scale:   scale,
		palette: *p,
		frame:   bitmap.NewImage(image.Rect(0, 0, opts.Width, opts.Height)),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("Screen{%dx%d}", d.frame.Rect.Dx(), d.frame.Rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Write accepts a packed frame, as taken by g2cog, and writes it to the
// console.
func (d *Dev) Write(frame []byte) (int, error) {
	if len(frame) != len(d.frame.Pix) {
		return 0, errors.New("invalid frame length")
	}
	copy(d.frame.Pix, frame)
	return len(frame), d.refresh()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return bitmap.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.frame.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Src.Draw(d.frame, r.Intersect(d.Bounds()), src, sp)
	return d.refresh()
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	b := d.frame.Rect
	for y := b.Min.Y; y < b.Max.Y; y += d.scale {
		_, _ = d.buf.WriteString("\033[0m")
		for x := b.Min.X; x < b.Max.X; x += d.scale {
			_, _ = io.WriteString(&d.buf, d.palette.Block(d.cell(x, y)))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

// cell averages the scale x scale pixels starting at (x, y).
func (d *Dev) cell(x, y int) color.NRGBA {
	black, total := 0, 0
	for dy := 0; dy < d.scale; dy++ {
		for dx := 0; dx < d.scale; dx++ {
			if !(image.Point{x + dx, y + dy}.In(d.frame.Rect)) {
				continue
			}
			total++
			if d.frame.BitAt(x+dx, y+dy) {
				black++
			}
		}
	}
	v := uint8(255 - 255*black/total)
	return color.NRGBA{v, v, v, 255}
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
