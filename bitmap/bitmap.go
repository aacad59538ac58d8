// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitmap implements the packed monochrome image format consumed by
// the g2cog driver.
//
// Pixel (x, y) of an image with width w is bit i%8 of byte i/8, where
// i = y*w + x and bit 0 is the least significant. A set bit is black. Rows
// are not padded.
package bitmap

import (
	"fmt"
	"image"
	"image/color"
)

// Bit implements a 1 bit color.
type Bit bool

const (
	White Bit = false
	Black Bit = true
)

// RGBA returns either all white or all black.
func (b Bit) RGBA() (uint32, uint32, uint32, uint32) {
	if b {
		return 0, 0, 0, 0xffff
	}
	return 0xffff, 0xffff, 0xffff, 0xffff
}

func (b Bit) String() string {
	if b {
		return "Black"
	}
	return "White"
}

// BitModel is the color Model for 1 bit color.
var BitModel = color.ModelFunc(convert)

func convert(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, _ := c.RGBA()
	// Same luminance weights as color.GrayModel.
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
	return Bit(y < 0x8000)
}

// Image is a packed 1 bit image.
type Image struct {
	Pix  []byte
	Rect image.Rectangle
}

// NewImage returns an all white Image.
func NewImage(r image.Rectangle) *Image {
	return &Image{
		Pix:  make([]byte, (r.Dx()*r.Dy()+7)/8),
		Rect: r,
	}
}

// Wrap returns an Image backed by pix without copying it.
func Wrap(pix []byte, r image.Rectangle) (*Image, error) {
	if want := (r.Dx()*r.Dy() + 7) / 8; len(pix) != want {
		return nil, fmt.Errorf("bitmap: %d bytes for %v, want %d", len(pix), r, want)
	}
	return &Image{Pix: pix, Rect: r}, nil
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return BitModel
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.BitAt(x, y)
}

// BitAt is the optimized version of At.
func (i *Image) BitAt(x, y int) Bit {
	if !(image.Point{x, y}.In(i.Rect)) {
		return White
	}
	off, mask := i.offset(x, y)
	return Bit(i.Pix[off]&mask != 0)
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.SetBit(x, y, convert(c).(Bit))
}

// SetBit is the optimized version of Set.
func (i *Image) SetBit(x, y int, b Bit) {
	if !(image.Point{x, y}.In(i.Rect)) {
		return
	}
	off, mask := i.offset(x, y)
	if b {
		i.Pix[off] |= mask
	} else {
		i.Pix[off] &^= mask
	}
}

func (i *Image) offset(x, y int) (int, byte) {
	n := (y-i.Rect.Min.Y)*i.Rect.Dx() + (x - i.Rect.Min.X)
	return n / 8, 1 << uint(n%8)
}
