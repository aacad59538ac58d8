// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import (
	"fmt"
	"image"
)

// Size is the physical panel size being driven.
type Size int

// Supported Size. The zero value is reserved so an uninitialized Size is
// never mistaken for a real panel.
const (
	SizeInvalid Size = iota
	Size144
	Size200
	Size271
)

// borderPlacement tells where the border byte goes in a line transfer.
type borderPlacement int

const (
	borderLeading borderPlacement = iota
	borderTrailing
)

// Geometry is the per-size capability data of a panel.
type Geometry struct {
	Width  int
	Height int

	// BorderControl is set when the border-control pin must be wired.
	BorderControl bool

	// ChannelSelect is sent once during bring-up; it tells the controller
	// which of its output channels reach the visible panel.
	ChannelSelect [8]byte

	border borderPlacement
	// dummyBorder is the border byte sent with the dummy line at shutdown.
	dummyBorder byte
}

var geometries = map[Size]Geometry{
	Size144: {
		Width:         128,
		Height:        96,
		ChannelSelect: [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x0F, 0xFF, 0x00},
		border:        borderTrailing,
		dummyBorder:   0xAA,
	},
	Size200: {
		Width:         200,
		Height:        96,
		ChannelSelect: [8]byte{0x00, 0x00, 0x00, 0x00, 0x01, 0xFF, 0xE0, 0x00},
		border:        borderLeading,
		dummyBorder:   0xAA,
	},
	Size271: {
		Width:         264,
		Height:        176,
		BorderControl: true,
		ChannelSelect: [8]byte{0x00, 0x00, 0x00, 0x7F, 0xFF, 0xFE, 0x00, 0x00},
		border:        borderLeading,
		dummyBorder:   0x00,
	},
}

// Geometry returns the capability data of the size. ok is false for
// SizeInvalid and unknown values.
func (s Size) Geometry() (g Geometry, ok bool) {
	g, ok = geometries[s]
	return g, ok
}

// BytesPerLine returns the number of packed bytes in one row.
func (g *Geometry) BytesPerLine() int {
	return g.Width / 8
}

// ImageSize returns the length in bytes of a packed frame.
func (g *Geometry) ImageSize() int {
	return g.BytesPerLine() * g.Height
}

// Bounds returns the frame rectangle.
func (g *Geometry) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

func (s Size) String() string {
	switch s {
	case Size144:
		return "1.44"
	case Size200:
		return "2.00"
	case Size271:
		return "2.71"
	}
	return fmt.Sprintf("Size(%d)", int(s))
}

// Set sets the Size to a value represented by the string s. Set implements the flag.Value interface.
func (s *Size) Set(v string) error {
	switch v {
	case "1.44", "144", "1.44in":
		*s = Size144
	case "2.00", "2.0", "200", "2.00in":
		*s = Size200
	case "2.71", "271", "2.71in":
		*s = Size271
	default:
		return fmt.Errorf("unknown panel size %q: expected 1.44, 2.00 or 2.71", v)
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(text []byte) error {
	return s.Set(string(text))
}
