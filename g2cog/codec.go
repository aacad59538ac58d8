// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

// driveCode is the 2-bit value the controller turns into a pixel voltage.
type driveCode byte

const (
	codeNothing driveCode = 0b00
	codeInverse driveCode = 0b01
	codeWhite   driveCode = 0b10
	codeBlack   driveCode = 0b11

	// codeKeep is all ones; ANDed over a line it keeps a code unchanged.
	codeKeep driveCode = 0b11
)

// dummyRow deselects every row. It is used for the dummy line at shutdown.
const dummyRow = -4

// codeFor returns the nibble for the two pixels at bit 0 and bit 2 of bits,
// each mapped to white or black depending on its value. The pixel at bit 2
// lands in the upper half of the nibble. The other bits are ignored.
//
// This is the order in which the controller shifts even pixels into its
// source drivers.
func codeFor(bits byte, white, black driveCode) byte {
	return pixelCode(bits&0b100 != 0, white, black)<<2 | pixelCode(bits&0b001 != 0, white, black)
}

// oddCodeFor is codeFor with the two pixels swapped, matching the reversed
// wiring of odd pixels.
func oddCodeFor(bits byte, white, black driveCode) byte {
	return pixelCode(bits&0b001 != 0, white, black)<<2 | pixelCode(bits&0b100 != 0, white, black)
}

func pixelCode(isBlack bool, white, black driveCode) byte {
	if isBlack {
		return byte(black)
	}
	return byte(white)
}

// lineEncoder builds line transfers for one panel geometry. The returned
// slice is reused by the next call.
type lineEncoder struct {
	g   *Geometry
	buf []byte
}

func newLineEncoder(g *Geometry) *lineEncoder {
	return &lineEncoder{
		g:   g,
		buf: make([]byte, 0, 2+2*g.BytesPerLine()+g.Height/4),
	}
}

// encode returns the payload written to regLineData for row, starting with
// the write header.
//
// pixels is one packed row. When changed is non-nil, it is a packed row of
// the same length and only pixels whose bit is set there are driven; the
// others get codeNothing.
func (e *lineEncoder) encode(row int, pixels, changed []byte, white, black driveCode, border byte) []byte {
	bpl := e.g.BytesPerLine()
	b := append(e.buf[:0], headerWrite)
	if e.g.border == borderLeading {
		b = append(b, border)
	}

	// Even pixels, right to left.
	for x := bpl - 1; x >= 0; x-- {
		p := pixels[x]
		v := codeFor(p>>4, white, black)<<4 | codeFor(p, white, black)
		if changed != nil {
			c := changed[x]
			v &= codeFor(c>>4, codeNothing, codeKeep)<<4 | codeFor(c, codeNothing, codeKeep)
		}
		b = append(b, v)
	}

	// Row selector, one bit pair per row.
	for y := e.g.Height/4 - 1; y >= 0; y-- {
		if row >= 0 && y == row/4 {
			b = append(b, byte(3)<<(row%4*2))
		} else {
			b = append(b, 0x00)
		}
	}

	// Odd pixels, left to right.
	for x := 0; x < bpl; x++ {
		p := pixels[x]
		v := oddCodeFor(p>>5, white, black) | oddCodeFor(p>>1, white, black)<<4
		if changed != nil {
			c := changed[x]
			v &= oddCodeFor(c>>5, codeNothing, codeKeep) | oddCodeFor(c>>1, codeNothing, codeKeep)<<4
		}
		b = append(b, v)
	}

	if e.g.border == borderTrailing {
		b = append(b, border)
	}
	e.buf = b
	return b
}
