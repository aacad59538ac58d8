// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitmap

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	"github.com/hjkoskel/gomonochromebitmap"
)

// Dither scales src to fit r, keeping its aspect ratio and centering it on
// a white background, and converts it with Floyd-Steinberg dithering.
func Dither(src image.Image, r image.Rectangle) *Image {
	return toImage(halfgone.FloydSteinbergDitherer{}.Apply(grayFit(src, r)), r, 0x80)
}

// Threshold is like Dither but maps every pixel darker than level to black.
// It suits line art and text.
func Threshold(src image.Image, r image.Rectangle, level uint8) *Image {
	return toImage(grayFit(src, r), r, level)
}

func grayFit(src image.Image, r image.Rectangle) *image.Gray {
	gray := image.NewGray(r)
	draw.Draw(gray, r, &image.Uniform{color.White}, image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Dx() != r.Dx() || sb.Dy() != r.Dy() {
		src = imaging.Fit(src, r.Dx(), r.Dy(), imaging.Lanczos)
		sb = src.Bounds()
	}
	off := image.Pt((r.Dx()-sb.Dx())/2, (r.Dy()-sb.Dy())/2)
	dst := image.Rectangle{Min: r.Min.Add(off), Max: r.Min.Add(off).Add(sb.Size())}
	draw.Draw(gray, dst, src, sb.Min, draw.Over)
	return gray
}

func toImage(gray *image.Gray, r image.Rectangle, level uint8) *Image {
	img := NewImage(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetBit(x, y, Bit(gray.GrayAt(x, y).Y < level))
		}
	}
	return img
}

// FromMonoBitmap converts a gomonochromebitmap bitmap, where a set pixel is
// ink, into an Image at the origin.
func FromMonoBitmap(bm gomonochromebitmap.MonoBitmap) *Image {
	img := NewImage(image.Rect(0, 0, bm.W, bm.H))
	for y := 0; y < bm.H; y++ {
		for x := 0; x < bm.W; x++ {
			img.SetBit(x, y, Bit(bm.GetPix(x, y)))
		}
	}
	return img
}
