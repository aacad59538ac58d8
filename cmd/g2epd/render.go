// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/g2epd/bitmap"
)

// source produces the frame to show.
type source interface {
	render(bounds image.Rectangle) (*bitmap.Image, error)
}

// fileSource dithers an image file. The file is read on every render so it
// can be replaced between scheduled refreshes.
type fileSource struct {
	path string
}

func (s fileSource) render(bounds image.Rectangle) (*bitmap.Image, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return bitmap.Dither(img, bounds), nil
}

// textSource lays out text centered on the panel. "{time}" is replaced by
// the current time.
type textSource struct {
	text string
	size float64
	now  func() time.Time
}

func (s textSource) render(bounds image.Rectangle) (*bitmap.Image, error) {
	face, err := goRegular(s.size)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(s.text, "{time}", s.now().Format("15:04"))
	lines := strings.Split(text, "\n")

	w, h := bounds.Dx(), bounds.Dy()
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(face)

	lineHeight := dc.FontHeight() * 1.2
	top := float64(h)/2 - lineHeight*float64(len(lines)-1)/2
	for i, line := range lines {
		dc.DrawStringAnchored(line, float64(w)/2, top+lineHeight*float64(i), 0.5, 0.35)
	}
	return bitmap.Threshold(dc.Image(), bounds, 0x80), nil
}

func goRegular(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

func newSource(imagePath, text string, textSize float64) (source, error) {
	switch {
	case imagePath != "" && text != "":
		return nil, errors.New("-image and -text are mutually exclusive")
	case imagePath != "":
		return fileSource{path: imagePath}, nil
	case text != "":
		return textSource{text: text, size: textSize, now: time.Now}, nil
	}
	return nil, errors.New("one of -image or -text is required")
}
