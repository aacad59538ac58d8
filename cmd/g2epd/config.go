// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/GermanBionicSystems/g2epd/g2cog"
)

// PinConfig names the GPIO used for each panel pin, as known to gpioreg.
// An empty name leaves the pin unassigned.
type PinConfig struct {
	PanelOn    string `yaml:"panel_on"`
	ChipSelect string `yaml:"chip_select"`
	Reset      string `yaml:"reset"`
	Busy       string `yaml:"busy"`
	Border     string `yaml:"border"`
	Discharge  string `yaml:"discharge"`
}

// FrameConfig selects the frame timing policy. The first non-zero of
// Temperature, Repeats and TimeMS wins.
type FrameConfig struct {
	Repeats     int  `yaml:"repeats"`
	TimeMS      int  `yaml:"time_ms"`
	Temperature *int `yaml:"temperature,omitempty"`
}

// Config is the configuration of the g2epd tool.
type Config struct {
	Size g2cog.Size `yaml:"size"`
	// SPI is the spireg name of the port; empty selects the first one.
	SPI     string `yaml:"spi"`
	SPIMode int    `yaml:"spi_mode"`

	Pins  PinConfig   `yaml:"pins"`
	Frame FrameConfig `yaml:"frame"`

	// Schedule is a cron expression; when set the panel is refreshed on
	// every tick instead of once.
	Schedule string `yaml:"schedule"`
	// FullEvery makes every n-th scheduled refresh a full one; the others
	// are differential.
	FullEvery int `yaml:"full_every"`
}

// defaultConfig matches g2cog.RaspberryPiPins.
func defaultConfig() *Config {
	return &Config{
		Size: g2cog.Size271,
		Pins: PinConfig{
			PanelOn:    "GPIO23",
			ChipSelect: "GPIO8",
			Reset:      "GPIO24",
			Busy:       "GPIO25",
			Border:     "GPIO27",
			Discharge:  "GPIO22",
		},
		FullEvery: 6,
	}
}

// loadConfig reads path over the defaults. A missing file yields the
// defaults.
func loadConfig(path string) (*Config, error) {
	conf := defaultConfig()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return conf, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return conf, conf.validate()
}

func (c *Config) validate() error {
	if _, ok := c.Size.Geometry(); !ok {
		return fmt.Errorf("invalid panel size %v", c.Size)
	}
	if c.SPIMode != 0 && c.SPIMode != 1 {
		return fmt.Errorf("spi_mode must be 0 or 1, got %d", c.SPIMode)
	}
	if c.FullEvery < 1 {
		return fmt.Errorf("full_every must be positive, got %d", c.FullEvery)
	}
	return nil
}

// applyTiming sets the frame timing policy on dev.
func (f *FrameConfig) applyTiming(dev *g2cog.Dev) {
	switch {
	case f.Temperature != nil:
		dev.SetFrameTimeByTemperature(*f.Temperature)
	case f.Repeats > 0:
		dev.SetFrameRepeats(f.Repeats)
	case f.TimeMS > 0:
		dev.SetFrameTime(time.Duration(f.TimeMS) * time.Millisecond)
	}
}

// resolve looks up the pins in gpioreg. It must be called after host.Init.
func (p *PinConfig) resolve() (g2cog.Pins, error) {
	lookup := func(name string) (gpio.PinIO, error) {
		if name == "" {
			return nil, nil
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("gpio %s not found", name)
		}
		return pin, nil
	}

	var pins g2cog.Pins
	for _, r := range []struct {
		name string
		set  func(gpio.PinIO)
	}{
		{p.PanelOn, func(g gpio.PinIO) { pins.PanelOn = g }},
		{p.ChipSelect, func(g gpio.PinIO) { pins.ChipSelect = g }},
		{p.Reset, func(g gpio.PinIO) { pins.Reset = g }},
		{p.Busy, func(g gpio.PinIO) { pins.Busy = g }},
		{p.Border, func(g gpio.PinIO) { pins.Border = g }},
		{p.Discharge, func(g gpio.PinIO) { pins.Discharge = g }},
	} {
		g, err := lookup(r.name)
		if err != nil {
			return g2cog.Pins{}, err
		}
		if g != nil {
			r.set(g)
		}
	}
	return pins, nil
}
