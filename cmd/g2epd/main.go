// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// g2epd draws an image or text on a Pervasive Displays e-paper panel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/g2epd/g2cog"
	"github.com/GermanBionicSystems/g2epd/screen"
)

type flagConfig struct {
	configPath  string
	size        g2cog.Size
	image       string
	text        string
	textSize    float64
	partial     bool
	preview     bool
	temperature int
	schedule    string
	fullEvery   int
	verbose     bool
}

func parseFlags() *flagConfig {
	f := &flagConfig{temperature: noTemperature}
	flag.StringVar(&f.configPath, "config", "/etc/g2epd/config.yaml", "Path to config file")
	flag.Var(&f.size, "size", "Panel size (1.44, 2.00 or 2.71); overrides config")
	flag.StringVar(&f.image, "image", "", "Image file to show")
	flag.StringVar(&f.text, "text", "", "Text to show; {time} is replaced by the current time")
	flag.Float64Var(&f.textSize, "text-size", 24, "Font size in points for -text")
	flag.BoolVar(&f.partial, "partial", false, "Use differential refreshes")
	flag.BoolVar(&f.preview, "preview", false, "Print the frame on the terminal instead of driving the panel")
	flag.IntVar(&f.temperature, "temperature", noTemperature, "Ambient temperature in °C for frame timing; overrides config")
	flag.StringVar(&f.schedule, "schedule", "", "Cron schedule to refresh on; overrides config")
	flag.IntVar(&f.fullEvery, "full-every", 0, "With -partial and -schedule, make every n-th refresh a full one; overrides config")
	flag.BoolVar(&f.verbose, "v", false, "Verbose logging")
	flag.Parse()
	return f
}

const noTemperature = -1 << 31

func main() {
	flags := parseFlags()

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := mainImpl(flags, logger); err != nil {
		logger.Error("g2epd failed", "err", err)
		os.Exit(1)
	}
}

func mainImpl(flags *flagConfig, logger *slog.Logger) error {
	conf, err := loadConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.size != g2cog.SizeInvalid {
		conf.Size = flags.size
	}
	if flags.temperature != noTemperature {
		t := flags.temperature
		conf.Frame.Temperature = &t
	}
	if flags.schedule != "" {
		conf.Schedule = flags.schedule
	}
	if flags.fullEvery > 0 {
		conf.FullEvery = flags.fullEvery
	}
	if err := conf.validate(); err != nil {
		return err
	}

	src, err := newSource(flags.image, flags.text, flags.textSize)
	if err != nil {
		return err
	}

	geom, _ := conf.Size.Geometry()
	r := &refresher{
		src:       src,
		bounds:    geom.Bounds(),
		fullEvery: conf.FullEvery,
		partial:   flags.partial,
		log:       logger,
	}

	if flags.preview {
		r.panel = previewPanel{s: screen.New(&screen.Opts{Width: geom.Width, Height: geom.Height})}
	} else {
		dev, closePort, err := openPanel(conf, logger)
		if err != nil {
			return err
		}
		defer closePort()
		defer dev.Halt()
		r.panel = dev
	}

	if conf.Schedule == "" {
		return r.refresh()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.schedule(ctx, conf.Schedule)
}

// openPanel initializes periph and returns a driver for the configured
// panel. The panel is assumed to show a white image.
func openPanel(conf *Config, logger *slog.Logger) (*g2cog.Dev, func(), error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	pins, err := conf.Pins.resolve()
	if err != nil {
		return nil, nil, err
	}

	// Use spireg SPI port registry to find the configured SPI port.
	p, err := spireg.Open(conf.SPI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open SPI port: %w", err)
	}

	geom, _ := conf.Size.Geometry()
	dev, err := g2cog.New(p, pins, &g2cog.Opts{
		Size:     conf.Size,
		Previous: make([]byte, geom.ImageSize()),
		Mode:     spi.Mode(conf.SPIMode),
		Logger:   logger,
	})
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	conf.Frame.applyTiming(dev)
	logger.Debug("panel ready", "dev", dev.String())
	return dev, func() { p.Close() }, nil
}
