// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/GermanBionicSystems/g2epd/screen"
)

// panel is the part of g2cog.Dev the tool drives.
type panel interface {
	ChangeImage(next []byte) error
	UpdateImage(next []byte) error
}

// previewPanel shows frames on the terminal instead of the panel.
type previewPanel struct {
	s *screen.Dev
}

func (p previewPanel) ChangeImage(next []byte) error {
	_, err := p.s.Write(next)
	return err
}

func (p previewPanel) UpdateImage(next []byte) error {
	_, err := p.s.Write(next)
	return err
}

// refresher renders the source and pushes it to the panel, alternating
// differential refreshes with a full one every fullEvery runs.
type refresher struct {
	panel     panel
	src       source
	bounds    image.Rectangle
	fullEvery int
	partial   bool
	log       *slog.Logger

	runs int
}

func (r *refresher) refresh() error {
	img, err := r.src.render(r.bounds)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	full := !r.partial || r.runs%r.fullEvery == 0
	r.runs++
	if full {
		r.log.Info("full refresh", "run", r.runs)
		return r.panel.ChangeImage(img.Pix)
	}
	r.log.Info("differential refresh", "run", r.runs)
	return r.panel.UpdateImage(img.Pix)
}

// job wraps refresh for the scheduler. A tick that fires while a refresh is
// still running is skipped: the panel must never see two refreshes at once.
func (r *refresher) job() cron.Job {
	skip := cron.SkipIfStillRunning(cronLogger{r.log})
	return skip(cron.FuncJob(func() {
		if err := r.refresh(); err != nil {
			r.log.Error("refresh failed", "err", err)
		}
	}))
}

// schedule refreshes on every tick of the cron expression expr until ctx is done.
func (r *refresher) schedule(ctx context.Context, expr string) error {
	c := cron.New(cron.WithLogger(cronLogger{r.log}))
	if _, err := c.AddJob(expr, r.job()); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	r.log.Info("scheduled refresh", "schedule", expr, "full_every", r.fullEvery)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes the scheduler's own messages to slog at debug level.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
