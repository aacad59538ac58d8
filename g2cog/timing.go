// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import "time"

// DefaultFrameTime is the stage duration used until a policy is set.
const DefaultFrameTime = 500 * time.Millisecond

// baseFrameTime is the vendor's recommended stage duration at room
// temperature.
const baseFrameTime = 630 * time.Millisecond

// frameTiming decides how many sweeps make up one stage. Exactly one of
// repeats and budget is non-zero.
type frameTiming struct {
	repeats int
	budget  time.Duration
}

func (t *frameTiming) setRepeats(n int) bool {
	if n <= 0 {
		return false
	}
	*t = frameTiming{repeats: n}
	return true
}

func (t *frameTiming) setBudget(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	*t = frameTiming{budget: d}
	return true
}

// TemperatureFrameTime returns the recommended stage duration for an
// ambient temperature in degrees Celsius. Colder panels need much longer;
// above 40°C the duration drops below the baseline.
func TemperatureFrameTime(celsius int) time.Duration {
	switch {
	case celsius <= -10:
		return baseFrameTime * 17
	case celsius <= -5:
		return baseFrameTime * 12
	case celsius <= 5:
		return baseFrameTime * 8
	case celsius <= 10:
		return baseFrameTime * 4
	case celsius <= 15:
		return baseFrameTime * 3
	case celsius <= 20:
		return baseFrameTime * 2
	case celsius <= 40:
		return baseFrameTime
	}
	return baseFrameTime * 7 / 10
}

// firstStage runs sweep as the first stage and returns the number of sweeps
// each following stage must repeat.
//
// With a repeat count the count is used as is. With a time budget, sweeps
// run one at a time until at least the budget has elapsed, so the count is
// whatever the budget needed.
func (t *frameTiming) firstStage(clock Clock, sweep func() error) (iters int, elapsed time.Duration, err error) {
	switch {
	case t.repeats > 0:
		start := clock.Now()
		for iters < t.repeats {
			if err := sweep(); err != nil {
				return iters, clock.Now().Sub(start), err
			}
			iters++
		}
		return iters, clock.Now().Sub(start), nil

	case t.budget > 0:
		start := clock.Now()
		for {
			if err := sweep(); err != nil {
				return iters, elapsed, err
			}
			iters++
			if elapsed = clock.Now().Sub(start); elapsed >= t.budget {
				return iters, elapsed, nil
			}
		}
	}
	return 0, 0, ErrInternal
}
