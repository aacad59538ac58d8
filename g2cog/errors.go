// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package g2cog

import "errors"

var (
	// ErrInvalidPinConfig is returned when a mandatory pin is unassigned or
	// two pins share the same number. Nothing has been written to hardware.
	ErrInvalidPinConfig = errors.New("g2cog: invalid pin configuration")
	// ErrInvalidChipID is returned when the controller is not a COG G2.
	ErrInvalidChipID = errors.New("g2cog: invalid COG driver ID")
	// ErrBrokenPanel is returned when the controller does not detect a panel.
	ErrBrokenPanel = errors.New("g2cog: panel not detected")
	// ErrDCFail is returned when the charge pump did not come up.
	ErrDCFail = errors.New("g2cog: DC/DC charge pump failed")
	// ErrInvalidArgument is returned for missing or mis-sized image buffers.
	ErrInvalidArgument = errors.New("g2cog: invalid argument")
	// ErrInternal signals a logic defect in the driver.
	ErrInternal = errors.New("g2cog: internal error")
)
