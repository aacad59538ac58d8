// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package g2epd is a container for the Pervasive Displays G2 chip-on-glass
// e-paper driver and its helpers.
//
// The driver lives in g2cog. bitmap holds the packed frame format the driver
// consumes, screen previews frames on a terminal and cmd/g2epd drives a panel
// from the command line.
package g2epd
