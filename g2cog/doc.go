// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package g2cog drives Pervasive Displays e-paper panels through their second
// generation chip-on-glass (COG G2) controller.
//
// Supported panels are the 1.44", 2.00" and 2.71" Aurora Mb (V231) film with
// external timing controller. Aurora Ma (V230) film and panels with an
// internal timing controller are not supported.
//
// Every refresh brings the controller up, drives the frames and powers it
// down again; the panel is never left powered between calls.
//
// Datasheets
//
// http://www.pervasivedisplays.com/products/label_info
//
// COG driver interface timing for small size G2 V231:
// https://www.pervasivedisplays.com/wp-content/uploads/2019/06/4P018-00_04_G2_Aurora-Mb_COG_Driver_Interface_Timing_for_small_size_20150313.pdf
package g2cog
