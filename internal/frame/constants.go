// go-rfidbox
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-rfidbox.
//
// go-rfidbox is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-rfidbox is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rfidbox; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package frame builds and parses PN532 normal information frames:
//
//	PREAMBLE 00 | START 00 FF | LEN | LCS | TFI | PD0..PDn | DCS | POSTAMBLE 00
//
// LEN counts TFI and the payload; LEN+LCS and TFI+payload+DCS are zero mod 256.
package frame

// Frame identifiers
const (
	HostToPn532 = 0xD4
	Pn532ToHost = 0xD5
)

// Frame markers
const (
	Preamble   = 0x00
	StartCode1 = 0x00
	StartCode2 = 0xFF
	Postamble  = 0x00
)

// Frame size limits
const (
	// MaxDataLength is the longest TFI+payload a normal frame carries.
	MaxDataLength = 255
	// Overhead is the number of framing bytes around TFI+payload.
	Overhead = 7
	// MinFrameLength is the shortest frame: ACK, NACK or an empty frame.
	MinFrameLength = 6
)

// errorFrameCode is the single payload byte of a syntax error frame.
const errorFrameCode = 0x7F

// ACK and NACK frames
var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)
