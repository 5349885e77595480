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

package pn532

// PN532 command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSamConfiguration    = 0x14
	cmdRFConfiguration     = 0x32
	cmdInDataExchange      = 0x40
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// MIFARE Classic commands sent through InDataExchange
const (
	mifareCmdAuth  = 0x60 // + key type: 0x60 key A, 0x61 key B
	mifareCmdRead  = 0x30
	mifareCmdWrite = 0xA0
)

const (
	// SAM normal mode, virtual card timeout 20*50ms, IRQ pin driven
	samModeNormal = 0x01
	samTimeout    = 0x14
	samUseIRQ     = 0x01

	rfItemMaxRetries = 0x05
	brTypeA106       = 0x00

	// first and only target listed by InListPassiveTarget
	targetNumber = 0x01

	statusMask = 0x3F
)
