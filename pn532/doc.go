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

/*
Package pn532 drives a PN532 contactless controller as the card front end
of the access box.

The Device implements rfidbox.Transceiver on top of a Transport, which moves
normal information frames over UART or I2C:

	tr, err := uart.New("/dev/ttyS0")
	if err != nil {
	    log.Fatal(err)
	}
	defer tr.Close()

	dev, err := pn532.New(tr, pn532.WithMaxRetries(3))
	if err != nil {
	    log.Fatal(err)
	}
	if err := dev.Init(ctx); err != nil {
	    log.Fatal(err)
	}

	proto := rfidbox.NewProtocol(dev, key)

Only ISO14443A cards at 106 kbps are listed, one at a time. MIFARE Classic
commands are tunnelled with InDataExchange; a non-zero status from the card
is returned as a *CardError.

Transient link errors (missing ACK, corrupted frames, timeouts) are retried
by the Device up to the configured limit. Card level failures never are.

Device is not safe for concurrent use.
*/
package pn532
