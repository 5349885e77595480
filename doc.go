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
Package rfidbox moves a shared secret between non-volatile memory and MIFARE
Classic 1K cards. It is the core of an access control box: cards holding the
secret open the door, and the box can program new cards with it.

Features:
  - Fixed block layout of the 45 data blocks of a MIFARE Classic 1K
  - Card transfer protocol: write, read and validate with one
    authentication per sector
  - Secret store on any byte addressable memory (EEPROM, file, badger)
  - Sector key provisioning of blank cards
  - Error classes for the error latch of the control loop

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-rfidbox"
	    "github.com/ZaparooProject/go-rfidbox/nvstore"
	    "github.com/ZaparooProject/go-rfidbox/pn532"
	    "github.com/ZaparooProject/go-rfidbox/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}
	device, err := pn532.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()
	if err := device.Init(ctx); err != nil {
	    log.Fatal(err)
	}

	store := rfidbox.NewSecretStore(nvstore.NewMemory(512))
	secret, err := store.Load()
	if err != nil {
	    log.Fatal(err)
	}

	proto := rfidbox.NewProtocol(device, rfidbox.FactorySectorKey())
	if _, err := proto.Validate(ctx, secret); err != nil {
	    switch rfidbox.ClassOf(err) {
	    case rfidbox.ClassValidation:
	        // wrong secret on the card
	    case rfidbox.ClassAuthentication:
	        // card does not use our key
	    }
	}

Card Layout:

The secret is written as ASCII followed by one zero byte, 16 bytes per block,
in the order of the block layout. Sector 0 and the sector trailers are never
used for data, so a card holds at most 719 characters.

Error Handling:

Transfer failures are *TransferError values. They match the sentinel of
their class and unwrap to the transceiver error:

	if errors.Is(err, rfidbox.ErrAuthentication) {
	    fmt.Println("key rejected at block", rfidbox.BlockOf(err))
	}

Thread Safety:

Protocol and SecretStore are not safe for concurrent use. The control loop
runs every transfer to completion before the next one starts.
*/
package rfidbox
