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

package rfidbox

import (
	"context"
	"fmt"
	"strings"
)

// UID is the unique identifier a card broadcasts on selection.
type UID []byte

// String renders the UID as space separated upper case hex ("04 1A 2B 3C").
func (u UID) String() string {
	parts := make([]string, len(u))
	for i, b := range u {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// SAK values of MIFARE Classic 1K cards
const (
	SAKClassic1K         = 0x08
	SAKClassic1KInfineon = 0x88
)

// Card is a selected card.
type Card struct {
	UID UID
	SAK byte
}

// IsClassic1K reports whether the card answered selection as a MIFARE Classic 1K.
func (c Card) IsClassic1K() bool {
	return c.SAK == SAKClassic1K || c.SAK == SAKClassic1KInfineon
}

// Transceiver is the contactless front end. Each call is a single-shot
// primitive; transient link retries are the implementation's concern.
//
// Implementations are not required to be safe for concurrent use.
type Transceiver interface {
	// Detect reports whether a card is in the field.
	Detect(ctx context.Context) (bool, error)

	// SelectCard selects the card in the field and returns its identity.
	SelectCard(ctx context.Context) (Card, error)

	// Authenticate authenticates the sector owning trailerBlock.
	Authenticate(ctx context.Context, trailerBlock int, keyType KeyType, key []byte) error

	// ReadBlock reads one 16-byte block of an authenticated sector.
	ReadBlock(ctx context.Context, block int) ([BlockSize]byte, error)

	// WriteBlock writes one 16-byte block of an authenticated sector.
	WriteBlock(ctx context.Context, block int, data [BlockSize]byte) error

	// Halt releases the selected card.
	Halt(ctx context.Context) error
}

// NVStore is byte addressable non-volatile memory.
type NVStore interface {
	Capacity() int
	Read(addr int) (byte, error)
	Write(addr int, value byte) error
}

// Syncer is implemented by stores that buffer writes.
type Syncer interface {
	Sync() error
}
