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
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyType selects which sector key is presented during authentication.
type KeyType byte

// Key types
const (
	KeyA KeyType = 0x00
	KeyB KeyType = 0x01
)

func (k KeyType) String() string {
	switch k {
	case KeyA:
		return "A"
	case KeyB:
		return "B"
	default:
		return fmt.Sprintf("KeyType(0x%02X)", byte(k))
	}
}

// ParseKeyType parses "A" or "B" (case insensitive).
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "":
		return KeyA, nil
	case "B":
		return KeyB, nil
	default:
		return 0, fmt.Errorf("invalid key type %q: must be A or B", s)
	}
}

const (
	KeySize        = 6
	AccessBitsSize = 4
)

var (
	// DefaultKey is the factory transport key of blank cards.
	DefaultKey = [KeySize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	// DefaultAccessBits are the factory access conditions: key A or B may
	// read and write data blocks, key A writes the trailer.
	DefaultAccessBits = [AccessBitsSize]byte{0xFF, 0x07, 0x80, 0x69}
)

// SectorKey is the authentication material for the data sectors. It is
// static configuration, used once per sector per transfer.
type SectorKey struct {
	Key    [KeySize]byte
	Access [AccessBitsSize]byte
	Type   KeyType
}

// FactorySectorKey returns the key of a blank card.
func FactorySectorKey() SectorKey {
	return SectorKey{Key: DefaultKey, Access: DefaultAccessBits, Type: KeyA}
}

// bytes returns a copy of the key data (caller must clear it)
func (k SectorKey) bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, k.Key[:])
	return out
}

// Trailer builds a sector trailer using the key for both key A and key B:
// KeyA(6) | access bits(4) | KeyB(6).
func (k SectorKey) Trailer() [BlockSize]byte {
	var t [BlockSize]byte
	copy(t[0:6], k.Key[:])
	copy(t[6:10], k.Access[:])
	copy(t[10:16], k.Key[:])
	return t
}

func (k SectorKey) String() string {
	// never print the key itself
	return fmt.Sprintf("key %s (access %X)", k.Type, k.Access[:])
}

// ParseKey decodes a 6-byte key written as hex, optionally separated by
// spaces, colons or dashes ("FFFFFFFFFFFF", "01:02:13:51:09:0F").
func ParseKey(s string) ([KeySize]byte, error) {
	var key [KeySize]byte
	raw, err := decodeHex(s)
	if err != nil {
		return key, fmt.Errorf("invalid key: %w", err)
	}
	if len(raw) != KeySize {
		return key, fmt.Errorf("invalid key: MIFARE key must be %d bytes, got %d", KeySize, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// ParseAccessBits decodes the 4 access-control bytes of a trailer.
func ParseAccessBits(s string) ([AccessBitsSize]byte, error) {
	var bits [AccessBitsSize]byte
	raw, err := decodeHex(s)
	if err != nil {
		return bits, fmt.Errorf("invalid access bits: %w", err)
	}
	if len(raw) != AccessBitsSize {
		return bits, fmt.Errorf("invalid access bits: must be %d bytes, got %d", AccessBitsSize, len(raw))
	}
	copy(bits[:], raw)
	return bits, nil
}

func decodeHex(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ":", "", "-", "", "0x", "", "0X", "").Replace(s)
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex %q: %w", s, err)
	}
	return raw, nil
}
