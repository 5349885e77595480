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
	"crypto/rand"
	"fmt"
	"math/big"
)

// Printable ASCII bounds of a secret
const (
	minPrintable = 32
	maxPrintable = 126
)

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultSecretLength is the length of generated passphrases.
const DefaultSecretLength = 64

// IsPrintable reports whether b may appear in a secret.
func IsPrintable(b byte) bool {
	return b >= minPrintable && b <= maxPrintable
}

// ValidateSecret checks that every byte of s is printable ASCII.
func ValidateSecret(s string) error {
	for i := 0; i < len(s); i++ {
		if !IsPrintable(s[i]) {
			return fmt.Errorf("non-printable byte 0x%02X at position %d", s[i], i)
		}
	}
	return nil
}

// EncodeSecret serializes s for the card: the ASCII bytes followed by a
// single NUL end-of-data marker. capacity is the card payload capacity.
func EncodeSecret(s string, capacity int) ([]byte, error) {
	if err := ValidateSecret(s); err != nil {
		return nil, err
	}
	if len(s)+1 > capacity {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrCardOverflow, len(s), capacity-1)
	}
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out, nil
}

// GenerateSecret returns n random alphanumeric characters.
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid secret length %d", n)
	}
	max := big.NewInt(int64(len(secretAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate secret: %w", err)
		}
		out[i] = secretAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// GenerateKey returns a random 6-byte sector key.
func GenerateKey() ([KeySize]byte, error) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
