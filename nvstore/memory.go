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

// Package nvstore provides byte-addressable non-volatile stores for the
// secret: a RAM store for tests, a badger-backed image, a memory-mapped
// image file and, in the at24 subpackage, an I2C EEPROM.
package nvstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-rfidbox"
)

// DefaultCapacity matches a 4 Kbit EEPROM.
const DefaultCapacity = 512

// ErrOutOfRange is returned for addresses outside the store.
var ErrOutOfRange = errors.New("address out of range")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store closed")

func checkAddr(addr, capacity int) error {
	if addr < 0 || addr >= capacity {
		return fmt.Errorf("%w: %d (capacity %d)", ErrOutOfRange, addr, capacity)
	}
	return nil
}

// Memory is a volatile store backed by a byte slice.
type Memory struct {
	data []byte
	mu   sync.RWMutex
}

// NewMemory creates a zeroed store of capacity bytes.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{data: make([]byte, capacity)}
}

// Capacity returns the store size in bytes.
func (m *Memory) Capacity() int {
	return len(m.data)
}

func (m *Memory) Read(addr int) (byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := checkAddr(addr, len(m.data)); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

func (m *Memory) Write(addr int, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkAddr(addr, len(m.data)); err != nil {
		return err
	}
	m.data[addr] = value
	return nil
}

// Bytes returns a copy of the contents.
func (m *Memory) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}

var _ rfidbox.NVStore = (*Memory)(nil)
