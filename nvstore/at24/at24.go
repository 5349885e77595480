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

// Package at24 is an rfidbox.NVStore on an Atmel/Microchip AT24Cxx serial
// EEPROM. The whole array is mirrored in RAM at open so reads never touch
// the bus and unchanged bytes are never rewritten.
package at24

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/ZaparooProject/go-rfidbox"
	"github.com/ZaparooProject/go-rfidbox/nvstore"
)

// DefaultAddress is the 7-bit address with A0..A2 tied low.
const DefaultAddress = 0x50

// writeCycle is the worst case internal write time (tWR).
const writeCycle = 5 * time.Millisecond

// Config describes the part.
type Config struct {
	// Addr is the 7-bit bus address. Zero selects DefaultAddress.
	Addr uint16
	// Capacity is the array size in bytes. Zero selects 512 (AT24C04).
	Capacity int
	// WideAddress selects 16-bit word addresses, used from the AT24C32 up.
	// Smaller parts carry the high address bits in the device address.
	WideAddress bool
}

// EEPROM is an AT24Cxx device.
type EEPROM struct {
	bus    i2c.Bus
	sleep  func(time.Duration)
	shadow []byte
	cfg    Config
	mu     sync.Mutex
}

// Open reads the whole array into the shadow copy.
func Open(bus i2c.Bus, cfg Config) (*EEPROM, error) {
	if cfg.Addr == 0 {
		cfg.Addr = DefaultAddress
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = nvstore.DefaultCapacity
	}
	if !cfg.WideAddress && cfg.Capacity > 2048 {
		return nil, fmt.Errorf("at24: capacity %d needs 16-bit addressing", cfg.Capacity)
	}

	e := &EEPROM{bus: bus, cfg: cfg, sleep: time.Sleep, shadow: make([]byte, cfg.Capacity)}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// target returns the device address and word address bytes for addr.
func (e *EEPROM) target(addr int) (uint16, []byte) {
	if e.cfg.WideAddress {
		return e.cfg.Addr, []byte{byte(addr >> 8), byte(addr)}
	}
	return e.cfg.Addr | uint16(addr>>8), []byte{byte(addr)}
}

// load reads the array in 256-byte chunks, the span of one device address
// on small parts.
func (e *EEPROM) load() error {
	for base := 0; base < len(e.shadow); base += 256 {
		end := min(base+256, len(e.shadow))
		dev, w := e.target(base)
		if err := e.bus.Tx(dev, w, e.shadow[base:end]); err != nil {
			return fmt.Errorf("at24: read 0x%04X: %w", base, err)
		}
	}
	return nil
}

// Capacity returns the array size in bytes.
func (e *EEPROM) Capacity() int {
	return len(e.shadow)
}

func (e *EEPROM) Read(addr int) (byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if addr < 0 || addr >= len(e.shadow) {
		return 0, fmt.Errorf("at24: %w: %d", nvstore.ErrOutOfRange, addr)
	}
	return e.shadow[addr], nil
}

// Write programs one byte and waits out the write cycle. Writing the value
// already stored is a no-op.
func (e *EEPROM) Write(addr int, value byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if addr < 0 || addr >= len(e.shadow) {
		return fmt.Errorf("at24: %w: %d", nvstore.ErrOutOfRange, addr)
	}
	if e.shadow[addr] == value {
		return nil
	}

	dev, w := e.target(addr)
	if err := e.bus.Tx(dev, append(w, value), nil); err != nil {
		return fmt.Errorf("at24: write 0x%04X: %w", addr, err)
	}
	e.sleep(writeCycle)
	e.shadow[addr] = value
	return nil
}

var _ rfidbox.NVStore = (*EEPROM)(nil)
