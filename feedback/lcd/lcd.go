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

// Package lcd drives an HD44780 character display through a PCF8574 I2C
// port expander, the common "I2C backpack" wiring.
package lcd

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the usual 7-bit address of a PCF8574 backpack.
const DefaultAddress = 0x27

// PCF8574 port bits.
const (
	bitRS        = 0x01
	bitEN        = 0x04
	bitBacklight = 0x08
)

// HD44780 instructions.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off, blink off
	cmdFunctionSet = 0x28 // 4-bit bus, 2 lines, 5x8 font
	cmdSetDDRAM    = 0x80
)

var rowOffsets = [...]byte{0x00, 0x40, 0x14, 0x54}

// LCD is a character display implementing feedback.Display.
type LCD struct {
	dev       *i2c.Dev
	sleep     func(time.Duration)
	cols      int
	rows      int
	backlight byte
	mu        sync.Mutex
}

// Option configures an LCD.
type Option func(*LCD)

// WithSize sets the geometry. The default is 16x2.
func WithSize(cols, rows int) Option {
	return func(l *LCD) {
		if cols > 0 {
			l.cols = cols
		}
		if rows > 0 && rows <= len(rowOffsets) {
			l.rows = rows
		}
	}
}

// New initializes the display at addr on bus.
func New(bus i2c.Bus, addr uint16, opts ...Option) (*LCD, error) {
	if addr == 0 {
		addr = DefaultAddress
	}
	l := &LCD{
		dev:       &i2c.Dev{Bus: bus, Addr: addr},
		sleep:     time.Sleep,
		cols:      16,
		rows:      2,
		backlight: bitBacklight,
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.init(); err != nil {
		return nil, fmt.Errorf("lcd init at 0x%02X: %w", addr, err)
	}
	return l, nil
}

// init runs the 4-bit initialization by instruction sequence.
func (l *LCD) init() error {
	l.sleep(50 * time.Millisecond)
	for _, n := range []byte{0x03, 0x03, 0x03, 0x02} {
		if err := l.writeNibble(n<<4, 0); err != nil {
			return err
		}
		l.sleep(5 * time.Millisecond)
	}
	for _, c := range []byte{cmdFunctionSet, cmdDisplayOn, cmdClear, cmdEntryMode} {
		if err := l.command(c); err != nil {
			return err
		}
	}
	return nil
}

// Show writes one line per row, padding with spaces and truncating to the
// display width. Missing lines blank their row.
func (l *LCD) Show(lines ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for row := 0; row < l.rows; row++ {
		text := ""
		if row < len(lines) {
			text = lines[row]
		}
		if err := l.command(cmdSetDDRAM | rowOffsets[row]); err != nil {
			return err
		}
		for _, c := range fit(text, l.cols) {
			if err := l.write(c, bitRS); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear blanks the display.
func (l *LCD) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.command(cmdClear)
}

// SetBacklight switches the backlight.
func (l *LCD) SetBacklight(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backlight = 0
	if on {
		l.backlight = bitBacklight
	}
	_, err := l.dev.Write([]byte{l.backlight})
	return err
}

func (l *LCD) command(c byte) error {
	if err := l.write(c, 0); err != nil {
		return err
	}
	if c == cmdClear {
		l.sleep(2 * time.Millisecond)
	}
	return nil
}

func (l *LCD) write(b, mode byte) error {
	if err := l.writeNibble(b&0xF0, mode); err != nil {
		return err
	}
	return l.writeNibble(b<<4, mode)
}

// writeNibble clocks the high nibble of b into the controller.
func (l *LCD) writeNibble(b, mode byte) error {
	v := b&0xF0 | mode | l.backlight
	if _, err := l.dev.Write([]byte{v | bitEN}); err != nil {
		return err
	}
	if _, err := l.dev.Write([]byte{v}); err != nil {
		return err
	}
	return nil
}

// fit pads or truncates s to n printable characters.
func fit(s string, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	j := 0
	for i := 0; i < len(s) && j < n; i++ {
		c := s[i]
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		out[j] = c
		j++
	}
	return out
}
