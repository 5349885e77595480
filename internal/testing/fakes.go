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

package testing

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// FakeClock is a manually advanced clock.
type FakeClock struct {
	now time.Time
	mu  sync.Mutex
}

// NewFakeClock creates a clock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakePin is an input pin whose level is set by the test.
type FakePin struct {
	level gpio.Level
	reads int
	mu    sync.Mutex
}

// NewFakePin creates a pin at the given level.
func NewFakePin(level gpio.Level) *FakePin {
	return &FakePin{level: level}
}

// Read returns the current level
func (p *FakePin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.level
}

// Set changes the level.
func (p *FakePin) Set(level gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

// Reads returns how many times the pin was sampled.
func (p *FakePin) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}
