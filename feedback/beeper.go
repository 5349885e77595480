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

package feedback

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DefaultBeepDuration is the on time of a beep when none is given.
const DefaultBeepDuration = 300 * time.Millisecond

// PinBeeper drives a buzzer on a GPIO output. Beep blocks for the whole
// pattern.
type PinBeeper struct {
	pin   gpio.PinOut
	sleep func(time.Duration)
}

// NewPinBeeper creates a beeper on pin.
func NewPinBeeper(pin gpio.PinOut) *PinBeeper {
	return &PinBeeper{pin: pin, sleep: time.Sleep}
}

// Beep sounds count beeps. off defaults to on, on defaults to
// DefaultBeepDuration.
func (b *PinBeeper) Beep(count int, on, off time.Duration) error {
	return pattern(count, on, off, b.sleep, func(high bool) error {
		return b.pin.Out(gpio.Level(high))
	})
}

// SignalBeeper sounds beeps by toggling the Alarm signal of an Outputs,
// for buzzers that sit behind a remote coil.
type SignalBeeper struct {
	out   Outputs
	sleep func(time.Duration)
}

// NewSignalBeeper creates a beeper driving the Alarm signal of out.
func NewSignalBeeper(out Outputs) *SignalBeeper {
	return &SignalBeeper{out: out, sleep: time.Sleep}
}

// Beep sounds count beeps with the same defaults as PinBeeper.
func (b *SignalBeeper) Beep(count int, on, off time.Duration) error {
	return pattern(count, on, off, b.sleep, func(high bool) error {
		return b.out.Set(Alarm, high)
	})
}

func pattern(count int, on, off time.Duration, sleep func(time.Duration), set func(bool) error) error {
	if on <= 0 {
		on = DefaultBeepDuration
	}
	if off <= 0 {
		off = on
	}
	for i := 0; i < count; i++ {
		if err := set(true); err != nil {
			return fmt.Errorf("beeper on: %w", err)
		}
		sleep(on)
		if err := set(false); err != nil {
			return fmt.Errorf("beeper off: %w", err)
		}
		sleep(off)
	}
	return nil
}
