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
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// GPIOOutputs maps signals onto GPIO output pins. Signals without a pin are
// ignored.
type GPIOOutputs struct {
	pins map[Signal]gpio.PinOut
	mu   sync.Mutex
}

// NewGPIOOutputs creates outputs from a signal to pin map and drives every
// pin low.
func NewGPIOOutputs(pins map[Signal]gpio.PinOut) (*GPIOOutputs, error) {
	o := &GPIOOutputs{pins: make(map[Signal]gpio.PinOut, len(pins))}
	for sig, pin := range pins {
		if pin == nil {
			continue
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("init %s output %s: %w", sig, pin, err)
		}
		o.pins[sig] = pin
	}
	return o, nil
}

// Set drives the pin of sig high or low.
func (o *GPIOOutputs) Set(sig Signal, on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	pin, ok := o.pins[sig]
	if !ok {
		return nil
	}
	if err := pin.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("set %s output: %w", sig, err)
	}
	return nil
}
