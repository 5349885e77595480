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

// Package feedback holds the output sinks driven by the control loop: a
// character display, a beeper and on/off signal outputs. Sinks are pure
// outputs and never influence control decisions.
package feedback

import (
	"errors"
	"fmt"
	"time"
)

// Display shows up to two lines of text.
type Display interface {
	Show(lines ...string) error
}

// Beeper emits count beeps, each on for on and followed by off of silence.
// Zero durations select the beeper's defaults.
type Beeper interface {
	Beep(count int, on, off time.Duration) error
}

// Signal names a discrete output.
type Signal int

const (
	// Action drives the door relay or equivalent after a granted access.
	Action Signal = iota
	// Alarm drives the alarm output.
	Alarm
	// Error is raised while the error latch is set.
	Error
)

func (s Signal) String() string {
	switch s {
	case Action:
		return "action"
	case Alarm:
		return "alarm"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// ParseSignal parses a signal name.
func ParseSignal(s string) (Signal, error) {
	switch s {
	case "action":
		return Action, nil
	case "alarm":
		return Alarm, nil
	case "error":
		return Error, nil
	default:
		return 0, fmt.Errorf("unknown signal %q", s)
	}
}

// Outputs switches discrete signals.
type Outputs interface {
	Set(sig Signal, on bool) error
}

// Nop discards all feedback.
type Nop struct{}

func (Nop) Show(...string) error { return nil }

func (Nop) Beep(int, time.Duration, time.Duration) error { return nil }

func (Nop) Set(Signal, bool) error { return nil }

var (
	_ Display = Nop{}
	_ Beeper  = Nop{}
	_ Outputs = Nop{}
)

// MultiDisplay mirrors text on several displays.
type MultiDisplay []Display

// Show writes to every display and joins the errors.
func (m MultiDisplay) Show(lines ...string) error {
	var errs []error
	for _, d := range m {
		if err := d.Show(lines...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiOutputs drives the same signal on several output banks.
type MultiOutputs []Outputs

// Set switches sig on every bank and joins the errors.
func (m MultiOutputs) Set(sig Signal, on bool) error {
	var errs []error
	for _, o := range m {
		if err := o.Set(sig, on); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
