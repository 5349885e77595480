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

// Package timer provides a restartable deadline used for long-press
// detection and feedback timing in a cooperative control loop.
package timer

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System is the wall clock.
var System Clock = systemClock{}

// State is the state of an Interval Timer.
type State int

const (
	Armed State = iota
	Fired
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "fired"
}

// Timer fires once when its deadline passes, or periodically when started
// with repeat. A Timer that was never started is fired and expired.
type Timer struct {
	clock    Clock
	deadline time.Time
	duration time.Duration
	state    State
	repeat   bool
}

// New creates a stopped timer. A nil clock selects the system clock.
func New(clock Clock) *Timer {
	if clock == nil {
		clock = System
	}
	return &Timer{clock: clock, state: Fired}
}

// Start re-arms the timer with a deadline of now + d.
func (t *Timer) Start(d time.Duration, repeat bool) {
	t.duration = d
	t.repeat = repeat
	t.deadline = t.clock.Now().Add(d)
	t.state = Armed
}

// Stop disarms the timer without firing it.
func (t *Timer) Stop() {
	t.state = Fired
}

// Poll returns true exactly once per deadline. A repeating timer re-arms
// from its deadline rather than from the poll, so late polling does not
// shift the period; periods missed entirely are skipped.
func (t *Timer) Poll() bool {
	if t.state != Armed {
		return false
	}
	now := t.clock.Now()
	if now.Before(t.deadline) {
		return false
	}

	if !t.repeat {
		t.state = Fired
		return true
	}

	if t.duration <= 0 {
		t.deadline = now
		return true
	}
	missed := now.Sub(t.deadline) / t.duration
	t.deadline = t.deadline.Add((missed + 1) * t.duration)
	return true
}

// Expired reports whether the deadline has passed. It does not consume the
// pending firing of Poll.
func (t *Timer) Expired() bool {
	return !t.clock.Now().Before(t.deadline)
}

// State returns the current state.
func (t *Timer) State() State {
	return t.state
}

// Deadline returns the current deadline.
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

// Remaining returns the time left until the deadline, or zero.
func (t *Timer) Remaining() time.Duration {
	d := t.deadline.Sub(t.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}
