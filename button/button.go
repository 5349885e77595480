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

// Package button turns raw GPIO levels into press, long press and release
// events. It is polled from the control loop and never spawns goroutines.
package button

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"

	"github.com/ZaparooProject/go-rfidbox/timer"
)

// DefaultLongPress is the hold time after which a press counts as long.
const DefaultLongPress = 3 * time.Second

const defaultPollInterval = 10 * time.Millisecond

// Pin is the input side of a GPIO line. periph gpio.PinIn satisfies it.
type Pin interface {
	Read() gpio.Level
}

// Trigger selects the wiring of a button.
type Trigger int

const (
	// PullDown buttons read High while pressed.
	PullDown Trigger = iota
	// PullUp buttons read Low while pressed.
	PullUp
)

// ActiveLevel returns the pin level that means pressed.
func (t Trigger) ActiveLevel() gpio.Level {
	if t == PullUp {
		return gpio.Low
	}
	return gpio.High
}

// Pull returns the internal resistor matching the wiring.
func (t Trigger) Pull() gpio.Pull {
	if t == PullUp {
		return gpio.PullUp
	}
	return gpio.PullDown
}

func (t Trigger) String() string {
	if t == PullUp {
		return "pull_up"
	}
	return "pull_down"
}

// ParseTrigger parses "pull_up" or "pull_down". Empty means pull_down.
func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pull_down", "pulldown", "down":
		return PullDown, nil
	case "pull_up", "pullup", "up":
		return PullUp, nil
	default:
		return PullDown, fmt.Errorf("unknown button trigger %q", s)
	}
}

// Event is the result of one Poll.
type Event int

const (
	None Event = iota
	Pressed
	LongPressed
	Released
)

func (e Event) String() string {
	switch e {
	case Pressed:
		return "pressed"
	case LongPressed:
		return "long_pressed"
	case Released:
		return "released"
	default:
		return "none"
	}
}

// Option configures a Button.
type Option func(*Button)

// WithClock sets the clock driving the long press timer.
func WithClock(c timer.Clock) Option {
	return func(b *Button) {
		b.clock = c
	}
}

// WithLongPress sets the long press threshold.
func WithLongPress(d time.Duration) Option {
	return func(b *Button) {
		if d > 0 {
			b.longPress = d
		}
	}
}

// WithName names the button in log output.
func WithName(name string) Option {
	return func(b *Button) {
		b.name = name
	}
}

// WithPollInterval sets how often WaitRelease samples the pin.
func WithPollInterval(d time.Duration) Option {
	return func(b *Button) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Button) {
		if l != nil {
			b.log = l
		}
	}
}

// Button debounces one input. A Button is owned by a single goroutine.
type Button struct {
	pin          Pin
	clock        timer.Clock
	log          logrus.FieldLogger
	hold         *timer.Timer
	pressedAt    time.Time
	name         string
	longPress    time.Duration
	pollInterval time.Duration
	trigger      Trigger
	prevChange   bool
	prevPoll     bool
	longFired    bool
}

// New creates a button reading pin.
func New(pin Pin, trigger Trigger, opts ...Option) *Button {
	b := &Button{
		pin:          pin,
		trigger:      trigger,
		longPress:    DefaultLongPress,
		pollInterval: defaultPollInterval,
		log:          logrus.StandardLogger(),
		name:         "button",
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.clock == nil {
		b.clock = timer.System
	}
	b.hold = timer.New(b.clock)
	b.pressedAt = b.clock.Now()
	return b
}

// Name returns the button name.
func (b *Button) Name() string {
	return b.name
}

// IsActive reports whether the button is pressed right now.
func (b *Button) IsActive() bool {
	return b.pin.Read() == b.trigger.ActiveLevel()
}

// StateChanged reports whether the pressed state differs from the previous
// call. It keeps its own history, independent of Poll.
func (b *Button) StateChanged() bool {
	active := b.IsActive()
	changed := active != b.prevChange
	b.prevChange = active
	return changed
}

// HeldFor reports true once every threshold while the button stays pressed.
// Time is measured from the last sample that found the button released, and
// restarts after every report.
func (b *Button) HeldFor(threshold time.Duration) bool {
	now := b.clock.Now()
	if !b.IsActive() {
		b.pressedAt = now
		return false
	}
	if now.Sub(b.pressedAt) < threshold {
		return false
	}
	b.pressedAt = now
	return true
}

// Poll samples the pin and returns at most one event. A press that is held
// past the long press threshold yields LongPressed once per threshold
// period, followed by Released when let go.
func (b *Button) Poll() Event {
	active := b.IsActive()
	defer func() { b.prevPoll = active }()

	switch {
	case active && !b.prevPoll:
		b.longFired = false
		b.hold.Start(b.longPress, true)
		b.log.WithField("button", b.name).Debug("pressed")
		return Pressed
	case active && b.hold.Poll():
		b.longFired = true
		b.log.WithField("button", b.name).Debug("long press")
		return LongPressed
	case !active && b.prevPoll:
		b.hold.Stop()
		b.log.WithFields(logrus.Fields{"button": b.name, "long": b.longFired}).Debug("released")
		return Released
	default:
		return None
	}
}

// LongFired reports whether the current or last press reached the long
// press threshold.
func (b *Button) LongFired() bool {
	return b.longFired
}

// WaitRelease blocks until the button is released, then calls fn once.
// It returns immediately without calling fn when the button is not pressed.
func (b *Button) WaitRelease(ctx context.Context, fn func()) error {
	if !b.IsActive() {
		return nil
	}
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for b.IsActive() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	b.prevPoll = false
	b.prevChange = false
	b.hold.Stop()
	b.pressedAt = b.clock.Now()
	if fn != nil {
		fn()
	}
	return nil
}
