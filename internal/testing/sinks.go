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
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/go-rfidbox/feedback"
)

// RecordingDisplay keeps every screen shown.
type RecordingDisplay struct {
	screens [][]string
	mu      sync.Mutex
}

// Show records lines
func (d *RecordingDisplay) Show(lines ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screens = append(d.screens, append([]string(nil), lines...))
	return nil
}

// Screens returns every screen joined with " | ".
func (d *RecordingDisplay) Screens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.screens))
	for i, s := range d.screens {
		out[i] = strings.Join(s, " | ")
	}
	return out
}

// Last returns the last screen joined with " | ", or "".
func (d *RecordingDisplay) Last() string {
	screens := d.Screens()
	if len(screens) == 0 {
		return ""
	}
	return screens[len(screens)-1]
}

// RecordingBeeper keeps the count of every beep sequence.
type RecordingBeeper struct {
	counts []int
	mu     sync.Mutex
}

// Beep records count without sleeping.
func (b *RecordingBeeper) Beep(count int, _, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts = append(b.counts, count)
	return nil
}

// Counts returns the recorded beep counts.
func (b *RecordingBeeper) Counts() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.counts...)
}

// RecordingOutputs keeps the level of every signal.
type RecordingOutputs struct {
	levels  map[feedback.Signal]bool
	changes int
	mu      sync.Mutex
}

// Set records the level of sig
func (o *RecordingOutputs) Set(sig feedback.Signal, on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.levels == nil {
		o.levels = make(map[feedback.Signal]bool)
	}
	o.levels[sig] = on
	o.changes++
	return nil
}

// On reports the last level set for sig.
func (o *RecordingOutputs) On(sig feedback.Signal) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.levels[sig]
}
