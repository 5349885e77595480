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

package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-rfidbox/internal/testing"
	"github.com/ZaparooProject/go-rfidbox/timer"
)

func TestTimer_NewIsFired(t *testing.T) {
	t.Parallel()
	tm := timer.New(testutil.NewFakeClock())

	assert.Equal(t, timer.Fired, tm.State())
	assert.False(t, tm.Poll())
	assert.True(t, tm.Expired())
}

func TestTimer_OneShot(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock()
	tm := timer.New(clock)

	tm.Start(100*time.Millisecond, false)
	require.Equal(t, timer.Armed, tm.State())

	clock.Advance(99 * time.Millisecond)
	assert.False(t, tm.Poll())
	assert.False(t, tm.Expired())
	assert.Equal(t, time.Millisecond, tm.Remaining())

	clock.Advance(time.Millisecond)
	assert.True(t, tm.Poll(), "fires exactly at the deadline")
	assert.Equal(t, timer.Fired, tm.State())
	assert.False(t, tm.Poll(), "one-shot fires once")
	assert.True(t, tm.Expired())
	assert.Zero(t, tm.Remaining())
}

func TestTimer_ExpiredDoesNotConsume(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock()
	tm := timer.New(clock)

	tm.Start(time.Second, false)
	clock.Advance(2 * time.Second)

	assert.True(t, tm.Expired())
	assert.True(t, tm.Expired())
	assert.True(t, tm.Poll())
}

func TestTimer_Repeating(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock()
	tm := timer.New(clock)
	start := clock.Now()

	tm.Start(time.Second, true)

	fires := 0
	for i := 0; i < 50; i++ {
		clock.Advance(100 * time.Millisecond)
		if tm.Poll() {
			fires++
		}
	}
	assert.Equal(t, 5, fires)
	assert.Equal(t, timer.Armed, tm.State())
	assert.Equal(t, start.Add(6*time.Second), tm.Deadline())
}

func TestTimer_RepeatingKeepsPhaseAndSkipsMissed(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock()
	tm := timer.New(clock)
	start := clock.Now()

	tm.Start(time.Second, true)
	clock.Advance(3500 * time.Millisecond)

	assert.True(t, tm.Poll())
	assert.False(t, tm.Poll(), "missed periods collapse into one firing")
	assert.Equal(t, start.Add(4*time.Second), tm.Deadline())
}

func TestTimer_RestartResetsDeadline(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock()
	tm := timer.New(clock)

	tm.Start(time.Second, false)
	clock.Advance(900 * time.Millisecond)
	tm.Start(time.Second, false)
	clock.Advance(900 * time.Millisecond)

	assert.False(t, tm.Poll())
	clock.Advance(100 * time.Millisecond)
	assert.True(t, tm.Poll())
}

func TestTimer_Stop(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock()
	tm := timer.New(clock)

	tm.Start(time.Second, true)
	tm.Stop()
	clock.Advance(5 * time.Second)

	assert.Equal(t, timer.Fired, tm.State())
	assert.False(t, tm.Poll())
}

func TestTimer_ZeroDuration(t *testing.T) {
	t.Parallel()
	tm := timer.New(testutil.NewFakeClock())

	tm.Start(0, false)
	assert.True(t, tm.Poll())

	tm.Start(0, true)
	assert.True(t, tm.Poll())
	assert.True(t, tm.Poll())
}

func TestState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "armed", timer.Armed.String())
	assert.Equal(t, "fired", timer.Fired.String())
}
