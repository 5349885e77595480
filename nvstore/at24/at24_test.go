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

package at24

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/ZaparooProject/go-rfidbox/nvstore"
)

func openForTest(t *testing.T, bus *i2ctest.Playback, cfg Config) *EEPROM {
	t.Helper()
	// Open sleeps only on writes.
	e, err := Open(bus, cfg)
	require.NoError(t, err)
	e.sleep = func(time.Duration) {}
	return e
}

func TestOpen_NarrowAddressing(t *testing.T) {
	t.Parallel()
	low := bytes.Repeat([]byte{0xAA}, 256)
	high := bytes.Repeat([]byte{0xBB}, 256)
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x50, W: []byte{0x00}, R: low},
		{Addr: 0x51, W: []byte{0x00}, R: high},
		{Addr: 0x51, W: []byte{0x10, 'x'}},
	}}

	e := openForTest(t, bus, Config{})
	assert.Equal(t, 512, e.Capacity())

	b, err := e.Read(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), b)
	b, err = e.Read(300)
	require.NoError(t, err)
	assert.Equal(t, byte(0xBB), b)

	require.NoError(t, e.Write(0x110, 'x'))
	b, err = e.Read(0x110)
	require.NoError(t, err)
	assert.Equal(t, byte('x'), b)

	require.NoError(t, bus.Close())
}

func TestWrite_SkipsUnchanged(t *testing.T) {
	t.Parallel()
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x50, W: []byte{0x00, 0x00}, R: make([]byte, 64)},
	}}

	e := openForTest(t, bus, Config{Capacity: 64, WideAddress: true})
	require.NoError(t, e.Write(5, 0x00), "same value needs no bus traffic")
	require.NoError(t, bus.Close())
}

func TestWrite_WideAddressing(t *testing.T) {
	t.Parallel()
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x54, W: []byte{0x00, 0x00}, R: make([]byte, 256)},
		{Addr: 0x54, W: []byte{0x01, 0x00}, R: make([]byte, 256)},
		{Addr: 0x54, W: []byte{0x01, 0x02, 'H'}},
	}}

	e := openForTest(t, bus, Config{Addr: 0x54, Capacity: 512, WideAddress: true})
	require.NoError(t, e.Write(0x102, 'H'))
	require.NoError(t, bus.Close())
}

func TestOutOfRange(t *testing.T) {
	t.Parallel()
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x50, W: []byte{0x00}, R: make([]byte, 16)},
	}}
	e := openForTest(t, bus, Config{Capacity: 16})

	_, err := e.Read(16)
	require.ErrorIs(t, err, nvstore.ErrOutOfRange)
	require.ErrorIs(t, e.Write(-1, 1), nvstore.ErrOutOfRange)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	_, err := Open(&i2ctest.Playback{}, Config{Capacity: 4096})
	require.Error(t, err)

	bus := &i2ctest.Playback{DontPanic: true}
	_, err = Open(bus, Config{Capacity: 16})
	require.Error(t, err)
	assert.False(t, errors.Is(err, nvstore.ErrOutOfRange))
}
