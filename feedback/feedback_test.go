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
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// recordingPin logs every level driven on it.
type recordingPin struct {
	*gpiotest.Pin
	err    error
	levels []gpio.Level
}

func newRecordingPin(name string) *recordingPin {
	return &recordingPin{Pin: &gpiotest.Pin{N: name, L: gpio.High}}
}

func (p *recordingPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, l)
	return p.Pin.Out(l)
}

type fakeCoils struct {
	err    error
	writes [][2]uint16
}

func (f *fakeCoils) WriteSingleCoil(address, value uint16) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.writes = append(f.writes, [2]uint16{address, value})
	return []byte{byte(value >> 8), byte(value)}, nil
}

func TestPinBeeper_Pattern(t *testing.T) {
	t.Parallel()
	pin := newRecordingPin("BUZZER")
	var slept []time.Duration
	b := NewPinBeeper(pin)
	b.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, b.Beep(3, 0, 0))

	assert.Equal(t, []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low, gpio.High, gpio.Low}, pin.levels)
	require.Len(t, slept, 6)
	for _, d := range slept {
		assert.Equal(t, DefaultBeepDuration, d)
	}
}

func TestPinBeeper_OffDefaultsToOn(t *testing.T) {
	t.Parallel()
	pin := newRecordingPin("BUZZER")
	var slept []time.Duration
	b := NewPinBeeper(pin)
	b.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, b.Beep(1, 50*time.Millisecond, 0))
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond}, slept)

	slept = nil
	require.NoError(t, b.Beep(1, 50*time.Millisecond, 10*time.Millisecond))
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 10 * time.Millisecond}, slept)
}

func TestPinBeeper_PinError(t *testing.T) {
	t.Parallel()
	pin := newRecordingPin("BUZZER")
	pin.err = errors.New("gpio busy")
	b := NewPinBeeper(pin)
	b.sleep = func(time.Duration) {}

	err := b.Beep(1, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beeper on")
}

func TestSignalBeeper(t *testing.T) {
	t.Parallel()
	coils := &fakeCoils{}
	o := newModbusOutputs(coils, map[Signal]uint16{Alarm: 4})
	b := NewSignalBeeper(o)
	b.sleep = func(time.Duration) {}

	require.NoError(t, b.Beep(2, 0, 0))
	assert.Equal(t, [][2]uint16{{4, 0xFF00}, {4, 0}, {4, 0xFF00}, {4, 0}}, coils.writes)

	coils.err = errors.New("timeout")
	assert.Error(t, b.Beep(1, 0, 0))
}

func TestGPIOOutputs(t *testing.T) {
	t.Parallel()
	action := newRecordingPin("RELAY")
	errPin := newRecordingPin("LED")

	o, err := NewGPIOOutputs(map[Signal]gpio.PinOut{Action: action, Error: errPin, Alarm: nil})
	require.NoError(t, err)
	assert.Equal(t, []gpio.Level{gpio.Low}, action.levels, "pins start low")

	require.NoError(t, o.Set(Action, true))
	require.NoError(t, o.Set(Action, false))
	require.NoError(t, o.Set(Alarm, true), "unmapped signal is ignored")
	require.NoError(t, o.Set(Error, true))

	assert.Equal(t, []gpio.Level{gpio.Low, gpio.High, gpio.Low}, action.levels)
	assert.Equal(t, gpio.High, errPin.Read())
}

func TestModbusOutputs(t *testing.T) {
	t.Parallel()
	coils := &fakeCoils{}
	o := newModbusOutputs(coils, map[Signal]uint16{Action: 0, Alarm: 7})

	require.NoError(t, o.Set(Action, true))
	require.NoError(t, o.Set(Alarm, true))
	require.NoError(t, o.Set(Alarm, false))
	require.NoError(t, o.Set(Error, true))

	assert.Equal(t, [][2]uint16{{0, 0xFF00}, {7, 0xFF00}, {7, 0x0000}}, coils.writes)
	assert.NoError(t, o.Close())
}

func TestModbusOutputs_Error(t *testing.T) {
	t.Parallel()
	coils := &fakeCoils{err: errors.New("connection reset")}
	o := newModbusOutputs(coils, map[Signal]uint16{Error: 3})

	err := o.Set(Error, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coil 3 (error)")
}

func TestNewModbusOutputs_RequiresEndpoint(t *testing.T) {
	t.Parallel()
	_, err := NewModbusOutputs(ModbusConfig{})
	require.Error(t, err)
}

func TestLogDisplay(t *testing.T) {
	t.Parallel()
	logger, hook := test.NewNullLogger()
	d := NewLogDisplay(logger)

	require.NoError(t, d.Show("READING mode.", "Waiting card..."))
	require.NoError(t, d.Show("READING mode.", "Waiting card..."))
	require.NoError(t, d.Show("ACCESS GRANTED"))

	require.Len(t, hook.AllEntries(), 2, "repeated screen is not logged twice")
	assert.Equal(t, "READING mode. | Waiting card...", hook.AllEntries()[0].Data["display"])
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "ACCESS GRANTED", d.Last())
}

func TestMulti(t *testing.T) {
	t.Parallel()
	a := NewLogDisplay(logrus.New())
	b := NewLogDisplay(logrus.New())
	require.NoError(t, MultiDisplay{a, b, Nop{}}.Show("x"))
	assert.Equal(t, "x", a.Last())
	assert.Equal(t, "x", b.Last())

	ok := newModbusOutputs(&fakeCoils{}, map[Signal]uint16{Action: 1})
	bad := newModbusOutputs(&fakeCoils{err: errors.New("down")}, map[Signal]uint16{Action: 1})
	err := MultiOutputs{ok, bad, Nop{}}.Set(Action, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
}

func TestParseSignal(t *testing.T) {
	t.Parallel()
	for _, sig := range []Signal{Action, Alarm, Error} {
		got, err := ParseSignal(sig.String())
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	}
	_, err := ParseSignal("door")
	require.Error(t, err)
}
