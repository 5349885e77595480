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

// Package i2c provides the I2C transport for the PN532
package i2c

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-rfidbox/internal/frame"
	"github.com/ZaparooProject/go-rfidbox/internal/retry"
	"github.com/ZaparooProject/go-rfidbox/pn532"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the 7-bit I2C address of the PN532.
	DefaultAddress = 0x24

	// DefaultTimeout bounds the wait for the ACK and for the response.
	DefaultTimeout = 200 * time.Millisecond

	// status byte preceding every read
	pn532Ready = 0x01

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	readyPoll = time.Millisecond
	maxNacks  = 3
)

// Transport implements the pn532.Transport interface for I2C communication
type Transport struct {
	dev     *i2c.Dev
	closer  io.Closer
	busName string
	timeout time.Duration
}

// New opens busName ("" for the first bus) and talks to the PN532 at
// DefaultAddress.
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, pn532.NewTransportError("open", busName, fmt.Errorf("%w: %w", pn532.ErrDeviceNotFound, err),
			pn532.ErrorTypePermanent)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(maxClockFreq)

	t := NewWithBus(bus, busName, DefaultAddress)
	t.closer = bus
	return t, nil
}

// NewWithBus creates a transport on an already opened bus. The bus is not
// closed by Close.
func NewWithBus(bus i2c.Bus, busName string, addr uint16) *Transport {
	return &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		busName: busName,
		timeout: DefaultTimeout,
	}
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.dev == nil {
		return nil, pn532.NewTransportError("send", t.busName, pn532.ErrTransportWrite, pn532.ErrorTypePermanent)
	}

	if err := t.sendFrame(cmd, args); err != nil {
		return nil, err
	}
	if err := t.waitAck(ctx); err != nil {
		return nil, err
	}
	return t.receiveFrame(ctx)
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", pn532.ErrInvalidParameter, timeout)
	}
	t.timeout = timeout
	return nil
}

// Close releases the bus if the transport opened it.
func (t *Transport) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	t.dev = nil
	if err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

func (t *Transport) sendFrame(cmd byte, args []byte) error {
	frm, err := frame.Build(cmd, args)
	if err != nil {
		return pn532.NewDataTooLargeError("sendFrame", t.busName)
	}
	if err := t.dev.Tx(frm, nil); err != nil {
		return pn532.NewTransportError("sendFrame", t.busName, fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err),
			pn532.ErrorTypeTransient)
	}
	return nil
}

// waitAck polls the status byte until the ACK frame follows it.
func (t *Transport) waitAck(ctx context.Context) error {
	buf := make([]byte, 1+len(frame.AckFrame))
	_, err := retry.UntilTimeout(ctx, t.timeout, readyPoll, func() (struct{}, bool, error) {
		if err := t.dev.Tx(nil, buf); err != nil {
			return struct{}{}, false, t.readError("waitAck", err)
		}
		if buf[0] != pn532Ready {
			return struct{}{}, true, nil
		}
		if !frame.IsAck(buf[1:]) {
			return struct{}{}, false, pn532.NewNoACKError("waitAck", t.busName)
		}
		return struct{}{}, false, nil
	})
	if errors.Is(err, retry.ErrTimeout) {
		return pn532.NewNoACKError("waitAck", t.busName)
	}
	return err
}

// receiveFrame polls for the response, NACKing corrupted frames so the
// PN532 sends them again.
func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 1+frame.MaxDataLength+frame.Overhead)
	nacks := 0

	data, err := retry.UntilTimeout(ctx, t.timeout, readyPoll, func() ([]byte, bool, error) {
		if err := t.dev.Tx(nil, buf); err != nil {
			return nil, false, t.readError("receiveFrame", err)
		}
		if buf[0] != pn532Ready {
			return nil, true, nil
		}

		payload, _, err := frame.Parse(buf[1:])
		switch {
		case err == nil:
			return payload, false, nil
		case errors.Is(err, frame.ErrApplicationError):
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName, err, pn532.ErrorTypePermanent)
		case nacks >= maxNacks:
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), pn532.ErrorTypeTransient)
		}
		nacks++
		if nerr := t.dev.Tx(frame.NackFrame, nil); nerr != nil {
			return nil, false, t.readError("sendNack", nerr)
		}
		return nil, true, nil
	})
	if errors.Is(err, retry.ErrTimeout) {
		return nil, pn532.NewTimeoutError("receiveFrame", t.busName)
	}
	if err != nil {
		return nil, err
	}

	if err := t.dev.Tx(frame.AckFrame, nil); err != nil {
		return nil, t.readError("sendAck", err)
	}
	return data, nil
}

func (t *Transport) readError(op string, err error) error {
	return pn532.NewTransportError(op, t.busName, fmt.Errorf("%w: %w", pn532.ErrTransportRead, err),
		pn532.ErrorTypeTransient)
}

// Ensure Transport implements pn532.Transport
var _ pn532.Transport = (*Transport)(nil)
