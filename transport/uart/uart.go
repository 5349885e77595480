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

// Package uart provides the high speed UART transport for the PN532
package uart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-rfidbox/internal/frame"
	"github.com/ZaparooProject/go-rfidbox/internal/retry"
	"github.com/ZaparooProject/go-rfidbox/pn532"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the PN532 HSU default speed.
	DefaultBaudRate = 115200

	// DefaultTimeout bounds the wait for the ACK and for the response.
	DefaultTimeout = 200 * time.Millisecond

	readPoll = 5 * time.Millisecond
	maxNacks = 3
)

// The PN532 leaves low power mode on a long preamble of 0x55 followed by
// enough idle bytes.
var wakeup = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// port is the subset of serial.Port used by the transport.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Transport implements the pn532.Transport interface over a serial port
type Transport struct {
	port     port
	portName string
	pending  []byte
	timeout  time.Duration
	awake    bool
}

// New opens portName at DefaultBaudRate, 8N1.
func New(portName string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, pn532.NewTransportError("open", portName, fmt.Errorf("%w: %w", pn532.ErrDeviceNotFound, err),
			pn532.ErrorTypePermanent)
	}
	return newTransport(p, portName)
}

func newTransport(p port, portName string) (*Transport, error) {
	if err := p.SetReadTimeout(readPoll); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  DefaultTimeout,
	}, nil
}

// Ports lists the serial ports of the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.port == nil {
		return nil, pn532.NewTransportError("send", t.portName, pn532.ErrTransportWrite, pn532.ErrorTypePermanent)
	}

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, pn532.NewDataTooLargeError("sendFrame", t.portName)
	}

	// stale bytes from an aborted exchange would be parsed as the answer
	t.pending = t.pending[:0]
	if err := t.port.ResetInputBuffer(); err != nil {
		return nil, t.readError("reset", err)
	}

	if !t.awake {
		frm = append(append([]byte(nil), wakeup...), frm...)
	}
	if err := t.write(frm); err != nil {
		return nil, err
	}
	t.awake = true

	if err := t.waitAck(ctx); err != nil {
		return nil, err
	}
	return t.receiveFrame(ctx)
}

// SetTimeout sets the response timeout
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", pn532.ErrInvalidParameter, timeout)
	}
	t.timeout = timeout
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

func (t *Transport) write(b []byte) error {
	if _, err := t.port.Write(b); err != nil {
		return pn532.NewTransportError("write", t.portName, fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err),
			pn532.ErrorTypeTransient)
	}
	return nil
}

// fill appends whatever the port delivers within one read poll.
func (t *Transport) fill(op string) error {
	chunk := make([]byte, 64)
	n, err := t.port.Read(chunk)
	if err != nil {
		return t.readError(op, err)
	}
	t.pending = append(t.pending, chunk[:n]...)
	return nil
}

func (t *Transport) waitAck(ctx context.Context) error {
	_, err := retry.UntilTimeout(ctx, t.timeout, 0, func() (struct{}, bool, error) {
		if i := bytes.Index(t.pending, frame.AckFrame); i >= 0 {
			t.pending = t.pending[i+len(frame.AckFrame):]
			return struct{}{}, false, nil
		}
		if bytes.Contains(t.pending, frame.NackFrame) {
			return struct{}{}, false, pn532.NewNoACKError("waitAck", t.portName)
		}
		return struct{}{}, true, t.fill("waitAck")
	})
	if errors.Is(err, retry.ErrTimeout) {
		return pn532.NewNoACKError("waitAck", t.portName)
	}
	return err
}

func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	nacks := 0
	data, err := retry.UntilTimeout(ctx, t.timeout, 0, func() ([]byte, bool, error) {
		payload, n, err := frame.Parse(t.pending)
		switch {
		case err == nil:
			t.pending = t.pending[n:]
			return payload, false, nil
		case errors.Is(err, frame.ErrShortFrame), errors.Is(err, frame.ErrNoStartCode):
			return nil, true, t.fill("receiveFrame")
		case errors.Is(err, frame.ErrAckFrame):
			t.pending = t.pending[n:]
			return nil, true, nil
		case errors.Is(err, frame.ErrApplicationError):
			return nil, false, pn532.NewTransportError("receiveFrame", t.portName, err, pn532.ErrorTypePermanent)
		case nacks >= maxNacks:
			return nil, false, pn532.NewTransportError("receiveFrame", t.portName,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), pn532.ErrorTypeTransient)
		}
		nacks++
		t.pending = t.pending[:0]
		return nil, true, t.write(frame.NackFrame)
	})
	if errors.Is(err, retry.ErrTimeout) {
		return nil, pn532.NewTimeoutError("receiveFrame", t.portName)
	}
	return data, err
}

func (t *Transport) readError(op string, err error) error {
	return pn532.NewTransportError(op, t.portName, fmt.Errorf("%w: %w", pn532.ErrTransportRead, err),
		pn532.ErrorTypeTransient)
}

// Ensure Transport implements pn532.Transport
var _ pn532.Transport = (*Transport)(nil)
