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

package pn532

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTransport is a scripted Transport for tests. Responses and errors are
// configured per command code; ResponseFunc, when set, answers everything.
type MockTransport struct {
	ResponseFunc func(cmd byte, args []byte) ([]byte, error)
	responses    map[byte][]byte
	errors       map[byte]error
	calls        map[byte]int
	lastArgs     map[byte][]byte
	timeout      time.Duration
	mu           sync.Mutex
	closed       bool
}

// NewMockTransport creates a mock answering nothing until scripted.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		errors:    make(map[byte]error),
		calls:     make(map[byte]int),
		lastArgs:  make(map[byte][]byte),
		timeout:   time.Second,
	}
}

// SetResponse scripts the response payload (response code included) of cmd.
func (m *MockTransport) SetResponse(cmd byte, resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = append([]byte(nil), resp...)
	delete(m.errors, cmd)
}

// SetError makes cmd fail with err.
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[cmd] = err
}

// CallCount returns how many times cmd was sent.
func (m *MockTransport) CallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[cmd]
}

// LastArgs returns the arguments of the last cmd sent.
func (m *MockTransport) LastArgs(cmd byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.lastArgs[cmd]...)
}

// SendCommand implements Transport.
func (m *MockTransport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrTransportWrite
	}
	m.calls[cmd]++
	m.lastArgs[cmd] = append([]byte(nil), args...)
	fn := m.ResponseFunc
	resp, ok := m.responses[cmd]
	err := m.errors[cmd]
	m.mu.Unlock()

	if fn != nil {
		return fn(cmd, args)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("mock: no response for command 0x%02X", cmd)
	}
	return append([]byte(nil), resp...), nil
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport.
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Timeout returns the last timeout set.
func (m *MockTransport) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// IsConnected implements Transport.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport.
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var _ Transport = (*MockTransport)(nil)
