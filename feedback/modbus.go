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
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// coilWriter is the part of modbus.Client used here.
type coilWriter interface {
	WriteSingleCoil(address, value uint16) ([]byte, error)
}

// ModbusConfig selects a Modbus TCP relay module and its coil map.
type ModbusConfig struct {
	Coils    map[Signal]uint16
	Endpoint string
	Timeout  time.Duration
	UnitID   uint8
}

// ModbusOutputs switches signals as coils on a remote Modbus TCP device.
type ModbusOutputs struct {
	client  coilWriter
	handler *modbus.TCPClientHandler
	coils   map[Signal]uint16
	mu      sync.Mutex
}

// NewModbusOutputs connects to the endpoint in cfg.
func NewModbusOutputs(cfg ModbusConfig) (*ModbusOutputs, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus outputs: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus outputs: connect %s: %w", cfg.Endpoint, err)
	}

	o := newModbusOutputs(modbus.NewClient(h), cfg.Coils)
	o.handler = h
	return o, nil
}

func newModbusOutputs(c coilWriter, coils map[Signal]uint16) *ModbusOutputs {
	m := make(map[Signal]uint16, len(coils))
	for k, v := range coils {
		m[k] = v
	}
	return &ModbusOutputs{client: c, coils: m}
}

// Set writes the coil mapped to sig. Unmapped signals are ignored.
func (o *ModbusOutputs) Set(sig Signal, on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	addr, ok := o.coils[sig]
	if !ok {
		return nil
	}
	value := coilOff
	if on {
		value = coilOn
	}
	if _, err := o.client.WriteSingleCoil(addr, value); err != nil {
		return fmt.Errorf("modbus outputs: coil %d (%s): %w", addr, sig, err)
	}
	return nil
}

// Close closes the TCP connection.
func (o *ModbusOutputs) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handler == nil {
		return nil
	}
	return o.handler.Close()
}
