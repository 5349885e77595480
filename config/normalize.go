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

package config

import (
	"github.com/ZaparooProject/go-rfidbox/feedback/lcd"
	"github.com/ZaparooProject/go-rfidbox/nvstore"
	"github.com/ZaparooProject/go-rfidbox/nvstore/at24"
)

// Defaults applied by Normalize
const (
	DefaultTimeoutMs         = 200
	DefaultRetries           = 3
	DefaultKey               = "FFFFFFFFFFFF"
	DefaultAccessBits        = "FF078069"
	DefaultLongPressMs       = 3000
	DefaultActionPulseMs     = 3000
	DefaultBeepMs            = 300
	DefaultModbusTimeoutMs   = 1000
	DefaultIntervalMs        = 50
	DefaultLockoutIntervalMs = 100
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	r := &cfg.Reader
	if r.Transport == "" {
		r.Transport = "auto"
	}
	if r.TimeoutMs == 0 {
		r.TimeoutMs = DefaultTimeoutMs
	}
	if r.Retries == 0 {
		r.Retries = DefaultRetries
	}

	c := &cfg.Card
	if c.Key == "" {
		c.Key = DefaultKey
	}
	if c.DefaultKey == "" {
		c.DefaultKey = DefaultKey
	}
	if c.KeyType == "" {
		c.KeyType = "A"
	}
	if c.AccessBits == "" {
		c.AccessBits = DefaultAccessBits
	}

	s := &cfg.Secret
	if s.Store == "" {
		s.Store = "memory"
	}
	if s.Capacity == 0 {
		s.Capacity = nvstore.DefaultCapacity
	}
	if s.Store == "at24" && s.Address == 0 {
		s.Address = at24.DefaultAddress
	}

	b := &cfg.Buttons
	for _, btn := range []*ButtonConfig{&b.Mode, &b.Reset} {
		if btn.Trigger == "" {
			btn.Trigger = "pull_up"
		}
	}
	if b.LongPressMs == 0 {
		b.LongPressMs = DefaultLongPressMs
	}

	o := &cfg.Outputs
	if o.ActionPulseMs == 0 {
		o.ActionPulseMs = DefaultActionPulseMs
	}
	if o.BeepMs == 0 {
		o.BeepMs = DefaultBeepMs
	}
	if o.Modbus != nil && o.Modbus.TimeoutMs == 0 {
		o.Modbus.TimeoutMs = DefaultModbusTimeoutMs
	}

	d := &cfg.Display
	if d.Type == "" {
		d.Type = "log"
	}
	if d.Type == "lcd" {
		if d.Address == 0 {
			d.Address = lcd.DefaultAddress
		}
		if d.Cols == 0 {
			d.Cols = 16
		}
		if d.Rows == 0 {
			d.Rows = 2
		}
	}

	l := &cfg.Loop
	if l.IntervalMs == 0 {
		l.IntervalMs = DefaultIntervalMs
	}
	if l.LockoutIntervalMs == 0 {
		l.LockoutIntervalMs = DefaultLockoutIntervalMs
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
