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
	"fmt"

	"github.com/ZaparooProject/go-rfidbox"
	"github.com/ZaparooProject/go-rfidbox/button"
	"github.com/ZaparooProject/go-rfidbox/feedback"
	"github.com/sirupsen/logrus"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// READER
	// ------------------------------------------------------------

	switch cfg.Reader.Transport {
	case "", "auto", "uart", "i2c":
	default:
		return fmt.Errorf("reader: unknown transport %q (want uart, i2c or auto)", cfg.Reader.Transport)
	}
	if cfg.Reader.Transport == "uart" && cfg.Reader.Device == "" {
		return fmt.Errorf("reader: uart transport requires device")
	}
	if cfg.Reader.TimeoutMs < 0 || cfg.Reader.Retries < 0 {
		return fmt.Errorf("reader: timeout_ms and retries must not be negative")
	}

	// ------------------------------------------------------------
	// CARD KEYS
	// ------------------------------------------------------------

	if cfg.Card.Key != "" {
		if _, err := rfidbox.ParseKey(cfg.Card.Key); err != nil {
			return fmt.Errorf("card.key: %w", err)
		}
	}
	if cfg.Card.DefaultKey != "" {
		if _, err := rfidbox.ParseKey(cfg.Card.DefaultKey); err != nil {
			return fmt.Errorf("card.default_key: %w", err)
		}
	}
	if _, err := rfidbox.ParseKeyType(cfg.Card.KeyType); err != nil {
		return fmt.Errorf("card.key_type: %w", err)
	}
	if cfg.Card.AccessBits != "" {
		if _, err := rfidbox.ParseAccessBits(cfg.Card.AccessBits); err != nil {
			return fmt.Errorf("card.access_bits: %w", err)
		}
	}

	// ------------------------------------------------------------
	// SECRET STORE
	// ------------------------------------------------------------

	if err := rfidbox.ValidateSecret(cfg.Secret.Passphrase); err != nil {
		return fmt.Errorf("secret.passphrase: %w", err)
	}
	if len(cfg.Secret.Passphrase) > rfidbox.MaxSecretLength {
		return fmt.Errorf("secret.passphrase: %d characters, max %d",
			len(cfg.Secret.Passphrase), rfidbox.MaxSecretLength)
	}
	if cfg.Secret.Capacity < 0 {
		return fmt.Errorf("secret.capacity must not be negative")
	}
	if cfg.Secret.Capacity > 0 && len(cfg.Secret.Passphrase) >= cfg.Secret.Capacity {
		return fmt.Errorf("secret.passphrase: %d characters do not fit a store of %d bytes",
			len(cfg.Secret.Passphrase), cfg.Secret.Capacity)
	}
	switch cfg.Secret.Store {
	case "", "memory", "at24":
	case "badger", "file":
		if cfg.Secret.Path == "" {
			return fmt.Errorf("secret: %s store requires path", cfg.Secret.Store)
		}
	default:
		return fmt.Errorf("secret: unknown store %q (want memory, badger, file or at24)", cfg.Secret.Store)
	}
	if cfg.Secret.Address > 0x7F {
		return fmt.Errorf("secret.address 0x%X is not a 7-bit I2C address", cfg.Secret.Address)
	}

	// ------------------------------------------------------------
	// BUTTONS
	// ------------------------------------------------------------

	for name, b := range map[string]ButtonConfig{"mode": cfg.Buttons.Mode, "reset": cfg.Buttons.Reset} {
		if b.Pin == "" {
			return fmt.Errorf("buttons.%s: pin required", name)
		}
		if b.Trigger != "" {
			if _, err := button.ParseTrigger(b.Trigger); err != nil {
				return fmt.Errorf("buttons.%s: %w", name, err)
			}
		}
	}
	if cfg.Buttons.Mode.Pin == cfg.Buttons.Reset.Pin {
		return fmt.Errorf("buttons: mode and reset share pin %s", cfg.Buttons.Mode.Pin)
	}
	if cfg.Buttons.LongPressMs < 0 {
		return fmt.Errorf("buttons.long_press_ms must not be negative")
	}

	// ------------------------------------------------------------
	// OUTPUTS
	// ------------------------------------------------------------

	if cfg.Outputs.ActionPulseMs < 0 || cfg.Outputs.BeepMs < 0 {
		return fmt.Errorf("outputs: durations must not be negative")
	}
	if m := cfg.Outputs.Modbus; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("outputs.modbus: endpoint required")
		}
		if len(m.Coils) == 0 {
			return fmt.Errorf("outputs.modbus: no coils defined")
		}
		owner := make(map[uint16]string)
		for name, addr := range m.Coils {
			if _, err := feedback.ParseSignal(name); err != nil {
				return fmt.Errorf("outputs.modbus.coils: %w", err)
			}
			if prev, exists := owner[addr]; exists {
				return fmt.Errorf("outputs.modbus.coils: coil %d used by %s and %s", addr, prev, name)
			}
			owner[addr] = name
		}
	}

	// ------------------------------------------------------------
	// DISPLAY / LOOP / LOG
	// ------------------------------------------------------------

	switch cfg.Display.Type {
	case "", "log", "lcd":
	default:
		return fmt.Errorf("display: unknown type %q (want lcd or log)", cfg.Display.Type)
	}
	if cfg.Display.Cols < 0 || cfg.Display.Rows < 0 || cfg.Display.Rows > 4 {
		return fmt.Errorf("display: invalid size %dx%d", cfg.Display.Cols, cfg.Display.Rows)
	}

	if cfg.Loop.IntervalMs < 0 || cfg.Loop.LockoutIntervalMs < 0 {
		return fmt.Errorf("loop: intervals must not be negative")
	}

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}

	return nil
}
