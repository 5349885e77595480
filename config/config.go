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

// Package config loads the YAML configuration of the rfidbox daemon.
//
// Load only decodes. Validate checks without mutating, Normalize fills the
// defaults and must run after Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZaparooProject/go-rfidbox"
	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	Reader  ReaderConfig  `yaml:"reader"`
	Card    CardConfig    `yaml:"card"`
	Secret  SecretConfig  `yaml:"secret"`
	Buttons ButtonsConfig `yaml:"buttons"`
	Outputs OutputsConfig `yaml:"outputs"`
	Display DisplayConfig `yaml:"display"`
	Loop    LoopConfig    `yaml:"loop"`
	Log     LogConfig     `yaml:"log"`
}

// ---- READER ----

type ReaderConfig struct {
	// Transport is uart, i2c or auto
	Transport   string   `yaml:"transport"`
	Device      string   `yaml:"device"`
	IgnorePaths []string `yaml:"ignore_paths"`
	TimeoutMs   int      `yaml:"timeout_ms"`
	Retries     int      `yaml:"retries"`
}

// ---- CARD ----

type CardConfig struct {
	Key        string `yaml:"key"`
	KeyType    string `yaml:"key_type"`
	AccessBits string `yaml:"access_bits"`
	// DefaultKey is the key of blank cards, used when provisioning
	DefaultKey   string `yaml:"default_key"`
	VerifyWrites bool   `yaml:"verify_writes"`
}

// ---- SECRET STORE ----

type SecretConfig struct {
	// Passphrase is the secret stored by the SET job
	Passphrase string `yaml:"passphrase"`
	// Store is memory, badger, file or at24
	Store       string `yaml:"store"`
	Path        string `yaml:"path"`
	Bus         string `yaml:"bus"`
	Capacity    int    `yaml:"capacity"`
	Address     uint16 `yaml:"address"`
	WideAddress bool   `yaml:"wide_address"`
}

// ---- BUTTONS ----

type ButtonConfig struct {
	Pin string `yaml:"pin"`
	// Trigger is pull_up or pull_down
	Trigger string `yaml:"trigger"`
}

type ButtonsConfig struct {
	Mode        ButtonConfig `yaml:"mode"`
	Reset       ButtonConfig `yaml:"reset"`
	LongPressMs int          `yaml:"long_press_ms"`
}

// ---- OUTPUTS ----

type OutputsConfig struct {
	Modbus        *ModbusConfig `yaml:"modbus"`
	Action        string        `yaml:"action"`
	Alarm         string        `yaml:"alarm"`
	Error         string        `yaml:"error"`
	ActionPulseMs int           `yaml:"action_pulse_ms"`
	BeepMs        int           `yaml:"beep_ms"`
}

type ModbusConfig struct {
	// Coils maps action, alarm and error to coil addresses
	Coils     map[string]uint16 `yaml:"coils"`
	Endpoint  string            `yaml:"endpoint"`
	TimeoutMs int               `yaml:"timeout_ms"`
	UnitID    uint8             `yaml:"unit_id"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	// Type is lcd or log
	Type    string `yaml:"type"`
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
	Cols    int    `yaml:"cols"`
	Rows    int    `yaml:"rows"`
}

// ---- LOOP / LOG ----

type LoopConfig struct {
	IntervalMs        int `yaml:"interval_ms"`
	LockoutIntervalMs int `yaml:"lockout_interval_ms"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads and decodes path. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// SectorKey returns the data sector key. The config must be validated.
func (c *CardConfig) SectorKey() (rfidbox.SectorKey, error) {
	return sectorKey(c.Key, c.KeyType, c.AccessBits)
}

// SourceKey returns the key of blank cards, with the same key type and
// access bits as the data sector key.
func (c *CardConfig) SourceKey() (rfidbox.SectorKey, error) {
	return sectorKey(c.DefaultKey, c.KeyType, c.AccessBits)
}

func sectorKey(key, keyType, access string) (rfidbox.SectorKey, error) {
	var sk rfidbox.SectorKey
	var err error
	if sk.Key, err = rfidbox.ParseKey(key); err != nil {
		return sk, err
	}
	if sk.Type, err = rfidbox.ParseKeyType(keyType); err != nil {
		return sk, err
	}
	if sk.Access, err = rfidbox.ParseAccessBits(access); err != nil {
		return sk, err
	}
	return sk, nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Timeout returns the reader response timeout.
func (r ReaderConfig) Timeout() time.Duration { return ms(r.TimeoutMs) }

// LongPress returns the long press threshold.
func (b ButtonsConfig) LongPress() time.Duration { return ms(b.LongPressMs) }

// ActionPulse returns how long the action output stays raised.
func (o OutputsConfig) ActionPulse() time.Duration { return ms(o.ActionPulseMs) }

// Beep returns the beep on time.
func (o OutputsConfig) Beep() time.Duration { return ms(o.BeepMs) }

// Timeout returns the Modbus response timeout.
func (m ModbusConfig) Timeout() time.Duration { return ms(m.TimeoutMs) }

// Interval returns the control loop period.
func (l LoopConfig) Interval() time.Duration { return ms(l.IntervalMs) }

// LockoutInterval returns the control loop period while locked out.
func (l LoopConfig) LockoutInterval() time.Duration { return ms(l.LockoutIntervalMs) }
