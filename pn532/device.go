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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-rfidbox/internal/retry"
	"github.com/sirupsen/logrus"
)

// IC code reported by GetFirmwareVersion
const icPN532 = 0x32

type deviceConfig struct {
	maxRetries     int
	retryDelay     time.Duration
	passiveRetries byte
}

func defaultDeviceConfig() deviceConfig {
	return deviceConfig{
		maxRetries:     3,
		retryDelay:     10 * time.Millisecond,
		passiveRetries: 0x01,
	}
}

// FirmwareVersion is the answer to GetFirmwareVersion.
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

func (f FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02X v%d.%d", f.IC, f.Version, f.Revision)
}

// Device represents a PN532 reader.
//
// Thread Safety: Device is NOT thread-safe.
type Device struct {
	transport Transport
	log       logrus.FieldLogger
	firmware  *FirmwareVersion
	target    *listedTarget
	config    deviceConfig
}

// New creates a device on transport. Call Init before use.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	d := &Device{
		transport: transport,
		log:       logrus.StandardLogger(),
		config:    defaultDeviceConfig(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the response timeout of the transport.
func (d *Device) SetTimeout(timeout time.Duration) error {
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// Init checks the firmware, puts the SAM in normal mode and bounds the
// number of field polls per detection.
func (d *Device) Init(ctx context.Context) error {
	fw, err := d.FirmwareVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get firmware version: %w", err)
	}
	if fw.IC != icPN532 {
		return fmt.Errorf("%w: IC 0x%02X", ErrUnsupportedDevice, fw.IC)
	}

	if _, err := d.command(ctx, cmdSamConfiguration, []byte{samModeNormal, samTimeout, samUseIRQ}); err != nil {
		return fmt.Errorf("SAM configuration failed: %w", err)
	}

	// ATR_REQ retries, PSL retries, passive activation retries
	args := []byte{rfItemMaxRetries, 0xFF, 0x01, d.config.passiveRetries}
	if _, err := d.command(ctx, cmdRFConfiguration, args); err != nil {
		return fmt.Errorf("RF configuration failed: %w", err)
	}

	d.log.WithFields(logrus.Fields{
		"firmware":  fw.String(),
		"transport": d.transport.Type(),
	}).Info("PN532 initialized")
	return nil
}

// FirmwareVersion queries the firmware version. The answer is cached.
func (d *Device) FirmwareVersion(ctx context.Context) (FirmwareVersion, error) {
	if d.firmware != nil {
		return *d.firmware, nil
	}
	resp, err := d.command(ctx, cmdGetFirmwareVersion, nil)
	if err != nil {
		return FirmwareVersion{}, err
	}
	if len(resp) < 4 {
		return FirmwareVersion{}, fmt.Errorf("%w: firmware version of %d bytes", ErrInvalidResponse, len(resp))
	}
	d.firmware = &FirmwareVersion{IC: resp[0], Version: resp[1], Revision: resp[2], Support: resp[3]}
	return *d.firmware, nil
}

// Close closes the device connection
func (d *Device) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// command sends cmd, retrying retryable failures, and returns the response
// without its response code.
func (d *Device) command(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	var lastErr error
	cfg := retry.Config{
		MaxRetries: d.config.maxRetries,
		Delay:      d.config.retryDelay,
		OnRetry: func(attempt int) error {
			d.log.WithError(lastErr).WithFields(logrus.Fields{
				"cmd":     fmt.Sprintf("0x%02X", cmd),
				"attempt": attempt,
			}).Debug("retrying PN532 command")
			return nil
		},
	}

	resp, err := retry.WithRetry(ctx, cfg, func() ([]byte, bool, error) {
		resp, err := d.transport.SendCommand(ctx, cmd, args)
		if err == nil {
			return resp, false, nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return nil, false, err
		}
		lastErr = err
		return nil, true, nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return nil, fmt.Errorf("command 0x%02X: %w after %d retries: %w",
			cmd, ErrCommunicationFailed, d.config.maxRetries, lastErr)
	}
	if err != nil {
		return nil, fmt.Errorf("command 0x%02X: %w", cmd, err)
	}

	if len(resp) == 0 || resp[0] != cmd+1 {
		return nil, fmt.Errorf("%w: command 0x%02X answered with % X", ErrInvalidResponse, cmd, resp)
	}
	return resp[1:], nil
}
