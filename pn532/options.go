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
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithTimeout sets the response timeout of the transport.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		return d.SetTimeout(timeout)
	}
}

// WithMaxRetries sets how many times a command failing with a retryable
// error is sent again.
func WithMaxRetries(n int) Option {
	return func(d *Device) error {
		if n < 0 {
			return fmt.Errorf("%w: negative retries %d", ErrInvalidParameter, n)
		}
		d.config.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the pause between retries.
func WithRetryDelay(delay time.Duration) Option {
	return func(d *Device) error {
		d.config.retryDelay = delay
		return nil
	}
}

// WithPassiveRetries sets how many times the reader polls the field per
// InListPassiveTarget. 0xFF polls forever and must not be used by a
// control loop.
func WithPassiveRetries(n byte) Option {
	return func(d *Device) error {
		if n == 0xFF {
			return fmt.Errorf("%w: infinite passive retries", ErrInvalidParameter)
		}
		d.config.passiveRetries = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Device) error {
		if log != nil {
			d.log = log
		}
		return nil
	}
}
