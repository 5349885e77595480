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

package rfidbox

import (
	"github.com/sirupsen/logrus"

	"github.com/ZaparooProject/go-rfidbox/timer"
)

// Option configures a Protocol or a SecretStore.
type Option func(*options)

type options struct {
	log          logrus.FieldLogger
	clock        timer.Clock
	verifyWrites bool
}

func defaultOptions() options {
	return options{
		log:   logrus.StandardLogger(),
		clock: timer.System,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock sets the clock that times card sessions. Stores ignore it.
func WithClock(c timer.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithVerifyWrites makes Protocol.Write read every block back after writing
// it. A block that reads back different fails the write. Stores ignore it.
func WithVerifyWrites() Option {
	return func(o *options) {
		o.verifyWrites = true
	}
}
