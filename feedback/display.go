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
	"strings"

	"github.com/sirupsen/logrus"
)

// LogDisplay writes display text to a logger. It stands in for a panel on
// headless installs.
type LogDisplay struct {
	log  logrus.FieldLogger
	last string
}

// NewLogDisplay creates a display logging at info level.
func NewLogDisplay(log logrus.FieldLogger) *LogDisplay {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogDisplay{log: log}
}

// Show logs lines, skipping repeats of the current screen.
func (d *LogDisplay) Show(lines ...string) error {
	text := strings.Join(lines, " | ")
	if text == d.last {
		return nil
	}
	d.last = text
	d.log.WithField("display", text).Info("display")
	return nil
}

// Last returns the text currently shown.
func (d *LogDisplay) Last() string {
	return d.last
}
