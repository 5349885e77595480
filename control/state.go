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

package control

// State is the control state.
type State int

const (
	Idle State = iota
	CardPresent
	ErrorLockout
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CardPresent:
		return "card_present"
	case ErrorLockout:
		return "error_lockout"
	default:
		return "unknown"
	}
}

// Mode selects what a card presentation does while the job is Run.
type Mode int

const (
	// Read validates the card against the stored secret.
	Read Mode = iota
	// Write programs the card with the stored secret.
	Write
)

func (m Mode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// Job is Run for normal card handling, or Set to store the configured
// passphrase on the next card presentation.
type Job int

const (
	Run Job = iota
	Set
)

func (j Job) String() string {
	if j == Set {
		return "set"
	}
	return "run"
}
