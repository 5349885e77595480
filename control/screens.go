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

import (
	"errors"
	"strconv"

	"github.com/ZaparooProject/go-rfidbox"
)

// Two line screens, sized for a 16x2 display
var (
	screenSuccessRead  = []string{"reading success", "ACCESS GRANTED"}
	screenSuccessWrite = []string{"writing success", "Card programmed"}
	screenSuccessSet   = []string{"SUCCESS!!!", "Passphrase set"}
	screenSetTooLong   = []string{"Passphrase", "too long!"}
	screenNoSecret     = []string{"ERROR!!!", "No secret set"}
	screenWaitCard     = "Waiting card..."
)

func bootScreen(version string) []string {
	return []string{"RFID BOX", "Version " + version}
}

func idleScreen(mode Mode, job Job) []string {
	title := "READING mode."
	switch {
	case job == Set:
		title = "SETTING mode."
	case mode == Write:
		title = "WRITING mode."
	}
	return []string{title, screenWaitCard}
}

// errorScreenFor describes a latched error.
func errorScreenFor(err error) []string {
	if errors.Is(err, ErrNoSecret) {
		return screenNoSecret
	}
	if errors.Is(err, rfidbox.ErrIncompatibleCard) {
		return []string{"Incompatible", "card type!"}
	}
	switch rfidbox.ClassOf(err) {
	case rfidbox.ClassSelection:
		return []string{"ERROR!!!", "Card not read"}
	case rfidbox.ClassAuthentication:
		return []string{"ERROR!!!", "Auth failed"}
	case rfidbox.ClassRead:
		return []string{"Read error on", "block " + strconv.Itoa(rfidbox.BlockOf(err))}
	case rfidbox.ClassWrite:
		return []string{"Writing ERROR!", "remove card!"}
	case rfidbox.ClassValidation:
		return []string{"INVALID", "passphrase!"}
	case rfidbox.ClassStorageOverflow, rfidbox.ClassStorageCorruption:
		return []string{"ERROR!!!", "Storage fault"}
	default:
		return []string{"ERROR!!!", "System fault"}
	}
}
