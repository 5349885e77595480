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
	"errors"
	"fmt"
)

// Transfer and storage errors. A *TransferError matches the sentinel of
// its class with errors.Is.
var (
	ErrSelection         = errors.New("selection error")
	ErrIncompatibleCard  = errors.New("incompatible card type")
	ErrAuthentication    = errors.New("authentication error")
	ErrRead              = errors.New("read error")
	ErrWrite             = errors.New("write error")
	ErrValidation        = errors.New("validation error")
	ErrCardOverflow      = errors.New("secret exceeds card capacity")
	ErrStorageOverflow   = errors.New("storage overflow")
	ErrStorageCorruption = errors.New("storage corruption")
	ErrNoSecret          = errors.New("no secret stored")
)

// ErrorClass categorizes a failure for the error latch and the display.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassSelection
	ClassAuthentication
	ClassRead
	ClassWrite
	ClassValidation
	ClassStorageOverflow
	ClassStorageCorruption
	ClassNoSecret
)

func (c ErrorClass) String() string {
	switch c {
	case ClassSelection:
		return "selection"
	case ClassAuthentication:
		return "authentication"
	case ClassRead:
		return "read"
	case ClassWrite:
		return "write"
	case ClassValidation:
		return "validation"
	case ClassStorageOverflow:
		return "storage_overflow"
	case ClassStorageCorruption:
		return "storage_corruption"
	case ClassNoSecret:
		return "no_secret"
	default:
		return "none"
	}
}

func (c ErrorClass) sentinel() error {
	switch c {
	case ClassSelection:
		return ErrSelection
	case ClassAuthentication:
		return ErrAuthentication
	case ClassRead:
		return ErrRead
	case ClassWrite:
		return ErrWrite
	case ClassValidation:
		return ErrValidation
	case ClassStorageOverflow:
		return ErrStorageOverflow
	case ClassStorageCorruption:
		return ErrStorageCorruption
	case ClassNoSecret:
		return ErrNoSecret
	default:
		return nil
	}
}

// TransferError describes a failed card transfer. Block and Sector are -1
// when the failure is not tied to a location on the card.
type TransferError struct {
	Err    error
	Op     string
	UID    string
	Class  ErrorClass
	Block  int
	Sector int
}

func newTransferError(op string, class ErrorClass, sess *Session, block int, err error) *TransferError {
	te := &TransferError{
		Op:     op,
		Class:  class,
		Block:  block,
		Sector: -1,
		Err:    err,
	}
	if block >= 0 {
		te.Sector = SectorOf(block)
	}
	if sess != nil {
		te.UID = sess.Card().UID.String()
	}
	return te
}

func (e *TransferError) Error() string {
	msg := e.Op
	if e.Block >= 0 {
		msg = fmt.Sprintf("%s block %d (sector %d)", msg, e.Block, e.Sector)
	}
	if s := e.Class.sentinel(); s != nil {
		msg = fmt.Sprintf("%s: %v", msg, s)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying collaborator error
func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the transfer's class.
func (e *TransferError) Is(target error) bool {
	s := e.Class.sentinel()
	return s != nil && target == s
}

// ClassOf returns the error class of err, or ClassNone.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var te *TransferError
	if errors.As(err, &te) {
		return te.Class
	}
	for c := ClassSelection; c <= ClassNoSecret; c++ {
		if errors.Is(err, c.sentinel()) {
			return c
		}
	}
	return ClassNone
}

// BlockOf returns the block a transfer failed on, or -1.
func BlockOf(err error) int {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Block
	}
	return -1
}
