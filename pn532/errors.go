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
	"errors"
	"fmt"
)

// Transport errors
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrTransportRead       = errors.New("transport read error")
	ErrTransportWrite      = errors.New("transport write error")
	ErrTransportNotReady   = errors.New("transport not ready")
	ErrCommunicationFailed = errors.New("communication failed")
	ErrNoACK               = errors.New("no ACK received")
	ErrFrameCorrupted      = errors.New("frame corrupted")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
)

// Device and card errors
var (
	ErrDeviceNotFound    = errors.New("PN532 device not found")
	ErrNoCard            = errors.New("no card in field")
	ErrDataTooLarge      = errors.New("data too large")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrInvalidResponse   = errors.New("invalid response")
	ErrAuthFailed        = errors.New("MIFARE authentication failed")
	ErrCardStatus        = errors.New("card returned error status")
	ErrUnsupportedDevice = errors.New("unsupported device")
)

// ErrorType classifies errors for retry decisions.
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by retrying.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors are link glitches worth retrying.
	ErrorTypeTransient
	// ErrorTypeTimeout errors are timeouts, also worth retrying.
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError wraps an error raised by a transport with the operation
// and port it happened on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError. Transient and timeout
// errors are retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError reports that no response arrived in time.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewNoACKError reports a command that was never acknowledged.
func NewNoACKError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrNoACK, ErrorTypeTransient)
}

// NewFrameCorruptedError reports an unparseable response frame.
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewTransportNotReadyError reports a device that never raised its ready flag.
func NewTransportNotReadyError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportNotReady, ErrorTypeTransient)
}

// NewDataTooLargeError reports a command that does not fit a normal frame.
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// IsRetryable reports whether err is worth retrying. Only sentinel errors
// and TransportErrors are considered; plain text that happens to mention a
// transient failure is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return GetErrorType(err) != ErrorTypePermanent
}

// GetErrorType classifies err.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrTransportNotReady),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrNoACK),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// Status codes of the PN532 error byte (low 6 bits)
const (
	StatusOK           = 0x00
	StatusTimeout      = 0x01
	StatusCRC          = 0x02
	StatusParity       = 0x03
	StatusAuthError    = 0x14
	StatusWrongContext = 0x27
)

// CardError is a non-zero status returned by InDataExchange or
// InCommunicateThru: the reader talked to the card but the card refused.
type CardError struct {
	Op     string
	Status byte
}

func (e *CardError) Error() string {
	return fmt.Sprintf("%s: card status 0x%02X", e.Op, e.Status)
}

// Is lets errors.Is match ErrCardStatus, and ErrAuthFailed for an
// authentication status.
func (e *CardError) Is(target error) bool {
	switch target {
	case ErrCardStatus:
		return true
	case ErrAuthFailed:
		return e.Status == StatusAuthError
	default:
		return false
	}
}
