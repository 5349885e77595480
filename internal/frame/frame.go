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

package frame

import (
	"bytes"
	"errors"
	"fmt"
)

// Parse errors
var (
	// ErrShortFrame means more bytes are needed to complete the frame.
	ErrShortFrame       = errors.New("incomplete frame")
	ErrNoStartCode      = errors.New("frame start code not found")
	ErrLengthChecksum   = errors.New("frame length checksum mismatch")
	ErrDataChecksum     = errors.New("frame data checksum mismatch")
	ErrUnexpectedTFI    = errors.New("unexpected frame identifier")
	ErrApplicationError = errors.New("PN532 reported a syntax error frame")
	ErrTooLarge         = errors.New("frame data too large")
	// ErrAckFrame is returned by Parse when the frame found is an ACK.
	ErrAckFrame = errors.New("ACK frame")
)

// CalculateChecksum returns the 8-bit sum of data.
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// CalculateLengthChecksum returns LCS for a LEN byte.
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// CalculateDataChecksum returns DCS for a frame identifier and payload.
func CalculateDataChecksum(tfi byte, data []byte) byte {
	return ^(tfi + CalculateChecksum(data)) + 1
}

// ValidateChecksum reports whether data, which must include its checksum
// byte, fails the zero-sum check and should be NACKed.
func ValidateChecksum(data []byte) bool {
	return CalculateChecksum(data) != 0
}

// Build returns the host frame carrying cmd and args.
func Build(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args)
	if dataLen > MaxDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, dataLen)
	}

	out := make([]byte, 0, dataLen+Overhead)
	out = append(out, Preamble, StartCode1, StartCode2)
	out = append(out, byte(dataLen), CalculateLengthChecksum(byte(dataLen)))
	out = append(out, HostToPn532, cmd)
	out = append(out, args...)
	out = append(out, CalculateDataChecksum(HostToPn532, append([]byte{cmd}, args...)), Postamble)
	return out, nil
}

// IsAck reports whether buf holds an ACK frame preceded only by zero bytes.
func IsAck(buf []byte) bool {
	i := bytes.Index(buf, AckFrame[1:5])
	if i < 0 {
		return false
	}
	for _, b := range buf[:i] {
		if b != 0x00 {
			return false
		}
	}
	return true
}

// Parse extracts the payload following the PN532-to-host TFI from the first
// frame in buf. n is the number of bytes consumed up to and including the
// data checksum. ErrShortFrame asks the caller to read more.
func Parse(buf []byte) (payload []byte, n int, err error) {
	start := -1
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == StartCode1 && buf[i+1] == StartCode2 {
			start = i + 2
			break
		}
	}
	if start < 0 {
		if len(buf) < MinFrameLength {
			return nil, 0, ErrShortFrame
		}
		return nil, 0, ErrNoStartCode
	}
	if start+2 > len(buf) {
		return nil, 0, ErrShortFrame
	}

	length, lcs := buf[start], buf[start+1]
	if length == 0x00 && lcs == 0xFF {
		return nil, start + 2, ErrAckFrame
	}
	if length+lcs != 0 {
		return nil, 0, fmt.Errorf("%w: LEN 0x%02X LCS 0x%02X", ErrLengthChecksum, length, lcs)
	}
	if length == 0 {
		return nil, 0, fmt.Errorf("%w: empty frame", ErrUnexpectedTFI)
	}

	body := start + 2
	end := body + int(length) + 1
	if end > len(buf) {
		return nil, 0, ErrShortFrame
	}

	if ValidateChecksum(buf[body:end]) {
		return nil, 0, ErrDataChecksum
	}
	if length == 1 && buf[body] == errorFrameCode {
		return nil, end, ErrApplicationError
	}
	if buf[body] != Pn532ToHost {
		return nil, end, fmt.Errorf("%w: 0x%02X", ErrUnexpectedTFI, buf[body])
	}

	payload = make([]byte, int(length)-1)
	copy(payload, buf[body+1:end-1])
	return payload, end, nil
}
