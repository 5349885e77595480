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
	"sync"

	"github.com/ZaparooProject/go-rfidbox"
	testutil "github.com/ZaparooProject/go-rfidbox/internal/testing"
)

var (
	firmwareResponse = []byte{0x03, 0x32, 0x01, 0x06, 0x07}
	samResponse      = []byte{0x15}
	rfConfigResponse = []byte{0x33}
	noTargetResponse = []byte{0x4B, 0x00}
)

// targetResponse builds an InListPassiveTarget answer for one type A card.
func targetResponse(uid []byte, sak byte) []byte {
	resp := []byte{0x4B, 0x01, targetNumber, 0x00, 0x04, sak, byte(len(uid))}
	return append(resp, uid...)
}

// cardReader answers PN532 commands from a virtual card so a Device can be
// exercised end to end.
type cardReader struct {
	card *testutil.VirtualCard
	// fault, when set, is returned for the next n exchanges
	fault  error
	faults int
	mu     sync.Mutex
}

func newCardReader(card *testutil.VirtualCard) (*cardReader, *MockTransport) {
	r := &cardReader{card: card}
	mock := NewMockTransport()
	mock.ResponseFunc = r.respond
	return r, mock
}

func (r *cardReader) failNext(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fault = err
	r.faults = n
}

func (r *cardReader) respond(cmd byte, args []byte) ([]byte, error) {
	r.mu.Lock()
	if r.faults > 0 {
		r.faults--
		err := r.fault
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()

	ctx := context.Background()
	switch cmd {
	case cmdGetFirmwareVersion:
		return firmwareResponse, nil
	case cmdSamConfiguration:
		return samResponse, nil
	case cmdRFConfiguration:
		return rfConfigResponse, nil
	case cmdInListPassiveTarget:
		card, err := r.card.SelectCard(ctx)
		if err != nil {
			return noTargetResponse, nil
		}
		return targetResponse(card.UID, card.SAK), nil
	case cmdInRelease:
		_ = r.card.Halt(ctx)
		return []byte{0x53, 0x00}, nil
	case cmdInDataExchange:
		return r.exchange(ctx, args[1:])
	default:
		return nil, errors.New("unsupported command")
	}
}

func (r *cardReader) exchange(ctx context.Context, data []byte) ([]byte, error) {
	switch data[0] {
	case mifareCmdAuth, mifareCmdAuth + 1:
		keyType := rfidbox.KeyType(data[0] - mifareCmdAuth)
		if err := r.card.Authenticate(ctx, int(data[1]), keyType, data[2:8]); err != nil {
			return []byte{0x41, StatusAuthError}, nil
		}
		return []byte{0x41, StatusOK}, nil
	case mifareCmdRead:
		block, err := r.card.ReadBlock(ctx, int(data[1]))
		if err != nil {
			return []byte{0x41, StatusTimeout}, nil
		}
		return append([]byte{0x41, StatusOK}, block[:]...), nil
	case mifareCmdWrite:
		var block [rfidbox.BlockSize]byte
		copy(block[:], data[2:])
		if err := r.card.WriteBlock(ctx, int(data[1]), block); err != nil {
			return []byte{0x41, StatusTimeout}, nil
		}
		return []byte{0x41, StatusOK}, nil
	default:
		return []byte{0x41, StatusWrongContext}, nil
	}
}
