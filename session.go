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
	"context"
	"time"

	"github.com/ZaparooProject/go-rfidbox/timer"
)

// Session is the state of one card presentation. It exists from selection
// until the transfer completes or fails and is never reused.
type Session struct {
	started        time.Time
	clock          timer.Clock
	card           Card
	sectors        []int
	lastAuthSector int
	block          int
	transferred    int
}

func newSession(card Card, clock timer.Clock) *Session {
	return &Session{
		card:           card,
		clock:          clock,
		started:        clock.Now(),
		lastAuthSector: -1, // Not authenticated initially
		block:          -1,
	}
}

// Card returns the selected card.
func (s *Session) Card() Card {
	return s.card
}

// Authenticated reports whether sector was authenticated during the session.
func (s *Session) Authenticated(sector int) bool {
	for _, a := range s.sectors {
		if a == sector {
			return true
		}
	}
	return false
}

// AuthenticatedSectors returns the sectors authenticated so far, in order.
func (s *Session) AuthenticatedSectors() []int {
	out := make([]int, len(s.sectors))
	copy(out, s.sectors)
	return out
}

// Block returns the last block transferred, or -1.
func (s *Session) Block() int {
	return s.block
}

// Transferred returns the number of payload bytes moved so far.
func (s *Session) Transferred() int {
	return s.transferred
}

// Elapsed returns the time since selection.
func (s *Session) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.started)
}

// ensureSector authenticates the sector of block unless it is the sector
// authenticated last. One authentication covers all data blocks of a sector.
func (s *Session) ensureSector(ctx context.Context, tr Transceiver, sk SectorKey, block int) error {
	sector := SectorOf(block)
	if s.lastAuthSector == sector {
		return nil
	}

	key := sk.bytes()
	defer clear(key)

	if err := tr.Authenticate(ctx, TrailerOf(sector), sk.Type, key); err != nil {
		s.lastAuthSector = -1
		return newTransferError("authenticate", ClassAuthentication, s, TrailerOf(sector), err)
	}
	s.lastAuthSector = sector
	s.sectors = append(s.sectors, sector)
	return nil
}

func (s *Session) advance(block, n int) {
	s.block = block
	s.transferred += n
}
