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

package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-rfidbox"
)

// Common UIDs for testing
var (
	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestMIFARE1KUID7 is a sample 7-byte MIFARE Classic 1K UID
	TestMIFARE1KUID7 = []byte{0x04, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F}
)

// Errors returned by VirtualCard
var (
	ErrNoCard           = errors.New("no card in field")
	ErrNotSelected      = errors.New("card not selected")
	ErrNotAuthenticated = errors.New("sector not authenticated")
	ErrKeyRejected      = errors.New("key rejected")
	ErrInjected         = errors.New("injected fault")
)

// VirtualCard simulates a MIFARE Classic 1K card in front of a reader and
// implements rfidbox.Transceiver. Faults can be injected per sector or block.
type VirtualCard struct {
	calls      []string
	UID        []byte
	memory     [rfidbox.TotalBlocks][rfidbox.BlockSize]byte
	authSector int
	mu         sync.Mutex

	// FailSelect makes SelectCard fail.
	FailSelect bool
	// FailAuthSector makes authentication of that sector fail (-1 disables).
	FailAuthSector int
	// FailReadBlock makes reading that block fail (-1 disables).
	FailReadBlock int
	// FailWriteBlock makes writing that block fail (-1 disables).
	FailWriteBlock int

	SAK      byte
	present  bool
	selected bool
}

// NewVirtualMIFARE1K creates a blank card with factory keys, placed in the field.
func NewVirtualMIFARE1K(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestMIFARE1KUID
	}
	card := &VirtualCard{
		UID:            append([]byte(nil), uid...),
		SAK:            rfidbox.SAKClassic1K,
		present:        true,
		authSector:     -1,
		FailAuthSector: -1,
		FailReadBlock:  -1,
		FailWriteBlock: -1,
	}

	// Block 0: UID and manufacturer data
	copy(card.memory[0][:], card.UID)

	trailer := rfidbox.FactorySectorKey().Trailer()
	for sector := 0; sector < rfidbox.TotalBlocks/rfidbox.SectorSize; sector++ {
		card.memory[rfidbox.TrailerOf(sector)] = trailer
	}
	return card
}

// NewVirtualCardWithSecret creates a card that already holds secret, as if
// written by Protocol.Write.
func NewVirtualCardWithSecret(uid []byte, secret string) *VirtualCard {
	card := NewVirtualMIFARE1K(uid)
	card.SetPayload([]byte(secret + "\x00"))
	return card
}

// SetPayload stores raw bytes across the data blocks, bypassing authentication.
func (v *VirtualCard) SetPayload(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	layout := rfidbox.DefaultLayout()
	for i := 0; i < layout.Len() && i*rfidbox.BlockSize < len(data); i++ {
		var chunk [rfidbox.BlockSize]byte
		copy(chunk[:], data[i*rfidbox.BlockSize:])
		v.memory[layout.Block(i)] = chunk
	}
}

// SetSectorKey replaces key A and key B of a sector trailer.
func (v *VirtualCard) SetSectorKey(sector int, key [rfidbox.KeySize]byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t := &v.memory[rfidbox.TrailerOf(sector)]
	copy(t[0:6], key[:])
	copy(t[10:16], key[:])
}

// Block returns a copy of a block's content.
func (v *VirtualCard) Block(block int) [rfidbox.BlockSize]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.memory[block]
}

// FillBlock sets every byte of a block to b.
func (v *VirtualCard) FillBlock(block int, b byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.memory[block] {
		v.memory[block][i] = b
	}
}

// Calls returns the log of transceiver primitives invoked so far.
func (v *VirtualCard) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

// CountCalls returns how many logged calls start with prefix.
func (v *VirtualCard) CountCalls(prefix string) int {
	n := 0
	for _, c := range v.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// Remove takes the card out of the field.
func (v *VirtualCard) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = false
	v.selected = false
	v.authSector = -1
}

// Insert places the card in the field.
func (v *VirtualCard) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = true
}

// Present reports whether the card is in the field.
func (v *VirtualCard) Present() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.present
}

func (v *VirtualCard) record(format string, args ...any) {
	v.calls = append(v.calls, fmt.Sprintf(format, args...))
}

// Detect reports card presence
func (v *VirtualCard) Detect(_ context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("detect")
	return v.present, nil
}

// SelectCard selects the card
func (v *VirtualCard) SelectCard(_ context.Context) (rfidbox.Card, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("select")
	if !v.present {
		return rfidbox.Card{}, ErrNoCard
	}
	if v.FailSelect {
		return rfidbox.Card{}, ErrInjected
	}
	v.selected = true
	v.authSector = -1
	return rfidbox.Card{UID: append(rfidbox.UID(nil), v.UID...), SAK: v.SAK}, nil
}

// Authenticate checks key against the sector trailer
func (v *VirtualCard) Authenticate(_ context.Context, trailerBlock int, keyType rfidbox.KeyType, key []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	sector := rfidbox.SectorOf(trailerBlock)
	v.record("auth %d", sector)

	if err := v.checkSelected(); err != nil {
		return err
	}
	v.authSector = -1
	if !rfidbox.IsTrailer(trailerBlock) || trailerBlock >= rfidbox.TotalBlocks {
		return fmt.Errorf("block %d is not a sector trailer", trailerBlock)
	}
	if sector == v.FailAuthSector {
		return ErrInjected
	}

	trailer := v.memory[trailerBlock]
	stored := trailer[0:6]
	if keyType == rfidbox.KeyB {
		stored = trailer[10:16]
	}
	if !bytes.Equal(stored, key) {
		return ErrKeyRejected
	}
	v.authSector = sector
	return nil
}

// ReadBlock reads an authenticated block
func (v *VirtualCard) ReadBlock(_ context.Context, block int) ([rfidbox.BlockSize]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("read %d", block)

	if err := v.checkAccess(block); err != nil {
		return [rfidbox.BlockSize]byte{}, err
	}
	if block == v.FailReadBlock {
		return [rfidbox.BlockSize]byte{}, ErrInjected
	}
	return v.memory[block], nil
}

// WriteBlock writes an authenticated block
func (v *VirtualCard) WriteBlock(_ context.Context, block int, data [rfidbox.BlockSize]byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("write %d", block)

	if err := v.checkAccess(block); err != nil {
		return err
	}
	if block == 0 {
		return errors.New("cannot write to manufacturer block")
	}
	if block == v.FailWriteBlock {
		return ErrInjected
	}
	v.memory[block] = data
	return nil
}

// Halt deselects the card
func (v *VirtualCard) Halt(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("halt")
	v.selected = false
	v.authSector = -1
	return nil
}

func (v *VirtualCard) checkSelected() error {
	if !v.present {
		return ErrNoCard
	}
	if !v.selected {
		return ErrNotSelected
	}
	return nil
}

func (v *VirtualCard) checkAccess(block int) error {
	if err := v.checkSelected(); err != nil {
		return err
	}
	if block < 0 || block >= rfidbox.TotalBlocks {
		return fmt.Errorf("block %d out of range", block)
	}
	if rfidbox.SectorOf(block) != v.authSector {
		return fmt.Errorf("%w: sector %d (block %d)", ErrNotAuthenticated, rfidbox.SectorOf(block), block)
	}
	return nil
}

var _ rfidbox.Transceiver = (*VirtualCard)(nil)
