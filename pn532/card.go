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
	"fmt"

	"github.com/ZaparooProject/go-rfidbox"
	"github.com/sirupsen/logrus"
)

// listedTarget is the card activated by the last InListPassiveTarget.
type listedTarget struct {
	card rfidbox.Card
	// consumed is set once SelectCard handed the card out
	consumed bool
}

// Detect lists one ISO14443A target. A card found is kept activated for the
// following SelectCard.
func (d *Device) Detect(ctx context.Context) (bool, error) {
	card, found, err := d.listPassiveTarget(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		d.target = nil
		return false, nil
	}
	d.target = &listedTarget{card: card}
	return true, nil
}

// SelectCard returns the card activated by Detect, or lists the field again.
func (d *Device) SelectCard(ctx context.Context) (rfidbox.Card, error) {
	if d.target != nil && !d.target.consumed {
		d.target.consumed = true
		return d.target.card, nil
	}

	card, found, err := d.listPassiveTarget(ctx)
	if err != nil {
		return rfidbox.Card{}, err
	}
	if !found {
		d.target = nil
		return rfidbox.Card{}, ErrNoCard
	}
	d.target = &listedTarget{card: card, consumed: true}
	return card, nil
}

// Authenticate runs MIFARE Classic authentication for the sector holding
// trailerBlock.
func (d *Device) Authenticate(ctx context.Context, trailerBlock int, keyType rfidbox.KeyType, key []byte) error {
	if d.target == nil {
		return ErrNoCard
	}
	if len(key) != rfidbox.KeySize {
		return fmt.Errorf("%w: key of %d bytes", ErrInvalidParameter, len(key))
	}
	if keyType != rfidbox.KeyA && keyType != rfidbox.KeyB {
		return fmt.Errorf("%w: key type %v", ErrInvalidParameter, keyType)
	}
	if err := checkBlock(trailerBlock); err != nil {
		return err
	}

	// cmd, block, key, last 4 bytes of the UID
	uid := d.target.card.UID
	if len(uid) < 4 {
		return fmt.Errorf("%w: UID of %d bytes", ErrInvalidParameter, len(uid))
	}
	data := make([]byte, 0, 2+rfidbox.KeySize+4)
	data = append(data, mifareCmdAuth+byte(keyType), byte(trailerBlock))
	data = append(data, key...)
	data = append(data, uid[len(uid)-4:]...)
	defer clear(data)

	if _, err := d.dataExchange(ctx, data); err != nil {
		return fmt.Errorf("authenticate block %d: %w", trailerBlock, err)
	}
	return nil
}

// ReadBlock reads one 16-byte block.
func (d *Device) ReadBlock(ctx context.Context, block int) ([rfidbox.BlockSize]byte, error) {
	var out [rfidbox.BlockSize]byte
	if d.target == nil {
		return out, ErrNoCard
	}
	if err := checkBlock(block); err != nil {
		return out, err
	}

	resp, err := d.dataExchange(ctx, []byte{mifareCmdRead, byte(block)})
	if err != nil {
		return out, fmt.Errorf("read block %d: %w", block, err)
	}
	if len(resp) < rfidbox.BlockSize {
		return out, fmt.Errorf("%w: block %d returned %d bytes", ErrInvalidResponse, block, len(resp))
	}
	copy(out[:], resp)
	return out, nil
}

// WriteBlock writes one 16-byte block.
func (d *Device) WriteBlock(ctx context.Context, block int, data [rfidbox.BlockSize]byte) error {
	if d.target == nil {
		return ErrNoCard
	}
	if err := checkBlock(block); err != nil {
		return err
	}
	if block == 0 {
		return fmt.Errorf("%w: block 0 is the manufacturer block", ErrInvalidParameter)
	}

	args := make([]byte, 0, 2+rfidbox.BlockSize)
	args = append(args, mifareCmdWrite, byte(block))
	args = append(args, data[:]...)
	if _, err := d.dataExchange(ctx, args); err != nil {
		return fmt.Errorf("write block %d: %w", block, err)
	}
	return nil
}

// Halt releases the target. Releasing when no card is listed is a no-op.
func (d *Device) Halt(ctx context.Context) error {
	if d.target == nil {
		return nil
	}
	d.target = nil

	resp, err := d.command(ctx, cmdInRelease, []byte{targetNumber})
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	if len(resp) > 0 && resp[0]&statusMask != StatusOK {
		return &CardError{Op: "InRelease", Status: resp[0] & statusMask}
	}
	return nil
}

// listPassiveTarget lists at most one 106 kbps type A target.
func (d *Device) listPassiveTarget(ctx context.Context) (rfidbox.Card, bool, error) {
	resp, err := d.command(ctx, cmdInListPassiveTarget, []byte{0x01, brTypeA106})
	if err != nil {
		return rfidbox.Card{}, false, fmt.Errorf("list passive target: %w", err)
	}
	card, found, err := parseTargetData(resp)
	if err != nil {
		return rfidbox.Card{}, false, err
	}
	if found {
		d.log.WithFields(logrus.Fields{
			"uid": card.UID.String(),
			"sak": fmt.Sprintf("0x%02X", card.SAK),
		}).Debug("card listed")
	}
	return card, found, nil
}

// parseTargetData decodes NbTg | Tg | SENS_RES(2) | SEL_RES | NFCIDLength | NFCID.
func parseTargetData(resp []byte) (rfidbox.Card, bool, error) {
	if len(resp) == 0 {
		return rfidbox.Card{}, false, fmt.Errorf("%w: empty target list", ErrInvalidResponse)
	}
	if resp[0] == 0 {
		return rfidbox.Card{}, false, nil
	}
	if len(resp) < 6 {
		return rfidbox.Card{}, false, fmt.Errorf("%w: target data of %d bytes", ErrInvalidResponse, len(resp))
	}
	uidLen := int(resp[5])
	if uidLen == 0 || len(resp) < 6+uidLen {
		return rfidbox.Card{}, false, fmt.Errorf("%w: UID length %d", ErrInvalidResponse, uidLen)
	}
	card := rfidbox.Card{
		SAK: resp[4],
		UID: append(rfidbox.UID(nil), resp[6:6+uidLen]...),
	}
	return card, true, nil
}

// dataExchange tunnels data to the listed target and returns the card's
// answer after the status byte.
func (d *Device) dataExchange(ctx context.Context, data []byte) ([]byte, error) {
	args := make([]byte, 0, 1+len(data))
	args = append(args, targetNumber)
	args = append(args, data...)
	defer clear(args)

	resp, err := d.command(ctx, cmdInDataExchange, args)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: missing status", ErrInvalidResponse)
	}
	if status := resp[0] & statusMask; status != StatusOK {
		cerr := &CardError{Op: "InDataExchange", Status: status}
		if errors.Is(cerr, ErrAuthFailed) {
			// the card halts after a failed authentication
			d.target = nil
		}
		return nil, cerr
	}
	return resp[1:], nil
}

func checkBlock(block int) error {
	if block < 0 || block >= rfidbox.TotalBlocks {
		return fmt.Errorf("%w: block %d", ErrInvalidParameter, block)
	}
	return nil
}

var _ rfidbox.Transceiver = (*Device)(nil)
