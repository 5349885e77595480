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
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ZaparooProject/go-rfidbox/timer"
)

// Protocol moves the secret between the Secret Store and a MIFARE Classic 1K
// card. Every operation runs synchronously from selection to halt.
//
// A Protocol is not safe for concurrent use; exactly one card is processed
// at a time.
type Protocol struct {
	tr     Transceiver
	log    logrus.FieldLogger
	clock  timer.Clock
	layout Layout
	key    SectorKey
	verify bool
}

// NewProtocol creates a protocol authenticating data sectors with key.
func NewProtocol(tr Transceiver, key SectorKey, opts ...Option) *Protocol {
	o := applyOptions(opts)
	return &Protocol{
		tr:     tr,
		key:    key,
		layout: DefaultLayout(),
		log:    o.log,
		clock:  o.clock,
		verify: o.verifyWrites,
	}
}

// Layout returns the block layout table in use.
func (p *Protocol) Layout() Layout {
	return p.layout
}

// begin selects the card in the field and opens a session for it.
func (p *Protocol) begin(ctx context.Context) (*Session, error) {
	card, err := p.tr.SelectCard(ctx)
	if err != nil {
		return nil, newTransferError("select", ClassSelection, nil, -1, err)
	}
	sess := newSession(card, p.clock)
	if !card.IsClassic1K() {
		p.halt(ctx, sess)
		return nil, newTransferError("select", ClassSelection, sess, -1,
			fmt.Errorf("%w: SAK 0x%02X", ErrIncompatibleCard, card.SAK))
	}
	p.log.WithField("uid", card.UID.String()).Debug("card selected")
	return sess, nil
}

func (p *Protocol) halt(ctx context.Context, sess *Session) {
	if err := p.tr.Halt(ctx); err != nil {
		p.log.WithError(err).WithField("uid", sess.Card().UID.String()).Debug("halt failed")
	}
}

// Identify selects the card in the field and releases it without any block
// access.
func (p *Protocol) Identify(ctx context.Context) (Card, error) {
	sess, err := p.begin(ctx)
	if err != nil {
		return Card{}, err
	}
	p.halt(ctx, sess)
	return sess.Card(), nil
}

// Write stores secret on the card, one 16-byte chunk per data block in
// layout order. Blocks past the end of the secret keep their contents.
// Any failure aborts the whole write.
func (p *Protocol) Write(ctx context.Context, secret string) (*Session, error) {
	payload, err := EncodeSecret(secret, p.layout.Capacity())
	if err != nil {
		return nil, newTransferError("encode", ClassWrite, nil, -1, err)
	}

	sess, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer p.halt(ctx, sess)

	for i := 0; i*BlockSize < len(payload); i++ {
		block := p.layout.Block(i)
		if err := sess.ensureSector(ctx, p.tr, p.key, block); err != nil {
			return sess, err
		}

		var chunk [BlockSize]byte
		n := copy(chunk[:], payload[i*BlockSize:])

		if err := p.tr.WriteBlock(ctx, block, chunk); err != nil {
			return sess, newTransferError("write", ClassWrite, sess, block, err)
		}
		if p.verify {
			if err := p.verifyBlock(ctx, sess, block, chunk); err != nil {
				return sess, err
			}
		}
		sess.advance(block, n)
		p.log.WithFields(logrus.Fields{"block": block, "bytes": n}).Debug("block written")
	}

	p.log.WithFields(logrus.Fields{
		"uid":     sess.Card().UID.String(),
		"bytes":   len(secret),
		"sectors": len(sess.sectors),
	}).Info("secret written to card")
	return sess, nil
}

func (p *Protocol) verifyBlock(ctx context.Context, sess *Session, block int, want [BlockSize]byte) error {
	got, err := p.tr.ReadBlock(ctx, block)
	if err != nil {
		return newTransferError("verify", ClassWrite, sess, block, err)
	}
	if got != want {
		return newTransferError("verify", ClassWrite, sess, block, errors.New("block reads back different"))
	}
	return nil
}

// Read recovers the secret from the card. Reading stops at the first NUL
// byte or after the last data block.
func (p *Protocol) Read(ctx context.Context) (string, *Session, error) {
	sess, err := p.begin(ctx)
	if err != nil {
		return "", nil, err
	}
	defer p.halt(ctx, sess)

	data := make([]byte, 0, p.layout.Capacity())
	for i := 0; i < p.layout.Len(); i++ {
		block := p.layout.Block(i)
		if err := sess.ensureSector(ctx, p.tr, p.key, block); err != nil {
			return "", sess, err
		}

		blockData, err := p.tr.ReadBlock(ctx, block)
		if err != nil {
			return "", sess, newTransferError("read", ClassRead, sess, block, err)
		}

		chunk, foundEnd := blockPayload(blockData)
		data = append(data, chunk...)
		sess.advance(block, len(chunk))
		if foundEnd {
			break
		}
	}

	p.log.WithFields(logrus.Fields{
		"uid":   sess.Card().UID.String(),
		"bytes": len(data),
	}).Debug("secret read from card")
	return string(data), sess, nil
}

// Validate reads the card and compares its secret byte for byte with expected.
func (p *Protocol) Validate(ctx context.Context, expected string) (*Session, error) {
	got, sess, err := p.Read(ctx)
	if err != nil {
		return sess, err
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		return sess, newTransferError("validate", ClassValidation, sess, -1,
			fmt.Errorf("card holds %d bytes, stored secret has %d", len(got), len(expected)))
	}
	p.log.WithField("uid", sess.Card().UID.String()).Info("card validated")
	return sess, nil
}

// blockPayload returns the bytes of a block up to the end-of-data marker and
// whether the marker was found.
func blockPayload(block [BlockSize]byte) ([]byte, bool) {
	end := bytes.IndexByte(block[:], 0)
	if end < 0 {
		return block[:], false
	}
	return block[:end], true
}
