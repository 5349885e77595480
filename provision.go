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

	"github.com/sirupsen/logrus"
)

// ProvisionKeys rewrites the trailer of every data sector so that the
// sector answers to the protocol's key. Each trailer is authenticated with
// from before being replaced. Sectors already rewritten stay rewritten when a
// later sector fails.
func (p *Protocol) ProvisionKeys(ctx context.Context, from SectorKey) (*Session, error) {
	sess, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer p.halt(ctx, sess)

	trailer := p.key.Trailer()
	defer clear(trailer[:])

	for _, sector := range p.layout.Sectors() {
		block := TrailerOf(sector)
		if err := sess.ensureSector(ctx, p.tr, from, block); err != nil {
			return sess, err
		}
		if err := p.tr.WriteBlock(ctx, block, trailer); err != nil {
			return sess, newTransferError("provision", ClassWrite, sess, block, err)
		}
		sess.advance(block, 0)
		p.log.WithFields(logrus.Fields{"sector": sector, "block": block}).Debug("sector trailer rewritten")
	}

	p.log.WithFields(logrus.Fields{
		"uid":     sess.Card().UID.String(),
		"sectors": len(sess.sectors),
	}).Info("card keys provisioned")
	return sess, nil
}
