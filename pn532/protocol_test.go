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
	"testing"

	"github.com/ZaparooProject/go-rfidbox"
	testutil "github.com/ZaparooProject/go-rfidbox/internal/testing"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReaderProtocol(t *testing.T, card *testutil.VirtualCard, key rfidbox.SectorKey) (*rfidbox.Protocol, *cardReader, *MockTransport) {
	t.Helper()
	reader, mock := newCardReader(card)
	dev := newTestDevice(t, mock)
	require.NoError(t, dev.Init(context.Background()))

	log, _ := test.NewNullLogger()
	return rfidbox.NewProtocol(dev, key, rfidbox.WithLogger(log)), reader, mock
}

func TestProtocolOverDevice_RoundTrip(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(testutil.TestMIFARE1KUID7)
	proto, _, mock := newReaderProtocol(t, card, rfidbox.FactorySectorKey())
	ctx := context.Background()

	secret := "The quick brown fox jumps over the lazy dog, twice over."
	_, err := proto.Write(ctx, secret)
	require.NoError(t, err)

	_, err = proto.Validate(ctx, secret)
	require.NoError(t, err)

	_, err = proto.Validate(ctx, secret+"!")
	require.ErrorIs(t, err, rfidbox.ErrValidation)

	// every transfer releases the card
	assert.Equal(t, 3, mock.CallCount(cmdInRelease))
}

func TestProtocolOverDevice_WrongKey(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualCardWithSecret(nil, "Hello World")
	key := rfidbox.SectorKey{Key: [6]byte{1, 2, 3, 4, 5, 6}, Access: rfidbox.DefaultAccessBits, Type: rfidbox.KeyA}
	proto, _, _ := newReaderProtocol(t, card, key)

	_, _, err := proto.Read(context.Background())
	require.ErrorIs(t, err, rfidbox.ErrAuthentication)
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, rfidbox.ClassAuthentication, rfidbox.ClassOf(err))
	assert.Equal(t, 7, rfidbox.BlockOf(err))
	assert.Equal(t, 0, card.CountCalls("read"))
}

func TestProtocolOverDevice_NoCard(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	card.Remove()
	proto, _, _ := newReaderProtocol(t, card, rfidbox.FactorySectorKey())

	_, err := proto.Identify(context.Background())
	require.ErrorIs(t, err, rfidbox.ErrSelection)
	require.ErrorIs(t, err, ErrNoCard)
}

func TestProtocolOverDevice_TransientLinkErrors(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualCardWithSecret(nil, "Ciao Mondo")
	proto, reader, _ := newReaderProtocol(t, card, rfidbox.FactorySectorKey())

	// two lost ACKs are absorbed by the device retries
	reader.failNext(2, NewNoACKError("waitAck", "mock"))
	got, _, err := proto.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ciao Mondo", got)
}
