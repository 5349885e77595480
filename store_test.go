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

package rfidbox_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-rfidbox"
	"github.com/ZaparooProject/go-rfidbox/nvstore"
)

// flakyNV fails reads or writes at one address.
type flakyNV struct {
	*nvstore.Memory
	failRead  int
	failWrite int
	syncs     int
}

func newFlakyNV(capacity int) *flakyNV {
	return &flakyNV{Memory: nvstore.NewMemory(capacity), failRead: -1, failWrite: -1}
}

func (f *flakyNV) Read(addr int) (byte, error) {
	if addr == f.failRead {
		return 0, errors.New("bus error")
	}
	return f.Memory.Read(addr)
}

func (f *flakyNV) Write(addr int, value byte) error {
	if addr == f.failWrite {
		return errors.New("bus error")
	}
	return f.Memory.Write(addr, value)
}

func (f *flakyNV) Sync() error {
	f.syncs++
	return nil
}

func newStore(t *testing.T, nv rfidbox.NVStore) (*rfidbox.SecretStore, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return rfidbox.NewSecretStore(nv, rfidbox.WithLogger(logger)), hook
}

func TestSecretStore_RoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		secret   string
		capacity int
	}{
		{name: "short", secret: "Ciao Mondo", capacity: 512},
		{name: "empty", secret: "", capacity: 512},
		{name: "max length", secret: strings.Repeat("k", rfidbox.MaxSecretLength), capacity: 512},
		{name: "fills small store", secret: "abcdefg", capacity: 8},
		{name: "all printable", secret: printableRange(), capacity: 512},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, _ := newStore(t, nvstore.NewMemory(tt.capacity))

			require.NoError(t, store.Save(tt.secret))
			got, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, tt.secret, got)
		})
	}
}

func printableRange() string {
	var sb strings.Builder
	for c := byte(32); c <= 126; c++ {
		sb.WriteByte(c)
	}
	return sb.String()
}

func TestSecretStore_SaveReplacesLongerSecret(t *testing.T) {
	t.Parallel()
	mem := nvstore.NewMemory(64)
	store, _ := newStore(t, mem)

	require.NoError(t, store.Save("a much longer secret"))
	require.NoError(t, store.Save("short"))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "short", got)
	for _, b := range mem.Bytes()[5:] {
		assert.Zero(t, b, "old bytes are cleared")
	}
}

func TestSecretStore_OverflowLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	t.Run("capacity", func(t *testing.T) {
		t.Parallel()
		mem := nvstore.NewMemory(16)
		store, _ := newStore(t, mem)
		require.NoError(t, store.Save("keep me"))
		before := mem.Bytes()

		err := store.Save(strings.Repeat("x", 16))
		require.ErrorIs(t, err, rfidbox.ErrStorageOverflow)
		assert.Equal(t, rfidbox.ClassStorageOverflow, rfidbox.ClassOf(err))
		assert.Equal(t, before, mem.Bytes())

		got, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "keep me", got)
	})

	t.Run("load limit", func(t *testing.T) {
		t.Parallel()
		mem := nvstore.NewMemory(1024)
		store, _ := newStore(t, mem)
		require.NoError(t, store.Save("keep me"))

		err := store.Save(strings.Repeat("x", rfidbox.MaxSecretLength+1))
		require.ErrorIs(t, err, rfidbox.ErrStorageOverflow)

		got, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "keep me", got)
	})
}

func TestSecretStore_LoadStopsAtCorruption(t *testing.T) {
	t.Parallel()
	mem := nvstore.NewMemory(64)
	for i, c := range []byte("Hel") {
		require.NoError(t, mem.Write(i, c))
	}
	require.NoError(t, mem.Write(3, 0x07))
	require.NoError(t, mem.Write(4, 'o'))

	store, hook := newStore(t, mem)
	got, err := store.Load()

	assert.Equal(t, "Hel", got)
	require.ErrorIs(t, err, rfidbox.ErrStorageCorruption)
	assert.Equal(t, rfidbox.ClassStorageCorruption, rfidbox.ClassOf(err))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestSecretStore_LoadErasedEEPROM(t *testing.T) {
	t.Parallel()
	mem := nvstore.NewMemory(32)
	for i := 0; i < mem.Capacity(); i++ {
		require.NoError(t, mem.Write(i, 0xFF))
	}
	store, _ := newStore(t, mem)

	got, err := store.Load()
	assert.Empty(t, got)
	require.ErrorIs(t, err, rfidbox.ErrStorageCorruption)
}

func TestSecretStore_LoadWithoutTerminator(t *testing.T) {
	t.Parallel()
	mem := nvstore.NewMemory(8)
	for i, c := range []byte("ABCDEFGH") {
		require.NoError(t, mem.Write(i, c))
	}
	store, _ := newStore(t, mem)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", got)
}

func TestSecretStore_LoadCapsAtMaxLength(t *testing.T) {
	t.Parallel()
	mem := nvstore.NewMemory(1024)
	for i := 0; i < mem.Capacity(); i++ {
		require.NoError(t, mem.Write(i, 'z'))
	}
	store, _ := newStore(t, mem)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, got, rfidbox.MaxSecretLength)
}

func TestSecretStore_SubstitutesNonPrintable(t *testing.T) {
	t.Parallel()
	store, hook := newStore(t, nvstore.NewMemory(64))

	require.NoError(t, store.Save("a\tb\x00c"))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a?b?c", got)

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestSecretStore_SyncsAndReportsIOErrors(t *testing.T) {
	t.Parallel()

	nv := newFlakyNV(32)
	store, _ := newStore(t, nv)
	require.NoError(t, store.Save("ok"))
	assert.Equal(t, 1, nv.syncs)

	nv.failWrite = 1
	require.Error(t, store.Save("fails"))

	nv.failWrite = -1
	require.NoError(t, store.Save("readable"))
	nv.failRead = 4
	got, err := store.Load()
	require.Error(t, err)
	assert.Equal(t, "read", got)
}
