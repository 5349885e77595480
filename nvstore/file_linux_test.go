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

//go:build linux

package nvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "secret.img")

	f, err := OpenFile(path, 256)
	require.NoError(t, err)
	exerciseStore(t, f)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	f, err = OpenFile(path, 256)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	b, err := f.Read(255)
	require.NoError(t, err)
	assert.Equal(t, byte('Z'), b)
}

func TestFile_Closed(t *testing.T) {
	t.Parallel()
	f, err := OpenFile(filepath.Join(t.TempDir(), "img"), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, f.Capacity())
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.Read(0)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, f.Sync(), ErrClosed)
}
