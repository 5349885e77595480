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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSecret(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateSecret(""))
	require.NoError(t, ValidateSecret(" ~Hello World!"))
	require.Error(t, ValidateSecret("tab\there"))
	require.Error(t, ValidateSecret("nul\x00"))
	require.Error(t, ValidateSecret("del\x7f"))
}

func TestEncodeSecret(t *testing.T) {
	t.Parallel()

	got, err := EncodeSecret("Hi", 720)
	require.NoError(t, err)
	assert.Equal(t, []byte{'H', 'i', 0}, got)

	got, err = EncodeSecret(strings.Repeat("x", 719), 720)
	require.NoError(t, err)
	assert.Len(t, got, 720)

	_, err = EncodeSecret(strings.Repeat("x", 720), 720)
	require.ErrorIs(t, err, ErrCardOverflow)

	_, err = EncodeSecret("bad\x01", 720)
	require.Error(t, err)
}

func TestGenerateSecret(t *testing.T) {
	t.Parallel()
	a, err := GenerateSecret(DefaultSecretLength)
	require.NoError(t, err)
	b, err := GenerateSecret(DefaultSecretLength)
	require.NoError(t, err)

	assert.Len(t, a, DefaultSecretLength)
	assert.NotEqual(t, a, b)
	for i := 0; i < len(a); i++ {
		assert.True(t, strings.IndexByte(secretAlphabet, a[i]) >= 0)
	}

	_, err = GenerateSecret(0)
	require.Error(t, err)
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
