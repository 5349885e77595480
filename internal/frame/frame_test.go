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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	got, err := Build(0x14, []byte{0x01, 0x14, 0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x05, 0xFB, 0xD4, 0x14, 0x01, 0x14, 0x01, 0x02, 0x00}, got)

	got, err = Build(0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00}, got)

	_, err = Build(0x40, make([]byte, 254))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestParse(t *testing.T) {
	t.Parallel()
	// GetFirmwareVersion response: IC 0x32, v1.6, support 0x07
	firmware := []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE8, 0x00}

	tests := []struct {
		wantErr error
		name    string
		in      []byte
		want    []byte
		wantN   int
	}{
		{
			name:  "firmware version",
			in:    firmware,
			want:  []byte{0x03, 0x32, 0x01, 0x06, 0x07},
			wantN: 12,
		},
		{
			name:  "leading garbage",
			in:    append([]byte{0x01, 0x00}, firmware...),
			want:  []byte{0x03, 0x32, 0x01, 0x06, 0x07},
			wantN: 14,
		},
		{
			name:    "truncated",
			in:      firmware[:9],
			wantErr: ErrShortFrame,
		},
		{
			name:    "too short for start code",
			in:      []byte{0x00},
			wantErr: ErrShortFrame,
		},
		{
			name:    "no start code",
			in:      []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
			wantErr: ErrNoStartCode,
		},
		{
			name:    "bad length checksum",
			in:      []byte{0x00, 0x00, 0xFF, 0x06, 0xFB, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE8, 0x00},
			wantErr: ErrLengthChecksum,
		},
		{
			name:    "bad data checksum",
			in:      []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE9, 0x00},
			wantErr: ErrDataChecksum,
		},
		{
			name:    "syntax error frame",
			in:      []byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00},
			wantErr: ErrApplicationError,
		},
		{
			name:    "host frame",
			in:      []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00},
			wantErr: ErrUnexpectedTFI,
		},
		{
			name:    "ack",
			in:      AckFrame,
			wantErr: ErrAckFrame,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, n, err := Parse(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantN, n)
		})
	}
}

func TestParse_BuildRoundTrip(t *testing.T) {
	t.Parallel()
	host, err := Build(0x40, []byte{0x01, 0x30, 0x04})
	require.NoError(t, err)

	// Flip the direction byte and fix the checksum to obtain a device frame.
	device := append([]byte(nil), host...)
	device[5] = Pn532ToHost
	device[len(device)-2] = CalculateDataChecksum(Pn532ToHost, device[6:len(device)-2])

	got, _, err := Parse(device)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x40, 0x01, 0x30, 0x04}, got)
}

func TestIsAck(t *testing.T) {
	t.Parallel()
	assert.True(t, IsAck(AckFrame))
	assert.True(t, IsAck(append([]byte{0x00, 0x00}, AckFrame...)))
	assert.False(t, IsAck(NackFrame))
	assert.False(t, IsAck([]byte{0x01, 0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}))
	assert.False(t, IsAck(nil))
}
