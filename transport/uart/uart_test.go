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

package uart

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/go-rfidbox/internal/frame"
	"github.com/ZaparooProject/go-rfidbox/pn532"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	firmwareCmd   = []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00}
	firmwareFrame = []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE8, 0x00}
)

// fakePort delivers scripted replies, one chunk per Read, after each Write.
type fakePort struct {
	replies   [][][]byte
	readQueue [][]byte
	writes    [][]byte
	readErr   error
	mu        sync.Mutex
	resets    int
	closed    bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, append([]byte(nil), b...))
	if len(p.replies) > 0 {
		p.readQueue = append(p.readQueue, p.replies[0]...)
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.readQueue) == 0 {
		return 0, nil
	}
	n := copy(b, p.readQueue[0])
	p.readQueue = p.readQueue[1:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (*fakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
	return nil
}

func newTestTransport(t *testing.T, p *fakePort) *Transport {
	t.Helper()
	tr, err := newTransport(p, "/dev/ttyTEST")
	require.NoError(t, err)
	require.NoError(t, tr.SetTimeout(50*time.Millisecond))
	return tr
}

func TestSendCommand_WakesUpOnce(t *testing.T) {
	t.Parallel()

	p := &fakePort{replies: [][][]byte{
		{frame.AckFrame, firmwareFrame[:5], firmwareFrame[5:]},
		{append(append([]byte(nil), frame.AckFrame...), firmwareFrame...)},
	}}
	tr := newTestTransport(t, p)

	resp, err := tr.SendCommand(context.Background(), 0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x32, 0x01, 0x06, 0x07}, resp)

	resp, err = tr.SendCommand(context.Background(), 0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), resp[0])

	require.Len(t, p.writes, 2)
	assert.True(t, bytes.HasPrefix(p.writes[0], wakeup))
	assert.True(t, bytes.HasSuffix(p.writes[0], firmwareCmd))
	assert.Equal(t, firmwareCmd, p.writes[1])
	assert.Equal(t, 2, p.resets)
}

func TestSendCommand_NackCorruptedFrame(t *testing.T) {
	t.Parallel()

	corrupted := append([]byte(nil), firmwareFrame...)
	corrupted[11] ^= 0xFF
	p := &fakePort{replies: [][][]byte{
		{frame.AckFrame, corrupted},
		{firmwareFrame},
	}}
	tr := newTestTransport(t, p)

	resp, err := tr.SendCommand(context.Background(), 0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), resp[0])
	require.Len(t, p.writes, 2)
	assert.Equal(t, frame.NackFrame, p.writes[1])
}

func TestSendCommand_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		port      *fakePort
		wantErr   error
		name      string
		retryable bool
	}{
		{
			name:      "no reply",
			port:      &fakePort{},
			wantErr:   pn532.ErrNoACK,
			retryable: true,
		},
		{
			name:      "nack",
			port:      &fakePort{replies: [][][]byte{{frame.NackFrame}}},
			wantErr:   pn532.ErrNoACK,
			retryable: true,
		},
		{
			name:      "ack only",
			port:      &fakePort{replies: [][][]byte{{frame.AckFrame}}},
			wantErr:   pn532.ErrTransportTimeout,
			retryable: true,
		},
		{
			name: "error frame",
			port: &fakePort{replies: [][][]byte{
				{frame.AckFrame, {0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00}},
			}},
			wantErr: frame.ErrApplicationError,
		},
		{
			name:      "read failure",
			port:      &fakePort{readErr: errors.New("device unplugged")},
			wantErr:   pn532.ErrTransportRead,
			retryable: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTestTransport(t, tt.port)
			_, err := tr.SendCommand(context.Background(), 0x02, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.retryable, pn532.IsRetryable(err))
		})
	}
}

func TestSendCommand_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakePort{}
	tr := newTestTransport(t, p)
	start := time.Now()
	_, err := tr.SendCommand(ctx, 0x02, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
	assert.Empty(t, p.writes)
}

func TestTransportProperties(t *testing.T) {
	t.Parallel()

	p := &fakePort{}
	tr := newTestTransport(t, p)
	assert.Equal(t, pn532.TransportUART, tr.Type())
	assert.True(t, tr.IsConnected())
	require.ErrorIs(t, tr.SetTimeout(-time.Second), pn532.ErrInvalidParameter)

	require.NoError(t, tr.Close())
	assert.True(t, p.closed)
	assert.False(t, tr.IsConnected())
	require.NoError(t, tr.Close())

	_, err := tr.SendCommand(context.Background(), 0x02, nil)
	require.ErrorIs(t, err, pn532.ErrTransportWrite)
}
