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
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	// MaxLoadBytes bounds how much of the store Load scans.
	MaxLoadBytes = 512

	// MaxSecretLength is the longest secret Load returns, and so the
	// longest secret Save accepts.
	MaxSecretLength = 500

	substituteByte = '?'
)

// SecretStore persists the secret as raw printable ASCII from address 0 of
// non-volatile memory, terminated by a zero byte or the end of the store.
type SecretStore struct {
	nv  NVStore
	log logrus.FieldLogger
}

// NewSecretStore creates a store on top of nv.
func NewSecretStore(nv NVStore, opts ...Option) *SecretStore {
	o := applyOptions(opts)
	return &SecretStore{nv: nv, log: o.log}
}

// Capacity returns the size of the underlying memory in bytes.
func (s *SecretStore) Capacity() int {
	return s.nv.Capacity()
}

// Save replaces the stored secret. A secret that does not fit leaves the
// store untouched and returns ErrStorageOverflow. Non-printable bytes are
// stored as '?' instead of failing the save.
func (s *SecretStore) Save(secret string) error {
	size := len(secret)
	capacity := s.nv.Capacity()

	if size >= capacity {
		return fmt.Errorf("%w: %d bytes, max %d", ErrStorageOverflow, size, capacity-1)
	}
	if size > MaxSecretLength {
		return fmt.Errorf("%w: %d bytes, max %d", ErrStorageOverflow, size, MaxSecretLength)
	}

	s.log.WithField("bytes", size).Debug("saving secret")

	for addr := 0; addr < capacity; addr++ {
		if err := s.nv.Write(addr, 0); err != nil {
			return fmt.Errorf("failed to clear address %d: %w", addr, err)
		}
	}

	for i := 0; i < size; i++ {
		c := secret[i]
		if !IsPrintable(c) {
			s.log.WithField("position", i).Warn("non-printable character in secret, replacing with '?'")
			c = substituteByte
		}
		if err := s.nv.Write(i, c); err != nil {
			return fmt.Errorf("failed to write address %d: %w", i, err)
		}
	}

	if size < capacity {
		if err := s.nv.Write(size, 0); err != nil {
			return fmt.Errorf("failed to write terminator at %d: %w", size, err)
		}
	}

	if syncer, ok := s.nv.(Syncer); ok {
		if err := syncer.Sync(); err != nil {
			return fmt.Errorf("failed to sync store: %w", err)
		}
	}

	s.log.WithField("bytes", size).Info("secret saved")
	return nil
}

// Load recovers the stored secret. It stops at the first zero byte, at the
// first non-printable byte, or after MaxSecretLength characters. The prefix
// read so far is always returned; a non-nil error wrapping
// ErrStorageCorruption reports that a corrupt byte ended the read early.
func (s *SecretStore) Load() (string, error) {
	limit := min(s.nv.Capacity(), MaxLoadBytes)
	buf := make([]byte, 0, min(limit, MaxSecretLength))

	for addr := 0; addr < limit; addr++ {
		c, err := s.nv.Read(addr)
		if err != nil {
			return string(buf), fmt.Errorf("failed to read address %d: %w", addr, err)
		}

		if c == 0 {
			break
		}

		if !IsPrintable(c) {
			s.log.WithFields(logrus.Fields{
				"position": addr,
				"bytes":    len(buf),
			}).Warn("non-printable character in store, stopping load")
			return string(buf), fmt.Errorf("%w: byte 0x%02X at address %d", ErrStorageCorruption, c, addr)
		}

		buf = append(buf, c)
		if len(buf) >= MaxSecretLength {
			s.log.WithField("bytes", len(buf)).Debug("load limit reached")
			break
		}
	}

	s.log.WithField("bytes", len(buf)).Debug("secret loaded")
	return string(buf), nil
}
