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
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ZaparooProject/go-rfidbox"
)

// File is a store image kept in a memory-mapped file, for boards that keep
// configuration on an SD card or flash filesystem.
type File struct {
	f    *os.File
	data []byte
	mu   sync.Mutex
}

// OpenFile maps the image at path, creating and zero-filling it up to
// capacity when needed.
func OpenFile(path string, capacity int) (*File, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("file store: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("file store: stat %s: %w", path, err)
	}
	if info.Size() < int64(capacity) {
		if err := f.Truncate(int64(capacity)); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("file store: grow %s: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("file store: mmap %s: %w", path, err)
	}
	return &File{f: f, data: data}, nil
}

// Capacity returns the mapped size in bytes.
func (s *File) Capacity() int {
	return len(s.data)
}

func (s *File) Read(addr int) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return 0, ErrClosed
	}
	if err := checkAddr(addr, len(s.data)); err != nil {
		return 0, err
	}
	return s.data[addr], nil
}

func (s *File) Write(addr int, value byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return ErrClosed
	}
	if err := checkAddr(addr, len(s.data)); err != nil {
		return err
	}
	s.data[addr] = value
	return nil
}

// Sync flushes the mapping to the file.
func (s *File) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return ErrClosed
	}
	if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("file store: msync: %w", err)
	}
	return nil
}

// Close flushes and unmaps the image.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil
	}
	syncErr := unix.Msync(s.data, unix.MS_SYNC)
	unmapErr := unix.Munmap(s.data)
	s.data = nil
	return errors.Join(syncErr, unmapErr, s.f.Close())
}

var (
	_ rfidbox.NVStore = (*File)(nil)
	_ rfidbox.Syncer  = (*File)(nil)
)
