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

package nvstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/ZaparooProject/go-rfidbox"
)

var imageKey = []byte("rfidbox/nv/image")

// Badger keeps the store image in a badger database. Writes go to a cached
// image and reach the database on Sync, which SecretStore.Save calls once
// per save.
type Badger struct {
	db    *badger.DB
	log   logrus.FieldLogger
	image []byte
	mu    sync.Mutex
	dirty bool
}

// OpenBadger opens or creates the database at path.
func OpenBadger(path string, capacity int, log logrus.FieldLogger) (*Badger, error) {
	if path == "" {
		return nil, errors.New("badger store: path required")
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	return openBadger(opts, capacity, log)
}

// OpenBadgerInMemory opens a database that lives only in RAM.
func OpenBadgerInMemory(capacity int, log logrus.FieldLogger) (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, capacity, log)
}

func openBadger(opts badger.Options, capacity int, log logrus.FieldLogger) (*Badger, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger store: open: %w", err)
	}

	b := &Badger{db: db, log: log, image: make([]byte, capacity)}
	if err := b.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Badger) load() error {
	return b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(imageKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			b.log.Debug("badger store: no image, starting blank")
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger store: load image: %w", err)
		}
		stored, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("badger store: copy image: %w", err)
		}
		if len(stored) != len(b.image) {
			b.log.WithFields(logrus.Fields{
				"stored":   len(stored),
				"capacity": len(b.image),
			}).Warn("badger store: image size differs from capacity")
		}
		copy(b.image, stored)
		return nil
	})
}

// Capacity returns the image size in bytes.
func (b *Badger) Capacity() int {
	return len(b.image)
}

func (b *Badger) Read(addr int) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return 0, ErrClosed
	}
	if err := checkAddr(addr, len(b.image)); err != nil {
		return 0, err
	}
	return b.image[addr], nil
}

func (b *Badger) Write(addr int, value byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return ErrClosed
	}
	if err := checkAddr(addr, len(b.image)); err != nil {
		return err
	}
	if b.image[addr] != value {
		b.image[addr] = value
		b.dirty = true
	}
	return nil
}

// Sync persists the image if it changed since the last Sync.
func (b *Badger) Sync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.syncLocked()
}

func (b *Badger) syncLocked() error {
	if b.db == nil {
		return ErrClosed
	}
	if !b.dirty {
		return nil
	}
	image := append([]byte(nil), b.image...)
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(imageKey, image)
	})
	if err != nil {
		return fmt.Errorf("badger store: persist image: %w", err)
	}
	b.dirty = false
	b.log.WithField("bytes", len(image)).Debug("badger store: image persisted")
	return nil
}

// Close persists pending writes and closes the database.
func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	syncErr := b.syncLocked()
	closeErr := b.db.Close()
	b.db = nil
	return errors.Join(syncErr, closeErr)
}

var (
	_ rfidbox.NVStore = (*Badger)(nil)
	_ rfidbox.Syncer  = (*Badger)(nil)
)
