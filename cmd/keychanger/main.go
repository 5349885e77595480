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

// Command keychanger rewrites the sector trailers of a card so that every
// data sector answers to the key of the rfidbox configuration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-rfidbox"
	"github.com/ZaparooProject/go-rfidbox/config"
	"github.com/ZaparooProject/go-rfidbox/detection"
	"github.com/ZaparooProject/go-rfidbox/pn532"
)

const pollInterval = 100 * time.Millisecond

type flags struct {
	configPath *string
	timeout    *time.Duration
	restore    *bool
	debug      *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "/etc/rfidbox/config.yaml", "Configuration file"),
		timeout:    flag.Duration("timeout", 30*time.Second, "How long to wait for a card"),
		restore: flag.Bool("restore", false,
			"Rewrite the configured key back to the default key instead"),
		debug: flag.Bool("debug", false, "Enable debug logging"),
	}
	flag.Parse()
	return f
}

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

// keys returns the key the card answers to now and the key it is given.
func keys(cfg *config.Config, restore bool) (from, to rfidbox.SectorKey, err error) {
	if from, err = cfg.Card.SourceKey(); err != nil {
		return from, to, err
	}
	if to, err = cfg.Card.SectorKey(); err != nil {
		return from, to, err
	}
	if restore {
		from, to = to, from
	}
	return from, to, nil
}

func waitForCard(ctx context.Context, dev *pn532.Device) error {
	for {
		present, err := dev.Detect(ctx)
		if err != nil && !errors.Is(err, pn532.ErrNoCard) {
			return err
		}
		if present {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("no card: %w", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func run() int {
	f := parseFlags()

	log := logrus.New()
	if *f.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(*f.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	from, to, err := keys(cfg, *f.restore)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if _, err := host.Init(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialize periph host drivers: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *f.timeout)
	defer cancel()

	opts := detection.DefaultOptions()
	opts.IgnorePaths = cfg.Reader.IgnorePaths
	tr, err := detection.Connect(ctx, cfg.Reader.Transport, cfg.Reader.Device, opts, log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to open reader: %v\n", err)
		return 1
	}
	dev, err := pn532.New(tr, pn532.WithTimeout(cfg.Reader.Timeout()), pn532.WithLogger(log))
	if err != nil {
		_ = tr.Close()
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = dev.Close() }()

	if err := dev.Init(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialize reader: %v\n", err)
		return 1
	}

	_, _ = fmt.Println("Place the card on the reader...")
	if err := waitForCard(ctx, dev); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	proto := rfidbox.NewProtocol(dev, to, rfidbox.WithLogger(log))
	sess, err := proto.ProvisionKeys(ctx, from)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "provisioning failed: %v\n", err)
		if sess != nil {
			_, _ = fmt.Fprintf(os.Stderr, "sectors reached: %v\n", sess.AuthenticatedSectors())
		}
		return 1
	}

	_, _ = fmt.Printf("Card %s: %d sectors rewritten\n", sess.Card().UID, len(sess.AuthenticatedSectors()))
	return 0
}
