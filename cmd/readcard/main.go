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

// Command readcard reads the secret off a card with the configured key and
// reports whether it matches the configured passphrase.
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

type flags struct {
	configPath   *string
	devicePath   *string
	timeout      *time.Duration
	pollInterval *time.Duration
	show         *bool
	debug        *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "/etc/rfidbox/config.yaml", "Configuration file"),
		devicePath: flag.String("device", "",
			"Reader device (e.g. /dev/ttyUSB0 or an I2C bus name). Overrides the configuration."),
		timeout: flag.Duration("timeout", 30*time.Second, "Timeout for card detection"),
		pollInterval: flag.Duration("poll-interval", 100*time.Millisecond,
			"Polling interval for card detection"),
		show:  flag.Bool("show", false, "Print the secret read from the card"),
		debug: flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()
	return f
}

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func connect(ctx context.Context, cfg *config.Config, device string, log logrus.FieldLogger) (*pn532.Device, error) {
	transport, path := cfg.Reader.Transport, cfg.Reader.Device
	if device != "" {
		path = device
		if transport == "auto" {
			transport = detection.TransportUART
		}
	}

	opts := detection.DefaultOptions()
	opts.IgnorePaths = cfg.Reader.IgnorePaths
	tr, err := detection.Connect(ctx, transport, path, opts, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	dev, err := pn532.New(tr, pn532.WithTimeout(cfg.Reader.Timeout()), pn532.WithLogger(log))
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	if err := dev.Init(ctx); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("failed to initialize reader: %w", err)
	}
	return dev, nil
}

func waitForCard(ctx context.Context, dev *pn532.Device, interval time.Duration) error {
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
			return fmt.Errorf("no card detected: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
}

func run() int {
	f := parseFlags()

	log := logrus.New()
	if *f.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*f.configPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	config.Normalize(cfg)

	key, err := cfg.Card.SectorKey()
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

	dev, err := connect(ctx, cfg, *f.devicePath, log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = dev.Close() }()

	if fw, err := dev.FirmwareVersion(ctx); err == nil {
		_, _ = fmt.Printf("Reader: %s\n", fw)
	}

	_, _ = fmt.Printf("Waiting for card (timeout: %s)...\n", *f.timeout)
	if err := waitForCard(ctx, dev, *f.pollInterval); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	proto := rfidbox.NewProtocol(dev, key, rfidbox.WithLogger(log))
	secret, sess, err := proto.Read(ctx)
	if sess != nil {
		card := sess.Card()
		_, _ = fmt.Printf("UID: %s\nSAK: 0x%02X\n", card.UID, card.SAK)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "read failed (%s): %v\n", rfidbox.ClassOf(err), err)
		return 1
	}

	_, _ = fmt.Printf("Secret: %d characters in %d sectors (%s)\n",
		len(secret), len(sess.AuthenticatedSectors()), sess.Elapsed().Round(time.Millisecond))
	if *f.show {
		_, _ = fmt.Printf("  %q\n", secret)
	}

	if cfg.Secret.Passphrase == "" {
		return 0
	}
	if secret != cfg.Secret.Passphrase {
		_, _ = fmt.Println("Card does NOT match the configured passphrase")
		return 1
	}
	_, _ = fmt.Println("Card matches the configured passphrase")
	return 0
}
