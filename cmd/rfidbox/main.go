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

// Command rfidbox runs the access control box: it validates cards against
// the stored secret, programs cards, and stores a new secret on request.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-rfidbox/config"
	"github.com/ZaparooProject/go-rfidbox/control"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig, debug bool) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	if cfg.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
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

func run() int {
	configPath := flag.String("config", "/etc/rfidbox/config.yaml", "Configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Println(version)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	log := newLogger(cfg.Log, *debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	if _, err := host.Init(); err != nil {
		log.WithError(err).Error("failed to initialize periph host drivers")
		return 1
	}

	res := &resources{log: log}
	defer res.Close()

	hw, err := openHardware(ctx, cfg, res, log)
	if err != nil {
		log.WithError(err).Error("hardware setup failed")
		return 1
	}

	key, err := cfg.Card.SectorKey()
	if err != nil {
		log.WithError(err).Error("invalid card key")
		return 1
	}

	m, err := control.New(hw, control.Config{
		SetSecret:       cfg.Secret.Passphrase,
		Version:         version,
		Key:             key,
		ActionPulse:     cfg.Outputs.ActionPulse(),
		Beep:            cfg.Outputs.Beep(),
		Interval:        cfg.Loop.Interval(),
		LockoutInterval: cfg.Loop.LockoutInterval(),
		VerifyWrites:    cfg.Card.VerifyWrites,
	}, control.WithLogger(log))
	if err != nil {
		log.WithError(err).Error("failed to create control loop")
		return 1
	}

	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("control loop stopped")
		return 1
	}
	return 0
}
