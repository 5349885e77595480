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

// Package detection finds a PN532 among the serial ports and I2C buses of
// the host.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-rfidbox/pn532"
	"github.com/ZaparooProject/go-rfidbox/transport/i2c"
	"github.com/ZaparooProject/go-rfidbox/transport/uart"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial/enumerator"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// Transport names
const (
	TransportUART = "uart"
	TransportI2C  = "i2c"
)

// DefaultProbeTimeout bounds the firmware query sent to each candidate.
const DefaultProbeTimeout = 500 * time.Millisecond

// Candidate is a port or bus that may have a PN532 attached.
type Candidate struct {
	Transport string
	Path      string
	// VIDPID is set for USB serial adapters
	VIDPID string
}

func (c Candidate) String() string {
	if c.VIDPID != "" {
		return fmt.Sprintf("%s:%s (%s)", c.Transport, c.Path, c.VIDPID)
	}
	return c.Transport + ":" + c.Path
}

// Options filters the candidates.
type Options struct {
	IgnorePaths  []string
	Blocklist    []string
	Transports   []string
	ProbeTimeout time.Duration
}

// DefaultOptions probes every serial port and I2C bus.
func DefaultOptions() Options {
	return Options{
		Blocklist:    DefaultBlocklist(),
		ProbeTimeout: DefaultProbeTimeout,
	}
}

func (o Options) wants(transport string) bool {
	if len(o.Transports) == 0 {
		return true
	}
	for _, t := range o.Transports {
		if t == transport {
			return true
		}
	}
	return false
}

// Filter drops ignored paths and blocked USB adapters.
func Filter(candidates []Candidate, opts Options) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !opts.wants(c.Transport) || IsPathIgnored(c.Path, opts.IgnorePaths) {
			continue
		}
		if c.VIDPID != "" && IsBlocked(c.VIDPID, opts.Blocklist) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Candidates lists the serial ports and the registered I2C buses. I2C buses
// are only known after periph host initialization.
func Candidates(opts Options) ([]Candidate, error) {
	var all []Candidate

	if opts.wants(TransportUART) {
		ports, err := enumerator.GetDetailedPortsList()
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
		}
		for _, p := range ports {
			c := Candidate{Transport: TransportUART, Path: p.Name}
			if p.IsUSB {
				c.VIDPID = ParseVIDPID(p.VID + ":" + p.PID)
			}
			all = append(all, c)
		}
	}

	if opts.wants(TransportI2C) {
		for _, ref := range i2creg.All() {
			all = append(all, Candidate{Transport: TransportI2C, Path: ref.Name})
		}
	}

	return Filter(all, opts), nil
}

// Opener opens the transport of a candidate.
type Opener func(Candidate) (pn532.Transport, error)

// Open opens the UART or I2C transport of c.
func Open(c Candidate) (pn532.Transport, error) {
	switch c.Transport {
	case TransportUART:
		return uart.New(c.Path)
	case TransportI2C:
		return i2c.New(c.Path)
	default:
		return nil, fmt.Errorf("%w: transport %q", pn532.ErrInvalidParameter, c.Transport)
	}
}

// Probe opens candidates in order and returns the first one answering a
// firmware query, still open.
func Probe(ctx context.Context, candidates []Candidate, open Opener, opts Options,
	log logrus.FieldLogger,
) (Candidate, pn532.Transport, error) {
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	var errs []error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Candidate{}, nil, err
		}

		tr, err := probe(ctx, c, open, timeout, log)
		if err != nil {
			log.WithError(err).WithField("candidate", c.String()).Debug("no PN532")
			errs = append(errs, err)
			continue
		}
		log.WithField("candidate", c.String()).Info("PN532 found")
		return c, tr, nil
	}
	return Candidate{}, nil, fmt.Errorf("%w: %d candidates probed: %w",
		pn532.ErrDeviceNotFound, len(candidates), errors.Join(errs...))
}

func probe(ctx context.Context, c Candidate, open Opener, timeout time.Duration,
	log logrus.FieldLogger,
) (pn532.Transport, error) {
	tr, err := open(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dev, err := pn532.New(tr, pn532.WithMaxRetries(1), pn532.WithLogger(log))
	if err == nil {
		_, err = dev.FirmwareVersion(ctx)
	}
	if err != nil {
		_ = tr.Close()
		return nil, fmt.Errorf("%s: %w", c, err)
	}
	return tr, nil
}

// Connect opens the reader named by transport and path. An empty or "auto"
// transport probes every candidate allowed by opts.
func Connect(ctx context.Context, transport, path string, opts Options,
	log logrus.FieldLogger,
) (pn532.Transport, error) {
	switch transport {
	case TransportUART, TransportI2C:
		return Open(Candidate{Transport: transport, Path: path})
	case "", "auto":
	default:
		return nil, fmt.Errorf("%w: transport %q", pn532.ErrInvalidParameter, transport)
	}

	candidates, err := Candidates(opts)
	if err != nil {
		return nil, err
	}
	c, tr, err := Probe(ctx, candidates, Open, opts, log)
	if err != nil {
		return nil, err
	}
	log.WithField("reader", c.String()).Info("using detected reader")
	return tr, nil
}
