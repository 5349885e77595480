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

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"

	"github.com/ZaparooProject/go-rfidbox"
	"github.com/ZaparooProject/go-rfidbox/button"
	"github.com/ZaparooProject/go-rfidbox/config"
	"github.com/ZaparooProject/go-rfidbox/control"
	"github.com/ZaparooProject/go-rfidbox/detection"
	"github.com/ZaparooProject/go-rfidbox/feedback"
	"github.com/ZaparooProject/go-rfidbox/feedback/lcd"
	"github.com/ZaparooProject/go-rfidbox/nvstore"
	"github.com/ZaparooProject/go-rfidbox/nvstore/at24"
	"github.com/ZaparooProject/go-rfidbox/pn532"
)

// resources closes what the daemon opened, in reverse order.
type resources struct {
	log     logrus.FieldLogger
	closers []io.Closer
}

func (r *resources) add(c io.Closer) {
	r.closers = append(r.closers, c)
}

func (r *resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			r.log.WithError(err).Warn("close failed")
		}
	}
	r.closers = nil
}

func openHardware(ctx context.Context, cfg *config.Config, res *resources,
	log logrus.FieldLogger,
) (control.Hardware, error) {
	var hw control.Hardware

	reader, err := openReader(ctx, cfg.Reader, log)
	if err != nil {
		return hw, err
	}
	res.add(reader)
	hw.Reader = reader

	nv, err := openStore(cfg.Secret, res, log)
	if err != nil {
		return hw, err
	}
	hw.Store = rfidbox.NewSecretStore(nv, rfidbox.WithLogger(log))

	if hw.ModeButton, err = openButton("mode", cfg.Buttons.Mode, cfg.Buttons, log); err != nil {
		return hw, err
	}
	if hw.ResetButton, err = openButton("reset", cfg.Buttons.Reset, cfg.Buttons, log); err != nil {
		return hw, err
	}

	if hw.Outputs, hw.Beeper, err = openOutputs(cfg.Outputs, res); err != nil {
		return hw, err
	}
	if hw.Display, err = openDisplay(cfg.Display, res, log); err != nil {
		return hw, err
	}
	return hw, nil
}

func openReader(ctx context.Context, cfg config.ReaderConfig, log logrus.FieldLogger) (*pn532.Device, error) {
	opts := detection.DefaultOptions()
	opts.IgnorePaths = cfg.IgnorePaths
	tr, err := detection.Connect(ctx, cfg.Transport, cfg.Device, opts, log)
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	dev, err := pn532.New(tr,
		pn532.WithTimeout(cfg.Timeout()),
		pn532.WithMaxRetries(cfg.Retries),
		pn532.WithLogger(log),
	)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	if err := dev.Init(ctx); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("init reader: %w", err)
	}
	return dev, nil
}

func openStore(cfg config.SecretConfig, res *resources, log logrus.FieldLogger) (rfidbox.NVStore, error) {
	switch cfg.Store {
	case "badger":
		s, err := nvstore.OpenBadger(cfg.Path, cfg.Capacity, log)
		if err != nil {
			return nil, err
		}
		res.add(s)
		return s, nil
	case "file":
		return openFileStore(cfg.Path, cfg.Capacity, res)
	case "at24":
		bus, err := i2creg.Open(cfg.Bus)
		if err != nil {
			return nil, fmt.Errorf("open eeprom bus: %w", err)
		}
		res.add(bus)
		return at24.Open(bus, at24.Config{
			Addr:        cfg.Address,
			Capacity:    cfg.Capacity,
			WideAddress: cfg.WideAddress,
		})
	default:
		log.Warn("secret store is in memory, the secret is lost on restart")
		return nvstore.NewMemory(cfg.Capacity), nil
	}
}

func openButton(name string, cfg config.ButtonConfig, buttons config.ButtonsConfig,
	log logrus.FieldLogger,
) (*button.Button, error) {
	trigger, err := button.ParseTrigger(cfg.Trigger)
	if err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(cfg.Pin)
	if pin == nil {
		return nil, fmt.Errorf("%s button: no pin %q", name, cfg.Pin)
	}
	if err := pin.In(trigger.Pull(), gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%s button: %w", name, err)
	}
	return button.New(pin, trigger,
		button.WithName(name),
		button.WithLongPress(buttons.LongPress()),
		button.WithLogger(log),
	), nil
}

func outputPin(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no pin %q", name)
	}
	return pin, nil
}

func openOutputs(cfg config.OutputsConfig, res *resources) (feedback.Outputs, feedback.Beeper, error) {
	pins := make(map[feedback.Signal]gpio.PinOut)
	for sig, name := range map[feedback.Signal]string{feedback.Action: cfg.Action, feedback.Error: cfg.Error} {
		pin, err := outputPin(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%s output: %w", sig, err)
		}
		pins[sig] = pin
	}
	gpioOut, err := feedback.NewGPIOOutputs(pins)
	if err != nil {
		return nil, nil, err
	}

	var beeper feedback.Beeper = feedback.Nop{}
	buzzer, err := outputPin(cfg.Alarm)
	if err != nil {
		return nil, nil, fmt.Errorf("alarm output: %w", err)
	}
	if buzzer != nil {
		if err := buzzer.Out(gpio.Low); err != nil {
			return nil, nil, fmt.Errorf("alarm output: %w", err)
		}
		beeper = feedback.NewPinBeeper(buzzer)
	}

	if cfg.Modbus == nil {
		return gpioOut, beeper, nil
	}

	coils := make(map[feedback.Signal]uint16, len(cfg.Modbus.Coils))
	for name, addr := range cfg.Modbus.Coils {
		sig, err := feedback.ParseSignal(name)
		if err != nil {
			return nil, nil, err
		}
		coils[sig] = addr
	}
	remote, err := feedback.NewModbusOutputs(feedback.ModbusConfig{
		Endpoint: cfg.Modbus.Endpoint,
		UnitID:   cfg.Modbus.UnitID,
		Timeout:  cfg.Modbus.Timeout(),
		Coils:    coils,
	})
	if err != nil {
		return nil, nil, err
	}
	res.add(remote)

	if _, ok := coils[feedback.Alarm]; ok && buzzer == nil {
		beeper = feedback.NewSignalBeeper(remote)
	}
	return feedback.MultiOutputs{gpioOut, remote}, beeper, nil
}

func openDisplay(cfg config.DisplayConfig, res *resources, log logrus.FieldLogger) (feedback.Display, error) {
	logDisplay := feedback.NewLogDisplay(log)
	if cfg.Type != "lcd" {
		return logDisplay, nil
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open display bus: %w", err)
	}
	res.add(bus)
	screen, err := lcd.New(bus, cfg.Address, lcd.WithSize(cfg.Cols, cfg.Rows))
	if err != nil {
		return nil, err
	}
	return feedback.MultiDisplay{screen, logDisplay}, nil
}
