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

package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-rfidbox"
	"github.com/ZaparooProject/go-rfidbox/button"
	"github.com/ZaparooProject/go-rfidbox/feedback"
	"github.com/ZaparooProject/go-rfidbox/timer"
	"github.com/sirupsen/logrus"
)

const (
	DefaultActionPulse     = 3 * time.Second
	DefaultInterval        = 50 * time.Millisecond
	DefaultLockoutInterval = 100 * time.Millisecond

	bannerDuration = 2 * time.Second

	successBeeps = 1
	setBeeps     = 2
	errorBeeps   = 3
)

// ErrNoSecret is latched when a card is presented while the store is empty.
var ErrNoSecret = rfidbox.ErrNoSecret

// Config is the fixed configuration of a Machine.
type Config struct {
	// SetSecret is the passphrase stored by the Set job.
	SetSecret string
	Version   string
	Key       rfidbox.SectorKey
	// ActionPulse is how long the action output stays raised after a
	// granted read. Success screens are held for the same time.
	ActionPulse     time.Duration
	Beep            time.Duration
	Interval        time.Duration
	LockoutInterval time.Duration
	// VerifyWrites reads every programmed block back.
	VerifyWrites bool
}

// Hardware are the collaborators of a Machine. Nil sinks are replaced by
// feedback.Nop.
type Hardware struct {
	Reader      rfidbox.Transceiver
	Store       *rfidbox.SecretStore
	ModeButton  *button.Button
	ResetButton *button.Button
	Display     feedback.Display
	Beeper      feedback.Beeper
	Outputs     feedback.Outputs
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock sets the clock of the feedback timer.
func WithClock(c timer.Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// Machine is the control loop of the box. It is driven from a single
// goroutine: call Step periodically, or Run.
type Machine struct {
	clock       timer.Clock
	log         logrus.FieldLogger
	lastErr     error
	proto       *rfidbox.Protocol
	hold        *timer.Timer
	hw          Hardware
	cfg         Config
	state       State
	mode        Mode
	job         Job
	latched     bool
	awaitRemove bool
	actionOn    bool
	longHandled bool
}

// New creates a machine in the Idle state, Read mode and Run job.
func New(hw Hardware, cfg Config, opts ...Option) (*Machine, error) {
	if hw.Reader == nil || hw.Store == nil {
		return nil, errors.New("reader and store are required")
	}
	if hw.ModeButton == nil || hw.ResetButton == nil {
		return nil, errors.New("mode and reset buttons are required")
	}
	if hw.Display == nil {
		hw.Display = feedback.Nop{}
	}
	if hw.Beeper == nil {
		hw.Beeper = feedback.Nop{}
	}
	if hw.Outputs == nil {
		hw.Outputs = feedback.Nop{}
	}
	if cfg.ActionPulse <= 0 {
		cfg.ActionPulse = DefaultActionPulse
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.LockoutInterval <= 0 {
		cfg.LockoutInterval = DefaultLockoutInterval
	}

	m := &Machine{
		hw:  hw,
		cfg: cfg,
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.hold = timer.New(m.clock)
	protoOpts := []rfidbox.Option{rfidbox.WithLogger(m.log)}
	if m.clock != nil {
		protoOpts = append(protoOpts, rfidbox.WithClock(m.clock))
	}
	if cfg.VerifyWrites {
		protoOpts = append(protoOpts, rfidbox.WithVerifyWrites())
	}
	m.proto = rfidbox.NewProtocol(hw.Reader, cfg.Key, protoOpts...)
	return m, nil
}

// State returns the control state.
func (m *Machine) State() State { return m.state }

// Mode returns the card mode.
func (m *Machine) Mode() Mode { return m.mode }

// Job returns the current job.
func (m *Machine) Job() Job { return m.job }

// Latched reports whether the error latch is set.
func (m *Machine) Latched() bool { return m.latched }

// LastError returns the latched error, or nil.
func (m *Machine) LastError() error { return m.lastErr }

// Boot lowers every output and shows the banner. Card detection starts
// once the banner has been held.
func (m *Machine) Boot() {
	for _, sig := range []feedback.Signal{feedback.Action, feedback.Alarm, feedback.Error} {
		m.setOutput(sig, false)
	}
	m.show(bootScreen(m.cfg.Version)...)
	m.hold.Start(bannerDuration, false)

	if secret, err := m.hw.Store.Load(); err != nil {
		m.log.WithError(err).Warn("secret store unreadable")
	} else if secret == "" {
		m.log.Warn("no secret stored, long press the mode button to set one")
	}
	m.log.WithField("version", m.cfg.Version).Info("rfidbox started")
}

// Run boots the machine and steps it until ctx is done. It returns the
// context error.
func (m *Machine) Run(ctx context.Context) error {
	m.Boot()
	for {
		if err := m.Step(ctx); err != nil {
			return err
		}

		d := m.cfg.Interval
		if m.state == ErrorLockout {
			d = m.cfg.LockoutInterval
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Step runs one loop iteration: buttons, the feedback timer, then card
// detection and at most one transfer. Transfer failures are latched, not
// returned; the only error is the context error.
func (m *Machine) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.pollButtons()

	if m.state == ErrorLockout {
		return nil
	}

	if m.hold.State() == timer.Armed {
		if !m.hold.Poll() {
			return nil
		}
		m.endHold()
	}

	present, err := m.hw.Reader.Detect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.WithError(err).Debug("card detection failed")
		return nil
	}

	if m.awaitRemove {
		if !present {
			m.awaitRemove = false
			m.log.Debug("card removed")
		}
		return nil
	}
	if !present {
		return nil
	}

	return m.handleCard(ctx)
}

func (m *Machine) pollButtons() {
	switch m.hw.ModeButton.Poll() {
	case button.Pressed:
		m.longHandled = false
	case button.LongPressed:
		if !m.longHandled {
			m.longHandled = true
			m.toggleJob()
		}
	case button.Released:
		if !m.longHandled {
			m.toggleMode()
		}
	case button.None:
	}

	if m.hw.ResetButton.Poll() == button.Pressed && m.latched {
		m.reset()
	}
}

func (m *Machine) toggleMode() {
	if m.state == ErrorLockout {
		return
	}
	if m.job == Set {
		m.log.Debug("mode change ignored while setting the passphrase")
		return
	}
	if m.mode == Read {
		m.mode = Write
	} else {
		m.mode = Read
	}
	m.log.WithField("mode", m.mode.String()).Info("mode changed")
	m.endHold()
}

func (m *Machine) toggleJob() {
	if m.state == ErrorLockout {
		return
	}
	switch {
	case m.job == Set:
		m.job = Run
	case m.mode == Read:
		m.job = Set
	default:
		m.log.Debug("set job is only reachable from read mode")
		return
	}
	m.log.WithFields(logrus.Fields{"mode": m.mode.String(), "job": m.job.String()}).Info("job changed")
	m.endHold()
}

// endHold lowers the action output, stops the feedback timer and shows the
// idle screen.
func (m *Machine) endHold() {
	m.hold.Stop()
	if m.actionOn {
		m.setOutput(feedback.Action, false)
		m.actionOn = false
	}
	m.show(idleScreen(m.mode, m.job)...)
}

func (m *Machine) handleCard(ctx context.Context) error {
	m.state = CardPresent
	m.awaitRemove = true

	var err error
	switch {
	case m.job == Set:
		err = m.confirmSet(ctx)
	case m.mode == Write:
		err = m.writeCard(ctx)
	default:
		err = m.readCard(ctx)
	}

	if err == nil {
		m.state = Idle
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		m.state = Idle
		return ctxErr
	}
	m.latch(err)
	return nil
}

func (m *Machine) readCard(ctx context.Context) error {
	secret, err := m.loadSecret()
	if err != nil {
		return err
	}
	sess, err := m.proto.Validate(ctx, secret)
	if err != nil {
		return err
	}

	m.log.WithField("uid", sess.Card().UID.String()).Info("access granted")
	m.show(screenSuccessRead...)
	m.setOutput(feedback.Action, true)
	m.actionOn = true
	m.beep(successBeeps)
	m.hold.Start(m.cfg.ActionPulse, false)
	return nil
}

func (m *Machine) writeCard(ctx context.Context) error {
	secret, err := m.loadSecret()
	if err != nil {
		return err
	}
	sess, err := m.proto.Write(ctx, secret)
	if err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"uid":   sess.Card().UID.String(),
		"bytes": sess.Transferred(),
	}).Info("card programmed")
	m.show(screenSuccessWrite...)
	m.beep(successBeeps)
	m.hold.Start(m.cfg.ActionPulse, false)
	return nil
}

// confirmSet stores the configured passphrase once a card has been
// selected. A passphrase that does not fit aborts the job without latching
// and keeps the previous secret.
func (m *Machine) confirmSet(ctx context.Context) error {
	card, err := m.proto.Identify(ctx)
	if err != nil {
		return err
	}

	m.job = Run
	if err := m.hw.Store.Save(m.cfg.SetSecret); err != nil {
		if !errors.Is(err, rfidbox.ErrStorageOverflow) {
			return err
		}
		m.log.WithError(err).Warn("passphrase not set")
		m.show(screenSetTooLong...)
		m.beep(errorBeeps)
		m.hold.Start(m.cfg.ActionPulse, false)
		return nil
	}

	m.log.WithFields(logrus.Fields{
		"uid":   card.UID.String(),
		"bytes": len(m.cfg.SetSecret),
	}).Info("passphrase set")
	m.show(screenSuccessSet...)
	m.beep(setBeeps)
	m.hold.Start(m.cfg.ActionPulse, false)
	return nil
}

// loadSecret returns the stored secret. A corrupt store yields the prefix
// read before the corruption.
func (m *Machine) loadSecret() (string, error) {
	secret, err := m.hw.Store.Load()
	switch {
	case errors.Is(err, rfidbox.ErrStorageCorruption):
		m.log.WithError(err).Warn("using secret prefix")
	case err != nil:
		return "", fmt.Errorf("load secret: %w", err)
	}
	if secret == "" {
		return "", ErrNoSecret
	}
	return secret, nil
}

func (m *Machine) latch(err error) {
	m.latched = true
	m.lastErr = err
	m.state = ErrorLockout
	m.hold.Stop()
	if m.actionOn {
		m.setOutput(feedback.Action, false)
		m.actionOn = false
	}

	fields := logrus.Fields{
		"mode":  m.mode.String(),
		"job":   m.job.String(),
		"class": rfidbox.ClassOf(err).String(),
	}
	if block := rfidbox.BlockOf(err); block >= 0 {
		fields["block"] = block
	}
	m.log.WithError(err).WithFields(fields).Error("card transfer failed, press reset")

	m.setOutput(feedback.Error, true)
	m.show(errorScreenFor(err)...)
	m.beep(errorBeeps)
}

func (m *Machine) reset() {
	m.latched = false
	m.lastErr = nil
	m.state = Idle
	// the card that caused the fault must leave the field first
	m.awaitRemove = true
	m.setOutput(feedback.Error, false)
	m.log.Info("error latch cleared")
	m.show(idleScreen(m.mode, m.job)...)
}

func (m *Machine) show(lines ...string) {
	if err := m.hw.Display.Show(lines...); err != nil {
		m.log.WithError(err).Debug("display update failed")
	}
}

func (m *Machine) beep(count int) {
	if err := m.hw.Beeper.Beep(count, m.cfg.Beep, 0); err != nil {
		m.log.WithError(err).Debug("beep failed")
	}
}

func (m *Machine) setOutput(sig feedback.Signal, on bool) {
	if err := m.hw.Outputs.Set(sig, on); err != nil {
		m.log.WithError(err).WithField("signal", sig.String()).Warn("output update failed")
	}
}
