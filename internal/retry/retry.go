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

// Package retry provides the bounded retry loops shared by the PN532 device
// and its transports.
package retry

import (
	"context"
	"errors"
	"time"
)

// Errors returned when a loop gives up.
var (
	ErrExhausted = errors.New("retries exhausted")
	ErrTimeout   = errors.New("timed out")
)

// Operation is one attempt. It returns the result, whether another attempt
// should be made, and a permanent error that ends the loop immediately.
type Operation[T any] func() (T, bool, error)

// Config configures WithRetry.
type Config struct {
	// OnRetry runs before each new attempt; an error ends the loop.
	OnRetry func(attempt int) error
	// MaxRetries is the number of attempts after the first.
	MaxRetries int
	// Delay is the pause between attempts.
	Delay time.Duration
}

// WithRetry runs op until it succeeds, fails permanently, or MaxRetries
// further attempts have been made.
func WithRetry[T any](ctx context.Context, cfg Config, op Operation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if cfg.OnRetry != nil {
				if err := cfg.OnRetry(attempt); err != nil {
					return zero, err
				}
			}
			if err := sleep(ctx, cfg.Delay); err != nil {
				return zero, err
			}
		}

		result, again, err := op()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
	}

	return zero, ErrExhausted
}

// UntilTimeout runs op until it stops asking for another attempt or timeout
// elapses, pausing poll between attempts. It is used for ready polling.
func UntilTimeout[T any](ctx context.Context, timeout, poll time.Duration, op Operation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for {
		result, again, err := op()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
		if !time.Now().Add(poll).Before(deadline) {
			return zero, ErrTimeout
		}
		if err := sleep(ctx, poll); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
