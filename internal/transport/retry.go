// turtlpass-protobuf
// Copyright (c) 2026 The TurtlPass Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of turtlpass-protobuf.
//
// turtlpass-protobuf is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// turtlpass-protobuf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with turtlpass-protobuf; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package transport provides internal transport utilities
package transport

import "time"

// Config configures retry behavior for one operation.
type Config struct {
	// Retryable classifies errors; nil means nothing is retried.
	Retryable func(error) bool
	// MaxAttempts is the total attempt count including the first try.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry; it doubles per
	// attempt up to MaxBackoff.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts. Zero means uncapped.
	MaxBackoff time.Duration
}

// WithRetry runs op until it succeeds, returns a non-retryable error, or
// the attempt budget is spent. The last error is returned as-is so callers
// keep their typed errors.
func WithRetry[T any](config Config, op func() (T, error)) (T, error) {
	var zero T

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := config.InitialBackoff
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if config.Retryable == nil || !config.Retryable(err) {
			break
		}
		if attempt == attempts-1 {
			break
		}
		if backoff > 0 {
			time.Sleep(backoff)
			backoff *= 2
			if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}
	return zero, lastErr
}
