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

package turtlpass

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

func TestTransportError(t *testing.T) {
	t.Parallel()

	underlying := errors.New("port vanished")
	err := NewTransportError("write", "/dev/ttyACM0", underlying, ErrorTypePermanent)

	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "/dev/ttyACM0")
	assert.ErrorIs(t, err, underlying)
	assert.False(t, err.Retryable)

	transient := NewTransportError("read", "/dev/ttyACM0", underlying, ErrorTypeTransient)
	assert.True(t, transient.Retryable)
}

func TestNewTimeoutError(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("read", "/dev/ttyACM0")
	assert.ErrorIs(t, err, ErrTransportTimeout)
	assert.True(t, err.Retryable)
	assert.Equal(t, ErrorTypeTransient, err.Type)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "timeout sentinel", err: ErrTransportTimeout, want: true},
		{name: "read sentinel", err: ErrTransportRead, want: true},
		{name: "write sentinel", err: ErrTransportWrite, want: true},
		{name: "communication sentinel", err: ErrCommunicationFailed, want: true},
		{name: "wrapped timeout", err: fmt.Errorf("op: %w", ErrTransportTimeout), want: true},
		{name: "device not found", err: ErrDeviceNotFound, want: false},
		{name: "not connected", err: ErrNotConnected, want: false},
		{name: "protocol violation", err: ErrProtocolViolation, want: false},
		{name: "arbitrary error", err: errors.New("boom"), want: false},
		{
			name: "transient transport error",
			err:  NewTransportError("read", "mock", errors.New("boom"), ErrorTypeTransient),
			want: true,
		},
		{
			name: "permanent transport error",
			err:  NewTransportError("open", "mock", errors.New("boom"), ErrorTypePermanent),
			want: false,
		},
		{
			name: "permanent beats wrapped transient sentinel",
			err:  NewTransportError("read", "mock", ErrTransportTimeout, ErrorTypePermanent),
			want: false,
		},
		{
			name: "response error",
			err:  &ResponseError{Code: proto.ErrorInternalError},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestResponseCode(t *testing.T) {
	t.Parallel()

	err := &ResponseError{Code: proto.ErrorSeedNotInitialized}
	assert.Contains(t, err.Error(), "SEED_NOT_INITIALIZED")

	code, ok := ResponseCode(fmt.Errorf("generate: %w", err))
	require.True(t, ok)
	assert.Equal(t, proto.ErrorSeedNotInitialized, code)

	_, ok = ResponseCode(errors.New("not a device error"))
	assert.False(t, ok)

	_, ok = ResponseCode(nil)
	assert.False(t, ok)
}
