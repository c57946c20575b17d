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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

func TestContextCancellationUnblocksExchange(t *testing.T) {
	t.Parallel()

	mock := NewBlockingMockTransport()
	device, err := New(mock)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = device.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err = device.GetDeviceInfoContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second,
		"cancellation must not wait for the transport timeout")
}

func TestContextDeadlineExceeded(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	mock.SetDelay(300 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := device.GetDeviceInfoContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPreCancelledContextSkipsTransport(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	var calls int
	mock.SetHandler(func([]byte) ([]byte, error) {
		calls++
		return proto.MarshalResponse(&proto.Response{Success: true})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, device.FactoryResetContext(ctx), context.Canceled)
	assert.Zero(t, calls)
}

// An exchange abandoned by cancellation leaves its response in flight; the
// next operation must resynchronize the stream and still succeed.
func TestDeviceRecoversAfterAbandonedExchange(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	mock.SetDelay(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := device.GetDeviceInfoContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	mock.SetDelay(0)
	info, err := device.GetDeviceInfo()
	require.NoError(t, err)
	assert.Equal(t, "2.4.0", info.TurtlPassVersion)
}
