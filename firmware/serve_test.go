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

package firmware

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TurtlPass/turtlpass-protobuf/internal/frame"
	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// startServe runs the dispatcher's serve loop over a pipe and returns the
// host side. The loop is torn down via t.Cleanup.
func startServe(t *testing.T, d *Dispatcher) net.Conn {
	t.Helper()

	hostConn, deviceConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Serve(context.Background(), deviceConn)
	}()
	t.Cleanup(func() {
		_ = hostConn.Close()
		_ = deviceConn.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("serve loop did not stop")
		}
	})
	return hostConn
}

// exchange writes one command frame and reads back the response.
func exchange(t *testing.T, conn net.Conn, cmd *proto.Command) *proto.Response {
	t.Helper()

	payload, err := proto.MarshalCommand(cmd)
	require.NoError(t, err)
	return exchangeRaw(t, conn, payload)
}

func exchangeRaw(t *testing.T, conn net.Conn, payload []byte) *proto.Response {
	t.Helper()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, frame.Write(conn, payload))
	respPayload, err := frame.Read(conn, proto.MaxResponseSize)
	require.NoError(t, err)
	resp, err := proto.UnmarshalResponse(respPayload)
	require.NoError(t, err)
	return resp
}

func TestServeEndToEnd(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	conn := startServe(t, d)

	resp := exchange(t, conn, &proto.Command{Type: proto.CommandTypeGetDeviceInfo})
	requireSuccess(t, resp)
	require.NotNil(t, resp.DeviceInfo)

	resp = exchange(t, conn, initCmd(validSeed()))
	requireSuccess(t, resp)

	resp = exchange(t, conn, genCmd([]byte("example.com"), 16, proto.CharsetLettersNumbers))
	requireSuccess(t, resp)
	assert.Len(t, resp.Data, 16)

	resp = exchange(t, conn, &proto.Command{Type: proto.CommandTypeFactoryReset})
	requireSuccess(t, resp)

	resp = exchange(t, conn, genCmd([]byte("example.com"), 16, proto.CharsetLettersNumbers))
	requireFailure(t, resp, proto.ErrorSeedNotInitialized)
}

func TestServeAnswersGarbageWithDecodeError(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	conn := startServe(t, d)

	resp := exchangeRaw(t, conn, []byte{0xFF, 0xFF, 0xFF})
	requireFailure(t, resp, proto.ErrorProtoDecodingFailed)

	// The loop is still serving after a bad frame.
	resp = exchange(t, conn, &proto.Command{Type: proto.CommandTypeGetDeviceInfo})
	requireSuccess(t, resp)
}

func TestServeSurvivesOversizedFrame(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	conn := startServe(t, d)

	resp := exchangeRaw(t, conn, bytes.Repeat([]byte{0x00}, proto.MaxCommandSize+50))
	requireFailure(t, resp, proto.ErrorProtoDecodingFailed)

	// Stream stays aligned: the next well-formed command round-trips.
	resp = exchange(t, conn, initCmd(validSeed()))
	requireSuccess(t, resp)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	hostConn, deviceConn := net.Pipe()
	defer func() {
		_ = hostConn.Close()
		_ = deviceConn.Close()
	}()

	// Cancellation is observed between frames; an already-cancelled
	// context stops the loop before the first read.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, d.Serve(ctx, deviceConn), context.Canceled)
}

func TestServeReturnsNilOnPeerClose(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	hostConn, deviceConn := net.Pipe()

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Serve(context.Background(), deviceConn)
	}()

	_ = hostConn.Close()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve loop did not stop on peer close")
	}
}

func TestHandleRejectsUndecodablePayload(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	requireFailure(t, d.Handle([]byte{0x80}), proto.ErrorProtoDecodingFailed)
}
