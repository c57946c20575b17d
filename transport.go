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
	"io"
	"net"
	"time"
)

// Transport is the byte stream a TurtlPass device is reached over. The
// protocol's frame layer runs directly on Read/Write; a Transport never
// interprets message content.
type Transport interface {
	io.ReadWriteCloser

	// SetTimeout sets the read timeout. A Read that produces no data
	// within the timeout returns an error satisfying
	// errors.Is(err, ErrTransportTimeout).
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents USB CDC / serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// ConnTransport adapts a net.Conn to the Transport interface. It backs the
// virtual-device test rig and works for any stream-oriented bridge (an
// emulator on a TCP socket, a ser2net proxy).
type ConnTransport struct {
	conn    net.Conn
	timeout time.Duration
	closed  bool
}

// NewConnTransport wraps an established connection.
func NewConnTransport(conn net.Conn) *ConnTransport {
	return &ConnTransport{conn: conn}
}

// Read implements Transport.
func (t *ConnTransport) Read(p []byte) (int, error) {
	var deadline time.Time
	if t.timeout > 0 {
		deadline = time.Now().Add(t.timeout)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return 0, NewTransportError("read", t.addr(), err, ErrorTypePermanent)
	}
	n, err := t.conn.Read(p)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return n, NewTimeoutError("read", t.addr())
		}
		return n, err
	}
	return n, nil
}

// Write implements Transport.
func (t *ConnTransport) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

// Close implements Transport.
func (t *ConnTransport) Close() error {
	t.closed = true
	return t.conn.Close()
}

// SetTimeout implements Transport.
func (t *ConnTransport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// IsConnected implements Transport.
func (t *ConnTransport) IsConnected() bool {
	return !t.closed
}

// Type implements Transport.
func (*ConnTransport) Type() TransportType {
	return TransportMock
}

func (t *ConnTransport) addr() string {
	if addr := t.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "conn"
}
