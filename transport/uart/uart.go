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

// Package uart provides the serial transport for TurtlPass devices.
// TurtlPass dongles enumerate as USB CDC serial ports, so the baud rate is
// nominal; it is still configurable for bridges that care.
package uart

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"go.bug.st/serial"

	turtlpass "github.com/TurtlPass/turtlpass-protobuf"
)

// DefaultBaudRate is used when no mode is supplied. USB CDC ignores it.
const DefaultBaudRate = 115200

const defaultTimeout = 1 * time.Second

// Transport implements turtlpass.Transport over a serial port.
type Transport struct {
	port      serial.Port
	portName  string
	mu        sync.Mutex
	timeout   time.Duration
	connected bool
}

// New opens the serial port at path with default settings.
func New(path string) (*Transport, error) {
	return NewWithMode(path, &serial.Mode{BaudRate: DefaultBaudRate})
}

// NewWithMode opens the serial port at path with an explicit mode.
func NewWithMode(path string, mode *serial.Mode) (*Transport, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		// go.bug.st/serial reports a missing port as PortNotFound on some
		// platforms and as the raw ENOENT on Linux; both mean no device.
		var portErr *serial.PortError
		if (errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound) ||
			errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", turtlpass.ErrDeviceNotFound, path)
		}
		return nil, turtlpass.NewTransportError("open", path, err, turtlpass.ErrorTypePermanent)
	}

	t := &Transport{
		port:      port,
		portName:  path,
		timeout:   defaultTimeout,
		connected: true,
	}
	if err := port.SetReadTimeout(t.timeout); err != nil {
		_ = port.Close()
		return nil, turtlpass.NewTransportError("configure", path, err, turtlpass.ErrorTypePermanent)
	}
	return t, nil
}

// Read implements turtlpass.Transport. go.bug.st/serial reports a read
// timeout as (0, nil); that is translated to a retryable timeout error so
// the frame layer never spins on an idle port.
func (t *Transport) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if err != nil {
		return n, turtlpass.NewTransportError("read", t.portName,
			fmt.Errorf("%w: %w", turtlpass.ErrTransportRead, err), turtlpass.ErrorTypeTransient)
	}
	if n == 0 {
		return 0, turtlpass.NewTimeoutError("read", t.portName)
	}
	return n, nil
}

// Write implements turtlpass.Transport.
func (t *Transport) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, turtlpass.NewTransportError("write", t.portName,
			fmt.Errorf("%w: %w", turtlpass.ErrTransportWrite, err), turtlpass.ErrorTypeTransient)
	}
	return n, nil
}

// SetTimeout implements turtlpass.Transport.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return turtlpass.NewTransportError("configure", t.portName, err, turtlpass.ErrorTypePermanent)
	}
	t.timeout = timeout
	return nil
}

// Close implements turtlpass.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return nil
	}
	t.connected = false
	if err := t.port.Close(); err != nil {
		return turtlpass.NewTransportError("close", t.portName, err, turtlpass.ErrorTypePermanent)
	}
	return nil
}

// IsConnected implements turtlpass.Transport.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Type implements turtlpass.Transport.
func (*Transport) Type() turtlpass.TransportType {
	return turtlpass.TransportUART
}

// PortName returns the path the transport was opened on.
func (t *Transport) PortName() string {
	return t.portName
}
