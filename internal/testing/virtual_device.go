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

// Package testing provides a software TurtlPass device for the test suite:
// the real firmware core with an in-memory seed store, served over an
// in-process pipe.
package testing

import (
	"context"
	"net"
	"testing"

	"github.com/TurtlPass/turtlpass-protobuf/firmware"
	"github.com/TurtlPass/turtlpass-protobuf/firmware/storage"
)

// TestBoardID is the unique board id the virtual device reports.
var TestBoardID = [16]byte{
	0xE6, 0x60, 0x58, 0x38, 0x83, 0x35, 0x9A, 0x2C,
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
}

// DefaultInfo returns the build identity the virtual device reports.
func DefaultInfo() firmware.Info {
	return firmware.Info{
		TurtlPassVersion: "2.4.0",
		ArduinoVersion:   "3.9.2",
		CompilerVersion:  "gcc 14.2.0",
		NanopbVersion:    "nanopb-0.4.9",
		BoardName:        "rpipico",
		UniqueBoardID:    TestBoardID,
	}
}

// VirtualDevice is a firmware core running behind a net.Pipe.
type VirtualDevice struct {
	Store *storage.Memory
	conn  net.Conn
	done  chan struct{}
}

// Start launches a virtual device and returns it together with the host
// side of its pipe. Everything is torn down via tb.Cleanup.
func Start(tb testing.TB, opts ...firmware.DispatcherOption) (*VirtualDevice, net.Conn) {
	tb.Helper()

	store := storage.NewMemory()
	dispatcher, err := firmware.NewDispatcher(store, DefaultInfo(), opts...)
	if err != nil {
		tb.Fatalf("start virtual device: %v", err)
	}

	hostConn, deviceConn := net.Pipe()
	vd := &VirtualDevice{
		Store: store,
		conn:  deviceConn,
		done:  make(chan struct{}),
	}

	go func() {
		defer close(vd.done)
		_ = dispatcher.Serve(context.Background(), deviceConn)
	}()

	tb.Cleanup(func() {
		_ = hostConn.Close()
		_ = deviceConn.Close()
		<-vd.done
	})
	return vd, hostConn
}
