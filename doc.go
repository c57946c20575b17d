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

/*
Package turtlpass implements the TurtlPass device communication protocol.

A TurtlPass device is a USB dongle that holds a 64-byte secret seed and
derives deterministic passwords from it on demand: the host sends a hash of
domain, account and PIN as entropy, the device answers with a password that
is always the same for the same inputs and never leaves a trace on the host.

This module contains both halves of the protocol. The root package is the
host-side client; the firmware package is the device-side core that the
emulator and the test suite run.

Features:
  - Compact proto3 wire encoding with fixed field-size caps
  - Length-prefixed framing over any byte-stream transport
  - USB CDC serial transport and automatic device detection
  - Deterministic HKDF-SHA512 password derivation
  - Strict half-duplex request/response with retry and resynchronization
  - Software device (emulator) for development without hardware

Basic Usage:

	import (
	    turtlpass "github.com/TurtlPass/turtlpass-protobuf"
	    "github.com/TurtlPass/turtlpass-protobuf/proto"
	    "github.com/TurtlPass/turtlpass-protobuf/transport/uart"
	)

	transport, err := uart.New("/dev/ttyACM0")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	device, err := turtlpass.New(transport)
	if err != nil {
	    log.Fatal(err)
	}

	entropy := sha512.Sum512([]byte("example.com" + "alice" + pin))
	password, err := device.GeneratePassword(entropy[:64], 0, proto.CharsetLettersNumbers)
	if err != nil {
	    log.Fatal(err)
	}

Device Detection:

	devices, err := detection.Detect(context.Background())
	if err == nil && len(devices) > 0 {
	    transport, err = uart.New(devices[0].Path)
	}

The device processes exactly one command at a time; a Device handle
serializes concurrent callers rather than pipelining. See the proto package
for the message model and the firmware package for the device-side state
machine.
*/
package turtlpass
