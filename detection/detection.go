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

// Package detection discovers TurtlPass devices among the system's serial
// ports by their USB vendor/product identifiers.
package detection

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// DeviceInfo describes one candidate TurtlPass serial port.
type DeviceInfo struct {
	// Path is the serial device path (/dev/ttyACM0, COM5).
	Path string
	// VIDPID is the USB vendor:product pair, uppercase hex.
	VIDPID string
	// SerialNumber is the USB serial number, when the stack exposes one.
	SerialNumber string
	// Product is the USB product string, when exposed.
	Product string
}

// knownVIDPIDs lists the USB identities TurtlPass firmware ships on:
// the RP2040 CDC identities used by the Pico SDK and the Arduino-Pico core.
var knownVIDPIDs = []string{
	"2E8A:000A", // Raspberry Pi Pico, Pico SDK CDC
	"2E8A:00C0", // Raspberry Pi Pico, Arduino-Pico core
	"2E8A:F00A", // RP2040, community CDC
}

type config struct {
	blocklist []string
	extra     []string
}

// Option configures a Detect call.
type Option func(*config)

// WithBlocklist replaces the default blocklist.
func WithBlocklist(blocklist []string) Option {
	return func(c *config) {
		c.blocklist = blocklist
	}
}

// WithVIDPID adds a vendor:product pair to the accepted set, for custom
// firmware builds with their own USB identity.
func WithVIDPID(vidpid string) Option {
	return func(c *config) {
		c.extra = append(c.extra, strings.ToUpper(strings.TrimSpace(vidpid)))
	}
}

// Detect enumerates serial ports and returns those whose USB identity
// matches a TurtlPass firmware build. It never opens a port; probing is
// left to the caller so detection cannot disturb other devices.
func Detect(ctx context.Context, opts ...Option) ([]DeviceInfo, error) {
	cfg := &config{blocklist: DefaultBlocklist()}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	accepted := append(append([]string(nil), knownVIDPIDs...), cfg.extra...)

	var devices []DeviceInfo
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !port.IsUSB {
			continue
		}
		vidpid := strings.ToUpper(port.VID + ":" + port.PID)
		if !matchesVIDPID(vidpid, accepted) || IsBlocked(vidpid, cfg.blocklist) {
			continue
		}
		devices = append(devices, DeviceInfo{
			Path:         port.Name,
			VIDPID:       vidpid,
			SerialNumber: port.SerialNumber,
			Product:      port.Product,
		})
	}
	return devices, nil
}

func matchesVIDPID(vidpid string, accepted []string) bool {
	for _, candidate := range accepted {
		if vidpid == candidate {
			return true
		}
	}
	return false
}
