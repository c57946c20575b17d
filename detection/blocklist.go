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

package detection

import "strings"

// DefaultBlocklist returns VID:PID pairs that must never be treated as
// TurtlPass devices even if a custom accept list matches them.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		// Add known problematic devices here as discovered.
	}
}

// IsBlocked checks whether a USB identity is on the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

// ParseVIDPID normalizes a USB descriptor fragment to the VID:PID format
// used throughout this package. Supported inputs: "1234:5678",
// "VID:1234 PID:5678" and "vendor=1234 product=5678". Returns "" when no
// identity can be extracted.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(descriptor)

	vid := findHexAfter(descriptor, "VID:", "VID=", "VENDOR=")
	pid := findHexAfter(descriptor, "PID:", "PID=", "PRODUCT=")
	if vid != "" && pid != "" {
		return vid + ":" + pid
	}

	if parts := strings.Split(descriptor, ":"); len(parts) == 2 &&
		isHex(parts[0]) && isHex(parts[1]) {
		return descriptor
	}
	return ""
}

func findHexAfter(s string, markers ...string) string {
	for _, marker := range markers {
		if idx := strings.Index(s, marker); idx >= 0 {
			if hex := leadingHex(s[idx+len(marker):]); hex != "" {
				return hex
			}
		}
	}
	return ""
}

func leadingHex(s string) string {
	end := 0
	for end < len(s) && isHexDigit(s[end]) {
		end++
	}
	return s[:end]
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
}
