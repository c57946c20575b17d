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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVIDPID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		descriptor string
		want       string
	}{
		{name: "plain pair", descriptor: "2E8A:000A", want: "2E8A:000A"},
		{name: "lowercase pair", descriptor: "2e8a:000a", want: "2E8A:000A"},
		{name: "vid pid markers", descriptor: "VID:2E8A PID:00C0", want: "2E8A:00C0"},
		{name: "equals markers", descriptor: "vid=2E8A pid=F00A", want: "2E8A:F00A"},
		{name: "vendor product markers", descriptor: "vendor=1209 product=5741", want: "1209:5741"},
		{name: "empty", descriptor: "", want: ""},
		{name: "no identity", descriptor: "Raspberry Pi Pico", want: ""},
		{name: "non-hex pair", descriptor: "ZZZZ:000A", want: ""},
		{name: "vid without pid", descriptor: "VID:2E8A", want: ""},
		{name: "too many separators", descriptor: "2E8A:000A:0001", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseVIDPID(tt.descriptor))
		})
	}
}

func TestIsBlocked(t *testing.T) {
	t.Parallel()

	blocklist := []string{"1234:5678", " 9abc:def0 "}

	tests := []struct {
		name   string
		vidpid string
		want   bool
	}{
		{name: "exact match", vidpid: "1234:5678", want: true},
		{name: "case insensitive", vidpid: "9ABC:DEF0", want: true},
		{name: "whitespace tolerated", vidpid: " 1234:5678 ", want: true},
		{name: "not listed", vidpid: "2E8A:000A", want: false},
		{name: "empty", vidpid: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsBlocked(tt.vidpid, blocklist))
		})
	}
}

func TestDefaultBlocklistBlocksNoKnownDevice(t *testing.T) {
	t.Parallel()

	for _, vidpid := range knownVIDPIDs {
		assert.False(t, IsBlocked(vidpid, DefaultBlocklist()),
			"known TurtlPass identity %s must not be blocked by default", vidpid)
	}
}
