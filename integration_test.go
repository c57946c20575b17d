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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/TurtlPass/turtlpass-protobuf/internal/testing"
	"github.com/TurtlPass/turtlpass-protobuf/kdf"
	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// startVirtualDevice runs the firmware serve loop behind a pipe and returns
// a Device talking to it over a ConnTransport, full frame layer included.
func startVirtualDevice(t *testing.T) (*Device, *testutil.VirtualDevice) {
	t.Helper()

	vd, hostConn := testutil.Start(t)
	device, err := New(NewConnTransport(hostConn), WithTimeout(5*time.Second))
	require.NoError(t, err)
	return device, vd
}

func TestProvisioningLifecycle(t *testing.T) {
	t.Parallel()

	device, vd := startVirtualDevice(t)

	info, err := device.GetDeviceInfo()
	require.NoError(t, err)
	assert.Equal(t, "2.4.0", info.TurtlPassVersion)
	assert.Equal(t, "rpipico", info.BoardName)
	assert.Equal(t, testutil.TestBoardID[:], info.UniqueBoardID)

	seed := bytes.Repeat([]byte{0x42}, proto.SeedSize)
	require.NoError(t, device.InitializeSeed(seed))

	stored, err := vd.Store.Read()
	require.NoError(t, err)
	assert.Equal(t, seed, stored)

	password, err := device.GeneratePassword([]byte("github.com:alice"), 12, proto.CharsetLettersNumbers)
	require.NoError(t, err)
	require.Len(t, password, 12)
	for _, c := range password {
		assert.Contains(t, kdf.AlphabetLettersNumbers, string(c))
	}

	// The host-side result matches a local derivation from the same seed,
	// so device and host agree on the algorithm.
	local, err := kdf.Derive(seed, []byte("github.com:alice"), 12, kdf.AlphabetLettersNumbers)
	require.NoError(t, err)
	assert.Equal(t, local, password)

	require.NoError(t, device.FactoryReset())
	initialized, err := vd.Store.Initialized()
	require.NoError(t, err)
	assert.False(t, initialized)

	_, err = device.GeneratePassword([]byte("github.com:alice"), 12, proto.CharsetLettersNumbers)
	code, ok := ResponseCode(err)
	require.True(t, ok)
	assert.Equal(t, proto.ErrorSeedNotInitialized, code)
}

func TestNearMissSeedLengthIsRejectedByDevice(t *testing.T) {
	t.Parallel()

	device, vd := startVirtualDevice(t)

	// One byte over: the frame and the message decode fine, the device's
	// validation answers, and the slot stays empty.
	err := device.InitializeSeed(bytes.Repeat([]byte{0x01}, proto.SeedSize+1))
	code, ok := ResponseCode(err)
	require.True(t, ok)
	assert.Equal(t, proto.ErrorInvalidSeedLength, code)

	initialized, err := vd.Store.Initialized()
	require.NoError(t, err)
	assert.False(t, initialized)
}

func TestPasswordsAcrossCharsets(t *testing.T) {
	t.Parallel()

	device, _ := startVirtualDevice(t)
	require.NoError(t, device.InitializeSeed(bytes.Repeat([]byte{0x11}, proto.SeedSize)))

	entropy := []byte("example.org:carol")
	seen := make(map[string]bool)
	for _, charset := range []proto.Charset{
		proto.CharsetLettersOnly,
		proto.CharsetNumbersOnly,
		proto.CharsetLettersNumbers,
		proto.CharsetLettersNumbersSymbols,
	} {
		password, err := device.GeneratePassword(entropy, 32, charset)
		require.NoError(t, err)
		require.Len(t, password, 32)

		alphabet := kdf.Alphabet(charset)
		for _, c := range password {
			assert.Contains(t, alphabet, string(c))
		}
		seen[string(password)] = true
	}
	assert.Len(t, seen, 4, "each charset yields a distinct password")
}

func TestSequentialCommandsShareOneStream(t *testing.T) {
	t.Parallel()

	device, _ := startVirtualDevice(t)
	require.NoError(t, device.InitializeSeed(bytes.Repeat([]byte{0x22}, proto.SeedSize)))

	// A burst of mixed commands over the same connection; the half-duplex
	// framing must keep every response paired with its command.
	for i := 0; i < 20; i++ {
		info, err := device.GetDeviceInfo()
		require.NoError(t, err)
		require.NotNil(t, info)

		password, err := device.GeneratePassword([]byte{byte(i + 1)}, 8, proto.CharsetNumbersOnly)
		require.NoError(t, err)
		require.Len(t, password, 8)
	}
}
