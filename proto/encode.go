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

package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrEncodeFailed is returned when a message violates the protocol's size
// invariants and therefore must not be put on the wire.
var ErrEncodeFailed = errors.New("message violates protocol size limits")

// MarshalCommand encodes a Command for the wire. Proto3 semantics: zero
// values are omitted, so an all-default Command encodes to zero bytes.
func MarshalCommand(cmd *Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrEncodeFailed)
	}
	if cmd.GeneratePassword != nil && len(cmd.GeneratePassword.Entropy) > maxEntropyWireSize {
		return nil, fmt.Errorf("%w: entropy is %d bytes, wire cap is %d",
			ErrEncodeFailed, len(cmd.GeneratePassword.Entropy), maxEntropyWireSize)
	}
	if cmd.InitializeSeed != nil && len(cmd.InitializeSeed.Seed) > maxSeedWireSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, wire cap is %d",
			ErrEncodeFailed, len(cmd.InitializeSeed.Seed), maxSeedWireSize)
	}

	buf := make([]byte, 0, MaxCommandSize)
	if cmd.Type != CommandTypeUnknown {
		buf = protowire.AppendTag(buf, fieldCommandType, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(cmd.Type))
	}
	if cmd.GeneratePassword != nil {
		buf = protowire.AppendTag(buf, fieldCommandGeneratePassword, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendGeneratePassword(nil, cmd.GeneratePassword))
	}
	if cmd.InitializeSeed != nil {
		buf = protowire.AppendTag(buf, fieldCommandInitializeSeed, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendInitializeSeed(nil, cmd.InitializeSeed))
	}
	return buf, nil
}

func appendGeneratePassword(buf []byte, p *GeneratePasswordParams) []byte {
	if len(p.Entropy) > 0 {
		buf = protowire.AppendTag(buf, fieldGenPassEntropy, protowire.BytesType)
		buf = protowire.AppendBytes(buf, p.Entropy)
	}
	if p.Length != 0 {
		buf = protowire.AppendTag(buf, fieldGenPassLength, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(p.Length))
	}
	if p.Charset != 0 {
		buf = protowire.AppendTag(buf, fieldGenPassCharset, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(p.Charset))
	}
	return buf
}

func appendInitializeSeed(buf []byte, p *InitializeSeedParams) []byte {
	if len(p.Seed) > 0 {
		buf = protowire.AppendTag(buf, fieldInitSeedSeed, protowire.BytesType)
		buf = protowire.AppendBytes(buf, p.Seed)
	}
	return buf
}

// MarshalResponse encodes a Response for the wire. A Response that breaks
// the size caps indicates a response-builder bug; it is rejected here so a
// frame over the documented maximum can never leave the device.
func MarshalResponse(resp *Response) ([]byte, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrEncodeFailed)
	}
	if len(resp.Data) > MaxDataSize {
		return nil, fmt.Errorf("%w: data is %d bytes, cap is %d",
			ErrEncodeFailed, len(resp.Data), MaxDataSize)
	}
	if resp.DeviceInfo != nil {
		if err := validateDeviceInfo(resp.DeviceInfo); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, 0, MaxResponseSize)
	if resp.Success {
		buf = protowire.AppendTag(buf, fieldResponseSuccess, protowire.VarintType)
		buf = protowire.AppendVarint(buf, 1)
	}
	if resp.Error != ErrorNone {
		buf = protowire.AppendTag(buf, fieldResponseError, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(resp.Error))
	}
	if resp.DeviceInfo != nil {
		buf = protowire.AppendTag(buf, fieldResponseDeviceInfo, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendDeviceInfo(nil, resp.DeviceInfo))
	}
	if len(resp.Data) > 0 {
		buf = protowire.AppendTag(buf, fieldResponseData, protowire.BytesType)
		buf = protowire.AppendBytes(buf, resp.Data)
	}
	return buf, nil
}

func validateDeviceInfo(info *DeviceInfo) error {
	checks := []struct {
		name string
		size int
		cap  int
	}{
		{"turtlpass_version", len(info.TurtlPassVersion), MaxTurtlPassVersionSize},
		{"arduino_version", len(info.ArduinoVersion), MaxArduinoVersionSize},
		{"compiler_version", len(info.CompilerVersion), MaxCompilerVersionSize},
		{"nanopb_version", len(info.NanopbVersion), MaxNanopbVersionSize},
		{"board_name", len(info.BoardName), MaxBoardNameSize},
	}
	for _, c := range checks {
		if c.size > c.cap {
			return fmt.Errorf("%w: %s is %d bytes, cap is %d",
				ErrEncodeFailed, c.name, c.size, c.cap)
		}
	}
	if n := len(info.UniqueBoardID); n != 0 && n != BoardIDSize {
		return fmt.Errorf("%w: unique_board_id is %d bytes, must be exactly %d",
			ErrEncodeFailed, n, BoardIDSize)
	}
	return nil
}

func appendDeviceInfo(buf []byte, info *DeviceInfo) []byte {
	fields := []struct {
		value string
		num   protowire.Number
	}{
		{info.TurtlPassVersion, fieldInfoTurtlPassVersion},
		{info.ArduinoVersion, fieldInfoArduinoVersion},
		{info.CompilerVersion, fieldInfoCompilerVersion},
		{info.NanopbVersion, fieldInfoNanopbVersion},
		{info.BoardName, fieldInfoBoardName},
	}
	for _, f := range fields {
		if f.value != "" {
			buf = protowire.AppendTag(buf, f.num, protowire.BytesType)
			buf = protowire.AppendString(buf, f.value)
		}
	}
	if len(info.UniqueBoardID) > 0 {
		buf = protowire.AppendTag(buf, fieldInfoUniqueBoardID, protowire.BytesType)
		buf = protowire.AppendBytes(buf, info.UniqueBoardID)
	}
	return buf
}
