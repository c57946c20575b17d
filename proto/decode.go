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

// ErrDecodeFailed is returned for malformed wire data or any field that
// exceeds its wire cap. Callers map it to the PROTO_DECODING_FAILED code.
var ErrDecodeFailed = errors.New("malformed protocol message")

// UnmarshalCommand decodes one wire-encoded Command. Unknown fields are
// skipped for forward compatibility; anything structurally malformed or
// over a field's wire cap is rejected without partial results.
func UnmarshalCommand(data []byte) (*Command, error) {
	if len(data) > MaxCommandSize {
		return nil, fmt.Errorf("%w: command is %d bytes, maximum is %d",
			ErrDecodeFailed, len(data), MaxCommandSize)
	}
	cmd := &Command{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad field tag", ErrDecodeFailed)
		}
		data = data[n:]

		switch {
		case num == fieldCommandType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad command type varint", ErrDecodeFailed)
			}
			data = data[n:]
			cmd.Type = CommandType(int32(v))
		case num == fieldCommandGeneratePassword && typ == protowire.BytesType:
			sub, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad generate_password field", ErrDecodeFailed)
			}
			data = data[n:]
			params, err := unmarshalGeneratePassword(sub)
			if err != nil {
				return nil, err
			}
			cmd.GeneratePassword = params
			cmd.InitializeSeed = nil // last oneof variant wins
		case num == fieldCommandInitializeSeed && typ == protowire.BytesType:
			sub, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad initialize_seed field", ErrDecodeFailed)
			}
			data = data[n:]
			params, err := unmarshalInitializeSeed(sub)
			if err != nil {
				return nil, err
			}
			cmd.InitializeSeed = params
			cmd.GeneratePassword = nil
		default:
			var err error
			data, err = skipField(data, num, typ)
			if err != nil {
				return nil, err
			}
		}
	}
	return cmd, nil
}

func unmarshalGeneratePassword(data []byte) (*GeneratePasswordParams, error) {
	params := &GeneratePasswordParams{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad field tag in generate_password", ErrDecodeFailed)
		}
		data = data[n:]

		switch {
		case num == fieldGenPassEntropy && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad entropy field", ErrDecodeFailed)
			}
			if len(v) > maxEntropyWireSize {
				return nil, fmt.Errorf("%w: entropy is %d bytes, wire cap is %d",
					ErrDecodeFailed, len(v), maxEntropyWireSize)
			}
			data = data[n:]
			params.Entropy = append([]byte(nil), v...)
		case num == fieldGenPassLength && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad length varint", ErrDecodeFailed)
			}
			data = data[n:]
			params.Length = uint32(v)
		case num == fieldGenPassCharset && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad charset varint", ErrDecodeFailed)
			}
			data = data[n:]
			params.Charset = Charset(int32(v))
		default:
			var err error
			data, err = skipField(data, num, typ)
			if err != nil {
				return nil, err
			}
		}
	}
	return params, nil
}

func unmarshalInitializeSeed(data []byte) (*InitializeSeedParams, error) {
	params := &InitializeSeedParams{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad field tag in initialize_seed", ErrDecodeFailed)
		}
		data = data[n:]

		if num == fieldInitSeedSeed && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad seed field", ErrDecodeFailed)
			}
			if len(v) > maxSeedWireSize {
				return nil, fmt.Errorf("%w: seed is %d bytes, wire cap is %d",
					ErrDecodeFailed, len(v), maxSeedWireSize)
			}
			data = data[n:]
			params.Seed = append([]byte(nil), v...)
			continue
		}
		var err error
		data, err = skipField(data, num, typ)
		if err != nil {
			return nil, err
		}
	}
	return params, nil
}

// UnmarshalResponse decodes one wire-encoded Response.
func UnmarshalResponse(data []byte) (*Response, error) {
	if len(data) > MaxResponseSize {
		return nil, fmt.Errorf("%w: response is %d bytes, maximum is %d",
			ErrDecodeFailed, len(data), MaxResponseSize)
	}
	resp := &Response{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad field tag", ErrDecodeFailed)
		}
		data = data[n:]

		switch {
		case num == fieldResponseSuccess && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad success varint", ErrDecodeFailed)
			}
			data = data[n:]
			resp.Success = v != 0
		case num == fieldResponseError && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad error varint", ErrDecodeFailed)
			}
			data = data[n:]
			resp.Error = ErrorCode(int32(v))
		case num == fieldResponseDeviceInfo && typ == protowire.BytesType:
			sub, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad device_info field", ErrDecodeFailed)
			}
			data = data[n:]
			info, err := unmarshalDeviceInfo(sub)
			if err != nil {
				return nil, err
			}
			resp.DeviceInfo = info
		case num == fieldResponseData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad data field", ErrDecodeFailed)
			}
			if len(v) > MaxDataSize {
				return nil, fmt.Errorf("%w: data is %d bytes, cap is %d",
					ErrDecodeFailed, len(v), MaxDataSize)
			}
			data = data[n:]
			resp.Data = append([]byte(nil), v...)
		default:
			var err error
			data, err = skipField(data, num, typ)
			if err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

func unmarshalDeviceInfo(data []byte) (*DeviceInfo, error) {
	info := &DeviceInfo{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad field tag in device_info", ErrDecodeFailed)
		}
		data = data[n:]

		if typ != protowire.BytesType || num < fieldInfoTurtlPassVersion || num > fieldInfoUniqueBoardID {
			var err error
			data, err = skipField(data, num, typ)
			if err != nil {
				return nil, err
			}
			continue
		}

		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad device_info field %d", ErrDecodeFailed, num)
		}
		data = data[n:]

		switch num {
		case fieldInfoTurtlPassVersion:
			if len(v) > MaxTurtlPassVersionSize {
				return nil, infoSizeError("turtlpass_version", len(v), MaxTurtlPassVersionSize)
			}
			info.TurtlPassVersion = string(v)
		case fieldInfoArduinoVersion:
			if len(v) > MaxArduinoVersionSize {
				return nil, infoSizeError("arduino_version", len(v), MaxArduinoVersionSize)
			}
			info.ArduinoVersion = string(v)
		case fieldInfoCompilerVersion:
			if len(v) > MaxCompilerVersionSize {
				return nil, infoSizeError("compiler_version", len(v), MaxCompilerVersionSize)
			}
			info.CompilerVersion = string(v)
		case fieldInfoNanopbVersion:
			if len(v) > MaxNanopbVersionSize {
				return nil, infoSizeError("nanopb_version", len(v), MaxNanopbVersionSize)
			}
			info.NanopbVersion = string(v)
		case fieldInfoBoardName:
			if len(v) > MaxBoardNameSize {
				return nil, infoSizeError("board_name", len(v), MaxBoardNameSize)
			}
			info.BoardName = string(v)
		case fieldInfoUniqueBoardID:
			if len(v) != BoardIDSize {
				return nil, fmt.Errorf("%w: unique_board_id is %d bytes, must be exactly %d",
					ErrDecodeFailed, len(v), BoardIDSize)
			}
			info.UniqueBoardID = append([]byte(nil), v...)
		}
	}
	return info, nil
}

func infoSizeError(field string, size, limit int) error {
	return fmt.Errorf("%w: %s is %d bytes, cap is %d", ErrDecodeFailed, field, size, limit)
}

// skipField discards one unknown field, preserving proto3 forward
// compatibility for future schema additions.
func skipField(data []byte, num protowire.Number, typ protowire.Type) ([]byte, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return nil, fmt.Errorf("%w: bad value for field %d", ErrDecodeFailed, num)
	}
	return data[n:], nil
}
