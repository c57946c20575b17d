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

// Package proto defines the TurtlPass message model and its proto3 wire
// codec.
//
// The schema is hand-encoded with protowire rather than generated code so
// that every field size cap can be enforced during encoding and decoding,
// mirroring the fixed nanopb buffers on the device. Field numbers and enum
// values are part of the wire contract and must never be renumbered.
package proto

// CommandType identifies which operation a Command requests.
type CommandType int32

// Command types
const (
	CommandTypeUnknown          CommandType = 0
	CommandTypeGetDeviceInfo    CommandType = 1
	CommandTypeInitializeSeed   CommandType = 2
	CommandTypeGeneratePassword CommandType = 3
	CommandTypeFactoryReset     CommandType = 4
)

// String returns the protocol name of the command type.
func (t CommandType) String() string {
	switch t {
	case CommandTypeGetDeviceInfo:
		return "GET_DEVICE_INFO"
	case CommandTypeInitializeSeed:
		return "INITIALIZE_SEED"
	case CommandTypeGeneratePassword:
		return "GENERATE_PASSWORD"
	case CommandTypeFactoryReset:
		return "FACTORY_RESET"
	case CommandTypeUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// Charset selects the alphabet a generated password is rendered with.
type Charset int32

// Charsets
const (
	CharsetLettersOnly           Charset = 0
	CharsetNumbersOnly           Charset = 1
	CharsetLettersNumbers        Charset = 2
	CharsetLettersNumbersSymbols Charset = 3
)

// Valid reports whether the charset is one of the defined values.
func (c Charset) Valid() bool {
	return c >= CharsetLettersOnly && c <= CharsetLettersNumbersSymbols
}

// ErrorCode is the structured failure code carried in every Response.
type ErrorCode int32

// Error codes
const (
	ErrorNone                  ErrorCode = 0
	ErrorProtoDecodingFailed   ErrorCode = 1
	ErrorProtoEncodingFailed   ErrorCode = 2
	ErrorInvalidCommand        ErrorCode = 3
	ErrorInvalidParams         ErrorCode = 4
	ErrorInvalidEntropyLength  ErrorCode = 5
	ErrorInvalidPasswordLength ErrorCode = 6
	ErrorInvalidSeedLength     ErrorCode = 7
	ErrorSeedNotInitialized    ErrorCode = 8
	ErrorPasswordFailed        ErrorCode = 9
	ErrorInternalError         ErrorCode = 10
)

// String returns the protocol name of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrorNone:
		return "NONE"
	case ErrorProtoDecodingFailed:
		return "PROTO_DECODING_FAILED"
	case ErrorProtoEncodingFailed:
		return "PROTO_ENCODING_FAILED"
	case ErrorInvalidCommand:
		return "INVALID_COMMAND"
	case ErrorInvalidParams:
		return "INVALID_PARAMS"
	case ErrorInvalidEntropyLength:
		return "INVALID_ENTROPY_LENGTH"
	case ErrorInvalidPasswordLength:
		return "INVALID_PASSWORD_LENGTH"
	case ErrorInvalidSeedLength:
		return "INVALID_SEED_LENGTH"
	case ErrorSeedNotInitialized:
		return "SEED_NOT_INITIALIZED"
	case ErrorPasswordFailed:
		return "PASSWORD_FAILED"
	case ErrorInternalError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Field size limits. These match the fixed buffer sizes compiled into the
// device firmware; the codec rejects anything larger instead of truncating.
const (
	// MaxEntropySize is the largest accepted entropy input.
	MaxEntropySize = 64
	// SeedSize is the exact size of the device seed.
	SeedSize = 64
	// MaxDataSize caps the Response data field (generated password bytes).
	MaxDataSize = 512

	// DeviceInfo field caps.
	MaxTurtlPassVersionSize = 32
	MaxArduinoVersionSize   = 16
	MaxCompilerVersionSize  = 32
	MaxNanopbVersionSize    = 32
	MaxBoardNameSize        = 32
	// BoardIDSize is the exact size of the unique board identifier.
	BoardIDSize = 16
)

// Wire-level caps for the variable-length Command fields. These are looser
// than the semantic limits so that a near-miss length (a 65-byte seed, say)
// still decodes and is answered with the specific validation error code
// instead of an opaque decode failure.
const (
	maxEntropyWireSize = 2 * MaxEntropySize
	maxSeedWireSize    = 2 * SeedSize
)

// Proto field numbers. Stable wire contract; never renumber.
const (
	fieldCommandType             = 1
	fieldCommandGeneratePassword = 2
	fieldCommandInitializeSeed   = 3

	fieldGenPassEntropy = 1
	fieldGenPassLength  = 2
	fieldGenPassCharset = 3

	fieldInitSeedSeed = 1

	fieldResponseSuccess    = 1
	fieldResponseError      = 2
	fieldResponseDeviceInfo = 3
	fieldResponseData       = 4

	fieldInfoTurtlPassVersion = 1
	fieldInfoArduinoVersion   = 2
	fieldInfoCompilerVersion  = 3
	fieldInfoNanopbVersion    = 4
	fieldInfoBoardName        = 5
	fieldInfoUniqueBoardID    = 6
)

// Worst-case encoded sizes. Each term is tag byte(s) + length/varint bytes +
// payload cap for one field; framing buffers are sized from these so no
// dynamic allocation is ever forced by a well-formed peer. Payloads past 127
// bytes need a 2-byte length varint, hence the 3-byte overhead on the large
// fields and on the nested messages that contain them.
const (
	maxGenPassSize  = (3 + maxEntropyWireSize) + 6 + 2
	maxInitSeedSize = 3 + maxSeedWireSize

	// MaxCommandSize bounds any well-formed encoded Command.
	MaxCommandSize = 2 + (3 + maxGenPassSize)

	maxDeviceInfoSize = (2 + MaxTurtlPassVersionSize) + (2 + MaxArduinoVersionSize) +
		(2 + MaxCompilerVersionSize) + (2 + MaxNanopbVersionSize) +
		(2 + MaxBoardNameSize) + (2 + BoardIDSize)

	// MaxResponseSize bounds any well-formed encoded Response.
	MaxResponseSize = 2 + 2 + (3 + maxDeviceInfoSize) + (3 + MaxDataSize)
)

// GeneratePasswordParams carries the inputs of a GENERATE_PASSWORD command.
type GeneratePasswordParams struct {
	// Entropy is the caller-supplied selector, 1-64 bytes.
	Entropy []byte
	// Length is the requested password length; 0 selects the device default.
	Length uint32
	// Charset selects the output alphabet.
	Charset Charset
}

// InitializeSeedParams carries the 64-byte seed of an INITIALIZE_SEED
// command.
type InitializeSeedParams struct {
	Seed []byte
}

// Command is one host request. Exactly one params field may be set and it
// must match Type; the dispatcher, not the codec, enforces that pairing.
type Command struct {
	GeneratePassword *GeneratePasswordParams
	InitializeSeed   *InitializeSeedParams
	Type             CommandType
}

// DeviceInfo describes the device build. All fields are fixed at flash time
// and never change over the lifetime of a connection.
type DeviceInfo struct {
	TurtlPassVersion string
	ArduinoVersion   string
	CompilerVersion  string
	NanopbVersion    string
	BoardName        string
	UniqueBoardID    []byte
}

// Response is the device's answer to one Command.
//
// Invariants: Success is true iff Error is ErrorNone; DeviceInfo is only
// populated for a successful GET_DEVICE_INFO; Data is only populated on
// success for commands that produce output bytes.
type Response struct {
	DeviceInfo *DeviceInfo
	Data       []byte
	Error      ErrorCode
	Success    bool
}
