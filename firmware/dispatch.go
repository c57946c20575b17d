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

// Package firmware implements the device side of the TurtlPass protocol:
// command validation, dispatch, the four command handlers, and the
// half-duplex serve loop. It is the same logic the microcontroller
// firmware runs, expressed over injected seed-storage and derivation
// capabilities so it can back the emulator and the test suite.
package firmware

import (
	"errors"
	"fmt"

	"github.com/TurtlPass/turtlpass-protobuf/firmware/storage"
	"github.com/TurtlPass/turtlpass-protobuf/kdf"
	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// Password length bounds. The maximum is pinned to the response data cap;
// a zero request selects DefaultPasswordLength (proto3 unset).
const (
	DefaultPasswordLength = 100
	MinPasswordLength     = 4
	MaxPasswordLength     = proto.MaxDataSize
)

// DeriveFunc is the deterministic password derivation capability.
type DeriveFunc func(seed, entropy []byte, length int, alphabet string) ([]byte, error)

// Info holds the static build/hardware identity reported by
// GET_DEVICE_INFO. All fields are fixed before the dispatcher starts.
type Info struct {
	TurtlPassVersion string
	ArduinoVersion   string
	CompilerVersion  string
	NanopbVersion    string
	BoardName        string
	UniqueBoardID    [proto.BoardIDSize]byte
}

func (i *Info) validate() error {
	checks := []struct {
		name string
		size int
		cap  int
	}{
		{"TurtlPassVersion", len(i.TurtlPassVersion), proto.MaxTurtlPassVersionSize},
		{"ArduinoVersion", len(i.ArduinoVersion), proto.MaxArduinoVersionSize},
		{"CompilerVersion", len(i.CompilerVersion), proto.MaxCompilerVersionSize},
		{"NanopbVersion", len(i.NanopbVersion), proto.MaxNanopbVersionSize},
		{"BoardName", len(i.BoardName), proto.MaxBoardNameSize},
	}
	for _, c := range checks {
		if c.size > c.cap {
			return fmt.Errorf("device info %s is %d bytes, cap is %d", c.name, c.size, c.cap)
		}
	}
	return nil
}

func (i *Info) deviceInfo() *proto.DeviceInfo {
	id := make([]byte, proto.BoardIDSize)
	copy(id, i.UniqueBoardID[:])
	return &proto.DeviceInfo{
		TurtlPassVersion: i.TurtlPassVersion,
		ArduinoVersion:   i.ArduinoVersion,
		CompilerVersion:  i.CompilerVersion,
		NanopbVersion:    i.NanopbVersion,
		BoardName:        i.BoardName,
		UniqueBoardID:    id,
	}
}

// Dispatcher routes decoded Commands to their handlers. It performs no I/O
// of its own; the only side effects are the seed-store reads and writes its
// handlers make.
type Dispatcher struct {
	store  storage.Store
	derive DeriveFunc
	info   Info
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDerive replaces the default derivation function.
func WithDerive(derive DeriveFunc) DispatcherOption {
	return func(d *Dispatcher) {
		d.derive = derive
	}
}

// NewDispatcher creates a dispatcher over the given seed store and device
// identity. Derivation defaults to kdf.Derive.
func NewDispatcher(store storage.Store, info Info, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("firmware: nil seed store")
	}
	if err := info.validate(); err != nil {
		return nil, fmt.Errorf("firmware: %w", err)
	}
	d := &Dispatcher{
		store:  store,
		derive: kdf.Derive,
		info:   info,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch validates one Command and runs its handler. Every path returns a
// structured Response; nothing escapes as a panic or a bare error. Checks
// run in a fixed order and the first failure wins.
func (d *Dispatcher) Dispatch(cmd *proto.Command) *proto.Response {
	if cmd == nil || cmd.Type == proto.CommandTypeUnknown {
		return fail(proto.ErrorInvalidCommand)
	}

	switch cmd.Type {
	case proto.CommandTypeGetDeviceInfo:
		// Any stray payload is ignored; the command takes no parameters.
		return d.handleGetDeviceInfo()
	case proto.CommandTypeInitializeSeed:
		if cmd.InitializeSeed == nil || cmd.GeneratePassword != nil {
			return fail(proto.ErrorInvalidParams)
		}
		return d.handleInitializeSeed(cmd.InitializeSeed)
	case proto.CommandTypeGeneratePassword:
		if cmd.GeneratePassword == nil || cmd.InitializeSeed != nil {
			return fail(proto.ErrorInvalidParams)
		}
		return d.handleGeneratePassword(cmd.GeneratePassword)
	case proto.CommandTypeFactoryReset:
		return d.handleFactoryReset()
	default:
		return fail(proto.ErrorInvalidCommand)
	}
}

// handleGetDeviceInfo reports the static build identity. Never changes
// device state.
func (d *Dispatcher) handleGetDeviceInfo() *proto.Response {
	return &proto.Response{
		Success:    true,
		Error:      proto.ErrorNone,
		DeviceInfo: d.info.deviceInfo(),
	}
}

// handleInitializeSeed persists a new seed. An already-initialized device
// is overwritten: re-provisioning must not require a factory reset first.
func (d *Dispatcher) handleInitializeSeed(params *proto.InitializeSeedParams) *proto.Response {
	if len(params.Seed) != proto.SeedSize {
		return fail(proto.ErrorInvalidSeedLength)
	}
	if err := d.store.Write(params.Seed); err != nil {
		return fail(proto.ErrorInternalError)
	}
	return ok(nil)
}

// handleGeneratePassword derives a password from the stored seed and the
// supplied entropy. Read-only with respect to device state.
func (d *Dispatcher) handleGeneratePassword(params *proto.GeneratePasswordParams) *proto.Response {
	initialized, err := d.store.Initialized()
	if err != nil {
		return fail(proto.ErrorInternalError)
	}
	if !initialized {
		return fail(proto.ErrorSeedNotInitialized)
	}
	if len(params.Entropy) < 1 || len(params.Entropy) > proto.MaxEntropySize {
		return fail(proto.ErrorInvalidEntropyLength)
	}
	length := int(params.Length)
	if length == 0 {
		length = DefaultPasswordLength
	}
	if length < MinPasswordLength || length > MaxPasswordLength {
		return fail(proto.ErrorInvalidPasswordLength)
	}

	seed, err := d.store.Read()
	if err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return fail(proto.ErrorSeedNotInitialized)
		}
		return fail(proto.ErrorInternalError)
	}
	password, err := d.derive(seed, params.Entropy, length, kdf.Alphabet(params.Charset))
	if err != nil {
		return fail(proto.ErrorPasswordFailed)
	}
	if len(password) != length {
		return fail(proto.ErrorPasswordFailed)
	}
	return ok(password)
}

// handleFactoryReset clears the seed slot. Idempotent: resetting an
// uninitialized device succeeds without touching state.
func (d *Dispatcher) handleFactoryReset() *proto.Response {
	if err := d.store.Clear(); err != nil {
		return fail(proto.ErrorInternalError)
	}
	return ok(nil)
}

// ok builds a success Response. Success/error coupling and the data
// population rule live here so handlers cannot produce an inconsistent
// Response.
func ok(data []byte) *proto.Response {
	return &proto.Response{
		Success: true,
		Error:   proto.ErrorNone,
		Data:    data,
	}
}

// fail builds a failure Response with empty data and no device info.
func fail(code proto.ErrorCode) *proto.Response {
	return &proto.Response{
		Success: false,
		Error:   code,
	}
}
