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

// Package storage abstracts the device's persistent seed slot.
//
// On real hardware the slot is a secure element or emulated EEPROM; here it
// is a capability interface so the dispatcher never touches persistence
// directly and tests can substitute failing doubles.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// Store errors
var (
	// ErrNotInitialized is returned by Read when no seed is stored.
	ErrNotInitialized = errors.New("seed not initialized")
	// ErrBadSeedSize is returned by Write for anything but an exact-size seed.
	ErrBadSeedSize = errors.New("seed must be exactly 64 bytes")
	// ErrCorrupted is returned when the persisted slot fails its size check.
	ErrCorrupted = errors.New("seed storage corrupted")
)

// Store is the persistent seed slot capability.
//
// Write must commit atomically: after a power loss the slot holds either
// the previous seed or the new one, never a mix.
type Store interface {
	// Initialized reports whether a seed is stored.
	Initialized() (bool, error)
	// Read returns the stored seed, exactly proto.SeedSize bytes.
	Read() ([]byte, error)
	// Write stores a seed, replacing any previous one.
	Write(seed []byte) error
	// Clear removes the stored seed. Clearing an empty slot is a no-op.
	Clear() error
}

// Memory is an in-process Store used by tests and the virtual device.
type Memory struct {
	seed [proto.SeedSize]byte
	mu   sync.Mutex
	has  bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Initialized implements Store.
func (m *Memory) Initialized() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.has, nil
}

// Read implements Store.
func (m *Memory) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return nil, ErrNotInitialized
	}
	out := make([]byte, proto.SeedSize)
	copy(out, m.seed[:])
	return out, nil
}

// Write implements Store.
func (m *Memory) Write(seed []byte) error {
	if len(seed) != proto.SeedSize {
		return fmt.Errorf("%w: got %d", ErrBadSeedSize, len(seed))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.seed[:], seed)
	m.has = true
	return nil
}

// Clear implements Store.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seed = [proto.SeedSize]byte{}
	m.has = false
	return nil
}
