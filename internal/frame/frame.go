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

// Package frame implements the TurtlPass transport framing: a 2-byte
// little-endian length prefix followed by exactly that many payload bytes.
// The framing never inspects payload content; it only guarantees that a
// complete message is handed to the codec, never a partial one.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Framing constants
const (
	// PrefixSize is the size of the length prefix.
	PrefixSize = 2
	// MaxPayloadSize is the largest length the 16-bit prefix can express.
	MaxPayloadSize = 65535
)

// Framing errors
var (
	// ErrPayloadTooLarge reports a frame whose declared length exceeds the
	// caller's maximum. Read drains the declared payload before returning
	// it so the stream stays aligned on the next frame boundary.
	ErrPayloadTooLarge = errors.New("frame payload exceeds maximum")
	// ErrTruncated reports a stream that ended inside a frame.
	ErrTruncated = errors.New("truncated frame")
)

// Write sends one length-prefixed frame. The prefix and payload go out in a
// single Write call so a serial driver never observes a bare prefix.
func Write(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes, prefix maximum is %d",
			ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}
	buf := make([]byte, PrefixSize+len(payload))
	binary.LittleEndian.PutUint16(buf[:PrefixSize], uint16(len(payload)))
	copy(buf[PrefixSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Read receives one frame of at most maxPayload bytes. An over-limit
// declared length is rejected before the payload is decoded, but the
// payload bytes are still consumed so that the caller can answer with a
// structured error and keep using the stream.
func Read(r io.Reader, maxPayload int) ([]byte, error) {
	var prefix [PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: incomplete length prefix", ErrTruncated)
		}
		return nil, fmt.Errorf("read frame prefix: %w", err)
	}
	length := int(binary.LittleEndian.Uint16(prefix[:]))

	if length > maxPayload {
		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return nil, fmt.Errorf("drain oversized frame: %w", err)
		}
		return nil, fmt.Errorf("%w: declared %d bytes, maximum is %d",
			ErrPayloadTooLarge, length, maxPayload)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: stream ended inside payload", ErrTruncated)
		}
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}
