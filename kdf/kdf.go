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

// Package kdf implements the deterministic password derivation used by
// TurtlPass devices.
//
// The derivation expands an HKDF-SHA512 keystream from the stored seed and
// the caller-supplied entropy, then renders it onto the selected alphabet
// with rejection sampling so every character is drawn uniformly. The same
// (seed, entropy, length, alphabet) inputs always produce the same
// password; there is no internal randomness or counter.
package kdf

import (
	"crypto/sha512"
	"errors"
	"fmt"

	"golang.org/x/crypto/hkdf"

	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// Password alphabets, one per protocol charset.
const (
	AlphabetLetters        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	AlphabetNumbers        = "0123456789"
	AlphabetLettersNumbers = AlphabetLetters + AlphabetNumbers
	AlphabetFull           = AlphabetLettersNumbers + "!@#$%^&*()-_=+[]{}<>?"
)

// Derivation errors
var (
	ErrEmptySeed       = errors.New("kdf: empty seed")
	ErrEmptyEntropy    = errors.New("kdf: empty entropy")
	ErrInvalidLength   = errors.New("kdf: invalid output length")
	ErrInvalidAlphabet = errors.New("kdf: invalid alphabet")
)

// Alphabet maps a protocol charset to its alphabet. Unrecognized values
// fall back to the LETTERS_NUMBERS default, matching the device firmware.
func Alphabet(charset proto.Charset) string {
	switch charset {
	case proto.CharsetLettersOnly:
		return AlphabetLetters
	case proto.CharsetNumbersOnly:
		return AlphabetNumbers
	case proto.CharsetLettersNumbers:
		return AlphabetLettersNumbers
	case proto.CharsetLettersNumbersSymbols:
		return AlphabetFull
	default:
		return AlphabetLettersNumbers
	}
}

// Derive produces length password bytes from (seed, entropy), each drawn
// from alphabet. The function is pure: identical inputs yield identical
// output, distinct entropy yields an independent keystream.
func Derive(seed, entropy []byte, length int, alphabet string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}
	if len(entropy) == 0 {
		return nil, ErrEmptyEntropy
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if len(alphabet) < 2 || len(alphabet) > 256 {
		return nil, fmt.Errorf("%w: %d characters", ErrInvalidAlphabet, len(alphabet))
	}

	// Entropy goes in as HKDF info rather than salt: the seed is already
	// full-strength key material, and info-binding keeps each (domain,
	// account) selector in its own expansion domain.
	keystream := hkdf.New(sha512.New, seed, nil, entropy)

	// Rejection sampling: keystream bytes at or above the largest multiple
	// of len(alphabet) are discarded, never folded, so no character of the
	// alphabet is more likely than another.
	limit := byte(256 - 256%len(alphabet))

	out := make([]byte, 0, length)
	var chunk [64]byte
	for len(out) < length {
		n, err := keystream.Read(chunk[:])
		if err != nil {
			return nil, fmt.Errorf("kdf: keystream exhausted: %w", err)
		}
		for _, b := range chunk[:n] {
			if limit != 0 && b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return out, nil
}
