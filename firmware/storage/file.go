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

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// File is a Store backed by a single file holding the raw seed. The file's
// presence is the initialized flag; commits go through a temp file and
// rename so a crash mid-write leaves either the old seed or the new one.
type File struct {
	path string
}

// NewFile returns a file-backed store at path. The parent directory must
// exist; the file itself is created on first Write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Initialized implements Store.
func (f *File) Initialized() (bool, error) {
	_, err := os.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat seed file: %w", err)
}

// Read implements Store.
func (f *File) Read() ([]byte, error) {
	seed, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if len(seed) != proto.SeedSize {
		return nil, fmt.Errorf("%w: seed file is %d bytes", ErrCorrupted, len(seed))
	}
	return seed, nil
}

// Write implements Store.
func (f *File) Write(seed []byte) error {
	if len(seed) != proto.SeedSize {
		return fmt.Errorf("%w: got %d", ErrBadSeedSize, len(seed))
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".seed-*")
	if err != nil {
		return fmt.Errorf("create temp seed file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp seed file: %w", err)
	}
	if _, err := tmp.Write(seed); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp seed file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp seed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp seed file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("commit seed file: %w", err)
	}
	return nil
}

// Clear implements Store.
func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove seed file: %w", err)
	}
	return nil
}
