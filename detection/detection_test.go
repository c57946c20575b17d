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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Detect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMatchesVIDPID(t *testing.T) {
	t.Parallel()

	accepted := []string{"2E8A:000A", "2E8A:00C0"}
	assert.True(t, matchesVIDPID("2E8A:000A", accepted))
	assert.False(t, matchesVIDPID("2E8A:F00A", accepted))
	assert.False(t, matchesVIDPID("", accepted))
	assert.False(t, matchesVIDPID("2E8A:000A", nil))
}

func TestKnownVIDPIDsAreWellFormed(t *testing.T) {
	t.Parallel()

	for _, vidpid := range knownVIDPIDs {
		assert.Equal(t, vidpid, ParseVIDPID(vidpid),
			"accept-list entry %s must already be in canonical form", vidpid)
	}
}
