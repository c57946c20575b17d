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
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// MockTransport is an in-memory Transport scripted at the frame-payload
// level: each complete command frame written to it is handed to the
// handler, whose reply is framed and queued for Read.
type MockTransport struct {
	handler func(payload []byte) ([]byte, error)
	pending bytes.Buffer
	out     bytes.Buffer
	delay   time.Duration
	timeout time.Duration
	mu      sync.Mutex
	closed  bool
}

// NewMockTransport creates a mock transport whose default handler answers
// every command with an INTERNAL_ERROR response.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		timeout: 5 * time.Second,
		handler: func([]byte) ([]byte, error) {
			return proto.MarshalResponse(&proto.Response{Error: proto.ErrorInternalError})
		},
	}
}

// SetHandler scripts the device side: payload in, response payload out.
// Returning an error fails the host's Write call.
func (m *MockTransport) SetHandler(fn func(payload []byte) ([]byte, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// SetResponse configures a fixed response payload for all commands.
func (m *MockTransport) SetResponse(resp *proto.Response) {
	encoded, err := proto.MarshalResponse(resp)
	m.SetHandler(func([]byte) ([]byte, error) {
		return encoded, err
	})
}

// SetDelay delays every Read, for exercising timeouts and cancellation.
func (m *MockTransport) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// Write implements Transport.
func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	m.pending.Write(p)

	// Serve every complete frame that has accumulated.
	for {
		buf := m.pending.Bytes()
		if len(buf) < 2 {
			break
		}
		length := int(binary.LittleEndian.Uint16(buf[:2]))
		if len(buf) < 2+length {
			break
		}
		payload := make([]byte, length)
		copy(payload, buf[2:2+length])
		m.pending.Next(2 + length)

		reply, err := m.handler(payload)
		if err != nil {
			return 0, err
		}
		var prefix [2]byte
		binary.LittleEndian.PutUint16(prefix[:], uint16(len(reply)))
		m.out.Write(prefix[:])
		m.out.Write(reply)
	}
	return len(p), nil
}

// Read implements Transport.
func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	deadline := time.Now().Add(m.readTimeout())
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return 0, io.EOF
		}
		if m.out.Len() > 0 {
			n, _ := m.out.Read(p)
			m.mu.Unlock()
			return n, nil
		}
		m.mu.Unlock()

		if time.Now().After(deadline) {
			return 0, NewTimeoutError("read", "mock")
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *MockTransport) readTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport.
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected implements Transport.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport.
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// BlockingMockTransport is a mock transport whose Read blocks until
// Unblock or Close is called. It is used for deadlock and context
// cancellation tests.
type BlockingMockTransport struct {
	blockChan chan struct{}
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
}

// NewBlockingMockTransport creates a new blocking mock transport
func NewBlockingMockTransport() *BlockingMockTransport {
	return &BlockingMockTransport{
		blockChan: make(chan struct{}),
		timeout:   5 * time.Second,
	}
}

// Write implements Transport; writes are swallowed.
func (m *BlockingMockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return len(p), nil
}

// Read blocks until Unblock() is called, the timeout expires, or the
// transport is closed.
func (m *BlockingMockTransport) Read(_ []byte) (int, error) {
	m.mu.Lock()
	blockChan := m.blockChan
	closed := m.closed
	timeout := m.timeout
	m.mu.Unlock()

	if closed {
		return 0, io.EOF
	}

	select {
	case <-blockChan:
		return 0, io.EOF
	case <-time.After(timeout):
		return 0, NewTimeoutError("read", "mock")
	}
}

// Unblock releases all blocked Read calls.
func (m *BlockingMockTransport) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.blockChan)
		m.blockChan = make(chan struct{})
	}
}

// Close unblocks all operations and marks the transport as closed.
func (m *BlockingMockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.blockChan)
	}
	return nil
}

// SetTimeout implements Transport.
func (m *BlockingMockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected implements Transport.
func (m *BlockingMockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport.
func (*BlockingMockTransport) Type() TransportType {
	return TransportMock
}
