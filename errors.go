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
	"errors"
	"fmt"

	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// Transport and protocol errors
var (
	ErrDeviceNotFound      = errors.New("turtlpass device not found")
	ErrNotConnected        = errors.New("transport not connected")
	ErrTransportRead       = errors.New("transport read failed")
	ErrTransportWrite      = errors.New("transport write failed")
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrCommunicationFailed = errors.New("communication with device failed")
	// ErrProtocolViolation reports a device response that breaks the
	// protocol invariants (for example success=true with a non-NONE error).
	ErrProtocolViolation = errors.New("device violated protocol invariants")
)

// ErrorType classifies a transport failure for retry decisions.
type ErrorType int

// Error types
const (
	// ErrorTypePermanent failures will not succeed on retry.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient failures may succeed on retry.
	ErrorTypeTransient
)

// TransportError wraps a transport-level failure with the operation and
// port it occurred on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s on %s: %v", e.Op, e.Port, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError; transient errors are marked
// retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient,
	}
}

// NewTimeoutError creates a retryable timeout TransportError.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTransient)
}

// IsRetryable reports whether an operation that failed with err is worth
// retrying on the same transport.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}
	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed):
		return true
	default:
		return false
	}
}

// ResponseError is a structured failure reported by the device itself: the
// command reached the device and came back with success=false.
type ResponseError struct {
	Code proto.ErrorCode
}

// Error implements error.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("device reported %s", e.Code)
}

// ResponseCode extracts the device error code from err, if err carries one.
func ResponseCode(err error) (proto.ErrorCode, bool) {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Code, true
	}
	return proto.ErrorNone, false
}
