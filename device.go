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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TurtlPass/turtlpass-protobuf/internal/frame"
	itransport "github.com/TurtlPass/turtlpass-protobuf/internal/transport"
	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures retry behavior for transport operations
	RetryConfig *RetryConfig
	// Timeout is the default timeout for one command/response exchange
	Timeout time.Duration
}

// RetryConfig configures how transient transport failures are retried.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     1 * time.Second,
	}
}

// Device is the host-side handle to one TurtlPass device.
//
// The protocol is strictly half-duplex: one command is sent, its response
// read, and only then may the next command go out. Device serializes all
// operations on an internal mutex, so it is safe to share between
// goroutines, but commands never pipeline.
type Device struct {
	transport Transport
	config    *DeviceConfig

	// mu enforces the half-duplex request/response discipline.
	mu sync.Mutex
	// dirty is set when an exchange was abandoned mid-frame; the next
	// exchange resynchronizes by draining stale bytes first.
	dirty atomic.Bool
}

// New creates a new TurtlPass device over the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.transport
}

// Close closes the underlying transport.
func (d *Device) Close() error {
	return d.transport.Close()
}

// GetDeviceInfo asks the device for its build and hardware identity.
func (d *Device) GetDeviceInfo() (*proto.DeviceInfo, error) {
	return d.GetDeviceInfoContext(context.Background())
}

// GetDeviceInfoContext is GetDeviceInfo with context support.
func (d *Device) GetDeviceInfoContext(ctx context.Context) (*proto.DeviceInfo, error) {
	resp, err := d.exchangeContext(ctx, &proto.Command{Type: proto.CommandTypeGetDeviceInfo})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ResponseError{Code: resp.Error}
	}
	if resp.DeviceInfo == nil {
		return nil, fmt.Errorf("%w: GET_DEVICE_INFO succeeded without device info", ErrProtocolViolation)
	}
	return resp.DeviceInfo, nil
}

// InitializeSeed provisions the device with a 64-byte seed. The seed is
// passed through unchecked; a wrong length comes back as the device's
// INVALID_SEED_LENGTH code.
func (d *Device) InitializeSeed(seed []byte) error {
	return d.InitializeSeedContext(context.Background(), seed)
}

// InitializeSeedContext is InitializeSeed with context support.
func (d *Device) InitializeSeedContext(ctx context.Context, seed []byte) error {
	resp, err := d.exchangeContext(ctx, &proto.Command{
		Type:           proto.CommandTypeInitializeSeed,
		InitializeSeed: &proto.InitializeSeedParams{Seed: seed},
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return &ResponseError{Code: resp.Error}
	}
	return nil
}

// GeneratePassword derives a password of the requested length from the
// device seed and the supplied entropy. length 0 selects the device
// default (100).
func (d *Device) GeneratePassword(entropy []byte, length int, charset proto.Charset) ([]byte, error) {
	return d.GeneratePasswordContext(context.Background(), entropy, length, charset)
}

// GeneratePasswordContext is GeneratePassword with context support.
func (d *Device) GeneratePasswordContext(
	ctx context.Context, entropy []byte, length int, charset proto.Charset,
) ([]byte, error) {
	if length < 0 || length > proto.MaxDataSize {
		return nil, &ResponseError{Code: proto.ErrorInvalidPasswordLength}
	}
	resp, err := d.exchangeContext(ctx, &proto.Command{
		Type: proto.CommandTypeGeneratePassword,
		GeneratePassword: &proto.GeneratePasswordParams{
			Entropy: entropy,
			Length:  uint32(length),
			Charset: charset,
		},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ResponseError{Code: resp.Error}
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: GENERATE_PASSWORD succeeded without data", ErrProtocolViolation)
	}
	return resp.Data, nil
}

// FactoryReset clears the device seed and any other persisted state.
// Resetting an uninitialized device succeeds.
func (d *Device) FactoryReset() error {
	return d.FactoryResetContext(context.Background())
}

// FactoryResetContext is FactoryReset with context support.
func (d *Device) FactoryResetContext(ctx context.Context) error {
	resp, err := d.exchangeContext(ctx, &proto.Command{Type: proto.CommandTypeFactoryReset})
	if err != nil {
		return err
	}
	if !resp.Success {
		return &ResponseError{Code: resp.Error}
	}
	return nil
}

// exchangeContext performs one framed command/response exchange, honoring
// ctx. The blocking exchange runs in a goroutine; on cancellation the
// stream is marked dirty so the next exchange resynchronizes.
func (d *Device) exchangeContext(ctx context.Context, cmd *proto.Command) (*proto.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := d.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}

	type result struct {
		resp *proto.Response
		err  error
	}
	resultChan := make(chan result, 1)

	go func() {
		resp, err := d.exchange(cmd, timeout)
		resultChan <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		// The in-flight exchange may still be mid-frame; poison the stream
		// so the next caller drains it before writing.
		d.dirty.Store(true)
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.resp, res.err
	}
}

// exchange writes one command frame and reads one response frame, retrying
// the whole round trip on transient transport errors.
func (d *Device) exchange(cmd *proto.Command, timeout time.Duration) (*proto.Response, error) {
	payload, err := proto.MarshalCommand(cmd)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.transport.IsConnected() {
		return nil, ErrNotConnected
	}
	if err := d.transport.SetTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set transport timeout: %w", err)
	}

	retryCfg := itransport.Config{Retryable: IsRetryable, MaxAttempts: 1}
	if rc := d.config.RetryConfig; rc != nil {
		retryCfg.MaxAttempts = rc.MaxAttempts
		retryCfg.InitialBackoff = rc.InitialBackoff
		retryCfg.MaxBackoff = rc.MaxBackoff
	}

	resp, err := itransport.WithRetry(retryCfg, func() (*proto.Response, error) {
		return d.roundTripLocked(payload, timeout)
	})
	if err != nil {
		return nil, err
	}
	if resp.Success != (resp.Error == proto.ErrorNone) {
		return nil, fmt.Errorf("%w: success=%t with error=%s",
			ErrProtocolViolation, resp.Success, resp.Error)
	}
	return resp, nil
}

func (d *Device) roundTripLocked(payload []byte, timeout time.Duration) (*proto.Response, error) {
	if d.dirty.Swap(false) {
		d.drainLocked(timeout)
	}

	if err := frame.Write(d.transport, payload); err != nil {
		d.dirty.Store(true)
		return nil, NewTransportError("write", string(d.transport.Type()),
			fmt.Errorf("%w: %w", ErrTransportWrite, err), ErrorTypeTransient)
	}

	respPayload, err := frame.Read(d.transport, proto.MaxResponseSize)
	if err != nil {
		d.dirty.Store(true)
		if IsRetryable(err) {
			return nil, err
		}
		return nil, NewTransportError("read", string(d.transport.Type()),
			fmt.Errorf("%w: %w", ErrTransportRead, err), ErrorTypeTransient)
	}

	resp, err := proto.UnmarshalResponse(respPayload)
	if err != nil {
		// The frame was complete, so the stream is still aligned.
		return nil, err
	}
	return resp, nil
}

// drainLocked discards stale bytes left over from an abandoned exchange.
// Best effort: it reads with a short timeout until the stream runs dry,
// then restores the current exchange's timeout.
func (d *Device) drainLocked(restore time.Duration) {
	if err := d.transport.SetTimeout(20 * time.Millisecond); err != nil {
		return
	}
	defer func() {
		_ = d.transport.SetTimeout(restore)
	}()

	buf := make([]byte, 256)
	for i := 0; i < 64; i++ {
		n, err := d.transport.Read(buf)
		if err != nil || n == 0 {
			return
		}
		debugf("drained %d stale bytes", n)
	}
}
