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

package firmware

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/TurtlPass/turtlpass-protobuf/internal/frame"
	"github.com/TurtlPass/turtlpass-protobuf/proto"
)

// Serve runs the half-duplex command loop over rw: read one frame, decode,
// dispatch, answer, repeat. Exactly one command is in flight at a time and
// its side effects complete before the response frame is written.
//
// A frame that fails to decode, including one whose declared length exceeds
// the command maximum, is answered with PROTO_DECODING_FAILED and the loop
// continues. Serve returns nil when the peer closes the stream and the
// context error when ctx is cancelled; cancellation is observed between
// frames, so callers that need a prompt stop should also close rw.
func (d *Dispatcher) Serve(ctx context.Context, rw io.ReadWriter) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := frame.Read(rw, proto.MaxCommandSize)
		if err != nil {
			switch {
			case errors.Is(err, frame.ErrPayloadTooLarge):
				// Stream is drained and aligned; report and keep serving.
				if werr := d.writeResponse(rw, fail(proto.ErrorProtoDecodingFailed)); werr != nil {
					return werr
				}
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
				return nil
			default:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("firmware: %w", err)
			}
		}

		resp := d.Handle(payload)
		if err := d.writeResponse(rw, resp); err != nil {
			return err
		}
	}
}

// Handle processes one raw command payload and returns the Response,
// byte-level decode included. It is the single-frame core of Serve, split
// out so transports that do their own framing can reuse it.
func (d *Dispatcher) Handle(payload []byte) *proto.Response {
	cmd, err := proto.UnmarshalCommand(payload)
	if err != nil {
		return fail(proto.ErrorProtoDecodingFailed)
	}
	return d.Dispatch(cmd)
}

func (d *Dispatcher) writeResponse(w io.Writer, resp *proto.Response) error {
	encoded, err := proto.MarshalResponse(resp)
	if err != nil {
		// The response builder produced something over the caps; report the
		// inconsistency rather than emitting a truncated frame.
		encoded, err = proto.MarshalResponse(fail(proto.ErrorProtoEncodingFailed))
		if err != nil {
			return fmt.Errorf("firmware: encode fallback response: %w", err)
		}
	}
	if err := frame.Write(w, encoded); err != nil {
		return fmt.Errorf("firmware: %w", err)
	}
	return nil
}
