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

// Command turtlpass-emu runs the device-side firmware core as a software
// device, serving the protocol on a TCP listener or a serial port (e.g.
// one end of a socat pty pair). The seed persists in a local file with the
// same atomic-commit discipline real hardware uses.
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/TurtlPass/turtlpass-protobuf/firmware"
	"github.com/TurtlPass/turtlpass-protobuf/firmware/storage"
	"github.com/TurtlPass/turtlpass-protobuf/proto"
	"github.com/TurtlPass/turtlpass-protobuf/transport/uart"
)

const emulatorVersion = "2.4.0-emu"

type config struct {
	listen    string
	port      string
	storePath string
	debug     bool
}

func parseFlags() *config {
	cfg := &config{}
	flag.StringVar(&cfg.listen, "listen", "127.0.0.1:9910", "TCP address to serve the protocol on")
	flag.StringVar(&cfg.port, "device", "", "Serve on this serial port instead of TCP")
	flag.StringVar(&cfg.storePath, "store", defaultStorePath(), "Seed file path")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return cfg
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "turtlpass-seed.bin"
	}
	return filepath.Join(dir, "turtlpass-emu", "seed.bin")
}

func main() {
	cfg := parseFlags()

	level := zerolog.InfoLevel
	if cfg.debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	if err := os.MkdirAll(filepath.Dir(cfg.storePath), 0o700); err != nil {
		log.Fatal().Err(err).Msg("creating store directory")
	}

	dispatcher, err := firmware.NewDispatcher(storage.NewFile(cfg.storePath), buildInfo(cfg.storePath))
	if err != nil {
		log.Fatal().Err(err).Msg("building dispatcher")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.port != "" {
		serveSerial(ctx, log, dispatcher, cfg.port)
		return
	}
	serveTCP(ctx, log, dispatcher, cfg.listen)
}

// buildInfo assembles the identity a real device bakes in at flash time.
// The board id is derived from the store path so each emulator instance
// keeps a stable 16-byte identity.
func buildInfo(storePath string) firmware.Info {
	sum := sha256.Sum256([]byte("turtlpass-emu:" + storePath))
	info := firmware.Info{
		TurtlPassVersion: emulatorVersion,
		CompilerVersion:  runtime.Version(),
		NanopbVersion:    "protowire",
		BoardName:        "emulator",
	}
	copy(info.UniqueBoardID[:], sum[:proto.BoardIDSize])
	return info
}

func serveSerial(ctx context.Context, log zerolog.Logger, dispatcher *firmware.Dispatcher, port string) {
	transport, err := uart.New(port)
	if err != nil {
		log.Fatal().Err(err).Str("port", port).Msg("opening serial port")
	}
	defer func() {
		_ = transport.Close()
	}()

	// A device waits forever for its host; an idle port is not an error.
	if err := transport.SetTimeout(serial.NoTimeout); err != nil {
		log.Fatal().Err(err).Msg("configuring serial port")
	}

	go func() {
		<-ctx.Done()
		_ = transport.Close()
	}()

	log.Info().Str("port", port).Msg("serving on serial port")
	if err := dispatcher.Serve(ctx, transport); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("serve loop ended")
	}
}

func serveTCP(ctx context.Context, log zerolog.Logger, dispatcher *firmware.Dispatcher, addr string) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("listening")
	}
	defer func() {
		_ = listener.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("serving on tcp")
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("accept failed")
			continue
		}

		// The protocol is half-duplex with no session state beyond the
		// seed slot, so each connection is served to completion in turn.
		log.Debug().Str("peer", conn.RemoteAddr().String()).Msg("host connected")
		if err := dispatcher.Serve(ctx, conn); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("connection ended with error")
		}
		_ = conn.Close()
	}
}
