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

// Command turtlpass talks to a TurtlPass device over USB CDC serial:
// query its identity, provision a seed, generate passwords, factory-reset.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	turtlpass "github.com/TurtlPass/turtlpass-protobuf"
	"github.com/TurtlPass/turtlpass-protobuf/detection"
	"github.com/TurtlPass/turtlpass-protobuf/proto"
	"github.com/TurtlPass/turtlpass-protobuf/transport/uart"
)

// envConfig holds environment defaults so scripted use doesn't need flags.
type envConfig struct {
	Port    string        `env:"TURTLPASS_PORT"`
	Timeout time.Duration `env:"TURTLPASS_TIMEOUT" envDefault:"5s"`
}

type cliConfig struct {
	port    string
	timeout time.Duration
	debug   bool

	info    bool
	reset   bool
	seedHex string

	entropyHex string
	length     int
	charset    string
}

func parseFlags(defaults envConfig) *cliConfig {
	cfg := &cliConfig{}
	flag.StringVar(&cfg.port, "device", defaults.Port,
		"Serial device path (e.g., /dev/ttyACM0 or COM5). Leave empty for auto-detection.")
	flag.DurationVar(&cfg.timeout, "timeout", defaults.Timeout, "Timeout per command")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug output")

	flag.BoolVar(&cfg.info, "info", false, "Print device info")
	flag.BoolVar(&cfg.reset, "reset", false, "Factory-reset the device")
	flag.StringVar(&cfg.seedHex, "init-seed", "",
		"Provision the device with this seed (128 hex characters)")

	flag.StringVar(&cfg.entropyHex, "generate", "",
		"Generate a password from this entropy (hex, 1-64 bytes)")
	flag.IntVar(&cfg.length, "length", 0, "Password length (0 = device default)")
	flag.StringVar(&cfg.charset, "charset", "alnum",
		"Password charset: alpha, num, alnum, full")
	flag.Parse()

	if cfg.debug {
		turtlpass.SetDebugEnabled(true)
	}
	return cfg
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var defaults envConfig
	if err := env.Parse(&defaults); err != nil {
		log.Fatal().Err(err).Msg("parsing environment")
	}
	cfg := parseFlags(defaults)

	if err := run(log, cfg); err != nil {
		if code, ok := turtlpass.ResponseCode(err); ok {
			log.Fatal().Str("code", code.String()).Msg("device rejected command")
		}
		log.Fatal().Err(err).Msg("command failed")
	}
}

func run(log zerolog.Logger, cfg *cliConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	path := cfg.port
	if path == "" {
		detected, err := detection.Detect(ctx)
		if err != nil {
			return fmt.Errorf("auto-detection failed: %w", err)
		}
		if len(detected) == 0 {
			return turtlpass.ErrDeviceNotFound
		}
		path = detected[0].Path
		log.Info().Str("path", path).Str("vidpid", detected[0].VIDPID).Msg("detected device")
	}

	transport, err := uart.New(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = transport.Close()
	}()

	device, err := turtlpass.New(transport, turtlpass.WithTimeout(cfg.timeout))
	if err != nil {
		return err
	}

	switch {
	case cfg.info:
		return printInfo(ctx, device)
	case cfg.seedHex != "":
		return initSeed(ctx, log, device, cfg.seedHex)
	case cfg.entropyHex != "":
		return generate(ctx, device, cfg)
	case cfg.reset:
		if err := device.FactoryResetContext(ctx); err != nil {
			return err
		}
		log.Info().Msg("device reset to factory state")
		return nil
	default:
		flag.Usage()
		return errors.New("no operation requested")
	}
}

func printInfo(ctx context.Context, device *turtlpass.Device) error {
	info, err := device.GetDeviceInfoContext(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("TurtlPass version: %s\n", info.TurtlPassVersion)
	fmt.Printf("Arduino version:   %s\n", info.ArduinoVersion)
	fmt.Printf("Compiler version:  %s\n", info.CompilerVersion)
	fmt.Printf("Nanopb version:    %s\n", info.NanopbVersion)
	fmt.Printf("Board:             %s\n", info.BoardName)
	fmt.Printf("Board ID:          %s\n", hex.EncodeToString(info.UniqueBoardID))
	return nil
}

func initSeed(ctx context.Context, log zerolog.Logger, device *turtlpass.Device, seedHex string) error {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return fmt.Errorf("seed must be hex: %w", err)
	}
	if err := device.InitializeSeedContext(ctx, seed); err != nil {
		return err
	}
	log.Info().Msg("seed provisioned")
	return nil
}

func generate(ctx context.Context, device *turtlpass.Device, cfg *cliConfig) error {
	entropy, err := hex.DecodeString(cfg.entropyHex)
	if err != nil {
		return fmt.Errorf("entropy must be hex: %w", err)
	}
	charset, err := parseCharset(cfg.charset)
	if err != nil {
		return err
	}
	password, err := device.GeneratePasswordContext(ctx, entropy, cfg.length, charset)
	if err != nil {
		return err
	}
	fmt.Println(string(password))
	return nil
}

func parseCharset(name string) (proto.Charset, error) {
	switch name {
	case "alpha":
		return proto.CharsetLettersOnly, nil
	case "num":
		return proto.CharsetNumbersOnly, nil
	case "alnum":
		return proto.CharsetLettersNumbers, nil
	case "full":
		return proto.CharsetLettersNumbersSymbols, nil
	default:
		return 0, fmt.Errorf("unknown charset %q", name)
	}
}
