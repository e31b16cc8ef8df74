// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/lassandro/emu8/pkg/encoding"
	"github.com/lassandro/emu8/pkg/runner"
)

const usage = "emu8 [options] [program.bin|program.asm]"

const DEFAULT_LOAD uint16 = 0x8000

type options struct {
	File string

	Load     uint16
	Entry    uint16
	EntrySet bool
	Cycles   uint

	Debug   bool
	Trace   bool
	Input   bool
	Version bool

	Serve string
	WS    string
}

type UsageError struct {
	flags *flag.FlagSet
	msg   string
	err   error
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) Unwrap() error {
	return e.err
}

func (e *UsageError) ShowUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s\n\n", usage)
	fmt.Fprintln(w, "Runs the bundled demo program when no program file is given.")
	fmt.Fprintln(w)

	e.flags.SetOutput(w)
	e.flags.PrintDefaults()
}

func parseFlags(args []string) (options, error) {
	flags := flag.NewFlagSet("emu8", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	opts := options{
		Load:   DEFAULT_LOAD,
		Cycles: runner.DEFAULT_MAX_CYCLES,
	}

	flags.BoolVar(&opts.Debug, "debug", false, "Runs the machine in a debug CLI")
	flags.BoolVar(&opts.Trace, "trace", false, "Prints every instruction before it executes")
	flags.BoolVar(
		&opts.Input, "input", false,
		"Feeds terminal keystrokes to the I/O input queue. Ctrl-C stops the "+
			"machine",
	)
	flags.BoolVar(&opts.Version, "version", false, "Prints the version and exits")
	flags.UintVar(
		&opts.Cycles, "cycles", runner.DEFAULT_MAX_CYCLES,
		"Cycle budget for the run, 0 runs until halt",
	)
	flags.StringVar(&opts.Serve, "serve", "", "Serves the remote monitor over TCP at this address")
	flags.StringVar(&opts.WS, "ws", "", "Serves the remote monitor over WebSocket at this address")

	flags.Func(
		"load", "Load address for raw binaries (default 0x8000)",
		func(s string) (err error) {
			opts.Load, err = encoding.DecodeHex(s)
			return
		},
	)
	flags.Func(
		"entry", "Reset vector, defaults to the load address or the program's .ORG",
		func(s string) (err error) {
			opts.Entry, err = encoding.DecodeHex(s)
			opts.EntrySet = true
			return
		},
	)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, &UsageError{flags: flags, err: err}
		}

		return opts, &UsageError{flags: flags, msg: err.Error(), err: err}
	}

	rest := flags.Args()

	switch {
	case len(rest) > 1:
		return opts, &UsageError{flags: flags, msg: "Expected at most one program file"}
	case opts.Debug && opts.Input:
		return opts, &UsageError{flags: flags, msg: "-debug and -input both read standard input"}
	case (opts.Serve != "" || opts.WS != "") && (opts.Debug || opts.Input):
		return opts, &UsageError{
			flags: flags,
			msg:   "The remote monitor cannot be combined with -debug or -input",
		}
	}

	if len(rest) == 1 {
		opts.File = rest[0]
	}

	return opts, nil
}
