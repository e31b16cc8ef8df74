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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/retroenv/retrogolib/buildinfo"

	"github.com/lassandro/emu8/pkg/machine"
	"github.com/lassandro/emu8/pkg/runner"
)

func newMachine(img *image, logger *log.Logger) (*machine.Machine, error) {
	mc := machine.NewMachine(&machine.DeviceHandler{
		Display: machine.NewDisplay(machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT),
		IO:      machine.NewIOController(logger),
	})

	if err := mc.Boot(img.Code, img.Origin, img.Entry); err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}

	return mc, nil
}

// Raw terminal mode turns off output post-processing, so line feeds need an
// explicit carriage return
type crlfWriter struct {
	w io.Writer
}

func (cw crlfWriter) Write(p []uint8) (int, error) {
	if _, err := cw.w.Write(bytes.ReplaceAll(p, []uint8("\n"), []uint8("\r\n"))); err != nil {
		return 0, err
	}

	return len(p), nil
}

func report(out io.Writer, mc *machine.Machine) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, mc)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Display output:")
	mc.Devices.Display.Render(out)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "I/O Statistics:")
	mc.Devices.IO.PrintStats(out)
}

func emulate(
	ctx context.Context, opts options, img *image, in io.Reader, out io.Writer,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var input *termInput

	if opts.Input {
		var err error

		if input, err = startTermInput(cancel); err != nil {
			return err
		}

		defer input.Stop()

		out = crlfWriter{out}
	}

	fmt.Fprintf(out, "=== emu8 %s ===\n\n", buildinfo.Version(version, commit, date))

	mc, err := newMachine(img, log.New(out, "", 0))

	if err != nil {
		return err
	}

	if input != nil {
		mc.Devices.IO.Source = input
	}

	cfg := runner.DefaultConfig()
	cfg.MaxCycles = opts.Cycles
	cfg.Logger = log.New(out, "\n", 0)

	if opts.Trace {
		cfg.Trace = out
	}

	if opts.Debug {
		// Detach from the outer context so Ctrl-C breaks into the REPL
		// instead of ending the run
		ctx, cancel = context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()

		session := newDebugSession(img, in, out, cancel)
		mc.Debugger = session.dbg

		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt)

		defer func() {
			signal.Stop(interrupts)
			close(interrupts)
		}()

		go func() {
			for range interrupts {
				session.dbg.Interrupt()
			}
		}()

		session.repl(mc)
	}

	fmt.Fprintln(out, "Running emulator...")

	result := runner.Run(ctx, mc, cfg)

	report(out, mc)

	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		return result.Err
	}

	return nil
}
