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

// Package runner drives a machine until it halts, faults, exhausts its
// cycle budget or is cancelled.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/lassandro/emu8/pkg/disasm"
	"github.com/lassandro/emu8/pkg/machine"
)

const (
	DEFAULT_MAX_CYCLES      = 10000
	DEFAULT_UPDATE_INTERVAL = 100
)

type Config struct {
	// Zero runs without a budget
	MaxCycles uint
	// I/O Update is called whenever the cycle total crosses a multiple of
	// this. Zero disables it.
	UpdateInterval uint

	// Receives one disassembled line per instruction before it executes
	Trace  io.Writer
	Logger *log.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxCycles:      DEFAULT_MAX_CYCLES,
		UpdateInterval: DEFAULT_UPDATE_INTERVAL,
	}
}

type Result struct {
	Cycles uint
	// Instructions that completed. The HLT that stops a run is not counted.
	Steps     uint
	Halted    bool
	Exhausted bool
	Err       error
}

func (res *Result) String() string {
	switch {
	case res.Halted:
		return fmt.Sprintf("Program halted after %d cycles", res.Cycles)
	case res.Exhausted:
		return fmt.Sprintf("Cycle budget exhausted after %d cycles", res.Cycles)
	case res.Err != nil:
		return fmt.Sprintf("Error after %d cycles: %v", res.Cycles, res.Err)
	}

	return fmt.Sprintf("Stopped after %d cycles", res.Cycles)
}

func Run(ctx context.Context, mc *machine.Machine, cfg Config) (result Result) {
	logger := cfg.Logger

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	for {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}

		if cfg.MaxCycles > 0 && result.Cycles >= cfg.MaxCycles {
			result.Exhausted = true
			break
		}

		pc := mc.State.Program

		if cfg.Trace != nil {
			line, _ := disasm.Instruction(&mc.Memory, pc)
			fmt.Fprintln(cfg.Trace, line.String())
		}

		cycles, err := mc.Step()

		if errors.Is(err, machine.ErrHalt) {
			result.Halted = true
			break
		} else if err != nil {
			result.Err = fmt.Errorf("step at %#04x: %w", pc, err)
			break
		}

		before := result.Cycles

		result.Steps++
		result.Cycles += cycles

		if interval := cfg.UpdateInterval; interval > 0 &&
			before/interval != result.Cycles/interval {
			if mc.Devices != nil && mc.Devices.IO != nil {
				mc.Devices.IO.Update()
			}
		}
	}

	logger.Printf("%s (%d instructions)", result.String(), result.Steps)

	return
}
