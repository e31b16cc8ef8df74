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

package machine

import (
	"errors"
	"fmt"
)

type Instruction uint8
type AddrMode uint8

// Returned by Step when the HLT instruction executes. It marks a controlled
// stop, not a fault.
var ErrHalt = errors.New("HLT instruction executed")

type UnknownOpcodeError struct {
	Opcode uint8
}

func (err *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("Unknown opcode: 0x%02X", err.Opcode)
}

type DeviceHandler struct {
	Display *Display
	IO      *IOController
}

type MachineState struct {
	Program  uint16
	Stack    uint8
	Accum    uint8
	IndexX   uint8
	IndexY   uint8
	Procstat uint8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Memory   Memory
	Debugger MachineDebugger
}
