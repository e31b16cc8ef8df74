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
	"fmt"

	"github.com/lassandro/emu8/pkg/encoding"
)

func NewMachine(devices *DeviceHandler) *Machine {
	mc := &Machine{Devices: devices}
	mc.State.Stack = STACK_RESET
	mc.State.Procstat = PROCSTAT_RESET
	return mc
}

// Loads the program counter from the reset vector. The accumulator and index
// registers keep their values.
func (mc *Machine) Reset() {
	mc.State.Program = mc.Memory.Read16(RESET_VECTOR)
	mc.State.Stack = STACK_RESET
	mc.State.Procstat = PROCSTAT_RESET
}

// Loads program at start, points the reset vector at entry and resets
func (mc *Machine) Boot(program []uint8, start, entry uint16) error {
	if !mc.Memory.LoadProgram(program, start) {
		return fmt.Errorf(
			"program of %d bytes does not fit at %#04x", len(program), start,
		)
	}

	mc.Memory.Write16(RESET_VECTOR, entry)
	mc.Reset()

	return nil
}

func (mc *Machine) Flag(flag uint8) bool {
	return mc.State.Procstat&flag != 0
}

func (mc *Machine) setFlag(flag uint8, value bool) {
	if value {
		mc.State.Procstat |= flag
	} else {
		mc.State.Procstat &= ^flag
	}
}

func (mc *Machine) setFlags(value uint8) {
	mc.setFlag(FLAG_ZERO, value == 0)
	mc.setFlag(FLAG_NEGATIVE, value&0x80 != 0)
}

func (mc *Machine) fetch() uint8 {
	value := mc.Memory.Read8(mc.State.Program)
	mc.State.Program++
	return value
}

func (mc *Machine) fetchWord() uint16 {
	value := mc.Memory.Read16(mc.State.Program)
	mc.State.Program += 2
	return value
}

func (mc *Machine) read(addr uint16) uint8 {
	value := mc.Memory.Read8(addr)

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return value
}

func (mc *Machine) write(addr uint16, value uint8) {
	mc.Memory.Write8(addr, value)

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// Absolute stores are the only accesses routed through the memory map
func (mc *Machine) store(addr uint16, value uint8) {
	switch {
	case addr >= MEMSPACE_DISPLAY && addr < MEMSPACE_IO:
		if mc.Devices != nil && mc.Devices.Display != nil {
			mc.Devices.Display.Write(addr-MEMSPACE_DISPLAY, value)
		}

		if mc.Debugger != nil {
			mc.Debugger.Write(addr, mc)
		}

	case addr >= MEMSPACE_IO && addr < MEMSPACE_RAM:
		if mc.Devices != nil && mc.Devices.IO != nil {
			mc.Devices.IO.WritePort(uint8(addr-MEMSPACE_IO), value)
		}

		if mc.Debugger != nil {
			mc.Debugger.Write(addr, mc)
		}

	default:
		mc.write(addr, value)
	}
}

func adc(lhs, rhs uint8, carryIn bool) (res uint8, carryOut bool, overflow bool) {
	sum := uint16(lhs) + uint16(rhs)
	if carryIn {
		sum++
	}

	res = uint8(sum)
	carryOut = sum > 0xFF
	// Same-sign operands producing a different-sign result
	overflow = (lhs^rhs)&0x80 == 0 && (lhs^res)&0x80 != 0
	return
}

func sbc(lhs, rhs uint8, carryIn bool) (res uint8, carryOut bool, overflow bool) {
	diff := int16(lhs) - int16(rhs)
	if !carryIn {
		diff--
	}

	res = uint8(diff)
	carryOut = diff >= 0
	// Different-sign operands where the result lost the minuend's sign
	overflow = (lhs^rhs)&0x80 != 0 && (lhs^res)&0x80 != 0
	return
}

// Executes one instruction and returns its cycle cost. ErrHalt and
// *UnknownOpcodeError both end the run.
func (mc *Machine) Step() (uint, error) {
	opcode := mc.fetch()

	instruction, err := Decode(opcode)

	if err != nil {
		return 0, err
	}

	cycles := instruction.Cycles()

	switch instruction {
	// LDA  |A9|imm8      | Load accumulator, immediate
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_LDA_IMM:
		mc.State.Accum = mc.fetch()
		mc.setFlags(mc.State.Accum)

	// LDA  |A5|zp8       | Load accumulator, zero page
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_LDA_ZP:
		addr := uint16(mc.fetch())
		mc.State.Accum = mc.read(addr)
		mc.setFlags(mc.State.Accum)

	// STA  |85|zp8       | Store accumulator, zero page (never memory-mapped)
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_STA_ZP:
		addr := uint16(mc.fetch())
		mc.write(addr, mc.State.Accum)

	// STA  |8D|lo|hi     | Store accumulator, absolute
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_STA_ABS:
		addr := mc.fetchWord()
		mc.store(addr, mc.State.Accum)

	// ADC  |69|imm8      | Add with carry, immediate
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_ADC_IMM:
		value := mc.fetch()
		res, carry, overflow := adc(mc.State.Accum, value, mc.Flag(FLAG_CARRY))

		mc.setFlag(FLAG_CARRY, carry)
		mc.setFlag(FLAG_OVERFLOW, overflow)
		mc.State.Accum = res
		mc.setFlags(mc.State.Accum)

	// SBC  |E9|imm8      | Subtract with carry, immediate
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_SBC_IMM:
		value := mc.fetch()
		res, carry, overflow := sbc(mc.State.Accum, value, mc.Flag(FLAG_CARRY))

		mc.setFlag(FLAG_CARRY, carry)
		mc.setFlag(FLAG_OVERFLOW, overflow)
		mc.State.Accum = res
		mc.setFlags(mc.State.Accum)

	// INC  |E6|zp8       | Increment memory, zero page
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_INC_ZP:
		addr := uint16(mc.fetch())
		value := mc.read(addr) + 1

		mc.write(addr, value)
		mc.setFlags(value)

	// CMP  |C9|imm8      | Compare accumulator, immediate
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_CMP_IMM:
		value := mc.fetch()

		mc.setFlag(FLAG_CARRY, mc.State.Accum >= value)
		mc.setFlags(mc.State.Accum - value)

	// BNE  |D0|rel8      | Branch if zero flag clear
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_BNE:
		offset := mc.fetch()

		if !mc.Flag(FLAG_ZERO) {
			mc.State.Program += encoding.SignExtend(offset)
			cycles++
		}

	// SEC  |38|          | Set carry flag
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_SEC:
		mc.setFlag(FLAG_CARRY, true)

	// HLT  |FF|          | Halt
	// ---- [ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_HLT:
		return 0, ErrHalt
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return cycles, nil
}

func (mc *Machine) String() string {
	return fmt.Sprintf(
		"CPU { PC: 0x%04X, SP: 0x%02X, A: 0x%02X, X: 0x%02X, Y: 0x%02X, "+
			"Status: 0b%08b }",
		mc.State.Program,
		mc.State.Stack,
		mc.State.Accum,
		mc.State.IndexX,
		mc.State.IndexY,
		mc.State.Procstat,
	)
}
