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

// Package disasm turns machine code back into assembler syntax for traces,
// the debugger and the remote monitor.
package disasm

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/nes/addressing"
	"github.com/retroenv/retrogolib/nes/cpu"

	"github.com/lassandro/emu8/pkg/encoding"
	"github.com/lassandro/emu8/pkg/machine"
)

type Reader interface {
	Read8(addr uint16) uint8
}

type Line struct {
	Addr     uint16
	Bytes    []uint8
	Mnemonic string
	Mode     machine.AddrMode
	Operand  uint16
	Branch   bool
	Valid    bool
}

// The shared opcodes keep their 6502 encodings, so names come from the 6502
// table whenever the addressing mode agrees. 0xFF is HLT here but an
// undocumented opcode on the 6502.
var modes = map[machine.AddrMode]addressing.Mode{
	machine.MODE_IMPLIED:   addressing.ImpliedAddressing,
	machine.MODE_IMMEDIATE: addressing.ImmediateAddressing,
	machine.MODE_ZEROPAGE:  addressing.ZeroPageAddressing,
	machine.MODE_ABSOLUTE:  addressing.AbsoluteAddressing,
	machine.MODE_RELATIVE:  addressing.RelativeAddressing,
}

func mnemonic(instruction machine.Instruction) (string, bool) {
	opcode := cpu.Opcodes[instruction.Opcode()]

	if opcode.Instruction == nil || opcode.Addressing != modes[instruction.Mode()] {
		return instruction.Mnemonic(), false
	}

	_, branch := cpu.BranchingInstructions[opcode.Instruction.Name]

	return strings.ToUpper(opcode.Instruction.Name), branch
}

// Decodes the instruction at addr. Unknown opcodes produce a one byte line
// rendered as a .BYTE directive along with the decode error.
func Instruction(mem Reader, addr uint16) (Line, error) {
	line := Line{Addr: addr, Bytes: []uint8{mem.Read8(addr)}}

	instruction, err := machine.Decode(line.Bytes[0])

	if err != nil {
		line.Mnemonic = ".BYTE"
		line.Operand = uint16(line.Bytes[0])
		return line, err
	}

	line.Valid = true
	line.Mode = instruction.Mode()
	line.Mnemonic, line.Branch = mnemonic(instruction)

	for i := 1; i <= instruction.Size(); i++ {
		line.Bytes = append(line.Bytes, mem.Read8(addr+uint16(i)))
	}

	switch line.Mode {
	case machine.MODE_IMMEDIATE, machine.MODE_ZEROPAGE:
		line.Operand = uint16(line.Bytes[1])
	case machine.MODE_ABSOLUTE:
		line.Operand = encoding.Word(line.Bytes[1], line.Bytes[2])
	case machine.MODE_RELATIVE:
		line.Operand = addr + 2 + encoding.SignExtend(line.Bytes[1])
	}

	return line, nil
}

// Disassembles count consecutive instructions starting at addr
func Range(mem Reader, addr uint16, count int) []Line {
	lines := make([]Line, 0, count)

	for i := 0; i < count; i++ {
		line, _ := Instruction(mem, addr)
		lines = append(lines, line)
		addr += uint16(len(line.Bytes))
	}

	return lines
}

func (line *Line) Next() uint16 {
	return line.Addr + uint16(len(line.Bytes))
}

// Assembler syntax for the line. Branch targets found in labels are printed
// by name.
func (line *Line) Text(labels map[uint16]string) string {
	if !line.Valid {
		return fmt.Sprintf("%s $%02X", line.Mnemonic, line.Operand)
	}

	switch line.Mode {
	case machine.MODE_IMMEDIATE:
		return fmt.Sprintf("%s #$%02X", line.Mnemonic, line.Operand)
	case machine.MODE_ZEROPAGE:
		return fmt.Sprintf("%s $%02X", line.Mnemonic, line.Operand)
	case machine.MODE_ABSOLUTE:
		return fmt.Sprintf("%s $%04X", line.Mnemonic, line.Operand)
	case machine.MODE_RELATIVE:
		if label, exists := labels[line.Operand]; exists {
			return line.Mnemonic + " " + label
		}

		return fmt.Sprintf("%s $%04X", line.Mnemonic, line.Operand)
	}

	return line.Mnemonic
}

// Raw instruction bytes as space separated hex
func (line *Line) Hex() string {
	hex := make([]string, len(line.Bytes))

	for i, b := range line.Bytes {
		hex[i] = fmt.Sprintf("%02X", b)
	}

	return strings.Join(hex, " ")
}

func (line *Line) String() string {
	return fmt.Sprintf("%04X  %-8s  %s", line.Addr, line.Hex(), line.Text(nil))
}
