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
	"strings"
)

type instructionInfo struct {
	opcode   uint8
	mnemonic string
	mode     AddrMode
	cycles   uint
}

var instructions = [...]instructionInfo{
	INSTRUCTION_INVALID: {0x00, "???", MODE_IMPLIED, 0},
	INSTRUCTION_LDA_IMM: {OP_LDA_IMM, "LDA", MODE_IMMEDIATE, 2},
	INSTRUCTION_LDA_ZP:  {OP_LDA_ZP, "LDA", MODE_ZEROPAGE, 3},
	INSTRUCTION_STA_ZP:  {OP_STA_ZP, "STA", MODE_ZEROPAGE, 3},
	INSTRUCTION_STA_ABS: {OP_STA_ABS, "STA", MODE_ABSOLUTE, 4},
	INSTRUCTION_ADC_IMM: {OP_ADC_IMM, "ADC", MODE_IMMEDIATE, 2},
	INSTRUCTION_SBC_IMM: {OP_SBC_IMM, "SBC", MODE_IMMEDIATE, 2},
	INSTRUCTION_INC_ZP:  {OP_INC_ZP, "INC", MODE_ZEROPAGE, 5},
	INSTRUCTION_CMP_IMM: {OP_CMP_IMM, "CMP", MODE_IMMEDIATE, 2},
	INSTRUCTION_BNE:     {OP_BNE, "BNE", MODE_RELATIVE, 2},
	INSTRUCTION_SEC:     {OP_SEC, "SEC", MODE_IMPLIED, 2},
	INSTRUCTION_HLT:     {OP_HLT, "HLT", MODE_IMPLIED, 0},
}

// Maps an opcode byte to its instruction. There is no fallback: any byte
// outside the table is an *UnknownOpcodeError.
func Decode(opcode uint8) (Instruction, error) {
	switch opcode {
	case OP_LDA_IMM:
		return INSTRUCTION_LDA_IMM, nil
	case OP_LDA_ZP:
		return INSTRUCTION_LDA_ZP, nil
	case OP_STA_ZP:
		return INSTRUCTION_STA_ZP, nil
	case OP_STA_ABS:
		return INSTRUCTION_STA_ABS, nil
	case OP_ADC_IMM:
		return INSTRUCTION_ADC_IMM, nil
	case OP_SBC_IMM:
		return INSTRUCTION_SBC_IMM, nil
	case OP_INC_ZP:
		return INSTRUCTION_INC_ZP, nil
	case OP_CMP_IMM:
		return INSTRUCTION_CMP_IMM, nil
	case OP_BNE:
		return INSTRUCTION_BNE, nil
	case OP_SEC:
		return INSTRUCTION_SEC, nil
	case OP_HLT:
		return INSTRUCTION_HLT, nil
	}

	return INSTRUCTION_INVALID, &UnknownOpcodeError{opcode}
}

// Finds the instruction for a mnemonic and addressing mode pair
func Lookup(mnemonic string, mode AddrMode) (Instruction, bool) {
	for i := INSTRUCTION_LDA_IMM; i <= INSTRUCTION_HLT; i++ {
		info := &instructions[i]

		if info.mode == mode && strings.EqualFold(info.mnemonic, mnemonic) {
			return i, true
		}
	}

	return INSTRUCTION_INVALID, false
}

// Reports whether any addressing mode exists for a mnemonic
func IsMnemonic(mnemonic string) bool {
	for i := INSTRUCTION_LDA_IMM; i <= INSTRUCTION_HLT; i++ {
		if strings.EqualFold(instructions[i].mnemonic, mnemonic) {
			return true
		}
	}

	return false
}

func (instr Instruction) info() *instructionInfo {
	if int(instr) >= len(instructions) {
		return &instructions[INSTRUCTION_INVALID]
	}

	return &instructions[instr]
}

func (instr Instruction) Opcode() uint8 {
	return instr.info().opcode
}

func (instr Instruction) Mnemonic() string {
	return instr.info().mnemonic
}

func (instr Instruction) Mode() AddrMode {
	return instr.info().mode
}

// Base cost. A taken BNE costs one more.
func (instr Instruction) Cycles() uint {
	return instr.info().cycles
}

// Number of operand bytes following the opcode
func (instr Instruction) Size() int {
	return instr.Mode().OperandSize()
}

func (instr Instruction) String() string {
	if mode := instr.Mode(); mode != MODE_IMPLIED {
		return instr.Mnemonic() + " " + mode.String()
	}

	return instr.Mnemonic()
}

func (mode AddrMode) OperandSize() int {
	switch mode {
	case MODE_IMMEDIATE, MODE_ZEROPAGE, MODE_RELATIVE:
		return 1
	case MODE_ABSOLUTE:
		return 2
	}

	return 0
}

func (mode AddrMode) String() string {
	switch mode {
	case MODE_IMMEDIATE:
		return "immediate"
	case MODE_ZEROPAGE:
		return "zeropage"
	case MODE_ABSOLUTE:
		return "absolute"
	case MODE_RELATIVE:
		return "relative"
	}

	return "implied"
}
