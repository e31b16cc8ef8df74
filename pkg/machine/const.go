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

const (
	FLAG_CARRY     uint8 = 1 << 0
	FLAG_ZERO      uint8 = 1 << 1
	FLAG_INTERRUPT uint8 = 1 << 2
	FLAG_DECIMAL   uint8 = 1 << 3
	FLAG_BREAK     uint8 = 1 << 4
	FLAG_RESERVED  uint8 = 1 << 5
	FLAG_OVERFLOW  uint8 = 1 << 6
	FLAG_NEGATIVE  uint8 = 1 << 7
)

const (
	MEMSPACE_SIZE    = 1 << 16
	MEMSPACE_DISPLAY = 0x4000
	MEMSPACE_IO      = 0x5000
	MEMSPACE_RAM     = 0x6000

	RESET_VECTOR uint16 = 0xFFFC
)

const (
	STACK_RESET    uint8 = 0xFF
	PROCSTAT_RESET uint8 = FLAG_RESERVED
)

const (
	PORT_OUTPUT uint8 = 0x00
	PORT_SERIAL uint8 = 0x01
)

const (
	DISPLAY_WIDTH  = 32
	DISPLAY_HEIGHT = 16
	DISPLAY_BLANK  = 0x20
)

const (
	OP_LDA_IMM uint8 = 0xA9
	OP_LDA_ZP  uint8 = 0xA5
	OP_STA_ZP  uint8 = 0x85
	OP_STA_ABS uint8 = 0x8D
	OP_ADC_IMM uint8 = 0x69
	OP_SBC_IMM uint8 = 0xE9
	OP_INC_ZP  uint8 = 0xE6
	OP_CMP_IMM uint8 = 0xC9
	OP_BNE     uint8 = 0xD0
	OP_SEC     uint8 = 0x38
	OP_HLT     uint8 = 0xFF
)

const (
	INSTRUCTION_INVALID Instruction = iota
	INSTRUCTION_LDA_IMM
	INSTRUCTION_LDA_ZP
	INSTRUCTION_STA_ZP
	INSTRUCTION_STA_ABS
	INSTRUCTION_ADC_IMM
	INSTRUCTION_SBC_IMM
	INSTRUCTION_INC_ZP
	INSTRUCTION_CMP_IMM
	INSTRUCTION_BNE
	INSTRUCTION_SEC
	INSTRUCTION_HLT
)

const (
	MODE_IMPLIED AddrMode = iota
	MODE_IMMEDIATE
	MODE_ZEROPAGE
	MODE_ABSOLUTE
	MODE_RELATIVE
)
