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
	"github.com/lassandro/emu8/pkg/encoding"
)

type Memory struct {
	ram [MEMSPACE_SIZE]uint8
}

func (mem *Memory) Read8(addr uint16) uint8 {
	return mem.ram[addr]
}

func (mem *Memory) Write8(addr uint16, value uint8) {
	mem.ram[addr] = value
}

// Little-endian. The high byte address wraps past 0xFFFF.
func (mem *Memory) Read16(addr uint16) uint16 {
	return encoding.Word(mem.ram[addr], mem.ram[addr+1])
}

func (mem *Memory) Write16(addr uint16, value uint16) {
	mem.ram[addr] = encoding.LowByte(value)
	mem.ram[addr+1] = encoding.HighByte(value)
}

// Copies program into memory at start. A program that would run past the
// end of the address space is refused and memory is left untouched.
func (mem *Memory) LoadProgram(program []uint8, start uint16) bool {
	end := int(start) + len(program)

	if end > len(mem.ram) {
		return false
	}

	copy(mem.ram[start:end], program)

	return true
}

// Returns a copy of count bytes starting at addr, wrapping past 0xFFFF
func (mem *Memory) Dump(addr uint16, count int) []uint8 {
	result := make([]uint8, count)

	for i := range result {
		result[i] = mem.ram[addr+uint16(i)]
	}

	return result
}

func (mem *Memory) Clear() {
	for i := range mem.ram {
		mem.ram[i] = 0x00
	}
}
