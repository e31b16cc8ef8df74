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

package demo_test

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/emu8/pkg/assembler"
	"github.com/lassandro/emu8/pkg/demo"
)

var demoBytes = []uint8{
	0xA9, 0x00, 0x85, 0x00, 0x85, 0x01,
	0xA9, 0x2A, 0x8D, 0x00, 0x40,
	0xE6, 0x00, 0xA5, 0x00, 0xC9, 0x10, 0xD0, 0xF3,
	0xA9, 0x05, 0x69, 0x03, 0x85, 0x10,
	0xA9, 0x0A, 0x38, 0xE9, 0x04, 0x85, 0x11,
	0xA5, 0x10, 0x8D, 0x00, 0x50,
	0xFF,
}

func TestAssemble(t *testing.T) {
	symtable := assembler.NewSymTable(demo.Source)

	program, err := demo.Assemble(symtable)
	assert.NoError(t, err)

	assert.Equal(t, uint16(0x8000), program.Origin)
	assert.Equal(t, uint16(0x8000), program.Entry)
	assert.Equal(t, demoBytes, program.Code)

	assert.Equal(t, "START", symtable.Labels[0x8000])
	assert.Equal(t, "LOOP", symtable.Labels[0x8006])
	assert.Equal(t, 19, len(symtable.Symbols))
}
