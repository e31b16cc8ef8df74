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

package machine_test

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/emu8/pkg/machine"
)

func TestWordRoundTrip(t *testing.T) {
	var mem machine.Memory

	for _, addr := range []uint16{0x0000, 0x00FF, 0x1234, 0xFFFC, 0xFFFE, 0xFFFF} {
		for _, value := range []uint16{0x0000, 0x00FF, 0xFF00, 0xBEEF, 0xFFFF} {
			mem.Write16(addr, value)
			assert.Equal(t, value, mem.Read16(addr))
		}
	}
}

func TestWordLayout(t *testing.T) {
	var mem machine.Memory

	mem.Write16(0x1000, 0x8000)
	assert.Equal(t, uint8(0x00), mem.Read8(0x1000))
	assert.Equal(t, uint8(0x80), mem.Read8(0x1001))

	mem.Write16(0xFFFF, 0xABCD)
	assert.Equal(t, uint8(0xCD), mem.Read8(0xFFFF))
	assert.Equal(t, uint8(0xAB), mem.Read8(0x0000))
}

func TestLoadProgram(t *testing.T) {
	tests := []struct {
		Name    string
		Program []uint8
		Start   uint16
		Loaded  bool
	}{
		{"Fits", []uint8{0x01, 0x02, 0x03}, 0x8000, true},
		{"Ends at top", []uint8{0x01, 0x02}, 0xFFFE, true},
		{"Last byte", []uint8{0x01}, 0xFFFF, true},
		{"Empty", []uint8{}, 0xFFFF, true},
		{"Overflows", []uint8{0x01, 0x02}, 0xFFFF, false},
		{"Far overflow", make([]uint8, 0x100), 0xFF80, false},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var mem machine.Memory

			mem.Write8(0x0000, 0xEE)

			if loaded := mem.LoadProgram(test.Program, test.Start); loaded != test.Loaded {
				t.Fatalf("Load result mismatch\nwant:%v\nhave:%v", test.Loaded, loaded)
			}

			if !test.Loaded {
				assert.Equal(t, uint8(0x00), mem.Read8(test.Start))
				assert.Equal(t, uint8(0xEE), mem.Read8(0x0000))
				return
			}

			assert.Equal(t, test.Program, mem.Dump(test.Start, len(test.Program)))
		})
	}
}

func TestDumpWraps(t *testing.T) {
	var mem machine.Memory

	mem.Write8(0xFFFF, 0x11)
	mem.Write8(0x0000, 0x22)

	assert.Equal(t, []uint8{0x11, 0x22}, mem.Dump(0xFFFF, 2))

	mem.Clear()
	assert.Equal(t, []uint8{0x00, 0x00}, mem.Dump(0xFFFF, 2))
}
