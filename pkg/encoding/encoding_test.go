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

package encoding_test

import (
	"testing"

	"github.com/lassandro/emu8/pkg/encoding"
)

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		Input  string
		Output uint16
		Valid  bool
	}{
		{"$FF", 0x00FF, true},
		{"$8000", 0x8000, true},
		{"0x2a", 0x002A, true},
		{"x4000", 0x4000, true},
		{"X10", 0x0010, true},
		{"$", 0, false},
		{"0x", 0, false},
		{"FF", 0, false},
		{"1x00", 0, false},
		{"$10000", 0, false},
		{"$GG", 0, false},
	}

	for _, test := range tests {
		result, err := encoding.DecodeHex(test.Input)

		if (err == nil) != test.Valid {
			t.Errorf("%q: validity mismatch\nwant:%v\nhave:%v", test.Input, test.Valid, err)
			continue
		}

		if result != test.Output {
			t.Errorf("%q: value mismatch\nwant:%#04x\nhave:%#04x", test.Input, test.Output, result)
		}
	}
}

func TestDecodeInt(t *testing.T) {
	tests := []struct {
		Input  string
		Output int32
		Valid  bool
	}{
		{"#10", 10, true},
		{"255", 255, true},
		{"#-4", -4, true},
		{"#", 0, false},
		{"ten", 0, false},
	}

	for _, test := range tests {
		result, err := encoding.DecodeInt(test.Input)

		if (err == nil) != test.Valid {
			t.Errorf("%q: validity mismatch\nwant:%v\nhave:%v", test.Input, test.Valid, err)
			continue
		}

		if result != test.Output {
			t.Errorf("%q: value mismatch\nwant:%d\nhave:%d", test.Input, test.Output, result)
		}
	}
}

func TestHexDigits(t *testing.T) {
	tests := map[string]int{
		"$FF":   2,
		"$00FF": 4,
		"0x10":  2,
		"x1234": 4,
		"#10":   0,
	}

	for input, want := range tests {
		if have := encoding.HexDigits(input); have != want {
			t.Errorf("%q: digit count mismatch\nwant:%d\nhave:%d", input, want, have)
		}
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		Input  uint8
		Output uint16
	}{
		{0x00, 0x0000},
		{0x05, 0x0005},
		{0x7F, 0x007F},
		{0x80, 0xFF80},
		{0xF3, 0xFFF3},
		{0xFF, 0xFFFF},
	}

	for _, test := range tests {
		if have := encoding.SignExtend(test.Input); have != test.Output {
			t.Errorf("%#02x: mismatch\nwant:%#04x\nhave:%#04x", test.Input, test.Output, have)
		}
	}

	// 0x8013 + (-13) wraps to 0x8006
	if have := uint16(0x8013) + encoding.SignExtend(0xF3); have != 0x8006 {
		t.Errorf("Offset mismatch\nwant:0x8006\nhave:%#04x", have)
	}
}

func TestWord(t *testing.T) {
	if have := encoding.Word(0x34, 0x12); have != 0x1234 {
		t.Errorf("Word mismatch\nwant:0x1234\nhave:%#04x", have)
	}

	if encoding.LowByte(0xABCD) != 0xCD || encoding.HighByte(0xABCD) != 0xAB {
		t.Error("Byte split mismatch")
	}
}
