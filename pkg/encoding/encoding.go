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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, $FFFF, 0xFF,
// xFF, $FF
func DecodeHex(s string) (uint16, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	} else if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, errors.New("Invalid hex string")
	}

	if len(s) <= 2 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123, -123
func DecodeInt(s string) (int32, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// Returns the number of digits written after the prefix of a hex literal
func HexDigits(s string) int {
	switch {
	case strings.HasPrefix(s, "$"):
		return len(s) - 1
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return len(s) - 2
	case strings.HasPrefix(s, "x"), strings.HasPrefix(s, "X"):
		return len(s) - 1
	}

	return 0
}

func IsHex(s string) bool {
	return strings.HasPrefix(s, "$") || strings.ContainsAny(s, "xX")
}

// Widens an 8-bit two's complement offset so it can be added to a 16-bit
// address with wrapping arithmetic
func SignExtend(value uint8) uint16 {
	if value&0x80 != 0 {
		return uint16(value) | 0xFF00
	}

	return uint16(value)
}

func Word(lo, hi uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

func LowByte(value uint16) uint8 {
	return uint8(value & 0xFF)
}

func HighByte(value uint16) uint8 {
	return uint8(value >> 8)
}
