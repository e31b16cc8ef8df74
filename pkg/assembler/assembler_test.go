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

package assembler_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/lassandro/emu8/pkg/assembler"
)

type testCase struct {
	Name     string
	Input    string
	Origin   uint16
	Output   map[uint16]uint8
	SymTable *assembler.SymTable
}

type failCase struct {
	Name  string
	Input string
	Error error
}

func testAssemblerSuccess(t *testing.T, test *testCase) {
	var symtarget *assembler.SymTable = nil

	if test.SymTable != nil {
		symtarget = assembler.NewSymTable(test.Input)
	}

	result, errs := assembler.AssembleSource(
		strings.NewReader(test.Input), symtarget,
	)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if result.Origin != test.Origin {
		t.Fatalf(
			"Origin mismatch\nwant:%#04x (test.Origin)\nhave:%#04x",
			test.Origin,
			result.Origin,
		)
	}

	for i, have := range result.Code {
		addr := test.Origin + uint16(i)
		want, exists := test.Output[addr]

		if exists && have != want {
			t.Fatalf(
				"Instruction encoding mismatch\n"+
					"want:%#02x (test.Output[%#04x])\n"+
					"have:%#02x",
				want,
				addr,
				have,
			)
		} else if !exists && have != 0 {
			t.Fatalf(
				"Unexpected byte\n"+
					"want:0x00\n"+
					"have:%#02x (result [%#04x])",
				have,
				addr,
			)
		}
	}

	for addr := range test.Output {
		if addr < result.Origin || int(addr-result.Origin) >= len(result.Code) {
			t.Fatalf(
				"Missing byte\nwant:%#02x (test.Output[%#04x])\nhave:<none>",
				test.Output[addr],
				addr,
			)
		}
	}

	if test.SymTable != nil {
		if !reflect.DeepEqual(symtarget.Symbols, test.SymTable.Symbols) {
			t.Fatalf(
				"Symtable encoding mismatch\nwant:%v\nhave:%v",
				test.SymTable.Symbols,
				symtarget.Symbols,
			)
		}

		if !reflect.DeepEqual(symtarget.Labels, test.SymTable.Labels) {
			t.Fatalf(
				"Symtable label mismatch\nwant:%v\nhave:%v",
				test.SymTable.Labels,
				symtarget.Labels,
			)
		}
	}
}

func testAssemblerFail(t *testing.T, test *failCase) {
	file := strings.NewReader(test.Input)

	_, errs := assembler.AssembleSource(file, nil)

	if test.Error == nil {
		panic("Fail case missing error value")
	}

	if len(errs) == 0 {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:<nil>",
			t.Name(),
			test.Error,
		)
	}

	if len(errs) > 1 {
		errTypes := make([]reflect.Type, 0, len(errs))
		for _, err := range errs {
			errTypes = append(errTypes, reflect.TypeOf(err))
		}

		t.Fatalf(
			"%s produced multiple errors:\n\twant:%T (test.Error)\n\thave:%v",
			t.Name(),
			test.Error,
			errTypes,
		)
	}

	if reflect.TypeOf(errs[0]) != reflect.TypeOf(test.Error) {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:%T",
			t.Name(),
			test.Error,
			errs[0],
		)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerSuccess(t, &test)
			})
		}
	})
}

func testFail(t *testing.T, tests []failCase) {
	t.Run("Fail", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerFail(t, &test)
			})
		}
	})
}

// LDA  |A9|imm8      | Load accumulator, immediate
// LDA  |A5|zp8       | Load accumulator, zero page
func TestLDA(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "LDA hex immediate",
			Input:  `LDA #$2A`,
			Output: map[uint16]uint8{0x0000: 0xA9, 0x0001: 0x2A},
		},
		{
			Name:   "LDA decimal immediate",
			Input:  `LDA #42`,
			Output: map[uint16]uint8{0x0000: 0xA9, 0x0001: 0x2A},
		},
		{
			Name:   "LDA negative immediate",
			Input:  `LDA #-1`,
			Output: map[uint16]uint8{0x0000: 0xA9, 0x0001: 0xFF},
		},
		{
			Name:   "LDA hex zero page",
			Input:  `LDA $10`,
			Output: map[uint16]uint8{0x0000: 0xA5, 0x0001: 0x10},
		},
		{
			Name:   "LDA decimal zero page",
			Input:  `LDA 16`,
			Output: map[uint16]uint8{0x0000: 0xA5, 0x0001: 0x10},
		},
		{
			Name:   "LDA lowercase",
			Input:  `lda #$01`,
			Output: map[uint16]uint8{0x0000: 0xA9, 0x0001: 0x01},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "LDA absolute",
			Input: `LDA $1234`,
			Error: &assembler.InvalidAddressingError{},
		},
		{
			Name:  "LDA oversized hex",
			Input: `LDA #$100`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "LDA oversized decimal",
			Input: `LDA #256`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "LDA undersized decimal",
			Input: `LDA #-129`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  "LDA bad hex",
			Input: `LDA #$ZZ`,
			Error: &assembler.InvalidLiteralError{},
		},
		{
			Name:  "LDA no operand",
			Input: `LDA`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "LDA two operands",
			Input: `LDA #1, #2`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "LDA string",
			Input: `LDA "a"`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

// STA  |85|zp8       | Store accumulator, zero page
// STA  |8D|lo|hi     | Store accumulator, absolute
func TestSTA(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "STA zero page",
			Input:  `STA $10`,
			Output: map[uint16]uint8{0x0000: 0x85, 0x0001: 0x10},
		},
		{
			Name:  "STA absolute",
			Input: `STA $4000`,
			Output: map[uint16]uint8{
				0x0000: 0x8D, 0x0001: 0x00, 0x0002: 0x40,
			},
		},
		{
			Name:  "STA padded absolute",
			Input: `STA $0010`,
			Output: map[uint16]uint8{
				0x0000: 0x8D, 0x0001: 0x10, 0x0002: 0x00,
			},
		},
		{
			Name:  "STA decimal absolute",
			Input: `STA 4096`,
			Output: map[uint16]uint8{
				0x0000: 0x8D, 0x0001: 0x00, 0x0002: 0x10,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "STA immediate",
			Input: `STA #$10`,
			Error: &assembler.InvalidAddressingError{},
		},
		{
			Name:  "STA oversized address",
			Input: `STA $10000`,
			Error: &assembler.InvalidLiteralError{},
		},
		{
			Name:  "STA label",
			Input: "HERE: STA HERE",
			Error: &assembler.InvalidAddressingError{},
		},
	})
}

// ADC  |69|imm8      | Add with carry, immediate
// SBC  |E9|imm8      | Subtract with carry, immediate
// CMP  |C9|imm8      | Compare accumulator, immediate
func TestArithmetic(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "ADC",
			Input:  `ADC #$03`,
			Output: map[uint16]uint8{0x0000: 0x69, 0x0001: 0x03},
		},
		{
			Name:   "SBC",
			Input:  `SBC #4`,
			Output: map[uint16]uint8{0x0000: 0xE9, 0x0001: 0x04},
		},
		{
			Name:   "CMP",
			Input:  `CMP #$10`,
			Output: map[uint16]uint8{0x0000: 0xC9, 0x0001: 0x10},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "ADC zero page",
			Input: `ADC $10`,
			Error: &assembler.InvalidAddressingError{},
		},
		{
			Name:  "CMP no operand",
			Input: `CMP`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

// INC  |E6|zp8       | Increment memory, zero page
func TestINC(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "INC",
			Input:  `INC $00`,
			Output: map[uint16]uint8{0x0000: 0xE6, 0x0001: 0x00},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "INC absolute",
			Input: `INC $4000`,
			Error: &assembler.InvalidAddressingError{},
		},
		{
			Name:  "INC immediate",
			Input: `INC #1`,
			Error: &assembler.InvalidAddressingError{},
		},
	})
}

// SEC  |38|          | Set carry flag
// HLT  |FF|          | Halt
func TestImplied(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "SEC",
			Input:  `SEC`,
			Output: map[uint16]uint8{0x0000: 0x38},
		},
		{
			Name:   "HLT",
			Input:  `HLT`,
			Output: map[uint16]uint8{0x0000: 0xFF},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "SEC operand",
			Input: `SEC #1`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "HLT operand",
			Input: `HLT $10`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}

// BNE  |D0|rel8      | Branch if zero flag clear
func TestBNE(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "BNE backward",
			Input: "LOOP: SEC\nBNE LOOP",
			Output: map[uint16]uint8{
				0x0000: 0x38, 0x0001: 0xD0, 0x0002: 0xFD,
			},
		},
		{
			Name:  "BNE forward",
			Input: "BNE DONE\nSEC\nDONE HLT",
			Output: map[uint16]uint8{
				0x0000: 0xD0, 0x0001: 0x01, 0x0002: 0x38, 0x0003: 0xFF,
			},
		},
		{
			Name:   "BNE self",
			Input:  `HERE: BNE HERE`,
			Output: map[uint16]uint8{0x0000: 0xD0, 0x0001: 0xFE},
		},
		{
			Name:  "BNE furthest backward",
			Input: "TOP: .BYTE " + strings.Repeat("0, ", 125) + "0\nBNE TOP",
			Output: map[uint16]uint8{
				0x007E: 0xD0, 0x007F: 0x80,
			},
		},
		{
			Name:   "BNE forward across wrap",
			Input:  ".ORG $0002\nTOP: HLT\n.ORG $FFFC\nBNE TOP",
			Origin: 0x0002,
			Output: map[uint16]uint8{
				0x0002: 0xFF, 0xFFFC: 0xD0, 0xFFFD: 0x04,
			},
		},
		{
			Name:  "BNE backward across wrap",
			Input: ".ORG $0000\nBNE BACK\n.ORG $FFF0\nBACK: HLT",
			Output: map[uint16]uint8{
				0x0000: 0xD0, 0x0001: 0xEE, 0xFFF0: 0xFF,
			},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "BNE literal",
			Input: `BNE $10`,
			Error: &assembler.InvalidAddressingError{},
		},
		{
			Name:  "BNE unknown label",
			Input: `BNE NOWHERE`,
			Error: &assembler.UnknownLabelError{},
		},
		{
			Name:  "BNE no operand",
			Input: `BNE`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "BNE too far forward",
			Input: "BNE FAR\n.ORG $0100\nFAR: HLT",
			Error: &assembler.OversizedLabelError{},
		},
		{
			Name:  "BNE too far across wrap",
			Input: ".ORG $FFFC\nBNE FAR\n.ORG $0100\nFAR: HLT",
			Error: &assembler.OversizedLabelError{},
		},
		{
			Name:  "BNE too far backward",
			Input: "TOP: .BYTE " + strings.Repeat("0, ", 126) + "0\nBNE TOP",
			Error: &assembler.OversizedLabelError{},
		},
	})
}

func TestDirectives(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   ".ORG",
			Input:  ".ORG $0200\nLDA #1",
			Origin: 0x0200,
			Output: map[uint16]uint8{0x0200: 0xA9, 0x0201: 0x01},
		},
		{
			Name:   ".ORG gap",
			Input:  ".ORG $10\nHLT\n.ORG $14\nHLT",
			Origin: 0x0010,
			Output: map[uint16]uint8{0x0010: 0xFF, 0x0014: 0xFF},
		},
		{
			Name:  ".BYTE",
			Input: `.BYTE $01, 2, -1`,
			Output: map[uint16]uint8{
				0x0000: 0x01, 0x0001: 0x02, 0x0002: 0xFF,
			},
		},
		{
			Name:  ".WORD",
			Input: ".WORD $1234, LABEL\nLABEL: HLT",
			Output: map[uint16]uint8{
				0x0000: 0x34, 0x0001: 0x12,
				0x0002: 0x04, 0x0003: 0x00,
				0x0004: 0xFF,
			},
		},
		{
			Name:  ".TEXT",
			Input: `.TEXT "Hi!"`,
			Output: map[uint16]uint8{
				0x0000: 'H', 0x0001: 'i', 0x0002: '!',
			},
		},
		{
			Name:  ".TEXT with separators",
			Input: `.TEXT "a;b, c" ; trailing comment`,
			Output: map[uint16]uint8{
				0x0000: 'a', 0x0001: ';', 0x0002: 'b', 0x0003: ',',
				0x0004: ' ', 0x0005: 'c',
			},
		},
		{
			Name:   ".END",
			Input:  "HLT\n.END\nSEC",
			Output: map[uint16]uint8{0x0000: 0xFF},
		},
		{
			Name:   "Comment only",
			Input:  "; nothing here\n\n   ; or here",
			Output: map[uint16]uint8{},
		},
	})

	testFail(t, []failCase{
		{
			Name:  ".ORG no operand",
			Input: `.ORG`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  ".ORG label",
			Input: `.ORG START`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  ".BYTE oversized",
			Input: `.BYTE $100`,
			Error: &assembler.OversizedLiteralError{},
		},
		{
			Name:  ".BYTE string",
			Input: `.BYTE "a"`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  ".WORD unknown label",
			Input: `.WORD MISSING`,
			Error: &assembler.UnknownLabelError{},
		},
		{
			Name:  ".TEXT literal",
			Input: `.TEXT 1`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  ".TEXT unterminated",
			Input: `.TEXT "abc`,
			Error: &assembler.InvalidStringError{},
		},
		{
			Name:  ".END operand",
			Input: `.END 1`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "Unknown directive",
			Input: `.FILL 1`,
			Error: &assembler.UnknownIdentifierError{},
		},
		{
			Name:  "Oversized binary",
			Input: ".ORG $FFFF\nSTA $4000",
			Error: &assembler.OversizedBinaryError{},
		},
	})
}

func TestSyntax(t *testing.T) {
	testFail(t, []failCase{
		{
			Name:  "Unexpected character",
			Input: `LDA @`,
			Error: &assembler.UnexpectedCharacterError{},
		},
		{
			Name:  "Misplaced hex prefix",
			Input: `LDA #$1$`,
			Error: &assembler.UnexpectedCharacterError{},
		},
		{
			Name:  "Stray colon",
			Input: `LDA :`,
			Error: &assembler.UnexpectedCharacterError{},
		},
		{
			Name:  "Non-ASCII identifier",
			Input: `LDÄ #1`,
			Error: &assembler.OversizedCharacterError{},
		},
		{
			Name:  "Unknown identifier",
			Input: `FOO BAR`,
			Error: &assembler.UnknownIdentifierError{},
		},
		{
			Name:  "Redeclared label",
			Input: "A: SEC\nA: SEC",
			Error: &assembler.RedeclaredLabelError{},
		},
	})
}

func TestSymTable(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "Symbols and labels",
			Input: "START: LDA #1\n; comment\n       HLT",
			Output: map[uint16]uint8{
				0x0000: 0xA9, 0x0001: 0x01, 0x0002: 0xFF,
			},
			SymTable: &assembler.SymTable{
				Symbols: map[uint16]int64{0x0000: 0, 0x0002: 24},
				Labels:  map[uint16]string{0x0000: "START"},
			},
		},
	})
}

func TestEntry(t *testing.T) {
	result, errs := assembler.AssembleSource(
		strings.NewReader(".ORG $0300\n.BYTE 1, 2\nMAIN: HLT"), nil,
	)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if result.Origin != 0x0300 || result.Entry != 0x0302 {
		t.Errorf(
			"Entry mismatch\nwant:0x0300/0x0302\nhave:%#04x/%#04x",
			result.Origin,
			result.Entry,
		)
	}
}

func TestErrorPosition(t *testing.T) {
	_, errs := assembler.AssembleSource(
		strings.NewReader("SEC\n  LDA $1234"), nil,
	)

	if len(errs) != 1 {
		t.Fatalf("Error count mismatch\nwant:1\nhave:%d", len(errs))
	}

	var tokenErr assembler.TokenError
	if !errors.As(errs[0], &tokenErr) {
		t.Fatalf("Error does not carry a position\nhave:%T", errs[0])
	}

	if pos := tokenErr.GetPosition(); pos.Line != 2 || pos.Column != 7 {
		t.Errorf("Position mismatch\nwant:2:7\nhave:%d:%d", pos.Line, pos.Column)
	}

	want := "02:07: LDA does not support absolute addressing"
	if have := errs[0].Error(); have != want {
		t.Errorf("Message mismatch\nwant:%s\nhave:%s", want, have)
	}
}
