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

package assembler

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/emu8/pkg/encoding"
	"github.com/lassandro/emu8/pkg/machine"
)

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".ORG") {
		return DIRECTIVE_ORG
	} else if strings.EqualFold(ident, ".BYTE") {
		return DIRECTIVE_BYTE
	} else if strings.EqualFold(ident, ".WORD") {
		return DIRECTIVE_WORD
	} else if strings.EqualFold(ident, ".TEXT") {
		return DIRECTIVE_TEXT
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	value := strings.TrimPrefix(token.Value, "#")

	if encoding.IsHex(value) {
		result, err := encoding.DecodeHex(value)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		if bits < 16 {
			limit := uint16(1)<<bits - 1

			if result > limit {
				return 0, &OversizedLiteralError{
					token.Position, int64(limit), int64(result),
				}
			}
		}

		return result, nil
	}

	result, err := encoding.DecodeInt(value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	// Negative decimals are accepted down to the signed minimum and stored
	// as two's complement
	limit := int32(1) << bits

	if result < -(limit/2) || result >= limit {
		return 0, &OversizedLiteralError{
			token.Position, int64(limit - 1), int64(result),
		}
	}

	return uint16(result) & uint16(limit-1), nil
}

// A plain address literal selects zero page addressing when it fits in a byte
// and was not written with more than two hex digits ($00FF is absolute).
func isZeroPage(token *Token, value uint16) bool {
	if value > 0xFF {
		return false
	}

	return !encoding.IsHex(token.Value) || encoding.HexDigits(token.Value) <= 2
}

func AssembleSource(input io.Reader, symtable *SymTable) (result Program, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Position Cursor
	}

	type WordRef struct {
		Label    string
		Addr     uint16
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef
	var wordRefs []WordRef

	var image = make([]uint8, machine.MEMSPACE_SIZE)
	var program uint32 = 0
	var low uint32 = machine.MEMSPACE_SIZE
	var high uint32 = 0
	var entry int64 = -1
	var overflow bool

	var builder strings.Builder
	var scanner = bufio.NewScanner(input)

	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	errs = make([]error, 0)

	emit := func(values ...uint8) {
		for _, value := range values {
			if program >= machine.MEMSPACE_SIZE {
				overflow = true
				return
			}

			image[program] = value

			if program < low {
				low = program
			}

			if program >= high {
				high = program + 1
			}

			program++
		}
	}

	nextLine := func(line string) {
		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	// Process:
	// - Parse line
	// - Assemble line
	for scanner.Scan() {
		var tokens = make([]Token, 0, 4)
		var tokenStart int = 0
		var tokenType TokenType = TOKEN_NONE

		var lineErrs = len(errs)

		line := scanner.Text()
		builder.Grow(len(line))

		cursor.Size = int64(len(line))

		flushToken := func() {
			if builder.Len() > 0 {
				tokens = append(tokens, Token{
					Type: tokenType,
					Position: Cursor{
						Line:     cursor.Line,
						Column:   tokenStart,
						Byte:     cursor.Byte + int64(tokenStart-1),
						Size:     int64(builder.Len()),
						LineByte: cursor.Byte,
					},
					Value: builder.String(),
				})
				builder.Reset()
			}

			tokenType = TOKEN_NONE
		}

		// Parse Line:
		// - Gather tokens and their types
		// - Check for syntax errors
		for column, char := range line {
			cursor.Column = column + 1

			var flush bool = false
			var skip bool = false
			var keep bool = false

			if tokenType == TOKEN_NONE {
				tokenStart = cursor.Column
			}

			switch {
			// String contents are taken verbatim up to the closing quote
			case tokenType == TOKEN_STRING:
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				keep = true
				flush = char == '"'

			// Whitespace
			case unicode.IsSpace(char):
				flush = true

			// Comments
			case char == ';':
				flush = true
				skip = true

			// Operand Separator
			case char == ',':
				flush = true

			// Label Terminator (i.e. LOOP:)
			case char == ':':
				if tokenType != TOKEN_IDENT {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

				flush = true

			// Assembler Directives
			case char == '.':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_DIRECTIVE
					keep = true
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// String Literal
			case char == '"':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_STRING
					keep = true
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Immediate Operand (i.e. #$2A, #42)
			case char == '#':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IMMEDIATE
					keep = true
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Hex Prefix and Numeric Sign
			case char == '$' || char == '-':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
					keep = true
				} else if tokenType == TOKEN_IMMEDIATE && builder.Len() == 1 {
					keep = true
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Numeric Literal
			case unicode.IsDigit(char):
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				}

				keep = true

			// Identifier
			case char == '_' || unicode.IsLetter(char):
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				}

				keep = true

			default:
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			if keep {
				builder.WriteRune(char)
			}

			if flush {
				flushToken()
			}

			if skip {
				break
			}
		}

		if tokenType == TOKEN_STRING {
			errs = append(errs, &InvalidStringError{cursor})
			builder.Reset()
			tokenType = TOKEN_NONE
		}

		flushToken()

		if len(tokens) == 0 {
			nextLine(line)
			continue
		}

		// Pass any potential assembler errors if we already had parser errors
		if len(errs) > lineErrs {
			nextLine(line)
			continue
		}

		// Assemble line
		// - Write instruction bytes to the image
		// - Save label refs for unknown labels
		// - Type check instruction arguments
		var label *Token = nil
		var directive DirectiveType
		var mnemonic string
		var keyword *Token = nil
		var operands []Token

		classify := func(token *Token, rest []Token) bool {
			if token.Type == TOKEN_DIRECTIVE {
				directive = parseDirective(token.Value)
			} else if token.Type == TOKEN_IDENT && machine.IsMnemonic(token.Value) {
				mnemonic = strings.ToUpper(token.Value)
			} else {
				return false
			}

			keyword = token
			operands = rest

			return true
		}

		if !classify(&tokens[0], tokens[1:]) && tokens[0].Type == TOKEN_IDENT {
			label = &tokens[0]
		}

		if label != nil {
			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				nextLine(line)
				continue
			}

			classify(&tokens[1], tokens[2:])
		}

		if keyword == nil || (mnemonic == "" && directive == DIRECTIVE_INVALID) {
			unknown := &tokens[0]

			if label != nil {
				unknown = &tokens[1]
			}

			errs = append(
				errs, &UnknownIdentifierError{unknown.Position, unknown.Value},
			)

			nextLine(line)
			continue
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		start := program

		switch directive {
		// .ORG $hhhh
		case DIRECTIVE_ORG:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]TokenType{TOKEN_LITERAL},
						operands[0].Type,
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[0], LITERAL_WORD)

			if err != nil {
				errs = append(errs, err)
			}

			program = uint32(literal)
			start = program

		// .BYTE $hh[, $hh ...]
		case DIRECTIVE_BYTE:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				if operands[i].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]TokenType{TOKEN_LITERAL},
							operands[i].Type,
						},
					)

					continue
				}

				literal, err := parseLiteral(&operands[i], LITERAL_BYTE)

				if err != nil {
					errs = append(errs, err)
				}

				emit(uint8(literal))
			}

		// .WORD $hhhh|label[, ...]
		case DIRECTIVE_WORD:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				if operands[i].Type == TOKEN_LITERAL {
					literal, err := parseLiteral(&operands[i], LITERAL_WORD)

					if err != nil {
						errs = append(errs, err)
					}

					emit(encoding.LowByte(literal), encoding.HighByte(literal))
				} else if operands[i].Type == TOKEN_IDENT {
					wordRefs = append(
						wordRefs,
						WordRef{
							operands[i].Value,
							uint16(program),
							operands[i].Position,
						},
					)

					emit(0x00, 0x00)
				} else {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[i].Position,
							[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
							operands[i].Type,
						},
					)
				}
			}

		// .TEXT "..."
		case DIRECTIVE_TEXT:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_STRING {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]TokenType{TOKEN_STRING},
						operands[0].Type,
					},
				)

				break
			}

			s, err := strconv.Unquote(operands[0].Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{operands[0].Position})
				break
			}

			for _, c := range s {
				if c > unicode.MaxASCII {
					errs = append(
						errs, &OversizedCharacterError{operands[0].Position},
					)

					break
				}

				emit(uint8(c))
			}
		}

		if mnemonic != "" {
			var mode = machine.MODE_IMPLIED
			var operand uint16

			if count := len(operands); count > 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				nextLine(line)
				continue
			} else if count == 1 {
				switch operands[0].Type {
				// LDA #$2A
				case TOKEN_IMMEDIATE:
					literal, err := parseLiteral(&operands[0], LITERAL_BYTE)

					if err != nil {
						errs = append(errs, err)
					}

					mode = machine.MODE_IMMEDIATE
					operand = literal

				// STA $10, STA $4000
				case TOKEN_LITERAL:
					literal, err := parseLiteral(&operands[0], LITERAL_WORD)

					if err != nil {
						errs = append(errs, err)
					}

					if isZeroPage(&operands[0], literal) {
						mode = machine.MODE_ZEROPAGE
					} else {
						mode = machine.MODE_ABSOLUTE
					}

					operand = literal

				// BNE LOOP
				case TOKEN_IDENT:
					mode = machine.MODE_RELATIVE

				default:
					errs = append(
						errs,
						&InvalidOperandError{
							operands[0].Position,
							[]TokenType{
								TOKEN_IMMEDIATE, TOKEN_LITERAL, TOKEN_IDENT,
							},
							operands[0].Type,
						},
					)

					nextLine(line)
					continue
				}
			}

			instruction, ok := machine.Lookup(mnemonic, mode)

			if !ok {
				_, implied := machine.Lookup(mnemonic, machine.MODE_IMPLIED)

				if implied != (mode == machine.MODE_IMPLIED) {
					required := 1

					if implied {
						required = 0
					}

					errs = append(
						errs,
						&InvalidNumArgumentsError{
							keyword.Position, required, len(operands),
						},
					)
				} else {
					errs = append(
						errs,
						&InvalidAddressingError{
							operands[0].Position, mnemonic, mode,
						},
					)
				}

				nextLine(line)
				continue
			}

			if entry < 0 {
				entry = int64(program)
			}

			if mode == machine.MODE_RELATIVE {
				labelRefs = append(
					labelRefs,
					LabelRef{
						operands[0].Value,
						uint16(program),
						operands[0].Position,
					},
				)
			}

			switch instruction.Size() {
			case 0:
				emit(instruction.Opcode())
			case 1:
				emit(instruction.Opcode(), encoding.LowByte(operand))
			case 2:
				emit(
					instruction.Opcode(),
					encoding.LowByte(operand),
					encoding.HighByte(operand),
				)
			}
		}

		if overflow {
			errs = append(errs, &OversizedBinaryError{})
			return
		}

		if symtable != nil && program > start {
			symtable.Symbols[uint16(start)] = cursor.LineByte
		}

		nextLine(line)
	}

	// Label
	// - Validate and resolve branch targets
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		// Relative to the next instruction, wrapping like the program counter
		offset := int64(int16(addr - (ref.Addr + 2)))

		if offset < BRANCH_MIN || offset > BRANCH_MAX {
			errs = append(
				errs, &OversizedLabelError{ref.Position, -BRANCH_MIN, offset},
			)

			continue
		}

		image[uint32(ref.Addr)+1] = uint8(offset)
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	// Word
	// - Resolve .WORD directives whose arguments were label references
	for _, ref := range wordRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		image[ref.Addr] = encoding.LowByte(addr)
		image[uint32(ref.Addr)+1] = encoding.HighByte(addr)
	}

	if high == 0 {
		low = program & 0xFFFF
		high = low
	}

	if entry < 0 {
		entry = int64(low)
	}

	result.Origin = uint16(low)
	result.Entry = uint16(entry)
	result.Code = image[low:high]

	return
}
