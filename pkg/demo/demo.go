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

// Package demo ships the bundled sample program run by emu8 -demo.
package demo

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lassandro/emu8/pkg/assembler"
)

const FILENAME = "demo.asm"

//go:embed demo.asm
var Source string

// Assembles the demo. The symbol table, if not nil, is filled in with the
// demo's source positions and labels.
func Assemble(symtable *assembler.SymTable) (assembler.Program, error) {
	program, errs := assembler.AssembleSource(strings.NewReader(Source), symtable)

	if len(errs) > 0 {
		return program, fmt.Errorf("%s: %w", FILENAME, errors.Join(errs...))
	}

	return program, nil
}
