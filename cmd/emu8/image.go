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

package main

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/emu8/pkg/assembler"
	"github.com/lassandro/emu8/pkg/demo"
)

const SYMTABLE_EXT = ".emu8db"

// Program bytes plus whatever debug information could be found for them
type image struct {
	Name   string
	Code   []uint8
	Origin uint16
	Entry  uint16

	SymTable *assembler.SymTable
	Source   io.ReadSeeker
}

func isAssembly(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".asm", ".s":
		return true
	}

	return false
}

func symtablePath(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + SYMTABLE_EXT
}

func loadImage(opts options) (*image, error) {
	var img *image
	var err error

	switch {
	case opts.File == "":
		img, err = loadDemo()
	case isAssembly(opts.File):
		img, err = loadAssembly(opts.File)
	default:
		img, err = loadBinary(opts.File, opts.Load, opts.Debug)
	}

	if err != nil {
		return nil, err
	}

	if opts.EntrySet {
		img.Entry = opts.Entry
	}

	return img, nil
}

func loadDemo() (*image, error) {
	symtable := assembler.NewSymTable("")
	program, err := demo.Assemble(symtable)

	if err != nil {
		return nil, err
	}

	return &image{
		Name:     demo.FILENAME,
		Code:     program.Code,
		Origin:   program.Origin,
		Entry:    program.Entry,
		SymTable: symtable,
		Source:   strings.NewReader(demo.Source),
	}, nil
}

func loadAssembly(filename string) (*image, error) {
	data, err := os.ReadFile(filename)

	if err != nil {
		return nil, err
	}

	source, err := filepath.Abs(filename)

	if err != nil {
		source = filename
	}

	symtable := assembler.NewSymTable(source)
	program, errs := assembler.AssembleSource(bytes.NewReader(data), symtable)

	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), errors.Join(errs...))
	}

	return &image{
		Name:     filename,
		Code:     program.Code,
		Origin:   program.Origin,
		Entry:    program.Entry,
		SymTable: symtable,
		Source:   bytes.NewReader(data),
	}, nil
}

// Symbol tables written by emu8-asm -debug are picked up from next to the
// binary when debugging
func loadBinary(filename string, load uint16, debug bool) (*image, error) {
	code, err := os.ReadFile(filename)

	if err != nil {
		return nil, err
	}

	img := &image{
		Name:   filename,
		Code:   code,
		Origin: load,
		Entry:  load,
	}

	if !debug {
		return img, nil
	}

	file, err := os.Open(symtablePath(filename))

	if err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return img, nil
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		log.Println("Error loading symbol file")
		log.Println(err)
		return img, nil
	}

	img.SymTable = &symtable

	if symtable.Source != "" {
		if data, err := os.ReadFile(symtable.Source); err == nil {
			img.Source = bytes.NewReader(data)
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}

	return img, nil
}
