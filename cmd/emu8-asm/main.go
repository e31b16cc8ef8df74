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
	"bufio"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/buildinfo"

	"github.com/lassandro/emu8/pkg/assembler"
	"github.com/lassandro/emu8/pkg/disasm"
	"github.com/lassandro/emu8/pkg/machine"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

var helpvar bool
var debugvar bool
var listvar bool
var versionvar bool
var outvar string

const usage = "emu8-asm [-debug] [-list] [-out outfile] filename"

const SYMTABLE_EXT = ".emu8db"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&versionvar, "version", false, "Prints the version and exits")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'"+SYMTABLE_EXT+"'",
	)
	flag.BoolVar(
		&listvar, "list", false,
		"Prints a disassembly listing of the assembled program",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

// Prints the offending source line under each positional error
func printErrors(input io.ReadSeeker, errs []error) {
	for _, err := range errs {
		var tokenErr assembler.TokenError

		if input == nil || !errors.As(err, &tokenErr) {
			log.Println(err)
			continue
		}

		cursor := tokenErr.GetPosition()

		if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
			log.Println(err)
			continue
		}

		line, _ := bufio.NewReader(input).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		size := max(int(cursor.Size), 1)

		underlinefmt := fmt.Sprintf(
			"%% %ds%s",
			int(cursor.Byte-cursor.LineByte)+1,
			strings.Repeat("~", size-1),
		)

		log.Printf(
			"%s\n%s\n\033[31m%s\033[0m",
			err,
			line,
			fmt.Sprintf(underlinefmt, "^"),
		)
	}
}

func printListing(w io.Writer, program assembler.Program, labels map[uint16]string) {
	var mem machine.Memory
	mem.LoadProgram(program.Code, program.Origin)

	end := uint32(program.Origin) + uint32(len(program.Code))

	for addr := uint32(program.Origin); addr < end; {
		line, _ := disasm.Instruction(&mem, uint16(addr))

		if label, exists := labels[line.Addr]; exists {
			fmt.Fprintf(w, "%s:\n", label)
		}

		fmt.Fprintln(w, line.String())

		addr += uint32(len(line.Bytes))
	}
}

func emu8_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	if versionvar {
		fmt.Printf("emu8-asm version: %s\n", buildinfo.Version(version, commit, date))
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.ReadSeeker

	if stat, _ := os.Stdin.Stat(); len(args) == 0 && stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m ")

		if outvar == "" {
			outvar = "out.bin"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid assembly file", filename)
			return 1
		}

		input = file
		infile = file.Name()
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m ", filename))

		if outvar == "" {
			outvar = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".bin"
		}
	}

	// Labels feed the listing even without -debug
	symtable := assembler.NewSymTable("")

	if debugvar && input != os.Stdin {
		var err error
		if symtable.Source, err = filepath.Abs(infile); err != nil {
			log.Println(err)
			symtable.Source = ""
		}
	}

	program, errs := assembler.AssembleSource(input, symtable)

	if len(errs) > 0 {
		if input == os.Stdin {
			printErrors(nil, errs)
		} else {
			printErrors(input, errs)
		}

		return 1
	}

	if err := os.WriteFile(outvar, program.Code, 0666); err != nil {
		log.Println("Error writing output file")
		log.Println(err)
		return 1
	}

	if listvar {
		printListing(os.Stdout, program, symtable.Labels)
	}

	if debugvar {
		filename := strings.TrimSuffix(outvar, filepath.Ext(outvar)) + SYMTABLE_EXT

		file, err := os.Create(filename)

		if err != nil {
			log.Println("Error creating symbol table")
			log.Println(err)
			return 1
		}

		defer file.Close()

		if err := gob.NewEncoder(file).Encode(symtable); err != nil {
			log.Println("Error writing symbol table")
			log.Println(err)
			return 1
		}
	}

	if program.Origin != 0x8000 || program.Entry != program.Origin {
		log.Printf(
			"Run with: emu8 -load %#04x -entry %#04x %s",
			program.Origin, program.Entry, outvar,
		)
	}

	return 0
}

func main() {
	os.Exit(emu8_asm())
}
