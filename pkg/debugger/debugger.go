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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/emu8/pkg/disasm"
	"github.com/lassandro/emu8/pkg/machine"
)

func (dbg *Debugger) output() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.interrupt.Swap(false) {
		dbg.Break = true
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	if dbg.HasBreakpoint(mc.State.Program) {
		dbg.HandleBreak(dbg, mc)
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// Breaks before the next instruction. Safe to call from a signal handler
// goroutine while the machine runs.
func (dbg *Debugger) Interrupt() {
	dbg.interrupt.Store(true)
}

func (dbg *Debugger) HasBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return true
		}
	}

	return false
}

// Returns false if a breakpoint already exists at addr
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	if dbg.HasBreakpoint(addr) {
		return false
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) RemoveBreakpoint(addr uint16) bool {
	for i, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			dbg.Breakpoints = append(dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...)
			return true
		}
	}

	return false
}

// Adds a watchpoint or changes the type of an existing one at addr
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) {
	for i := range dbg.Watchpoints {
		if dbg.Watchpoints[i].Addr == addr {
			dbg.Watchpoints[i].Type = wtype
			return
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
}

func (dbg *Debugger) RemoveWatchpoint(addr uint16) bool {
	for i, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr {
			dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
			return true
		}
	}

	return false
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	out := dbg.output()

	if dbg.Source == nil {
		fmt.Fprintln(out, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(out, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(out, "No instruction found at 0x%04X\n", addr)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(out, err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lines[offset]; found {
			fmt.Fprintf(out, "\033[1m[0x%04X]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(out, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}

func (dbg *Debugger) PrintMem(mem *machine.Memory, addr uint16, count int) {
	out := dbg.output()

	for i := 0; i < count; i++ {
		current := addr + uint16(i)

		if i%8 == 0 {
			if i > 0 {
				fmt.Fprintln(out)
			}

			fmt.Fprintf(out, "\033[1m[0x%04X]\033[0m ", current)
		}

		if value := mem.Read8(current); value == 0 {
			fmt.Fprintf(out, "\033[1;30m%02X\033[0m ", value)
		} else {
			fmt.Fprintf(out, "%02X ", value)
		}
	}

	fmt.Fprintln(out)
}

// Prints count instructions from addr. The program counter is marked with
// '>' and breakpoints with '*'.
func (dbg *Debugger) PrintDisasm(mc *machine.Machine, addr uint16, count int) {
	out := dbg.output()

	var labels map[uint16]string
	if dbg.SymTable != nil {
		labels = dbg.SymTable.Labels
	}

	for _, line := range disasm.Range(&mc.Memory, addr, count) {
		if label, exists := labels[line.Addr]; exists {
			fmt.Fprintf(out, "\033[1m%s:\033[0m\n", label)
		}

		marker := []byte("  ")

		if line.Addr == mc.State.Program {
			marker[0] = '>'
		}

		if dbg.HasBreakpoint(line.Addr) {
			marker[1] = '*'
		}

		fmt.Fprintf(
			out, "%s %04X  %-8s  %s\n",
			marker, line.Addr, line.Hex(), line.Text(labels),
		)
	}
}

func (dbg *Debugger) PrintRegisters(mc *machine.Machine) {
	out := dbg.output()

	fmt.Fprintln(out, mc)
	fmt.Fprintf(out, "Flags: %s\n", Flags(mc.State.Procstat))
}

// Renders the status register as NV-BDIZC, upper case for set bits
func Flags(procstat uint8) string {
	const names = "NV-BDIZC"

	result := []byte(names)

	for i := range result {
		if result[i] == '-' {
			continue
		}

		if procstat&(0x80>>i) == 0 {
			result[i] += 'a' - 'A'
		}
	}

	return string(result)
}
