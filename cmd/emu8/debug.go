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
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/emu8/pkg/debugger"
	"github.com/lassandro/emu8/pkg/encoding"
	"github.com/lassandro/emu8/pkg/machine"
)

const debugHelp = `break    [add|list|remove|clear] [0x####|label]
watch    [add|list|remove|clear] [0x####|label] [read|write|readwrite]
register [A|X|Y|S|P|PC] [0x####]
source   [0x####|label] [#]
labels
jump     [0x####|label]
memory   [0x####|label] [#]
set      [0x####] [0x##]
disasm   [0x####|label] [#]
display
io
input    [0x##|text]...
continue, next, reset, clear, quit`

type debugSession struct {
	dbg     *debugger.Debugger
	img     *image
	scanner *bufio.Scanner
	out     io.Writer
	lastcmd []string
	quit    context.CancelFunc
	stopped bool
}

func newDebugSession(
	img *image, in io.Reader, out io.Writer, quit context.CancelFunc,
) *debugSession {
	session := &debugSession{
		img:     img,
		scanner: bufio.NewScanner(in),
		out:     out,
		quit:    quit,
	}

	session.dbg = &debugger.Debugger{
		SymTable:    img.SymTable,
		Source:      img.Source,
		Output:      out,
		HandleBreak: session.handleBreak,
		HandleRead:  session.handleRead,
		HandleWrite: session.handleWrite,
	}

	return session
}

func (s *debugSession) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *debugSession) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *debugSession) lookupLabel(name string) (uint16, bool) {
	if s.dbg.SymTable == nil {
		return 0, false
	}

	for addr, label := range s.dbg.SymTable.Labels {
		if label == name {
			return addr, true
		}
	}

	return 0, false
}

func (s *debugSession) labelSuffix(addr uint16) string {
	if s.dbg.SymTable == nil {
		return ""
	}

	if label, exists := s.dbg.SymTable.Labels[addr]; exists {
		return fmt.Sprintf(" \033[1;30m(%s)\033[0m", label)
	}

	return ""
}

func (s *debugSession) parseAddr(arg string) (uint16, error) {
	if addr, exists := s.lookupLabel(arg); exists {
		return addr, nil
	}

	return encoding.DecodeHex(arg)
}

func parseCount(arg string) (int, error) {
	value, err := strconv.ParseUint(arg, 10, 16)
	return int(value), err
}

// Reads an optional [address] [count] pair. A lone number is taken as the
// count from the current PC.
func (s *debugSession) parseRange(
	mc *machine.Machine, args []string, count int,
) (uint16, int, error) {
	addr := mc.State.Program

	if len(args) > 0 {
		var err error

		if addr, err = s.parseAddr(args[0]); err != nil {
			if count, err = parseCount(args[0]); err != nil {
				return 0, 0, err
			}

			addr = mc.State.Program
		}
	}

	if len(args) > 1 {
		var err error

		if count, err = parseCount(args[1]); err != nil {
			return 0, 0, err
		}
	}

	return addr, count, nil
}

func (s *debugSession) debugBreak(args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####|label]"

		if len(args) != 1 {
			s.println(usage)
			return
		}

		addr, err := s.parseAddr(args[0])

		if err != nil {
			s.println(err)
			return
		}

		if s.dbg.AddBreakpoint(addr) {
			s.printf("Breakpoint added [%#04x]%s\n", addr, s.labelSuffix(addr))
		}

	case "l", "ls", "list":
		for i, breakpoint := range s.dbg.Breakpoints {
			s.printf("#%d: %#04x%s\n", i, breakpoint.Addr, s.labelSuffix(breakpoint.Addr))
		}

	case "r", "rm", "remove":
		const usage = "break remove [0x####|label]"

		if len(args) != 1 {
			s.println(usage)
			return
		}

		addr, err := s.parseAddr(args[0])

		if err != nil {
			s.println(err)
			return
		}

		if s.dbg.RemoveBreakpoint(addr) {
			s.printf("Breakpoint removed [%#04x]\n", addr)
		} else {
			s.printf("No breakpoint at %#04x\n", addr)
		}

	case "clear":
		s.dbg.Breakpoints = nil
		s.println("Breakpoints reset")

	default:
		s.printf("break: '%s' is not a valid command\n", cmd)
		s.println(usage)
	}
}

func (s *debugSession) debugWatch(args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####|label] [read|write|readwrite]"

		if len(args) != 2 {
			s.println(usage)
			return
		}

		addr, err := s.parseAddr(args[0])

		if err != nil {
			s.println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			s.println(usage)
			return
		}

		s.dbg.AddWatchpoint(addr, wtype)
		s.printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)

	case "l", "ls", "list":
		for i, watchpoint := range s.dbg.Watchpoints {
			s.printf("#%d: %#04x %s\n", i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [0x####|label]"

		if len(args) != 1 {
			s.println(usage)
			return
		}

		addr, err := s.parseAddr(args[0])

		if err != nil {
			s.println(err)
			return
		}

		if s.dbg.RemoveWatchpoint(addr) {
			s.printf("Watchpoint removed [%#04x]\n", addr)
		} else {
			s.printf("No watchpoint at %#04x\n", addr)
		}

	case "clear":
		s.dbg.Watchpoints = nil
		s.println("Watchpoints reset")

	default:
		s.printf("watch: '%s' is not a valid command\n", cmd)
		s.println(usage)
	}
}

func (s *debugSession) debugReg(mc *machine.Machine, args []string) {
	const usage = "register [A|X|Y|S|P|PC] [0x####]"

	if len(args) == 0 {
		s.dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		s.println(usage)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		s.println(err)
		return
	}

	name := strings.ToUpper(args[0])

	if name == "PC" {
		mc.State.Program = value
		s.printf("\033[1m%s:\033[0m %#04x\n", name, value)
		return
	}

	if value > 0xFF {
		s.printf("%#x does not fit in %s\n", value, name)
		return
	}

	switch name {
	case "A":
		mc.State.Accum = uint8(value)
	case "X":
		mc.State.IndexX = uint8(value)
	case "Y":
		mc.State.IndexY = uint8(value)
	case "S", "SP":
		mc.State.Stack = uint8(value)
	case "P", "PS":
		mc.State.Procstat = uint8(value)
	default:
		s.println("Invalid register")
		return
	}

	s.printf("\033[1m%s:\033[0m %#02x\n", name, value)
}

func (s *debugSession) debugSource(mc *machine.Machine, args []string) {
	const usage = "source [0x####|label] [#]"

	if len(args) > 2 {
		s.println(usage)
		return
	}

	addr, count, err := s.parseRange(mc, args, 3)

	if err != nil {
		s.println(err)
		return
	}

	s.dbg.PrintSource(addr, uint16(count))
}

func (s *debugSession) debugLabels(args []string) {
	const usage = "labels"

	if len(args) > 0 {
		s.println(usage)
		return
	}

	if s.dbg.SymTable == nil {
		s.println("No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(s.dbg.SymTable.Labels))
	for addr := range s.dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		s.printf("\033[1m[%#04x]\033[0m %s\n", addr, s.dbg.SymTable.Labels[addr])
	}
}

func (s *debugSession) debugJump(mc *machine.Machine, args []string) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		s.println(usage)
		return
	}

	addr, err := s.parseAddr(args[0])

	if err != nil {
		s.printf("Unable to find '%s'\n", args[0])
		return
	}

	mc.State.Program = addr
	s.printf("\033[1mPC:\033[0m %#04x%s\n", addr, s.labelSuffix(addr))
}

func (s *debugSession) debugMemory(mc *machine.Machine, args []string) {
	const usage = "memory [0x####|label] [#]"

	if len(args) > 2 {
		s.println(usage)
		return
	}

	addr, count, err := s.parseRange(mc, args, 8)

	if err != nil {
		s.println(err)
		return
	}

	s.dbg.PrintMem(&mc.Memory, addr, count)
}

func (s *debugSession) debugSet(mc *machine.Machine, args []string) {
	const usage = "set [0x####] [0x##]"

	if len(args) != 2 {
		s.println(usage)
		return
	}

	addr, err := s.parseAddr(args[0])

	if err != nil {
		s.println(err)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		s.println(err)
		return
	}

	if value > 0xFF {
		s.printf("%#x does not fit in a byte\n", value)
		return
	}

	mc.Memory.Write8(addr, uint8(value))
	s.dbg.PrintMem(&mc.Memory, addr, 1)
}

func (s *debugSession) debugDisasm(mc *machine.Machine, args []string) {
	const usage = "disasm [0x####|label] [#]"

	if len(args) > 2 {
		s.println(usage)
		return
	}

	addr, count, err := s.parseRange(mc, args, 8)

	if err != nil {
		s.println(err)
		return
	}

	s.dbg.PrintDisasm(mc, addr, count)
}

// Hex arguments queue a single byte, anything else queues its characters
func (s *debugSession) debugInput(mc *machine.Machine, args []string) {
	const usage = "input [0x##|text]..."

	if len(args) == 0 {
		s.println(usage)
		return
	}

	for _, arg := range args {
		if value, err := encoding.DecodeHex(arg); err == nil && value <= 0xFF {
			mc.Devices.IO.Enqueue(uint8(value))
		} else {
			mc.Devices.IO.Enqueue([]uint8(arg)...)
		}
	}

	s.printf("%d byte(s) queued\n", mc.Devices.IO.Pending())
}

func (s *debugSession) reset(mc *machine.Machine) {
	display := mc.Devices.Display
	*display = *machine.NewDisplay(display.Width, display.Height)

	ctl := machine.NewIOController(mc.Devices.IO.Logger)
	ctl.Source = mc.Devices.IO.Source
	*mc.Devices.IO = *ctl

	mc.State = machine.MachineState{}
	mc.Memory.Clear()

	if err := mc.Boot(s.img.Code, s.img.Origin, s.img.Entry); err != nil {
		s.println(err)
		return
	}

	s.printf("\033[1mPC:\033[0m %#04x\n", mc.State.Program)
}

func (s *debugSession) stop() {
	s.stopped = true
	s.dbg.Break = false
	s.quit()
}

func (s *debugSession) repl(mc *machine.Machine) {
	for {
		fmt.Fprint(s.out, "\033[1;30m(dbg)\033[0m ")

		if !s.scanner.Scan() {
			s.println()
			s.stop()
			return
		}

		args := strings.Fields(s.scanner.Text())

		if len(args) == 0 {
			if len(s.lastcmd) == 0 {
				continue
			}
			args = s.lastcmd
		} else {
			s.lastcmd = args
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			s.debugBreak(args)

		case "w", "wp", "watch", "watchpoint":
			s.debugWatch(args)

		case "r", "reg", "register", "registers":
			s.debugReg(mc, args)

		case "s", "src", "source":
			s.debugSource(mc, args)

		case "l", "label", "labels":
			s.debugLabels(args)

		case "j", "jmp", "jump":
			s.debugJump(mc, args)

		case "m", "mem", "memory":
			s.debugMemory(mc, args)

		case "set":
			s.debugSet(mc, args)

		case "d", "dis", "disasm":
			s.debugDisasm(mc, args)

		case "display":
			mc.Devices.Display.Render(s.out)

		case "io":
			mc.Devices.IO.PrintStats(s.out)

		case "i", "input":
			s.debugInput(mc, args)

		case "c", "continue":
			s.dbg.Break = false
			return

		case "n", "next":
			s.dbg.Break = true
			return

		case "q", "quit", "exit":
			s.stop()
			return

		case "clear":
			fmt.Fprint(s.out, "\033[H\033[2J")

		case "reset":
			s.reset(mc)

		case "h", "help":
			s.println(debugHelp)

		default:
			s.printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (s *debugSession) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if s.stopped {
		return
	}

	if !dbg.Break {
		s.println()
		s.println("Program stopped")

		if dbg.Source != nil {
			dbg.PrintSource(mc.State.Program, 8)
		} else {
			dbg.PrintDisasm(mc, mc.State.Program, 8)
		}
	} else {
		dbg.PrintDisasm(mc, mc.State.Program, 1)
	}

	s.repl(mc)
}

func (s *debugSession) handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if s.stopped {
		return
	}

	s.println()
	s.printf("Program stopped: read from %#04x\n", addr)
	dbg.PrintMem(&mc.Memory, addr, 1)
	s.repl(mc)
}

func (s *debugSession) handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if s.stopped {
		return
	}

	s.println()
	s.printf("Program stopped: write to %#04x\n", addr)
	dbg.PrintMem(&mc.Memory, addr, 1)
	s.repl(mc)
}
