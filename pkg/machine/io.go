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

package machine

import (
	"fmt"
	"io"
	"log"
	"sort"
)

type PortWrite struct {
	Port  uint8
	Value uint8
}

// Polled by Update for bytes to append to the input queue. Poll must not
// block.
type InputSource interface {
	Poll() []uint8
}

type IOController struct {
	Logger *log.Logger
	Source InputSource

	ports  map[uint8]uint8
	input  []uint8
	writes []PortWrite
}

func NewIOController(logger *log.Logger) *IOController {
	if logger == nil {
		logger = log.New(log.Writer(), "I/O: ", log.Flags())
	}

	return &IOController{
		Logger: logger,
		ports:  make(map[uint8]uint8),
	}
}

func (ctl *IOController) logger() *log.Logger {
	if ctl.Logger == nil {
		return log.Default()
	}

	return ctl.Logger
}

// The zero value is usable; it logs through the standard logger
func (ctl *IOController) WritePort(port uint8, value uint8) {
	if ctl.ports == nil {
		ctl.ports = make(map[uint8]uint8)
	}

	ctl.ports[port] = value
	ctl.writes = append(ctl.writes, PortWrite{port, value})

	switch port {
	case PORT_OUTPUT:
		ctl.logger().Printf("Output to port 0 - value: 0x%02X (%d)", value, value)
	case PORT_SERIAL:
		ctl.logger().Printf("Serial output - char: %q", rune(value))
	}
}

// While input is pending, the oldest queued byte is returned no matter which
// port is being read. Otherwise the last value written to port, or 0.
func (ctl *IOController) ReadPort(port uint8) uint8 {
	if len(ctl.input) > 0 {
		value := ctl.input[0]
		ctl.input = ctl.input[1:]
		return value
	}

	return ctl.ports[port]
}

func (ctl *IOController) Enqueue(values ...uint8) {
	ctl.input = append(ctl.input, values...)
}

func (ctl *IOController) Pending() int {
	return len(ctl.input)
}

// Called by the driver at a fixed cycle cadence
func (ctl *IOController) Update() {
	if ctl.Source == nil {
		return
	}

	if values := ctl.Source.Poll(); len(values) > 0 {
		ctl.Enqueue(values...)
	}
}

func (ctl *IOController) Writes() []PortWrite {
	result := make([]PortWrite, len(ctl.writes))
	copy(result, ctl.writes)
	return result
}

// Returns the last value written to port and whether it was ever written
func (ctl *IOController) Port(port uint8) (uint8, bool) {
	value, exists := ctl.ports[port]
	return value, exists
}

func (ctl *IOController) PrintStats(w io.Writer) {
	fmt.Fprintf(w, "Total I/O operations: %d\n", len(ctl.writes))
	fmt.Fprintf(w, "Active ports: %d\n", len(ctl.ports))

	ports := make([]int, 0, len(ctl.ports))
	for port := range ctl.ports {
		ports = append(ports, int(port))
	}

	sort.Ints(ports)

	for _, port := range ports {
		fmt.Fprintf(w, "  Port 0x%02X: 0x%02X\n", port, ctl.ports[uint8(port)])
	}
}
