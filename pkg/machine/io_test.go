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

package machine_test

import (
	"bytes"
	"log"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/emu8/pkg/machine"
)

type sliceSource struct {
	batches [][]uint8
}

func (src *sliceSource) Poll() []uint8 {
	if len(src.batches) == 0 {
		return nil
	}

	batch := src.batches[0]
	src.batches = src.batches[1:]
	return batch
}

func TestPortReadWrite(t *testing.T) {
	ctl := machine.NewIOController(log.New(new(bytes.Buffer), "", 0))

	assert.Equal(t, uint8(0x00), ctl.ReadPort(0x02))

	ctl.WritePort(0x02, 0x42)
	ctl.WritePort(0x02, 0x43)

	assert.Equal(t, uint8(0x43), ctl.ReadPort(0x02))
	assert.Equal(t, uint8(0x43), ctl.ReadPort(0x02))
	assert.Equal(t, []machine.PortWrite{{0x02, 0x42}, {0x02, 0x43}}, ctl.Writes())
}

func TestZeroValueController(t *testing.T) {
	var logbuf bytes.Buffer

	flags, prefix, writer := log.Flags(), log.Prefix(), log.Writer()
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(&logbuf)

	defer func() {
		log.SetFlags(flags)
		log.SetPrefix(prefix)
		log.SetOutput(writer)
	}()

	var ctl machine.IOController

	assert.Equal(t, uint8(0x00), ctl.ReadPort(0x02))

	ctl.WritePort(0x02, 0x07)
	ctl.WritePort(0x00, 0x09)

	assert.Equal(t, uint8(0x07), ctl.ReadPort(0x02))
	assert.Equal(t, uint8(0x09), ctl.ReadPort(0x00))
	assert.Equal(t, "Output to port 0 - value: 0x09 (9)\n", logbuf.String())
}

func TestInputQueueOverridesPort(t *testing.T) {
	ctl := machine.NewIOController(log.New(new(bytes.Buffer), "", 0))

	ctl.WritePort(0x07, 0x99)
	ctl.Enqueue('a', 'b')

	assert.Equal(t, 2, ctl.Pending())
	assert.Equal(t, uint8('a'), ctl.ReadPort(0x07))
	assert.Equal(t, uint8('b'), ctl.ReadPort(0x31))
	assert.Equal(t, uint8(0x99), ctl.ReadPort(0x07))
	assert.Equal(t, 0, ctl.Pending())
}

func TestUpdate(t *testing.T) {
	ctl := machine.NewIOController(log.New(new(bytes.Buffer), "", 0))

	ctl.Update()
	assert.Equal(t, 0, ctl.Pending())

	ctl.Source = &sliceSource{batches: [][]uint8{{'x'}, nil, {'y', 'z'}}}

	ctl.Update()
	ctl.Update()
	ctl.Update()
	ctl.Update()

	assert.Equal(t, 3, ctl.Pending())
	assert.Equal(t, uint8('x'), ctl.ReadPort(0))
	assert.Equal(t, uint8('y'), ctl.ReadPort(0))
	assert.Equal(t, uint8('z'), ctl.ReadPort(0))
}

func TestPortLogging(t *testing.T) {
	var buf bytes.Buffer

	ctl := machine.NewIOController(log.New(&buf, "", 0))

	ctl.WritePort(machine.PORT_OUTPUT, 0xFF)
	ctl.WritePort(machine.PORT_SERIAL, 'A')
	ctl.WritePort(0x03, 0x01)

	want := "Output to port 0 - value: 0xFF (255)\n" +
		"Serial output - char: 'A'\n"

	if have := buf.String(); have != want {
		t.Errorf("Log mismatch\nwant:%q\nhave:%q", want, have)
	}
}

func TestPrintStats(t *testing.T) {
	ctl := machine.NewIOController(log.New(new(bytes.Buffer), "", 0))

	ctl.WritePort(0x10, 0x01)
	ctl.WritePort(0x00, 0x09)
	ctl.WritePort(0x10, 0x02)

	var buf bytes.Buffer
	ctl.PrintStats(&buf)

	want := "Total I/O operations: 3\n" +
		"Active ports: 2\n" +
		"  Port 0x00: 0x09\n" +
		"  Port 0x10: 0x02\n"

	if have := buf.String(); have != want {
		t.Errorf("Stats mismatch\nwant:%q\nhave:%q", want, have)
	}

	assert.Equal(t, 3, len(ctl.Writes()))
}
