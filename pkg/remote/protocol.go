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

// Package remote exposes a machine to network clients over TCP or WebSocket
// with a small binary command protocol.
//
// Every message starts with an opbyte. Commands always come from the client
// and are answered with NET_ACK (plus any payload) or NET_FAIL. Words are
// sent big-endian. Events are sent by the server without expecting a reply.
package remote

import (
	"encoding/binary"
)

type NetOpbyte uint8

const (
	// 0x - Responses
	NET_ACK  NetOpbyte = 0x00 // Acknowledged
	NET_FAIL NetOpbyte = 0x01 // Failed

	// 1x - General commands
	NET_BYE       NetOpbyte = 0x10 // Close the connection
	NET_TRACE_ON  NetOpbyte = 0x11 // Trace execution - enable
	NET_TRACE_OFF NetOpbyte = 0x12 // Trace execution - disable
	NET_RESET     NetOpbyte = 0x13 // Reset from the reset vector
	NET_RUN       NetOpbyte = 0x14 // W: cycle budget -> W: cycles, B: halted
	NET_STEP      NetOpbyte = 0x1F // -> B: cycles, B: halted

	// 2x - CPU state
	NET_WRITE_A  NetOpbyte = 0x20
	NET_READ_A   NetOpbyte = 0x21
	NET_WRITE_X  NetOpbyte = 0x22
	NET_READ_X   NetOpbyte = 0x23
	NET_WRITE_Y  NetOpbyte = 0x24
	NET_READ_Y   NetOpbyte = 0x25
	NET_WRITE_S  NetOpbyte = 0x26
	NET_READ_S   NetOpbyte = 0x27
	NET_WRITE_P  NetOpbyte = 0x28
	NET_READ_P   NetOpbyte = 0x29
	NET_WRITE_PC NetOpbyte = 0x2A
	NET_READ_PC  NetOpbyte = 0x2B

	// 3x - Memory and devices
	NET_READ_MEM     NetOpbyte = 0x30 // W: addr, B: count -> count bytes
	NET_WRITE_MEM    NetOpbyte = 0x31 // W: addr, B: value
	NET_READ_PORT    NetOpbyte = 0x32 // B: port -> B: value
	NET_ENQUEUE      NetOpbyte = 0x33 // B: input byte
	NET_READ_DISPLAY NetOpbyte = 0x34 // -> B: width, B: height, cells

	// 8x - Server events
	NET_EVENT_TRACE_EXEC NetOpbyte = 0x82 // W: pc, B: opcode, S: disassembly
)

type sendBuf struct {
	buf  []uint8
	dest []uint8
}

func newNetEvent(typ NetOpbyte, restLen int) sendBuf {
	buf := make([]uint8, restLen+1)
	buf[0] = uint8(typ)
	return sendBuf{buf: buf, dest: buf[1:]}
}

func newNetAckResponse(restLen int) sendBuf {
	return newNetEvent(NET_ACK, restLen)
}

func newNetFailResponse() sendBuf {
	return newNetEvent(NET_FAIL, 0)
}

func (b *sendBuf) appendB(v uint8) {
	b.dest[0] = v
	b.dest = b.dest[1:]
}

func (b *sendBuf) appendW(v uint16) {
	binary.BigEndian.PutUint16(b.dest[0:2], v)
	b.dest = b.dest[2:]
}

// Length prefixed, at most 255 bytes
func (b *sendBuf) appendS(s string) {
	if 255 < len(s) {
		panic("string cannot be sent because it's too long(max: 255 bytes)")
	}

	b.appendB(uint8(len(s)))
	b.appendBytes([]uint8(s))
}

func (b *sendBuf) appendBytes(v []uint8) {
	n := copy(b.dest, v)
	b.dest = b.dest[n:]
}
