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

package remote

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lassandro/emu8/pkg/disasm"
	"github.com/lassandro/emu8/pkg/machine"
	"github.com/lassandro/emu8/pkg/runner"
)

// Transport half of a client connection
type clientConn interface {
	close()
	isClosed() bool
	out(b sendBuf) error
	inB() (uint8, error)
	inW() (uint16, error)
}

type Server struct {
	// Builds the machine a new client will own. Each connection gets its
	// own instance, so nothing is shared between clients.
	NewMachine func() (*machine.Machine, error)
	Logger     *log.Logger
}

type clientContext struct {
	logger    *log.Logger
	conn      clientConn
	mc        *machine.Machine
	traceExec bool
}

func (srv *Server) logger() *log.Logger {
	if srv.Logger == nil {
		return log.Default()
	}

	return srv.Logger
}

func (srv *Server) serveClient(ctx context.Context, name string, conn clientConn) {
	base := srv.logger()
	logger := log.New(base.Writer(), fmt.Sprintf("[client/%s] ", name), base.Flags())

	mc, err := srv.NewMachine()

	if err != nil {
		logger.Printf("Failed to create machine: %v", err)
		return
	}

	client := clientContext{logger: logger, conn: conn, mc: mc}

	for !conn.isClosed() && ctx.Err() == nil {
		if err := client.serveNextCmd(ctx); err != nil {
			logger.Printf("Closing client connection due to an error: %v", err)
			break
		}
	}

	logger.Printf("Closing client connection")
}

func (ctx *clientContext) out(b sendBuf) error {
	// Make sure we were not wasting more space by accident
	if len(b.dest) != 0 {
		panic("too many bytes were allocated")
	}

	return ctx.conn.out(b)
}

func (ctx *clientContext) ack() error {
	return ctx.out(newNetAckResponse(0))
}

func (ctx *clientContext) ackB(v uint8) error {
	res := newNetAckResponse(1)
	res.appendB(v)
	return ctx.out(res)
}

func (ctx *clientContext) outFail() error {
	return ctx.out(newNetFailResponse())
}

func (ctx *clientContext) eventTraceExec(pc uint16) error {
	line, _ := disasm.Instruction(&ctx.mc.Memory, pc)
	text := line.Text(nil)

	event := newNetEvent(NET_EVENT_TRACE_EXEC, 4+len(text))
	event.appendW(pc)
	event.appendB(line.Bytes[0])
	event.appendS(text)

	return ctx.out(event)
}

// Unknown opcodes answer NET_FAIL and leave the connection open. Transport
// errors end it.
func (ctx *clientContext) serveNextCmd(runctx context.Context) error {
	mc := ctx.mc

	hdrByte, err := ctx.conn.inB()
	if err != nil {
		return err
	}

	switch NetOpbyte(hdrByte) {
	case NET_BYE:
		ctx.conn.close()

	case NET_TRACE_ON:
		ctx.traceExec = true
		return ctx.ack()

	case NET_TRACE_OFF:
		ctx.traceExec = false
		return ctx.ack()

	case NET_RESET:
		mc.Reset()
		return ctx.ack()

	case NET_STEP:
		pc := mc.State.Program

		if ctx.traceExec {
			if err := ctx.eventTraceExec(pc); err != nil {
				return err
			}
		}

		cycles, err := mc.Step()

		if errors.Is(err, machine.ErrHalt) {
			res := newNetAckResponse(2)
			res.appendB(0)
			res.appendB(1)
			return ctx.out(res)
		} else if err != nil {
			ctx.logger.Printf("Step at 0x%04X failed: %v", pc, err)
			return ctx.outFail()
		}

		res := newNetAckResponse(2)
		res.appendB(uint8(cycles))
		res.appendB(0)
		return ctx.out(res)

	case NET_RUN:
		budget, err := ctx.conn.inW()
		if err != nil {
			return err
		}

		cfg := runner.DefaultConfig()
		cfg.Logger = ctx.logger

		// Zero keeps the default budget, a client never gets an unbounded run
		if budget != 0 {
			cfg.MaxCycles = uint(budget)
		}

		result := runner.Run(runctx, mc, cfg)

		if result.Err != nil {
			return ctx.outFail()
		}

		halted := uint8(0)
		if result.Halted {
			halted = 1
		}

		res := newNetAckResponse(3)
		res.appendW(uint16(min(result.Cycles, 0xFFFF)))
		res.appendB(halted)
		return ctx.out(res)

	case NET_WRITE_A, NET_WRITE_X, NET_WRITE_Y, NET_WRITE_S, NET_WRITE_P:
		val, err := ctx.conn.inB()
		if err != nil {
			return err
		}

		switch NetOpbyte(hdrByte) {
		case NET_WRITE_A:
			mc.State.Accum = val
		case NET_WRITE_X:
			mc.State.IndexX = val
		case NET_WRITE_Y:
			mc.State.IndexY = val
		case NET_WRITE_S:
			mc.State.Stack = val
		case NET_WRITE_P:
			mc.State.Procstat = val
		}

		return ctx.ack()

	case NET_READ_A:
		return ctx.ackB(mc.State.Accum)
	case NET_READ_X:
		return ctx.ackB(mc.State.IndexX)
	case NET_READ_Y:
		return ctx.ackB(mc.State.IndexY)
	case NET_READ_S:
		return ctx.ackB(mc.State.Stack)
	case NET_READ_P:
		return ctx.ackB(mc.State.Procstat)

	case NET_WRITE_PC:
		val, err := ctx.conn.inW()
		if err != nil {
			return err
		}

		mc.State.Program = val
		return ctx.ack()

	case NET_READ_PC:
		res := newNetAckResponse(2)
		res.appendW(mc.State.Program)
		return ctx.out(res)

	case NET_READ_MEM:
		addr, err := ctx.conn.inW()
		if err != nil {
			return err
		}

		count, err := ctx.conn.inB()
		if err != nil {
			return err
		}

		res := newNetAckResponse(int(count))
		res.appendBytes(mc.Memory.Dump(addr, int(count)))
		return ctx.out(res)

	case NET_WRITE_MEM:
		addr, err := ctx.conn.inW()
		if err != nil {
			return err
		}

		val, err := ctx.conn.inB()
		if err != nil {
			return err
		}

		mc.Memory.Write8(addr, val)
		return ctx.ack()

	case NET_READ_PORT:
		port, err := ctx.conn.inB()
		if err != nil {
			return err
		}

		if mc.Devices == nil || mc.Devices.IO == nil {
			return ctx.outFail()
		}

		return ctx.ackB(mc.Devices.IO.ReadPort(port))

	case NET_ENQUEUE:
		val, err := ctx.conn.inB()
		if err != nil {
			return err
		}

		if mc.Devices == nil || mc.Devices.IO == nil {
			return ctx.outFail()
		}

		mc.Devices.IO.Enqueue(val)
		return ctx.ack()

	case NET_READ_DISPLAY:
		if mc.Devices == nil || mc.Devices.Display == nil {
			return ctx.outFail()
		}

		display := mc.Devices.Display
		cells := display.Snapshot()

		res := newNetAckResponse(2 + len(cells))
		res.appendB(uint8(display.Width))
		res.appendB(uint8(display.Height))
		res.appendBytes(cells)
		return ctx.out(res)

	default:
		ctx.logger.Printf("Unrecognized message type %x", hdrByte)
		return ctx.outFail()
	}

	return nil
}
