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
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"
)

const (
	ACCEPT_DELAY_MIN = 5 * time.Millisecond
	ACCEPT_DELAY_MAX = time.Second
)

type tcpClientConn struct {
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Accepts clients until the listener fails or ctx is cancelled. Cancelling
// ctx closes the listener and returns nil.
func (srv *Server) ServeTCP(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	srv.logger().Printf("Started TCP server at %s", listener.Addr())

	var delay time.Duration

	for {
		conn, err := listener.Accept()

		if err != nil {
			if ctx.Err() != nil {
				return nil
			} else if errors.Is(err, net.ErrClosed) {
				return err
			}

			// Back off on repeated failures such as running out of file
			// descriptors
			if delay == 0 {
				delay = ACCEPT_DELAY_MIN
			} else {
				delay = min(delay*2, ACCEPT_DELAY_MAX)
			}

			srv.logger().Printf("Failed to accept connection: %v; retrying in %v", err, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}

			continue
		}

		delay = 0

		srv.logger().Printf("New client connection from %s", conn.RemoteAddr())
		go srv.ServeConn(ctx, conn)
	}
}

// Serves a single stream connection until the client says goodbye, the
// stream fails or ctx is cancelled. The connection is closed on return.
func (srv *Server) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	client := tcpClientConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}

	srv.serveClient(ctx, conn.RemoteAddr().String(), &client)
}

func (conn *tcpClientConn) close() {
	conn.closed = true
}

func (conn *tcpClientConn) isClosed() bool {
	return conn.closed
}

func (conn *tcpClientConn) out(b sendBuf) error {
	_, err := conn.conn.Write(b.buf)
	return err
}

func (conn *tcpClientConn) inB() (uint8, error) {
	return conn.reader.ReadByte()
}

func (conn *tcpClientConn) inW() (uint16, error) {
	bytes := [2]uint8{}

	if _, err := io.ReadFull(conn.reader, bytes[:]); err != nil {
		return 0, err
	}

	return (uint16(bytes[0]) << 8) | uint16(bytes[1]), nil
}
