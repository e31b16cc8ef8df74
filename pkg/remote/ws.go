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
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
)

const WS_PATH = "/emu8"

type wsClientConn struct {
	conn   *websocket.Conn
	closed bool
	msgBuf []uint8
}

var wsUpgrader = websocket.Upgrader{}

// Upgrades the request to a WebSocket and serves it. Commands may be split
// across or packed into binary messages freely.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.logger().Printf("New client connection from %s", r.RemoteAddr)

	conn, err := wsUpgrader.Upgrade(w, r, nil)

	if err != nil {
		srv.logger().Printf("WebSocket upgrade error: %v", err)
		return
	}

	defer conn.Close()

	client := wsClientConn{conn: conn}

	srv.serveClient(r.Context(), conn.RemoteAddr().String(), &client)
}

func (conn *wsClientConn) close() {
	conn.closed = true
}

func (conn *wsClientConn) isClosed() bool {
	return conn.closed
}

func (conn *wsClientConn) out(b sendBuf) error {
	return conn.conn.WriteMessage(websocket.BinaryMessage, b.buf)
}

func (conn *wsClientConn) recvMsg() error {
	tp, msg, err := conn.conn.ReadMessage()

	if err != nil {
		return err
	}

	if tp != websocket.BinaryMessage {
		return errors.New("expected binary message, got something else")
	}

	conn.msgBuf = append(conn.msgBuf, msg...)
	return nil
}

func (conn *wsClientConn) fill(count int) error {
	for len(conn.msgBuf) < count {
		if err := conn.recvMsg(); err != nil {
			return err
		}
	}

	return nil
}

func (conn *wsClientConn) inB() (uint8, error) {
	if err := conn.fill(1); err != nil {
		return 0, err
	}

	res := conn.msgBuf[0]
	conn.msgBuf = conn.msgBuf[1:]
	return res, nil
}

func (conn *wsClientConn) inW() (uint16, error) {
	if err := conn.fill(2); err != nil {
		return 0, err
	}

	res := (uint16(conn.msgBuf[0]) << 8) | uint16(conn.msgBuf[1])
	conn.msgBuf = conn.msgBuf[2:]
	return res, nil
}
