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

//go:build unix

package main

import (
	"errors"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	KEY_INTERRUPT = 0x03
	KEY_DELETE    = 0x7F
	KEY_BACKSPACE = 0x08

	INPUT_BUFFER = 256
	INPUT_IDLE   = 5 * time.Millisecond
)

// Reads raw keystrokes from stdin on its own goroutine. The machine only sees
// them through Poll, which IOController.Update calls from the run loop.
type termInput struct {
	fd        int
	state     *term.State
	keys      chan uint8
	interrupt func()
	stopCh    chan struct{}
	done      chan struct{}
	stopped   sync.Once
}

func startTermInput(interrupt func()) (*termInput, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return nil, errors.New("-input requires standard input to be a terminal")
	}

	state, err := term.MakeRaw(fd)

	if err != nil {
		return nil, err
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		term.Restore(fd, state)
		return nil, err
	}

	input := &termInput{
		fd:        fd,
		state:     state,
		keys:      make(chan uint8, INPUT_BUFFER),
		interrupt: interrupt,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	go input.read()

	return input, nil
}

func (input *termInput) read() {
	defer close(input.done)

	buf := make([]uint8, 64)

	for {
		select {
		case <-input.stopCh:
			return
		default:
		}

		n, err := unix.Read(input.fd, buf)

		for i := 0; i < n; i++ {
			key := buf[i]

			switch key {
			case KEY_INTERRUPT:
				input.interrupt()
				continue
			case '\r':
				key = '\n'
			case KEY_DELETE:
				key = KEY_BACKSPACE
			}

			// Keys typed faster than the machine polls are dropped
			select {
			case input.keys <- key:
			default:
			}
		}

		if errors.Is(err, unix.EAGAIN) || (err == nil && n == 0) {
			time.Sleep(INPUT_IDLE)
			continue
		}

		if err != nil {
			return
		}
	}
}

func (input *termInput) Poll() []uint8 {
	var result []uint8

	for {
		select {
		case key := <-input.keys:
			result = append(result, key)
		default:
			return result
		}
	}
}

func (input *termInput) Stop() {
	input.stopped.Do(func() {
		close(input.stopCh)
	})

	<-input.done

	unix.SetNonblock(input.fd, false)
	term.Restore(input.fd, input.state)
}
