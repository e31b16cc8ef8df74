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
	"bufio"
	"io"
	"strings"
)

type Display struct {
	Width  int
	Height int

	buffer []uint8
	dirty  bool
}

func NewDisplay(width, height int) *Display {
	if width < 0 {
		width = 0
	}

	if height < 0 {
		height = 0
	}

	buffer := make([]uint8, width*height)

	for i := range buffer {
		buffer[i] = DISPLAY_BLANK
	}

	return &Display{Width: width, Height: height, buffer: buffer}
}

// Out of range writes are dropped without error
func (d *Display) Write(offset uint16, value uint8) {
	if int(offset) >= len(d.buffer) {
		return
	}

	d.buffer[offset] = value
	d.dirty = true
}

func (d *Display) Cell(offset uint16) (uint8, bool) {
	if int(offset) >= len(d.buffer) {
		return 0, false
	}

	return d.buffer[offset], true
}

func (d *Display) Size() int {
	return len(d.buffer)
}

func (d *Display) Dirty() bool {
	return d.dirty
}

// Returns a copy of the raw cell buffer
func (d *Display) Snapshot() []uint8 {
	result := make([]uint8, len(d.buffer))
	copy(result, d.buffer)
	return result
}

// Printable ASCII renders as itself, everything else as '.'
func (d *Display) Lines() []string {
	lines := make([]string, 0, d.Height)

	var builder strings.Builder

	for y := 0; y < d.Height; y++ {
		builder.Reset()

		for x := 0; x < d.Width; x++ {
			builder.WriteByte(glyph(d.buffer[y*d.Width+x]))
		}

		lines = append(lines, builder.String())
	}

	return lines
}

func (d *Display) Render(w io.Writer) error {
	out := bufio.NewWriter(w)
	border := strings.Repeat("─", d.Width)

	out.WriteString("┌" + border + "┐\n")

	for _, line := range d.Lines() {
		out.WriteString("│" + line + "│\n")
	}

	out.WriteString("└" + border + "┘\n")

	return out.Flush()
}

func glyph(ch uint8) byte {
	if ch >= 0x20 && ch < 0x7F {
		return ch
	}

	return '.'
}
