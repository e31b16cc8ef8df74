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
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/retroenv/retrogolib/buildinfo"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func emu8() int {
	opts, err := parseFlags(os.Args[1:])

	if err != nil {
		var usageErr *UsageError

		if errors.As(err, &usageErr) {
			if errors.Is(err, flag.ErrHelp) {
				usageErr.ShowUsage(os.Stdout)
				return 0
			}

			log.Println(usageErr)
			usageErr.ShowUsage(os.Stderr)
			return 1
		}

		log.Println(err)
		return 1
	}

	if opts.Version {
		fmt.Printf("emu8 version: %s\n", buildinfo.Version(version, commit, date))
		return 0
	}

	img, err := loadImage(opts)

	if err != nil {
		log.Println(err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.Serve != "" || opts.WS != "" {
		err = serve(ctx, opts, img)
	} else {
		err = emulate(ctx, opts, img, os.Stdin, os.Stdout)
	}

	if err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(emu8())
}
