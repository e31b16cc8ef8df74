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
	"log"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/lassandro/emu8/pkg/machine"
	"github.com/lassandro/emu8/pkg/remote"
)

// Runs the remote monitor transports until ctx is cancelled or one of them
// fails. Every client gets a freshly booted copy of img.
func serve(ctx context.Context, opts options, img *image) error {
	srv := &remote.Server{
		NewMachine: func() (*machine.Machine, error) {
			return newMachine(img, log.New(log.Writer(), "I/O: ", log.Flags()))
		},
		Logger: log.Default(),
	}

	group, ctx := errgroup.WithContext(ctx)

	if opts.Serve != "" {
		listener, err := net.Listen("tcp", opts.Serve)

		if err != nil {
			return err
		}

		group.Go(func() error {
			return srv.ServeTCP(ctx, listener)
		})
	}

	if opts.WS != "" {
		mux := http.NewServeMux()
		mux.Handle(remote.WS_PATH, srv)

		httpsrv := &http.Server{Addr: opts.WS, Handler: mux}

		group.Go(func() error {
			log.Printf("Started WebSocket server at %s%s", opts.WS, remote.WS_PATH)

			if err := httpsrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		})

		group.Go(func() error {
			<-ctx.Done()
			return httpsrv.Shutdown(context.Background())
		})
	}

	return group.Wait()
}
