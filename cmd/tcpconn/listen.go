package main

import (
	"fmt"
	"io"

	"github.com/containerd/log"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/rustatian/tcpconn"
)

var okReply = append([]byte("OK"), tcpconn.Terminator...)

type listenOptions struct {
	common  *commonOptions
	port    string
	backlog int
	size    string
}

func newListenCommand(common *commonOptions) *cobra.Command {
	opts := listenOptions{common: common}

	cmd := &cobra.Command{
		Use:   "listen [OPTIONS]",
		Short: "Accept one peer, print its message and acknowledge it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.port, "port", "p", "0", "Port or service name to listen on")
	flags.IntVar(&opts.backlog, "backlog", 1, "Listen backlog")
	flags.StringVar(&opts.size, "size", "", "Read a fixed-size binary payload (e.g. 512, 4KiB) instead of a terminated message")
	return cmd
}

func runListen(out io.Writer, opts listenOptions) (retErr error) {
	var size int64
	if opts.size != "" {
		var err error
		if size, err = units.RAMInBytes(opts.size); err != nil {
			return fmt.Errorf("invalid --size: %w", err)
		}
	}

	ln, err := tcpconn.Open(opts.common.connOptions()...)
	if err != nil {
		return err
	}
	defer func() {
		if err := ln.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	if err := ln.Bind(opts.port); err != nil {
		return err
	}
	if err := ln.Listen(opts.backlog); err != nil {
		return err
	}
	port, err := ln.Port()
	if err != nil {
		return err
	}
	log.L.WithField("port", port).Info("waiting for a peer")

	peer, err := ln.AcceptTimeout(opts.common.timeout)
	if err != nil {
		return err
	}
	defer peer.Close()

	var msg []byte
	if size > 0 {
		msg, err = peer.ReceiveExact(int(size))
		if err == nil && int64(len(msg)) < size {
			log.L.WithFields(log.Fields{"want": size, "got": len(msg)}).Warn("peer closed before the full payload arrived")
		}
	} else {
		msg, err = peer.ReceiveUntilTerminator()
	}
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "%s\n", msg); err != nil {
		return err
	}
	return peer.Send(okReply)
}
