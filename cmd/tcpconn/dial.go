package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustatian/tcpconn"
)

type dialOptions struct {
	common *commonOptions
	host   string
	port   string
}

func newDialCommand(common *commonOptions) *cobra.Command {
	opts := dialOptions{common: common}

	cmd := &cobra.Command{
		Use:   "dial [OPTIONS] MESSAGE",
		Short: "Send a terminated message to a peer and print its reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDial(cmd.OutOrStdout(), opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.host, "host", "H", "127.0.0.1", "Host name or IPv4 address of the peer")
	flags.StringVarP(&opts.port, "port", "p", "", "Port or service name of the peer")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}

func runDial(out io.Writer, opts dialOptions, message string) error {
	c, err := tcpconn.Open(opts.common.connOptions()...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.ConnectTimeout(opts.host, opts.port, opts.common.timeout); err != nil {
		return err
	}

	req := append([]byte(message), tcpconn.Terminator...)
	if err := c.Send(req); err != nil {
		return err
	}

	reply, err := c.ReceiveUntilTerminator()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", reply)
	return err
}
