package main

import (
	"fmt"
	"os"
	"time"

	"github.com/containerd/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rustatian/tcpconn"
)

type commonOptions struct {
	debug   bool
	timeout time.Duration
}

func (o *commonOptions) installFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(&o.debug, "debug", "D", false, "Enable debug logging")
	flags.DurationVar(&o.timeout, "timeout", tcpconn.DefaultIOTimeout, "Readiness timeout for connect, accept, send and receive")
}

func (o *commonOptions) setupLogging() error {
	if err := log.SetFormat(log.TextFormat); err != nil {
		return err
	}
	if o.debug {
		return log.SetLevel("debug")
	}
	return log.SetLevel("info")
}

func (o *commonOptions) connOptions() []tcpconn.Option {
	return []tcpconn.Option{
		tcpconn.WithIOTimeout(o.timeout),
		tcpconn.WithLogger(log.L.WithField("component", "tcpconn")),
	}
}

func newRootCommand() *cobra.Command {
	opts := &commonOptions{}

	cmd := &cobra.Command{
		Use:           "tcpconn [OPTIONS] COMMAND",
		Short:         "Exchange terminator-framed messages over a single TCP connection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogging()
		},
	}
	opts.installFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newListenCommand(opts),
		newDialCommand(opts),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
