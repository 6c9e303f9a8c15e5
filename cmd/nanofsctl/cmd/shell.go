// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/siderolabs/nanofs/pkg/logging"
	"github.com/siderolabs/nanofs/pkg/udpsh"
)

var shellCmdFlags struct {
	port    int
	timeout time.Duration
}

// shellCmd represents the shell command.
var shellCmd = &cobra.Command{
	Use:   "shell <host>",
	Short: "Open the kernel administrative UDP shell",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		addr := net.JoinHostPort(args[0], strconv.Itoa(shellCmdFlags.port))

		client := udpsh.NewClient(addr,
			udpsh.WithTimeout(shellCmdFlags.timeout),
			udpsh.WithLogger(logger.With(logging.Component("udpsh"))),
		)

		if err := client.Connect(); err != nil {
			return err
		}

		defer client.Close() //nolint:errcheck

		var prompt string

		if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			prompt = "$ "

			fmt.Fprintf(cmd.OutOrStdout(), "nanofs udp shell -> %s\n", addr) //nolint:errcheck
		}

		err := udpsh.Interact(ctx, client, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), prompt)
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	},
}

func init() {
	shellCmd.Flags().IntVarP(&shellCmdFlags.port, "port", "p", udpsh.DefaultPort, "shell UDP port")
	shellCmd.Flags().DurationVar(&shellCmdFlags.timeout, "timeout", udpsh.DefaultTimeout, "reply datagram timeout")

	rootCmd.AddCommand(shellCmd)
}
