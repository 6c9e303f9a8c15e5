// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements nanofsctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siderolabs/nanofs/pkg/logging"
)

// GlobalArgs is the common arguments for the root command.
var GlobalArgs struct {
	Debug bool
}

var logger = zap.NewNop()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:               "nanofsctl",
	Short:             "A CLI for building and inspecting NanoFS disk images",
	Long:              ``,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger = logging.Console(cmd.ErrOrStderr(), GlobalArgs.Debug)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	cmd, err := rootCmd.ExecuteContextC(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())

		errorString := err.Error()
		if strings.Contains(errorString, "arg(s)") || strings.Contains(errorString, "flag") || strings.Contains(errorString, "command") {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, cmd.UsageString())
		}
	}

	return err
}

// printf returns the progress callback logging at debug level.
func printf(component string) func(string, ...any) {
	l := logger.With(logging.Component(component))

	return func(format string, args ...any) {
		l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&GlobalArgs.Debug, "debug", false, "enable debug logging")
}
