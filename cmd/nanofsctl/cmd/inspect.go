// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siderolabs/nanofs/cmd/nanofsctl/cmd/output"
	"github.com/siderolabs/nanofs/cmd/nanofsctl/pkg/helpers"
	"github.com/siderolabs/nanofs/pkg/logging"
	"github.com/siderolabs/nanofs/pkg/mbr"
	"github.com/siderolabs/nanofs/pkg/nanofs"
	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
)

var inspectCmdFlags struct {
	output string
	strict bool
}

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Verify the NanoFS partition of the disk image and print its contents",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspectCmd(cmd.OutOrStdout(), args[0])
	},
}

func runInspectCmd(out io.Writer, path string) error {
	w, err := output.NewWriter(inspectCmdFlags.output, out)
	if err != nil {
		return err
	}

	dev, err := disk.Open(path)
	if err != nil {
		return err
	}

	defer dev.Close() //nolint:errcheck

	offset, err := mbr.Locate(dev, mbr.WithStrict(inspectCmdFlags.strict))
	if err != nil {
		return err
	}

	l := logger.With(logging.Component("inspect"), zapPath(path))
	l.Debug("partition located", zap.Int64("offset", offset))

	fs, err := nanofs.Open(dev, offset)
	if err != nil {
		return err
	}

	var errs error

	report, err := fs.Report()
	if err != nil {
		errs = helpers.AppendErrors(errs, err)
	} else {
		if err = w.WriteReport(report); err != nil {
			return err
		}

		if err = w.Flush(); err != nil {
			return err
		}
	}

	if err = fs.Check(); err != nil {
		errs = helpers.AppendErrors(errs, err)
	}

	if errs != nil {
		return errs
	}

	l.Debug("filesystem is consistent", zap.String("info", fs.Info()))

	return nil
}

func zapPath(path string) zap.Field {
	return zap.String("image", path)
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectCmdFlags.output, "output", "o", "table", "output mode (json, table, yaml)")
	inspectCmd.Flags().BoolVar(&inspectCmdFlags.strict, "strict", false, "validate the MBR signature, partition type and size")
	inspectCmd.RegisterFlagCompletionFunc("output", output.CompleteOutputArg) //nolint:errcheck

	rootCmd.AddCommand(inspectCmd)
}
