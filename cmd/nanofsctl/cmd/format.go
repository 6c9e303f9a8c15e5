// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/siderolabs/nanofs/internal/pkg/partition"
	"github.com/siderolabs/nanofs/pkg/mbr"
	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
)

const mib = 1024 * 1024

var formatCmdFlags struct {
	uuid   uuidValue
	strict bool
	dryRun bool
}

// formatCmd represents the format command.
var formatCmd = &cobra.Command{
	Use:   "format <image>",
	Short: "Format partition 2 of the disk image as NanoFS",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormatCmd(cmd.OutOrStdout(), args[0])
	},
}

func runFormatCmd(out io.Writer, path string) (err error) {
	var setters []disk.Option

	if !formatCmdFlags.dryRun {
		setters = append(setters, disk.OpenForWrite())
	}

	dev, err := disk.Open(path, setters...)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := dev.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	opts := partition.NewFormatOptions()
	opts.Strict = formatCmdFlags.strict
	opts.UUID = formatCmdFlags.uuid.id
	opts.Logger = logger.With(zapPath(path))

	if formatCmdFlags.dryRun {
		opts.FileSystemType = partition.FilesystemTypeNone
	}

	offset, err := partition.Format(dev, opts, printf("format"))
	if err != nil {
		return fmt.Errorf("error formatting %q: %w", path, err)
	}

	if formatCmdFlags.dryRun {
		_, err = fmt.Fprintf(out, "NanoFs: found partition %d at offset %d (%d MiB)\n", mbr.Slot, offset, offset/mib)

		return err
	}

	_, err = fmt.Fprintf(out, "NanoFs: formatted partition %d at offset %d (%d MiB)\n", mbr.Slot, offset, offset/mib)

	return err
}

func init() {
	formatCmd.Flags().Var(&formatCmdFlags.uuid, "uuid", "filesystem UUID (random by default)")
	formatCmd.Flags().BoolVar(&formatCmdFlags.strict, "strict", false, "validate the MBR signature, partition type and size")
	formatCmd.Flags().BoolVar(&formatCmdFlags.dryRun, "dry-run", false, "locate the partition without writing anything")

	rootCmd.AddCommand(formatCmd)
}
