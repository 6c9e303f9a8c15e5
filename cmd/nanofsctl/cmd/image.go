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

var imageCreateCmdFlags = struct {
	size   bytesValue
	offset bytesValue
	uuid   uuidValue
	format bool
}{
	size:   bytesValue{size: 10 * mib},
	offset: bytesValue{size: mib},
}

// imageCmd groups disk image commands.
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage raw disk images",
	Long:  ``,
	Args:  cobra.NoArgs,
}

// imageCreateCmd represents the image create command.
var imageCreateCmd = &cobra.Command{
	Use:   "create <image>",
	Short: "Create a sparse raw disk image with an MBR partition in slot 2",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImageCreateCmd(cmd.OutOrStdout(), args[0])
	},
}

func runImageCreateCmd(out io.Writer, path string) (err error) {
	dev, err := disk.Create(path, int64(imageCreateCmdFlags.size.size))
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := dev.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err = partition.Partition(dev, partition.Options{Offset: int64(imageCreateCmdFlags.offset.size)}, printf("image")); err != nil {
		return fmt.Errorf("error partitioning %q: %w", path, err)
	}

	if !imageCreateCmdFlags.format {
		_, err = fmt.Fprintf(out, "created %s (%s), partition %d at offset %d\n", path, &imageCreateCmdFlags.size, mbr.Slot, imageCreateCmdFlags.offset.size)

		return err
	}

	opts := partition.NewFormatOptions()
	opts.UUID = imageCreateCmdFlags.uuid.id
	opts.Strict = true
	opts.Logger = logger.With(zapPath(path))

	offset, err := partition.Format(dev, opts, printf("format"))
	if err != nil {
		return fmt.Errorf("error formatting %q: %w", path, err)
	}

	_, err = fmt.Fprintf(out, "NanoFs: formatted partition %d at offset %d (%d MiB)\n", mbr.Slot, offset, offset/mib)

	return err
}

func init() {
	imageCreateCmd.Flags().Var(&imageCreateCmdFlags.size, "size", "image size")
	imageCreateCmd.Flags().Var(&imageCreateCmdFlags.offset, "offset", "partition offset, a multiple of 512 bytes")
	imageCreateCmd.Flags().Var(&imageCreateCmdFlags.uuid, "uuid", "filesystem UUID used with --format (random by default)")
	imageCreateCmd.Flags().BoolVar(&imageCreateCmdFlags.format, "format", false, "format the partition as NanoFS")

	imageCmd.AddCommand(imageCreateCmd)
	rootCmd.AddCommand(imageCmd)
}
