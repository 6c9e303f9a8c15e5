// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package makefs

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siderolabs/nanofs/pkg/nanofs/bitmap"
	"github.com/siderolabs/nanofs/pkg/nanofs/checksum"
	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
	"github.com/siderolabs/nanofs/pkg/nanofs/layout"
)

// FilesystemTypeNanoFS is the filesystem type for NanoFS.
const FilesystemTypeNanoFS = "nanofs"

// TruncatedImageError is returned when the image is too small to hold the formatted blocks.
type TruncatedImageError struct {
	Size     int64
	Required int64
}

func (e *TruncatedImageError) Error() string {
	return fmt.Sprintf("image is truncated: size %d, at least %d bytes required", e.Size, e.Required)
}

// BuildSuperblock returns the signed superblock of a freshly formatted filesystem.
//
// The result depends only on id.
func BuildSuperblock(id uuid.UUID) ([]byte, error) {
	sb := layout.NewSuperblock(id)

	bitmap.New(sb.InodeBitmap[:], layout.InodeCount).Set(layout.RootInode)
	bitmap.New(sb.DataBitmap[:], layout.DataBlockCount).Set(0)

	buf, err := sb.Marshal()
	if err != nil {
		return nil, err
	}

	if err = checksum.Sign(buf, layout.SuperblockChecksumOffset); err != nil {
		return nil, err
	}

	return buf, nil
}

// BuildRootInode returns the signed root directory inode.
//
// The root directory is its own parent and owns data block 0.
func BuildRootInode() ([]byte, error) {
	root := layout.Inode{
		Type:        layout.InodeTypeDir,
		ParentInode: layout.RootInode,
	}

	if err := root.SetName("/"); err != nil {
		return nil, err
	}

	buf, err := root.Marshal()
	if err != nil {
		return nil, err
	}

	if err = checksum.Sign(buf, layout.InodeChecksumOffset); err != nil {
		return nil, err
	}

	return buf, nil
}

// NanoFS formats the partition starting at partitionOffset bytes of the image.
//
// Only the superblock, the root inode and the root directory data block are
// written, the rest of the image is left untouched. The writes are not atomic
// as a group: on failure the image might be partially formatted.
func NanoFS(dev disk.Device, partitionOffset int64, setters ...Option) error {
	if partitionOffset < 0 {
		return fmt.Errorf("invalid partition offset %d", partitionOffset)
	}

	opts := NewDefaultOptions(setters...)

	size, err := dev.Size()
	if err != nil {
		return err
	}

	if required := partitionOffset + layout.FormatExtent; size < required {
		return &TruncatedImageError{
			Size:     size,
			Required: required,
		}
	}

	sb, err := BuildSuperblock(opts.UUID)
	if err != nil {
		return fmt.Errorf("error building superblock: %w", err)
	}

	root, err := BuildRootInode()
	if err != nil {
		return fmt.Errorf("error building root inode: %w", err)
	}

	for _, blk := range []struct {
		name  string
		block uint32
		data  []byte
	}{
		{"superblock", 0, sb},
		{"root inode", layout.InodeStartBlock + layout.RootInode, root},
		{"root directory", layout.DataStartBlock, make([]byte, layout.BlockSize)},
	} {
		offset := partitionOffset + layout.BlockOffset(blk.block)

		if err = disk.WriteFull(dev, blk.data, offset); err != nil {
			return fmt.Errorf("failed to write %s: %w", blk.name, err)
		}

		opts.Logger.Debug("block written", zap.String("block", blk.name), zap.Int64("offset", offset))
	}

	if err = dev.Sync(); err != nil {
		return err
	}

	opts.Logger.Info("formatted nanofs partition",
		zap.Int64("offset", partitionOffset),
		zap.Stringer("uuid", opts.UUID),
	)

	return nil
}
