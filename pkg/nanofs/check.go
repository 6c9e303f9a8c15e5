// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package nanofs

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/siderolabs/nanofs/pkg/nanofs/bitmap"
	"github.com/siderolabs/nanofs/pkg/nanofs/layout"
)

// Check verifies the consistency of allocation bitmaps, inodes and directories.
//
// All findings are collected, the returned error is a *multierror.Error.
func (fs *FS) Check() error {
	var result *multierror.Error

	inodes := fs.inodeBitmap()
	data := fs.dataBitmap()

	if !inodes.Test(layout.RootInode) {
		result = multierror.Append(result, &CorruptionError{Block: 0, Reason: "root inode is not marked in the inode bitmap"})
	}

	if !data.Test(0) {
		result = multierror.Append(result, &CorruptionError{Block: 0, Reason: "data block 0 is not marked in the data bitmap"})
	}

	loaded := map[uint32]*layout.Inode{}

	for _, bit := range inodes.SetBits() {
		idx := uint32(bit)

		in, err := fs.Inode(idx)
		if err != nil {
			result = multierror.Append(result, err)

			continue
		}

		if in.Type == layout.InodeTypeFree {
			result = multierror.Append(result, &CorruptionError{
				Block:  fs.sb.InodeStartBlock + idx,
				Reason: fmt.Sprintf("inode %d is marked allocated but free", idx),
			})

			continue
		}

		loaded[idx] = in
	}

	for _, idx := range slices.Sorted(maps.Keys(loaded)) {
		in := loaded[idx]

		result = multierror.Append(result, fs.checkBlocks(idx, in, data)...)

		if in.Type != layout.InodeTypeDir {
			continue
		}

		entries, err := fs.readDir(idx, in)
		if err != nil {
			result = multierror.Append(result, err)

			continue
		}

		for _, entry := range entries {
			child, ok := loaded[entry.InodeIndex]

			switch {
			case !ok:
				result = multierror.Append(result, &CorruptionError{
					Block:  fs.sb.InodeStartBlock + idx,
					Reason: fmt.Sprintf("directory %d links unallocated inode %d", idx, entry.InodeIndex),
				})
			case child.ParentInode != idx:
				result = multierror.Append(result, &CorruptionError{
					Block:  fs.sb.InodeStartBlock + entry.InodeIndex,
					Reason: fmt.Sprintf("inode %d is linked from directory %d, but its parent is %d", entry.InodeIndex, idx, child.ParentInode),
				})
			}
		}
	}

	if result != nil {
		result.ErrorFormat = formatFindings
	}

	return result.ErrorOrNil()
}

func (fs *FS) checkBlocks(idx uint32, in *layout.Inode, data bitmap.Bitmap) []error {
	if in.Type == layout.InodeTypeFile && in.Size > layout.MaxFileSize {
		return []error{&CorruptionError{
			Block:  fs.sb.InodeStartBlock + idx,
			Reason: fmt.Sprintf("file size %d exceeds %d", in.Size, layout.MaxFileSize),
		}}
	}

	var errs []error

	for _, blk := range in.Blocks[:in.BlockCount()] {
		if blk >= fs.sb.DataBlockCount {
			errs = append(errs, &CorruptionError{
				Block:  fs.sb.InodeStartBlock + idx,
				Reason: fmt.Sprintf("inode %d references data block %d out of range", idx, blk),
			})

			continue
		}

		if !data.Test(int(blk)) {
			errs = append(errs, &CorruptionError{
				Block:  fs.sb.InodeStartBlock + idx,
				Reason: fmt.Sprintf("inode %d references data block %d not marked in the data bitmap", idx, blk),
			})
		}
	}

	return errs
}

func (fs *FS) inodeBitmap() bitmap.Bitmap {
	return bitmap.New(fs.sb.InodeBitmap[:], int(fs.sb.InodeCount))
}

func (fs *FS) dataBitmap() bitmap.Bitmap {
	return bitmap.New(fs.sb.DataBitmap[:], int(fs.sb.DataBlockCount))
}

func formatFindings(errs []error) string {
	if len(errs) == 1 {
		return fmt.Sprintf("1 problem found: %s", errs[0])
	}

	msg := fmt.Sprintf("%d problems found:", len(errs))

	for _, err := range errs {
		msg += "\n\t* " + err.Error()
	}

	return msg
}
