// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package layout describes the NanoFS on-disk format.
//
// Partition layout (in 4 KiB blocks):
//
//	0                      superblock
//	1 .. 1024              inode table, one inode per block
//	1025 .. 1025+16384     data region
//
// All multi-byte integers are little-endian.
package layout

import "fmt"

// Format constants.
const (
	// Magic is "NANO" read as a little-endian uint32.
	Magic   = 0x4E414E4F
	Version = 1

	BlockSize       = 4096
	InodeCount      = 1024
	DataBlockCount  = 16384
	InodeStartBlock = 1
	DataStartBlock  = InodeStartBlock + InodeCount // 1025

	UUIDLength        = 16
	NameLength        = 64
	MaxBlocks         = 256
	InodeBitmapLength = InodeCount / 8     // 128
	DataBitmapLength  = DataBlockCount / 8 // 2048

	DirEntrySize  = 8
	MaxDirEntries = 256

	// MaxFileSize is the largest file addressable with direct block pointers.
	MaxFileSize = MaxBlocks * BlockSize
)

// RootInode is the index of the root directory inode.
const RootInode = 0

// InodeType is the type of the inode.
type InodeType uint32

// Inode types.
const (
	InodeTypeFree InodeType = iota
	InodeTypeFile
	InodeTypeDir
)

func (t InodeType) String() string {
	switch t {
	case InodeTypeFree:
		return "free"
	case InodeTypeFile:
		return "file"
	case InodeTypeDir:
		return "dir"
	default:
		return fmt.Sprintf("InodeType(%d)", uint32(t))
	}
}

// BlockOffset returns the offset of the block relative to the partition start.
func BlockOffset(block uint32) int64 {
	return int64(block) * BlockSize
}

// FormatExtent is the number of bytes past the partition start touched by formatting.
//
// Formatting writes the superblock, the root inode and the first data block.
const FormatExtent = (DataStartBlock + 1) * BlockSize

// PartitionSize is the size of a fully populated partition.
const PartitionSize = (DataStartBlock + DataBlockCount) * BlockSize
