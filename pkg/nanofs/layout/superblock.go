// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package layout

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/siderolabs/nanofs/pkg/serde"
)

// SuperblockChecksumOffset is the offset of the checksum field in the superblock.
const SuperblockChecksumOffset = 24

// Superblock is the NanoFS superblock, stored in block 0 of the partition.
type Superblock struct {
	Magic           uint32                  // 0
	Version         uint32                  // 4
	UUID            [UUIDLength]byte        // 8
	Checksum        uint32                  // 24
	BlockSize       uint32                  // 28
	InodeCount      uint32                  // 32
	DataBlockCount  uint32                  // 36
	InodeStartBlock uint32                  // 40
	DataStartBlock  uint32                  // 44
	InodeBitmap     [InodeBitmapLength]byte // 48
	DataBitmap      [DataBitmapLength]byte  // 176
}

// Fields implements serde.Serde.
func (sb *Superblock) Fields() []*serde.Field {
	le := binary.LittleEndian

	return []*serde.Field{
		serde.Uint32("magic", 0, le, &sb.Magic),
		serde.Uint32("version", 4, le, &sb.Version),
		serde.Bytes("uuid", 8, sb.UUID[:]),
		serde.Uint32("checksum", SuperblockChecksumOffset, le, &sb.Checksum),
		serde.Uint32("block_size", 28, le, &sb.BlockSize),
		serde.Uint32("inode_count", 32, le, &sb.InodeCount),
		serde.Uint32("data_block_count", 36, le, &sb.DataBlockCount),
		serde.Uint32("inode_start_block", 40, le, &sb.InodeStartBlock),
		serde.Uint32("data_start_block", 44, le, &sb.DataStartBlock),
		serde.Bytes("inode_bitmap", 48, sb.InodeBitmap[:]),
		serde.Bytes("data_bitmap", 176, sb.DataBitmap[:]),
	}
}

// NewSuperblock returns a superblock with the canonical geometry and empty bitmaps.
func NewSuperblock(uuid [UUIDLength]byte) *Superblock {
	return &Superblock{
		Magic:           Magic,
		Version:         Version,
		UUID:            uuid,
		BlockSize:       BlockSize,
		InodeCount:      InodeCount,
		DataBlockCount:  DataBlockCount,
		InodeStartBlock: InodeStartBlock,
		DataStartBlock:  DataStartBlock,
	}
}

// Marshal encodes the superblock into a full block.
//
// The checksum field is encoded as is, callers sign the block afterwards.
func (sb *Superblock) Marshal() ([]byte, error) {
	return serde.Ser(sb, BlockSize)
}

// Unmarshal decodes the superblock from a full block.
func (sb *Superblock) Unmarshal(buf []byte) error {
	if len(buf) != BlockSize {
		return fmt.Errorf("superblock: expected %d bytes, got %d", BlockSize, len(buf))
	}

	return serde.De(sb, buf)
}

// Validate checks the superblock identity and geometry.
func (sb *Superblock) Validate() error {
	if sb.Magic != Magic {
		return fmt.Errorf("unexpected magic 0x%08x, expecting 0x%08x", sb.Magic, Magic)
	}

	if sb.Version != Version {
		return fmt.Errorf("unsupported version %d", sb.Version)
	}

	if sb.BlockSize != BlockSize {
		return fmt.Errorf("unsupported block size %d", sb.BlockSize)
	}

	if sb.InodeCount == 0 || sb.InodeCount > InodeBitmapLength*8 {
		return fmt.Errorf("inode count %d out of range", sb.InodeCount)
	}

	if sb.DataBlockCount == 0 || sb.DataBlockCount > DataBitmapLength*8 {
		return fmt.Errorf("data block count %d out of range", sb.DataBlockCount)
	}

	if sb.InodeStartBlock == 0 {
		return errors.New("inode table overlaps the superblock")
	}

	if sb.DataStartBlock != sb.InodeStartBlock+sb.InodeCount {
		return fmt.Errorf("data start block %d doesn't follow the inode table (%d + %d)", sb.DataStartBlock, sb.InodeStartBlock, sb.InodeCount)
	}

	return nil
}

// InodeBlock returns the partition block holding inode idx.
func (sb *Superblock) InodeBlock(idx uint32) (uint32, error) {
	if idx >= sb.InodeCount {
		return 0, fmt.Errorf("inode %d out of range [0, %d)", idx, sb.InodeCount)
	}

	return sb.InodeStartBlock + idx, nil
}

// DataBlock returns the partition block holding data block idx.
func (sb *Superblock) DataBlock(idx uint32) (uint32, error) {
	if idx >= sb.DataBlockCount {
		return 0, fmt.Errorf("data block %d out of range [0, %d)", idx, sb.DataBlockCount)
	}

	return sb.DataStartBlock + idx, nil
}
