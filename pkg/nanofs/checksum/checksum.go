// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package checksum implements NanoFS block checksums.
//
// A block checksum is CRC-32 (IEEE) of the whole block computed with the
// 4-byte checksum field set to zero, stored little-endian in that field.
package checksum

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"slices"
)

// Size of the checksum field.
const Size = 4

// MismatchError is returned when the stored checksum doesn't match the contents.
type MismatchError struct {
	Stored   uint32
	Computed uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: stored 0x%08x, computed 0x%08x", e.Stored, e.Computed)
}

// Sum returns CRC-32 of the block.
func Sum(block []byte) uint32 {
	return crc32.ChecksumIEEE(block)
}

// Sign computes the checksum of the block and stores it at offset.
//
// Signing must be the last mutation of the block before it is written.
func Sign(block []byte, offset int) error {
	if err := checkOffset(block, offset); err != nil {
		return err
	}

	field := block[offset : offset+Size]
	clear(field)

	binary.LittleEndian.PutUint32(field, Sum(block))

	return nil
}

// Verify reports whether the checksum stored at offset matches the block.
//
// The block is not modified.
func Verify(block []byte, offset int) bool {
	return Check(block, offset) == nil
}

// Check is like Verify, but returns *MismatchError describing the mismatch.
func Check(block []byte, offset int) error {
	if err := checkOffset(block, offset); err != nil {
		return err
	}

	stored := binary.LittleEndian.Uint32(block[offset:])

	scratch := slices.Clone(block)
	clear(scratch[offset : offset+Size])

	if computed := Sum(scratch); computed != stored {
		return &MismatchError{
			Stored:   stored,
			Computed: computed,
		}
	}

	return nil
}

func checkOffset(block []byte, offset int) error {
	if offset < 0 || offset+Size > len(block) {
		return fmt.Errorf("checksum field at %d is out of block bounds (%d bytes)", offset, len(block))
	}

	return nil
}
