// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/siderolabs/nanofs/pkg/serde"
)

// DirEntry is a single directory entry.
//
// Entries are packed from the start of the directory's first data block,
// the directory inode size holds the number of valid entries.
type DirEntry struct {
	InodeIndex uint32
	Reserved   uint32
}

// Fields implements serde.Serde.
func (de *DirEntry) Fields() []*serde.Field {
	return []*serde.Field{
		serde.Uint32("inode_index", 0, binary.LittleEndian, &de.InodeIndex),
		serde.Uint32("reserved", 4, binary.LittleEndian, &de.Reserved),
	}
}

// DecodeDirEntries decodes count entries from a directory data block.
func DecodeDirEntries(block []byte, count uint32) ([]DirEntry, error) {
	if count > MaxDirEntries {
		return nil, fmt.Errorf("directory entry count %d exceeds %d", count, MaxDirEntries)
	}

	if uint64(count)*DirEntrySize > uint64(len(block)) {
		return nil, fmt.Errorf("directory entry count %d exceeds block of %d bytes", count, len(block))
	}

	entries := make([]DirEntry, count)

	for i := range entries {
		off := i * DirEntrySize

		if err := serde.De(&entries[i], block[off:off+DirEntrySize]); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

// EncodeDirEntries encodes entries into a zero-filled directory data block.
func EncodeDirEntries(entries []DirEntry) ([]byte, error) {
	if len(entries) > MaxDirEntries {
		return nil, fmt.Errorf("directory entry count %d exceeds %d", len(entries), MaxDirEntries)
	}

	block := make([]byte, BlockSize)

	for i := range entries {
		buf, err := serde.Ser(&entries[i], DirEntrySize)
		if err != nil {
			return nil, err
		}

		copy(block[i*DirEntrySize:], buf)
	}

	return block, nil
}
