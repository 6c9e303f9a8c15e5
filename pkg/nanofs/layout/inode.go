// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/siderolabs/nanofs/pkg/serde"
)

// InodeChecksumOffset is the offset of the checksum field in the inode.
const InodeChecksumOffset = 76

// Inode is a NanoFS inode, each inode occupies a full block.
type Inode struct {
	Type         InodeType         // 0
	Size         uint32            // 4
	Name         [NameLength]byte  // 8
	ParentInode  uint32            // 72
	Checksum     uint32            // 76
	DataChecksum uint32            // 80
	Blocks       [MaxBlocks]uint32 // 84
}

// Fields implements serde.Serde.
func (in *Inode) Fields() []*serde.Field {
	le := binary.LittleEndian

	return []*serde.Field{
		serde.Uint32("type", 0, le, (*uint32)(&in.Type)),
		serde.Uint32("size", 4, le, &in.Size),
		serde.Bytes("name", 8, in.Name[:]),
		serde.Uint32("parent_inode", 72, le, &in.ParentInode),
		serde.Uint32("checksum", InodeChecksumOffset, le, &in.Checksum),
		serde.Uint32("data_checksum", 80, le, &in.DataChecksum),
		serde.Uint32Array("blocks", 84, le, in.Blocks[:]),
	}
}

// SetName sets the zero-padded inode name.
func (in *Inode) SetName(name string) error {
	if len(name) >= NameLength {
		return fmt.Errorf("name %q is too long, max %d bytes", name, NameLength-1)
	}

	if bytes.IndexByte([]byte(name), 0) != -1 {
		return fmt.Errorf("name %q contains NUL", name)
	}

	in.Name = [NameLength]byte{}
	copy(in.Name[:], name)

	return nil
}

// NameString returns the name up to the first NUL byte.
func (in *Inode) NameString() string {
	name, _, _ := bytes.Cut(in.Name[:], []byte{0})

	return string(name)
}

// BlockCount returns the number of data blocks in use by the inode.
func (in *Inode) BlockCount() uint32 {
	switch in.Type {
	case InodeTypeDir:
		return 1
	case InodeTypeFile:
		return (in.Size + BlockSize - 1) / BlockSize
	default:
		return 0
	}
}

// Marshal encodes the inode into a full block.
func (in *Inode) Marshal() ([]byte, error) {
	return serde.Ser(in, BlockSize)
}

// Unmarshal decodes the inode from a full block.
func (in *Inode) Unmarshal(buf []byte) error {
	if len(buf) != BlockSize {
		return fmt.Errorf("inode: expected %d bytes, got %d", BlockSize, len(buf))
	}

	return serde.De(in, buf)
}
