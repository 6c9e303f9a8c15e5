// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package layout_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/nanofs/pkg/nanofs/layout"
	"github.com/siderolabs/nanofs/pkg/serde"
)

func fieldOffsets(s serde.Serde) map[string][2]uint32 {
	res := map[string][2]uint32{}

	for _, f := range s.Fields() {
		res[f.Name] = [2]uint32{f.Offset, f.Length}
	}

	return res
}

func TestSchemas(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string
		s    serde.Serde
		size int
	}{
		{"superblock", &layout.Superblock{}, layout.BlockSize},
		{"inode", &layout.Inode{}, layout.BlockSize},
		{"dirent", &layout.DirEntry{}, layout.DirEntrySize},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.NoError(t, serde.Validate(test.s.Fields(), test.size))
		})
	}
}

func TestSuperblockOffsets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string][2]uint32{
		"magic":             {0, 4},
		"version":           {4, 4},
		"uuid":              {8, 16},
		"checksum":          {24, 4},
		"block_size":        {28, 4},
		"inode_count":       {32, 4},
		"data_block_count":  {36, 4},
		"inode_start_block": {40, 4},
		"data_start_block":  {44, 4},
		"inode_bitmap":      {48, 128},
		"data_bitmap":       {176, 2048},
	}, fieldOffsets(&layout.Superblock{}))
}

func TestInodeOffsets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string][2]uint32{
		"type":          {0, 4},
		"size":          {4, 4},
		"name":          {8, 64},
		"parent_inode":  {72, 4},
		"checksum":      {76, 4},
		"data_checksum": {80, 4},
		"blocks":        {84, 1024},
	}, fieldOffsets(&layout.Inode{}))
}

func TestSuperblockMarshal(t *testing.T) {
	t.Parallel()

	uuid := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	sb := layout.NewSuperblock(uuid)
	sb.InodeBitmap[0] = 0x01
	sb.DataBitmap[0] = 0x01

	require.NoError(t, sb.Validate())

	buf, err := sb.Marshal()
	require.NoError(t, err)
	require.Len(t, buf, layout.BlockSize)

	assert.Equal(t, []byte("ONAN"), buf[0:4])
	assert.Equal(t, uint32(layout.Magic), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, uuid[:], buf[8:24])
	assert.Equal(t, uint32(4096), binary.LittleEndian.Uint32(buf[28:32]))
	assert.Equal(t, uint32(1024), binary.LittleEndian.Uint32(buf[32:36]))
	assert.Equal(t, uint32(16384), binary.LittleEndian.Uint32(buf[36:40]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[40:44]))
	assert.Equal(t, uint32(1025), binary.LittleEndian.Uint32(buf[44:48]))
	assert.Equal(t, byte(0x01), buf[48])
	assert.Equal(t, byte(0x01), buf[176])
	assert.Equal(t, make([]byte, layout.BlockSize-2224), buf[2224:])

	var decoded layout.Superblock

	require.NoError(t, decoded.Unmarshal(buf))
	assert.Equal(t, *sb, decoded)

	require.Error(t, decoded.Unmarshal(buf[:100]))
}

func TestSuperblockValidate(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name   string
		mutate func(*layout.Superblock)

		expectedError string
	}{
		{
			name:   "ok",
			mutate: func(*layout.Superblock) {},
		},
		{
			name:          "magic",
			mutate:        func(sb *layout.Superblock) { sb.Magic = 0x58465342 },
			expectedError: "unexpected magic 0x58465342, expecting 0x4e414e4f",
		},
		{
			name:          "version",
			mutate:        func(sb *layout.Superblock) { sb.Version = 2 },
			expectedError: "unsupported version 2",
		},
		{
			name:          "block size",
			mutate:        func(sb *layout.Superblock) { sb.BlockSize = 1024 },
			expectedError: "unsupported block size 1024",
		},
		{
			name:          "inode count",
			mutate:        func(sb *layout.Superblock) { sb.InodeCount = 2048 },
			expectedError: "inode count 2048 out of range",
		},
		{
			name:          "data start",
			mutate:        func(sb *layout.Superblock) { sb.DataStartBlock = 1024 },
			expectedError: "data start block 1024 doesn't follow the inode table (1 + 1024)",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			sb := layout.NewSuperblock([16]byte{})
			test.mutate(sb)

			err := sb.Validate()

			if test.expectedError == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, test.expectedError)
			}
		})
	}
}

func TestBlockAddressing(t *testing.T) {
	t.Parallel()

	sb := layout.NewSuperblock([16]byte{})

	blk, err := sb.InodeBlock(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, blk)

	blk, err = sb.InodeBlock(1023)
	require.NoError(t, err)
	assert.EqualValues(t, 1024, blk)

	_, err = sb.InodeBlock(1024)
	assert.Error(t, err)

	blk, err = sb.DataBlock(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1025, blk)

	_, err = sb.DataBlock(16384)
	assert.Error(t, err)

	assert.EqualValues(t, 1025*4096, layout.BlockOffset(layout.DataStartBlock))
	assert.EqualValues(t, 1026*4096, layout.FormatExtent)
}

func TestInode(t *testing.T) {
	t.Parallel()

	var in layout.Inode

	require.NoError(t, in.SetName("kernel.log"))
	assert.Equal(t, "kernel.log", in.NameString())

	assert.Error(t, in.SetName(string(make([]byte, 64))))
	assert.Error(t, in.SetName("a\x00b"))

	in.Type = layout.InodeTypeFile
	in.Size = 4097
	in.Blocks[0], in.Blocks[1] = 3, 9

	assert.EqualValues(t, 2, in.BlockCount())

	buf, err := in.Marshal()
	require.NoError(t, err)

	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(4097), binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, byte('k'), buf[8])
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[84:88]))
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(buf[88:92]))

	var decoded layout.Inode

	require.NoError(t, decoded.Unmarshal(buf))
	assert.Equal(t, in, decoded)

	assert.Equal(t, "dir", layout.InodeTypeDir.String())
	assert.Equal(t, "InodeType(7)", layout.InodeType(7).String())
}

func TestDirEntries(t *testing.T) {
	t.Parallel()

	entries := []layout.DirEntry{{InodeIndex: 1}, {InodeIndex: 42}}

	block, err := layout.EncodeDirEntries(entries)
	require.NoError(t, err)
	require.Len(t, block, layout.BlockSize)

	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(block[8:12]))

	decoded, err := layout.DecodeDirEntries(block, 2)
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)

	_, err = layout.DecodeDirEntries(block, 257)
	assert.Error(t, err)

	_, err = layout.DecodeDirEntries(block[:8], 2)
	assert.Error(t, err)
}
