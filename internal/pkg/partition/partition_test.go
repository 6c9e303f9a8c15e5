// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package partition_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/nanofs/internal/pkg/partition"
	"github.com/siderolabs/nanofs/pkg/mbr"
	"github.com/siderolabs/nanofs/pkg/nanofs"
	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
)

const mib = 1024 * 1024

type printer struct {
	strings.Builder
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.Builder, format, args...)
}

func TestPartition(t *testing.T) {
	t.Parallel()

	dev := disk.NewMemory(10 * mib)

	var out printer

	require.NoError(t, partition.Partition(dev, partition.Options{Offset: mib}, out.printf))
	assert.Equal(t, "partitioning slot 2 - offset 1048576 \"9.0 MiB\"\n", out.String())

	image := dev.Bytes()
	assert.EqualValues(t, 2048, binary.LittleEndian.Uint32(image[462+8:]))
	assert.EqualValues(t, 9*2048, binary.LittleEndian.Uint32(image[462+12:]))
	assert.EqualValues(t, partition.TypeNanoFS, image[462+4])
	assert.Equal(t, []byte{0x55, 0xaa}, image[510:512])

	offset, err := mbr.Locate(dev, mbr.WithStrict(true))
	require.NoError(t, err)
	assert.EqualValues(t, mib, offset)
}

// largeDevice reports a large size, only the MBR sector is backed by memory.
type largeDevice struct {
	*disk.Memory

	size int64
}

func (d largeDevice) Size() (int64, error) {
	return d.size, nil
}

func TestPartitionInvalid(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name      string
		imageSize int64
		opts      partition.Options
	}{
		{name: "zero offset", imageSize: 10 * mib, opts: partition.Options{}},
		{name: "unaligned", imageSize: 10 * mib, opts: partition.Options{Offset: mib + 1}},
		{name: "past the end", imageSize: 10 * mib, opts: partition.Options{Offset: 11 * mib}},
		{name: "too large", imageSize: 10 * mib, opts: partition.Options{Offset: mib, Size: 10 * mib}},
		{name: "offset past 2 TiB", imageSize: 4 << 40, opts: partition.Options{Offset: 3 << 40}},
		{name: "size over 2 TiB", imageSize: 3 << 40, opts: partition.Options{Offset: mib}},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			dev := largeDevice{Memory: disk.NewMemory(mbr.SectorSize), size: test.imageSize}

			assert.Error(t, partition.Partition(dev, test.opts, t.Logf))
			assert.Equal(t, make([]byte, mbr.SectorSize), dev.Bytes(), "nothing is written")
		})
	}
}

func TestPartitionMBRLimit(t *testing.T) {
	t.Parallel()

	// the last sector addressable by the start LBA
	offset := int64(math.MaxUint32) * mbr.SectorSize
	dev := largeDevice{Memory: disk.NewMemory(mbr.SectorSize), size: offset + mib}

	require.NoError(t, partition.Partition(dev, partition.Options{Offset: offset}, t.Logf))

	located, err := mbr.Locate(dev, mbr.WithStrict(true))
	require.NoError(t, err)
	assert.Equal(t, offset, located)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("0d5f3e1a-6c1b-4f2e-a0e5-9b7c3d2a1f00")

	for _, test := range []struct {
		name string

		fsType partition.FileSystemType

		expectFormatted bool
		expectedError   string
	}{
		{
			name:            "nanofs",
			fsType:          partition.FilesystemTypeNanoFS,
			expectFormatted: true,
		},
		{
			name:   "dry run",
			fsType: partition.FilesystemTypeNone,
		},
		{
			name:          "unknown",
			fsType:        "ext4",
			expectedError: "unsupported filesystem type: \"ext4\"",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			dev := disk.NewMemory(10 * mib)
			require.NoError(t, partition.Partition(dev, partition.Options{Offset: mib}, t.Logf))

			opts := partition.NewFormatOptions()
			opts.FileSystemType = test.fsType
			opts.UUID = id

			var out printer

			offset, err := partition.Format(dev, opts, out.printf)

			if test.expectedError != "" {
				require.EqualError(t, err, test.expectedError)

				return
			}

			require.NoError(t, err)
			assert.EqualValues(t, mib, offset)
			assert.Contains(t, out.String(), "formatting the partition 2 at offset 1048576")

			fs, err := nanofs.Open(dev, offset)

			if !test.expectFormatted {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, id, fs.UUID())
		})
	}
}

func TestFormatNoPartition(t *testing.T) {
	t.Parallel()

	dev := disk.NewMemory(10 * mib)

	_, err := partition.Format(dev, partition.NewFormatOptions(), t.Logf)
	require.Error(t, err)

	var notFound *mbr.PartitionNotFoundError

	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, mbr.Slot, notFound.Slot)
	assert.Equal(t, make([]byte, 10*mib), dev.Bytes(), "nothing is written")
}
