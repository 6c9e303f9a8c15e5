// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package partition

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/siderolabs/nanofs/pkg/mbr"
	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
)

// TypeNanoFS is the MBR partition type written for NanoFS partitions.
const TypeNanoFS = 0x83

// Options contains the options for creating a partition.
type Options struct {
	// Offset of the partition in bytes, must be sector aligned.
	Offset int64
	// Size of the partition in bytes, zero means up to the end of the image.
	Size int64
	Type byte
}

// Partition writes a partition table with a single NanoFS partition in slot 2.
func Partition(dev disk.Device, partitionOpts Options, printf func(string, ...any)) error {
	imageSize, err := dev.Size()
	if err != nil {
		return err
	}

	if partitionOpts.Offset < mbr.SectorSize || partitionOpts.Offset%mbr.SectorSize != 0 {
		return fmt.Errorf("partition offset %d should be a non-zero multiple of %d", partitionOpts.Offset, mbr.SectorSize)
	}

	size := partitionOpts.Size
	if size == 0 {
		size = imageSize - partitionOpts.Offset
	}

	if size <= 0 || size%mbr.SectorSize != 0 || partitionOpts.Offset+size > imageSize {
		return fmt.Errorf("partition [%d, %d) doesn't fit the image of %d bytes", partitionOpts.Offset, partitionOpts.Offset+size, imageSize)
	}

	// MBR entries address at most 2^32-1 sectors of 512 bytes
	if partitionOpts.Offset/mbr.SectorSize > math.MaxUint32 {
		return fmt.Errorf("partition offset %d is out of MBR range", partitionOpts.Offset)
	}

	if size/mbr.SectorSize > math.MaxUint32 {
		return fmt.Errorf("partition size %d is out of MBR range", size)
	}

	partType := partitionOpts.Type
	if partType == 0 {
		partType = TypeNanoFS
	}

	printf("partitioning slot %d - offset %d %q\n", mbr.Slot, partitionOpts.Offset, humanize.IBytes(uint64(size)))

	var table mbr.Table

	table.Entries[mbr.Slot-1] = mbr.NewEntry(partType, uint32(partitionOpts.Offset/mbr.SectorSize), uint32(size/mbr.SectorSize))

	return table.Write(dev)
}
