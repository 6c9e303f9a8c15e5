// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mbr

import (
	"fmt"
	"io"
)

// Slot is the 1-based partition table slot holding the filesystem.
const Slot = 2

// PartitionNotFoundError is returned when the partition slot doesn't describe a partition.
type PartitionNotFoundError struct {
	Slot   int
	Reason string
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("partition %d not found in MBR: %s", e.Slot, e.Reason)
}

// LocateOption to control partition lookup.
type LocateOption func(*LocateOptions)

// LocateOptions for Locate.
type LocateOptions struct {
	Strict bool
}

// WithStrict enables validation of the boot signature, partition type and size.
//
// By default only the presence of the start LBA is checked.
func WithStrict(strict bool) LocateOption {
	return func(o *LocateOptions) {
		o.Strict = strict
	}
}

// Locate returns the byte offset of the partition in slot 2.
func Locate(r io.ReaderAt, setters ...LocateOption) (int64, error) {
	var opts LocateOptions

	for _, o := range setters {
		o(&opts)
	}

	table, err := Read(r)
	if err != nil {
		return 0, err
	}

	entry := table.Entries[Slot-1]

	if opts.Strict {
		switch {
		case table.Signature != Signature:
			return 0, &PartitionNotFoundError{Slot: Slot, Reason: fmt.Sprintf("invalid boot signature 0x%04x", table.Signature)}
		case entry.Type[0] == 0:
			return 0, &PartitionNotFoundError{Slot: Slot, Reason: "partition type is empty"}
		case entry.Sectors == 0:
			return 0, &PartitionNotFoundError{Slot: Slot, Reason: "partition has no sectors"}
		}
	}

	if entry.StartLBA == 0 {
		return 0, &PartitionNotFoundError{Slot: Slot, Reason: "start LBA is zero"}
	}

	return entry.Offset(), nil
}
