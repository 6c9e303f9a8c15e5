// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mbr reads and writes the Master Boot Record partition table.
package mbr

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
	"github.com/siderolabs/nanofs/pkg/serde"
)

// MBR layout constants.
const (
	SectorSize = 512

	TableOffset = 446
	EntrySize   = 16
	MaxEntries  = 4

	SignatureOffset = 510
	// Signature is the 0x55 0xAA boot signature read as a little-endian uint16.
	Signature = 0xAA55
)

// Entry is a single partition table entry.
//
// Layout:
//
//	0x00  1 byte   status (0x80 = bootable)
//	0x01  3 bytes  CHS of the first sector
//	0x04  1 byte   partition type
//	0x05  3 bytes  CHS of the last sector
//	0x08  4 bytes  LBA of the first sector
//	0x0c  4 bytes  number of sectors
type Entry struct {
	Status   [1]byte
	StartCHS [3]byte
	Type     [1]byte
	EndCHS   [3]byte
	StartLBA uint32
	Sectors  uint32
}

// Fields implements serde.Serde.
func (e *Entry) Fields() []*serde.Field {
	le := binary.LittleEndian

	return []*serde.Field{
		serde.Bytes("status", 0, e.Status[:]),
		serde.Bytes("start_chs", 1, e.StartCHS[:]),
		serde.Bytes("type", 4, e.Type[:]),
		serde.Bytes("end_chs", 5, e.EndCHS[:]),
		serde.Uint32("start_lba", 8, le, &e.StartLBA),
		serde.Uint32("sectors", 12, le, &e.Sectors),
	}
}

// IsEmpty reports whether the entry describes no partition.
func (e *Entry) IsEmpty() bool {
	return e.Type[0] == 0 || e.Sectors == 0
}

// Offset returns the byte offset of the partition start.
func (e *Entry) Offset() int64 {
	return int64(e.StartLBA) * SectorSize
}

// Size returns the partition size in bytes.
func (e *Entry) Size() int64 {
	return int64(e.Sectors) * SectorSize
}

// Table is the MBR partition table.
type Table struct {
	Entries   [MaxEntries]Entry
	Signature uint16
}

// EntryOffset returns the offset in the MBR sector of the 1-based partition slot.
func EntryOffset(slot int) int {
	return TableOffset + (slot-1)*EntrySize
}

// Read the partition table from the first sector of the image.
func Read(r io.ReaderAt) (*Table, error) {
	sector := make([]byte, SectorSize)

	if err := disk.ReadFull(r, sector, 0); err != nil {
		return nil, fmt.Errorf("error reading MBR: %w", err)
	}

	return parse(sector)
}

func parse(sector []byte) (*Table, error) {
	t := &Table{
		Signature: binary.LittleEndian.Uint16(sector[SignatureOffset:]),
	}

	for i := range t.Entries {
		off := EntryOffset(i + 1)

		if err := serde.De(&t.Entries[i], sector[off:off+EntrySize]); err != nil {
			return nil, fmt.Errorf("error decoding partition entry %d: %w", i+1, err)
		}
	}

	return t, nil
}

// Write the partition table and the boot signature.
//
// The boot code area (the first 446 bytes) is left untouched.
func (t *Table) Write(w io.WriterAt) error {
	buf := make([]byte, SectorSize-TableOffset)

	for i := range t.Entries {
		entry, err := serde.Ser(&t.Entries[i], EntrySize)
		if err != nil {
			return err
		}

		copy(buf[i*EntrySize:], entry)
	}

	binary.LittleEndian.PutUint16(buf[SignatureOffset-TableOffset:], Signature)

	if err := disk.WriteFull(w, buf, TableOffset); err != nil {
		return fmt.Errorf("error writing MBR: %w", err)
	}

	return nil
}

// NewEntry builds an entry for a partition of the given type.
//
// CHS fields are set to the LBA-only marker (0xFE 0xFF 0xFF).
func NewEntry(partType byte, startLBA, sectors uint32) Entry {
	return Entry{
		Type:     [1]byte{partType},
		StartCHS: [3]byte{0xfe, 0xff, 0xff},
		EndCHS:   [3]byte{0xfe, 0xff, 0xff},
		StartLBA: startLBA,
		Sectors:  sectors,
	}
}
