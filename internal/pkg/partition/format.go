// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package partition provides common utils for NanoFS partition format.
package partition

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siderolabs/nanofs/pkg/makefs"
	"github.com/siderolabs/nanofs/pkg/mbr"
	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
)

// FileSystemType is used to format partitions.
type FileSystemType = string

// Filesystem types.
const (
	FilesystemTypeNone   FileSystemType = "none"
	FilesystemTypeNanoFS FileSystemType = makefs.FilesystemTypeNanoFS
)

// FormatOptions contains format parameters.
type FormatOptions struct {
	FileSystemType FileSystemType
	Strict         bool
	UUID           uuid.UUID
	Logger         *zap.Logger
}

// NewFormatOptions creates a new format options.
func NewFormatOptions() *FormatOptions {
	return &FormatOptions{
		FileSystemType: FilesystemTypeNanoFS,
	}
}

// Format locates the NanoFS partition of the image and formats it using filesystem type provided.
//
// Format returns the partition offset in bytes.
func Format(dev disk.Device, t *FormatOptions, printf func(string, ...any)) (int64, error) {
	offset, err := mbr.Locate(dev, mbr.WithStrict(t.Strict))
	if err != nil {
		return 0, err
	}

	printf("formatting the partition %d at offset %d as %q\n", mbr.Slot, offset, t.FileSystemType)

	opts := []makefs.Option{makefs.WithUUID(t.UUID)}

	if t.Logger != nil {
		opts = append(opts, makefs.WithLogger(t.Logger))
	}

	switch t.FileSystemType {
	case FilesystemTypeNone:
		return offset, nil
	case FilesystemTypeNanoFS:
		return offset, makefs.NanoFS(dev, offset, opts...)
	default:
		return 0, fmt.Errorf("unsupported filesystem type: %q", t.FileSystemType)
	}
}
