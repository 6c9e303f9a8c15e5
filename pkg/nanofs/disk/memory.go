// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package disk

import (
	"fmt"
	"io"
)

// Memory is an in-memory disk image.
type Memory struct {
	data []byte
}

var _ Device = (*Memory)(nil)

// NewMemory creates a zero-filled in-memory image.
func NewMemory(size int) *Memory {
	return &Memory{data: make([]byte, size)}
}

// NewMemoryFromBytes wraps data as an image without copying.
func NewMemoryFromBytes(data []byte) *Memory {
	return &Memory{data: data}
}

// Bytes returns the image contents.
func (m *Memory) Bytes() []byte {
	return m.data
}

// ReadAt implements io.ReaderAt.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}

	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// WriteAt implements io.WriterAt.
//
// Writes never grow the image.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, fmt.Errorf("disk write error: range [%d, %d) out of image (size %d)", off, off+int64(len(p)), len(m.data))
	}

	return copy(m.data[off:], p), nil
}

// Size implements Device.
func (m *Memory) Size() (int64, error) {
	return int64(len(m.data)), nil
}

// Sync implements Device.
func (m *Memory) Sync() error {
	return nil
}
