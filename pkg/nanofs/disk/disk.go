// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package disk provides random-access backends for raw disk images.
package disk

import (
	"errors"
	"fmt"
	"io"
)

// Device is a random-access disk image.
type Device interface {
	io.ReaderAt
	io.WriterAt

	// Size returns the size of the image in bytes.
	Size() (int64, error)
	// Sync flushes written data to the stable storage.
	Sync() error
}

// ReadFull reads exactly len(p) bytes at off.
func ReadFull(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}

	return fmt.Errorf("read of %d bytes at %d failed after %d bytes: %w", len(p), off, n, err)
}

// WriteFull writes p at off, a short write is an error.
func WriteFull(w io.WriterAt, p []byte, off int64) error {
	n, err := w.WriteAt(p, off)
	if err != nil {
		return fmt.Errorf("write of %d bytes at %d failed: %w", len(p), off, err)
	}

	if n != len(p) {
		return fmt.Errorf("write of %d bytes at %d failed after %d bytes: %w", len(p), off, n, io.ErrShortWrite)
	}

	return nil
}
