// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package disk

import (
	"errors"
	"fmt"
	"os"
)

// Option to control how the image is opened.
type Option func(*Options)

// Options for Open.
type Options struct {
	Flag int
}

// OpenForWrite opens the image for reading and writing.
func OpenForWrite() Option {
	return func(o *Options) {
		o.Flag = os.O_RDWR
	}
}

// NewDefaultOptions builds options with specified setters applied.
func NewDefaultOptions(setters ...Option) Options {
	opt := Options{
		Flag: os.O_RDONLY,
	}

	for _, o := range setters {
		o(&opt)
	}

	return opt
}

// File is a disk image backed by a regular file or a block device.
type File struct {
	f *os.File
}

var _ Device = (*File)(nil)

// Open an existing image.
//
// The image is never truncated or created.
func Open(path string, setters ...Option) (*File, error) {
	opts := NewDefaultOptions(setters...)

	f, err := os.OpenFile(path, opts.Flag, 0)
	if err != nil {
		return nil, err
	}

	return &File{f: f}, nil
}

// Create a new sparse image of the specified size.
func Create(path string, size int64) (*File, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid image size %d", size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}

	if err = f.Truncate(size); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to resize image: %w", err), f.Close(), os.Remove(path))
	}

	return &File{f: f}, nil
}

// Name returns the path of the image.
func (fl *File) Name() string {
	return fl.f.Name()
}

// ReadAt implements io.ReaderAt.
func (fl *File) ReadAt(p []byte, off int64) (int, error) {
	return fl.f.ReadAt(p, off)
}

// WriteAt implements io.WriterAt.
func (fl *File) WriteAt(p []byte, off int64) (int, error) {
	return fl.f.WriteAt(p, off)
}

// Size implements Device.
func (fl *File) Size() (int64, error) {
	st, err := fl.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat image error: %w", err)
	}

	if st.Mode().IsRegular() {
		return st.Size(), nil
	}

	if st.Mode()&os.ModeDevice != 0 {
		return deviceSize(fl.f)
	}

	return 0, fmt.Errorf("%s is neither a regular file nor a block device", fl.f.Name())
}

// Sync implements Device.
func (fl *File) Sync() error {
	if err := fl.f.Sync(); err != nil {
		return fmt.Errorf("disk sync error: %w", err)
	}

	return nil
}

// Close the image.
func (fl *File) Close() error {
	return fl.f.Close()
}
