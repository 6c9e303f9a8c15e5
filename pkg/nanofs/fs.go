// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package nanofs implements a read-only NanoFS reader and consistency checker.
package nanofs

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/siderolabs/nanofs/pkg/nanofs/checksum"
	"github.com/siderolabs/nanofs/pkg/nanofs/disk"
	"github.com/siderolabs/nanofs/pkg/nanofs/layout"
)

// CorruptionError describes a damaged or inconsistent block.
type CorruptionError struct {
	Err    error
	Reason string
	Block  uint32
}

func (e *CorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("block %d: %s: %s", e.Block, e.Reason, e.Err)
	}

	return fmt.Sprintf("block %d: %s", e.Block, e.Reason)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// FS is an opened NanoFS partition.
type FS struct {
	r      io.ReaderAt
	offset int64

	sb   layout.Superblock
	root layout.Inode
}

// Open reads and validates the superblock and the root inode of the partition at partitionOffset.
func Open(r io.ReaderAt, partitionOffset int64) (*FS, error) {
	if partitionOffset < 0 {
		return nil, fmt.Errorf("invalid partition offset %d", partitionOffset)
	}

	fs := &FS{
		r:      r,
		offset: partitionOffset,
	}

	buf, err := fs.readBlock(0)
	if err != nil {
		return nil, fmt.Errorf("error reading superblock: %w", err)
	}

	if err = fs.sb.Unmarshal(buf); err != nil {
		return nil, err
	}

	// identity and geometry go first, a foreign block fails on magic rather than checksum
	if err = fs.sb.Validate(); err != nil {
		return nil, &CorruptionError{Block: 0, Reason: "invalid superblock", Err: err}
	}

	if err = checksum.Check(buf, layout.SuperblockChecksumOffset); err != nil {
		return nil, &CorruptionError{Block: 0, Reason: "superblock", Err: err}
	}

	root, err := fs.Inode(layout.RootInode)
	if err != nil {
		return nil, fmt.Errorf("error loading root inode: %w", err)
	}

	if root.Type != layout.InodeTypeDir {
		return nil, &CorruptionError{
			Block:  fs.sb.InodeStartBlock + layout.RootInode,
			Reason: fmt.Sprintf("root inode is %s, expecting dir", root.Type),
		}
	}

	fs.root = *root

	return fs, nil
}

func (fs *FS) readBlock(block uint32) ([]byte, error) {
	buf := make([]byte, layout.BlockSize)

	if err := disk.ReadFull(fs.r, buf, fs.offset+layout.BlockOffset(block)); err != nil {
		return nil, err
	}

	return buf, nil
}

// Superblock returns a copy of the superblock.
func (fs *FS) Superblock() layout.Superblock {
	return fs.sb
}

// UUID returns the filesystem UUID.
func (fs *FS) UUID() uuid.UUID {
	return uuid.UUID(fs.sb.UUID)
}

// Info returns the filesystem info string, as reported by the kernel.
func (fs *FS) Info() string {
	return "uuid=" + hex.EncodeToString(fs.sb.UUID[:])
}

// Inode loads and verifies inode idx.
//
// Free inodes are returned as is, callers check the type.
func (fs *FS) Inode(idx uint32) (*layout.Inode, error) {
	block, err := fs.sb.InodeBlock(idx)
	if err != nil {
		return nil, err
	}

	buf, err := fs.readBlock(block)
	if err != nil {
		return nil, fmt.Errorf("error reading inode %d: %w", idx, err)
	}

	var in layout.Inode

	if err = in.Unmarshal(buf); err != nil {
		return nil, err
	}

	if in.Type == layout.InodeTypeFree {
		return &in, nil
	}

	if err = checksum.Check(buf, layout.InodeChecksumOffset); err != nil {
		return nil, &CorruptionError{Block: block, Reason: fmt.Sprintf("inode %d", idx), Err: err}
	}

	if in.Type != layout.InodeTypeFile && in.Type != layout.InodeTypeDir {
		return nil, &CorruptionError{Block: block, Reason: fmt.Sprintf("inode %d has unknown type %s", idx, in.Type)}
	}

	return &in, nil
}

// ReadDir returns the entries of directory inode idx.
func (fs *FS) ReadDir(idx uint32) ([]layout.DirEntry, error) {
	in, err := fs.Inode(idx)
	if err != nil {
		return nil, err
	}

	return fs.readDir(idx, in)
}

func (fs *FS) readDir(idx uint32, in *layout.Inode) ([]layout.DirEntry, error) {
	if in.Type != layout.InodeTypeDir {
		return nil, fmt.Errorf("inode %d is not a directory", idx)
	}

	block, err := fs.sb.DataBlock(in.Blocks[0])
	if err != nil {
		return nil, &CorruptionError{Block: fs.sb.InodeStartBlock + idx, Reason: "directory data block", Err: err}
	}

	buf, err := fs.readBlock(block)
	if err != nil {
		return nil, fmt.Errorf("error reading directory %d: %w", idx, err)
	}

	entries, err := layout.DecodeDirEntries(buf, in.Size)
	if err != nil {
		return nil, &CorruptionError{Block: block, Reason: fmt.Sprintf("directory %d", idx), Err: err}
	}

	return entries, nil
}

// WalkFunc is called for every entry of the tree.
type WalkFunc func(p string, idx uint32, in *layout.Inode) error

// ErrSkipDir can be returned from WalkFunc to skip the directory contents.
var ErrSkipDir = errors.New("skip this directory")

// Walk visits the tree depth-first starting with the root.
//
// Each inode is visited at most once, an entry pointing to an already visited inode is an error.
func (fs *FS) Walk(fn WalkFunc) error {
	root := fs.root

	return fs.walk("/", layout.RootInode, &root, map[uint32]struct{}{}, fn)
}

func (fs *FS) walk(p string, idx uint32, in *layout.Inode, visited map[uint32]struct{}, fn WalkFunc) error {
	visited[idx] = struct{}{}

	if err := fn(p, idx, in); err != nil {
		if errors.Is(err, ErrSkipDir) {
			return nil
		}

		return err
	}

	if in.Type != layout.InodeTypeDir {
		return nil
	}

	entries, err := fs.readDir(idx, in)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if _, seen := visited[entry.InodeIndex]; seen {
			return &CorruptionError{
				Block:  fs.sb.InodeStartBlock + idx,
				Reason: fmt.Sprintf("directory %d links already visited inode %d", idx, entry.InodeIndex),
			}
		}

		child, err := fs.Inode(entry.InodeIndex)
		if err != nil {
			return err
		}

		if child.Type == layout.InodeTypeFree {
			return &CorruptionError{
				Block:  fs.sb.InodeStartBlock + idx,
				Reason: fmt.Sprintf("directory %d links free inode %d", idx, entry.InodeIndex),
			}
		}

		if err = fs.walk(path.Join(p, child.NameString()), entry.InodeIndex, child, visited, fn); err != nil {
			return err
		}
	}

	return nil
}
