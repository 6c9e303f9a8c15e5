// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package nanofs

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/siderolabs/gen/xslices"

	"github.com/siderolabs/nanofs/pkg/nanofs/layout"
)

// Report is the inspection summary of the filesystem.
type Report struct {
	UUID           string  `yaml:"uuid" json:"uuid"`
	Info           string  `yaml:"info" json:"info"`
	Version        uint32  `yaml:"version" json:"version"`
	BlockSize      uint32  `yaml:"blockSize" json:"blockSize"`
	InodeCount     uint32  `yaml:"inodeCount" json:"inodeCount"`
	InodesUsed     int     `yaml:"inodesUsed" json:"inodesUsed"`
	DataBlockCount uint32  `yaml:"dataBlockCount" json:"dataBlockCount"`
	DataBlocksUsed int     `yaml:"dataBlocksUsed" json:"dataBlocksUsed"`
	Capacity       string  `yaml:"capacity" json:"capacity"`
	Used           string  `yaml:"used" json:"used"`
	Entries        []Entry `yaml:"entries" json:"entries"`
}

// Entry is a single node of the filesystem tree.
type Entry struct {
	Path         string `yaml:"path" json:"path"`
	Type         string `yaml:"type" json:"type"`
	Inode        uint32 `yaml:"inode" json:"inode"`
	Parent       uint32 `yaml:"parent" json:"parent"`
	Size         uint32 `yaml:"size" json:"size"`
	Blocks       []int  `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	DataChecksum string `yaml:"dataChecksum" json:"dataChecksum"`
}

// Report walks the filesystem and builds the inspection report.
func (fs *FS) Report() (*Report, error) {
	dataUsed := fs.dataBitmap().Count()

	report := &Report{
		UUID:           fs.UUID().String(),
		Info:           fs.Info(),
		Version:        fs.sb.Version,
		BlockSize:      fs.sb.BlockSize,
		InodeCount:     fs.sb.InodeCount,
		InodesUsed:     fs.inodeBitmap().Count(),
		DataBlockCount: fs.sb.DataBlockCount,
		DataBlocksUsed: dataUsed,
		Capacity:       humanize.IBytes(uint64(fs.sb.DataBlockCount) * uint64(fs.sb.BlockSize)),
		Used:           humanize.IBytes(uint64(dataUsed) * uint64(fs.sb.BlockSize)),
	}

	err := fs.Walk(func(p string, idx uint32, in *layout.Inode) error {
		report.Entries = append(report.Entries, Entry{
			Path:         p,
			Type:         in.Type.String(),
			Inode:        idx,
			Parent:       in.ParentInode,
			Size:         in.Size,
			Blocks:       xslices.Map(in.Blocks[:min(in.BlockCount(), layout.MaxBlocks)], func(b uint32) int { return int(b) }),
			DataChecksum: fmt.Sprintf("0x%08x", in.DataChecksum),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}
