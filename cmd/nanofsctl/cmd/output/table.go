// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/siderolabs/nanofs/pkg/nanofs"
)

// Table outputs the report in Table view.
type Table struct {
	w tabwriter.Writer
}

// NewTable initializes table report output.
func NewTable(w io.Writer) *Table {
	output := &Table{}
	output.w.Init(w, 0, 0, 3, ' ', 0)

	return output
}

// WriteReport implements output.Writer interface.
func (table *Table) WriteReport(report *nanofs.Report) error {
	summary := [][2]string{
		{"UUID", report.UUID},
		{"VERSION", fmt.Sprint(report.Version)},
		{"BLOCK SIZE", fmt.Sprint(report.BlockSize)},
		{"INODES", fmt.Sprintf("%d/%d", report.InodesUsed, report.InodeCount)},
		{"DATA BLOCKS", fmt.Sprintf("%d/%d", report.DataBlocksUsed, report.DataBlockCount)},
		{"USED", fmt.Sprintf("%s/%s", report.Used, report.Capacity)},
	}

	for _, line := range summary {
		if _, err := fmt.Fprintf(&table.w, "%s:\t%s\n", line[0], line[1]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(&table.w, "\nINODE\tTYPE\tSIZE\tPATH"); err != nil {
		return err
	}

	for _, entry := range report.Entries {
		if _, err := fmt.Fprintf(&table.w, "%d\t%s\t%d\t%s\n", entry.Inode, entry.Type, entry.Size, entry.Path); err != nil {
			return err
		}
	}

	return nil
}

// Flush implements output.Writer interface.
func (table *Table) Flush() error {
	return table.w.Flush()
}
