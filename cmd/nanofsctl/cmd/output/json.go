// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output

import (
	"encoding/json"
	"io"

	"github.com/siderolabs/nanofs/pkg/nanofs"
)

// JSON outputs the report in JSON format.
type JSON struct {
	w io.Writer
}

// NewJSON initializes JSON report output.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// WriteReport implements output.Writer interface.
func (j *JSON) WriteReport(report *nanofs.Report) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "    ")

	return enc.Encode(report)
}

// Flush implements output.Writer interface.
func (j *JSON) Flush() error {
	return nil
}
