// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/siderolabs/nanofs/pkg/nanofs"
)

// YAML outputs the report in YAML format.
type YAML struct {
	enc *yaml.Encoder
}

// NewYAML initializes YAML report output.
func NewYAML(w io.Writer) *YAML {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	return &YAML{enc: enc}
}

// WriteReport implements output.Writer interface.
func (y *YAML) WriteReport(report *nanofs.Report) error {
	return y.enc.Encode(report)
}

// Flush implements output.Writer interface.
func (y *YAML) Flush() error {
	return y.enc.Close()
}
