// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

// uuidValue is a flag holding a filesystem UUID, unset means random.
type uuidValue struct {
	id uuid.UUID
}

var _ pflag.Value = (*uuidValue)(nil)

func (v *uuidValue) String() string {
	if v.id == uuid.Nil {
		return ""
	}

	return v.id.String()
}

func (v *uuidValue) Set(s string) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid uuid %q: %w", s, err)
	}

	v.id = id

	return nil
}

func (v *uuidValue) Type() string {
	return "uuid"
}

// bytesValue is a flag holding a size in bytes, accepting human readable values (10MiB, 1.5GB).
type bytesValue struct {
	size uint64
}

var _ pflag.Value = (*bytesValue)(nil)

func (v *bytesValue) String() string {
	return humanize.IBytes(v.size)
}

func (v *bytesValue) Set(s string) error {
	size, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}

	v.size = size

	return nil
}

func (v *bytesValue) Type() string {
	return "bytes"
}
