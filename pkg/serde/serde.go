// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package serde provides a declarative way to describe fixed-size binary records.
//
// A record exposes its layout as a list of fields, each field knows its name,
// offset, width and how to encode and decode itself. The generic Ser and De
// routines drive the fields over a buffer.
package serde

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// Serde is implemented by types which describe their binary layout.
type Serde interface {
	Fields() []*Field
}

// Field describes a single slot in a binary record.
type Field struct {
	Name   string
	Offset uint32
	Length uint32

	// SerializerFunc returns exactly Length bytes for the field.
	SerializerFunc func() ([]byte, error)
	// DeserializerFunc receives exactly Length bytes of the field.
	DeserializerFunc func(contents []byte) error
}

// End returns the offset of the first byte after the field.
func (f *Field) End() uint32 {
	return f.Offset + f.Length
}

// Validate checks that fields are well-formed, unique, don't overlap and fit into size bytes.
func Validate(fields []*Field, size int) error {
	names := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if f.Length == 0 {
			return fmt.Errorf("field %q has zero length", f.Name)
		}

		if uint64(f.Offset)+uint64(f.Length) > uint64(size) {
			return fmt.Errorf("field %q [%d, %d) exceeds record size %d", f.Name, f.Offset, f.End(), size)
		}

		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("duplicate field %q", f.Name)
		}

		names[f.Name] = struct{}{}
	}

	sorted := slices.Clone(fields)
	slices.SortFunc(sorted, func(a, b *Field) int {
		return int(a.Offset) - int(b.Offset)
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]

		if cur.Offset < prev.End() {
			return fmt.Errorf("field %q [%d, %d) overlaps field %q [%d, %d)", cur.Name, cur.Offset, cur.End(), prev.Name, prev.Offset, prev.End())
		}
	}

	return nil
}

// Ser serializes s into a zero-filled buffer of size bytes.
//
// Bytes not covered by any field are left zero.
func Ser(s Serde, size int) ([]byte, error) {
	fields := s.Fields()

	if err := Validate(fields, size); err != nil {
		return nil, err
	}

	buf := make([]byte, size)

	for _, f := range fields {
		data, err := f.SerializerFunc()
		if err != nil {
			return nil, fmt.Errorf("error serializing field %q: %w", f.Name, err)
		}

		if uint32(len(data)) != f.Length {
			return nil, fmt.Errorf("field %q serialized to %d bytes, expected %d", f.Name, len(data), f.Length)
		}

		copy(buf[f.Offset:f.End()], data)
	}

	return buf, nil
}

// De deserializes data into s.
func De(s Serde, data []byte) error {
	fields := s.Fields()

	if err := Validate(fields, len(data)); err != nil {
		return err
	}

	for _, f := range fields {
		if err := f.DeserializerFunc(data[f.Offset:f.End()]); err != nil {
			return fmt.Errorf("error deserializing field %q: %w", f.Name, err)
		}
	}

	return nil
}

// Uint32 describes a 4-byte unsigned integer field.
func Uint32(name string, offset uint32, order binary.ByteOrder, v *uint32) *Field {
	return &Field{
		Name:   name,
		Offset: offset,
		Length: 4,
		SerializerFunc: func() ([]byte, error) {
			data := make([]byte, 4)
			order.PutUint32(data, *v)

			return data, nil
		},
		DeserializerFunc: func(contents []byte) error {
			*v = order.Uint32(contents)

			return nil
		},
	}
}

// Uint16 describes a 2-byte unsigned integer field.
func Uint16(name string, offset uint32, order binary.ByteOrder, v *uint16) *Field {
	return &Field{
		Name:   name,
		Offset: offset,
		Length: 2,
		SerializerFunc: func() ([]byte, error) {
			data := make([]byte, 2)
			order.PutUint16(data, *v)

			return data, nil
		},
		DeserializerFunc: func(contents []byte) error {
			*v = order.Uint16(contents)

			return nil
		},
	}
}

// Bytes describes a raw byte field backed by b, the field width is len(b).
//
// b is usually a slice of a fixed-size array in the record.
func Bytes(name string, offset uint32, b []byte) *Field {
	return &Field{
		Name:   name,
		Offset: offset,
		Length: uint32(len(b)),
		SerializerFunc: func() ([]byte, error) {
			return slices.Clone(b), nil
		},
		DeserializerFunc: func(contents []byte) error {
			copy(b, contents)

			return nil
		},
	}
}

// Uint32Array describes a packed array of 4-byte unsigned integers backed by v.
func Uint32Array(name string, offset uint32, order binary.ByteOrder, v []uint32) *Field {
	return &Field{
		Name:   name,
		Offset: offset,
		Length: uint32(4 * len(v)),
		SerializerFunc: func() ([]byte, error) {
			data := make([]byte, 4*len(v))

			for i, x := range v {
				order.PutUint32(data[4*i:], x)
			}

			return data, nil
		},
		DeserializerFunc: func(contents []byte) error {
			for i := range v {
				v[i] = order.Uint32(contents[4*i:])
			}

			return nil
		},
	}
}
