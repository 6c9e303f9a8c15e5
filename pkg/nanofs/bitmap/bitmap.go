// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package bitmap provides bit-per-resource occupancy maps.
//
// Bit i lives in byte i/8 at position i%8 (LSB first), a set bit marks the
// resource as allocated.
package bitmap

import "math/bits"

// Bitmap is a view over the backing bytes, it doesn't copy them.
type Bitmap struct {
	data []byte
	n    int
}

// New wraps data as a bitmap of n bits.
//
// Bits past n are ignored.
func New(data []byte, n int) Bitmap {
	n = min(n, 8*len(data))

	return Bitmap{
		data: data,
		n:    max(n, 0),
	}
}

// Len returns the number of bits.
func (b Bitmap) Len() int {
	return b.n
}

// Test reports whether bit i is set.
func (b Bitmap) Test(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}

	return b.data[i/8]&(1<<(i%8)) != 0
}

// Set sets bit i, out of range bits are ignored.
func (b Bitmap) Set(i int) {
	if i < 0 || i >= b.n {
		return
	}

	b.data[i/8] |= 1 << (i % 8)
}

// Clear clears bit i, out of range bits are ignored.
func (b Bitmap) Clear(i int) {
	if i < 0 || i >= b.n {
		return
	}

	b.data[i/8] &^= 1 << (i % 8)
}

// Count returns the number of set bits.
func (b Bitmap) Count() int {
	count := 0

	for i := range b.n / 8 {
		count += bits.OnesCount8(b.data[i])
	}

	for i := b.n &^ 7; i < b.n; i++ {
		if b.Test(i) {
			count++
		}
	}

	return count
}

// FirstClear returns the index of the first clear bit.
func (b Bitmap) FirstClear() (int, bool) {
	for i := range b.n {
		if b.data[i/8] == 0xff {
			continue
		}

		if !b.Test(i) {
			return i, true
		}
	}

	return 0, false
}

// SetBits returns indices of all set bits.
func (b Bitmap) SetBits() []int {
	var res []int

	for i := range b.n {
		if b.Test(i) {
			res = append(res, i)
		}
	}

	return res
}
