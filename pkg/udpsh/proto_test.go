// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package udpsh_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/siderolabs/nanofs/pkg/serde"
	"github.com/siderolabs/nanofs/pkg/udpsh"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func chunk(t *testing.T, seq uint32, idx uint16, last bool, payload string) []byte {
	t.Helper()

	h := udpsh.Header{Magic: udpsh.Magic, Seq: seq, Chunk: idx}
	if last {
		h.Flags = udpsh.FlagLast
	}

	d, err := udpsh.Datagram(h, []byte(payload))
	require.NoError(t, err)

	return d
}

func TestHeaderSchema(t *testing.T) {
	t.Parallel()

	var h udpsh.Header

	require.NoError(t, serde.Validate(h.Fields(), udpsh.HeaderSize))

	offsets := map[string]uint32{}

	for _, f := range h.Fields() {
		offsets[f.Name] = f.Offset
	}

	assert.Equal(t, map[string]uint32{
		"magic":       0,
		"seq":         4,
		"chunk":       8,
		"flags":       10,
		"payload_len": 12,
		"reserved":    14,
	}, offsets)
}

func TestMarshalCommand(t *testing.T) {
	t.Parallel()

	d, err := udpsh.MarshalCommand(7, "ls")
	require.NoError(t, err)

	assert.Equal(t, []byte{
		0x4e, 0x4f, 0x53, 0x48,
		0x00, 0x00, 0x00, 0x07,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x02,
		0x00, 0x00,
		'l', 's',
	}, d)

	h, err := udpsh.ParseHeader(d)
	require.NoError(t, err)
	assert.Equal(t, udpsh.Header{Magic: udpsh.Magic, Seq: 7, PayloadLen: 2}, h)
	assert.False(t, h.Last())

	d, err = udpsh.MarshalCommand(0, strings.Repeat("x", udpsh.MaxPayload))
	require.NoError(t, err)
	assert.Len(t, d, udpsh.MaxDatagram)

	_, err = udpsh.MarshalCommand(0, strings.Repeat("x", udpsh.MaxPayload+1))
	assert.Error(t, err)

	_, err = udpsh.ParseHeader(d[:udpsh.HeaderSize-1])
	assert.Error(t, err)
}

func TestReassembler(t *testing.T) {
	t.Parallel()

	r := udpsh.NewReassembler(3)

	payload, accepted, err := r.Feed(chunk(t, 3, 0, false, "hello "))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, "hello ", string(payload))
	assert.False(t, r.Done())

	payload, accepted, err = r.Feed(chunk(t, 3, 1, true, "world"))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, "world", string(payload))
	assert.True(t, r.Done())

	_, accepted, err = r.Feed(chunk(t, 3, 2, true, "late"))
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestReassemblerIgnored(t *testing.T) {
	t.Parallel()

	foreign := chunk(t, 3, 0, true, "x")
	foreign[0] = 'X'

	for _, test := range []struct {
		name     string
		datagram []byte
	}{
		{name: "short", datagram: chunk(t, 3, 0, true, "")[:udpsh.HeaderSize-1]},
		{name: "magic", datagram: foreign},
		{name: "stale seq", datagram: chunk(t, 2, 0, true, "old")},
		{name: "future seq", datagram: chunk(t, 4, 0, true, "new")},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			r := udpsh.NewReassembler(3)

			_, accepted, err := r.Feed(test.datagram)
			require.NoError(t, err)
			assert.False(t, accepted)
			assert.EqualValues(t, 0, r.Expected())
			assert.False(t, r.Done())
		})
	}
}

func TestReassemblerViolations(t *testing.T) {
	t.Parallel()

	h := udpsh.Header{Magic: udpsh.Magic, Seq: 3, PayloadLen: 100, Flags: udpsh.FlagLast}
	oversized, err := h.Marshal()
	require.NoError(t, err)

	oversized = append(oversized, "short"...)

	// consistent with the datagram length, but larger than a chunk may carry
	h.PayloadLen = udpsh.MaxPayload + 1
	overlong, err := h.Marshal()
	require.NoError(t, err)

	overlong = append(overlong, strings.Repeat("x", udpsh.MaxPayload+1)...)

	for _, test := range []struct {
		name     string
		datagram []byte
	}{
		{name: "payload length", datagram: oversized},
		{name: "payload over limit", datagram: overlong},
		{name: "out of order", datagram: chunk(t, 3, 1, true, "second")},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, accepted, err := udpsh.NewReassembler(3).Feed(test.datagram)
			require.Error(t, err)
			assert.False(t, accepted)

			var protoErr *udpsh.ProtocolError

			assert.True(t, errors.As(err, &protoErr))
		})
	}
}
