// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package udpsh implements the client side of the NanoFS kernel administrative UDP shell.
//
// Every datagram starts with a 16-byte header in network byte order:
//
//	magic u32 | seq u32 | chunk u16 | flags u16 | payload_len u16 | reserved u16
//
// A command is sent as a single datagram, the reply is a sequence of chunks
// terminated by the chunk carrying FlagLast.
package udpsh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/siderolabs/nanofs/pkg/serde"
)

// Protocol constants.
const (
	// Magic is "NOSH".
	Magic = 0x4E4F5348

	HeaderSize  = 16
	MaxPayload  = 4080
	MaxDatagram = HeaderSize + MaxPayload

	// FlagLast marks the final chunk of the reply.
	FlagLast = 0x0001

	DefaultPort    = 9000
	DefaultTimeout = 30 * time.Second
)

// ErrTimeout is returned when no reply datagram arrives within the timeout.
var ErrTimeout = errors.New("timeout waiting for reply")

// ProtocolError is returned when the server violates the protocol.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

// Header of every shell datagram.
type Header struct {
	Magic      uint32
	Seq        uint32
	Chunk      uint16
	Flags      uint16
	PayloadLen uint16
	Reserved   uint16
}

// Fields implements serde.Serde.
func (h *Header) Fields() []*serde.Field {
	be := binary.BigEndian

	return []*serde.Field{
		serde.Uint32("magic", 0, be, &h.Magic),
		serde.Uint32("seq", 4, be, &h.Seq),
		serde.Uint16("chunk", 8, be, &h.Chunk),
		serde.Uint16("flags", 10, be, &h.Flags),
		serde.Uint16("payload_len", 12, be, &h.PayloadLen),
		serde.Uint16("reserved", 14, be, &h.Reserved),
	}
}

// Last reports whether the chunk terminates the reply.
func (h *Header) Last() bool {
	return h.Flags&FlagLast != 0
}

// Marshal the header.
func (h *Header) Marshal() ([]byte, error) {
	return serde.Ser(h, HeaderSize)
}

// Datagram builds a datagram carrying payload.
func Datagram(h Header, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(payload), MaxPayload)
	}

	h.PayloadLen = uint16(len(payload))

	buf, err := h.Marshal()
	if err != nil {
		return nil, err
	}

	return append(buf, payload...), nil
}

// MarshalCommand builds the request datagram for cmd.
func MarshalCommand(seq uint32, cmd string) ([]byte, error) {
	if len(cmd) > MaxPayload {
		return nil, fmt.Errorf("command of %d bytes exceeds %d", len(cmd), MaxPayload)
	}

	return Datagram(Header{Magic: Magic, Seq: seq}, []byte(cmd))
}

// ParseHeader decodes the header of the datagram.
func ParseHeader(datagram []byte) (Header, error) {
	var h Header

	if len(datagram) < HeaderSize {
		return h, fmt.Errorf("datagram of %d bytes is shorter than the header", len(datagram))
	}

	err := serde.De(&h, datagram[:HeaderSize])

	return h, err
}
