// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package udpsh

import "fmt"

// Reassembler collects reply chunks for a single sequence number.
type Reassembler struct {
	seq  uint32
	next uint16
	done bool
}

// NewReassembler creates a reassembler for the reply to command seq.
func NewReassembler(seq uint32) *Reassembler {
	return &Reassembler{seq: seq}
}

// Feed processes a received datagram.
//
// Datagrams not belonging to the exchange (short, foreign magic, other sequence
// number) are ignored: accepted is false and the expected chunk index doesn't move.
// The returned payload aliases the datagram.
func (r *Reassembler) Feed(datagram []byte) (payload []byte, accepted bool, err error) {
	if r.done {
		return nil, false, nil
	}

	h, err := ParseHeader(datagram)
	if err != nil {
		return nil, false, nil //nolint:nilerr
	}

	if h.Magic != Magic || h.Seq != r.seq {
		return nil, false, nil
	}

	if h.PayloadLen > MaxPayload {
		return nil, false, &ProtocolError{
			Reason: fmt.Sprintf("payload length %d exceeds %d", h.PayloadLen, MaxPayload),
		}
	}

	if int(h.PayloadLen) > len(datagram)-HeaderSize {
		return nil, false, &ProtocolError{
			Reason: fmt.Sprintf("payload length %d exceeds datagram payload of %d bytes", h.PayloadLen, len(datagram)-HeaderSize),
		}
	}

	if h.Chunk != r.next {
		return nil, false, &ProtocolError{
			Reason: fmt.Sprintf("expected chunk %d, got %d", r.next, h.Chunk),
		}
	}

	r.next++
	r.done = h.Last()

	return datagram[HeaderSize : HeaderSize+int(h.PayloadLen)], true, nil
}

// Done reports whether the last chunk was received.
func (r *Reassembler) Done() bool {
	return r.done
}

// Expected returns the index of the next expected chunk.
func (r *Reassembler) Expected() uint16 {
	return r.next
}
