// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package msgpack

import "slices"

// RawMessage is an already-encoded MessagePack value captured verbatim
// instead of decoded. Decoding into a RawMessage field borrows a slice
// of the Deformatter's input buffer (per the "buffer ownership:
// borrowed by default" design note) rather than copying it, so walking
// past a value whose shape the caller doesn't care about costs only a
// SkipState traversal, never an allocation.
//
// Because it borrows, a RawMessage is only valid until the next call
// that mutates or reuses the buffer it came from (e.g. the next
// Deserialize on a pooled Deformatter). Call Clone to obtain an
// independent copy that outlives the read.
type RawMessage struct {
	data   []byte
	cloned bool
}

// Clone returns a RawMessage holding an independent copy of the bytes,
// safe to retain after the originating buffer is reused. Mirrors the
// teacher's Datum.Clone, which slices.Clone's its backing bytes for
// exactly the same reason.
func (r RawMessage) Clone() RawMessage {
	if r.cloned {
		return r
	}
	return RawMessage{data: slices.Clone(r.data), cloned: true}
}

// Bytes returns the raw encoded bytes. Do not retain the returned
// slice past the lifetime described above unless this RawMessage was
// obtained via Clone.
func (r RawMessage) Bytes() []byte { return r.data }

// IsZero reports whether this RawMessage was never populated.
func (r RawMessage) IsZero() bool { return r.data == nil }

// decodeRawMessage captures exactly one value from d without
// interpreting it, borrowing the bytes from d's backing buffer.
func decodeRawMessage(d *Deformatter) (RawMessage, DecodeResult) {
	b, res := d.TrySkip()
	if res != Success {
		return RawMessage{}, res
	}
	return RawMessage{data: b}, Success
}

// encodeRawMessage writes a previously captured value back out
// verbatim, without re-encoding it.
func encodeRawMessage(f *Formatter, r RawMessage) {
	f.WriteRaw(r.data)
}
