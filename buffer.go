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

import "github.com/msgpack-wire/msgpack/internal/memops"

// chainBuf is the growable backing store behind a Formatter, the
// counterpart of the teacher's ion Buffer. Unlike Ion, MessagePack
// never patches a length prefix after the fact (array and map headers
// are written with the element count known up front), so there is no
// analogue to the teacher's shift()/BeginStruct-EndStruct deferred
// sizing; what carries over is the growable-array-plus-span-tracking
// shape of the type.
type chainBuf struct {
	buf []byte
	// oldSpec mirrors WithOldSpecCompatibility: when set, binary payloads
	// are written with str-family headers (the pre-2013 MessagePack
	// spec has no bin family) and WriteTimestamp refuses to write.
	oldSpec bool
}

// grow ensures at least n additional bytes of spare capacity, to keep
// the append* helpers from repeatedly reallocating on predictable
// workloads (e.g. writing many struct fields of a known shape).
func (c *chainBuf) grow(n int) {
	if cap(c.buf)-len(c.buf) >= n {
		return
	}
	next := make([]byte, len(c.buf), 2*cap(c.buf)+n)
	copy(next, c.buf)
	c.buf = next
}

func (c *chainBuf) bytes() []byte { return c.buf }

func (c *chainBuf) size() int { return len(c.buf) }

// reset clears the buffer for reuse, zeroing the reclaimed region so a
// buffer returned to a pool never leaks a previous payload's bytes to
// whatever borrows it next.
func (c *chainBuf) reset() {
	memops.ZeroMemory(c.buf)
	c.buf = c.buf[:0]
}

func (c *chainBuf) writeNil()         { c.buf = appendNil(c.buf) }
func (c *chainBuf) writeBool(v bool)  { c.buf = appendBool(c.buf, v) }
func (c *chainBuf) writeInt(v int64)  { c.buf = appendInt64(c.buf, v) }
func (c *chainBuf) writeUint(v uint64) { c.buf = appendUint64(c.buf, v) }
func (c *chainBuf) writeFloat32(v float32) { c.buf = appendFloat32(c.buf, v) }
func (c *chainBuf) writeFloat64(v float64) { c.buf = appendFloat64(c.buf, v) }

func (c *chainBuf) writeString(s string) {
	c.buf = appendStringHeader(c.buf, len(s))
	c.buf = append(c.buf, s...)
}

func (c *chainBuf) writeBinary(b []byte) {
	if c.oldSpec {
		c.buf = appendStringHeader(c.buf, len(b))
		c.buf = append(c.buf, b...)
		return
	}
	c.buf = appendBinHeader(c.buf, len(b))
	c.buf = append(c.buf, b...)
}

func (c *chainBuf) writeArrayHeader(count int) { c.buf = appendArrayHeader(c.buf, count) }
func (c *chainBuf) writeMapHeader(pairs int)   { c.buf = appendMapHeader(c.buf, pairs) }

func (c *chainBuf) writeExt(typ int8, payload []byte) {
	c.buf = appendExtHeader(c.buf, typ, len(payload))
	c.buf = append(c.buf, payload...)
}

// writeRaw appends an already-encoded, well-formed value verbatim;
// used by RawMessage passthrough so a value the caller never needs to
// inspect never gets decoded and re-encoded.
func (c *chainBuf) writeRaw(b []byte) {
	c.buf = append(c.buf, b...)
}
