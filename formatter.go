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

import (
	"errors"

	"github.com/msgpack-wire/msgpack/mptime"
)

// Formatter writes one MessagePack token at a time onto a growable
// backing buffer. It is the write-side half of the Formatter/
// Deformatter pair: converters call Formatter methods; Formatter
// chooses the most compact wire encoding for every value it is given.
//
// A Formatter holds no notion of "current container" the way the
// teacher's ion Buffer does (BeginStruct/EndStruct) — since array and
// map headers are self-describing up front, the converter that knows
// the element count calls WriteArrayHeader/WriteMapHeader directly and
// then writes exactly that many children.
type Formatter struct {
	buf chainBuf
}

// NewFormatter returns a Formatter with no preallocated capacity.
// Serializer.Serialize draws its Formatters from a pool instead.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// SetOldSpecCompatibility toggles WithOldSpecCompatibility behavior:
// binary payloads are written with str-family headers, and
// WriteTimestamp refuses to write at all (the pre-2013 spec this mode
// targets predates the timestamp extension).
func (f *Formatter) SetOldSpecCompatibility(v bool) { f.buf.oldSpec = v }

func (f *Formatter) WriteNil()            { f.buf.writeNil() }
func (f *Formatter) WriteBool(v bool)     { f.buf.writeBool(v) }
func (f *Formatter) WriteInt(v int64)     { f.buf.writeInt(v) }
func (f *Formatter) WriteUint(v uint64)   { f.buf.writeUint(v) }
func (f *Formatter) WriteFloat32(v float32) { f.buf.writeFloat32(v) }
func (f *Formatter) WriteFloat64(v float64) { f.buf.writeFloat64(v) }
func (f *Formatter) WriteString(s string) { f.buf.writeString(s) }
func (f *Formatter) WriteBinary(b []byte) { f.buf.writeBinary(b) }
func (f *Formatter) WriteArrayHeader(count int) { f.buf.writeArrayHeader(count) }
func (f *Formatter) WriteMapHeader(pairs int)   { f.buf.writeMapHeader(pairs) }
func (f *Formatter) WriteExt(typ int8, payload []byte) { f.buf.writeExt(typ, payload) }
func (f *Formatter) WriteRaw(b []byte)    { f.buf.writeRaw(b) }

// WriteTimestamp writes t using the reserved timestamp extension
// (type -1), choosing the 4-, 8- or 12-byte wire form exactly the way
// the MessagePack specification's timestamp extension requires: the
// 4-byte form when there are no nanoseconds and the seconds fit in 32
// unsigned bits, the 8-byte form when nanoseconds are present but
// seconds still fit in 34 bits, and the 12-byte form otherwise.
func (f *Formatter) WriteTimestamp(t mptime.Time) error {
	if f.buf.oldSpec {
		return errOldSpecNoTimestamp
	}
	sec := t.Unix()
	nsec := int64(t.Nanosecond())
	switch {
	case nsec == 0 && sec >= 0 && sec <= 0xffffffff:
		var tmp [4]byte
		putBE32(tmp[:], uint32(sec))
		f.buf.writeExt(ExtTimestamp, tmp[:])
	case sec >= 0 && sec < (1<<34):
		var tmp [8]byte
		v := uint64(nsec)<<34 | uint64(sec)
		putBE64(tmp[:], v)
		f.buf.writeExt(ExtTimestamp, tmp[:])
	default:
		var tmp [12]byte
		putBE32(tmp[:4], uint32(nsec))
		putBE64(tmp[4:], uint64(sec))
		f.buf.writeExt(ExtTimestamp, tmp[:])
	}
	return nil
}

// errOldSpecNoTimestamp is returned by WriteTimestamp when the
// Formatter is in old-spec-compatibility mode: the pre-2013 MessagePack
// spec this mode targets has no timestamp extension to write.
var errOldSpecNoTimestamp = errors.New("msgpack: timestamp encoding is unavailable under old-spec compatibility")

func (f *Formatter) Bytes() []byte { return f.buf.bytes() }
func (f *Formatter) Size() int     { return f.buf.size() }
func (f *Formatter) Reset()        { f.buf.reset() }

func putBE32(dst []byte, v uint32) {
	dst[0], dst[1], dst[2], dst[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}

func putBE64(dst []byte, v uint64) {
	dst[0], dst[1], dst[2], dst[3] = byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32)
	dst[4], dst[5], dst[6], dst[7] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}
