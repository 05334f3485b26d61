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

import "math"

// The append* functions are the pure, allocation-minimal counterpart of
// the tryRead* decoders: each appends exactly one token to dst and
// returns the grown slice. They never fail — every Go value the
// converters hand them has a representable encoding — and they always
// choose the most compact header for the value at hand, per the
// compactness requirement (a small int always gets fixint, never
// int64; a short string always gets fixstr/str8 over str16/32).

func appendNil(dst []byte) []byte {
	return append(dst, mpNil)
}

func appendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, mpTrue)
	}
	return append(dst, mpFalse)
}

// appendInt64 picks the smallest token family that can hold v. Every
// non-negative v defers to appendUint64, since the unsigned family is
// never wider than the signed family at the same magnitude (e.g. 128
// fits uint8 but needs int16 in the signed ladder) — the compactness
// requirement always prefers it for v >= 0.
func appendInt64(dst []byte, v int64) []byte {
	switch {
	case v >= 0:
		return appendUint64(dst, uint64(v))
	case v >= -32:
		return append(dst, byte(int8(v)))
	case v >= math.MinInt8:
		return append(dst, mpInt8, byte(int8(v)))
	case v >= math.MinInt16:
		return appendBE16(append(dst, mpInt16), uint16(int16(v)))
	case v >= math.MinInt32:
		return appendBE32(append(dst, mpInt32), uint32(int32(v)))
	default:
		return appendBE64(append(dst, mpInt64), uint64(v))
	}
}

// appendUint64 picks the smallest token that can hold v: a positive
// fixint up to 127 (the same compact token small signed values use),
// then uint8, uint16, uint32 or uint64.
func appendUint64(dst []byte, v uint64) []byte {
	switch {
	case v <= mpPosFixintMax:
		return append(dst, byte(v))
	case v <= math.MaxUint8:
		return append(dst, mpUint8, byte(v))
	case v <= math.MaxUint16:
		return appendBE16(append(dst, mpUint16), uint16(v))
	case v <= math.MaxUint32:
		return appendBE32(append(dst, mpUint32), uint32(v))
	default:
		return appendBE64(append(dst, mpUint64), v)
	}
}

func appendFloat32(dst []byte, v float32) []byte {
	return appendBE32(append(dst, mpFloat32), math.Float32bits(v))
}

func appendFloat64(dst []byte, v float64) []byte {
	return appendBE64(append(dst, mpFloat64), math.Float64bits(v))
}

// appendStringHeader appends the header for a string payload of byte
// length n. The caller appends the payload bytes itself.
func appendStringHeader(dst []byte, n int) []byte {
	switch {
	case n <= 31:
		return append(dst, mpFixstrPrefix|byte(n))
	case n <= math.MaxUint8:
		return append(dst, mpStr8, byte(n))
	case n <= math.MaxUint16:
		return appendBE16(append(dst, mpStr16), uint16(n))
	default:
		return appendBE32(append(dst, mpStr32), uint32(n))
	}
}

// appendBinHeader appends the header for a binary payload of byte
// length n.
func appendBinHeader(dst []byte, n int) []byte {
	switch {
	case n <= math.MaxUint8:
		return append(dst, mpBin8, byte(n))
	case n <= math.MaxUint16:
		return appendBE16(append(dst, mpBin16), uint16(n))
	default:
		return appendBE32(append(dst, mpBin32), uint32(n))
	}
}

// appendArrayHeader appends an array header for count elements.
func appendArrayHeader(dst []byte, count int) []byte {
	switch {
	case count <= 15:
		return append(dst, mpFixarrPrefix|byte(count))
	case count <= math.MaxUint16:
		return appendBE16(append(dst, mpArray16), uint16(count))
	default:
		return appendBE32(append(dst, mpArray32), uint32(count))
	}
}

// appendMapHeader appends a map header for the given number of pairs.
func appendMapHeader(dst []byte, pairs int) []byte {
	switch {
	case pairs <= 15:
		return append(dst, mpFixmapPrefix|byte(pairs))
	case pairs <= math.MaxUint16:
		return appendBE16(append(dst, mpMap16), uint16(pairs))
	default:
		return appendBE32(append(dst, mpMap32), uint32(pairs))
	}
}

// appendExtHeader appends an ext-family header for a payload of byte
// length n and the given application (or reserved) type code. The
// caller appends the payload bytes itself.
func appendExtHeader(dst []byte, typ int8, n int) []byte {
	switch n {
	case 1:
		return append(dst, mpFixext1, byte(typ))
	case 2:
		return append(dst, mpFixext2, byte(typ))
	case 4:
		return append(dst, mpFixext4, byte(typ))
	case 8:
		return append(dst, mpFixext8, byte(typ))
	case 16:
		return append(dst, mpFixext16, byte(typ))
	}
	switch {
	case n <= math.MaxUint8:
		return append(dst, mpExt8, byte(n), byte(typ))
	case n <= math.MaxUint16:
		dst = append(dst, mpExt16)
		dst = appendBE16(dst, uint16(n))
		return append(dst, byte(typ))
	default:
		dst = append(dst, mpExt32)
		dst = appendBE32(dst, uint32(n))
		return append(dst, byte(typ))
	}
}

func appendBE16(dst []byte, v uint16) []byte {
	return append(dst, byte(v>>8), byte(v))
}

func appendBE32(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendBE64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
