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

// Package msgpack implements a schema-driven MessagePack encoder/decoder.
//
// The package is organized the way the teacher's ion codec is organized:
// a stateless primitive codec (token.go, decode.go, encode.go) at the
// bottom, a Formatter/Deformatter policy pair (formatter.go,
// deformatter.go) that drives it one token at a time, a synchronous
// Reader/Writer facade (reader.go, writer.go) for convenient blocking
// use, an asynchronous Reader/Writer (async.go) for streaming use, and a
// converter graph (converter.go and friends) built by walking a type
// Shape.
package msgpack

// Kind is the coarse category of a decoded MessagePack token.
// Every lead byte maps to exactly one Kind (see leadKind).
type Kind byte

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindArray
	KindMap
	KindExtension
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// Lead byte ranges and fixed tokens, per the MessagePack specification.
const (
	mpPosFixintMax = 0x7f
	mpFixmapPrefix = 0x80
	mpFixmapMax    = 0x8f
	mpFixarrPrefix = 0x90
	mpFixarrMax    = 0x9f
	mpFixstrPrefix = 0xa0
	mpFixstrMax    = 0xbf

	mpNil      = 0xc0
	mpReserved = 0xc1
	mpFalse    = 0xc2
	mpTrue     = 0xc3

	mpBin8  = 0xc4
	mpBin16 = 0xc5
	mpBin32 = 0xc6

	mpExt8  = 0xc7
	mpExt16 = 0xc8
	mpExt32 = 0xc9

	mpFloat32 = 0xca
	mpFloat64 = 0xcb

	mpUint8  = 0xcc
	mpUint16 = 0xcd
	mpUint32 = 0xce
	mpUint64 = 0xcf

	mpInt8  = 0xd0
	mpInt16 = 0xd1
	mpInt32 = 0xd2
	mpInt64 = 0xd3

	mpFixext1  = 0xd4
	mpFixext2  = 0xd5
	mpFixext4  = 0xd6
	mpFixext8  = 0xd7
	mpFixext16 = 0xd8

	mpStr8  = 0xd9
	mpStr16 = 0xda
	mpStr32 = 0xdb

	mpArray16 = 0xdc
	mpArray32 = 0xdd

	mpMap16 = 0xde
	mpMap32 = 0xdf

	mpNegFixintMin = 0xe0
)

// ExtTimestamp is the MessagePack-reserved extension type code for
// timestamps (always -1, per the specification; not remappable).
const ExtTimestamp int8 = -1

// leadKind is a 256-entry lead-byte -> Kind dispatch table, built once at
// init time. try_skip and the Deformatter's token-kind checks consult
// this table instead of branching through the full header decode, per
// the "token kind dispatch" design note.
var leadKind [256]Kind

func init() {
	for i := 0; i <= mpPosFixintMax; i++ {
		leadKind[i] = KindInt
	}
	for i := mpFixmapPrefix; i <= mpFixmapMax; i++ {
		leadKind[i] = KindMap
	}
	for i := mpFixarrPrefix; i <= mpFixarrMax; i++ {
		leadKind[i] = KindArray
	}
	for i := mpFixstrPrefix; i <= mpFixstrMax; i++ {
		leadKind[i] = KindString
	}
	leadKind[mpNil] = KindNull
	leadKind[mpReserved] = KindUnknown
	leadKind[mpFalse] = KindBool
	leadKind[mpTrue] = KindBool
	leadKind[mpBin8] = KindBinary
	leadKind[mpBin16] = KindBinary
	leadKind[mpBin32] = KindBinary
	leadKind[mpExt8] = KindExtension
	leadKind[mpExt16] = KindExtension
	leadKind[mpExt32] = KindExtension
	leadKind[mpFloat32] = KindFloat
	leadKind[mpFloat64] = KindFloat
	leadKind[mpUint8] = KindInt
	leadKind[mpUint16] = KindInt
	leadKind[mpUint32] = KindInt
	leadKind[mpUint64] = KindInt
	leadKind[mpInt8] = KindInt
	leadKind[mpInt16] = KindInt
	leadKind[mpInt32] = KindInt
	leadKind[mpInt64] = KindInt
	leadKind[mpFixext1] = KindExtension
	leadKind[mpFixext2] = KindExtension
	leadKind[mpFixext4] = KindExtension
	leadKind[mpFixext8] = KindExtension
	leadKind[mpFixext16] = KindExtension
	leadKind[mpStr8] = KindString
	leadKind[mpStr16] = KindString
	leadKind[mpStr32] = KindString
	leadKind[mpArray16] = KindArray
	leadKind[mpArray32] = KindArray
	leadKind[mpMap16] = KindMap
	leadKind[mpMap32] = KindMap
	for i := mpNegFixintMin; i <= 0xff; i++ {
		leadKind[i] = KindInt
	}
}

// KindOf returns the Kind of the token whose lead byte is b.
func KindOf(b byte) Kind {
	return leadKind[b]
}

// maxHeaderLen is the longest possible token header (lead byte plus
// length/extension prefix). Nothing in the package reads it.
const maxHeaderLen = 6

// maxTokenLen is the longest possible fixed-size token (a 12-byte
// timestamp extension: fixext8's 1 lead + 1 type code + 8 data, rounded
// up to the 12-byte non-fixed timestamp form: 1 lead + 1 size + 1 type
// + 12 data = 15, plus headroom). Nothing in the package reads it.
const maxTokenLen = 17
