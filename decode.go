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

// DecodeResult is the three-valued (plus EmptyBuffer) outcome of every
// tryRead* primitive decoder. None of these decoders ever panic or
// return a Go error on a short buffer: InsufficientBuffer is a normal,
// expected outcome for a streaming decoder and callers are expected to
// branch on it, not treat it as failure.
type DecodeResult int

const (
	// Success: a complete, well-formed token was decoded and n bytes
	// of buf were consumed.
	Success DecodeResult = iota
	// EmptyBuffer: buf had zero length. Distinguished from
	// InsufficientBuffer so callers can tell "nothing left to try"
	// from "more data needed to finish this token".
	EmptyBuffer
	// TokenMismatch: buf had at least one byte, and its lead byte does
	// not belong to the token family the caller asked for.
	TokenMismatch
	// InsufficientBuffer: the lead byte (and, where applicable, the
	// length prefix) indicate a token family and size that match, but
	// buf does not yet contain the complete token. The caller should
	// buffer more bytes and retry with a longer buf starting at the
	// same offset.
	InsufficientBuffer
)

func (r DecodeResult) String() string {
	switch r {
	case Success:
		return "Success"
	case EmptyBuffer:
		return "EmptyBuffer"
	case TokenMismatch:
		return "TokenMismatch"
	case InsufficientBuffer:
		return "InsufficientBuffer"
	default:
		return "DecodeResult(?)"
	}
}

// tryReadNil decodes a nil token.
func tryReadNil(buf []byte) (n int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, EmptyBuffer
	}
	if buf[0] != mpNil {
		return 0, TokenMismatch
	}
	return 1, Success
}

// tryReadBool decodes a bool token.
func tryReadBool(buf []byte) (v bool, n int, res DecodeResult) {
	if len(buf) == 0 {
		return false, 0, EmptyBuffer
	}
	switch buf[0] {
	case mpTrue:
		return true, 1, Success
	case mpFalse:
		return false, 1, Success
	default:
		return false, 0, TokenMismatch
	}
}

// tryReadInt64 decodes any of the int-family tokens (fixint, int8-64,
// uint8-64, positive and negative fixint) into an int64. Values that do
// not fit in an int64 (large uint64) are reported via OverflowError by
// the caller, not here: here a TokenMismatch is reserved for lead
// bytes outside the int family entirely.
func tryReadInt64(buf []byte) (v int64, n int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, 0, EmptyBuffer
	}
	b := buf[0]
	switch {
	case b <= mpPosFixintMax:
		return int64(b), 1, Success
	case b >= mpNegFixintMin:
		return int64(int8(b)), 1, Success
	case b == mpInt8:
		if len(buf) < 2 {
			return 0, 0, InsufficientBuffer
		}
		return int64(int8(buf[1])), 2, Success
	case b == mpInt16:
		if len(buf) < 3 {
			return 0, 0, InsufficientBuffer
		}
		return int64(int16(beU16(buf[1:]))), 3, Success
	case b == mpInt32:
		if len(buf) < 5 {
			return 0, 0, InsufficientBuffer
		}
		return int64(int32(beU32(buf[1:]))), 5, Success
	case b == mpInt64:
		if len(buf) < 9 {
			return 0, 0, InsufficientBuffer
		}
		return int64(beU64(buf[1:])), 9, Success
	case b == mpUint8:
		if len(buf) < 2 {
			return 0, 0, InsufficientBuffer
		}
		return int64(buf[1]), 2, Success
	case b == mpUint16:
		if len(buf) < 3 {
			return 0, 0, InsufficientBuffer
		}
		return int64(beU16(buf[1:])), 3, Success
	case b == mpUint32:
		if len(buf) < 5 {
			return 0, 0, InsufficientBuffer
		}
		return int64(beU32(buf[1:])), 5, Success
	case b == mpUint64:
		if len(buf) < 9 {
			return 0, 0, InsufficientBuffer
		}
		u := beU64(buf[1:])
		if u > math.MaxInt64 {
			return 0, 9, Success // caller must check range; n is still valid for advancing
		}
		return int64(u), 9, Success
	default:
		return 0, 0, TokenMismatch
	}
}

// tryReadUint64 decodes any int-family token into a uint64, rejecting
// (via the returned ok=false, not TokenMismatch) negative values since
// those cannot be represented.
func tryReadUint64(buf []byte) (v uint64, n int, ok bool, res DecodeResult) {
	i, n, res := tryReadInt64(buf)
	if res != Success {
		return 0, n, true, res
	}
	// Re-derive the raw bits directly for the uint64 lead byte:
	// tryReadInt64 reports 0 for a uint64 whose top bit is set.
	if buf[0] == mpUint64 {
		return beU64(buf[1:]), n, true, Success
	}
	if i < 0 {
		return 0, n, false, Success
	}
	return uint64(i), n, true, Success
}

// tryReadFloat32 decodes a float32 token.
func tryReadFloat32(buf []byte) (v float32, n int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, 0, EmptyBuffer
	}
	if buf[0] != mpFloat32 {
		return 0, 0, TokenMismatch
	}
	if len(buf) < 5 {
		return 0, 0, InsufficientBuffer
	}
	return math.Float32frombits(beU32(buf[1:])), 5, Success
}

// tryReadFloat64 decodes a float64 token.
func tryReadFloat64(buf []byte) (v float64, n int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, 0, EmptyBuffer
	}
	if buf[0] != mpFloat64 {
		return 0, 0, TokenMismatch
	}
	if len(buf) < 9 {
		return 0, 0, InsufficientBuffer
	}
	return math.Float64frombits(beU64(buf[1:])), 9, Success
}

// tryReadStringHeader decodes a str-family token header, returning the
// byte length of the payload and the number of header bytes consumed
// (not including the payload itself). Callers use this to decide
// whether the payload bytes are also present before copying/slicing.
func tryReadStringHeader(buf []byte) (strlen, hdr int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, 0, EmptyBuffer
	}
	b := buf[0]
	switch {
	case b >= mpFixstrPrefix && b <= mpFixstrMax:
		return int(b & 0x1f), 1, Success
	case b == mpStr8:
		if len(buf) < 2 {
			return 0, 0, InsufficientBuffer
		}
		return int(buf[1]), 2, Success
	case b == mpStr16:
		if len(buf) < 3 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU16(buf[1:])), 3, Success
	case b == mpStr32:
		if len(buf) < 5 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU32(buf[1:])), 5, Success
	default:
		return 0, 0, TokenMismatch
	}
}

// tryReadBinHeader decodes a bin-family token header.
func tryReadBinHeader(buf []byte) (binlen, hdr int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, 0, EmptyBuffer
	}
	b := buf[0]
	switch b {
	case mpBin8:
		if len(buf) < 2 {
			return 0, 0, InsufficientBuffer
		}
		return int(buf[1]), 2, Success
	case mpBin16:
		if len(buf) < 3 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU16(buf[1:])), 3, Success
	case mpBin32:
		if len(buf) < 5 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU32(buf[1:])), 5, Success
	default:
		return 0, 0, TokenMismatch
	}
}

// tryReadArrayHeader decodes an array-family token header, returning
// the element count.
func tryReadArrayHeader(buf []byte) (count, hdr int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, 0, EmptyBuffer
	}
	b := buf[0]
	switch {
	case b >= mpFixarrPrefix && b <= mpFixarrMax:
		return int(b & 0x0f), 1, Success
	case b == mpArray16:
		if len(buf) < 3 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU16(buf[1:])), 3, Success
	case b == mpArray32:
		if len(buf) < 5 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU32(buf[1:])), 5, Success
	default:
		return 0, 0, TokenMismatch
	}
}

// tryReadMapHeader decodes a map-family token header, returning the
// pair count (not the raw element count — a map of N pairs is 2N wire
// elements).
func tryReadMapHeader(buf []byte) (pairs, hdr int, res DecodeResult) {
	if len(buf) == 0 {
		return 0, 0, EmptyBuffer
	}
	b := buf[0]
	switch {
	case b >= mpFixmapPrefix && b <= mpFixmapMax:
		return int(b & 0x0f), 1, Success
	case b == mpMap16:
		if len(buf) < 3 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU16(buf[1:])), 3, Success
	case b == mpMap32:
		if len(buf) < 5 {
			return 0, 0, InsufficientBuffer
		}
		return int(beU32(buf[1:])), 5, Success
	default:
		return 0, 0, TokenMismatch
	}
}

// ExtHeader describes a decoded extension token header: its type code
// and payload length. The timestamp extension (type == ExtTimestamp)
// is the only reserved type; all others are application-defined.
type ExtHeader struct {
	Type int8
	Len  int
}

// tryReadExtHeader decodes an ext-family (fixext or ext8/16/32) token
// header.
func tryReadExtHeader(buf []byte) (h ExtHeader, hdr int, res DecodeResult) {
	if len(buf) == 0 {
		return ExtHeader{}, 0, EmptyBuffer
	}
	b := buf[0]
	switch b {
	case mpFixext1:
		return extHdrFixed(buf, 1)
	case mpFixext2:
		return extHdrFixed(buf, 2)
	case mpFixext4:
		return extHdrFixed(buf, 4)
	case mpFixext8:
		return extHdrFixed(buf, 8)
	case mpFixext16:
		return extHdrFixed(buf, 16)
	case mpExt8:
		if len(buf) < 3 {
			return ExtHeader{}, 0, InsufficientBuffer
		}
		return ExtHeader{Type: int8(buf[2]), Len: int(buf[1])}, 3, Success
	case mpExt16:
		if len(buf) < 4 {
			return ExtHeader{}, 0, InsufficientBuffer
		}
		return ExtHeader{Type: int8(buf[3]), Len: int(beU16(buf[1:]))}, 4, Success
	case mpExt32:
		if len(buf) < 6 {
			return ExtHeader{}, 0, InsufficientBuffer
		}
		return ExtHeader{Type: int8(buf[5]), Len: int(beU32(buf[1:]))}, 6, Success
	default:
		return ExtHeader{}, 0, TokenMismatch
	}
}

func extHdrFixed(buf []byte, length int) (ExtHeader, int, DecodeResult) {
	if len(buf) < 2 {
		return ExtHeader{}, 0, InsufficientBuffer
	}
	return ExtHeader{Type: int8(buf[1]), Len: length}, 2, Success
}

func beU16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
func beU64(b []byte) uint64 {
	return uint64(beU32(b))<<32 | uint64(beU32(b[4:]))
}
