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

import "github.com/msgpack-wire/msgpack/mptime"

// Deformatter reads one MessagePack token at a time from a borrowed
// byte buffer. Every TryRead* method returns a DecodeResult instead of
// an error: TokenMismatch and InsufficientBuffer are both routine,
// expected outcomes that converters and the async Reader branch on,
// not failures to be wrapped and propagated.
//
// On Success the cursor advances past the token; on any other result
// it does not move, so the same bytes can be retried verbatim once
// more data is available (InsufficientBuffer) or reinterpreted by a
// different converter (TokenMismatch, e.g. a union probing alternatives).
type Deformatter struct {
	cur cursor
}

// NewDeformatter wraps buf for reading. buf is borrowed: the
// Deformatter never copies or mutates it.
func NewDeformatter(buf []byte) *Deformatter {
	return &Deformatter{cur: newCursor(buf)}
}

// Reset rebinds the Deformatter to a new buffer, for reuse across
// Deserialize calls from a pool.
func (d *Deformatter) Reset(buf []byte) { d.cur.reset(buf) }

// Offset reports how many bytes have been consumed so far.
func (d *Deformatter) Offset() int { return d.cur.offset() }

// Rest returns the unconsumed remainder of the buffer.
func (d *Deformatter) Rest() []byte { return d.cur.rest() }

// PeekLeadByte returns the next lead byte without consuming it. ok is
// false only when the buffer is exhausted.
func (d *Deformatter) PeekLeadByte() (byte, bool) {
	return d.cur.peekLead()
}

// PeekKind reports the Kind of the next token without consuming it.
// ok is false only when the buffer is exhausted.
func (d *Deformatter) PeekKind() (k Kind, ok bool) {
	b, ok := d.cur.peekLead()
	if !ok {
		return 0, false
	}
	return KindOf(b), true
}

func (d *Deformatter) TryReadNil() DecodeResult {
	n, res := tryReadNil(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return res
}

func (d *Deformatter) TryReadBool() (bool, DecodeResult) {
	v, n, res := tryReadBool(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return v, res
}

func (d *Deformatter) TryReadInt64() (int64, DecodeResult) {
	v, n, res := tryReadInt64(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return v, res
}

func (d *Deformatter) TryReadUint64() (v uint64, ok bool, res DecodeResult) {
	v, n, ok, res := tryReadUint64(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return v, ok, res
}

func (d *Deformatter) TryReadFloat32() (float32, DecodeResult) {
	v, n, res := tryReadFloat32(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return v, res
}

func (d *Deformatter) TryReadFloat64() (float64, DecodeResult) {
	v, n, res := tryReadFloat64(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return v, res
}

// TryReadString decodes a string token, returning its content as a
// slice that aliases the Deformatter's backing buffer. Callers that
// need to retain the string past the next mutation of the input
// buffer must copy it (e.g. via the Go string conversion, which
// copies).
func (d *Deformatter) TryReadString() ([]byte, DecodeResult) {
	rest := d.cur.rest()
	strlen, hdr, res := tryReadStringHeader(rest)
	if res != Success {
		return nil, res
	}
	if len(rest) < hdr+strlen {
		return nil, InsufficientBuffer
	}
	d.cur.advance(hdr + strlen)
	return rest[hdr : hdr+strlen], Success
}

// TryReadBinary decodes a binary token the same way TryReadString
// decodes a string token.
func (d *Deformatter) TryReadBinary() ([]byte, DecodeResult) {
	rest := d.cur.rest()
	binlen, hdr, res := tryReadBinHeader(rest)
	if res != Success {
		return nil, res
	}
	if len(rest) < hdr+binlen {
		return nil, InsufficientBuffer
	}
	d.cur.advance(hdr + binlen)
	return rest[hdr : hdr+binlen], Success
}

// TryReadBinaryCompat decodes a binary payload the way
// WithOldSpecCompatibility writes one: as a str-family token instead of
// a bin-family one. It tries TryReadBinary first and falls back to a
// str-family token, so a buffer produced without old-spec compatibility
// still reads back correctly.
func (d *Deformatter) TryReadBinaryCompat() ([]byte, DecodeResult) {
	if b, res := d.TryReadBinary(); res != TokenMismatch {
		return b, res
	}
	return d.TryReadString()
}

func (d *Deformatter) TryReadArrayHeader() (count int, res DecodeResult) {
	count, n, res := tryReadArrayHeader(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return count, res
}

func (d *Deformatter) TryReadMapHeader() (pairs int, res DecodeResult) {
	pairs, n, res := tryReadMapHeader(d.cur.rest())
	if res == Success {
		d.cur.advance(n)
	}
	return pairs, res
}

// TryReadExt decodes an extension token (header and payload together),
// returning the payload as a slice aliasing the backing buffer.
func (d *Deformatter) TryReadExt() (ExtHeader, []byte, DecodeResult) {
	rest := d.cur.rest()
	h, hdr, res := tryReadExtHeader(rest)
	if res != Success {
		return ExtHeader{}, nil, res
	}
	if len(rest) < hdr+h.Len {
		return ExtHeader{}, nil, InsufficientBuffer
	}
	d.cur.advance(hdr + h.Len)
	return h, rest[hdr : hdr+h.Len], Success
}

// TryReadTimestamp decodes the reserved timestamp extension (type -1)
// in any of its three wire forms.
func (d *Deformatter) TryReadTimestamp() (mptime.Time, DecodeResult) {
	rest := d.cur.rest()
	h, hdr, res := tryReadExtHeader(rest)
	if res != Success {
		return mptime.Time{}, res
	}
	if h.Type != ExtTimestamp {
		return mptime.Time{}, TokenMismatch
	}
	if len(rest) < hdr+h.Len {
		return mptime.Time{}, InsufficientBuffer
	}
	payload := rest[hdr : hdr+h.Len]
	t, ok := decodeTimestampPayload(h.Len, payload)
	if !ok {
		return mptime.Time{}, tokenMismatchFor(KindExtension)
	}
	d.cur.advance(hdr + h.Len)
	return t, Success
}

// decodeTimestampPayload decodes the payload of the reserved
// timestamp extension given its already-validated length, shared by
// TryReadTimestamp and the JSON renderer (which re-parses a payload it
// has already consumed from the wire).
func decodeTimestampPayload(length int, payload []byte) (mptime.Time, bool) {
	var sec, nsec int64
	switch length {
	case 4:
		sec = int64(beU32(payload))
	case 8:
		v := beU64(payload)
		sec = int64(v & ((1 << 34) - 1))
		nsec = int64(v >> 34)
	case 12:
		nsec = int64(beU32(payload))
		sec = int64(beU64(payload[4:]))
	default:
		return mptime.Time{}, false
	}
	return mptime.Unix(sec, nsec), true
}

func tokenMismatchFor(k Kind) DecodeResult { return TokenMismatch }

// TrySkip advances the cursor past one complete (possibly nested)
// value using a fresh SkipState, returning the bytes it spanned. It
// fails (TokenMismatch/InsufficientBuffer) without partially advancing
// the cursor unless the whole value could be skipped.
func (d *Deformatter) TrySkip() ([]byte, DecodeResult) {
	st := NewSkipState()
	rest := d.cur.rest()
	n, res := st.Advance(rest)
	if res != Success {
		return nil, res
	}
	d.cur.advance(n)
	return rest[:n], Success
}
