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
	"bytes"
	"reflect"
	"testing"
)

func TestCompactIntEncoding(t *testing.T) {
	cases := []struct {
		value   int64
		encoded []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0xcc, 0x80}},
		{255, []byte{0xcc, 0xff}},
		{256, []byte{0xcd, 0x01, 0x00}},
		{-1, []byte{0xff}},
		{-32, []byte{0xe0}},
		{-33, []byte{0xd0, 0xdf}},
		{-129, []byte{0xd1, 0xff, 0x7f}},
	}
	for _, c := range cases {
		got := appendInt64(nil, c.value)
		if !bytes.Equal(got, c.encoded) {
			t.Errorf("appendInt64(%d) = % x, want % x", c.value, got, c.encoded)
		}
		v, n, res := tryReadInt64(c.encoded)
		if res != Success {
			t.Fatalf("tryReadInt64(% x): res = %s", c.encoded, res)
		}
		if v != c.value {
			t.Errorf("tryReadInt64(% x) = %d, want %d", c.encoded, v, c.value)
		}
		if n != len(c.encoded) {
			t.Errorf("tryReadInt64(% x) consumed %d, want %d", c.encoded, n, len(c.encoded))
		}
	}
}

func TestCompactStringEncoding(t *testing.T) {
	cases := []struct {
		value   string
		encoded []byte
	}{
		{"", []byte{0xa0}},
		{"a", []byte{0xa1, 'a'}},
	}
	for _, c := range cases {
		got := appendStringHeader(nil, len(c.value))
		got = append(got, c.value...)
		if !bytes.Equal(got, c.encoded) {
			t.Errorf("appendStringHeader(%q) = % x, want % x", c.value, got, c.encoded)
		}
	}

	long := bytes.Repeat([]byte("a"), 255)
	hdr := appendStringHeader(nil, len(long))
	if hdr[0] != mpStr8 {
		t.Errorf("255-byte string should use str8, got lead 0x%02x", hdr[0])
	}
	fixmax := bytes.Repeat([]byte("a"), 31)
	hdr = appendStringHeader(nil, len(fixmax))
	if hdr[0] != mpFixstrPrefix|31 {
		t.Errorf("31-byte string should use fixstr, got lead 0x%02x", hdr[0])
	}
}

func TestOverflowDistinctFromTokenMismatch(t *testing.T) {
	// uint64(2^32) decoded into a 32-bit target must overflow, not
	// token-mismatch: the token itself is well-formed.
	var v uint32
	buf := appendUint64(nil, 1<<32)
	d := NewDeformatter(buf)
	rv := reflect.ValueOf(&v).Elem()
	opts := newOptions()
	conv := resolve(rv.Type(), opts)
	res, err := conv.decode(d, rv, &decodeState{opts: opts})
	if res != Success {
		t.Fatalf("decode result = %s, want Success (error should carry the overflow)", res)
	}
	if err == nil {
		t.Fatal("expected an overflow error, got nil")
	}
	if _, ok := err.(*OverflowError); !ok {
		t.Fatalf("expected *OverflowError, got %T: %v", err, err)
	}
}

func TestEmptyBufferVsInsufficientBuffer(t *testing.T) {
	if _, _, res := tryReadInt64(nil); res != EmptyBuffer {
		t.Errorf("tryReadInt64(nil) = %s, want EmptyBuffer", res)
	}
	// a uint16 token (0xcd) with only one of its two value bytes present
	if _, _, res := tryReadInt64([]byte{0xcd, 0x01}); res != InsufficientBuffer {
		t.Errorf("tryReadInt64(truncated uint16) = %s, want InsufficientBuffer", res)
	}
}

func TestTokenMismatch(t *testing.T) {
	// a string lead byte cannot be read as an int
	if _, _, res := tryReadInt64([]byte{0xa1, 'a'}); res != TokenMismatch {
		t.Errorf("tryReadInt64(string token) = %s, want TokenMismatch", res)
	}
}
