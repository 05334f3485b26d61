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
	"context"
	"io"
	"testing"
)

// chunkedReader hands back buf in chunkSize-byte pieces, the way a
// socket read would split an otherwise-contiguous payload at arbitrary
// boundaries. Verifies the streaming decoder is insensitive to where
// those boundaries fall.
type chunkedReader struct {
	buf       []byte
	chunkSize int
	pos       int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}
	n := r.chunkSize
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.buf) {
		n = len(r.buf) - r.pos
	}
	copy(p, r.buf[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

type asyncPayload struct {
	Name   string
	Values []int
	Nested map[string]int
}

func TestAsyncWriterRoundTripsThroughSyncReader(t *testing.T) {
	var dst bytes.Buffer
	w := NewAsyncWriter(&dst)
	ctx := context.Background()
	v := asyncPayload{Name: "async", Values: []int{1, 2, 3}, Nested: map[string]int{"a": 1}}
	if err := w.Submit(ctx, v); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}

	var out asyncPayload
	if err := Deserialize(dst.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != v.Name || out.Values[0] != 1 || out.Nested["a"] != 1 {
		t.Errorf("round-trip mismatch: got %+v", out)
	}
}

// TestAsyncReaderEquivalenceAcrossChunkBoundaries checks that decoding
// the same encoded value through the async reader yields the same
// result regardless of how the underlying io.Reader partitions it into
// chunks — the streaming/sync equivalence property from spec.md.
func TestAsyncReaderEquivalenceAcrossChunkBoundaries(t *testing.T) {
	want := asyncPayload{Name: "chunked", Values: []int{10, 20, 30, 40}, Nested: map[string]int{"x": 9, "y": 8}}
	buf, err := Serialize(want)
	if err != nil {
		t.Fatal(err)
	}

	for chunkSize := 1; chunkSize <= len(buf); chunkSize++ {
		src := &chunkedReader{buf: buf, chunkSize: chunkSize}
		r := NewAsyncReader(src, 4)
		var out asyncPayload
		if err := r.Decode(context.Background(), &out); err != nil {
			t.Fatalf("chunkSize=%d: Decode error: %v", chunkSize, err)
		}
		if out.Name != want.Name {
			t.Fatalf("chunkSize=%d: Name = %q, want %q", chunkSize, out.Name, want.Name)
		}
		if len(out.Values) != len(want.Values) {
			t.Fatalf("chunkSize=%d: Values = %v, want %v", chunkSize, out.Values, want.Values)
		}
		for i := range want.Values {
			if out.Values[i] != want.Values[i] {
				t.Fatalf("chunkSize=%d: Values[%d] = %d, want %d", chunkSize, i, out.Values[i], want.Values[i])
			}
		}
		if out.Nested["x"] != 9 || out.Nested["y"] != 8 {
			t.Fatalf("chunkSize=%d: Nested = %v", chunkSize, out.Nested)
		}
	}
}

func TestAsyncWriterStallHookInvokedOnFlush(t *testing.T) {
	var dst bytes.Buffer
	var stalled bool
	w := NewAsyncWriter(&dst, WithStallHook(func(string, ...any) { stalled = true }))
	ctx := context.Background()
	big := make([]int, 20000)
	for i := range big {
		big[i] = i
	}
	if err := w.Submit(ctx, big); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if !stalled {
		t.Error("expected the stall hook to fire for a payload past the flush threshold")
	}
}
