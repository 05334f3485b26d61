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
	"testing"
)

// TestSkipIdempotence reproduces spec.md's scenario 6: skipping
// 0x92 0x01 0x93 0x02 0x03 0x04 0x05 (the 2-element array [1, [2,3,4]])
// consumes exactly the 6 bytes of that value and leaves the trailing
// 0x05 byte untouched.
func TestSkipIdempotence(t *testing.T) {
	buf := []byte{0x92, 0x01, 0x93, 0x02, 0x03, 0x04, 0x05}
	st := NewSkipState()
	n, res := st.Advance(buf)
	if res != Success {
		t.Fatalf("skip result = %s, want Success", res)
	}
	if n != 6 {
		t.Fatalf("skip consumed %d bytes, want 6", n)
	}
	if len(buf)-n != 1 {
		t.Fatalf("expected 1 trailing byte left over, got %d", len(buf)-n)
	}
	if !st.Done() {
		t.Fatal("SkipState should be Done after a full skip")
	}
}

// TestSkipResumesAcrossChunkBoundaries checks that for every prefix of
// a well-formed structure shorter than the structure itself, skip
// reports InsufficientBuffer (EmptyBuffer for the empty prefix) and
// resumes correctly once the remainder
// becomes available. The value [1, [2,3,4]] occupies exactly the first
// 6 bytes of buf; the trailing 0x05 belongs to no token in the value
// and must never be consumed by the resumed skip.
func TestSkipResumesAcrossChunkBoundaries(t *testing.T) {
	buf := []byte{0x92, 0x01, 0x93, 0x02, 0x03, 0x04, 0x05}
	const valueLen = 6
	for k := 0; k < valueLen; k++ {
		st := NewSkipState()
		consumed := 0
		n, res := st.Advance(buf[:k])
		if res == Success {
			t.Fatalf("prefix of length %d unexpectedly succeeded", k)
		}
		wantRes := InsufficientBuffer
		if k == 0 {
			wantRes = EmptyBuffer
		}
		if res != wantRes {
			t.Fatalf("prefix of length %d: res = %s, want %s", k, res, wantRes)
		}
		consumed += n
		// Feed the rest of the value (but not the trailing byte) and
		// confirm it completes.
		n2, res2 := st.Advance(buf[consumed:valueLen])
		if res2 != Success {
			t.Fatalf("resuming after prefix %d: res = %s, want Success", k, res2)
		}
		if consumed+n2 != valueLen {
			t.Fatalf("resuming after prefix %d: total consumed %d, want %d", k, consumed+n2, valueLen)
		}
	}
}

func TestSkipOverEveryWireType(t *testing.T) {
	buf, err := Serialize(struct {
		A int
		B string
		C []int
		D map[string]int
		E float64
		F bool
		G *int
	}{A: 1, B: "hi", C: []int{1, 2, 3}, D: map[string]int{"k": 1}, E: 1.5, F: true})
	if err != nil {
		t.Fatal(err)
	}
	d := NewDeformatter(buf)
	consumed, res := d.TrySkip()
	if res != Success {
		t.Fatalf("TrySkip over full struct: res = %s", res)
	}
	if !bytes.Equal(consumed, buf) {
		t.Fatalf("TrySkip consumed % x, want the entire buffer % x", consumed, buf)
	}
	if len(d.Rest()) != 0 {
		t.Fatalf("expected Rest() to be empty after skipping the whole value, got %d bytes", len(d.Rest()))
	}
}
