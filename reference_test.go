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

import "testing"

type refNode struct {
	Val  int
	Next *refNode
}

type refHolder struct {
	A *refNode
	B *refNode
}

func TestReferencePreservationSharedSubstructure(t *testing.T) {
	shared := &refNode{Val: 42}
	h := refHolder{A: shared, B: shared}

	buf, err := Serialize(h, WithPreserveReferences(true))
	if err != nil {
		t.Fatal(err)
	}
	var out refHolder
	if err := Deserialize(buf, &out, WithPreserveReferences(true)); err != nil {
		t.Fatal(err)
	}
	if out.A == nil || out.B == nil {
		t.Fatalf("expected both pointers populated, got %+v", out)
	}
	if out.A.Val != 42 || out.B.Val != 42 {
		t.Errorf("value mismatch: got A=%+v B=%+v", out.A, out.B)
	}
	if out.A != out.B {
		t.Error("expected A and B to share identity after decode, got distinct pointers")
	}
}

func TestReferencePreservationWithoutOptionDuplicates(t *testing.T) {
	shared := &refNode{Val: 7}
	h := refHolder{A: shared, B: shared}

	buf, err := Serialize(h)
	if err != nil {
		t.Fatal(err)
	}
	var out refHolder
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.A == out.B {
		t.Error("expected distinct pointers when reference preservation is disabled")
	}
	if out.A.Val != 7 || out.B.Val != 7 {
		t.Errorf("value mismatch: got A=%+v B=%+v", out.A, out.B)
	}
}

func TestReferencePreservationCyclicGraph(t *testing.T) {
	n := &refNode{Val: 5}
	n.Next = n

	buf, err := Serialize(n, WithPreserveReferences(true))
	if err != nil {
		t.Fatal(err)
	}
	var out *refNode
	if err := Deserialize(buf, &out, WithPreserveReferences(true)); err != nil {
		t.Fatal(err)
	}
	if out == nil {
		t.Fatal("expected a non-nil node")
	}
	if out.Val != 5 {
		t.Errorf("Val = %d, want 5", out.Val)
	}
	if out.Next != out {
		t.Error("expected the cycle to round-trip: out.Next should point back to out")
	}
}
