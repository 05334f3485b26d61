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

// widget's BeforeSerialize derives Total from Price/Qty right before
// encoding, and AfterDeserialize (pointer receiver) recomputes it after
// decoding, so Total never has to be written or read on the wire.
type widget struct {
	Price int
	Qty   int
	Total int `msgpack:"-"`
}

func (w *widget) BeforeSerialize() error {
	w.Total = w.Price * w.Qty
	return nil
}

func (w *widget) AfterDeserialize() error {
	w.Total = w.Price * w.Qty
	return nil
}

func TestBeforeSerializeRunsOnEncode(t *testing.T) {
	w := widget{Price: 3, Qty: 4}
	buf, err := Serialize(w)
	if err != nil {
		t.Fatal(err)
	}
	got, err := RenderAsJSON(buf)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Price":3,"Qty":4}`
	if got != want {
		t.Errorf("RenderAsJSON = %s, want %s", got, want)
	}
}

func TestAfterDeserializeRunsOnDecode(t *testing.T) {
	buf, err := Serialize(widget{Price: 5, Qty: 6})
	if err != nil {
		t.Fatal(err)
	}
	var out widget
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 30 {
		t.Errorf("Total = %d, want 30 (AfterDeserialize should have recomputed it)", out.Total)
	}
}

type arrayWidget struct {
	Price int
	Qty   int
}

func (w *arrayWidget) BeforeSerialize() error {
	w.Qty++
	return nil
}

func init() {
	RegisterArrayScheme[arrayWidget]()
}

func TestBeforeSerializeRunsOnArraySchemeEncode(t *testing.T) {
	w := arrayWidget{Price: 1, Qty: 1}
	buf, err := Serialize(w)
	if err != nil {
		t.Fatal(err)
	}
	var out arrayWidget
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.Qty != 2 {
		t.Errorf("Qty = %d, want 2 (BeforeSerialize should have incremented it before encoding)", out.Qty)
	}
}
