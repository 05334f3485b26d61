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

type shape interface {
	area() float64
}

type circle struct {
	Radius float64
}

func (c circle) area() float64 { return 3.14159 * c.Radius * c.Radius }

type square struct {
	Side float64
}

func (s square) area() float64 { return s.Side * s.Side }

type triangle struct {
	Base, Height float64
}

func (tr triangle) area() float64 { return 0.5 * tr.Base * tr.Height }

func init() {
	RegisterUnion[shape](map[string]shape{
		"circle": circle{},
		"square": square{},
	})
}

type shapeHolder struct {
	S shape
}

type vehicle interface {
	wheels() int
}

type car struct {
	Make string
}

func (c car) wheels() int { return 4 }

type motorcycle struct {
	Make string
}

func (m motorcycle) wheels() int { return 2 }

func init() {
	RegisterUnionInt[vehicle](map[int]vehicle{
		1: car{},
		2: motorcycle{},
	})
}

type vehicleHolder struct {
	V vehicle
}

func TestUnionRoundTripRegisteredMember(t *testing.T) {
	v := shapeHolder{S: circle{Radius: 2}}
	buf, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	var out shapeHolder
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	got, ok := out.S.(circle)
	if !ok {
		t.Fatalf("expected a circle, got %T", out.S)
	}
	if got.Radius != 2 {
		t.Errorf("Radius = %v, want 2", got.Radius)
	}
}

func TestUnionRoundTripOtherMember(t *testing.T) {
	v := shapeHolder{S: square{Side: 5}}
	buf, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	var out shapeHolder
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	got, ok := out.S.(square)
	if !ok {
		t.Fatalf("expected a square, got %T", out.S)
	}
	if got.Side != 5 {
		t.Errorf("Side = %v, want 5", got.Side)
	}
}

func TestUnionNilInterfaceEncodesAsNil(t *testing.T) {
	v := shapeHolder{S: nil}
	buf, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	var out shapeHolder
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.S != nil {
		t.Errorf("expected nil interface after round trip, got %v", out.S)
	}
}

func TestUnionUnregisteredTypeErrors(t *testing.T) {
	v := shapeHolder{S: triangle{Base: 3, Height: 4}}
	if _, err := Serialize(v); err == nil {
		t.Fatal("expected an error encoding an unregistered union member")
	} else if _, ok := err.(*SubtypeError); !ok {
		t.Errorf("expected *SubtypeError, got %T: %v", err, err)
	}
}

func TestUnionIntAliasRoundTrip(t *testing.T) {
	v := vehicleHolder{V: motorcycle{Make: "Ducati"}}
	buf, err := Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	var out vehicleHolder
	if err := Deserialize(buf, &out); err != nil {
		t.Fatal(err)
	}
	got, ok := out.V.(motorcycle)
	if !ok {
		t.Fatalf("expected a motorcycle, got %T", out.V)
	}
	if got.Make != "Ducati" {
		t.Errorf("Make = %v, want Ducati", got.Make)
	}
}

func TestUnionUnknownIntAliasOnDecodeErrors(t *testing.T) {
	// Hand-build a [alias, payload] wire form with an integer alias
	// that was never registered, to exercise the int-alias decode
	// error path separately from the string-alias one.
	buf, err := Serialize(struct {
		V [2]any
	}{V: [2]any{99, "payload"}})
	if err != nil {
		t.Fatal(err)
	}
	var out vehicleHolder
	err = Deserialize(buf, &out)
	if err == nil {
		t.Fatal("expected an error decoding an unknown integer union alias")
	}
	if _, ok := err.(*SubtypeError); !ok {
		t.Errorf("expected *SubtypeError, got %T: %v", err, err)
	}
}

func TestUnionUnknownAliasOnDecodeErrors(t *testing.T) {
	// Hand-build a [alias, payload] wire form with an alias that was
	// never registered, to exercise the decode-side error path.
	buf, err := Serialize(struct {
		S [2]any
	}{S: [2]any{"bogus-alias", 1}})
	if err != nil {
		t.Fatal(err)
	}
	var out shapeHolder
	err = Deserialize(buf, &out)
	if err == nil {
		t.Fatal("expected an error decoding an unknown union alias")
	}
	if _, ok := err.(*SubtypeError); !ok {
		t.Errorf("expected *SubtypeError, got %T: %v", err, err)
	}
}
