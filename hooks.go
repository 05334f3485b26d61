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

import "reflect"

// BeforeSerializer lets an object type run logic immediately before its
// fields are written to the wire, at the converter boundary described
// by spec.md §4.6 ("types that advertise a before-serialize ...
// capability get those callbacks invoked once, at the converter
// boundary"). Returning an error aborts the encode.
type BeforeSerializer interface {
	BeforeSerialize() error
}

// AfterDeserializer is the decode-side counterpart of BeforeSerializer,
// invoked once after every field has been read back into the instance.
type AfterDeserializer interface {
	AfterDeserialize() error
}

var (
	beforeSerializerType  = reflect.TypeOf((*BeforeSerializer)(nil)).Elem()
	afterDeserializerType = reflect.TypeOf((*AfterDeserializer)(nil)).Elem()
)

func hasBeforeSerialize(t reflect.Type) bool {
	return t.Implements(beforeSerializerType) || reflect.PtrTo(t).Implements(beforeSerializerType)
}

func hasAfterDeserialize(t reflect.Type) bool {
	return t.Implements(afterDeserializerType) || reflect.PtrTo(t).Implements(afterDeserializerType)
}

// addressableCopy returns a settable, addressable reflect.Value holding
// a copy of rv. Object values reached via Serialize(v) (v passed by
// value, not by pointer) are never addressable, so a pointer-receiver
// BeforeSerialize could never be invoked on the real field values
// without first copying them onto the heap this way.
func addressableCopy(rv reflect.Value) reflect.Value {
	local := reflect.New(rv.Type()).Elem()
	local.Set(rv)
	return local
}

// runBeforeSerialize invokes rv's BeforeSerialize hook if it
// advertises one and returns the (possibly mutated) value callers
// should encode in rv's place. rv is first copied onto an addressable
// local so a pointer-receiver hook can mutate it regardless of whether
// the original rv came in addressable.
func runBeforeSerialize(rv reflect.Value) (reflect.Value, error) {
	local := addressableCopy(rv)
	if bs, ok := local.Addr().Interface().(BeforeSerializer); ok {
		if err := bs.BeforeSerialize(); err != nil {
			return rv, err
		}
		return local, nil
	}
	if bs, ok := local.Interface().(BeforeSerializer); ok {
		if err := bs.BeforeSerialize(); err != nil {
			return rv, err
		}
	}
	return rv, nil
}

// runAfterDeserialize invokes rv's AfterDeserialize hook if it
// advertises one. Object converters only call this when rv is
// addressable (it always is: object fields are reached through a
// settable parent), so a pointer-receiver implementation is reachable
// even though decode fills rv in place rather than through a fresh
// reflect.New.
func runAfterDeserialize(rv reflect.Value) error {
	if rv.CanAddr() {
		if ad, ok := rv.Addr().Interface().(AfterDeserializer); ok {
			return ad.AfterDeserialize()
		}
	}
	if ad, ok := rv.Interface().(AfterDeserializer); ok {
		return ad.AfterDeserialize()
	}
	return nil
}
