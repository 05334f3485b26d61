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

// Surrogate lets a type declare its own wire representation as a
// different Go value (the "surrogate"), instead of being walked
// field-by-field. A type implementing both Surrogate and
// SurrogateSetter is converted by first converting the surrogate
// value's own type, exactly as if the caller had serialized the
// surrogate directly.
type Surrogate interface {
	ToMsgpackSurrogate() any
}

// SurrogateSetter is the decode-side counterpart of Surrogate.
type SurrogateSetter interface {
	FromMsgpackSurrogate(v any) error
}

var (
	surrogateType       = reflect.TypeOf((*Surrogate)(nil)).Elem()
	surrogateSetterType = reflect.TypeOf((*SurrogateSetter)(nil)).Elem()
)

func isSurrogate(t reflect.Type) bool {
	return t.Implements(surrogateType) || reflect.PtrTo(t).Implements(surrogateType)
}

// buildSurrogateConverter discovers the surrogate's wire type by
// invoking ToMsgpackSurrogate on t's zero value, then delegates to
// that type's own converter. This requires that ToMsgpackSurrogate not
// depend on instance state to determine its return *type* (only its
// return *value* may vary), which holds for the common case of a
// struct surrogating as one of its own fields' type.
func buildSurrogateConverter(t reflect.Type, opts Options) converterFuncs {
	zero := reflect.New(t).Elem()
	surrogate := zero.Interface().(Surrogate).ToMsgpackSurrogate()
	surrogateType := reflect.TypeOf(surrogate)
	var inner *converter

	canSet := t.Implements(surrogateSetterType) || reflect.PtrTo(t).Implements(surrogateSetterType)

	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			s := rv.Interface().(Surrogate).ToMsgpackSurrogate()
			if inner == nil {
				inner = resolve(reflect.TypeOf(s), st.opts)
			}
			sv := reflect.New(surrogateType).Elem()
			sv.Set(reflect.ValueOf(s))
			return inner.encode(f, sv, st)
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			if !canSet {
				return Success, schemaError(t.String(), "does not implement SurrogateSetter")
			}
			if inner == nil {
				inner = resolve(surrogateType, st.opts)
			}
			sv := reflect.New(surrogateType).Elem()
			res, err := inner.decode(d, sv, st)
			if res != Success || err != nil {
				return res, err
			}
			target := rv
			if !target.CanAddr() {
				return Success, schemaError(t.String(), "surrogate target is not addressable")
			}
			setter, ok := target.Addr().Interface().(SurrogateSetter)
			if !ok {
				return Success, schemaError(t.String(), "does not implement SurrogateSetter")
			}
			if err := setter.FromMsgpackSurrogate(sv.Interface()); err != nil {
				return Success, err
			}
			return Success, nil
		},
		schema: func() map[string]any {
			if inner == nil {
				inner = resolve(surrogateType, opts)
			}
			return inner.jsonSchema()
		},
	}
}
