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

// buildNullableConverter wraps the converter for *Elem so a nil
// pointer writes (and a nil token reads back as) the MessagePack nil
// token, and a non-nil pointer defers to Elem's converter on the
// pointed-to value.
//
// When WithPreserveReferences is set, every non-nil pointer is also
// wrapped in the id-tracking extension described in reference.go: the
// first time a given pointer is encountered it is wrapped in
// extRefDef (id + payload); every later encounter of the same pointer
// writes only an extRefPointer back-reference. This is what lets
// shared substructure — including cyclic graphs — round-trip without
// duplication or infinite recursion.
func buildNullableConverter(t reflect.Type, opts Options) converterFuncs {
	elem := t.Elem()
	var inner *converter
	resolveInner := func(opts Options) *converter {
		if inner == nil {
			inner = resolve(elem, opts)
		}
		return inner
	}

	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if rv.IsNil() {
				f.WriteNil()
				return nil
			}
			if !st.opts.preserveReferences {
				return resolveInner(st.opts).encode(f, rv.Elem(), st)
			}
			id, first := st.refs.idFor(rv.Pointer())
			if !first {
				var tmp [4]byte
				putBE32(tmp[:], uint32(id))
				f.WriteExt(extRefPointer, tmp[:])
				return nil
			}
			sub := NewFormatter()
			if err := resolveInner(st.opts).encode(sub, rv.Elem(), st); err != nil {
				return err
			}
			payload := make([]byte, 4+sub.Size())
			putBE32(payload[:4], uint32(id))
			copy(payload[4:], sub.Bytes())
			f.WriteExt(extRefDef, payload)
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			if k, ok := d.PeekKind(); ok && k == KindNull {
				if res := d.TryReadNil(); res != Success {
					return res, nil
				}
				rv.Set(reflect.Zero(t))
				return Success, nil
			}
			if !st.opts.preserveReferences {
				if rv.IsNil() {
					rv.Set(reflect.New(elem))
				}
				return resolveInner(st.opts).decode(d, rv.Elem(), st)
			}
			h, payload, res := d.TryReadExt()
			if res != Success {
				return res, nil
			}
			switch h.Type {
			case extRefPointer:
				id := int(beU32(payload))
				v, ok := st.refs.lookup(id)
				if !ok {
					return Success, referenceError(id)
				}
				rv.Set(v)
				return Success, nil
			case extRefDef:
				if len(payload) < 4 {
					return Success, subtypeError("", "truncated reference-definition extension")
				}
				id := int(beU32(payload[:4]))
				newPtr := reflect.New(elem)
				st.refs.register(id, newPtr)
				sub := NewDeformatter(payload[4:])
				res, err := resolveInner(st.opts).decode(sub, newPtr.Elem(), st)
				if err != nil {
					return res, err
				}
				if res != Success {
					return res, nil
				}
				rv.Set(newPtr)
				return Success, nil
			default:
				return Success, subtypeError("", "expected reference-preservation extension")
			}
		},
		schema: func() map[string]any {
			s := resolveInner(opts).jsonSchema()
			out := map[string]any{}
			for k, v := range s {
				out[k] = v
			}
			out["nullable"] = true
			return out
		},
	}
}
