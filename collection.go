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
	"reflect"
	"sort"
)

// buildSliceConverter handles any slice type other than []byte (which
// bytesConverterFuncs handles as a binary token). Multidimensional
// slices ([][]T and deeper) fall out for free: the element converter
// for a []T element type is itself built by buildSliceConverter,
// recursively.
func buildSliceConverter(t reflect.Type, opts Options) converterFuncs {
	elem := t.Elem()
	var elemConv *converter
	resolveElem := func(o Options) *converter {
		if elemConv == nil {
			elemConv = resolve(elem, o)
		}
		return elemConv
	}

	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if rv.IsNil() {
				f.WriteNil()
				return nil
			}
			if err := st.enter(); err != nil {
				return err
			}
			defer st.leave()
			n := rv.Len()
			f.WriteArrayHeader(n)
			conv := resolveElem(st.opts)
			for i := 0; i < n; i++ {
				if err := conv.encode(f, rv.Index(i), st); err != nil {
					return err
				}
			}
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
			if err := st.enter(); err != nil {
				return Success, err
			}
			defer st.leave()
			count, res := d.TryReadArrayHeader()
			if res != Success {
				return res, nil
			}
			out := reflect.MakeSlice(t, count, count)
			conv := resolveElem(st.opts)
			for i := 0; i < count; i++ {
				res, err := conv.decode(d, out.Index(i), st)
				if err != nil {
					return res, err
				}
				if res != Success {
					return res, nil
				}
			}
			rv.Set(out)
			return Success, nil
		},
		schema: func() map[string]any {
			return map[string]any{"type": "array", "items": resolveElem(opts).jsonSchema()}
		},
	}
}

// buildArrayConverter handles fixed-size Go arrays ([N]T). Unlike
// slices they have no nil representation; a short wire array leaves
// the trailing elements at T's zero value, and a long one skips the
// excess.
func buildArrayConverter(t reflect.Type, opts Options) converterFuncs {
	elem := t.Elem()
	n := t.Len()
	var elemConv *converter
	resolveElem := func(o Options) *converter {
		if elemConv == nil {
			elemConv = resolve(elem, o)
		}
		return elemConv
	}

	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if err := st.enter(); err != nil {
				return err
			}
			defer st.leave()
			f.WriteArrayHeader(n)
			conv := resolveElem(st.opts)
			for i := 0; i < n; i++ {
				if err := conv.encode(f, rv.Index(i), st); err != nil {
					return err
				}
			}
			return nil
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			if err := st.enter(); err != nil {
				return Success, err
			}
			defer st.leave()
			rv.Set(reflect.Zero(t))
			count, res := d.TryReadArrayHeader()
			if res != Success {
				return res, nil
			}
			conv := resolveElem(st.opts)
			for i := 0; i < count; i++ {
				if i >= n {
					if _, res := d.TrySkip(); res != Success {
						return res, nil
					}
					continue
				}
				res, err := conv.decode(d, rv.Index(i), st)
				if err != nil {
					return res, err
				}
				if res != Success {
					return res, nil
				}
			}
			return Success, nil
		},
		schema: func() map[string]any {
			return map[string]any{"type": "array", "items": resolveElem(opts).jsonSchema(), "minItems": n, "maxItems": n}
		},
	}
}

// buildMapConverter handles any map type. Key order on the wire is
// sorted when the key type is a string (for byte-stable output across
// runs, since Go's own map iteration order is randomized); other key
// types are written in whatever order reflect.Value.MapRange yields,
// since there is no general total order to fall back on.
func buildMapConverter(t reflect.Type, opts Options) converterFuncs {
	keyType, valType := t.Key(), t.Elem()
	var keyConv, valConv *converter
	resolveKey := func(o Options) *converter {
		if keyConv == nil {
			keyConv = resolve(keyType, o)
		}
		return keyConv
	}
	resolveVal := func(o Options) *converter {
		if valConv == nil {
			valConv = resolve(valType, o)
		}
		return valConv
	}

	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if rv.IsNil() {
				f.WriteNil()
				return nil
			}
			if err := st.enter(); err != nil {
				return err
			}
			defer st.leave()
			keys := rv.MapKeys()
			if keyType.Kind() == reflect.String {
				sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
			}
			f.WriteMapHeader(len(keys))
			kc, vc := resolveKey(st.opts), resolveVal(st.opts)
			for _, k := range keys {
				if err := kc.encode(f, k, st); err != nil {
					return err
				}
				if err := vc.encode(f, rv.MapIndex(k), st); err != nil {
					return err
				}
			}
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
			if err := st.enter(); err != nil {
				return Success, err
			}
			defer st.leave()
			pairs, res := d.TryReadMapHeader()
			if res != Success {
				return res, nil
			}
			out := reflect.MakeMapWithSize(t, pairs)
			kc, vc := resolveKey(st.opts), resolveVal(st.opts)
			for i := 0; i < pairs; i++ {
				kv := reflect.New(keyType).Elem()
				res, err := kc.decode(d, kv, st)
				if err != nil {
					return res, err
				}
				if res != Success {
					return res, nil
				}
				vv := reflect.New(valType).Elem()
				res, err = vc.decode(d, vv, st)
				if err != nil {
					return res, err
				}
				if res != Success {
					return res, nil
				}
				out.SetMapIndex(kv, vv)
			}
			rv.Set(out)
			return Success, nil
		},
		schema: func() map[string]any {
			return map[string]any{"type": "object", "additionalProperties": resolveVal(opts).jsonSchema()}
		},
	}
}
