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

// objectField pairs a fieldSpec with its (lazily resolved) converter.
type objectField struct {
	spec fieldSpec
	conv *converter
}

// buildObjectConverter builds either the map-scheme converter (the
// default: a MessagePack map keyed by field name) or, for types opted
// in via RegisterArrayScheme, the array-scheme converter (a plain
// positional array of field values), following the builder pattern
// ion/marshal.go's compileEncoder uses: resolve every field's
// converter once, up front, then walk the resolved list at
// encode/decode time.
func buildObjectConverter(t reflect.Type, opts Options) converterFuncs {
	shape := structShapeFor(t)
	fields := make([]objectField, len(shape.fields))
	for i, spec := range shape.fields {
		fields[i] = objectField{spec: spec, conv: resolve(t.Field(spec.index).Type, opts)}
	}
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.spec.name] = i
	}

	if usesArrayScheme(t) {
		return buildArraySchemeObject(t, fields)
	}
	return buildMapSchemeObject(t, fields, byName, opts)
}

func buildMapSchemeObject(t reflect.Type, fields []objectField, byName map[string]int, opts Options) converterFuncs {
	beforeSerialize := hasBeforeSerialize(t)
	afterDeserialize := hasAfterDeserialize(t)
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if err := st.enter(); err != nil {
				return err
			}
			defer st.leave()

			if beforeSerialize {
				var err error
				rv, err = runBeforeSerialize(rv)
				if err != nil {
					return err
				}
			}

			included := make([]int, 0, len(fields))
			for i, of := range fields {
				fv := rv.Field(of.spec.index)
				if fv.IsZero() {
					omit := of.spec.omitempty || !shouldWriteDefault(st.opts.defaultValuesPolicy, fv.Kind(), of.spec.required)
					if omit {
						continue
					}
				}
				included = append(included, i)
			}
			f.WriteMapHeader(len(included))
			for _, i := range included {
				of := fields[i]
				name := of.spec.name
				if st.opts.internStrings {
					name = internString(name)
				}
				f.WriteString(name)
				if err := of.conv.encode(f, rv.Field(of.spec.index), st); err != nil {
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
			pairs, res := d.TryReadMapHeader()
			if res != Success {
				return res, nil
			}
			for i := 0; i < pairs; i++ {
				key, res := d.TryReadString()
				if res != Success {
					return res, nil
				}
				name := string(key)
				idx, ok := byName[name]
				if !ok {
					if _, res := d.TrySkip(); res != Success {
						return res, nil
					}
					continue
				}
				of := fields[idx]
				res, err := of.conv.decode(d, rv.Field(of.spec.index), st)
				if err != nil {
					return res, err
				}
				if res != Success {
					return res, nil
				}
			}
			if afterDeserialize {
				if err := runAfterDeserialize(rv); err != nil {
					return Success, err
				}
			}
			return Success, nil
		},
		schema: func() map[string]any {
			props := map[string]any{}
			for _, of := range fields {
				props[of.spec.name] = of.conv.jsonSchema()
			}
			return map[string]any{"type": "object", "properties": props}
		},
	}
}

func buildArraySchemeObject(t reflect.Type, fields []objectField) converterFuncs {
	beforeSerialize := hasBeforeSerialize(t)
	afterDeserialize := hasAfterDeserialize(t)
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if err := st.enter(); err != nil {
				return err
			}
			defer st.leave()
			if beforeSerialize {
				var err error
				rv, err = runBeforeSerialize(rv)
				if err != nil {
					return err
				}
			}
			f.WriteArrayHeader(len(fields))
			for _, of := range fields {
				if err := of.conv.encode(f, rv.Field(of.spec.index), st); err != nil {
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
			for i := 0; i < count; i++ {
				if i >= len(fields) {
					if _, res := d.TrySkip(); res != Success {
						return res, nil
					}
					continue
				}
				of := fields[i]
				res, err := of.conv.decode(d, rv.Field(of.spec.index), st)
				if err != nil {
					return res, err
				}
				if res != Success {
					return res, nil
				}
			}
			if afterDeserialize {
				if err := runAfterDeserialize(rv); err != nil {
					return Success, err
				}
			}
			return Success, nil
		},
		schema: func() map[string]any {
			items := make([]map[string]any, len(fields))
			for i, of := range fields {
				items[i] = of.conv.jsonSchema()
			}
			return map[string]any{"type": "array", "items": items}
		},
	}
}
