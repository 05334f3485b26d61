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
	"strconv"
	"sync"
)

// unionDef is a closed set of concrete types that may appear behind an
// interface field, each keyed by a short alias written onto the wire
// alongside the payload so the decoder knows which concrete type to
// rebuild. spec.md §4.7 allows either an integer or a string alias;
// a single union may mix both schemes across its members (each
// concrete type picks exactly one), so both lookup directions are
// kept side by side rather than picking one scheme for the whole
// union.
type unionDef struct {
	aliasToType    map[string]reflect.Type
	typeToAlias    map[reflect.Type]string
	intAliasToType map[int]reflect.Type
	typeToIntAlias map[reflect.Type]int
}

var (
	unionMu       sync.RWMutex
	unionRegistry = map[reflect.Type]*unionDef{}
)

func unionDefFor(ifaceType reflect.Type) *unionDef {
	def, ok := unionRegistry[ifaceType]
	if !ok {
		def = &unionDef{
			aliasToType:    map[string]reflect.Type{},
			typeToAlias:    map[reflect.Type]string{},
			intAliasToType: map[int]reflect.Type{},
			typeToIntAlias: map[reflect.Type]int{},
		}
		unionRegistry[ifaceType] = def
	}
	return def
}

// RegisterUnion declares the closed set of concrete types that may
// appear wherever the interface type I is used as a field type.
// members maps a short, stable alias (which must never be renamed
// once data has been written with it) to a zero-valued instance of
// each concrete member type.
func RegisterUnion[I any](members map[string]I) {
	ifaceType := reflect.TypeOf((*I)(nil)).Elem()
	unionMu.Lock()
	defer unionMu.Unlock()
	def := unionDefFor(ifaceType)
	for alias, v := range members {
		ct := reflect.TypeOf(v)
		def.aliasToType[alias] = ct
		def.typeToAlias[ct] = alias
	}
}

// RegisterUnionInt declares the closed set of concrete types that may
// appear wherever the interface type I is used as a field type,
// identified on the wire by an integer alias instead of a string one
// (spec.md §4.7's other alias form). It may be called alongside
// RegisterUnion for the same I to register some members by integer
// alias and others by string alias.
func RegisterUnionInt[I any](members map[int]I) {
	ifaceType := reflect.TypeOf((*I)(nil)).Elem()
	unionMu.Lock()
	defer unionMu.Unlock()
	def := unionDefFor(ifaceType)
	for alias, v := range members {
		ct := reflect.TypeOf(v)
		def.intAliasToType[alias] = ct
		def.typeToIntAlias[ct] = alias
	}
}

func lookupUnion(t reflect.Type) (*unionDef, bool) {
	if t.Kind() != reflect.Interface {
		return nil, false
	}
	unionMu.RLock()
	defer unionMu.RUnlock()
	u, ok := unionRegistry[t]
	return u, ok
}

// buildUnionConverter builds the [alias, payload] wire form described
// in the polymorphism module: a 2-element array whose first slot is
// the registered alias (a string or an integer) and whose second slot is the concrete
// value encoded with its own converter.
func buildUnionConverter(t reflect.Type, u *unionDef, opts Options) converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if rv.IsNil() {
				f.WriteNil()
				return nil
			}
			elem := rv.Elem()
			ct := elem.Type()
			if err := st.enter(); err != nil {
				return err
			}
			defer st.leave()
			if alias, ok := u.typeToAlias[ct]; ok {
				f.WriteArrayHeader(2)
				f.WriteString(alias)
				inner := resolve(ct, st.opts)
				payload := reflect.New(ct).Elem()
				payload.Set(elem)
				return inner.encode(f, payload, st)
			}
			if alias, ok := u.typeToIntAlias[ct]; ok {
				f.WriteArrayHeader(2)
				f.WriteInt(int64(alias))
				inner := resolve(ct, st.opts)
				payload := reflect.New(ct).Elem()
				payload.Set(elem)
				return inner.encode(f, payload, st)
			}
			return subtypeError("", "type "+ct.String()+" is not a registered member of this union")
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
			if count != 2 {
				return Success, subtypeError("", "union wire form must be a 2-element array")
			}
			aliasKind, peekOK := d.PeekKind()
			if !peekOK {
				return InsufficientBuffer, nil
			}
			var ct reflect.Type
			switch aliasKind {
			case KindString:
				aliasBytes, res := d.TryReadString()
				if res != Success {
					return res, nil
				}
				var ok bool
				ct, ok = u.aliasToType[string(aliasBytes)]
				if !ok {
					return Success, subtypeError(string(aliasBytes), "no registered union member for this alias")
				}
			case KindInt:
				aliasInt, res := d.TryReadInt64()
				if res != Success {
					return res, nil
				}
				var ok bool
				ct, ok = u.intAliasToType[int(aliasInt)]
				if !ok {
					return Success, subtypeError(strconv.FormatInt(aliasInt, 10), "no registered union member for this alias")
				}
			default:
				return Success, subtypeError("", "union alias must be an integer or a string")
			}
			inner := resolve(ct, st.opts)
			payload := reflect.New(ct).Elem()
			res, err := inner.decode(d, payload, st)
			if res != Success || err != nil {
				return res, err
			}
			rv.Set(payload)
			return Success, nil
		},
		schema: func() map[string]any {
			variants := make([]map[string]any, 0, len(u.aliasToType)+len(u.intAliasToType))
			for alias, ct := range u.aliasToType {
				variants = append(variants, map[string]any{
					"alias":  alias,
					"schema": resolve(ct, opts).jsonSchema(),
				})
			}
			for alias, ct := range u.intAliasToType {
				variants = append(variants, map[string]any{
					"alias":  alias,
					"schema": resolve(ct, opts).jsonSchema(),
				})
			}
			return map[string]any{"oneOf": variants}
		},
	}
}

// buildInterfaceConverter handles an interface field with no
// registered union. Decoding falls back to RawMessage-style verbatim
// capture, since there is no closed type set to dispatch on; this only
// type-asserts successfully for the empty interface (any). A
// non-empty interface field with no RegisterUnion entry will panic at
// decode time when the decoded RawMessage is assigned to it — callers
// with a closed set of implementations should call RegisterUnion
// instead of relying on this fallback.
func buildInterfaceConverter(t reflect.Type, opts Options) converterFuncs {
	return converterFuncs{
		encode: func(f *Formatter, rv reflect.Value, st *encodeState) error {
			if rv.IsNil() {
				f.WriteNil()
				return nil
			}
			elem := rv.Elem()
			inner := resolve(elem.Type(), st.opts)
			return inner.encode(f, elem, st)
		},
		decode: func(d *Deformatter, rv reflect.Value, st *decodeState) (DecodeResult, error) {
			raw, res := decodeRawMessage(d)
			if res != Success {
				return res, nil
			}
			rv.Set(reflect.ValueOf(raw.Clone()))
			return Success, nil
		},
		schema: func() map[string]any { return map[string]any{} },
	}
}
